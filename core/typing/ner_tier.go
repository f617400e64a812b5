package typing

import (
	"context"
	"fmt"
	"strings"

	"github.com/archivekit/dossier/helper"
	"github.com/archivekit/dossier/model"
	"github.com/knights-analytics/hugot"
	"github.com/knights-analytics/hugot/pipelines"
)

// NERTier classifies entity types with a statistical named-entity recognizer.
// It maps the model's label scheme (PER/ORG/LOC/GPE/MISC) onto the three-way
// taxonomy and declines on MISC or when no entity is detected.
type NERTier struct {
	classify func(text string) (*TypeResult, error)
}

// NewNERTier creates an NER tier backed by the distilbert-NER model
func NewNERTier() (*NERTier, error) {
	modelName := "KnightsAnalytics/distilbert-NER"
	modelPath, err := helper.PrepareModel(modelName, "model.onnx")
	if err != nil {
		return nil, err
	}

	session, err := hugot.NewGoSession()
	if err != nil {
		return nil, fmt.Errorf("failed to create hugot session: %w", err)
	}

	config := hugot.TokenClassificationConfig{
		ModelPath: modelPath,
		Name:      "type-ner-pipeline",
		Options: []hugot.TokenClassificationOption{
			pipelines.WithSimpleAggregation(),
			pipelines.WithIgnoreLabels([]string{"O"}), // Ignore non-entity tokens
		},
	}
	nerPipeline, err := hugot.NewPipeline(session, config)
	if err != nil {
		if destroyErr := session.Destroy(); destroyErr != nil {
			return nil, fmt.Errorf("failed to create NER pipeline: %w (cleanup error: %v)", err, destroyErr)
		}
		return nil, fmt.Errorf("failed to create NER pipeline: %w", err)
	}

	classify := func(text string) (*TypeResult, error) {
		result, err := nerPipeline.RunPipeline([]string{text})
		if err != nil {
			return nil, fmt.Errorf("failed to run NER: %w", err)
		}

		if len(result.Entities) == 0 || len(result.Entities[0]) == 0 {
			return nil, nil
		}

		// Vote across detected spans, weighted by model score
		votes := make(map[model.EntityType]float64)
		counts := make(map[model.EntityType]int)
		for _, entity := range result.Entities[0] {
			entityType, ok := mapNERLabel(entity.Entity)
			if !ok {
				continue
			}
			votes[entityType] += float64(entity.Score)
			counts[entityType]++
		}

		var best model.EntityType
		var bestScore float64
		for entityType, score := range votes {
			if score > bestScore {
				best = entityType
				bestScore = score
			}
		}

		if counts[best] == 0 {
			return nil, nil
		}

		return &TypeResult{
			Type:       best,
			Confidence: bestScore / float64(counts[best]),
		}, nil
	}

	return &NERTier{classify: classify}, nil
}

// Name returns the tier name
func (t *NERTier) Name() string {
	return TierNER
}

// Attempt runs the NER model on the mention text
func (t *NERTier) Attempt(ctx context.Context, text string, bundle *model.EvidenceBundle) (*TypeResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return t.classify(text)
}

// mapNERLabel maps NER label schemes onto the three-way taxonomy.
// BIO prefixes (B-/I-) are stripped first.
func mapNERLabel(label string) (model.EntityType, bool) {
	normalized := strings.TrimPrefix(strings.TrimPrefix(label, "B-"), "I-")
	switch strings.ToUpper(normalized) {
	case "PER", "PERSON":
		return model.EntityPerson, true
	case "ORG", "ORGANIZATION":
		return model.EntityOrganization, true
	case "LOC", "LOCATION", "GPE", "FAC":
		return model.EntityLocation, true
	default:
		// MISC and unknown labels decline
		return "", false
	}
}
