// Package category implements the relationship categorizer: it scores every
// applicable taxonomy category for an entity with a weighted blend of four
// strategies and assigns all categories that clear the confidence floor.
package category

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/archivekit/dossier/core/scoring"
	"github.com/archivekit/dossier/model"
	"github.com/archivekit/dossier/taxonomy"
)

// Categorizer applies the taxonomy to entities. It holds an immutable
// taxonomy reference and is safe for concurrent use.
type Categorizer struct {
	tax *taxonomy.Taxonomy
	log *slog.Logger
}

// NewCategorizer creates a categorizer for a validated taxonomy
func NewCategorizer(tax *taxonomy.Taxonomy, logger *slog.Logger) (*Categorizer, error) {
	if tax == nil {
		return nil, fmt.Errorf("taxonomy is nil")
	}
	return &Categorizer{tax: tax, log: logger}, nil
}

// Categorize scores every taxonomy category applicable to the entity type and
// returns all assignments whose confidence clears the category's floor.
//
// Multi-classification is intentional: every qualifying category is kept, and
// contradictory pairs are flagged rather than silently resolved. The result
// is sorted by taxonomy priority ascending (display order only).
func (c *Categorizer) Categorize(entityType model.EntityType, bundle *model.EvidenceBundle, neighbors NeighborCategories) model.CategoryAssignments {
	assignments := model.CategoryAssignments{}
	if bundle == nil {
		return assignments
	}

	bestSource := bundle.BestSourceType()
	sourceCount := bundle.DistinctSourceCount()

	for _, cat := range c.tax.ApplicableTo(entityType) {
		scores := scoring.StrategyScores{
			Keyword:      keywordScore(cat, bundle.ContextText),
			Evidence:     evidenceScore(cat, bundle),
			Frequency:    frequencyScore(bundle),
			Hierarchical: hierarchicalScore(cat, bundle, neighbors),
		}

		rawScore := scores.Combine()
		confidence := scoring.Confidence(rawScore, bestSource, sourceCount)
		thresholds := cat.EffectiveThresholds()

		if confidence < thresholds.Assignment {
			continue
		}

		assignments = append(assignments, model.CategoryAssignment{
			CategoryType:    cat.Type,
			Confidence:      confidence,
			ConfidenceBand:  bandFor(confidence, thresholds, sourceCount),
			EvidenceSources: append([]model.EvidenceSource(nil), bundle.Sources...),
			Priority:        cat.Priority,
		})
	}

	c.flagConflicts(assignments)

	sort.SliceStable(assignments, func(i, j int) bool {
		if assignments[i].Priority != assignments[j].Priority {
			return assignments[i].Priority < assignments[j].Priority
		}
		return assignments[i].Confidence > assignments[j].Confidence
	})

	return assignments
}

// bandFor derives the band from per-category thresholds and enforces the
// source-count invariant: high requires at least three distinct sources.
func bandFor(confidence float64, thresholds taxonomy.Thresholds, sourceCount int) model.ConfidenceBand {
	var band model.ConfidenceBand
	switch {
	case confidence >= thresholds.High:
		band = model.BandHigh
	case confidence >= thresholds.Medium:
		band = model.BandMedium
	default:
		band = model.BandLow
	}
	if band == model.BandHigh && sourceCount < scoring.MinHighBandSources {
		return model.BandMedium
	}
	return band
}

// flagConflicts marks contradictory category pairs that both qualified.
// Both are kept; resolution is deferred to a human reviewer, since silent
// override destroys evidence.
func (c *Categorizer) flagConflicts(assignments model.CategoryAssignments) {
	for i := range assignments {
		for j := i + 1; j < len(assignments); j++ {
			if !c.tax.AreConflicting(assignments[i].CategoryType, assignments[j].CategoryType) {
				continue
			}
			assignments[i].Conflict = true
			assignments[j].Conflict = true
			assignments[i].ConflictsWith = append(assignments[i].ConflictsWith, assignments[j].CategoryType)
			assignments[j].ConflictsWith = append(assignments[j].ConflictsWith, assignments[i].CategoryType)
			c.log.Warn("Contradictory categories both qualify, keeping both for review",
				slog.String("category_a", assignments[i].CategoryType),
				slog.String("category_b", assignments[j].CategoryType))
		}
	}
}
