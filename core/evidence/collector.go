// Package evidence aggregates per-mention signals into the bundle consumed by
// the type classifier and the relationship categorizer.
package evidence

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/archivekit/dossier/model"
	"github.com/google/uuid"
)

// Collector gathers contextual signals for one entity's mentions.
// It makes no classification decisions, only aggregation.
type Collector struct {
	log *slog.Logger
}

// NewCollector creates a new evidence collector
func NewCollector(logger *slog.Logger) *Collector {
	return &Collector{log: logger}
}

// Collect aggregates the mentions already linked to one candidate entity into
// an evidence bundle. documentEntities maps a document id to the entity ids
// appearing in that document and is used for co-occurrence counting.
//
// Mentions without a valid source type are malformed input: they are excluded
// from the bundle, logged, and counted, never silently dropped.
func (c *Collector) Collect(entityID uuid.UUID, mentions []*model.EntityMention, documentEntities map[uuid.UUID][]uuid.UUID) (*model.EvidenceBundle, error) {
	if len(mentions) == 0 {
		return nil, fmt.Errorf("no mentions to collect evidence from")
	}

	bundle := &model.EvidenceBundle{
		SourceCounts: make(map[model.SourceType]int),
		CoOccurring:  make(map[uuid.UUID]int),
	}

	var contextParts []string
	seenSources := make(map[model.EvidenceSource]bool)

	for _, mention := range mentions {
		if mention == nil || !mention.SourceType.Valid() {
			bundle.MalformedCount++
			c.log.Warn("Excluding malformed mention from evidence bundle",
				slog.String("entity_id", entityID.String()),
				slog.String("raw_text", mentionText(mention)))
			continue
		}

		bundle.MentionCount++
		bundle.SourceCounts[mention.SourceType]++

		if trimmed := strings.TrimSpace(mention.ContextWindow); trimmed != "" {
			contextParts = append(contextParts, trimmed)
		}

		source := model.EvidenceSource{
			DocumentID: mention.SourceDocumentID,
			SourceType: mention.SourceType,
		}
		if !seenSources[source] {
			seenSources[source] = true
			bundle.Sources = append(bundle.Sources, source)
		}

		for _, other := range documentEntities[mention.SourceDocumentID] {
			if other != entityID {
				bundle.CoOccurring[other]++
			}
		}
	}

	bundle.ContextText = strings.Join(contextParts, "\n")

	if bundle.MentionCount == 0 {
		return nil, fmt.Errorf("all %d mentions were malformed", bundle.MalformedCount)
	}

	return bundle, nil
}

func mentionText(mention *model.EntityMention) string {
	if mention == nil {
		return "<nil>"
	}
	return mention.RawText
}
