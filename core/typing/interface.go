// Package typing implements the three-tier entity type classification cascade:
// a model-based classifier, a statistical NER fallback, and a deterministic
// rule tier that always produces a result.
package typing

import (
	"context"

	"github.com/archivekit/dossier/model"
)

// Tier names reported in classification results
const (
	TierModel = "model"
	TierNER   = "ner"
	TierRule  = "rule"
)

// TypeResult is one tier's classification of a mention
type TypeResult struct {
	Type       model.EntityType `json:"entity_type"`
	Confidence float64          `json:"confidence"`
}

// Tier is one stage of the classification cascade. Attempt returns nil when
// the tier declines to classify; an error means the tier failed and the
// cascade falls through to the next tier.
type Tier interface {
	Name() string
	Attempt(ctx context.Context, text string, bundle *model.EvidenceBundle) (*TypeResult, error)
}
