package typing

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/archivekit/dossier/model"
)

// Cascade runs an explicit ordered list of classification tiers until one
// returns a result at or above the acceptance threshold. The validation gate
// always runs first, as a hard precondition, before any tier is attempted.
type Cascade struct {
	tiers       []Tier
	threshold   float64
	tierTimeout time.Duration
	log         *slog.Logger
}

// NewCascade creates a classification cascade. Tiers are attempted in the
// given order; the last tier should be deterministic and total (the rule tier)
// so the cascade always produces a value for gate-passing candidates.
func NewCascade(logger *slog.Logger, config model.ClassifyConfig, tiers ...Tier) *Cascade {
	threshold := config.AcceptanceThreshold
	if threshold <= 0 {
		threshold = model.DefaultClassifyConfig().AcceptanceThreshold
	}
	timeout := config.Tier1Timeout
	if timeout <= 0 {
		timeout = model.DefaultClassifyConfig().Tier1Timeout
	}
	return &Cascade{
		tiers:       tiers,
		threshold:   threshold,
		tierTimeout: timeout,
		log:         logger,
	}
}

// Classify runs the cascade for one mention text. It returns the classified
// type, its confidence, and the name of the tier that produced the result.
// ErrRejected is returned for candidates failing the validation gate.
//
// The result is deterministic for a fixed tier configuration: the same text
// and bundle always yield the same type and confidence.
func (c *Cascade) Classify(ctx context.Context, text string, bundle *model.EvidenceBundle) (*TypeResult, string, error) {
	if err := Validate(text); err != nil {
		return nil, "", err
	}

	if len(c.tiers) == 0 {
		return nil, "", fmt.Errorf("cascade has no tiers configured")
	}

	prepared := model.StripLeadingInitial(model.StripPossessive(strings.TrimSpace(text)))
	if prepared == "" {
		prepared = strings.TrimSpace(text)
	}

	var lastResult *TypeResult
	var lastTier string

	for _, tier := range c.tiers {
		result, err := c.attempt(ctx, tier, prepared, bundle)
		if err != nil {
			c.log.Warn("Classification tier failed, falling through",
				slog.String("tier", tier.Name()),
				slog.String("text", text),
				slog.String("error", err.Error()))
			continue
		}
		if result == nil {
			c.log.Debug("Classification tier declined",
				slog.String("tier", tier.Name()),
				slog.String("text", text))
			continue
		}

		lastResult = result
		lastTier = tier.Name()

		if result.Confidence >= c.threshold {
			return result, tier.Name(), nil
		}
	}

	// All tiers declined or stayed below threshold. The rule tier's value
	// (including its location default) is still the best available answer.
	if lastResult != nil {
		return lastResult, lastTier, nil
	}

	return nil, "", fmt.Errorf("all classification tiers declined for %q", text)
}

// attempt runs one tier with the per-tier timeout applied
func (c *Cascade) attempt(ctx context.Context, tier Tier, text string, bundle *model.EvidenceBundle) (*TypeResult, error) {
	tierCtx, cancel := context.WithTimeout(ctx, c.tierTimeout)
	defer cancel()
	return tier.Attempt(tierCtx, text, bundle)
}
