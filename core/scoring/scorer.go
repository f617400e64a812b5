// Package scoring provides the shared confidence-scoring primitives used by
// the procedural type-classifier tier and the relationship categorizer.
// All functions are pure, there is no I/O and no shared state.
package scoring

import "github.com/archivekit/dossier/model"

// Strategy weights for combining categorization sub-scores
const (
	WeightKeyword      = 0.40
	WeightEvidence     = 0.35
	WeightFrequency    = 0.15
	WeightHierarchical = 0.10
)

// Confidence band boundaries
const (
	AssignmentFloor = 0.30
	MediumFloor     = 0.60
	HighFloor       = 0.85
)

// MinHighBandSources is the number of distinct evidence sources required
// before a numeric high-band score may actually be reported as high
const MinHighBandSources = 3

// QualityClass groups source types by reliability
type QualityClass int

const (
	QualityPrimary QualityClass = iota
	QualitySecondary
	QualityTertiary
)

// StrategyScores holds the four sub-scores of the categorizer, each in [0,1]
type StrategyScores struct {
	Keyword      float64
	Evidence     float64
	Frequency    float64
	Hierarchical float64
}

// Combine blends the strategy sub-scores into a single raw score
func (s StrategyScores) Combine() float64 {
	raw := WeightKeyword*s.Keyword +
		WeightEvidence*s.Evidence +
		WeightFrequency*s.Frequency +
		WeightHierarchical*s.Hierarchical
	return Clamp01(raw)
}

// Quality returns the quality class for a source type
func Quality(sourceType model.SourceType) QualityClass {
	switch sourceType {
	case model.SourceCourtFiling, model.SourceDeposition, model.SourceFlightLog:
		return QualityPrimary
	case model.SourceContactBook, model.SourceCorrespondence, model.SourceFinancial, model.SourceAdministrative:
		return QualitySecondary
	default:
		return QualityTertiary
	}
}

// QualityFactor returns the evidence-quality multiplier for the best
// available source type
func QualityFactor(bestSourceType model.SourceType) float64 {
	switch Quality(bestSourceType) {
	case QualityPrimary:
		return 1.0
	case QualitySecondary:
		return 0.7
	default:
		return 0.4
	}
}

// SourceCountFactor returns the corroboration multiplier for the number of
// distinct evidence sources
func SourceCountFactor(sourceCount int) float64 {
	switch {
	case sourceCount <= 1:
		return 0.7
	case sourceCount == 2:
		return 0.85
	case sourceCount == 3:
		return 0.95
	default:
		return 1.0
	}
}

// Confidence computes the final confidence for a category assignment:
// raw score scaled by evidence quality and source count
func Confidence(rawScore float64, bestSourceType model.SourceType, sourceCount int) float64 {
	return Clamp01(rawScore * QualityFactor(bestSourceType) * SourceCountFactor(sourceCount))
}

// Corroborate adjusts a deterministic rule confidence by how many distinct
// sources back the entity. Used by the procedural classifier tier.
// Entities without source evidence are scaled like single-source ones so that
// the result stays monotonic in the source count.
func Corroborate(base float64, sourceCount int) float64 {
	if sourceCount < 1 {
		sourceCount = 1
	}
	return Clamp01(base * (0.85 + 0.15*SourceCountFactor(sourceCount)))
}

// Band derives the confidence band from a numeric confidence
func Band(confidence float64) model.ConfidenceBand {
	switch {
	case confidence >= HighFloor:
		return model.BandHigh
	case confidence >= MediumFloor:
		return model.BandMedium
	default:
		return model.BandLow
	}
}

// BandWithSources derives the band and enforces the source-count invariant:
// a high band requires at least MinHighBandSources distinct evidence sources,
// otherwise the band is clamped to medium regardless of the numeric score.
func BandWithSources(confidence float64, sourceCount int) model.ConfidenceBand {
	band := Band(confidence)
	if band == model.BandHigh && sourceCount < MinHighBandSources {
		return model.BandMedium
	}
	return band
}

// Clamp01 clamps a value into [0,1]
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
