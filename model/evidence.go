package model

import "github.com/google/uuid"

// EvidenceBundle aggregates the contextual signals for one entity's mentions.
// It is produced by the evidence collector and consumed by both the type
// classifier and the relationship categorizer. No classification decisions
// are made during collection, only aggregation.
type EvidenceBundle struct {
	MentionCount    int                `json:"mention_count"`
	SourceCounts    map[SourceType]int `json:"source_counts"`
	ContextText     string             `json:"context_text,omitempty"`
	Sources         []EvidenceSource   `json:"sources,omitempty"`
	CoOccurring     map[uuid.UUID]int  `json:"co_occurring,omitempty"`
	ConnectionCount int                `json:"connection_count"`
	MalformedCount  int                `json:"malformed_count,omitempty"`
}

// DistinctSourceCount returns the number of distinct evidence sources (documents)
func (b *EvidenceBundle) DistinctSourceCount() int {
	if b == nil {
		return 0
	}
	return len(b.Sources)
}

// BestSourceType returns the highest-quality source type present in the bundle.
// Returns SourceOther when the bundle is empty.
func (b *EvidenceBundle) BestSourceType() SourceType {
	if b == nil || len(b.SourceCounts) == 0 {
		return SourceOther
	}
	best := SourceOther
	bestRank := sourceQualityRank(best)
	for st := range b.SourceCounts {
		if r := sourceQualityRank(st); r < bestRank {
			best = st
			bestRank = r
		}
	}
	return best
}

// sourceQualityRank orders source types from most to least reliable
func sourceQualityRank(st SourceType) int {
	switch st {
	case SourceCourtFiling:
		return 0
	case SourceDeposition:
		return 1
	case SourceFlightLog:
		return 2
	case SourceContactBook:
		return 3
	case SourceCorrespondence:
		return 4
	case SourceFinancial:
		return 5
	case SourceAdministrative:
		return 6
	case SourceNewsArticle:
		return 7
	default:
		return 8
	}
}
