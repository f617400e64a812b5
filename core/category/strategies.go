package category

import (
	"math"
	"strings"

	"github.com/archivekit/dossier/model"
	"github.com/archivekit/dossier/taxonomy"
	"github.com/google/uuid"
)

// keywordScore returns the fraction of the category's keywords and context
// keywords found in the aggregated context text. Any exclusion keyword
// present zeroes the score.
func keywordScore(cat *taxonomy.Category, contextText string) float64 {
	if contextText == "" {
		return 0
	}

	folded := foldText(contextText)

	for _, exclusion := range cat.ExclusionKeywords {
		if containsPhrase(folded, exclusion) {
			return 0
		}
	}

	total := len(cat.Keywords) + len(cat.ContextKeywords)
	if total == 0 {
		return 0
	}

	matched := 0
	for _, keyword := range cat.Keywords {
		if containsPhrase(folded, keyword) {
			matched++
		}
	}
	for _, keyword := range cat.ContextKeywords {
		if containsPhrase(folded, keyword) {
			matched++
		}
	}

	return float64(matched) / float64(total)
}

// evidenceScore returns the weighted average of the category's evidence
// weights over the bundle's mention source types, in [0,1]
func evidenceScore(cat *taxonomy.Category, bundle *model.EvidenceBundle) float64 {
	if bundle.MentionCount == 0 {
		return 0
	}

	var weighted float64
	for sourceType, count := range bundle.SourceCounts {
		weighted += float64(count) * cat.WeightFor(sourceType)
	}

	return weighted / float64(bundle.MentionCount)
}

// frequencyScore normalizes mention count and external connection count.
// Saturates at 20 mentions and 50 connections.
func frequencyScore(bundle *model.EvidenceBundle) float64 {
	mentions := math.Log1p(float64(bundle.MentionCount)) / math.Log1p(20)
	if mentions > 1 {
		mentions = 1
	}

	connections := float64(bundle.ConnectionCount) / 50
	if connections > 1 {
		connections = 1
	}

	return 0.6*mentions + 0.4*connections
}

// hierarchicalScore propagates partial score from co-occurring entities that
// already carry this category. One hop only, so scores cannot cascade through
// the graph run over run.
func hierarchicalScore(cat *taxonomy.Category, bundle *model.EvidenceBundle, neighbors NeighborCategories) float64 {
	if neighbors == nil || len(bundle.CoOccurring) == 0 {
		return 0
	}

	var carrierWeight float64
	for entityID, coCount := range bundle.CoOccurring {
		for _, categoryType := range neighbors(entityID) {
			if categoryType == cat.Type {
				carrierWeight += math.Min(float64(coCount), 3)
				break
			}
		}
	}

	score := carrierWeight / 6
	if score > 1 {
		return 1
	}
	return score
}

// NeighborCategories returns the category types already assigned to a
// co-occurring entity. Implementations look up persisted assignments,
// giving the hierarchical strategy its one-hop view.
type NeighborCategories func(entityID uuid.UUID) []string

// foldText lowercases text and collapses non-alphanumerics to spaces so
// phrase containment can match across punctuation. The result is padded with
// spaces for token-boundary matching.
func foldText(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range strings.ToLower(text) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '\'' {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	return " " + strings.Join(strings.Fields(b.String()), " ") + " "
}

// containsPhrase reports whether a keyword or phrase occurs on token
// boundaries in folded text. The phrase is folded the same way as the text
// so "co-conspirator" matches "co conspirator".
func containsPhrase(folded string, phrase string) bool {
	p := strings.TrimSpace(foldText(phrase))
	if p == "" {
		return false
	}
	return strings.Contains(folded, " "+p+" ")
}
