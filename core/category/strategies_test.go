package category

import (
	"testing"

	"github.com/archivekit/dossier/model"
	"github.com/archivekit/dossier/taxonomy"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestKeywordScore(t *testing.T) {
	cat := &taxonomy.Category{
		Type:              "crew",
		Keywords:          []string{"pilot", "crew"},
		ContextKeywords:   []string{"cockpit", "co-pilot"},
		ExclusionKeywords: []string{"ground staff"},
	}

	t.Run("Score is the matched fraction over all keywords", func(t *testing.T) {
		assert.InDelta(t, 0.5, keywordScore(cat, "the pilot entered the cockpit"), 1e-9,
			"Expected two of four keywords matched")
		assert.InDelta(t, 1.0, keywordScore(cat, "pilot and crew in the cockpit with the co-pilot"), 1e-9)
	})

	t.Run("Empty context scores zero", func(t *testing.T) {
		assert.Equal(t, 0.0, keywordScore(cat, ""))
	})

	t.Run("No keywords scores zero", func(t *testing.T) {
		empty := &taxonomy.Category{Type: "empty"}
		assert.Equal(t, 0.0, keywordScore(empty, "any text"))
	})

	t.Run("Exclusion keyword zeroes the score", func(t *testing.T) {
		assert.Equal(t, 0.0, keywordScore(cat, "the pilot was reassigned to ground staff duty"),
			"Expected the exclusion phrase to veto all matches")
	})

	t.Run("Matching is token-bounded", func(t *testing.T) {
		assert.Equal(t, 0.0, keywordScore(cat, "the autopilot aircrew simulation"),
			"Expected no substring matches inside longer words")
	})

	t.Run("Hyphenated phrases match across punctuation", func(t *testing.T) {
		assert.InDelta(t, 0.5, keywordScore(cat, "the co pilot took over"), 1e-9,
			"Expected the folded co-pilot phrase and the bare pilot token to both match")
	})
}

func TestEvidenceScore(t *testing.T) {
	cat := &taxonomy.Category{
		Type: "crew",
		EvidenceWeights: map[model.SourceType]float64{
			model.SourceFlightLog:  1.0,
			model.SourceDeposition: 0.5,
		},
	}

	t.Run("Score is the weighted average over mentions", func(t *testing.T) {
		bundle := &model.EvidenceBundle{
			MentionCount: 4,
			SourceCounts: map[model.SourceType]int{
				model.SourceFlightLog:  2,
				model.SourceDeposition: 2,
			},
		}
		assert.InDelta(t, (2*1.0+2*0.5)/4, evidenceScore(cat, bundle), 1e-9)
	})

	t.Run("Unlisted source types use the default weight", func(t *testing.T) {
		bundle := &model.EvidenceBundle{
			MentionCount: 1,
			SourceCounts: map[model.SourceType]int{model.SourceNewsArticle: 1},
		}
		assert.InDelta(t, taxonomy.DefaultEvidenceWeight, evidenceScore(cat, bundle), 1e-9)
	})

	t.Run("Empty bundle scores zero", func(t *testing.T) {
		assert.Equal(t, 0.0, evidenceScore(cat, &model.EvidenceBundle{}))
	})
}

func TestFrequencyScore(t *testing.T) {
	t.Run("Empty bundle scores zero", func(t *testing.T) {
		assert.Equal(t, 0.0, frequencyScore(&model.EvidenceBundle{}))
	})

	t.Run("Score grows with mentions and connections", func(t *testing.T) {
		few := frequencyScore(&model.EvidenceBundle{MentionCount: 2, ConnectionCount: 1})
		many := frequencyScore(&model.EvidenceBundle{MentionCount: 10, ConnectionCount: 20})
		assert.Greater(t, many, few)
	})

	t.Run("Score saturates", func(t *testing.T) {
		saturated := frequencyScore(&model.EvidenceBundle{MentionCount: 500, ConnectionCount: 500})
		assert.InDelta(t, 1.0, saturated, 1e-9, "Expected both components capped at one")
	})
}

func TestHierarchicalScore(t *testing.T) {
	cat := &taxonomy.Category{Type: "crew"}
	neighbor := uuid.New()
	stranger := uuid.New()

	carriers := func(entityID uuid.UUID) []string {
		if entityID == neighbor {
			return []string{"crew", "passengers"}
		}
		return nil
	}

	t.Run("Nil neighbors scores zero", func(t *testing.T) {
		bundle := &model.EvidenceBundle{CoOccurring: map[uuid.UUID]int{neighbor: 2}}
		assert.Equal(t, 0.0, hierarchicalScore(cat, bundle, nil))
	})

	t.Run("No co-occurrences scores zero", func(t *testing.T) {
		assert.Equal(t, 0.0, hierarchicalScore(cat, &model.EvidenceBundle{}, carriers))
	})

	t.Run("Category-carrying neighbors contribute", func(t *testing.T) {
		bundle := &model.EvidenceBundle{CoOccurring: map[uuid.UUID]int{neighbor: 2, stranger: 5}}
		assert.InDelta(t, 2.0/6, hierarchicalScore(cat, bundle, carriers),
			1e-9, "Expected only the carrying neighbor counted")
	})

	t.Run("Per-neighbor contribution is capped", func(t *testing.T) {
		bundle := &model.EvidenceBundle{CoOccurring: map[uuid.UUID]int{neighbor: 50}}
		assert.InDelta(t, 3.0/6, hierarchicalScore(cat, bundle, carriers),
			1e-9, "Expected one neighbor to contribute at most three co-occurrences")
	})

	t.Run("Score is capped at one", func(t *testing.T) {
		bundle := &model.EvidenceBundle{CoOccurring: map[uuid.UUID]int{}}
		for i := 0; i < 10; i++ {
			bundle.CoOccurring[uuid.New()] = 5
		}
		all := func(uuid.UUID) []string { return []string{"crew"} }
		assert.Equal(t, 1.0, hierarchicalScore(cat, bundle, all))
	})
}

func TestContainsPhrase(t *testing.T) {
	t.Run("Matches on token boundaries", func(t *testing.T) {
		folded := foldText("the party was at the townhouse")
		assert.True(t, containsPhrase(folded, "party"))
		assert.False(t, containsPhrase(folded, "art"), "Expected no match inside a longer token")
	})

	t.Run("Folds punctuation in both phrase and text", func(t *testing.T) {
		folded := foldText("described as a co-conspirator in the filing")
		assert.True(t, containsPhrase(folded, "co-conspirator"))
		assert.True(t, containsPhrase(folded, "co conspirator"))
	})

	t.Run("Empty phrase never matches", func(t *testing.T) {
		assert.False(t, containsPhrase(foldText("anything"), ""))
		assert.False(t, containsPhrase(foldText("anything"), "   "))
	})
}
