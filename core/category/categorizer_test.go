package category

import (
	"io"
	"log/slog"
	"testing"

	"github.com/archivekit/dossier/model"
	"github.com/archivekit/dossier/taxonomy"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testTaxonomy is a small flight-crew ontology with a declared conflict pair
// and low thresholds so scores qualify without large fixtures
const testTaxonomyYAML = `
version: "test"
categories:
  - type: crew
    label: Crew
    priority: 1
    applies_to: [person]
    keywords: [pilot, crew]
    context_keywords: [cockpit]
    conflicts_with: [passengers]
    evidence_weights:
      flight_log: 1.0
    confidence_thresholds:
      assignment: 0.1
      medium: 0.3
      high: 0.5
  - type: passengers
    label: Passengers
    priority: 2
    applies_to: [person]
    keywords: [passenger, manifest]
    conflicts_with: [crew]
    evidence_weights:
      flight_log: 1.0
    confidence_thresholds:
      assignment: 0.1
      medium: 0.3
      high: 0.5
  - type: hangars
    label: Hangars
    priority: 3
    applies_to: [location]
    keywords: [hangar]
    evidence_weights:
      flight_log: 1.0
    confidence_thresholds:
      assignment: 0.1
      medium: 0.3
      high: 0.5
  - type: visitors
    label: Visitors
    priority: 4
    applies_to: [person]
    keywords: [visitor]
`

func testCategorizer(t *testing.T) *Categorizer {
	t.Helper()
	tax, err := taxonomy.Parse([]byte(testTaxonomyYAML))
	require.NoError(t, err, "failed to parse test taxonomy")

	categorizer, err := NewCategorizer(tax, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err, "failed to create categorizer")
	return categorizer
}

// flightBundle builds a bundle of flight-log mentions across distinct documents
func flightBundle(documents int, contextText string) *model.EvidenceBundle {
	bundle := &model.EvidenceBundle{
		MentionCount: documents,
		SourceCounts: map[model.SourceType]int{model.SourceFlightLog: documents},
		ContextText:  contextText,
		CoOccurring:  map[uuid.UUID]int{},
	}
	for i := 0; i < documents; i++ {
		bundle.Sources = append(bundle.Sources, model.EvidenceSource{
			DocumentID: uuid.New(),
			SourceType: model.SourceFlightLog,
		})
	}
	return bundle
}

func TestNewCategorizer(t *testing.T) {
	t.Run("Nil taxonomy is an error", func(t *testing.T) {
		_, err := NewCategorizer(nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
		assert.Error(t, err, "Expected an error for a nil taxonomy")
	})
}

func TestCategorizer_Categorize(t *testing.T) {
	categorizer := testCategorizer(t)

	t.Run("Nil bundle yields no assignments", func(t *testing.T) {
		assignments := categorizer.Categorize(model.EntityPerson, nil, nil)
		assert.Empty(t, assignments)
		assert.NotNil(t, assignments, "Expected an empty slice, not nil")
	})

	t.Run("Entity type filters applicable categories", func(t *testing.T) {
		bundle := flightBundle(2, "the hangar held the jet, pilot in the cockpit")

		assignments := categorizer.Categorize(model.EntityPerson, bundle, nil)
		assert.False(t, assignments.Contains("hangars"),
			"Expected a location-only category to never attach to a person")

		assignments = categorizer.Categorize(model.EntityLocation, bundle, nil)
		assert.True(t, assignments.Contains("hangars"))
		assert.False(t, assignments.Contains("crew"))
	})

	t.Run("Qualifying assignments carry evidence and priority", func(t *testing.T) {
		bundle := flightBundle(2, "the pilot sat in the cockpit")

		assignments := categorizer.Categorize(model.EntityPerson, bundle, nil)
		require.True(t, assignments.Contains("crew"))

		for _, assignment := range assignments {
			if assignment.CategoryType != "crew" {
				continue
			}
			assert.Len(t, assignment.EvidenceSources, 2, "Expected the bundle sources copied onto the assignment")
			assert.Equal(t, 1, assignment.Priority)
			assert.GreaterOrEqual(t, assignment.Confidence, 0.1, "Expected confidence at or above the assignment cut-off")
		}
	})

	t.Run("Weak evidence stays below the default floor", func(t *testing.T) {
		bundle := flightBundle(1, "no matching words at all")

		assignments := categorizer.Categorize(model.EntityPerson, bundle, nil)
		assert.False(t, assignments.Contains("visitors"),
			"Expected the default 0.30 floor to filter a keyword-less match")
	})

	t.Run("Conflicting categories are both kept and flagged", func(t *testing.T) {
		bundle := flightBundle(2, "the pilot in the cockpit was also listed as passenger on the manifest")

		assignments := categorizer.Categorize(model.EntityPerson, bundle, nil)
		require.True(t, assignments.Contains("crew"))
		require.True(t, assignments.Contains("passengers"))

		for _, assignment := range assignments {
			switch assignment.CategoryType {
			case "crew":
				assert.True(t, assignment.Conflict, "Expected crew flagged")
				assert.Contains(t, assignment.ConflictsWith, "passengers")
			case "passengers":
				assert.True(t, assignment.Conflict, "Expected passengers flagged")
				assert.Contains(t, assignment.ConflictsWith, "crew")
			}
		}
	})

	t.Run("Assignments are sorted by priority", func(t *testing.T) {
		bundle := flightBundle(2, "the pilot in the cockpit was also listed as passenger on the manifest")

		assignments := categorizer.Categorize(model.EntityPerson, bundle, nil)
		require.GreaterOrEqual(t, len(assignments), 2)

		for i := 1; i < len(assignments); i++ {
			assert.LessOrEqual(t, assignments[i-1].Priority, assignments[i].Priority,
				"Expected priority-ascending order")
		}
	})

	t.Run("High band requires three distinct sources", func(t *testing.T) {
		twoSources := categorizer.Categorize(model.EntityPerson,
			flightBundle(2, "listed as passenger on the manifest"), nil)
		threeSources := categorizer.Categorize(model.EntityPerson,
			flightBundle(3, "listed as passenger on the manifest"), nil)

		bandOf := func(assignments model.CategoryAssignments) model.ConfidenceBand {
			for _, assignment := range assignments {
				if assignment.CategoryType == "passengers" {
					return assignment.ConfidenceBand
				}
			}
			t.Fatal("passengers assignment missing")
			return ""
		}

		assert.Equal(t, model.BandMedium, bandOf(twoSources),
			"Expected the numeric high band clamped with only two sources")
		assert.Equal(t, model.BandHigh, bandOf(threeSources))
	})

	t.Run("Neighbors carrying a category raise its score", func(t *testing.T) {
		neighbor := uuid.New()
		bundle := flightBundle(2, "the pilot sat in the cockpit")
		bundle.CoOccurring = map[uuid.UUID]int{neighbor: 3}

		withNeighbors := categorizer.Categorize(model.EntityPerson, bundle, func(entityID uuid.UUID) []string {
			return []string{"crew"}
		})
		without := categorizer.Categorize(model.EntityPerson, bundle, nil)

		confidenceOf := func(assignments model.CategoryAssignments) float64 {
			for _, assignment := range assignments {
				if assignment.CategoryType == "crew" {
					return assignment.Confidence
				}
			}
			return 0
		}

		assert.Greater(t, confidenceOf(withNeighbors), confidenceOf(without),
			"Expected one-hop propagation from a crew-carrying neighbor")
	})

	t.Run("Categorization is deterministic", func(t *testing.T) {
		bundle := flightBundle(2, "the pilot sat in the cockpit")

		first := categorizer.Categorize(model.EntityPerson, bundle, nil)
		second := categorizer.Categorize(model.EntityPerson, bundle, nil)

		require.Equal(t, len(first), len(second))
		for i := range first {
			assert.Equal(t, first[i].CategoryType, second[i].CategoryType)
			assert.Equal(t, first[i].Confidence, second[i].Confidence)
		}
	})
}

func TestCategorizer_DefaultTaxonomy(t *testing.T) {
	tax, err := taxonomy.Default()
	require.NoError(t, err)
	categorizer, err := NewCategorizer(tax, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)

	t.Run("Flight log evidence assigns travel connections", func(t *testing.T) {
		bundle := flightBundle(3, "listed as passenger on the flight manifest, flew aboard the jet for the trip")

		assignments := categorizer.Categorize(model.EntityPerson, bundle, nil)
		require.True(t, assignments.Contains("travel_connections"),
			"Expected manifest context to qualify for the travel category")

		for _, assignment := range assignments {
			assert.GreaterOrEqual(t, assignment.Confidence, 0.30,
				"Expected every assignment at or above the floor")
			assert.NotEmpty(t, assignment.EvidenceSources)
		}
	})

	t.Run("Exclusion keywords suppress the keyword signal", func(t *testing.T) {
		qualifying := &model.EvidenceBundle{
			MentionCount: 2,
			SourceCounts: map[model.SourceType]int{model.SourceCourtFiling: 2},
			ContextText:  "the victim testified about the settlement as plaintiff",
			Sources: []model.EvidenceSource{
				{DocumentID: uuid.New(), SourceType: model.SourceCourtFiling},
				{DocumentID: uuid.New(), SourceType: model.SourceCourtFiling},
			},
		}
		excluded := &model.EvidenceBundle{
			MentionCount: 2,
			SourceCounts: qualifying.SourceCounts,
			ContextText:  qualifying.ContextText + " and later pleaded guilty",
			Sources:      qualifying.Sources,
		}

		confidenceOf := func(bundle *model.EvidenceBundle) float64 {
			for _, assignment := range categorizer.Categorize(model.EntityPerson, bundle, nil) {
				if assignment.CategoryType == "victims" {
					return assignment.Confidence
				}
			}
			return 0
		}

		assert.Greater(t, confidenceOf(qualifying), confidenceOf(excluded),
			"Expected the exclusion phrase to zero the victims keyword score")
	})
}
