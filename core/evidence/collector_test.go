package evidence

import (
	"io"
	"log/slog"
	"testing"

	"github.com/archivekit/dossier/model"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCollector() *Collector {
	return NewCollector(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestCollector_Collect(t *testing.T) {
	collector := testCollector()
	entityID := uuid.New()

	t.Run("No mentions is an error", func(t *testing.T) {
		_, err := collector.Collect(entityID, nil, nil)
		assert.Error(t, err, "Expected an error for an entity without mentions")
	})

	t.Run("Collect aggregates counts, context and sources", func(t *testing.T) {
		docA, docB := uuid.New(), uuid.New()
		mentions := []*model.EntityMention{
			{EntityID: entityID, RawText: "Sarah Kellen", SourceDocumentID: docA, SourceType: model.SourceFlightLog, ContextWindow: "passenger on the manifest"},
			{EntityID: entityID, RawText: "Sarah Kellen", SourceDocumentID: docA, SourceType: model.SourceFlightLog, ContextWindow: "  "},
			{EntityID: entityID, RawText: "S. Kellen", SourceDocumentID: docB, SourceType: model.SourceDeposition, ContextWindow: "worked for the household"},
		}

		bundle, err := collector.Collect(entityID, mentions, nil)
		require.NoError(t, err, "Expected Collect to not return an error")
		require.NotNil(t, bundle)

		assert.Equal(t, 3, bundle.MentionCount, "Expected all well-formed mentions counted")
		assert.Equal(t, 2, bundle.SourceCounts[model.SourceFlightLog])
		assert.Equal(t, 1, bundle.SourceCounts[model.SourceDeposition])
		assert.Equal(t, "passenger on the manifest\nworked for the household", bundle.ContextText,
			"Expected blank context windows skipped and the rest joined")
		assert.Equal(t, 0, bundle.MalformedCount)
	})

	t.Run("Duplicate document and source pairs are deduplicated", func(t *testing.T) {
		doc := uuid.New()
		mentions := []*model.EntityMention{
			{EntityID: entityID, SourceDocumentID: doc, SourceType: model.SourceFlightLog},
			{EntityID: entityID, SourceDocumentID: doc, SourceType: model.SourceFlightLog},
			{EntityID: entityID, SourceDocumentID: doc, SourceType: model.SourceDeposition},
		}

		bundle, err := collector.Collect(entityID, mentions, nil)
		require.NoError(t, err)

		assert.Equal(t, 3, bundle.MentionCount)
		assert.Equal(t, 2, bundle.DistinctSourceCount(),
			"Expected one source per distinct document and source type pair")
	})

	t.Run("Malformed mentions are excluded and counted", func(t *testing.T) {
		doc := uuid.New()
		mentions := []*model.EntityMention{
			{EntityID: entityID, SourceDocumentID: doc, SourceType: model.SourceCourtFiling, ContextWindow: "the defendant"},
			{EntityID: entityID, SourceDocumentID: doc, SourceType: model.SourceType("fax")},
			nil,
		}

		bundle, err := collector.Collect(entityID, mentions, nil)
		require.NoError(t, err, "Expected well-formed mentions to carry the bundle")

		assert.Equal(t, 1, bundle.MentionCount, "Expected only the valid mention counted")
		assert.Equal(t, 2, bundle.MalformedCount, "Expected malformed mentions counted, not silently dropped")
		assert.Equal(t, 1, bundle.DistinctSourceCount())
	})

	t.Run("All mentions malformed is an error", func(t *testing.T) {
		mentions := []*model.EntityMention{
			{EntityID: entityID, SourceDocumentID: uuid.New(), SourceType: model.SourceType("fax")},
			nil,
		}

		_, err := collector.Collect(entityID, mentions, nil)
		assert.Error(t, err, "Expected an error when nothing valid remains")
		assert.Contains(t, err.Error(), "malformed")
	})

	t.Run("Co-occurrence counts exclude the subject entity", func(t *testing.T) {
		docA, docB := uuid.New(), uuid.New()
		neighborA, neighborB := uuid.New(), uuid.New()

		mentions := []*model.EntityMention{
			{EntityID: entityID, SourceDocumentID: docA, SourceType: model.SourceFlightLog},
			{EntityID: entityID, SourceDocumentID: docB, SourceType: model.SourceFlightLog},
		}
		documentEntities := map[uuid.UUID][]uuid.UUID{
			docA: {entityID, neighborA, neighborB},
			docB: {entityID, neighborA},
		}

		bundle, err := collector.Collect(entityID, mentions, documentEntities)
		require.NoError(t, err)

		assert.Equal(t, 2, bundle.CoOccurring[neighborA], "Expected the shared passenger counted per document")
		assert.Equal(t, 1, bundle.CoOccurring[neighborB])
		_, containsSelf := bundle.CoOccurring[entityID]
		assert.False(t, containsSelf, "Expected the subject excluded from its own co-occurrences")
	})
}
