package database

import (
	"testing"
	"time"

	"github.com/archivekit/dossier/model"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMentionsNewMentionsDBHandler(t *testing.T) {
	database := initDB(t)

	// Needed because a mention has a reference to an entity
	_, err := NewEntitiesDBHandler(database, true)
	require.NoError(t, err, "Expected NewEntitiesDBHandler to not return an error")

	t.Run("Valid call NewMentionsDBHandler", func(t *testing.T) {
		mentionsDbHandler, err := NewMentionsDBHandler(database, true)
		assert.NoError(t, err, "Expected NewMentionsDBHandler to not return an error")
		require.NotNil(t, mentionsDbHandler, "Expected NewMentionsDBHandler to return a non-nil instance")
		require.NotNil(t, mentionsDbHandler.db, "Expected NewMentionsDBHandler to have a non-nil database instance")
		require.NotNil(t, mentionsDbHandler.db.Instance, "Expected NewMentionsDBHandler to have a non-nil database connection instance")
	})

	t.Run("Invalid call NewMentionsDBHandler with nil database", func(t *testing.T) {
		_, err := NewMentionsDBHandler(nil, false)
		assert.Error(t, err, "Expected error when creating MentionsDBHandler with nil database")
		assert.Contains(t, err.Error(), "database connection is nil", "Expected specific error message for nil database connection")
	})
}

func TestMentionsInsert(t *testing.T) {
	database := initDB(t)

	entitiesDbHandler, err := NewEntitiesDBHandler(database, true)
	require.NoError(t, err)
	mentionsDbHandler, err := NewMentionsDBHandler(database, true)
	require.NoError(t, err)

	entity := model.NewEntity("Virginia Giuffre", model.EntityPerson)
	err = entitiesDbHandler.InsertEntity(entity)
	require.NoError(t, err)

	t.Run("Insert mention", func(t *testing.T) {
		mention := model.NewMention("Virginia Giuffre's", uuid.New(), model.SourceDeposition, "testified that")
		mention.EntityID = entity.ID

		err := mentionsDbHandler.InsertMention(mention)
		assert.NoError(t, err, "Expected Insert to not return an error")
		assert.NotEqual(t, uuid.Nil, mention.ID, "Expected inserted mention to have an ID")
		assert.Equal(t, "virginia giuffre", mention.NormalizedText, "Expected possessive to be stripped in normalized form")
		assert.WithinDuration(t, mention.CreatedAt, time.Now(), 2*time.Second, "Expected CreatedAt to be set")
	})

	t.Run("Insert mention for unknown entity fails", func(t *testing.T) {
		mention := model.NewMention("Nobody", uuid.New(), model.SourceOther, "")
		mention.EntityID = uuid.New()

		err := mentionsDbHandler.InsertMention(mention)
		assert.Error(t, err, "Expected Insert to fail for a missing entity reference")
	})

	// Cleanup, mentions cascade with the entity
	entitiesDbHandler.DeleteEntity(entity.ID)
}

func TestMentionsGetByEntity(t *testing.T) {
	database := initDB(t)

	entitiesDbHandler, err := NewEntitiesDBHandler(database, true)
	require.NoError(t, err)
	mentionsDbHandler, err := NewMentionsDBHandler(database, true)
	require.NoError(t, err)

	entity := model.NewEntity("Jean-Luc Brunel", model.EntityPerson)
	err = entitiesDbHandler.InsertEntity(entity)
	require.NoError(t, err)

	mentionCount := 3
	for i := 0; i < mentionCount; i++ {
		mention := model.NewMention("Jean-Luc Brunel", uuid.New(), model.SourceFlightLog, "")
		mention.EntityID = entity.ID
		err = mentionsDbHandler.InsertMention(mention)
		require.NoError(t, err)
	}

	mentions, err := mentionsDbHandler.SelectMentionsByEntity(entity.ID)
	assert.NoError(t, err, "Expected GetByEntity to not return an error")
	assert.Len(t, mentions, mentionCount, "Expected all mentions of the entity")
	for _, mention := range mentions {
		assert.Equal(t, entity.ID, mention.EntityID, "Expected mentions to belong to the entity")
	}

	// Cleanup
	entitiesDbHandler.DeleteEntity(entity.ID)
}

func TestMentionsGetEntityIDsByDocument(t *testing.T) {
	database := initDB(t)

	entitiesDbHandler, err := NewEntitiesDBHandler(database, true)
	require.NoError(t, err)
	mentionsDbHandler, err := NewMentionsDBHandler(database, true)
	require.NoError(t, err)

	first := model.NewEntity("First Person", model.EntityPerson)
	second := model.NewEntity("Second Person", model.EntityPerson)
	err = entitiesDbHandler.InsertEntity(first)
	require.NoError(t, err)
	err = entitiesDbHandler.InsertEntity(second)
	require.NoError(t, err)

	documentID := uuid.New()
	for _, entity := range []*model.Entity{first, second} {
		mention := model.NewMention(entity.DisplayName, documentID, model.SourceCourtFiling, "")
		mention.EntityID = entity.ID
		err = mentionsDbHandler.InsertMention(mention)
		require.NoError(t, err)
	}

	// A repeated mention of the same entity must not duplicate the id
	repeat := model.NewMention(first.DisplayName, documentID, model.SourceCourtFiling, "")
	repeat.EntityID = first.ID
	err = mentionsDbHandler.InsertMention(repeat)
	require.NoError(t, err)

	entityIDs, err := mentionsDbHandler.SelectEntityIDsByDocument(documentID)
	assert.NoError(t, err, "Expected GetEntityIDsByDocument to not return an error")
	assert.Len(t, entityIDs, 2, "Expected distinct entity ids for the document")
	assert.Contains(t, entityIDs, first.ID)
	assert.Contains(t, entityIDs, second.ID)

	// Cleanup
	entitiesDbHandler.DeleteEntity(first.ID)
	entitiesDbHandler.DeleteEntity(second.ID)
}

func TestMentionsGetCoMentionedEntities(t *testing.T) {
	database := initDB(t)

	entitiesDbHandler, err := NewEntitiesDBHandler(database, true)
	require.NoError(t, err)
	mentionsDbHandler, err := NewMentionsDBHandler(database, true)
	require.NoError(t, err)

	subject := model.NewEntity("Subject Person", model.EntityPerson)
	neighbor := model.NewEntity("Neighbor Person", model.EntityPerson)
	stranger := model.NewEntity("Stranger Person", model.EntityPerson)
	for _, entity := range []*model.Entity{subject, neighbor, stranger} {
		err = entitiesDbHandler.InsertEntity(entity)
		require.NoError(t, err)
	}

	sharedDocument := uuid.New()
	otherDocument := uuid.New()

	subjectMention := model.NewMention(subject.DisplayName, sharedDocument, model.SourceFlightLog, "")
	subjectMention.EntityID = subject.ID
	err = mentionsDbHandler.InsertMention(subjectMention)
	require.NoError(t, err)

	neighborMention := model.NewMention(neighbor.DisplayName, sharedDocument, model.SourceFlightLog, "")
	neighborMention.EntityID = neighbor.ID
	err = mentionsDbHandler.InsertMention(neighborMention)
	require.NoError(t, err)

	strangerMention := model.NewMention(stranger.DisplayName, otherDocument, model.SourceOther, "")
	strangerMention.EntityID = stranger.ID
	err = mentionsDbHandler.InsertMention(strangerMention)
	require.NoError(t, err)

	coMentioned, err := mentionsDbHandler.SelectCoMentionedEntities(subject.ID)
	assert.NoError(t, err, "Expected GetCoMentionedEntities to not return an error")
	require.Contains(t, coMentioned, sharedDocument, "Expected the shared document in the result")
	assert.Contains(t, coMentioned[sharedDocument], neighbor.ID, "Expected the neighbor entity for the shared document")
	assert.NotContains(t, coMentioned, otherDocument, "Expected no entry for a document without the subject")

	// Cleanup
	entitiesDbHandler.DeleteEntity(subject.ID)
	entitiesDbHandler.DeleteEntity(neighbor.ID)
	entitiesDbHandler.DeleteEntity(stranger.ID)
}

func TestMentionsDelete(t *testing.T) {
	database := initDB(t)

	entitiesDbHandler, err := NewEntitiesDBHandler(database, true)
	require.NoError(t, err)
	mentionsDbHandler, err := NewMentionsDBHandler(database, true)
	require.NoError(t, err)

	entity := model.NewEntity("Mentioned Once", model.EntityPerson)
	err = entitiesDbHandler.InsertEntity(entity)
	require.NoError(t, err)

	mention := model.NewMention("Mentioned Once", uuid.New(), model.SourceNewsArticle, "")
	mention.EntityID = entity.ID
	err = mentionsDbHandler.InsertMention(mention)
	require.NoError(t, err)

	// Delete the mention
	err = mentionsDbHandler.DeleteMention(mention.ID)
	assert.NoError(t, err, "Expected Delete to not return an error")

	// Verify deletion
	mentions, err := mentionsDbHandler.SelectMentionsByEntity(entity.ID)
	require.NoError(t, err)
	assert.Empty(t, mentions, "Expected no mentions after deletion")

	// Cleanup
	entitiesDbHandler.DeleteEntity(entity.ID)
}
