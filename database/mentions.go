package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/archivekit/dossier/helper"
	"github.com/archivekit/dossier/model"
	"github.com/archivekit/dossier/sql"
	"github.com/google/uuid"
)

// MentionsDBHandlerFunctions defines the interface for Mentions database operations.
type MentionsDBHandlerFunctions interface {
	InsertMention(mention *model.EntityMention) error
	DeleteMention(id uuid.UUID) error
	SelectMentionsByEntity(entityID uuid.UUID) ([]*model.EntityMention, error)
	SelectEntityIDsByDocument(documentID uuid.UUID) ([]uuid.UUID, error)
	SelectCoMentionedEntities(entityID uuid.UUID) (map[uuid.UUID][]uuid.UUID, error)
}

// MentionsDBHandler handles mention-related database operations
type MentionsDBHandler struct {
	db *helper.Database
}

// NewMentionsDBHandler creates a new mentions database handler.
// The mentions table references entities, so the entities handler must be
// created first. If force is true, it will reload the SQL functions even if
// they already exist.
func NewMentionsDBHandler(db *helper.Database, force bool) (*MentionsDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	mentionsDbHandler := &MentionsDBHandler{
		db: db,
	}

	err := sql.LoadMentionsSql(mentionsDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load mentions sql", err)
	}

	err = mentionsDbHandler.CreateTable()
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized MentionsDBHandler")

	return mentionsDbHandler, nil
}

// CreateTable creates the 'mentions' table in the database.
// If the table already exists, it does not create it again.
// It also creates all necessary indexes.
func (h *MentionsDBHandler) CreateTable() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Use the SQL init() function to create all tables and indexes
	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_mentions();`)
	if err != nil {
		log.Panicf("error initializing mentions table: %#v", err)
	}

	h.db.Logger.Info("Checked/created table mentions")

	return nil
}

// InsertMention inserts a new mention
func (h *MentionsDBHandler) InsertMention(mention *model.EntityMention) error {
	row := h.db.Instance.QueryRow(
		`SELECT * FROM insert_mention($1, $2, $3, $4, $5, $6)`,
		mention.EntityID,
		mention.RawText,
		mention.NormalizedText,
		mention.SourceDocumentID,
		mention.SourceType,
		mention.ContextWindow,
	)

	err := row.Scan(
		&mention.ID,
		&mention.EntityID,
		&mention.RawText,
		&mention.NormalizedText,
		&mention.SourceDocumentID,
		&mention.SourceType,
		&mention.ContextWindow,
		&mention.CreatedAt,
	)
	if err != nil {
		return helper.NewError("scan", err)
	}

	return nil
}

// DeleteMention deletes a mention by ID
func (h *MentionsDBHandler) DeleteMention(id uuid.UUID) error {
	_, err := h.db.Instance.Exec(
		`SELECT delete_mention($1)`,
		id,
	)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}

// SelectMentionsByEntity retrieves all mentions of an entity in insertion order
func (h *MentionsDBHandler) SelectMentionsByEntity(entityID uuid.UUID) ([]*model.EntityMention, error) {
	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_mentions_by_entity($1)`,
		entityID,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var mentions []*model.EntityMention
	for rows.Next() {
		mention := &model.EntityMention{}
		err := rows.Scan(
			&mention.ID,
			&mention.EntityID,
			&mention.RawText,
			&mention.NormalizedText,
			&mention.SourceDocumentID,
			&mention.SourceType,
			&mention.ContextWindow,
			&mention.CreatedAt,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		mentions = append(mentions, mention)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return mentions, nil
}

// SelectEntityIDsByDocument retrieves the distinct entities mentioned in a document
func (h *MentionsDBHandler) SelectEntityIDsByDocument(documentID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_entities_by_document($1)`,
		documentID,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var entityIDs []uuid.UUID
	for rows.Next() {
		var entityID uuid.UUID
		err := rows.Scan(&entityID)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		entityIDs = append(entityIDs, entityID)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return entityIDs, nil
}

// SelectCoMentionedEntities retrieves the entities sharing at least one source
// document with the given entity, grouped by document
func (h *MentionsDBHandler) SelectCoMentionedEntities(entityID uuid.UUID) (map[uuid.UUID][]uuid.UUID, error) {
	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_co_mentioned_entities($1)`,
		entityID,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	coMentioned := map[uuid.UUID][]uuid.UUID{}
	for rows.Next() {
		var documentID, otherEntityID uuid.UUID
		err := rows.Scan(&documentID, &otherEntityID)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		coMentioned[documentID] = append(coMentioned[documentID], otherEntityID)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return coMentioned, nil
}
