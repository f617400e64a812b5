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
	"github.com/pgvector/pgvector-go"
)

// EntityMatch is an entity returned from a similarity search together with
// its cosine similarity to the query embedding.
type EntityMatch struct {
	Entity     *model.Entity
	Similarity float64
}

// EntitiesDBHandlerFunctions defines the interface for Entities database operations.
type EntitiesDBHandlerFunctions interface {
	InsertEntity(entity *model.Entity) error
	UpdateEntityClassification(id uuid.UUID, entityType model.EntityType, confidence float64, tier string) error
	UpdateEntityCategories(id uuid.UUID, categories model.CategoryAssignments) error
	UpdateEntityConnectionCount(id uuid.UUID, connectionCount int) error
	UpdateEntityEmbedding(id uuid.UUID, embedding []float32) error
	DeleteEntity(id uuid.UUID) error
	SelectEntity(id uuid.UUID) (*model.Entity, error)
	SelectEntityByName(normalizedName string, entityType *model.EntityType) (*model.Entity, error)
	SelectAllEntities(limit int, offset int) ([]*model.Entity, error)
	SelectEntitiesByType(entityType model.EntityType, limit int) ([]*model.Entity, error)
	SelectEntitiesBySimilarName(embedding []float32, limit int) ([]*EntityMatch, error)
	CountEntityCategorization() (total int64, categorized int64, err error)
}

// EntitiesDBHandler handles entity-related database operations
type EntitiesDBHandler struct {
	db *helper.Database
}

// NewEntitiesDBHandler creates a new entities database handler.
// It initializes the database connection and loads entity-related SQL functions.
// If force is true, it will reload the SQL functions even if they already exist.
func NewEntitiesDBHandler(db *helper.Database, force bool) (*EntitiesDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	entitiesDbHandler := &EntitiesDBHandler{
		db: db,
	}

	err := sql.LoadEntitiesSql(entitiesDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load entities sql", err)
	}

	err = entitiesDbHandler.CreateTable()
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized EntitiesDBHandler")

	return entitiesDbHandler, nil
}

// CreateTable creates the 'entities' table in the database.
// If the table already exists, it does not create it again.
// It also creates all necessary indexes.
func (h *EntitiesDBHandler) CreateTable() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Use the SQL init() function to create all tables and indexes
	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_entities();`)
	if err != nil {
		log.Panicf("error initializing entities table: %#v", err)
	}

	h.db.Logger.Info("Checked/created table entities")

	return nil
}

// InsertEntity inserts a new entity (or updates if an entity with the same
// normalized name and type exists). The entity struct is updated in place
// with the stored row, so a merged insert yields the existing id.
func (h *EntitiesDBHandler) InsertEntity(entity *model.Entity) error {
	row := h.db.Instance.QueryRow(
		`SELECT * FROM insert_entity($1, $2, $3, $4, $5, $6)`,
		entity.DisplayName,
		entity.NormalizedName,
		entity.EntityType,
		entity.TypeConfidence,
		entity.ClassifierTier,
		entity.Metadata,
	)

	err := row.Scan(
		&entity.ID,
		&entity.DisplayName,
		&entity.NormalizedName,
		&entity.EntityType,
		&entity.TypeConfidence,
		&entity.ClassifierTier,
		&entity.RelationshipCategories,
		&entity.ConnectionCount,
		&entity.Metadata,
		&entity.CreatedAt,
		&entity.UpdatedAt,
	)
	if err != nil {
		return helper.NewError("scan", err)
	}

	return nil
}

// UpdateEntityClassification updates the type, confidence and classifier tier of an entity
func (h *EntitiesDBHandler) UpdateEntityClassification(id uuid.UUID, entityType model.EntityType, confidence float64, tier string) error {
	_, err := h.db.Instance.Exec(
		`SELECT * FROM update_entity_classification($1, $2, $3, $4)`,
		id,
		entityType,
		confidence,
		tier,
	)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}

// UpdateEntityCategories replaces the stored category assignments of an entity.
// The replacement is a single statement, so concurrent writers resolve to
// last-writer-wins without partial interleaving.
func (h *EntitiesDBHandler) UpdateEntityCategories(id uuid.UUID, categories model.CategoryAssignments) error {
	_, err := h.db.Instance.Exec(
		`SELECT * FROM update_entity_categories($1, $2)`,
		id,
		categories,
	)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}

// UpdateEntityConnectionCount updates the distinct co-mention count of an entity
func (h *EntitiesDBHandler) UpdateEntityConnectionCount(id uuid.UUID, connectionCount int) error {
	_, err := h.db.Instance.Exec(
		`SELECT * FROM update_entity_connection_count($1, $2)`,
		id,
		connectionCount,
	)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}

// UpdateEntityEmbedding stores the name embedding of an entity
func (h *EntitiesDBHandler) UpdateEntityEmbedding(id uuid.UUID, embedding []float32) error {
	_, err := h.db.Instance.Exec(
		`SELECT * FROM update_entity_embedding($1, $2)`,
		id,
		pgvector.NewVector(embedding),
	)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}

// DeleteEntity deletes an entity by ID
func (h *EntitiesDBHandler) DeleteEntity(id uuid.UUID) error {
	_, err := h.db.Instance.Exec(
		`SELECT delete_entity($1)`,
		id,
	)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}

// SelectEntity retrieves an entity by ID
func (h *EntitiesDBHandler) SelectEntity(id uuid.UUID) (*model.Entity, error) {
	entity := &model.Entity{}
	row := h.db.Instance.QueryRow(
		`SELECT * FROM select_entity($1)`,
		id,
	)

	err := row.Scan(
		&entity.ID,
		&entity.DisplayName,
		&entity.NormalizedName,
		&entity.EntityType,
		&entity.TypeConfidence,
		&entity.ClassifierTier,
		&entity.RelationshipCategories,
		&entity.ConnectionCount,
		&entity.Metadata,
		&entity.CreatedAt,
		&entity.UpdatedAt,
	)
	if err != nil {
		return nil, helper.NewError("scan", err)
	}

	return entity, nil
}

// SelectEntityByName retrieves an entity by normalized name and optional type
func (h *EntitiesDBHandler) SelectEntityByName(normalizedName string, entityType *model.EntityType) (*model.Entity, error) {
	entity := &model.Entity{}
	row := h.db.Instance.QueryRow(
		`SELECT * FROM select_entity_by_name($1, $2)`,
		normalizedName,
		entityType,
	)

	err := row.Scan(
		&entity.ID,
		&entity.DisplayName,
		&entity.NormalizedName,
		&entity.EntityType,
		&entity.TypeConfidence,
		&entity.ClassifierTier,
		&entity.RelationshipCategories,
		&entity.ConnectionCount,
		&entity.Metadata,
		&entity.CreatedAt,
		&entity.UpdatedAt,
	)
	if err != nil {
		return nil, helper.NewError("scan", err)
	}

	return entity, nil
}

// SelectAllEntities retrieves entities in insertion order with limit and offset
func (h *EntitiesDBHandler) SelectAllEntities(limit int, offset int) ([]*model.Entity, error) {
	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_all_entities($1, $2)`,
		limit,
		offset,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var entities []*model.Entity
	for rows.Next() {
		entity := &model.Entity{}
		err := rows.Scan(
			&entity.ID,
			&entity.DisplayName,
			&entity.NormalizedName,
			&entity.EntityType,
			&entity.TypeConfidence,
			&entity.ClassifierTier,
			&entity.RelationshipCategories,
			&entity.ConnectionCount,
			&entity.Metadata,
			&entity.CreatedAt,
			&entity.UpdatedAt,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		entities = append(entities, entity)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return entities, nil
}

// SelectEntitiesByType retrieves entities by type
func (h *EntitiesDBHandler) SelectEntitiesByType(entityType model.EntityType, limit int) ([]*model.Entity, error) {
	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_entities_by_type($1, $2)`,
		entityType,
		limit,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var entities []*model.Entity
	for rows.Next() {
		entity := &model.Entity{}
		err := rows.Scan(
			&entity.ID,
			&entity.DisplayName,
			&entity.NormalizedName,
			&entity.EntityType,
			&entity.TypeConfidence,
			&entity.ClassifierTier,
			&entity.RelationshipCategories,
			&entity.ConnectionCount,
			&entity.Metadata,
			&entity.CreatedAt,
			&entity.UpdatedAt,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		entities = append(entities, entity)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return entities, nil
}

// SelectEntitiesBySimilarName retrieves entities whose name embedding is
// closest to the given embedding. Intended for alias candidate review, the
// results are advisory and never merged automatically.
func (h *EntitiesDBHandler) SelectEntitiesBySimilarName(embedding []float32, limit int) ([]*EntityMatch, error) {
	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_entities_by_similar_name($1, $2)`,
		pgvector.NewVector(embedding),
		limit,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var matches []*EntityMatch
	for rows.Next() {
		match := &EntityMatch{Entity: &model.Entity{}}
		err := rows.Scan(
			&match.Entity.ID,
			&match.Entity.DisplayName,
			&match.Entity.NormalizedName,
			&match.Entity.EntityType,
			&match.Entity.TypeConfidence,
			&match.Entity.ClassifierTier,
			&match.Entity.RelationshipCategories,
			&match.Entity.ConnectionCount,
			&match.Entity.Metadata,
			&match.Entity.CreatedAt,
			&match.Entity.UpdatedAt,
			&match.Similarity,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		matches = append(matches, match)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return matches, nil
}

// CountEntityCategorization returns the total entity count and the count of
// entities holding at least one category assignment
func (h *EntitiesDBHandler) CountEntityCategorization() (int64, int64, error) {
	var total, categorized int64
	row := h.db.Instance.QueryRow(`SELECT * FROM count_entity_categorization()`)

	err := row.Scan(&total, &categorized)
	if err != nil {
		return 0, 0, helper.NewError("scan", err)
	}

	return total, categorized, nil
}
