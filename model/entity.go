package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// EntityType is the fundamental type of an entity. Exactly one value at any time.
type EntityType string

const (
	EntityPerson       EntityType = "person"
	EntityOrganization EntityType = "organization"
	EntityLocation     EntityType = "location"
)

// Valid reports whether the entity type is one of the three known values
func (t EntityType) Valid() bool {
	switch t {
	case EntityPerson, EntityOrganization, EntityLocation:
		return true
	}
	return false
}

// ConfidenceBand is the coarse low/medium/high bucket derived from a confidence score
type ConfidenceBand string

const (
	BandLow    ConfidenceBand = "low"
	BandMedium ConfidenceBand = "medium"
	BandHigh   ConfidenceBand = "high"
)

// EvidenceSource identifies one document backing a category assignment
type EvidenceSource struct {
	DocumentID uuid.UUID  `json:"document_id"`
	SourceType SourceType `json:"source_type"`
}

// CategoryAssignment is one relationship category attached to an entity
type CategoryAssignment struct {
	CategoryType    string           `json:"category_type"`
	Confidence      float64          `json:"confidence"`
	ConfidenceBand  ConfidenceBand   `json:"confidence_band"`
	EvidenceSources []EvidenceSource `json:"evidence_sources,omitempty"`
	Priority        int              `json:"priority"`
	Conflict        bool             `json:"conflict,omitempty"`
	ConflictsWith   []string         `json:"conflicts_with,omitempty"`
}

// CategoryAssignments is the ordered list of category assignments on an entity,
// stored as JSONB in PostgreSQL
type CategoryAssignments []CategoryAssignment

// Value implements the driver.Valuer interface for database storage
func (c CategoryAssignments) Value() (driver.Value, error) {
	if c == nil {
		return json.Marshal(CategoryAssignments{})
	}
	return json.Marshal(c)
}

// Scan implements the sql.Scanner interface for database retrieval
func (c *CategoryAssignments) Scan(value interface{}) error {
	if value == nil {
		*c = CategoryAssignments{}
		return nil
	}
	b, ok := value.([]byte)
	if !ok {
		return errors.New("type assertion to []byte failed")
	}
	return json.Unmarshal(b, c)
}

// Contains reports whether a category type is already assigned
func (c CategoryAssignments) Contains(categoryType string) bool {
	for _, a := range c {
		if a.CategoryType == categoryType {
			return true
		}
	}
	return false
}

// Entity is the canonical, deduplicated subject of one or more mentions
type Entity struct {
	ID                     uuid.UUID           `json:"id"`
	DisplayName            string              `json:"display_name"`
	NormalizedName         string              `json:"normalized_name"`
	EntityType             EntityType          `json:"entity_type"`
	TypeConfidence         float64             `json:"type_confidence"`
	ClassifierTier         string              `json:"classifier_tier,omitempty"`
	RelationshipCategories CategoryAssignments `json:"relationship_categories"`
	ConnectionCount        int                 `json:"connection_count"`
	Metadata               Metadata            `json:"metadata,omitempty"`
	CreatedAt              time.Time           `json:"created_at"`
	UpdatedAt              time.Time           `json:"updated_at"`
}

// NewEntity creates an entity with the normalized form derived from the display name
func NewEntity(displayName string, entityType EntityType) *Entity {
	return &Entity{
		ID:             uuid.New(),
		DisplayName:    displayName,
		NormalizedName: NormalizeName(displayName),
		EntityType:     entityType,
	}
}
