package model

import (
	"time"

	"github.com/google/uuid"
)

// MatchSeverity grades how likely a partial name match is to be a real duplicate
type MatchSeverity string

const (
	SeverityLow    MatchSeverity = "low"
	SeverityMedium MatchSeverity = "medium"
	SeverityHigh   MatchSeverity = "high"
)

// TypeConflict reports one normalized name bound to entities of different types
type TypeConflict struct {
	NormalizedName string       `json:"normalized_name"`
	EntityIDs      []uuid.UUID  `json:"entity_ids"`
	EntityTypes    []EntityType `json:"entity_types"`
}

// PartialMatch reports one entity whose name is contained in another's,
// suggesting a possible alias or duplicate
type PartialMatch struct {
	ShortEntityID uuid.UUID     `json:"short_entity_id"`
	LongEntityID  uuid.UUID     `json:"long_entity_id"`
	ShortName     string        `json:"short_name"`
	LongName      string        `json:"long_name"`
	ShortType     EntityType    `json:"short_type"`
	LongType      EntityType    `json:"long_type"`
	Severity      MatchSeverity `json:"severity"`
}

// ConflictReport is the advisory output of the conflict and duplicate detector.
// It is a point-in-time batch artifact, regenerated on demand and never
// authoritative on its own. It never mutates the entity set.
type ConflictReport struct {
	GeneratedAt    time.Time      `json:"generated_at"`
	EntityCount    int            `json:"entity_count"`
	TypeConflicts  []TypeConflict `json:"type_conflicts"`
	PartialMatches []PartialMatch `json:"partial_matches"`
}
