// Package taxonomy defines the relationship category ontology used by the
// categorizer. The taxonomy is static reference data: loaded and validated at
// startup, passed by reference into the engine, never mutated at runtime.
package taxonomy

import (
	"fmt"
	"sort"

	"github.com/archivekit/dossier/model"
)

// DefaultEvidenceWeight is used when a category has no weight entry for a source type
const DefaultEvidenceWeight = 0.25

// Thresholds holds the confidence cut-offs for one category
type Thresholds struct {
	Assignment float64 `yaml:"assignment"`
	Medium     float64 `yaml:"medium"`
	High       float64 `yaml:"high"`
}

// DefaultThresholds returns the engine-wide default confidence cut-offs
func DefaultThresholds() Thresholds {
	return Thresholds{
		Assignment: 0.30,
		Medium:     0.60,
		High:       0.85,
	}
}

// Category defines one relationship category in the taxonomy
type Category struct {
	Type              string                       `yaml:"type"`
	Label             string                       `yaml:"label"`
	Priority          int                          `yaml:"priority"`
	AppliesTo         []model.EntityType           `yaml:"applies_to"`
	Keywords          []string                     `yaml:"keywords"`
	ContextKeywords   []string                     `yaml:"context_keywords"`
	ExclusionKeywords []string                     `yaml:"exclusion_keywords"`
	ConflictsWith     []string                     `yaml:"conflicts_with"`
	EvidenceWeights   map[model.SourceType]float64 `yaml:"evidence_weights"`
	Thresholds        *Thresholds                  `yaml:"confidence_thresholds"`
}

// AppliesToType reports whether the category can be assigned to the given entity type
func (c *Category) AppliesToType(entityType model.EntityType) bool {
	for _, t := range c.AppliesTo {
		if t == entityType {
			return true
		}
	}
	return false
}

// WeightFor returns the evidence weight for a source type, falling back to
// DefaultEvidenceWeight for source types the category does not list
func (c *Category) WeightFor(sourceType model.SourceType) float64 {
	if w, ok := c.EvidenceWeights[sourceType]; ok {
		return w
	}
	return DefaultEvidenceWeight
}

// EffectiveThresholds returns the category thresholds or the defaults
func (c *Category) EffectiveThresholds() Thresholds {
	if c.Thresholds != nil {
		return *c.Thresholds
	}
	return DefaultThresholds()
}

// Taxonomy is the full, validated set of category definitions
type Taxonomy struct {
	Version    string     `yaml:"version"`
	Categories []Category `yaml:"categories"`

	byType map[string]*Category
}

// Len returns the number of categories
func (t *Taxonomy) Len() int {
	return len(t.Categories)
}

// Category returns the category definition for a type key
func (t *Taxonomy) Category(categoryType string) (*Category, bool) {
	c, ok := t.byType[categoryType]
	return c, ok
}

// ApplicableTo returns all categories assignable to an entity type,
// sorted by priority ascending (1 = highest)
func (t *Taxonomy) ApplicableTo(entityType model.EntityType) []*Category {
	var categories []*Category
	for i := range t.Categories {
		if t.Categories[i].AppliesToType(entityType) {
			categories = append(categories, &t.Categories[i])
		}
	}
	sort.Slice(categories, func(i, j int) bool {
		return categories[i].Priority < categories[j].Priority
	})
	return categories
}

// AreConflicting reports whether two category types are declared contradictory
// in either direction
func (t *Taxonomy) AreConflicting(a, b string) bool {
	ca, okA := t.byType[a]
	cb, okB := t.byType[b]
	if !okA || !okB {
		return false
	}
	for _, c := range ca.ConflictsWith {
		if c == b {
			return true
		}
	}
	for _, c := range cb.ConflictsWith {
		if c == a {
			return true
		}
	}
	return false
}

// validate checks the taxonomy for misconfiguration. Any error here is fatal
// at startup, a broken taxonomy must never produce silently-broken categorization.
func (t *Taxonomy) validate() error {
	if len(t.Categories) == 0 {
		return fmt.Errorf("taxonomy has no categories")
	}

	t.byType = make(map[string]*Category, len(t.Categories))
	for i := range t.Categories {
		c := &t.Categories[i]

		if c.Type == "" {
			return fmt.Errorf("category %d has no type", i)
		}
		if _, exists := t.byType[c.Type]; exists {
			return fmt.Errorf("duplicate category type %q", c.Type)
		}
		if len(c.Keywords) == 0 {
			return fmt.Errorf("category %q has no keywords", c.Type)
		}
		if len(c.AppliesTo) == 0 {
			return fmt.Errorf("category %q has no applies_to entity types", c.Type)
		}
		for _, et := range c.AppliesTo {
			if !et.Valid() {
				return fmt.Errorf("category %q applies_to contains invalid entity type %q", c.Type, et)
			}
		}
		if c.Priority < 1 {
			return fmt.Errorf("category %q has invalid priority %d (must be >= 1)", c.Type, c.Priority)
		}
		for st, w := range c.EvidenceWeights {
			if !st.Valid() {
				return fmt.Errorf("category %q has evidence weight for unknown source type %q", c.Type, st)
			}
			if w < 0 || w > 1 {
				return fmt.Errorf("category %q has evidence weight %v for %q outside [0,1]", c.Type, w, st)
			}
		}
		if th := c.Thresholds; th != nil {
			if th.Assignment < 0 || th.Assignment > 1 || th.Medium < th.Assignment || th.High < th.Medium || th.High > 1 {
				return fmt.Errorf("category %q has inconsistent confidence thresholds", c.Type)
			}
		}

		t.byType[c.Type] = c
	}

	// Conflict pairs must reference known categories
	for _, c := range t.Categories {
		for _, other := range c.ConflictsWith {
			if _, ok := t.byType[other]; !ok {
				return fmt.Errorf("category %q conflicts_with unknown category %q", c.Type, other)
			}
		}
	}

	return nil
}
