// Package conflict implements the batch conflict and duplicate detector.
// It is a pure, idempotent function over the full entity set: it produces an
// advisory report for human review and never mutates the entities.
package conflict

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/archivekit/dossier/model"
)

// shortTokenLength is the cut-off below which a single-token containment
// anywhere in a longer name is graded low severity ("Ali" in "Alistair")
const shortTokenLength = 4

// Detect scans the entity set for same-name-different-type collisions and
// partial-name matches. The report is built completely before being returned;
// a failure mid-scan returns an error and no report.
func Detect(entities []*model.Entity) (*model.ConflictReport, error) {
	report := &model.ConflictReport{
		GeneratedAt:    time.Now().UTC(),
		EntityCount:    len(entities),
		TypeConflicts:  []model.TypeConflict{},
		PartialMatches: []model.PartialMatch{},
	}

	for i, entity := range entities {
		if entity == nil {
			return nil, fmt.Errorf("entity at index %d is nil", i)
		}
	}

	report.TypeConflicts = detectTypeConflicts(entities)
	report.PartialMatches = detectPartialMatches(entities)

	return report, nil
}

// detectTypeConflicts groups entities by case-insensitive normalized name and
// reports every group spanning more than one entity type. Groups are reported,
// not merged: a name can legitimately denote both a place and an organization.
func detectTypeConflicts(entities []*model.Entity) []model.TypeConflict {
	byName := make(map[string][]*model.Entity)
	for _, entity := range entities {
		name := normalizedNameOf(entity)
		if name == "" {
			continue
		}
		byName[name] = append(byName[name], entity)
	}

	names := make([]string, 0, len(byName))
	for name := range byName {
		names = append(names, name)
	}
	sort.Strings(names)

	conflicts := []model.TypeConflict{}
	for _, name := range names {
		group := byName[name]
		if len(group) < 2 {
			continue
		}

		types := make(map[model.EntityType]bool)
		for _, entity := range group {
			types[entity.EntityType] = true
		}
		if len(types) < 2 {
			continue
		}

		conflict := model.TypeConflict{NormalizedName: name}
		for _, entity := range group {
			conflict.EntityIDs = append(conflict.EntityIDs, entity.ID)
			conflict.EntityTypes = append(conflict.EntityTypes, entity.EntityType)
		}
		conflicts = append(conflicts, conflict)
	}

	return conflicts
}

// detectPartialMatches reports every entity pair where one normalized name's
// tokens are a subset of the other's, annotated with a severity grade
func detectPartialMatches(entities []*model.Entity) []model.PartialMatch {
	matches := []model.PartialMatch{}

	for i := 0; i < len(entities); i++ {
		for j := i + 1; j < len(entities); j++ {
			match, ok := comparePair(entities[i], entities[j])
			if ok {
				matches = append(matches, match)
			}
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return severityRank(matches[i].Severity) < severityRank(matches[j].Severity)
	})

	return matches
}

// comparePair checks one entity pair for name containment in either direction
func comparePair(a, b *model.Entity) (model.PartialMatch, bool) {
	nameA := normalizedNameOf(a)
	nameB := normalizedNameOf(b)
	if nameA == "" || nameB == "" || nameA == nameB {
		return model.PartialMatch{}, false
	}

	short, long := a, b
	shortName, longName := nameA, nameB
	if len(nameA) > len(nameB) {
		short, long = b, a
		shortName, longName = nameB, nameA
	}

	shortTokens := model.NameTokens(shortName)
	longTokens := model.NameTokens(longName)

	var severity model.MatchSeverity
	switch {
	case tokenSubset(shortTokens, longTokens):
		severity = gradeSeverity(shortName, longName, shortTokens)
	case len(shortTokens) == 1 && strings.Contains(longName, shortName):
		// Substring inside a longer token ("ali" in "alistair"): reported,
		// but as the weakest signal
		severity = model.SeverityLow
	default:
		return model.PartialMatch{}, false
	}

	return model.PartialMatch{
		ShortEntityID: short.ID,
		LongEntityID:  long.ID,
		ShortName:     short.DisplayName,
		LongName:      long.DisplayName,
		ShortType:     short.EntityType,
		LongType:      long.EntityType,
		Severity:      severity,
	}, true
}

// gradeSeverity grades a containment match. Exact prefix or suffix
// containment ("abby" in "abby king") is high severity; a short single token
// matching anywhere inside a longer name is a common false positive and is
// graded low.
func gradeSeverity(shortName, longName string, shortTokens []string) model.MatchSeverity {
	if strings.HasPrefix(longName, shortName+" ") || strings.HasSuffix(longName, " "+shortName) {
		if len(shortTokens) == 1 && len(shortName) <= shortTokenLength {
			return model.SeverityMedium
		}
		return model.SeverityHigh
	}
	if len(shortTokens) == 1 && len(shortName) <= shortTokenLength {
		return model.SeverityLow
	}
	return model.SeverityMedium
}

// tokenSubset reports whether every token of sub occurs among the tokens of super
func tokenSubset(sub, super []string) bool {
	if len(sub) == 0 || len(sub) > len(super) {
		return false
	}
	available := make(map[string]int, len(super))
	for _, token := range super {
		available[token]++
	}
	for _, token := range sub {
		if available[token] == 0 {
			return false
		}
		available[token]--
	}
	return true
}

func severityRank(s model.MatchSeverity) int {
	switch s {
	case model.SeverityHigh:
		return 0
	case model.SeverityMedium:
		return 1
	default:
		return 2
	}
}

func normalizedNameOf(entity *model.Entity) string {
	if entity.NormalizedName != "" {
		return entity.NormalizedName
	}
	return model.NormalizeName(entity.DisplayName)
}
