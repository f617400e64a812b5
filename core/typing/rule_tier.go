package typing

import (
	"context"
	"regexp"
	"strings"
	"unicode"

	"github.com/archivekit/dossier/core/scoring"
	"github.com/archivekit/dossier/model"
)

// Rule confidence bases, corroborated by distinct source count before return
const (
	confCommaName       = 0.90
	confCorporateSuffix = 0.85
	confGazetteer       = 0.85
	confLocationKeyword = 0.80
	confSurname         = 0.80
	confOrgKeyword      = 0.78
	confPersonShape     = 0.70
	confLocationDefault = 0.40
)

// Corporate suffixes are the strongest organization signal
var corporateSuffixes = []string{
	"inc", "inc.", "llc", "llc.", "ltd", "ltd.", "corp", "corp.", "corporation",
	"co.", "plc", "lp", "llp", "gmbh", "s.a.", "holdings",
}

// Location keywords include structural/address terms (building, suite, floor)
// so that buildings and addresses do not land in the organization bucket
var locationKeywords = []string{
	"street", "avenue", "boulevard", "road", "drive", "lane", "terrace", "row",
	"suite", "floor", "building", "tower", "plaza", "square",
	"island", "beach", "county", "airport", "harbor", "bay",
	"ranch", "estate", "villa", "apartment", "penthouse", "room",
}

var organizationKeywords = []string{
	"department", "bureau", "committee", "commission", "agency", "ministry",
	"university", "college", "school", "institute", "foundation", "association",
	"bank", "trust", "fund", "group", "enterprises", "partners", "firm",
	"airlines", "airways", "media", "press", "herald", "times", "journal",
	"police", "office",
}

// "LastName, FirstName" with both components capitalized
var commaNamePattern = regexp.MustCompile(`^\p{Lu}[\p{L}'’-]+,\s+\p{Lu}[\p{L}'’.-]*$`)

// RuleTier is the deterministic keyword/pattern fallback. It is total: it
// always returns a result, defaulting to location only after the gazetteer
// has been consulted.
type RuleTier struct{}

// NewRuleTier creates the procedural classification tier
func NewRuleTier() *RuleTier {
	return &RuleTier{}
}

// Name returns the tier name
func (t *RuleTier) Name() string {
	return TierRule
}

// Attempt classifies by deterministic rules, evaluated in a fixed order:
// comma-separated person names first, then corporate suffixes, location
// keywords, organization keywords, the gazetteer, and finally shape rules.
func (t *RuleTier) Attempt(ctx context.Context, text string, bundle *model.EvidenceBundle) (*TypeResult, error) {
	// Strip before inference, never after: possessives and leading initials
	// fragment name variants into separate wrongly-typed entities otherwise.
	name := model.StripLeadingInitial(model.StripPossessive(strings.TrimSpace(text)))
	if name == "" {
		name = strings.TrimSpace(text)
	}

	sourceCount := bundle.DistinctSourceCount()
	result := func(entityType model.EntityType, base float64) (*TypeResult, error) {
		return &TypeResult{
			Type:       entityType,
			Confidence: scoring.Corroborate(base, sourceCount),
		}, nil
	}

	// Comma-separated proper-noun pairs are checked before any keyword table:
	// "Comey, Maurene" is a person even though keyword scans may disagree.
	if commaNamePattern.MatchString(name) && !containsAnyKeyword(name, corporateSuffixes) {
		return result(model.EntityPerson, confCommaName)
	}

	if containsAnyKeyword(name, corporateSuffixes) {
		return result(model.EntityOrganization, confCorporateSuffix)
	}

	if containsAnyKeyword(name, locationKeywords) {
		return result(model.EntityLocation, confLocationKeyword)
	}

	if containsAnyKeyword(name, organizationKeywords) {
		return result(model.EntityOrganization, confOrgKeyword)
	}

	if IsKnownOrganization(name) {
		return result(model.EntityOrganization, confGazetteer)
	}

	tokens := strings.Fields(name)

	if len(tokens) == 1 {
		if IsCommonSurname(name) {
			return result(model.EntityPerson, confSurname)
		}
		// Last resort for a bare unrecognized word
		return result(model.EntityLocation, confLocationDefault)
	}

	if looksLikePersonName(tokens) {
		return result(model.EntityPerson, confPersonShape)
	}

	return result(model.EntityLocation, confLocationDefault)
}

// looksLikePersonName reports whether tokens form a plausible personal name:
// two to four capitalized words without digits
func looksLikePersonName(tokens []string) bool {
	if len(tokens) < 2 || len(tokens) > 4 {
		return false
	}
	for _, token := range tokens {
		if containsDigit(token) {
			return false
		}
		trimmed := strings.TrimLeft(token, "'’")
		if trimmed == "" {
			return false
		}
		first := []rune(trimmed)[0]
		// Particles like "van" or "de" are allowed in the middle
		if !unicode.IsUpper(first) && !isNameParticle(trimmed) {
			return false
		}
	}
	first := []rune(tokens[0])[0]
	return unicode.IsUpper(first)
}

var nameParticles = map[string]bool{
	"van": true, "von": true, "de": true, "del": true, "della": true,
	"di": true, "da": true, "la": true, "le": true, "bin": true, "al": true,
}

func isNameParticle(token string) bool {
	return nameParticles[strings.ToLower(token)]
}

// containsAnyKeyword reports whether any keyword appears as a whole token
// (case-insensitive) in the name
func containsAnyKeyword(name string, keywords []string) bool {
	folded := strings.ToLower(name)
	tokens := strings.FieldsFunc(folded, func(r rune) bool {
		return r == ' ' || r == ','
	})
	for _, token := range tokens {
		trimmed := strings.Trim(token, ".")
		for _, keyword := range keywords {
			if token == keyword || trimmed == strings.Trim(keyword, ".") {
				return true
			}
		}
	}
	return false
}
