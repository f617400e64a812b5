package typing

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

// ErrRejected marks a candidate that failed the validation gate. Rejected
// candidates are extraction noise: they are logged and discarded, never
// persisted as entities.
var ErrRejected = errors.New("rejected by validation gate")

// Generic role/term nouns that name a role or concept, not an entity
var genericTerms = map[string]bool{
	"transportation":  true,
	"defense counsel": true,
	"defence counsel": true,
	"husband":         true,
	"wife":            true,
	"brother":         true,
	"sister":          true,
	"victim":          true,
	"witness":         true,
	"plaintiff":       true,
	"defendant":       true,
	"government":      true,
	"the government":  true,
	"the court":       true,
	"counsel":         true,
	"page":            true,
	"exhibit":         true,
	"appendix":        true,
	"redacted":        true,
	"confidential":    true,
	"unknown":         true,
	"none":            true,
	"masseuse":        true,
	"housekeeper":     true,
	"assistant":       true,
	"security":        true,
	"staff":           true,
}

// Legal boilerplate phrases that appear as extraction artifacts
var boilerplatePhrases = []string{
	"et al",
	"rules of criminal procedure",
	"rules of civil procedure",
	"certificate of service",
	"notice of appeal",
	"memorandum of law",
	"so ordered",
	"under seal",
}

var (
	// Structured billing/system codes, e.g. "AB-1234" or "X99"
	structuredCodePattern = regexp.MustCompile(`^[A-Z0-9]{2,}[- ]?[A-Z0-9]*$`)

	// Redaction markers like "b3 -1" or "b7(C)"
	redactionPattern = regexp.MustCompile(`(?i)^b\d+\s*[-(]?\s*[0-9a-z)]*$`)

	allCapsTokenPattern = regexp.MustCompile(`^[A-Z0-9-]{2,}$`)
)

// Validate is the entity validation gate: it rejects candidate strings that
// are generic terms, legal boilerplate, or structured codes before any type
// is assigned. It must run before classification, not after.
func Validate(raw string) error {
	text := strings.TrimSpace(raw)
	if len(text) < 2 {
		return fmt.Errorf("%w: too short %q", ErrRejected, raw)
	}

	folded := strings.ToLower(strings.Join(strings.Fields(text), " "))
	folded = strings.Trim(folded, ".,")

	if genericTerms[folded] {
		return fmt.Errorf("%w: generic term %q", ErrRejected, raw)
	}

	for _, phrase := range boilerplatePhrases {
		if folded == phrase || strings.HasPrefix(folded, phrase+" ") || strings.HasSuffix(folded, " "+phrase) {
			return fmt.Errorf("%w: legal boilerplate %q", ErrRejected, raw)
		}
	}

	if redactionPattern.MatchString(text) {
		return fmt.Errorf("%w: redaction marker %q", ErrRejected, raw)
	}

	if isStructuredCode(text) {
		return fmt.Errorf("%w: structured code %q", ErrRejected, raw)
	}

	if !containsLetter(text) {
		return fmt.Errorf("%w: no letters in %q", ErrRejected, raw)
	}

	return nil
}

// isStructuredCode detects billing/system codes: all-caps tokens where at
// least one token carries a digit ("SSR SSR TKNEAFHK1", "AB-1234"). Plain
// all-caps acronyms without digits (FBI) pass through to the gazetteer.
func isStructuredCode(text string) bool {
	if structuredCodePattern.MatchString(text) && containsDigit(text) {
		return true
	}

	tokens := strings.Fields(text)
	if len(tokens) < 2 {
		return false
	}
	anyDigit := false
	for _, token := range tokens {
		if !allCapsTokenPattern.MatchString(token) {
			return false
		}
		if containsDigit(token) {
			anyDigit = true
		}
	}
	return anyDigit
}

func containsDigit(s string) bool {
	for _, r := range s {
		if unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

func containsLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}
