package model

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// SourceType identifies the kind of document a mention was extracted from.
// It drives evidence-quality weighting during classification.
type SourceType string

const (
	SourceCourtFiling    SourceType = "court_filing"
	SourceDeposition     SourceType = "deposition"
	SourceFlightLog      SourceType = "flight_log"
	SourceContactBook    SourceType = "contact_book"
	SourceNewsArticle    SourceType = "news_article"
	SourceCorrespondence SourceType = "correspondence"
	SourceFinancial      SourceType = "financial"
	SourceAdministrative SourceType = "administrative"
	SourceOther          SourceType = "other"
)

// Valid reports whether the source type is one of the known values
func (s SourceType) Valid() bool {
	switch s {
	case SourceCourtFiling, SourceDeposition, SourceFlightLog, SourceContactBook,
		SourceNewsArticle, SourceCorrespondence, SourceFinancial, SourceAdministrative, SourceOther:
		return true
	}
	return false
}

// EntityMention represents one observed occurrence of a name in a source document.
// Mentions are created once by upstream extraction and are immutable.
type EntityMention struct {
	ID               uuid.UUID  `json:"id"`
	EntityID         uuid.UUID  `json:"entity_id"`
	RawText          string     `json:"raw_text"`
	NormalizedText   string     `json:"normalized_text"`
	SourceDocumentID uuid.UUID  `json:"source_document_id"`
	SourceType       SourceType `json:"source_type"`
	ContextWindow    string     `json:"context_window,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}

// NewMention creates a mention with the normalized form derived from the raw text
func NewMention(rawText string, documentID uuid.UUID, sourceType SourceType, contextWindow string) *EntityMention {
	return &EntityMention{
		RawText:          rawText,
		NormalizedText:   NormalizeName(rawText),
		SourceDocumentID: documentID,
		SourceType:       sourceType,
		ContextWindow:    contextWindow,
	}
}

var (
	leadingInitialPattern = regexp.MustCompile(`^[A-Z]\.\s+`)
	punctuationPattern    = regexp.MustCompile(`[^\p{L}\p{N}\s'-]`)
	whitespacePattern     = regexp.MustCompile(`\s+`)
)

// NormalizeName produces the comparison form of a name: possessive suffix and
// leading single-letter initials stripped, punctuation removed, case folded.
// Normalization is for comparison only, never for display.
func NormalizeName(raw string) string {
	name := strings.TrimSpace(raw)
	name = StripPossessive(name)
	name = StripLeadingInitial(name)
	name = punctuationPattern.ReplaceAllString(name, "")
	name = strings.ReplaceAll(name, "'", "")
	name = whitespacePattern.ReplaceAllString(name, " ")
	return strings.ToLower(strings.TrimSpace(name))
}

// StripPossessive removes a trailing 's or ' from a name, preserving case
func StripPossessive(name string) string {
	trimmed := strings.TrimSpace(name)
	for _, suffix := range []string{"'s", "’s"} {
		if strings.HasSuffix(trimmed, suffix) {
			return strings.TrimSpace(strings.TrimSuffix(trimmed, suffix))
		}
	}
	if strings.HasSuffix(trimmed, "'") || strings.HasSuffix(trimmed, "’") {
		return strings.TrimSpace(strings.TrimRight(trimmed, "'’"))
	}
	return trimmed
}

// StripLeadingInitial removes one leading single-letter initial ("A. ") from a name,
// preserving case. Only a single initial is stripped so abbreviated first names
// ("J. K. Rowling") keep their second initial intact for display matching.
func StripLeadingInitial(name string) string {
	trimmed := strings.TrimSpace(name)
	return strings.TrimSpace(leadingInitialPattern.ReplaceAllString(trimmed, ""))
}

// NameTokens splits a normalized name into its tokens
func NameTokens(normalized string) []string {
	fields := strings.Fields(normalized)
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if f != "" {
			tokens = append(tokens, f)
		}
	}
	return tokens
}
