package typing

import "strings"

// Known company names, institutions, and media outlets. Consulted before the
// bare-word location default: a capitalized single word with no keyword match
// is checked here first.
var knownOrganizations = map[string]bool{
	"verizon":             true,
	"google":              true,
	"microsoft":           true,
	"apple":               true,
	"amazon":              true,
	"boeing":              true,
	"airbus":              true,
	"jpmorgan":            true,
	"jpmorgan chase":      true,
	"deutsche bank":       true,
	"goldman sachs":       true,
	"citibank":            true,
	"barclays":            true,
	"hsbc":                true,
	"bear stearns":        true,
	"lehman brothers":     true,
	"victoria's secret":   true,
	"l brands":            true,
	"interpol":            true,
	"fbi":                 true,
	"cia":                 true,
	"nypd":                true,
	"irs":                 true,
	"faa":                 true,
	"miami herald":        true,
	"the miami herald":    true,
	"new york times":      true,
	"the new york times":  true,
	"washington post":     true,
	"wall street journal": true,
	"daily mail":          true,
	"vanity fair":         true,
	"associated press":    true,
	"reuters":             true,
	"bloomberg":           true,
	"cnn":                 true,
	"nbc":                 true,
	"abc news":            true,
	"cbs":                 true,
	"bbc":                 true,
	"fox news":            true,
	"netflix":             true,
}

// Common surnames, used so a bare capitalized word is tried as a person
// before falling back to the location default
var commonSurnames = map[string]bool{
	"smith":      true,
	"johnson":    true,
	"williams":   true,
	"brown":      true,
	"jones":      true,
	"garcia":     true,
	"miller":     true,
	"davis":      true,
	"rodriguez":  true,
	"martinez":   true,
	"hernandez":  true,
	"lopez":      true,
	"gonzalez":   true,
	"wilson":     true,
	"anderson":   true,
	"thomas":     true,
	"taylor":     true,
	"moore":      true,
	"jackson":    true,
	"martin":     true,
	"lee":        true,
	"thompson":   true,
	"white":      true,
	"harris":     true,
	"clark":      true,
	"lewis":      true,
	"robinson":   true,
	"walker":     true,
	"young":      true,
	"allen":      true,
	"king":       true,
	"wright":     true,
	"scott":      true,
	"green":      true,
	"baker":      true,
	"adams":      true,
	"nelson":     true,
	"hill":       true,
	"campbell":   true,
	"mitchell":   true,
	"roberts":    true,
	"carter":     true,
	"phillips":   true,
	"evans":      true,
	"turner":     true,
	"murphy":     true,
	"cooper":     true,
	"kelly":      true,
	"bennett":    true,
	"maxwell":    true,
	"sullivan":   true,
	"fitzgerald": true,
	"o'brien":    true,
	"murray":     true,
	"hughes":     true,
}

// IsKnownOrganization reports whether a name matches the company/media gazetteer
func IsKnownOrganization(name string) bool {
	folded := strings.ToLower(strings.TrimSpace(name))
	if knownOrganizations[folded] {
		return true
	}
	return knownOrganizations[strings.TrimPrefix(folded, "the ")]
}

// IsCommonSurname reports whether a single-token name matches the surname list
func IsCommonSurname(name string) bool {
	return commonSurnames[strings.ToLower(strings.TrimSpace(name))]
}
