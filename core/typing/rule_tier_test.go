package typing

import (
	"context"
	"testing"

	"github.com/archivekit/dossier/model"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRuleTier_Attempt(t *testing.T) {
	tier := NewRuleTier()
	ctx := context.Background()

	tests := []struct {
		name       string
		text       string
		expected   model.EntityType
		confidence float64
	}{
		{"Comma-separated name is a person", "Comey, Maurene", model.EntityPerson, confCommaName},
		{"Corporate suffix is an organization", "Park Row Associates Ltd", model.EntityOrganization, confCorporateSuffix},
		{"Comma name with corporate suffix stays an organization", "Acme, Inc.", model.EntityOrganization, confCorporateSuffix},
		{"Suite number is a location", "Suite 715", model.EntityLocation, confLocationKeyword},
		{"Building name is a location", "Mollo Building", model.EntityLocation, confLocationKeyword},
		{"Street address is a location", "301 East 66th Street", model.EntityLocation, confLocationKeyword},
		{"Newspaper keyword is an organization", "Miami Herald", model.EntityOrganization, confOrgKeyword},
		{"Agency keyword is an organization", "Justice Department", model.EntityOrganization, confOrgKeyword},
		{"Gazetteer company is an organization", "Verizon", model.EntityOrganization, confGazetteer},
		{"Gazetteer acronym is an organization", "FBI", model.EntityOrganization, confGazetteer},
		{"Single common surname is a person", "Maxwell", model.EntityPerson, confSurname},
		{"Unknown bare word defaults to location", "Zorro", model.EntityLocation, confLocationDefault},
		{"Two capitalized words are a person", "Ghislaine Maxwell", model.EntityPerson, confPersonShape},
		{"Name with particle is a person", "Jean-Luc van Damme", model.EntityPerson, confPersonShape},
		{"Possessive is stripped before inference", "Jeffrey Epstein's", model.EntityPerson, confPersonShape},
		{"Leading initial is stripped before inference", "G. Maxwell", model.EntityPerson, confSurname},
		{"Token with digits is not a person", "Hangar 19 Annex", model.EntityLocation, confLocationDefault},
	}

	// Without corroborating sources the rule confidence is scaled by the
	// single-source factor.
	loneScale := 0.85 + 0.15*0.7

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			result, err := tier.Attempt(ctx, test.text, nil)
			require.NoError(t, err, "Expected the rule tier to never fail")
			require.NotNil(t, result, "Expected the rule tier to always produce a result")

			assert.Equal(t, test.expected, result.Type, "Wrong type for %q", test.text)
			assert.InDelta(t, test.confidence*loneScale, result.Confidence, 1e-9,
				"Wrong confidence for %q with no corroborating sources", test.text)
		})
	}

	t.Run("Corroboration raises confidence with more sources", func(t *testing.T) {
		bundle := &model.EvidenceBundle{
			Sources: []model.EvidenceSource{
				{DocumentID: uuid.New(), SourceType: model.SourceFlightLog},
				{DocumentID: uuid.New(), SourceType: model.SourceDeposition},
				{DocumentID: uuid.New(), SourceType: model.SourceCourtFiling},
				{DocumentID: uuid.New(), SourceType: model.SourceFinancial},
			},
		}

		lone, err := tier.Attempt(ctx, "Ghislaine Maxwell", nil)
		require.NoError(t, err)
		corroborated, err := tier.Attempt(ctx, "Ghislaine Maxwell", bundle)
		require.NoError(t, err)

		assert.Greater(t, corroborated.Confidence, lone.Confidence,
			"Expected four distinct sources to raise the rule confidence")
		assert.Equal(t, lone.Type, corroborated.Type, "Expected the type itself to be unaffected")
	})

	t.Run("Variant spellings classify identically", func(t *testing.T) {
		base, err := tier.Attempt(ctx, "Sarah Kellen", nil)
		require.NoError(t, err)
		possessive, err := tier.Attempt(ctx, "Sarah Kellen's", nil)
		require.NoError(t, err)

		assert.Equal(t, base.Type, possessive.Type)
		assert.Equal(t, base.Confidence, possessive.Confidence)
	})

	t.Run("Name reports the rule tier", func(t *testing.T) {
		assert.Equal(t, TierRule, tier.Name())
	})
}

func TestIsKnownOrganization(t *testing.T) {
	t.Run("Matches case-insensitively", func(t *testing.T) {
		assert.True(t, IsKnownOrganization("Verizon"))
		assert.True(t, IsKnownOrganization("verizon"))
		assert.True(t, IsKnownOrganization("GOLDMAN SACHS"))
	})

	t.Run("Matches with and without leading article", func(t *testing.T) {
		assert.True(t, IsKnownOrganization("The Miami Herald"))
		assert.True(t, IsKnownOrganization("Miami Herald"))
	})

	t.Run("Unknown names do not match", func(t *testing.T) {
		assert.False(t, IsKnownOrganization("Zorro"))
		assert.False(t, IsKnownOrganization(""))
	})
}

func TestIsCommonSurname(t *testing.T) {
	assert.True(t, IsCommonSurname("Maxwell"))
	assert.True(t, IsCommonSurname("o'brien"))
	assert.False(t, IsCommonSurname("Epstein"))
	assert.False(t, IsCommonSurname(""))
}
