package ai

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/shanehull/regscraper/internal/types"
)

func sample() []types.Announcement {
	return []types.Announcement{
		{
			Date:        "2026-10-01",
			Type:        "Eintragung",
			Amtsgericht: "Amtsgericht München",
			CompanyName: "Müller GmbH",
			Register:    types.StandardRegister{Registernummer: "HRB 1234", CompanySeat: "München"},
		},
		{
			Date:        "2026-10-01",
			Type:        "Sonderregisterbekanntmachung OHNE Bezug zum elektr. Register",
			Amtsgericht: "Amtsgericht Stendal",
			CompanyName: "Beispiel e.V.",
			Register:    types.SpecialRegister{Referenz: "65 AR 99/21"},
		},
		{
			Date:        "2026-10-02",
			Type:        "Eintragung",
			CompanyName: "Unbekannt KG",
			Register:    types.StandardRegister{},
		},
	}
}

func TestBuildPrompt(t *testing.T) {
	prompt := buildPrompt(sample(), 10)

	assert.Contains(t, prompt, "following 3 register announcements")
	assert.Contains(t, prompt, "- Eintragung: 2\n")
	assert.Contains(t, prompt, "- 2026-10-01 | Eintragung | Müller GmbH | München | HRB 1234 | Amtsgericht München\n")
	assert.Contains(t, prompt, "65 AR 99/21 | Amtsgericht Stendal")
	assert.Contains(t, prompt, "- 2026-10-02 | Eintragung | Unbekannt KG\n")
}

func TestBuildPromptTruncates(t *testing.T) {
	prompt := buildPrompt(sample(), 1)

	assert.Contains(t, prompt, "... and 2 more")
	assert.NotContains(t, prompt, "Unbekannt KG")
}

func TestParseDigest(t *testing.T) {
	digest, err := parseDigest("```json\n{\"summary\":[\"Ruhiger Tag\"],\"highlights\":[{\"category\":\"Formations\",\"details\":\"Müller GmbH\"}]}\n```")
	require.NoError(t, err)

	assert.Equal(t, []string{"Ruhiger Tag"}, digest.Summary)
	assert.Equal(t, []Highlight{{Category: "Formations", Details: "Müller GmbH"}}, digest.Highlights)

	_, err = parseDigest("not json")
	require.Error(t, err)
}

func TestResponseSchema(t *testing.T) {
	schema := responseSchema()

	assert.Equal(t, genai.TypeObject, schema.Type)
	assert.ElementsMatch(t, []string{"summary", "highlights"}, schema.Required)
	assert.Equal(t, genai.TypeArray, schema.Properties["highlights"].Type)
}

func TestNewClientRequiresKey(t *testing.T) {
	_, err := NewClient(context.Background(), "", "gemini-2.5-flash")
	require.Error(t, err)
}

func TestDigestOfNothingSkipsCall(t *testing.T) {
	digest, err := (&Client{}).Digest(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, digest.Summary)
}
