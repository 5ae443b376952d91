package htmltext

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

func parse(t *testing.T, markup string) *html.Node {
	t.Helper()
	doc, err := html.Parse(strings.NewReader(markup))
	require.NoError(t, err)
	return doc
}

func TestTextKeepsLines(t *testing.T) {
	doc := parse(t, `<div><p>Amtsgericht Köln</p>Aktenzeichen: HRB 1<br>Firma GmbH<script>var x = 1;</script></div>`)

	assert.Equal(t, "Amtsgericht Köln\nAktenzeichen: HRB 1\nFirma GmbH\n", Text(doc))
}

func TestTextTableCells(t *testing.T) {
	doc := parse(t, `<table><tr><td>Sitz:</td><td>Köln</td></tr></table>`)

	assert.Equal(t, "Sitz: Köln\n\n", Text(doc))
}

func TestNormalizeCollapsesBlankRuns(t *testing.T) {
	in := "a\n\n\n\nb"

	assert.Equal(t, "a\n\nb", Normalize(in))
}

func TestNormalizeKeepsShortBlankRuns(t *testing.T) {
	assert.Equal(t, "a\n\nb", Normalize("a\n\nb"))
	assert.Equal(t, "a\n\n\nb", Normalize("a\n\n\nb"))
}

func TestNormalizeTrimsLines(t *testing.T) {
	in := "  \n   Eintragung  \r\n\t Firma GmbH \n \n \n \n Ende\n\n"

	assert.Equal(t, "Eintragung\nFirma GmbH\n\nEnde", Normalize(in))
}

func TestNormalizeEmpty(t *testing.T) {
	assert.Empty(t, Normalize(" \n\t\n "))
}
