package portal

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shanehull/regscraper/internal/parser"
)

const resultPage = `<html><body>
<form id="bekanntMachungenForm">
<dl id="bekanntMachungenForm:datalistId_list" class="ui-datalist-data">
  <dt>01.10.2026</dt>
  <dd>
    <a href="#" onclick="fireBekanntmachung2('01.10.2026', '1001');return false;">
      <label>Löschungsankündigung<br>
        Niedersachsen Amtsgericht Braunschweig HRB 100634<br>
        Nordic&nbsp;Holding GmbH – Wolfsburg</label>
    </a>
    <a href="#" onclick="fireBekanntmachung2('01.10.2026', '1002');return false;">
      <label>Sonderregisterbekanntmachung OHNE Bezug zum elektr. Register<br>
        Sachsen-Anhalt Amtsgericht Stendal<br>
        65 AR 99/21<br>
        Beispiel e.V.</label>
    </a>
  </dd>
  <dt>02.10.2026</dt>
  <dd></dd>
</dl>
<input type="hidden" name="javax.faces.ViewState" value="-4711:0815">
</form>
</body></html>`

func TestParseResults(t *testing.T) {
	days, viewState, err := ParseResults(resultPage)
	require.NoError(t, err)

	assert.Equal(t, "-4711:0815", viewState)
	require.Len(t, days, 2)
	assert.Equal(t, time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC), days[0].Date)
	assert.Empty(t, days[1].Entries)

	require.Len(t, days[0].Entries, 2)
	first := days[0].Entries[0]
	assert.Equal(t, []string{
		"Löschungsankündigung",
		"Niedersachsen Amtsgericht Braunschweig HRB 100634",
		"Nordic Holding GmbH – Wolfsburg",
	}, first.Lines)
	assert.Contains(t, first.Interaction, "fireBekanntmachung2('01.10.2026', '1001')")
}

func TestParseResultsFeedsParser(t *testing.T) {
	days, _, err := ParseResults(resultPage)
	require.NoError(t, err)

	for _, e := range days[0].Entries {
		ann, err := parser.Parse(e.Lines, e.Interaction)
		require.NoError(t, err)
		assert.NotEmpty(t, ann.ID)
		assert.NotEmpty(t, ann.CompanyName)
	}
}

func TestParseResultsWithoutList(t *testing.T) {
	days, viewState, err := ParseResults(`<html><body><p>Keine Treffer</p></body></html>`)

	require.NoError(t, err)
	assert.Empty(t, days)
	assert.Empty(t, viewState)
}

func TestParseResultsBadDate(t *testing.T) {
	_, _, err := ParseResults(`<dl id="bekanntMachungenForm:datalistId_list"><dt>gestern</dt><dd></dd></dl>`)

	require.Error(t, err)
}

func TestNavigationTimeoutError(t *testing.T) {
	inner := errors.New("context deadline exceeded")
	err := error(&NavigationTimeoutError{Step: "submitting the search", Err: inner})

	var navErr *NavigationTimeoutError
	require.ErrorAs(t, err, &navErr)
	assert.ErrorIs(t, err, inner)
	assert.Contains(t, err.Error(), "submitting the search")
}

func TestClean(t *testing.T) {
	decomposed := "Mu\u0308ller KG\u00a0"
	assert.Equal(t, "Müller KG", clean(decomposed))
}
