package portal

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/unicode/norm"

	"github.com/shanehull/regscraper/internal/dates"
	"github.com/shanehull/regscraper/internal/htmltext"
	"github.com/shanehull/regscraper/internal/types"
)

const (
	resultList     = `dl[id="bekanntMachungenForm:datalistId_list"]`
	viewStateInput = `input[name="javax.faces.ViewState"]`
)

// ParseResults reads the search result page. Every <dt> holds a date and the
// following <dd> the links of that date's announcements; each link carries
// the interaction in its onclick attribute and the text lines in its label.
func ParseResults(page string) ([]types.DayResult, string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return nil, "", fmt.Errorf("failed to parse result page: %w", err)
	}

	viewState := doc.Find(viewStateInput).First().AttrOr("value", "")

	list := doc.Find(resultList).First()
	dts := list.ChildrenFiltered("dt")
	dds := list.ChildrenFiltered("dd")

	days := make([]types.DayResult, 0, dts.Length())
	for i := range dts.Nodes {
		label := clean(dts.Eq(i).Text())
		day, err := dates.ParseDate(label)
		if err != nil {
			return nil, "", fmt.Errorf("failed to parse result date %q: %w", label, err)
		}

		result := types.DayResult{Date: day}
		if i < dds.Length() {
			dds.Eq(i).Find("a").Each(func(_ int, a *goquery.Selection) {
				result.Entries = append(result.Entries, entry(a))
			})
		}
		days = append(days, result)
	}

	return days, viewState, nil
}

func entry(a *goquery.Selection) types.RawEntry {
	textNode := a
	if label := a.Find("label"); label.Length() > 0 {
		textNode = label.First()
	}

	var lines []string
	for _, line := range strings.Split(clean(htmltext.Text(textNode.Get(0))), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}

	return types.RawEntry{
		Lines:       lines,
		Interaction: a.AttrOr("onclick", ""),
	}
}

// clean composes the browser text to NFC and replaces non-breaking spaces so
// the parser's patterns match.
func clean(s string) string {
	s = norm.NFC.String(s)
	s = strings.ReplaceAll(s, "\u00a0", " ")
	return strings.TrimSpace(s)
}
