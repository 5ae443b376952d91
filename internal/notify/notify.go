/*
Package notify reports the outcome of a run on the console and by e-mail.
*/
package notify

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/shanehull/regscraper/internal/ai"
	"github.com/shanehull/regscraper/internal/run"
)

// SummaryData is what the console summary and the e-mail render.
type SummaryData struct {
	Report *run.Report
	Digest *ai.Digest
	// Err is the error that ended the run early, if any.
	Err error
}

// RenderedMessage is a ready-to-send e-mail.
type RenderedMessage struct {
	Subject string
	Text    string
	HTML    string
}

// PrintSummary writes the run statistics to w. It is safe to call with a
// partially filled report after a failed run.
func PrintSummary(w io.Writer, data SummaryData) {
	stats := data.Report.Stats

	heading := color.New(color.FgGreen, color.Bold)
	warn := color.New(color.FgYellow)
	fail := color.New(color.FgRed)

	if stats.NothingToDo {
		fail.Fprintln(w, "All data for the specified date range is already downloaded. Use '-r' to re-download.")
		return
	}

	fmt.Fprintln(w)
	heading.Fprintln(w, "Run summary")
	fmt.Fprintf(w, "Processed %d dates out of %d.\n", stats.Processed, stats.TotalDates)
	fmt.Fprintf(w, "Skipped %d dates due to existing data.\n", stats.Skipped)
	fmt.Fprintf(w, "Total announcements downloaded: %d\n", stats.Announcements)
	fmt.Fprintf(w, "Details fetched: %d, reused: %d\n", stats.Fetched, stats.Reused)
	if stats.Failed > 0 {
		warn.Fprintf(w, "Details missing: %d\n", stats.Failed)
	}
	if data.Err != nil {
		fail.Fprintf(w, "Run aborted: %v\n", data.Err)
	}

	if types := stats.Types(); len(types) > 0 {
		t := table.NewWriter()
		t.SetOutputMirror(w)
		t.SetStyle(table.StyleRounded)
		t.AppendHeader(table.Row{"Announcement type", "Count"})
		for _, tc := range types {
			t.AppendRow(table.Row{tc.Type, tc.Count})
		}
		t.AppendFooter(table.Row{"Total", stats.Announcements})
		t.Render()
	}

	if data.Digest != nil && len(data.Digest.Summary) > 0 {
		fmt.Fprintln(w)
		heading.Fprintln(w, "AI digest")
		fmt.Fprint(w, formatBulletList(data.Digest.Summary))
		fmt.Fprint(w, formatHighlights(data.Digest.Highlights))
	}
}

func formatHighlights(highlights []ai.Highlight) string {
	if len(highlights) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, h := range highlights {
		sb.WriteString(fmt.Sprintf("\t- [%s] %s\n", h.Category, h.Details))
	}
	return sb.String()
}

func formatBulletList(points []string) string {
	if len(points) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, p := range points {
		sb.WriteString(fmt.Sprintf("\t- %s\n", p))
	}
	return sb.String()
}
