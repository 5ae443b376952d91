package notify

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/shanehull/regscraper/internal/run"
)

// HTMLEmailRenderer renders run summaries as HTML emails with a plain text fallback.
type HTMLEmailRenderer struct {
	tmpl *template.Template
}

// NewHTMLEmailRenderer creates a renderer with the default email template.
func NewHTMLEmailRenderer() *HTMLEmailRenderer {
	t := template.Must(template.New("email").Parse(emailHTMLTemplate))
	return &HTMLEmailRenderer{tmpl: t}
}

// Render produces an HTML email with plain text alternative.
func (r *HTMLEmailRenderer) Render(data SummaryData) (*RenderedMessage, error) {
	var htmlBuf bytes.Buffer
	if err := r.tmpl.Execute(&htmlBuf, templateData(data)); err != nil {
		return nil, fmt.Errorf("failed to render HTML template: %w", err)
	}

	return &RenderedMessage{
		Subject: subject(data),
		Text:    renderPlainText(data),
		HTML:    htmlBuf.String(),
	}, nil
}

func subject(data SummaryData) string {
	stats := data.Report.Stats
	s := fmt.Sprintf("Registerbekanntmachungen: %d announcements", stats.Announcements)
	if n := len(stats.Days); n > 0 {
		first, last := stats.Days[0].Date, stats.Days[n-1].Date
		if first == last {
			s += " on " + first
		} else {
			s += fmt.Sprintf(" from %s to %s", first, last)
		}
	}
	if data.Err != nil {
		s += " (incomplete)"
	}
	return s
}

type emailView struct {
	SummaryData
	Types []run.TypeCount
	Error string
}

func templateData(data SummaryData) emailView {
	v := emailView{SummaryData: data, Types: data.Report.Stats.Types()}
	if data.Err != nil {
		v.Error = data.Err.Error()
	}
	return v
}

// renderPlainText produces a readable plain text version for email clients that don't support HTML.
func renderPlainText(data SummaryData) string {
	stats := data.Report.Stats
	var sb strings.Builder

	sb.WriteString(subject(data) + "\n")
	sb.WriteString(strings.Repeat("=", 50) + "\n\n")

	if data.Err != nil {
		sb.WriteString(fmt.Sprintf("Run aborted: %v\n\n", data.Err))
	}

	sb.WriteString(fmt.Sprintf("Dates processed: %d of %d (skipped %d)\n", stats.Processed, stats.TotalDates, stats.Skipped))
	sb.WriteString(fmt.Sprintf("Details fetched: %d, reused: %d, missing: %d\n\n", stats.Fetched, stats.Reused, stats.Failed))

	if len(stats.Days) > 0 {
		sb.WriteString("DATES\n")
		sb.WriteString(strings.Repeat("-", 20) + "\n")
		for _, d := range stats.Days {
			sb.WriteString(fmt.Sprintf("• %s: %d\n", d.Date, d.Announcements))
		}
		sb.WriteString("\n")
	}

	if types := stats.Types(); len(types) > 0 {
		sb.WriteString("TYPES\n")
		sb.WriteString(strings.Repeat("-", 20) + "\n")
		for _, tc := range types {
			sb.WriteString(fmt.Sprintf("• %s: %d\n", tc.Type, tc.Count))
		}
		sb.WriteString("\n")
	}

	if data.Digest != nil {
		if len(data.Digest.Summary) > 0 {
			sb.WriteString("AI DIGEST\n")
			sb.WriteString(strings.Repeat("-", 20) + "\n")
			for _, s := range data.Digest.Summary {
				sb.WriteString(fmt.Sprintf("• %s\n", s))
			}
			sb.WriteString("\n")
		}

		if len(data.Digest.Highlights) > 0 {
			sb.WriteString("HIGHLIGHTS\n")
			sb.WriteString(strings.Repeat("-", 20) + "\n")
			for _, h := range data.Digest.Highlights {
				sb.WriteString(fmt.Sprintf("• [%s] %s\n", h.Category, h.Details))
			}
			sb.WriteString("\n")
		}
	}

	return sb.String()
}
