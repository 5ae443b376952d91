package notify

import (
	"bytes"
	"errors"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomail "gopkg.in/mail.v2"

	"github.com/shanehull/regscraper/internal/ai"
	"github.com/shanehull/regscraper/internal/logger"
	"github.com/shanehull/regscraper/internal/run"
	"github.com/shanehull/regscraper/internal/types"
)

func report() *run.Report {
	stats := run.NewStats()
	stats.TotalDates = 3
	stats.Skipped = 1
	stats.AddDay(run.DayStats{Date: "2026-10-01", Announcements: 2, Fetched: 1, Reused: 1}, []types.Announcement{
		{Type: "Eintragung"}, {Type: "Löschungsankündigung"},
	})
	stats.AddDay(run.DayStats{Date: "2026-10-02", Announcements: 1, Failed: 1}, []types.Announcement{
		{Type: "Eintragung"},
	})
	return &run.Report{Stats: stats}
}

func digest() *ai.Digest {
	return &ai.Digest{
		Summary:    []string{"Zwei Neueintragungen in München"},
		Highlights: []ai.Highlight{{Category: "Dissolutions & Deletions", Details: "Nordic Holding <GmbH>"}},
	}
}

func TestPrintSummary(t *testing.T) {
	color.NoColor = true
	var buf bytes.Buffer

	PrintSummary(&buf, SummaryData{Report: report(), Digest: digest()})

	out := buf.String()
	assert.Contains(t, out, "Processed 2 dates out of 3.")
	assert.Contains(t, out, "Skipped 1 dates due to existing data.")
	assert.Contains(t, out, "Total announcements downloaded: 3")
	assert.Contains(t, out, "Details missing: 1")
	assert.Contains(t, out, "Eintragung")
	assert.Contains(t, out, "Löschungsankündigung")
	assert.Contains(t, out, "- Zwei Neueintragungen in München")
	assert.Contains(t, out, "[Dissolutions & Deletions] Nordic Holding <GmbH>")
}

func TestPrintSummaryNothingToDo(t *testing.T) {
	color.NoColor = true
	var buf bytes.Buffer
	stats := run.NewStats()
	stats.NothingToDo = true

	PrintSummary(&buf, SummaryData{Report: &run.Report{Stats: stats}})

	assert.Contains(t, buf.String(), "Use '-r' to re-download.")
}

func TestPrintSummaryAfterFailure(t *testing.T) {
	color.NoColor = true
	var buf bytes.Buffer

	PrintSummary(&buf, SummaryData{Report: report(), Err: errors.New("navigation timed out")})

	assert.Contains(t, buf.String(), "Run aborted: navigation timed out")
	assert.Contains(t, buf.String(), "Processed 2 dates out of 3.")
}

func TestRender(t *testing.T) {
	msg, err := NewHTMLEmailRenderer().Render(SummaryData{Report: report(), Digest: digest()})
	require.NoError(t, err)

	assert.Equal(t, "Registerbekanntmachungen: 3 announcements from 2026-10-01 to 2026-10-02", msg.Subject)
	assert.Contains(t, msg.HTML, "Löschungsankündigung")
	assert.Contains(t, msg.HTML, "Nordic Holding &lt;GmbH&gt;")
	assert.NotContains(t, msg.HTML, "Run aborted")
	assert.Contains(t, msg.Text, "• 2026-10-01: 2\n")
	assert.Contains(t, msg.Text, "• Eintragung: 2\n")
	assert.Contains(t, msg.Text, "AI DIGEST")
}

func TestRenderIncompleteRun(t *testing.T) {
	msg, err := NewHTMLEmailRenderer().Render(SummaryData{Report: report(), Err: errors.New("boom")})
	require.NoError(t, err)

	assert.Contains(t, msg.Subject, "(incomplete)")
	assert.Contains(t, msg.HTML, "Run aborted")
	assert.NotContains(t, msg.Text, "AI DIGEST")
}

type fakeDialer struct {
	sent []*gomail.Message
	err  error
}

func (d *fakeDialer) DialAndSend(m ...*gomail.Message) error {
	d.sent = append(d.sent, m...)
	return d.err
}

func TestEmailSender(t *testing.T) {
	cfg := EmailConfig{FromEmail: "bot@example.com", ToEmail: "team@example.com", Enabled: true}
	dialer := &fakeDialer{}
	sender := NewEmailSender(cfg, logger.NewNoOp())
	sender.dialer = dialer

	require.NoError(t, sender.Send(&RenderedMessage{Subject: "Hallo", Text: "text", HTML: "<p>html</p>"}))

	require.Len(t, dialer.sent, 1)
	assert.Equal(t, []string{"Hallo"}, dialer.sent[0].GetHeader("Subject"))
	assert.Equal(t, []string{"team@example.com"}, dialer.sent[0].GetHeader("To"))

	dialer.err = errors.New("smtp down")
	require.Error(t, sender.Send(&RenderedMessage{Subject: "x", Text: "y"}))
}

func TestEmailSenderDisabled(t *testing.T) {
	dialer := &fakeDialer{}
	sender := NewEmailSender(EmailConfig{}, logger.NewNoOp())
	sender.dialer = dialer

	require.NoError(t, sender.Send(&RenderedMessage{Subject: "x"}))
	assert.Empty(t, dialer.sent)
}
