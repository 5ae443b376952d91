package notify

const emailHTMLTemplate = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>Registerbekanntmachungen</title>
  <style>
    body {
      margin: 0;
      padding: 24px;
      background-color: #f3f4f6;
      font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
      color: #111827;
      line-height: 1.5;
    }

    .container {
      max-width: 640px;
      margin: 0 auto;
      background: #ffffff;
      border-radius: 8px;
      border: 1px solid #e5e7eb;
      overflow: hidden;
    }

    .header {
      padding: 20px 24px;
      background: linear-gradient(135deg, #463737 0%, #37393b 100%);
      color: #ffffff;
    }

    .headline {
      font-size: 22px;
      font-weight: 700;
      margin-bottom: 4px;
    }

    .badge {
      display: inline-block;
      margin-top: 8px;
      padding: 4px 10px;
      font-size: 11px;
      font-weight: 600;
      border-radius: 4px;
      background: #dc2626;
      color: #ffffff;
      text-transform: uppercase;
      letter-spacing: 0.05em;
    }

    .section {
      padding: 16px 24px;
      border-top: 1px solid #f3f4f6;
    }

    .section-title {
      font-size: 11px;
      font-weight: 700;
      color: #6b7280;
      text-transform: uppercase;
      letter-spacing: 0.1em;
      margin-bottom: 12px;
    }

    table.counts {
      width: 100%;
      border-collapse: collapse;
      font-size: 14px;
    }

    table.counts td {
      padding: 6px 0;
      border-bottom: 1px solid #f3f4f6;
    }

    table.counts td.count {
      text-align: right;
      font-weight: 600;
      white-space: nowrap;
    }

    .summary-list,
    .highlight-list {
      margin: 0;
      padding-left: 20px;
      font-size: 14px;
    }

    .summary-list li,
    .highlight-list li {
      margin-bottom: 8px;
      padding-left: 4px;
    }

    .highlight-category {
      display: inline-block;
      padding: 3px 6px;
      font-size: 10px;
      font-weight: 600;
      background: #fef3c7;
      color: #92400e;
      border-radius: 3px;
      text-transform: uppercase;
      letter-spacing: 0.03em;
      margin-right: 2px;
    }

    .footer {
      padding: 16px 24px;
      font-size: 12px;
      color: #9ca3af;
      text-align: center;
      background: #f9fafb;
      border-top: 1px solid #f3f4f6;
    }
  </style>
</head>
<body>
  <div class="container">
    <div class="header">
      <div class="headline">{{.Report.Stats.Announcements}} announcements</div>
      <div>{{.Report.Stats.Processed}} of {{.Report.Stats.TotalDates}} dates processed, {{.Report.Stats.Skipped}} skipped</div>
      {{if .Error}}
      <span class="badge">Run aborted</span>
      {{end}}
    </div>

    {{if .Error}}
    <div class="section">
      <div class="section-title">Error</div>
      <div>{{.Error}}</div>
    </div>
    {{end}}

    {{if .Report.Stats.Days}}
    <div class="section">
      <div class="section-title">Dates</div>
      <table class="counts">
        {{range .Report.Stats.Days}}
        <tr><td>{{.Date}}</td><td class="count">{{.Announcements}}</td></tr>
        {{end}}
      </table>
    </div>
    {{end}}

    {{if .Types}}
    <div class="section">
      <div class="section-title">Announcement Types</div>
      <table class="counts">
        {{range .Types}}
        <tr><td>{{.Type}}</td><td class="count">{{.Count}}</td></tr>
        {{end}}
      </table>
    </div>
    {{end}}

    {{if .Digest}}
      {{if .Digest.Summary}}
      <div class="section">
        <div class="section-title">AI Digest</div>
        <ul class="summary-list">
          {{range .Digest.Summary}}
          <li>{{.}}</li>
          {{end}}
        </ul>
      </div>
      {{end}}

      {{if .Digest.Highlights}}
      <div class="section">
        <div class="section-title">Highlights</div>
        <ul class="highlight-list">
          {{range .Digest.Highlights}}
          <li>
            <span class="highlight-category">{{.Category}}</span>
            <span>{{.Details}}</span>
          </li>
          {{end}}
        </ul>
      </div>
      {{end}}
    {{end}}

    <div class="footer">
      Details fetched {{.Report.Stats.Fetched}}, reused {{.Report.Stats.Reused}}, missing {{.Report.Stats.Failed}}.
      Generated by regscraper.
    </div>
  </div>
</body>
</html>`
