package ai

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shanehull/regscraper/internal/types"
)

// maxListed caps the announcements quoted in a prompt.
const maxListed = 400

const systemInstruction = `
# [INSTRUCTION]

You are an analyst of the German commercial register (Handelsregister). You receive the
register announcements (Registerbekanntmachungen) published by the local courts for one or
more days. Each line names the announcement type, the company, its seat, the court and the
register number.

Write a short digest in English for a reader who follows company formations, insolvencies
and restructurings. Base every statement on the listed announcements only. Name the
companies you refer to. Do not speculate about reasons that are not in the data.

---

# [CATEGORIES]

- **Formations:** noteworthy new entries (Neueintragungen), e.g. holding structures or many
  entries from one seat.
- **Dissolutions & Deletions:** Löschungen, Löschungsankündigungen, Auflösungen.
- **Restructurings:** mergers, spin-offs and changes of legal form (Umwandlungen,
  Verschmelzungen, Spaltungen).
- **Special Register:** Sonderregisterbekanntmachungen, e.g. insolvency-related notices.
- **Patterns:** clusters by court, seat or company name.
`

// buildPrompt lists the type breakdown followed by at most limit announcements.
func buildPrompt(anns []types.Announcement, limit int) string {
	counts := make(map[string]int)
	for _, a := range anns {
		counts[a.Type]++
	}
	typeNames := make([]string, 0, len(counts))
	for t := range counts {
		typeNames = append(typeNames, t)
	}
	sort.Strings(typeNames)

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Summarise the following %d register announcements.\n\n", len(anns)))

	sb.WriteString("## Types\n")
	for _, t := range typeNames {
		sb.WriteString(fmt.Sprintf("- %s: %d\n", t, counts[t]))
	}

	sb.WriteString("\n## Announcements\n")
	for i, a := range anns {
		if i == limit {
			sb.WriteString(fmt.Sprintf("... and %d more\n", len(anns)-limit))
			break
		}
		sb.WriteString(formatLine(a))
		sb.WriteByte('\n')
	}

	return sb.String()
}

func formatLine(a types.Announcement) string {
	parts := []string{a.Date, a.Type, a.CompanyName}
	switch r := a.Register.(type) {
	case types.StandardRegister:
		if r.CompanySeat != "" {
			parts = append(parts, r.CompanySeat)
		}
		if r.Registernummer != "" {
			parts = append(parts, r.Registernummer)
		}
	case types.SpecialRegister:
		parts = append(parts, r.Referenz)
	}
	if a.Amtsgericht != "" {
		parts = append(parts, a.Amtsgericht)
	}
	return "- " + strings.Join(parts, " | ")
}
