/*
Package parser turns the label lines of a register announcement into a
structured types.Announcement.
*/
package parser

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shanehull/regscraper/internal/types"
)

const (
	deletionMarker       = "– gelöscht –"
	specialRegisterType  = "Sonderregisterbekanntmachung"
	amtsgerichtPrefix    = "Amtsgericht "
	companySeatSeparator = "–"
)

var (
	interactionPattern = regexp.MustCompile(`fireBekanntmachung\d*\('([^']+)',\s*'(\d+)'\)`)

	specialCourtPattern = regexp.MustCompile(`^(?P<state>.*?)\s+Amtsgericht\s+(?P<court>.*?)$`)

	standardCourtPattern = regexp.MustCompile(`^(?P<state>.*?)\s+Amtsgericht\s+(?P<court>.*?)\s+(?P<registerart>HRA|HRB|GnR|GsR|PR|VR)\s+(?P<number>\d+(?:\s+\w+)?)(?:\s+früher Amtsgericht\s+(?P<former>.*))?$`)
)

// MalformedAnnouncementError reports an announcement whose structure cannot be
// classified. It is fatal for a run: the source format changed and needs triage.
type MalformedAnnouncementError struct {
	Line   string
	Lines  []string
	Reason string
}

func (e *MalformedAnnouncementError) Error() string {
	return fmt.Sprintf("malformed announcement: %s: line %q in %q", e.Reason, e.Line, e.Lines)
}

// Interaction is the pair of arguments embedded in an announcement's onclick
// handler. DateToken is passed back verbatim to the detail request.
type Interaction struct {
	DateToken string
	ID        string
}

// ParseInteraction extracts the date token and numeric id from an onclick
// attribute such as "fireBekanntmachung2('15.10.2026', '2751431')".
func ParseInteraction(token string) (Interaction, bool) {
	m := interactionPattern.FindStringSubmatch(token)
	if m == nil {
		return Interaction{}, false
	}
	return Interaction{DateToken: m[1], ID: m[2]}, true
}

// Parse builds an announcement from the trimmed label lines and the onclick
// token of its link. An unparsable token only leaves the id empty.
//
// Special-register announcements whose court line cannot be read fail with a
// *MalformedAnnouncementError. A standard court line that does not match is
// tolerated: state, court and register fields stay empty and the text survives
// in OriginalText.
func Parse(lines []string, interaction string) (types.Announcement, error) {
	var ann types.Announcement

	if in, ok := ParseInteraction(interaction); ok {
		ann.ID = in.ID
	}

	if len(lines) > 0 && lines[0] == deletionMarker {
		lines = lines[1:]
	}
	if len(lines) == 0 {
		return types.Announcement{}, &MalformedAnnouncementError{Reason: "no lines", Lines: lines}
	}

	ann.Type = lines[0]
	ann.OriginalText = strings.Join(lines, "\n")

	if strings.HasPrefix(ann.Type, specialRegisterType) {
		return parseSpecial(ann, lines)
	}
	return parseStandard(ann, lines)
}

func parseSpecial(ann types.Announcement, lines []string) (types.Announcement, error) {
	if len(lines) < 4 {
		return types.Announcement{}, &MalformedAnnouncementError{
			Reason: "special register announcement needs four lines",
			Line:   lastLine(lines),
			Lines:  lines,
		}
	}

	m := specialCourtPattern.FindStringSubmatch(lines[1])
	if m == nil {
		return types.Announcement{}, &MalformedAnnouncementError{
			Reason: "failed to parse the court line",
			Line:   lines[1],
			Lines:  lines,
		}
	}

	ann.State = m[specialCourtPattern.SubexpIndex("state")]
	ann.Amtsgericht = amtsgerichtPrefix + m[specialCourtPattern.SubexpIndex("court")]
	ann.Register = types.SpecialRegister{Referenz: lines[2]}
	ann.CompanyName = lines[3]

	return ann, nil
}

func parseStandard(ann types.Announcement, lines []string) (types.Announcement, error) {
	if len(lines) < 3 {
		return types.Announcement{}, &MalformedAnnouncementError{
			Reason: "announcement needs three lines",
			Line:   lastLine(lines),
			Lines:  lines,
		}
	}

	var reg types.StandardRegister

	if m := standardCourtPattern.FindStringSubmatch(lines[1]); m != nil {
		group := func(name string) string { return m[standardCourtPattern.SubexpIndex(name)] }

		ann.State = group("state")
		ann.Amtsgericht = amtsgerichtPrefix + group("court")
		reg.Registerart = group("registerart")
		reg.Registernummer = reg.Registerart + " " + group("number")

		if former := strings.TrimSpace(group("former")); former != "" {
			reg.FormerAmtsgericht = former
		}
	}

	parts := strings.Split(lines[2], companySeatSeparator)
	ann.CompanyName = strings.TrimSpace(parts[0])
	if len(parts) > 1 {
		reg.CompanySeat = strings.TrimSpace(parts[1])
	}

	if ann.CompanyName == "" {
		return types.Announcement{}, &MalformedAnnouncementError{
			Reason: "missing company name",
			Line:   lines[2],
			Lines:  lines,
		}
	}

	ann.Register = reg
	return ann, nil
}

func lastLine(lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	return lines[len(lines)-1]
}
