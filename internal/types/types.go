package types

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"
)

// DateLayout is the ISO layout used for dates in records and file names.
const DateLayout = "2006-01-02"

// ScrapeTimeLayout is the layout of DailyRecord.DateOfScrape.
const ScrapeTimeLayout = "2006-01-02T15:04:05.000Z"

// Register is the register-specific part of an announcement. It is implemented
// by StandardRegister and SpecialRegister only.
type Register interface {
	isRegister()
}

// StandardRegister carries the fields of an announcement that references an
// entry in one of the regular registers (HRA, HRB, GnR, GsR, PR, VR).
type StandardRegister struct {
	Registerart       string
	Registernummer    string
	FormerAmtsgericht string
	CompanySeat       string
}

// SpecialRegister carries the free-text file reference of a
// Sonderregisterbekanntmachung.
type SpecialRegister struct {
	Referenz string
}

func (StandardRegister) isRegister() {}
func (SpecialRegister) isRegister()  {}

// Announcement is one register-office notice.
type Announcement struct {
	ID           string
	Date         string
	Type         string
	State        string
	Amtsgericht  string
	CompanyName  string
	OriginalText string
	Details      string
	Register     Register
}

// Registernummer returns the combined register code and number, or "" for
// special-register announcements and lenient parse gaps.
func (a Announcement) Registernummer() string {
	if std, ok := a.Register.(StandardRegister); ok {
		return std.Registernummer
	}
	return ""
}

// IsSpecial reports whether the announcement is a special-register variant.
func (a Announcement) IsSpecial() bool {
	_, ok := a.Register.(SpecialRegister)
	return ok
}

type announcementJSON struct {
	ID                    string `json:"id,omitempty"`
	Date                  string `json:"date"`
	Type                  string `json:"type"`
	State                 string `json:"state,omitempty"`
	Amtsgericht           string `json:"amtsgericht,omitempty"`
	Registerart           string `json:"registerart,omitempty"`
	Registernummer        string `json:"registernummer,omitempty"`
	FormerAmtsgericht     string `json:"former_amtsgericht,omitempty"`
	SonderegisterReferenz string `json:"sonderegister_referenz,omitempty"`
	CompanyName           string `json:"company_name"`
	CompanySeat           string `json:"company_seat,omitempty"`
	OriginalText          string `json:"original_text"`
	Details               string `json:"details,omitempty"`
}

func (a Announcement) MarshalJSON() ([]byte, error) {
	out := announcementJSON{
		ID:           a.ID,
		Date:         a.Date,
		Type:         a.Type,
		State:        a.State,
		Amtsgericht:  a.Amtsgericht,
		CompanyName:  a.CompanyName,
		OriginalText: a.OriginalText,
		Details:      a.Details,
	}

	switch r := a.Register.(type) {
	case StandardRegister:
		out.Registerart = r.Registerart
		out.Registernummer = r.Registernummer
		out.FormerAmtsgericht = r.FormerAmtsgericht
		out.CompanySeat = r.CompanySeat
	case SpecialRegister:
		out.SonderegisterReferenz = r.Referenz
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(out); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func (a *Announcement) UnmarshalJSON(data []byte) error {
	var in announcementJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}

	*a = Announcement{
		ID:           in.ID,
		Date:         in.Date,
		Type:         in.Type,
		State:        in.State,
		Amtsgericht:  in.Amtsgericht,
		CompanyName:  in.CompanyName,
		OriginalText: in.OriginalText,
		Details:      in.Details,
	}

	if in.SonderegisterReferenz != "" {
		a.Register = SpecialRegister{Referenz: in.SonderegisterReferenz}
	} else {
		a.Register = StandardRegister{
			Registerart:       in.Registerart,
			Registernummer:    in.Registernummer,
			FormerAmtsgericht: in.FormerAmtsgericht,
			CompanySeat:       in.CompanySeat,
		}
	}

	return nil
}

// DailyRecord is the persisted snapshot of all announcements of one date.
type DailyRecord struct {
	Date                  string         `json:"date"`
	DateOfScrape          string         `json:"date_of_scrape"`
	ToolVersion           string         `json:"tool_version"`
	NumberOfAnnouncements int            `json:"number_of_announcements"`
	Announcements         []Announcement `json:"announcements"`
}

// NewDailyRecord builds a record for day, stamped with the scrape time.
// A nil slice is stored as an empty list so the JSON never contains null.
func NewDailyRecord(day time.Time, scrapedAt time.Time, toolVersion string, anns []Announcement) *DailyRecord {
	if anns == nil {
		anns = []Announcement{}
	}
	return &DailyRecord{
		Date:                  day.Format(DateLayout),
		DateOfScrape:          scrapedAt.UTC().Format(ScrapeTimeLayout),
		ToolVersion:           toolVersion,
		NumberOfAnnouncements: len(anns),
		Announcements:         anns,
	}
}

// RawEntry is one announcement as delivered by the navigation layer: the
// trimmed label lines and the onclick attribute of its link.
type RawEntry struct {
	Lines       []string
	Interaction string
}

// DayResult groups the raw entries the portal listed for one date.
type DayResult struct {
	Date    time.Time
	Entries []RawEntry
}

// Session is the server-side form state required to replay detail requests.
type Session struct {
	ViewState string
	Cookies   []*http.Cookie
}

// SearchResult is what one date-range search on the portal yields.
type SearchResult struct {
	Days    []DayResult
	Session Session
}
