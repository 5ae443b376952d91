package types

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnnouncementJSONOmitsAbsentFields(t *testing.T) {
	special := Announcement{
		ID:           "7",
		Date:         "2026-10-14",
		Type:         "Sonderregisterbekanntmachung OHNE Bezug zum elektr. Register",
		State:        "Brandenburg",
		Amtsgericht:  "Amtsgericht Neuruppin",
		CompanyName:  "Hennigsdorfer Wohnungsbaugesellschaft mbH",
		OriginalText: "x",
		Register:     SpecialRegister{Referenz: "HRB 745 NP"},
	}

	data, err := json.Marshal(special)
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(data, &fields))
	assert.Equal(t, "HRB 745 NP", fields["sonderegister_referenz"])
	assert.NotContains(t, fields, "registernummer")
	assert.NotContains(t, fields, "company_seat")
	assert.NotContains(t, fields, "former_amtsgericht")
	assert.NotContains(t, fields, "details")

	var decoded Announcement
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, special, decoded)
}

func TestAnnouncementJSONStandard(t *testing.T) {
	std := Announcement{
		Date:         "2026-10-14",
		Type:         "Eintragung",
		CompanyName:  "Müller KG",
		OriginalText: "x",
		Details:      "Text",
		Register:     StandardRegister{Registerart: "HRA", Registernummer: "HRA 1", CompanySeat: "Köln"},
	}

	data, err := json.Marshal(std)
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(data, &fields))
	assert.NotContains(t, fields, "id")
	assert.NotContains(t, fields, "sonderegister_referenz")
	assert.Equal(t, "HRA 1", fields["registernummer"])
	assert.Equal(t, "Köln", fields["company_seat"])

	var decoded Announcement
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, std, decoded)
}

func TestNewDailyRecordEmpty(t *testing.T) {
	day := time.Date(2026, 10, 3, 0, 0, 0, 0, time.UTC)
	at := time.Date(2026, 10, 4, 6, 30, 1, 250_000_000, time.UTC)

	rec := NewDailyRecord(day, at, "0.4.0", nil)

	data, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"date": "2026-10-03",
		"date_of_scrape": "2026-10-04T06:30:01.250Z",
		"tool_version": "0.4.0",
		"number_of_announcements": 0,
		"announcements": []
	}`, string(data))
}
