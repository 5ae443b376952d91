package dates

import (
	"fmt"
	"strings"
	"time"
)

const (
	layoutGerman = "02.01.2006"
	layoutISO    = "2006-01-02"
)

// ParseDate accepts the portal's German format (DD.MM.YYYY) and ISO dates.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{layoutGerman, layoutISO} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, &ConfigurationError{Msg: fmt.Sprintf("unparsable date %q, expected DD.MM.YYYY or YYYY-MM-DD", s)}
}

// FormatGerman renders day the way the portal's date inputs expect it.
func FormatGerman(day time.Time) string {
	return day.Format(layoutGerman)
}
