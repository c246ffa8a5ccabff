package mapper

import (
	"strings"
	"time"
)

var dateLayouts = []string{
	"02-Jan-2006",
	"2006-01-02",
	"02/01/2006",
	time.RFC3339,
}

// ParseDate reads the date formats Zoho and Graph emit. Empty input gives (nil, true);
// unparsable input gives (nil, false) so the caller can warn and keep the record.
func ParseDate(s string) (*time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, true
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
			return &d, true
		}
	}
	return nil, false
}

type warnings []string

func (w *warnings) date(field, value string) *time.Time {
	t, ok := ParseDate(value)
	if !ok {
		*w = append(*w, "unparsable "+field+" "+`"`+value+`"`)
	}
	return t
}
