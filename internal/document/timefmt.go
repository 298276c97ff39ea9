package document

import (
	"strings"
	"time"
)

// istZone is the fixed invoice display zone. Outlets all operate in one
// timezone, so DST handling is not a concern.
var istZone = time.FixedZone("IST", 5*3600+30*60)

const istDisplayLayout = "02/01/2006, 15:04"

// FormatIST renders a timestamp in the invoice display format. Zero times
// render as an empty string so absent columns never print the epoch.
func FormatIST(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.In(istZone).Format(istDisplayLayout)
}

// ParseFlexible parses the timestamp shapes found in historical rows. Strings
// without a zone are treated as UTC, matching how the legacy writer stored
// them.
func ParseFlexible(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{
		time.RFC3339Nano,
		time.RFC3339,
	} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	for _, layout := range []string{
		"2006-01-02T15:04:05.999999999",
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		"2006-01-02",
	} {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
