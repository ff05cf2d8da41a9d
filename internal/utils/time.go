package utils

import (
	"fmt"
	"strings"
	"time"
)

// Layouts accepted for inbound event dates. Browsers submit
// datetime-local values without seconds, API clients usually send RFC3339.
var eventDateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// ParseEventDate parses an ISO-8601-like timestamp string.
func ParseEventDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range eventDateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", value)
}

// SplitTechnologies turns a comma-separated form field into a clean slice.
func SplitTechnologies(raw string) []string {
	parts := strings.Split(raw, ",")
	techs := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			techs = append(techs, p)
		}
	}
	return techs
}
