package lifecycle

import (
	"strings"
	"time"
)

// UnknownTime is the display value for timestamps that are missing or unparsable.
const UnknownTime = "unknown time"

var zonedLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999Z0700",
	"2006-01-02T15:04Z07:00",
}

var localLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseTimestamp parses an ISO-8601 timestamp. Timestamps without a zone are
// read as UTC. It returns nil instead of an error for empty or malformed input.
func ParseTimestamp(s string) *time.Time {
	return ParseTimestampIn(s, time.UTC)
}

// ParseTimestampIn is ParseTimestamp with zoneless input read in loc.
func ParseTimestampIn(s string, loc *time.Location) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if loc == nil {
		loc = time.UTC
	}
	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return &t
		}
	}
	return nil
}

// FormatTimestamp renders t in loc, or UnknownTime when t is nil.
func FormatTimestamp(t *time.Time, loc *time.Location) string {
	if t == nil {
		return UnknownTime
	}
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format("2006-01-02 15:04")
}
