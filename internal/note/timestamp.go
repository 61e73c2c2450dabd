package note

import (
	"strings"
	"time"
)

// enexTimeLayout is the compact UTC format used by ENEX timestamps.
const enexTimeLayout = "20060102T150405Z"

// ParseTimestamp parses an ENEX timestamp into Unix seconds.
// Returns nil for empty or malformed input; a bad timestamp is a data-quality
// issue, never an error.
func ParseTimestamp(raw string) *int64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	t, err := time.ParseInLocation(enexTimeLayout, raw, time.UTC)
	if err != nil {
		return nil
	}
	secs := t.Unix()
	return &secs
}
