package sqlite

import (
	"fmt"
	"time"
)

// Column encodings. Each encode/decode pair is an exact inverse.

func encodeCompleted(completed bool) int {
	if completed {
		return 1
	}
	return 0
}

func decodeCompleted(v int) bool {
	return v != 0
}

// formatTimestamp writes an ISO-8601 UTC string with full precision.
func formatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// parseTimestamp accepts any RFC 3339 string, including the millisecond
// form produced by JavaScript's toISOString.
func parseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid createdAt %q: %w", s, err)
	}
	return t.UTC(), nil
}
