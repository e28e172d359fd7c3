package loader

import (
	"strconv"
	"strings"
	"time"
)

// dateLayouts covers the mixed timestamp formats seen across the civic
// open-data exports.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05-07:00",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
	"01/02/2006 03:04:05 PM",
	"01/02/2006 15:04",
	"01/02/2006",
}

// parseTime tries each known layout and reports whether any matched. All
// results are normalized to UTC.
func parseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// parseFloat parses a float, reporting failure instead of defaulting so
// callers can drop rows with unusable coordinates.
func parseFloat(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// parseIntOr parses an integer, returning def when the field is empty or
// malformed.
func parseIntOr(s string, def int) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}

// parseBool recognizes the boolean spellings used by the source exports.
func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "t", "yes", "y", "1":
		return true
	default:
		return false
	}
}

// hourFromStart extracts the hour from a HHMM-style start-time field,
// tolerating short values by zero-padding on the left ("930" means 09:30).
func hourFromStart(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	for len(s) < 4 {
		s = "0" + s
	}
	h, err := strconv.Atoi(s[:2])
	if err != nil || h < 0 || h > 23 {
		return 0
	}
	return h
}

// mapColumns builds a case-insensitive column name to index map.
func mapColumns(header []string) map[string]int {
	m := make(map[string]int, len(header))
	for i, col := range header {
		m[strings.ToLower(strings.TrimSpace(col))] = i
	}
	return m
}

// getCol gets a column value by name from a CSV record, returning empty
// string if not found.
func getCol(record []string, colIdx map[string]int, name string) string {
	idx, ok := colIdx[strings.ToLower(name)]
	if !ok || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

// firstCol returns the value of the first present column among names.
// Source schemas drift (LONG vs LON, zip vs complaint_zip), so loaders list
// the spellings they accept.
func firstCol(record []string, colIdx map[string]int, names ...string) string {
	for _, name := range names {
		if v := getCol(record, colIdx, name); v != "" {
			return v
		}
	}
	return ""
}

// hasAnyColumn reports whether at least one of the names exists in the
// header map.
func hasAnyColumn(colIdx map[string]int, names ...string) bool {
	for _, name := range names {
		if _, ok := colIdx[strings.ToLower(name)]; ok {
			return true
		}
	}
	return false
}
