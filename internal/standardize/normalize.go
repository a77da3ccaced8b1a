package standardize

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

var (
	isoDateRe  = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	usSlashRe  = regexp.MustCompile(`^\d{2}/\d{2}/\d{4}$`)
	usDashRe   = regexp.MustCompile(`^\d{2}-\d{2}-\d{4}$`)
	hhmmRe     = regexp.MustCompile(`^\d{2}:\d{2}$`)
	hhmmssRe   = regexp.MustCompile(`^\d{2}:\d{2}:\d{2}$`)
	whitespace = regexp.MustCompile(`\s+`)
)

// Fallback layouts tried when a date matches none of the known shapes.
var fallbackDateLayouts = []string{
	"2006-1-2",
	"1/2/2006",
	"2006/01/02",
	"January 2, 2006",
	"2 Jan 2006",
	time.RFC3339,
}

// NormalizeDate converts a raw date string to YYYY-MM-DD. The second return
// value is false when the date cannot be interpreted; such records are
// dropped, not failed.
func NormalizeDate(raw string) (string, bool) {
	str := strings.TrimSpace(raw)
	if str == "" {
		return "", false
	}

	if isoDateRe.MatchString(str) {
		return str, true
	}
	if usSlashRe.MatchString(str) {
		parts := strings.Split(str, "/")
		return parts[2] + "-" + parts[0] + "-" + parts[1], true
	}
	if usDashRe.MatchString(str) {
		parts := strings.Split(str, "-")
		return parts[2] + "-" + parts[0] + "-" + parts[1], true
	}

	for _, layout := range fallbackDateLayouts {
		if parsed, err := time.Parse(layout, str); err == nil {
			return parsed.Format("2006-01-02"), true
		}
	}
	return "", false
}

// NormalizeTime converts a raw time string to HH:MM. HH:MM passes through and
// HH:MM:SS is truncated; anything else is unparseable and drops the record.
func NormalizeTime(raw string) (string, bool) {
	str := strings.TrimSpace(raw)
	if str == "" {
		return "", false
	}

	if hhmmRe.MatchString(str) {
		return str, true
	}
	if hhmmssRe.MatchString(str) {
		return str[:5], true
	}
	return "", false
}

// NormalizeLocation canonicalizes a location name: Unicode NFC, trimmed, with
// internal whitespace runs collapsed to a single space. Empty values become
// "Unknown" so files without site metadata still unify deterministically.
func NormalizeLocation(raw string) string {
	cleaned := whitespace.ReplaceAllString(strings.TrimSpace(norm.NFC.String(raw)), " ")
	if cleaned == "" {
		return "Unknown"
	}
	return cleaned
}

// MinutesOfDay converts an HH:MM string to minutes since midnight.
func MinutesOfDay(value string) (int, bool) {
	parts := strings.SplitN(value, ":", 2)
	if len(parts) != 2 {
		return 0, false
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, false
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, false
	}
	return hours*60 + minutes, true
}

// ParseNumber converts a raw field to a float pointer. Empty or non-numeric
// values become nil, never an error: merge must stay total on bad data.
func ParseNumber(raw string) *float64 {
	str := strings.TrimSpace(raw)
	if str == "" {
		return nil
	}
	value, err := strconv.ParseFloat(str, 64)
	if err != nil {
		return nil
	}
	return &value
}
