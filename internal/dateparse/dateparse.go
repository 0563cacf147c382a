// Package dateparse converts the date strings Colombian news sites
// publish into calendar dates. Sites mix ISO timestamps, numeric
// day-first layouts, and Spanish natural-language forms, sometimes
// with time or author text glued on.
package dateparse

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Convention captures the quirks of one source's date strings.
type Convention struct {
	// TrimAfter drops everything from this separator on. El
	// Espectador appends the time after " - ".
	TrimAfter string

	// TrimBefore drops everything up to and including this
	// separator. El Nuevo Siglo prefixes the weekday before " , ".
	TrimBefore string

	// DayFirst selects DD.MM.YYYY over YYYY-MM-DD when a timestamp
	// is split into its date portion.
	DayFirst bool
}

var spanishMonths = map[string]time.Month{
	"enero":      time.January,
	"febrero":    time.February,
	"marzo":      time.March,
	"abril":      time.April,
	"mayo":       time.May,
	"junio":      time.June,
	"julio":      time.July,
	"agosto":     time.August,
	"septiembre": time.September,
	"octubre":    time.October,
	"noviembre":  time.November,
	"diciembre":  time.December,
}

var (
	// <day> de <month-name> [de|,] <year>. The connector before the
	// year varies by source and is optional.
	spanishRe = regexp.MustCompile(`(\d{1,2})\s+de\s+([a-záéíóúñ]+)(?:\s+de|,)?\s+(\d{4})`)

	// A time-like token following a space marks the start of a time
	// suffix ("15.03.2024 10:30").
	timeTokenRe = regexp.MustCompile(`\s\d{1,2}:\d{2}`)
)

// Parse converts a raw date string into a calendar date. It never
// fails loudly: unparseable input returns ok=false and the caller
// logs the offending raw string.
func Parse(raw string, conv Convention) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false
	}

	if conv.TrimAfter != "" {
		if i := strings.Index(s, conv.TrimAfter); i >= 0 {
			s = s[:i]
		}
	}
	if conv.TrimBefore != "" {
		if i := strings.Index(s, conv.TrimBefore); i >= 0 {
			s = s[i+len(conv.TrimBefore):]
		}
	}
	s = strings.TrimSpace(s)

	// Explicit date-time separator: split the time off and parse the
	// date portion alone.
	if i := strings.IndexByte(s, 'T'); i > 0 {
		if t, ok := parseNumeric(s[:i], conv.DayFirst); ok {
			return t, true
		}
	}
	if loc := timeTokenRe.FindStringIndex(s); loc != nil {
		if t, ok := parseNumeric(strings.TrimSpace(s[:loc[0]]), conv.DayFirst); ok {
			return t, true
		}
	}

	// Spanish natural-language form, matched anywhere in the string.
	if m := spanishRe.FindStringSubmatch(strings.ToLower(s)); m != nil {
		if month, ok := spanishMonths[m[2]]; ok {
			day, _ := strconv.Atoi(m[1])
			year, _ := strconv.Atoi(m[3])
			// Zero-pad the day and let time.Parse validate the
			// calendar (rejects e.g. 31 de febrero).
			formatted := fmt.Sprintf("%04d-%02d-%02d", year, int(month), day)
			if t, err := time.Parse("2006-01-02", formatted); err == nil {
				return t, true
			}
		}
	}

	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, true
	}
	if t, err := time.Parse("02/01/2006", s); err == nil {
		return t, true
	}

	return time.Time{}, false
}

// parseNumeric parses the date portion of a split timestamp, trying
// the source's preferred layout first.
func parseNumeric(s string, dayFirst bool) (time.Time, bool) {
	layouts := []string{"2006-01-02", "02.01.2006"}
	if dayFirst {
		layouts[0], layouts[1] = layouts[1], layouts[0]
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
