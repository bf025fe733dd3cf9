// Package timeparsing resolves the due-window expressions accepted by
// --until flags. Parsing is layered: compact durations (+6h, -1d, +2w),
// natural language (tomorrow, next monday), then absolute timestamps
// (date-only, RFC3339).
package timeparsing

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// unitShift applies one duration unit to a base time. Calendar units go
// through AddDate, so month arithmetic follows Go's normalization:
// Jan 31 +1m lands in early March rather than clamping to Feb 28.
var unitShift = map[string]func(base time.Time, n int) time.Time{
	"h": func(base time.Time, n int) time.Time { return base.Add(time.Duration(n) * time.Hour) },
	"d": func(base time.Time, n int) time.Time { return base.AddDate(0, 0, n) },
	"w": func(base time.Time, n int) time.Time { return base.AddDate(0, 0, 7*n) },
	"m": func(base time.Time, n int) time.Time { return base.AddDate(0, n, 0) },
	"y": func(base time.Time, n int) time.Time { return base.AddDate(n, 0, 0) },
}

// compactRe matches [+-]?(\d+)([hdwmy]), like +6h, -1d, 2w.
var compactRe = regexp.MustCompile(`^([+-]?)(\d+)([hdwmy])$`)

// ParseCompactDuration applies a compact duration expression to now:
// +6h adds six hours and -1d subtracts a day; an unsigned amount like
// 2w counts forward. Units are h (hours), d (days), w (weeks),
// m (months), and y (years). Input that does not match the compact
// syntax is an error.
func ParseCompactDuration(s string, now time.Time) (time.Time, error) {
	m := compactRe.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, fmt.Errorf("not a compact duration: %q", s)
	}

	n, err := strconv.Atoi(m[2])
	if err != nil {
		// The regex guarantees digits; Atoi only fails on overflow.
		return time.Time{}, fmt.Errorf("invalid duration amount: %q", m[2])
	}
	if m[1] == "-" {
		n = -n
	}
	return unitShift[m[3]](now, n), nil
}

// IsCompactDuration reports whether s matches compact duration syntax.
func IsCompactDuration(s string) bool {
	return compactRe.MatchString(s)
}
