package validate

// date.go parses the date formats that show up in registry spreadsheets:
//   - Israeli day-first dates (15/01/1990, 15.1.90)
//   - ISO dates (1990-01-15), which is also how workbook date cells arrive
//
// Day-first layouts are tried before ISO so 03/04/1990 is the 3rd of April.
// A bare number is never a date here: "1990" is a year, not a serial.

import (
	"strings"
	"time"
)

// ISODate is the layout birth dates are stored in.
const ISODate = "2006-01-02"

// TwoDigitYearPivot defines how 2-digit years are interpreted.
// Years that would land more than this many years in the future are moved
// back a century, so "85" becomes 1985.
var TwoDigitYearPivot = 0

var (
	twoDigitYearLayouts = []string{
		"2/1/06", "02/01/06", "2.1.06", "02.01.06", "2-1-06", "02-01-06",
	}
	fourDigitYearLayouts = []string{
		"2/1/2006", "02/01/2006", "2.1.2006", "02.01.2006", "2-1-2006", "02-01-2006",
		"2006-01-02", "2006/01/02", "2006.01.02",
		"2006-01-02T15:04:05Z07:00", "2006-01-02 15:04:05",
		"2 Jan 2006", "Jan 2, 2006",
		"20060102",
	}
)

// ParseDate parses s using the registry's accepted layouts.
// The second return value is false when s is empty or unparseable.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	for _, layout := range fourDigitYearLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}

	pivotYear := time.Now().Year() + TwoDigitYearPivot
	for _, layout := range twoDigitYearLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			if t.Year() > pivotYear {
				t = t.AddDate(-100, 0, 0)
			}
			return t, true
		}
	}

	return time.Time{}, false
}

// Date validates a birth date. Empty passes; dates in the future fail.
func Date(s string) (bool, string) {
	if s == "" {
		return true, ""
	}
	t, ok := ParseDate(s)
	if !ok || t.After(time.Now()) {
		return false, MsgDateInvalid
	}
	return true, ""
}

// NormalizeDate rewrites a parseable date as YYYY-MM-DD. Unparseable input
// is returned unchanged so the validator can still report it.
func NormalizeDate(s string) string {
	t, ok := ParseDate(s)
	if !ok {
		return s
	}
	return t.Format(ISODate)
}
