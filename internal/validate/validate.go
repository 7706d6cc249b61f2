// Package validate provides the pure field checks used by the graduate
// import pipeline and by the graduate forms.
//
// Every check is total: it never panics and never returns an error for
// ordinary bad input. Instead it reports (ok, message), where message is
// the user-facing text shown next to the offending row. Messages are in
// Hebrew, the single locale the registry is operated in.
package validate

import (
	"net/mail"
	"regexp"
	"strings"
)

// Messages returned by the checks. Exported so callers and tests can compare.
const (
	MsgNationalIDEmpty   = "תעודת זהות חסרה"
	MsgNationalIDFormat  = "תעודת זהות חייבת להכיל עד 9 ספרות"
	MsgNationalIDInvalid = "תעודת זהות לא תקינה"
	MsgPhoneInvalid      = "מספר טלפון לא תקין"
	MsgEmailInvalid      = "כתובת אימייל לא תקינה"
	MsgDateInvalid       = "תאריך לא תקין"
)

// NationalIDLength is the canonical length of a teudat zehut.
const NationalIDLength = 9

var phonePattern = regexp.MustCompile(`^0\d{8,9}$`)

// NationalID validates an Israeli national ID (teudat zehut).
//
// The input must be 1-9 digits. It is left-padded with zeros to 9 digits and
// checked with the weighted mod-10 checksum: digit i is multiplied by
// (i%2)+1, products above 9 are reduced by 9, and the sum must be divisible
// by 10.
func NationalID(s string) (bool, string) {
	if s == "" {
		return false, MsgNationalIDEmpty
	}
	if len(s) > NationalIDLength || !isDigits(s) {
		return false, MsgNationalIDFormat
	}

	padded := PadNationalID(s)
	sum := 0
	for i := 0; i < NationalIDLength; i++ {
		v := int(padded[i]-'0') * (i%2 + 1)
		if v > 9 {
			v -= 9
		}
		sum += v
	}
	if sum%10 != 0 {
		return false, MsgNationalIDInvalid
	}
	return true, ""
}

// PadNationalID left-pads an all-digit ID shorter than 9 characters with
// zeros. Anything else is returned unchanged.
func PadNationalID(s string) string {
	if len(s) >= NationalIDLength || !isDigits(s) {
		return s
	}
	return strings.Repeat("0", NationalIDLength-len(s)) + s
}

// Phone validates a phone number after stripping every non-digit.
// An empty value means "not supplied" and passes.
func Phone(s string) (bool, string) {
	if s == "" {
		return true, ""
	}
	if !phonePattern.MatchString(PhoneDigits(s)) {
		return false, MsgPhoneInvalid
	}
	return true, ""
}

// PhoneDigits returns s with every non-digit removed.
func PhoneDigits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

// Email validates a single bare address. Empty passes.
func Email(s string) (bool, string) {
	if s == "" {
		return true, ""
	}
	addr, err := mail.ParseAddress(s)
	// ParseAddress accepts "Name <a@b>" forms; only the bare address is allowed.
	if err != nil || addr.Address != s || !strings.Contains(domainOf(s), ".") {
		return false, MsgEmailInvalid
	}
	return true, ""
}

func domainOf(addr string) string {
	at := strings.LastIndexByte(addr, '@')
	if at < 0 {
		return ""
	}
	return addr[at+1:]
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
