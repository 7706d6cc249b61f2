package core

// validation.go applies the field validators to a normalized row.
//
// A row is checked completely: every failing field contributes one message,
// so the preview can show all problems of a row at once. Messages are
// prefixed with the Hebrew column title.

import (
	"fmt"
	"unicode/utf8"

	"github.com/JonMunkholm/alumni/internal/validate"
)

// MaxShiurYearLength bounds the free-text cohort label.
const MaxShiurYearLength = 20

// Row-level messages that do not come from the validate package.
const (
	MsgNoRecognizedFields = "השורה אינה מכילה אף שדה מוכר"
	MsgTooLong            = "ערך ארוך מדי"
)

// FieldError is a single failed check.
type FieldError struct {
	Field   string // canonical name, "" for row-level problems
	Value   string
	Message string
}

func (e FieldError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	label, ok := FieldLabels[e.Field]
	if !ok {
		label = e.Field
	}
	return fmt.Sprintf("%s: %s", label, e.Message)
}

type fieldCheck struct {
	field string
	check func(string) (bool, string)
	// optional checks only run on non-empty values
	optional bool
}

var fieldChecks = []fieldCheck{
	{field: FieldTeudatZehut, check: validate.NationalID, optional: true},
	{field: FieldPhone, check: validate.Phone},
	{field: FieldHomePhone, check: validate.Phone},
	{field: FieldEmail, check: validate.Email},
	{field: FieldBirthDate, check: validate.Date},
	{field: FieldShiurYear, check: maxLength(MaxShiurYearLength)},
}

func maxLength(n int) func(string) (bool, string) {
	return func(s string) (bool, string) {
		if utf8.RuneCountInString(s) > n {
			return false, MsgTooLong
		}
		return true, ""
	}
}

// CheckRow returns every failed check for data. A row with no field at all
// fails the structural check and nothing else is reported.
func CheckRow(data GraduateFields) []FieldError {
	if data.IsEmpty() {
		return []FieldError{{Message: MsgNoRecognizedFields}}
	}

	var errs []FieldError
	for _, fc := range fieldChecks {
		v := data.Get(fc.field)
		if fc.optional && v == "" {
			continue
		}
		if ok, msg := fc.check(v); !ok {
			errs = append(errs, FieldError{Field: fc.field, Value: v, Message: msg})
		}
	}
	return errs
}

// ValidateRow is CheckRow rendered as display strings. An empty result
// means the row is valid.
func ValidateRow(data GraduateFields) []string {
	errs := CheckRow(data)
	if len(errs) == 0 {
		return nil
	}
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = e.Error()
	}
	return out
}
