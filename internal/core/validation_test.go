package core

import (
	"reflect"
	"strings"
	"testing"

	"github.com/JonMunkholm/alumni/internal/validate"
)

func TestValidateRow(t *testing.T) {
	tests := []struct {
		name string
		data GraduateFields
		want []string
	}{
		{
			name: "valid full row",
			data: GraduateFields{
				FirstName:   "משה",
				LastName:    "כהן",
				TeudatZehut: "123456782",
				BirthDate:   "1990-01-15",
				Phone:       "050-1234567",
				HomePhone:   "02-6543210",
				Email:       "moshe@example.com",
			},
			want: nil,
		},
		{
			name: "single optional field is enough",
			data: GraduateFields{City: "חיפה"},
			want: nil,
		},
		{
			name: "empty row fails the structural check only",
			data: GraduateFields{},
			want: []string{MsgNoRecognizedFields},
		},
		{
			name: "every failure is reported",
			data: GraduateFields{
				FirstName:   "רחל",
				TeudatZehut: "123456789",
				Phone:       "501234567",
				Email:       "not-an-email",
				BirthDate:   "31/02/1990",
			},
			want: []string{
				"תעודת זהות: " + validate.MsgNationalIDInvalid,
				"טלפון: " + validate.MsgPhoneInvalid,
				"אימייל: " + validate.MsgEmailInvalid,
				"תאריך לידה: " + validate.MsgDateInvalid,
			},
		},
		{
			name: "home phone is checked separately",
			data: GraduateFields{FirstName: "a", HomePhone: "12"},
			want: []string{"טלפון בבית: " + validate.MsgPhoneInvalid},
		},
		{
			name: "national id format",
			data: GraduateFields{TeudatZehut: "12345678a"},
			want: []string{"תעודת זהות: " + validate.MsgNationalIDFormat},
		},
		{
			name: "shiur year too long",
			data: GraduateFields{ShiurYear: strings.Repeat("א", MaxShiurYearLength+1)},
			want: []string{"שנת שיעור: " + MsgTooLong},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ValidateRow(tt.data)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ValidateRow() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCheckRow_CarriesFieldAndValue(t *testing.T) {
	errs := CheckRow(GraduateFields{Email: "x@"})
	if len(errs) != 1 {
		t.Fatalf("errors = %d, want 1", len(errs))
	}
	if errs[0].Field != FieldEmail || errs[0].Value != "x@" {
		t.Errorf("FieldError = %+v", errs[0])
	}
}
