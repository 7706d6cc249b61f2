package core

// normalize.go maps raw spreadsheet records onto GraduateFields.
//
// Headers are matched against a fixed alias table after folding: Unicode
// NFKC, lowercase, Hebrew gershayim replaced by ASCII quotes, separators
// collapsed. Both Hebrew titles (as in the sample files) and the canonical
// English names are recognized.

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/JonMunkholm/alumni/internal/validate"
)

// headerAliases lists the accepted column titles per canonical field.
var headerAliases = map[string][]string{
	FieldFirstName:   {"first_name", "first name", "firstname", "given name", "שם פרטי", "שם"},
	FieldLastName:    {"last_name", "last name", "lastname", "surname", "family name", "שם משפחה"},
	FieldTeudatZehut: {"teudat_zehut", "teudat zehut", "national id", "id number", "tz", `ת"ז`, "ת.ז", "ת.ז.", "תז", "תעודת זהות", "מספר זהות"},
	FieldBirthDate:   {"birth_date", "birth date", "birthdate", "date of birth", "dob", "תאריך לידה"},
	FieldPhone:       {"phone", "mobile", "cell", "cellphone", "טלפון", "טלפון נייד", "נייד", "פלאפון", "פלאפון נייד"},
	FieldHomePhone:   {"home_phone", "home phone", "telephone home", "טלפון בבית", "טלפון בית"},
	FieldEmail:       {"email", "e-mail", "mail", "אימייל", "מייל", `דוא"ל`, "דואר אלקטרוני"},
	FieldCity:        {"city", "town", "עיר", "ישוב", "יישוב", "עיר מגורים"},
	FieldAddress:     {"address", "street", "כתובת", "רחוב"},
	FieldShiurYear:   {"shiur_year", "shiur year", "shiur", "cohort", "שנת שיעור", "שיעור", "מחזור"},
	FieldNotes:       {"notes", "note", "comments", "remarks", "הערות", "הערה"},
	FieldStudentCode: {"student_code", "student code", "קוד תלמיד", "קוד"},
}

// headerTable is headerAliases inverted and folded.
var headerTable = buildHeaderTable()

func buildHeaderTable() map[string]string {
	t := make(map[string]string)
	for field, aliases := range headerAliases {
		for _, a := range aliases {
			t[foldHeader(a)] = field
		}
	}
	return t
}

// foldHeader produces the lookup key for a header cell.
func foldHeader(s string) string {
	s = norm.NFKC.String(CleanCell(strings.TrimPrefix(s, "\ufeff")))
	s = gershayim.Replace(strings.ToLower(s))
	s = strings.ReplaceAll(s, "_", " ")
	return strings.Join(strings.FieldsFunc(s, unicode.IsSpace), " ")
}

var gershayim = strings.NewReplacer("\u05f4", `"`, "\u05f3", "'")

// LookupHeader returns the canonical field for a header cell.
func LookupHeader(header string) (string, bool) {
	field, ok := headerTable[foldHeader(header)]
	return field, ok
}

// Normalizer converts raw records of one file into ImportRows.
type Normalizer struct {
	columns []string // canonical field per column index; "" when unmapped
}

// NewNormalizer builds a normalizer for the given header row and reports
// which columns were recognized. When two columns map to the same field,
// the first one wins and the later one is reported as unmapped.
func NewNormalizer(header []string) (*Normalizer, FieldMapping) {
	n := &Normalizer{columns: make([]string, len(header))}
	mapping := make(FieldMapping, len(header))
	seen := make(map[string]bool)

	for i, h := range header {
		field, ok := LookupHeader(h)
		if !ok || seen[field] {
			mapping[i] = nil
			continue
		}
		seen[field] = true
		n.columns[i] = field
		f := field
		mapping[i] = &f
	}
	return n, mapping
}

// Recognized returns the number of mapped columns.
func (n *Normalizer) Recognized() int {
	count := 0
	for _, c := range n.columns {
		if c != "" {
			count++
		}
	}
	return count
}

// Normalize builds the ImportRow for one record. Cells beyond the header and
// cells in unmapped columns are dropped.
func (n *Normalizer) Normalize(row int, record Record) ImportRow {
	var data GraduateFields
	for i, cell := range record.Cells {
		if i >= len(n.columns) || n.columns[i] == "" {
			continue
		}
		value := CleanCell(cell)
		if record.IsNumeric(i) {
			value = restoreNumericCell(n.columns[i], value)
		}
		data.Set(n.columns[i], value)
	}
	return ImportRow{Row: row, Data: NormalizeFields(data)}
}

// restoreNumericCell puts back the leading zero a spreadsheet drops when a
// phone number is typed into a number cell: 501234567 was 0501234567.
// Only 8 and 9 digit values are touched, the lengths of a landline and a
// mobile number without their trunk prefix.
func restoreNumericCell(field, value string) string {
	if field != FieldPhone && field != FieldHomePhone {
		return value
	}
	if n := len(value); (n == 8 || n == 9) && value[0] != '0' && isDigits(value) {
		return "0" + value
	}
	return value
}

// NormalizeFields trims every field and applies the per-field coercions:
// national IDs are zero-padded, birth dates rewritten as YYYY-MM-DD and
// emails lowercased. It is idempotent, so the confirm step can re-apply it
// to rows that already went through a preview.
func NormalizeFields(data GraduateFields) GraduateFields {
	for _, f := range Fields {
		data.Set(f, CleanCell(data.Get(f)))
	}
	data.TeudatZehut = validate.PadNationalID(data.TeudatZehut)
	data.BirthDate = validate.NormalizeDate(data.BirthDate)
	data.Email = strings.ToLower(data.Email)
	return data
}
