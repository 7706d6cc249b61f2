package core

import (
	"context"

	db "github.com/JonMunkholm/alumni/internal/database"
)

// GraduateStore is the persistence surface the import pipeline needs.
// Satisfied by database.PostgresStore and database.SQLiteStore.
type GraduateStore interface {
	ListActiveGraduates(ctx context.Context) ([]db.Graduate, error)
	InsertGraduate(ctx context.Context, arg db.InsertGraduateParams) (db.Graduate, error)
}

// AuditSink receives one entry per confirmed import. Stores that also
// implement it are used automatically.
type AuditSink interface {
	InsertImportAudit(ctx context.Context, arg db.ImportAudit) error
}

// Canonical field names. These are the JSON keys of GraduateFields and the
// values reported in FieldMapping and DuplicateMatch.MatchFields.
const (
	FieldFirstName   = "first_name"
	FieldLastName    = "last_name"
	FieldTeudatZehut = "teudat_zehut"
	FieldBirthDate   = "birth_date"
	FieldPhone       = "phone"
	FieldHomePhone   = "home_phone"
	FieldEmail       = "email"
	FieldCity        = "city"
	FieldAddress     = "address"
	FieldShiurYear   = "shiur_year"
	FieldNotes       = "notes"
	FieldStudentCode = "student_code"
)

// Fields lists the importable fields in display order.
var Fields = []string{
	FieldFirstName, FieldLastName, FieldTeudatZehut, FieldBirthDate,
	FieldPhone, FieldHomePhone, FieldEmail, FieldCity, FieldAddress,
	FieldShiurYear, FieldNotes, FieldStudentCode,
}

// FieldLabels are the Hebrew column titles, used in row messages and as the
// sample file headers.
var FieldLabels = map[string]string{
	FieldFirstName:   "שם פרטי",
	FieldLastName:    "שם משפחה",
	FieldTeudatZehut: "תעודת זהות",
	FieldBirthDate:   "תאריך לידה",
	FieldPhone:       "טלפון",
	FieldHomePhone:   "טלפון בבית",
	FieldEmail:       "אימייל",
	FieldCity:        "עיר",
	FieldAddress:     "כתובת",
	FieldShiurYear:   "שנת שיעור",
	FieldNotes:       "הערות",
	FieldStudentCode: "קוד תלמיד",
}

// GraduateFields is a partial graduate: the importable columns of one row.
// The id and deletedAt of a persisted record are never part of an import.
type GraduateFields struct {
	FirstName   string `json:"first_name,omitempty"`
	LastName    string `json:"last_name,omitempty"`
	TeudatZehut string `json:"teudat_zehut,omitempty"`
	BirthDate   string `json:"birth_date,omitempty"`
	Phone       string `json:"phone,omitempty"`
	HomePhone   string `json:"home_phone,omitempty"`
	Email       string `json:"email,omitempty"`
	City        string `json:"city,omitempty"`
	Address     string `json:"address,omitempty"`
	ShiurYear   string `json:"shiur_year,omitempty"`
	Notes       string `json:"notes,omitempty"`
	StudentCode string `json:"student_code,omitempty"`
}

// Get returns the value of a canonical field, or "" for unknown names.
func (g GraduateFields) Get(field string) string {
	if p := g.ptr(field); p != nil {
		return *p
	}
	return ""
}

// Set assigns a canonical field. Unknown names are ignored.
func (g *GraduateFields) Set(field, value string) {
	if p := g.ptr(field); p != nil {
		*p = value
	}
}

func (g *GraduateFields) ptr(field string) *string {
	switch field {
	case FieldFirstName:
		return &g.FirstName
	case FieldLastName:
		return &g.LastName
	case FieldTeudatZehut:
		return &g.TeudatZehut
	case FieldBirthDate:
		return &g.BirthDate
	case FieldPhone:
		return &g.Phone
	case FieldHomePhone:
		return &g.HomePhone
	case FieldEmail:
		return &g.Email
	case FieldCity:
		return &g.City
	case FieldAddress:
		return &g.Address
	case FieldShiurYear:
		return &g.ShiurYear
	case FieldNotes:
		return &g.Notes
	case FieldStudentCode:
		return &g.StudentCode
	}
	return nil
}

// IsEmpty reports whether no field has a value.
func (g GraduateFields) IsEmpty() bool {
	return g == GraduateFields{}
}

// InsertParams converts the row to database insert parameters.
func (g GraduateFields) InsertParams() db.InsertGraduateParams {
	return db.InsertGraduateParams{
		FirstName:   g.FirstName,
		LastName:    g.LastName,
		TeudatZehut: g.TeudatZehut,
		BirthDate:   g.BirthDate,
		Phone:       g.Phone,
		HomePhone:   g.HomePhone,
		Email:       g.Email,
		City:        g.City,
		Address:     g.Address,
		ShiurYear:   g.ShiurYear,
		Notes:       g.Notes,
		StudentCode: g.StudentCode,
	}
}

// FieldsOf projects a persisted graduate onto its importable fields.
func FieldsOf(g db.Graduate) GraduateFields {
	return GraduateFields{
		FirstName:   g.FirstName,
		LastName:    g.LastName,
		TeudatZehut: g.TeudatZehut,
		BirthDate:   g.BirthDate,
		Phone:       g.Phone,
		HomePhone:   g.HomePhone,
		Email:       g.Email,
		City:        g.City,
		Address:     g.Address,
		ShiurYear:   g.ShiurYear,
		Notes:       g.Notes,
		StudentCode: g.StudentCode,
	}
}

// ImportRow is one normalized data line. Row is 1-based and counts from the
// line after the header.
type ImportRow struct {
	Row  int            `json:"row"`
	Data GraduateFields `json:"data"`
}

// ValidationError is a row that failed one or more field checks.
// Errors is never empty.
type ValidationError struct {
	Row    int            `json:"row"`
	Data   GraduateFields `json:"data"`
	Errors []string       `json:"errors"`
}

// DuplicateMatch is a valid row that collides with an existing graduate.
type DuplicateMatch struct {
	Row         int            `json:"row"`
	Data        GraduateFields `json:"data"`
	DuplicateID int64          `json:"duplicateId"`
	MatchFields []string       `json:"matchFields"`
}

// FieldMapping maps each source column index to its canonical field, or nil
// for columns that were not recognized.
type FieldMapping map[int]*string

// PreviewSummary contains the bucket counts of a preview.
//
// TotalRows counts every data line the parser reported, including fully
// blank ones; those are also counted in SkippedRows and appear in no bucket.
type PreviewSummary struct {
	TotalRows     int `json:"totalRows"`
	ValidRows     int `json:"validRows"`
	ErrorRows     int `json:"errorRows"`
	DuplicateRows int `json:"duplicateRows"`
	SkippedRows   int `json:"skippedRows"`
}

// PreviewResult is the classified, unpersisted view of an uploaded file.
type PreviewResult struct {
	Summary          PreviewSummary    `json:"summary"`
	ValidRows        []ImportRow       `json:"validRows"`
	ErrorRows        []ValidationError `json:"errorRows"`
	DuplicateRows    []DuplicateMatch  `json:"duplicateRows"`
	FieldMapping     FieldMapping      `json:"fieldMapping"`
	ProcessingTimeMs int64             `json:"processingTimeMs"`
}

// FailedRow is a row the confirm step could not persist.
type FailedRow struct {
	Row    int      `json:"row"`
	Errors []string `json:"errors"`
}

// ConfirmResult reports the outcome of one confirm call.
type ConfirmResult struct {
	BatchID    string      `json:"batchId"`
	Imported   int         `json:"imported"`
	Failed     int         `json:"failed"`
	FailedRows []FailedRow `json:"failedRows"`
}
