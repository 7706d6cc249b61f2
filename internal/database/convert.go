package database

// convert.go maps between the string-valued import model and PostgreSQL
// column types. All ToPg* functions return Valid=false for empty or
// unparseable input so the column is written as NULL.

import (
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/JonMunkholm/alumni/internal/validate"
)

// ToPgText converts a string to pgtype.Text.
// Returns invalid if the string is empty or only whitespace.
func ToPgText(s string) pgtype.Text {
	s = strings.TrimSpace(s)
	if s == "" {
		return pgtype.Text{Valid: false}
	}
	return pgtype.Text{String: s, Valid: true}
}

// ToPgDate converts a date string in any accepted layout to pgtype.Date.
func ToPgDate(s string) pgtype.Date {
	t, ok := validate.ParseDate(s)
	if !ok {
		return pgtype.Date{Valid: false}
	}
	return pgtype.Date{Time: t, Valid: true}
}

// ToPgUUID converts a string to pgtype.UUID.
// Returns invalid if the string is empty or not a valid UUID.
func ToPgUUID(s string) pgtype.UUID {
	if s == "" {
		return pgtype.UUID{Valid: false}
	}
	parsed, err := uuid.Parse(s)
	if err != nil {
		return pgtype.UUID{Valid: false}
	}
	return pgtype.UUID{Bytes: parsed, Valid: true}
}

// PgTextToString returns the text value, or "" for NULL.
func PgTextToString(t pgtype.Text) string {
	if !t.Valid {
		return ""
	}
	return t.String
}

// PgDateToString formats a date as YYYY-MM-DD, or "" for NULL.
func PgDateToString(d pgtype.Date) string {
	if !d.Valid {
		return ""
	}
	return d.Time.Format(validate.ISODate)
}

// PgTimestamptzToPtr returns nil for NULL timestamps.
func PgTimestamptzToPtr(ts pgtype.Timestamptz) *time.Time {
	if !ts.Valid {
		return nil
	}
	t := ts.Time
	return &t
}

// toNullString is the database/sql counterpart of ToPgText, used by the
// SQLite backend.
func toNullString(s string) sql.NullString {
	s = strings.TrimSpace(s)
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// toNullDate normalizes a date to YYYY-MM-DD for SQLite TEXT storage.
func toNullDate(s string) sql.NullString {
	t, ok := validate.ParseDate(s)
	if !ok {
		return sql.NullString{}
	}
	return sql.NullString{String: t.Format(validate.ISODate), Valid: true}
}
