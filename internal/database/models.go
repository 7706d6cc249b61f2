// Package database persists graduate records and import audit entries.
//
// Two backends implement [Store]: PostgreSQL through a pgx pool for
// production, and an embedded SQLite file (modernc.org/sqlite, no cgo) for
// local development, the importctl CLI, and tests. [Open] picks one from the
// connection URL.
package database

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a graduate id does not exist or is soft-deleted.
var ErrNotFound = errors.New("graduate not found")

// Graduate is a persisted registry record.
type Graduate struct {
	ID          int64      `json:"id"`
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	TeudatZehut string     `json:"teudat_zehut"`
	BirthDate   string     `json:"birth_date"`
	Phone       string     `json:"phone"`
	HomePhone   string     `json:"home_phone"`
	Email       string     `json:"email"`
	City        string     `json:"city"`
	Address     string     `json:"address"`
	ShiurYear   string     `json:"shiur_year"`
	Notes       string     `json:"notes"`
	StudentCode string     `json:"student_code"`
	CreatedAt   time.Time  `json:"created_at"`
	DeletedAt   *time.Time `json:"deletedAt,omitempty"`
}

// InsertGraduateParams holds the column values for a new graduate.
// Empty strings are stored as NULL.
type InsertGraduateParams struct {
	FirstName   string
	LastName    string
	TeudatZehut string
	BirthDate   string // YYYY-MM-DD or empty
	Phone       string
	HomePhone   string
	Email       string
	City        string
	Address     string
	ShiurYear   string
	Notes       string
	StudentCode string
}

// ImportAudit records one confirmed import batch.
type ImportAudit struct {
	BatchID   string
	Requested int
	Imported  int
	Failed    int
	IPAddress string
	UserAgent string
}

// Store is the persistence surface used by the import service and the
// graduate API.
type Store interface {
	// ListActiveGraduates returns every graduate that is not soft-deleted,
	// ordered by id.
	ListActiveGraduates(ctx context.Context) ([]Graduate, error)

	// ListGraduatesPage returns one page of active graduates and the total count.
	ListGraduatesPage(ctx context.Context, limit, offset int) ([]Graduate, int64, error)

	GetGraduate(ctx context.Context, id int64) (Graduate, error)
	InsertGraduate(ctx context.Context, arg InsertGraduateParams) (Graduate, error)

	// SoftDeleteGraduate sets deleted_at. Returns ErrNotFound if the record
	// does not exist or is already deleted.
	SoftDeleteGraduate(ctx context.Context, id int64) error

	InsertImportAudit(ctx context.Context, arg ImportAudit) error

	Ping(ctx context.Context) error
	Close()
}
