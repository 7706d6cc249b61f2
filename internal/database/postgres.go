package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DBTX is the interface for database operations.
// Satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

const pgSchema = `
CREATE TABLE IF NOT EXISTS graduates (
	id           BIGSERIAL PRIMARY KEY,
	first_name   TEXT,
	last_name    TEXT,
	teudat_zehut TEXT,
	birth_date   DATE,
	phone        TEXT,
	home_phone   TEXT,
	email        TEXT,
	city         TEXT,
	address      TEXT,
	shiur_year   TEXT,
	notes        TEXT,
	student_code TEXT,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	deleted_at   TIMESTAMPTZ
);

CREATE UNIQUE INDEX IF NOT EXISTS graduates_teudat_zehut_active_key
	ON graduates (teudat_zehut)
	WHERE deleted_at IS NULL AND teudat_zehut IS NOT NULL;

CREATE TABLE IF NOT EXISTS import_audit (
	batch_id   UUID PRIMARY KEY,
	requested  INTEGER NOT NULL,
	imported   INTEGER NOT NULL,
	failed     INTEGER NOT NULL,
	ip_address TEXT,
	user_agent TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

const graduateColumns = `id, first_name, last_name, teudat_zehut, birth_date, phone, home_phone,
	email, city, address, shiur_year, notes, student_code, created_at, deleted_at`

// PostgresStore implements Store on a pgx connection pool.
type PostgresStore struct {
	pool *pgxpool.Pool
	db   DBTX
}

// NewPostgresStore wraps an existing pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool, db: pool}
}

// Migrate creates the graduates and import_audit tables if missing.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, pgSchema); err != nil {
		return fmt.Errorf("migrate postgres schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListActiveGraduates(ctx context.Context) ([]Graduate, error) {
	rows, err := s.db.Query(ctx, `SELECT `+graduateColumns+`
		FROM graduates WHERE deleted_at IS NULL ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list graduates: %w", err)
	}
	return collectGraduates(rows)
}

func (s *PostgresStore) ListGraduatesPage(ctx context.Context, limit, offset int) ([]Graduate, int64, error) {
	var total int64
	if err := s.db.QueryRow(ctx, `SELECT count(*) FROM graduates WHERE deleted_at IS NULL`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count graduates: %w", err)
	}

	rows, err := s.db.Query(ctx, `SELECT `+graduateColumns+`
		FROM graduates WHERE deleted_at IS NULL ORDER BY id LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list graduates page: %w", err)
	}
	items, err := collectGraduates(rows)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (s *PostgresStore) GetGraduate(ctx context.Context, id int64) (Graduate, error) {
	row := s.db.QueryRow(ctx, `SELECT `+graduateColumns+`
		FROM graduates WHERE id = $1 AND deleted_at IS NULL`, id)
	g, err := scanGraduate(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Graduate{}, ErrNotFound
	}
	if err != nil {
		return Graduate{}, fmt.Errorf("get graduate %d: %w", id, err)
	}
	return g, nil
}

func (s *PostgresStore) InsertGraduate(ctx context.Context, arg InsertGraduateParams) (Graduate, error) {
	row := s.db.QueryRow(ctx, `INSERT INTO graduates (
			first_name, last_name, teudat_zehut, birth_date, phone, home_phone,
			email, city, address, shiur_year, notes, student_code
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING `+graduateColumns,
		ToPgText(arg.FirstName),
		ToPgText(arg.LastName),
		ToPgText(arg.TeudatZehut),
		ToPgDate(arg.BirthDate),
		ToPgText(arg.Phone),
		ToPgText(arg.HomePhone),
		ToPgText(arg.Email),
		ToPgText(arg.City),
		ToPgText(arg.Address),
		ToPgText(arg.ShiurYear),
		ToPgText(arg.Notes),
		ToPgText(arg.StudentCode),
	)
	g, err := scanGraduate(row)
	if err != nil {
		return Graduate{}, fmt.Errorf("insert graduate: %w", err)
	}
	return g, nil
}

func (s *PostgresStore) SoftDeleteGraduate(ctx context.Context, id int64) error {
	tag, err := s.db.Exec(ctx, `UPDATE graduates SET deleted_at = now()
		WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return fmt.Errorf("delete graduate %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) InsertImportAudit(ctx context.Context, arg ImportAudit) error {
	_, err := s.db.Exec(ctx, `INSERT INTO import_audit
		(batch_id, requested, imported, failed, ip_address, user_agent)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		ToPgUUID(arg.BatchID), arg.Requested, arg.Imported, arg.Failed,
		ToPgText(arg.IPAddress), ToPgText(arg.UserAgent),
	)
	if err != nil {
		return fmt.Errorf("insert import audit: %w", err)
	}
	return nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}

func scanGraduate(row pgx.Row) (Graduate, error) {
	var (
		g                                                     Graduate
		first, last, tz, phone, home, email, city, addr, year pgtype.Text
		notes, code                                           pgtype.Text
		birth                                                 pgtype.Date
		created, deleted                                      pgtype.Timestamptz
	)
	if err := row.Scan(&g.ID, &first, &last, &tz, &birth, &phone, &home,
		&email, &city, &addr, &year, &notes, &code, &created, &deleted); err != nil {
		return Graduate{}, err
	}
	g.FirstName = PgTextToString(first)
	g.LastName = PgTextToString(last)
	g.TeudatZehut = PgTextToString(tz)
	g.BirthDate = PgDateToString(birth)
	g.Phone = PgTextToString(phone)
	g.HomePhone = PgTextToString(home)
	g.Email = PgTextToString(email)
	g.City = PgTextToString(city)
	g.Address = PgTextToString(addr)
	g.ShiurYear = PgTextToString(year)
	g.Notes = PgTextToString(notes)
	g.StudentCode = PgTextToString(code)
	g.CreatedAt = created.Time
	g.DeletedAt = PgTimestamptzToPtr(deleted)
	return g, nil
}

func collectGraduates(rows pgx.Rows) ([]Graduate, error) {
	defer rows.Close()

	var out []Graduate
	for rows.Next() {
		g, err := scanGraduate(rows)
		if err != nil {
			return nil, fmt.Errorf("scan graduate: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}
