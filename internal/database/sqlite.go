package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS graduates (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	first_name   TEXT,
	last_name    TEXT,
	teudat_zehut TEXT,
	birth_date   TEXT,
	phone        TEXT,
	home_phone   TEXT,
	email        TEXT,
	city         TEXT,
	address      TEXT,
	shiur_year   TEXT,
	notes        TEXT,
	student_code TEXT,
	created_at   INTEGER NOT NULL,
	deleted_at   INTEGER
);

CREATE UNIQUE INDEX IF NOT EXISTS graduates_teudat_zehut_active_key
	ON graduates (teudat_zehut)
	WHERE deleted_at IS NULL AND teudat_zehut IS NOT NULL;

CREATE TABLE IF NOT EXISTS import_audit (
	batch_id   TEXT PRIMARY KEY,
	requested  INTEGER NOT NULL,
	imported   INTEGER NOT NULL,
	failed     INTEGER NOT NULL,
	ip_address TEXT,
	user_agent TEXT,
	created_at INTEGER NOT NULL
);
`

// SQLiteStore implements Store on an embedded SQLite file.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the SQLite database at path and ensures the
// schema exists.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One writer at a time; the per-row commit loop is sequential anyway.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate sqlite schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) ListActiveGraduates(ctx context.Context) ([]Graduate, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+graduateColumns+`
		FROM graduates WHERE deleted_at IS NULL ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list graduates: %w", err)
	}
	return collectSQLiteGraduates(rows)
}

func (s *SQLiteStore) ListGraduatesPage(ctx context.Context, limit, offset int) ([]Graduate, int64, error) {
	var total int64
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM graduates WHERE deleted_at IS NULL`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count graduates: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT `+graduateColumns+`
		FROM graduates WHERE deleted_at IS NULL ORDER BY id LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list graduates page: %w", err)
	}
	items, err := collectSQLiteGraduates(rows)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (s *SQLiteStore) GetGraduate(ctx context.Context, id int64) (Graduate, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+graduateColumns+`
		FROM graduates WHERE id = ? AND deleted_at IS NULL`, id)
	g, err := scanSQLiteGraduate(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Graduate{}, ErrNotFound
	}
	if err != nil {
		return Graduate{}, fmt.Errorf("get graduate %d: %w", id, err)
	}
	return g, nil
}

func (s *SQLiteStore) InsertGraduate(ctx context.Context, arg InsertGraduateParams) (Graduate, error) {
	row := s.db.QueryRowContext(ctx, `INSERT INTO graduates (
			first_name, last_name, teudat_zehut, birth_date, phone, home_phone,
			email, city, address, shiur_year, notes, student_code, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING `+graduateColumns,
		toNullString(arg.FirstName),
		toNullString(arg.LastName),
		toNullString(arg.TeudatZehut),
		toNullDate(arg.BirthDate),
		toNullString(arg.Phone),
		toNullString(arg.HomePhone),
		toNullString(arg.Email),
		toNullString(arg.City),
		toNullString(arg.Address),
		toNullString(arg.ShiurYear),
		toNullString(arg.Notes),
		toNullString(arg.StudentCode),
		time.Now().Unix(),
	)
	g, err := scanSQLiteGraduate(row)
	if err != nil {
		return Graduate{}, fmt.Errorf("insert graduate: %w", err)
	}
	return g, nil
}

func (s *SQLiteStore) SoftDeleteGraduate(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `UPDATE graduates SET deleted_at = ?
		WHERE id = ? AND deleted_at IS NULL`, time.Now().Unix(), id)
	if err != nil {
		return fmt.Errorf("delete graduate %d: %w", id, err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) InsertImportAudit(ctx context.Context, arg ImportAudit) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO import_audit
		(batch_id, requested, imported, failed, ip_address, user_agent, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		arg.BatchID, arg.Requested, arg.Imported, arg.Failed,
		toNullString(arg.IPAddress), toNullString(arg.UserAgent), time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert import audit: %w", err)
	}
	return nil
}

// CountImportAudits returns the number of recorded import batches.
func (s *SQLiteStore) CountImportAudits(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM import_audit`).Scan(&n)
	return n, err
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the SQLite connection.
func (s *SQLiteStore) Close() {
	s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteGraduate(row rowScanner) (Graduate, error) {
	var (
		g                                                     Graduate
		first, last, tz, birth, phone, home, email, city, addr sql.NullString
		year, notes, code                                      sql.NullString
		created                                                int64
		deleted                                                sql.NullInt64
	)
	if err := row.Scan(&g.ID, &first, &last, &tz, &birth, &phone, &home,
		&email, &city, &addr, &year, &notes, &code, &created, &deleted); err != nil {
		return Graduate{}, err
	}
	g.FirstName = first.String
	g.LastName = last.String
	g.TeudatZehut = tz.String
	g.BirthDate = birth.String
	g.Phone = phone.String
	g.HomePhone = home.String
	g.Email = email.String
	g.City = city.String
	g.Address = addr.String
	g.ShiurYear = year.String
	g.Notes = notes.String
	g.StudentCode = code.String
	g.CreatedAt = time.Unix(created, 0).UTC()
	if deleted.Valid {
		t := time.Unix(deleted.Int64, 0).UTC()
		g.DeletedAt = &t
	}
	return g, nil
}

func collectSQLiteGraduates(rows *sql.Rows) ([]Graduate, error) {
	defer rows.Close()

	var out []Graduate
	for rows.Next() {
		g, err := scanSQLiteGraduate(rows)
		if err != nil {
			return nil, fmt.Errorf("scan graduate: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}
