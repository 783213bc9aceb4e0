package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // driver: pgx
	_ "modernc.org/sqlite"             // driver: sqlite
)

type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

// ParseDriver accepts the spellings operators tend to use for each backend.
func ParseDriver(s string) (Driver, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sqlite", "sqlite3", "":
		return DriverSQLite, nil
	case "postgres", "postgresql", "pgx", "pgsql":
		return DriverPostgres, nil
	}
	return "", fmt.Errorf("unsupported driver: %s", s)
}

// Open opens a DB, tunes the pool and ensures the schema exists.
func Open(ctx context.Context, driver Driver, dsn string) (*sql.DB, error) {
	var drvName string
	switch driver {
	case DriverSQLite:
		drvName = "sqlite" // modernc driver
		if dsn == "" {
			dsn = "file:gradetracker.db?cache=shared&mode=rwc&_pragma=busy_timeout(5000)"
		}
	case DriverPostgres:
		drvName = "pgx" // pgx stdlib driver
		if dsn == "" {
			dsn = "postgres://localhost:5432/moodle?sslmode=disable"
		}
	default:
		return nil, fmt.Errorf("unsupported driver: %s", driver)
	}

	db, err := sql.Open(drvName, dsn)
	if err != nil {
		return nil, fmt.Errorf("db: open: %w", err)
	}
	tunePool(driver, db)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db: ping: %w", err)
	}
	if driver == DriverSQLite {
		if err := applySQLitePragmas(ctx, db); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	if err := ensureSchema(ctx, db, driver); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// WithTx runs fn in a transaction, committing when fn returns nil and rolling
// back otherwise.
func WithTx(ctx context.Context, db *sql.DB, fn func(*sql.Tx) error) (err error) {
	if db == nil {
		return errors.New("db: nil handle")
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("db: begin tx: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		if e := tx.Commit(); e != nil {
			err = fmt.Errorf("db: commit: %w", e)
		}
	}()
	err = fn(tx)
	return
}

func tunePool(driver Driver, db *sql.DB) {
	switch driver {
	case DriverSQLite:
		// single writer
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	default:
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(10)
		db.SetConnMaxLifetime(30 * time.Minute)
		db.SetConnMaxIdleTime(15 * time.Minute)
	}
}

func applySQLitePragmas(ctx context.Context, db *sql.DB) error {
	pragmas := []string{
		"PRAGMA foreign_keys = ON;",
		"PRAGMA journal_mode = WAL;",
		"PRAGMA synchronous = NORMAL;",
		"PRAGMA busy_timeout = 5000;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			return fmt.Errorf("db: sqlite pragma %q: %w", p, err)
		}
	}
	return nil
}

func ensureSchema(ctx context.Context, db *sql.DB, driver Driver) error {
	var schema string
	switch driver {
	case DriverSQLite:
		schema = schemaSQLite
	case DriverPostgres:
		schema = schemaPostgres
	}
	// Some drivers reject multi-statement scripts; retry one statement at a time.
	if _, err := db.ExecContext(ctx, schema); err != nil {
		for _, stmt := range splitSQL(schema) {
			if _, e := db.ExecContext(ctx, stmt); e != nil {
				return fmt.Errorf("db: schema failed at %s: %w", firstLine(stmt), e)
			}
		}
	}
	return nil
}

// splitSQL splits on ';'. The DDL below has no procedures or quoted semicolons.
func splitSQL(s string) []string {
	parts := strings.Split(s, ";")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p+";")
		}
	}
	return out
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

const schemaSQLite = `
CREATE TABLE IF NOT EXISTS courses (
  id INTEGER PRIMARY KEY,
  shortname TEXT NOT NULL,
  fullname TEXT NOT NULL,
  idnumber TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS users (
  id INTEGER PRIMARY KEY,
  username TEXT NOT NULL UNIQUE,
  firstname TEXT NOT NULL DEFAULT '',
  lastname TEXT NOT NULL DEFAULT '',
  suspended INTEGER NOT NULL DEFAULT 0,
  deleted INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS enrolments (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  course_id INTEGER NOT NULL REFERENCES courses(id) ON DELETE CASCADE,
  user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
  role TEXT NOT NULL DEFAULT 'student',
  method TEXT NOT NULL DEFAULT 'manual',
  status INTEGER NOT NULL DEFAULT 0,        -- 0 active
  time_end INTEGER NOT NULL DEFAULT 0       -- unix seconds, 0 = open ended
);

CREATE TABLE IF NOT EXISTS scales (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  course_id INTEGER,                        -- NULL = site wide
  name TEXT NOT NULL,
  items TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS grade_categories (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  course_id INTEGER NOT NULL REFERENCES courses(id) ON DELETE CASCADE,
  fullname TEXT NOT NULL,
  sort_order INTEGER NOT NULL DEFAULT 0,
  UNIQUE (course_id, fullname)
);

CREATE TABLE IF NOT EXISTS grade_items (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  course_id INTEGER NOT NULL REFERENCES courses(id) ON DELETE CASCADE,
  category_id INTEGER REFERENCES grade_categories(id) ON DELETE SET NULL,
  item_type TEXT NOT NULL,                  -- course | manual
  item_name TEXT NOT NULL DEFAULT '',
  item_info TEXT NOT NULL DEFAULT '',
  sort_order INTEGER NOT NULL DEFAULT 0,
  grade_type INTEGER NOT NULL DEFAULT 1,    -- 0 none, 1 value, 2 scale, 3 text
  scale_id INTEGER,
  locked INTEGER NOT NULL DEFAULT 0,
  hidden INTEGER NOT NULL DEFAULT 0,
  decimals INTEGER NOT NULL DEFAULT 3,
  UNIQUE (course_id, item_type, item_name)
);

CREATE TABLE IF NOT EXISTS grade_grades (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  item_id INTEGER NOT NULL REFERENCES grade_items(id) ON DELETE CASCADE,
  user_id INTEGER NOT NULL,
  raw_grade REAL,
  final_grade REAL,
  time_created INTEGER NOT NULL,
  time_modified INTEGER NOT NULL,
  UNIQUE (item_id, user_id)
);

CREATE TABLE IF NOT EXISTS tracker_events (
  seq INTEGER PRIMARY KEY AUTOINCREMENT,
  run_id TEXT NOT NULL,
  typ TEXT NOT NULL,                        -- grade.inserted, grade.skipped, ...
  key TEXT NOT NULL,                        -- course/user/column
  data TEXT NOT NULL,                       -- JSON payload
  created_at INTEGER NOT NULL
);
`

const schemaPostgres = `
CREATE TABLE IF NOT EXISTS courses (
  id BIGINT PRIMARY KEY,
  shortname TEXT NOT NULL,
  fullname TEXT NOT NULL,
  idnumber TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS users (
  id BIGINT PRIMARY KEY,
  username TEXT NOT NULL UNIQUE,
  firstname TEXT NOT NULL DEFAULT '',
  lastname TEXT NOT NULL DEFAULT '',
  suspended INTEGER NOT NULL DEFAULT 0,
  deleted INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS enrolments (
  id BIGSERIAL PRIMARY KEY,
  course_id BIGINT NOT NULL REFERENCES courses(id) ON DELETE CASCADE,
  user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
  role TEXT NOT NULL DEFAULT 'student',
  method TEXT NOT NULL DEFAULT 'manual',
  status INTEGER NOT NULL DEFAULT 0,
  time_end BIGINT NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS scales (
  id BIGSERIAL PRIMARY KEY,
  course_id BIGINT,
  name TEXT NOT NULL,
  items TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS grade_categories (
  id BIGSERIAL PRIMARY KEY,
  course_id BIGINT NOT NULL REFERENCES courses(id) ON DELETE CASCADE,
  fullname TEXT NOT NULL,
  sort_order INTEGER NOT NULL DEFAULT 0,
  UNIQUE (course_id, fullname)
);

CREATE TABLE IF NOT EXISTS grade_items (
  id BIGSERIAL PRIMARY KEY,
  course_id BIGINT NOT NULL REFERENCES courses(id) ON DELETE CASCADE,
  category_id BIGINT REFERENCES grade_categories(id) ON DELETE SET NULL,
  item_type TEXT NOT NULL,
  item_name TEXT NOT NULL DEFAULT '',
  item_info TEXT NOT NULL DEFAULT '',
  sort_order INTEGER NOT NULL DEFAULT 0,
  grade_type INTEGER NOT NULL DEFAULT 1,
  scale_id BIGINT,
  locked INTEGER NOT NULL DEFAULT 0,
  hidden INTEGER NOT NULL DEFAULT 0,
  decimals INTEGER NOT NULL DEFAULT 3,
  UNIQUE (course_id, item_type, item_name)
);

CREATE TABLE IF NOT EXISTS grade_grades (
  id BIGSERIAL PRIMARY KEY,
  item_id BIGINT NOT NULL REFERENCES grade_items(id) ON DELETE CASCADE,
  user_id BIGINT NOT NULL,
  raw_grade DOUBLE PRECISION,
  final_grade DOUBLE PRECISION,
  time_created BIGINT NOT NULL,
  time_modified BIGINT NOT NULL,
  UNIQUE (item_id, user_id)
);

CREATE TABLE IF NOT EXISTS tracker_events (
  seq BIGSERIAL PRIMARY KEY,
  run_id TEXT NOT NULL,
  typ TEXT NOT NULL,
  key TEXT NOT NULL,
  data TEXT NOT NULL,
  created_at BIGINT NOT NULL
);
`
