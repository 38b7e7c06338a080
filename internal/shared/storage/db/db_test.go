package db

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

type nopDriver struct{}

func (d nopDriver) Open(name string) (driver.Conn, error) {
	return nopConn{}, nil
}

type nopConn struct{}

func (nopConn) Prepare(query string) (driver.Stmt, error) { return nopStmt{}, nil }
func (nopConn) Close() error                              { return nil }
func (nopConn) Begin() (driver.Tx, error)                 { return nopTx{}, nil }
func (nopConn) Ping(ctx context.Context) error            { return nil }

type nopStmt struct{}

func (nopStmt) Close() error                                    { return nil }
func (nopStmt) NumInput() int                                   { return -1 }
func (nopStmt) Exec(args []driver.Value) (driver.Result, error) { return nopResult{}, nil }
func (nopStmt) Query(args []driver.Value) (driver.Rows, error)  { return nopRows{}, nil }

type nopTx struct{}

func (nopTx) Commit() error   { return nil }
func (nopTx) Rollback() error { return nil }

type nopResult struct{}

func (nopResult) LastInsertId() (int64, error) { return 0, nil }
func (nopResult) RowsAffected() (int64, error) { return 0, nil }

type nopRows struct{}

func (nopRows) Columns() []string              { return []string{} }
func (nopRows) Close() error                   { return nil }
func (nopRows) Next(dest []driver.Value) error { return driver.ErrBadConn }

var registerTestDriverOnce sync.Once

func ensureTestDriverRegistered() {
	registerTestDriverOnce.Do(func() {
		sql.Register("dbtest", nopDriver{})
	})
}

func withTestDriver(t *testing.T) func() {
	t.Helper()
	ensureTestDriverRegistered()
	prev := openDB
	openDB = func(name, dsn string) (*sql.DB, error) {
		return sql.Open("dbtest", dsn)
	}
	return func() {
		openDB = prev
	}
}

func TestOptionsFromEnvAppliesOverrides(t *testing.T) {
	restore := withTestDriver(t)
	defer restore()

	t.Setenv("DB_MAX_OPEN_CONNS", "7")
	t.Setenv("DB_MAX_IDLE_CONNS", "3")
	t.Setenv("DB_CONN_MAX_LIFETIME", "20m")
	t.Setenv("DB_CONN_MAX_IDLE_TIME", "45s")
	t.Setenv("DB_PING_TIMEOUT", "1s")

	opts := OptionsFromEnv(DefaultServerOptions())
	db, err := Connect(context.Background(), "ignored", opts)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer db.Close()

	stats := db.Stats()
	if stats.MaxOpenConnections != 7 {
		t.Fatalf("expected MaxOpenConnections=7, got %d", stats.MaxOpenConnections)
	}
	if opts.MaxIdleConns != 3 {
		t.Fatalf("expected MaxIdleConns=3, got %d", opts.MaxIdleConns)
	}
	if opts.ConnMaxLifetime != 20*time.Minute {
		t.Fatalf("expected ConnMaxLifetime=20m, got %s", opts.ConnMaxLifetime)
	}
	if opts.ConnMaxIdleTime != 45*time.Second {
		t.Fatalf("expected ConnMaxIdleTime=45s, got %s", opts.ConnMaxIdleTime)
	}
	if opts.PingTimeout != time.Second {
		t.Fatalf("expected PingTimeout=1s, got %s", opts.PingTimeout)
	}
}

func TestConnectRejectsEmptyURL(t *testing.T) {
	if _, err := Connect(context.Background(), "  ", DefaultServerOptions()); err == nil {
		t.Fatalf("expected error for empty url")
	}
}

func TestConnectWrapsOpenError(t *testing.T) {
	prev := openDB
	openDB = func(name, dsn string) (*sql.DB, error) {
		return nil, driver.ErrBadConn
	}
	defer func() {
		openDB = prev
	}()

	_, err := Connect(context.Background(), "postgres://x", DefaultMigrateOptions())
	if !errors.Is(err, driver.ErrBadConn) {
		t.Fatalf("expected wrapped ErrBadConn, got %v", err)
	}
}

func TestMigrationsEmbedded(t *testing.T) {
	entries, err := migrationFiles.ReadDir("migrations")
	if err != nil {
		t.Fatalf("read migrations: %v", err)
	}
	if len(entries) < 3 {
		t.Fatalf("expected at least 3 migrations, got %d", len(entries))
	}
}

func TestRunMigrationsNilDB(t *testing.T) {
	if err := RunMigrations(context.Background(), nil); err != nil {
		t.Fatalf("expected nil db to be a no-op, got %v", err)
	}
}

func TestWithRuntimeParamsURL(t *testing.T) {
	opts := Options{ApplicationName: "api", StatementTimeout: 2 * time.Second}
	got := withRuntimeParams("postgres://u:p@localhost:5432/app?sslmode=disable", opts)
	want := "postgres://u:p@localhost:5432/app?application_name=api&sslmode=disable&statement_timeout=2000"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestWithRuntimeParamsKeepsExplicitValues(t *testing.T) {
	opts := Options{ApplicationName: "api", StatementTimeout: time.Second}
	got := withRuntimeParams("host=localhost dbname=app application_name=custom", opts)
	want := "host=localhost dbname=app application_name=custom statement_timeout=1000"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
	if got := withRuntimeParams("postgres://h/app?application_name=x", Options{ApplicationName: "api"}); got != "postgres://h/app?application_name=x" {
		t.Fatalf("explicit url param overwritten: %q", got)
	}
}

func TestConnectPassesRuntimeParams(t *testing.T) {
	ensureTestDriverRegistered()
	prev := openDB
	var gotDSN string
	openDB = func(name, dsn string) (*sql.DB, error) {
		gotDSN = dsn
		return sql.Open("dbtest", dsn)
	}
	defer func() { openDB = prev }()

	db, err := Connect(context.Background(), "postgres://h/app", DefaultMigrateOptions())
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer db.Close()
	if gotDSN != "postgres://h/app?application_name=resume-analyzer-migrate" {
		t.Fatalf("unexpected dsn %q", gotDSN)
	}
}

func TestIsInvalidText(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"malformed uuid", &pgconn.PgError{Code: "22P02"}, true},
		{"wrapped", fmt.Errorf("query: %w", &pgconn.PgError{Code: "22P02"}), true},
		{"unique violation", &pgconn.PgError{Code: "23505"}, false},
		{"no rows", sql.ErrNoRows, false},
		{"nil", nil, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsInvalidText(tc.err); got != tc.want {
				t.Fatalf("IsInvalidText(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}
