package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
	_ "modernc.org/sqlite"             // SQLite driver
)

// Backend names a database for the SQL store.
type Backend string

const (
	SQLiteBackend     Backend = "sqlite"
	MySQLBackend      Backend = "mysql"
	PostgreSQLBackend Backend = "postgresql"
	MemoryBackend     Backend = "memory"
	NoneBackend       Backend = "none"
)

const tableName = "widget_cache"

// SQLStore keeps entries in a database table so they survive restarts and can be shared
// between server instances.
type SQLStore struct {
	db      *sql.DB
	backend Backend
	ttl     time.Duration
	now     func() time.Time
}

var _ Store = (*SQLStore)(nil)

// Open returns the store for backend. connStr is a file path for sqlite and a DSN for the
// server databases. Memory and none backends ignore it.
func Open(ctx context.Context, backend Backend, connStr string, ttl time.Duration) (Store, error) {
	var driverName, dsn string

	switch backend {
	case MemoryBackend, "":
		return NewMemory(ttl), nil

	case NoneBackend:
		return nopStore{}, nil

	case SQLiteBackend:
		if connStr == "" {
			return nil, errors.New("sqlite cache needs a file path")
		}
		driverName = "sqlite"
		dsn = "file:" + connStr + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"

	case MySQLBackend:
		// user:password@tcp(host:port)/dbname
		driverName = "mysql"
		dsn = connStr

	case PostgreSQLBackend:
		// host=localhost port=5432 user=postgres password=secret dbname=widgets
		driverName = "pgx"
		dsn = connStr

	default:
		return nil, fmt.Errorf("unsupported cache backend: %s. Must be memory, sqlite, mysql, postgresql or none", backend)
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s cache: %w", backend, err)
	}
	if backend == SQLiteBackend {
		// A single writer avoids "database is locked" under concurrent requests.
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to %s cache: %w", backend, err)
	}
	if _, err := db.ExecContext(ctx, createTableQuery(backend)); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create table %s: %w", tableName, err)
	}

	return &SQLStore{db: db, backend: backend, ttl: ttl, now: time.Now}, nil
}

func createTableQuery(backend Backend) string {
	switch backend {
	case MySQLBackend:
		return `CREATE TABLE IF NOT EXISTS ` + tableName + ` (
	cache_key VARCHAR(64) PRIMARY KEY,
	cache_value LONGBLOB NOT NULL,
	cache_timestamp BIGINT NOT NULL
)`
	case PostgreSQLBackend:
		return `CREATE TABLE IF NOT EXISTS ` + tableName + ` (
	cache_key TEXT PRIMARY KEY,
	cache_value BYTEA NOT NULL,
	cache_timestamp BIGINT NOT NULL
)`
	default:
		return `CREATE TABLE IF NOT EXISTS ` + tableName + ` (
	cache_key TEXT PRIMARY KEY,
	cache_value BLOB NOT NULL,
	cache_timestamp INTEGER NOT NULL
)`
	}
}

// placeholders returns n bind parameters in the backend's syntax.
func placeholders(backend Backend, n int) []string {
	out := make([]string, n)
	for i := range out {
		if backend == PostgreSQLBackend {
			out[i] = fmt.Sprintf("$%d", i+1)
		} else {
			out[i] = "?"
		}
	}
	return out
}

func selectQuery(backend Backend) string {
	p := placeholders(backend, 1)
	return `SELECT cache_value, cache_timestamp FROM ` + tableName + ` WHERE cache_key = ` + p[0]
}

func upsertQuery(backend Backend) string {
	p := strings.Join(placeholders(backend, 3), ", ")
	switch backend {
	case MySQLBackend:
		return `INSERT INTO ` + tableName + ` (cache_key, cache_value, cache_timestamp) VALUES (` + p + `) AS new
	ON DUPLICATE KEY UPDATE cache_value = new.cache_value, cache_timestamp = new.cache_timestamp`
	case PostgreSQLBackend:
		return `INSERT INTO ` + tableName + ` (cache_key, cache_value, cache_timestamp) VALUES (` + p + `)
	ON CONFLICT (cache_key) DO UPDATE SET cache_value = EXCLUDED.cache_value, cache_timestamp = EXCLUDED.cache_timestamp`
	default:
		return `INSERT OR REPLACE INTO ` + tableName + ` (cache_key, cache_value, cache_timestamp) VALUES (` + p + `)`
	}
}

func (s *SQLStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	var ts int64
	err := s.db.QueryRowContext(ctx, selectQuery(s.backend), key).Scan(&value, &ts)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache get: %w", err)
	}
	if s.ttl > 0 && !s.now().Before(time.Unix(0, ts).Add(s.ttl)) {
		return nil, false, nil
	}
	return value, true, nil
}

func (s *SQLStore) Set(ctx context.Context, key string, value []byte) error {
	if _, err := s.db.ExecContext(ctx, upsertQuery(s.backend), key, value, s.now().UnixNano()); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

func (s *SQLStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// nopStore never holds anything.
type nopStore struct{}

func (nopStore) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }
func (nopStore) Set(context.Context, string, []byte) error         { return nil }
func (nopStore) Close() error                                      { return nil }
