package store

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/nkanf-dev/CyberWeaver/internal/errs"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// DefaultBusyTimeoutMS is how long a connection waits on a locked database.
const DefaultBusyTimeoutMS = 5000

// Store provides durable storage for diagram nodes.
// The *sql.DB is owned by the Store and released by Close.
type Store struct {
	db      *sql.DB
	clock   Clock
	logger  *slog.Logger
	metrics *storeMetrics
}

type options struct {
	clock         Clock
	logger        *slog.Logger
	registerer    prometheus.Registerer
	busyTimeoutMS int
}

// Option configures a Store at Open time.
type Option func(*options)

// WithClock overrides the clock used to stamp updated_at.
func WithClock(c Clock) Option {
	return func(o *options) { o.clock = c }
}

// WithLogger sets the logger for schema and batch events.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithMetrics registers the store's collectors with reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(o *options) { o.registerer = reg }
}

// WithBusyTimeout sets the SQLite busy timeout in milliseconds.
func WithBusyTimeout(ms int) Option {
	return func(o *options) { o.busyTimeoutMS = ms }
}

// Open creates or opens a SQLite database at the given path, applies pragmas
// and brings the schema up to date. The file is created if missing; its
// directory must already exist.
//
// This function is idempotent - safe to call on every process start.
func Open(path string, opts ...Option) (*Store, error) {
	o := options{
		busyTimeoutMS: DefaultBusyTimeoutMS,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.clock == nil {
		o.clock = &SystemClock{}
	}
	if o.logger == nil {
		o.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	db, err := sql.Open("sqlite3", dsn(path))
	if err != nil {
		return nil, errs.Wrap(err, errs.CodeStoreDatabase, "open database", errs.Field("path", path))
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, errs.Wrap(err, errs.CodeStoreDatabase, "connect to database", errs.Field("path", path))
	}

	// SQLite only supports one writer at a time; a single connection also
	// keeps in-memory databases alive for the Store's lifetime.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db, path, o.busyTimeoutMS); err != nil {
		db.Close()
		return nil, errs.Wrap(err, errs.CodeStoreDatabase, "apply pragmas")
	}

	s := &Store{
		db:      db,
		clock:   o.clock,
		logger:  o.logger,
		metrics: newStoreMetrics(o.registerer),
	}

	if err := s.InitializeSchema(context.Background()); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// OpenMemory opens a fresh private in-memory store.
func OpenMemory(opts ...Option) (*Store, error) {
	return Open(MemoryPath, opts...)
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB returns the underlying sql.DB for direct queries.
// Use with caution - prefer using Store methods when available.
func (s *Store) DB() *sql.DB {
	return s.db
}

// dsn builds the driver connection string. File databases use a URI with
// mode=rwc so the file is created when missing.
func dsn(path string) string {
	if path == MemoryPath {
		return MemoryPath
	}
	p := filepath.ToSlash(path)
	p = strings.NewReplacer("%", "%25", "?", "%3f", "#", "%23").Replace(p)
	return "file:" + p + "?mode=rwc"
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sql.DB, path string, busyTimeoutMS int) error {
	pragmas := []string{
		fmt.Sprintf("PRAGMA busy_timeout = %d", busyTimeoutMS),
		"PRAGMA synchronous = NORMAL",
	}
	if path != MemoryPath {
		pragmas = append(pragmas, "PRAGMA journal_mode = WAL")
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}
