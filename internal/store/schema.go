package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"regexp"

	"github.com/nkanf-dev/CyberWeaver/internal/errs"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking (PRAGMA user_version):
// 0 - Legacy layout: id, type, x, y, content
// 1 - Added width, height, updated_at and idx_nodes_type_updated_at
const currentSchemaVersion = 1

const nodesTable = "nodes"

const createTypeUpdatedIndex = `CREATE INDEX IF NOT EXISTS idx_nodes_type_updated_at ON nodes(type, updated_at)`

// additiveColumns are appended to older layouts, in order.
var additiveColumns = []struct {
	name       string
	definition string
}{
	{"width", "REAL"},
	{"height", "REAL"},
	{"updated_at", "INTEGER NOT NULL DEFAULT 0"},
}

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Querier is the subset of *sql.DB and *sql.Tx the schema manager needs.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Column describes one column of the live nodes table.
type Column struct {
	CID     int     `json:"cid"`
	Name    string  `json:"name"`
	Type    string  `json:"type"`
	NotNull bool    `json:"not_null"`
	Default *string `json:"default,omitempty"`
	PK      bool    `json:"pk"`
}

// InitializeSchema creates the nodes table if absent, appends any columns an
// older layout lacks, and creates the (type, updated_at) index. All steps run
// in one transaction, so a failure leaves the previous layout untouched.
//
// This function is idempotent.
func (s *Store) InitializeSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errs.Wrap(err, errs.CodeSchemaFailure, "initialize schema: begin tx")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return errs.Wrap(err, errs.CodeSchemaFailure, "initialize schema: create nodes table")
	}

	for _, col := range additiveColumns {
		added, err := EnsureColumn(ctx, tx, col.name, col.definition)
		if err != nil {
			return err
		}
		if added {
			s.logger.Info("schema column added", "table", nodesTable, "column", col.name, "definition", col.definition)
		}
	}

	if _, err := tx.ExecContext(ctx, createTypeUpdatedIndex); err != nil {
		return errs.Wrap(err, errs.CodeSchemaFailure, "initialize schema: create index")
	}

	if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return errs.Wrap(err, errs.CodeSchemaFailure, "initialize schema: set user_version")
	}

	if err := tx.Commit(); err != nil {
		return errs.Wrap(err, errs.CodeSchemaFailure, "initialize schema: commit")
	}

	s.logger.Debug("schema ready", "version", currentSchemaVersion)
	return nil
}

// EnsureColumn appends column name to the nodes table unless it already
// exists. It never drops or renames; calling it again is a no-op.
// Reports whether the column was added.
func EnsureColumn(ctx context.Context, q Querier, name, definition string) (bool, error) {
	if !identifierPattern.MatchString(name) {
		return false, errs.Errorf(errs.CodeSchemaFailure, "ensure column: invalid column name %q", name)
	}

	cols, err := Columns(ctx, q)
	if err != nil {
		return false, err
	}
	for _, c := range cols {
		if c.Name == name {
			return false, nil
		}
	}

	stmt := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", nodesTable, name, definition)
	if _, err := q.ExecContext(ctx, stmt); err != nil {
		return false, errs.Wrap(err, errs.CodeSchemaFailure, "ensure column", errs.Field("column", name))
	}
	return true, nil
}

// Columns returns the live column metadata of the nodes table.
func Columns(ctx context.Context, q Querier) ([]Column, error) {
	rows, err := q.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", nodesTable))
	if err != nil {
		return nil, errs.Wrap(err, errs.CodeSchemaFailure, "read table info")
	}
	defer rows.Close()

	var cols []Column
	for rows.Next() {
		var (
			c       Column
			notNull int
			dflt    sql.NullString
			pk      int
		)
		if err := rows.Scan(&c.CID, &c.Name, &c.Type, &notNull, &dflt, &pk); err != nil {
			return nil, errs.Wrap(err, errs.CodeSchemaFailure, "scan table info")
		}
		c.NotNull = notNull != 0
		c.PK = pk != 0
		if dflt.Valid {
			v := dflt.String
			c.Default = &v
		}
		cols = append(cols, c)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Wrap(err, errs.CodeSchemaFailure, "iterate table info")
	}

	return cols, nil
}

// Columns returns the live column metadata of the nodes table.
func (s *Store) Columns(ctx context.Context) ([]Column, error) {
	return Columns(ctx, s.db)
}

// SchemaVersion reads the recorded layout version.
func (s *Store) SchemaVersion(ctx context.Context) (int, error) {
	var version int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return 0, errs.Wrap(err, errs.CodeSchemaFailure, "read user_version")
	}
	return version, nil
}
