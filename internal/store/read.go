package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/nkanf-dev/CyberWeaver/internal/errs"
	"github.com/nkanf-dev/CyberWeaver/internal/node"
)

// typeFilter is the IN (...) clause restricting reads to the closed type set.
var typeFilter = "type IN (" + placeholders(len(node.Types())) + ")"

func typeArgs() []any {
	types := node.Types()
	args := make([]any, len(types))
	for i, t := range types {
		args[i] = string(t)
	}
	return args
}

// ListNodes returns every node of a supported type as a materialized snapshot.
// Results are ordered deterministically: ORDER BY updated_at ASC, id ASC COLLATE BINARY.
//
// Returns an empty slice (not nil) if the table is empty. A row whose columns
// cannot be decoded fails the whole call.
func (s *Store) ListNodes(ctx context.Context) (nodes []node.Node, err error) {
	start := time.Now()
	defer func() { s.metrics.observe("list", start, err) }()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, type, x, y, content, width, height
		FROM nodes
		WHERE `+typeFilter+`
		ORDER BY updated_at ASC, id COLLATE BINARY ASC
	`, typeArgs()...)
	if err != nil {
		return nil, errs.Wrap(err, errs.CodeStoreDatabase, "list nodes: query")
	}
	defer rows.Close()

	nodes = []node.Node{}
	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}

	if err := rows.Err(); err != nil {
		return nil, errs.Wrap(err, errs.CodeStoreDatabase, "list nodes: iterate")
	}

	return nodes, nil
}

// CountByType returns the number of stored nodes per supported type.
// Types with no rows are reported as zero.
func (s *Store) CountByType(ctx context.Context) (map[node.Type]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT type, COUNT(*)
		FROM nodes
		WHERE `+typeFilter+`
		GROUP BY type
	`, typeArgs()...)
	if err != nil {
		return nil, errs.Wrap(err, errs.CodeStoreDatabase, "count nodes: query")
	}
	defer rows.Close()

	counts := make(map[node.Type]int, len(node.Types()))
	for _, t := range node.Types() {
		counts[t] = 0
	}
	for rows.Next() {
		var (
			t string
			n int
		)
		if err := rows.Scan(&t, &n); err != nil {
			return nil, errs.Wrap(err, errs.CodeStoreRowDecode, "count nodes: scan")
		}
		counts[node.Type(t)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Wrap(err, errs.CodeStoreDatabase, "count nodes: iterate")
	}

	return counts, nil
}

// scanNode decodes one row column by column. Values of the wrong storage
// class are reported rather than replaced with zero values.
func scanNode(rows *sql.Rows) (node.Node, error) {
	var raw [7]any
	if err := rows.Scan(&raw[0], &raw[1], &raw[2], &raw[3], &raw[4], &raw[5], &raw[6]); err != nil {
		return node.Node{}, errs.Wrap(err, errs.CodeStoreRowDecode, "scan node row")
	}

	var (
		n   node.Node
		err error
	)

	if n.ID, err = decodeText("id", raw[0]); err != nil {
		return node.Node{}, err
	}

	rowErr := func(err error) error {
		return errs.Wrap(err, errs.CodeStoreRowDecode, fmt.Sprintf("decode node %q", n.ID), errs.Field("id", n.ID))
	}

	typ, err := decodeText("type", raw[1])
	if err != nil {
		return node.Node{}, rowErr(err)
	}
	t, ok := node.NormalizeType(typ)
	if !ok {
		return node.Node{}, rowErr(fmt.Errorf("column type: unsupported value %q", typ))
	}
	n.Type = t

	if n.X, err = decodeReal("x", raw[2]); err != nil {
		return node.Node{}, rowErr(err)
	}
	if n.Y, err = decodeReal("y", raw[3]); err != nil {
		return node.Node{}, rowErr(err)
	}
	if n.Content, err = decodeText("content", raw[4]); err != nil {
		return node.Node{}, rowErr(err)
	}
	if n.Width, err = decodeOptionalReal("width", raw[5]); err != nil {
		return node.Node{}, rowErr(err)
	}
	if n.Height, err = decodeOptionalReal("height", raw[6]); err != nil {
		return node.Node{}, rowErr(err)
	}

	return n, nil
}

func decodeText(column string, v any) (string, error) {
	switch val := v.(type) {
	case string:
		return val, nil
	case []byte:
		return string(val), nil
	case nil:
		return "", errs.Errorf(errs.CodeStoreRowDecode, "column %s: unexpected NULL", column)
	default:
		return "", errs.Errorf(errs.CodeStoreRowDecode, "column %s: expected text, got %T", column, v)
	}
}

func decodeReal(column string, v any) (float64, error) {
	switch val := v.(type) {
	case float64:
		return val, nil
	case int64:
		return float64(val), nil
	case nil:
		return 0, errs.Errorf(errs.CodeStoreRowDecode, "column %s: unexpected NULL", column)
	default:
		return 0, errs.Errorf(errs.CodeStoreRowDecode, "column %s: expected number, got %T", column, v)
	}
}

func decodeOptionalReal(column string, v any) (*float64, error) {
	if v == nil {
		return nil, nil
	}
	f, err := decodeReal(column, v)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// placeholders returns "?, ?, ..." with n markers.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
