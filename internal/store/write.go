package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/nkanf-dev/CyberWeaver/internal/errs"
	"github.com/nkanf-dev/CyberWeaver/internal/node"
)

const upsertNodeSQL = `
	INSERT INTO nodes (id, type, x, y, content, width, height, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		type = excluded.type,
		x = excluded.x,
		y = excluded.y,
		content = excluded.content,
		width = excluded.width,
		height = excluded.height,
		updated_at = excluded.updated_at
`

// UpsertNodes inserts or wholesale-replaces a batch of nodes.
//
// Every payload is validated before the transaction opens; one invalid payload
// fails the call and nothing is written. The batch then runs in a single
// transaction in caller order, so a later entry for the same id wins. Any
// statement error rolls the whole batch back.
//
// An empty batch is a no-op.
func (s *Store) UpsertNodes(ctx context.Context, payloads []node.Payload) (err error) {
	if len(payloads) == 0 {
		return nil
	}

	start := time.Now()
	defer func() { s.metrics.observe("upsert", start, err) }()

	if err := node.ValidateBatch(payloads); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errs.Wrap(err, errs.CodeStoreDatabase, "upsert nodes: begin tx")
	}
	defer tx.Rollback() // No-op if committed

	stmt, err := tx.PrepareContext(ctx, upsertNodeSQL)
	if err != nil {
		return errs.Wrap(err, errs.CodeStoreDatabase, "upsert nodes: prepare")
	}
	defer stmt.Close()

	ids := make([]string, 0, len(payloads))
	for _, p := range payloads {
		nodeType, ok := node.NormalizeType(p.Type)
		if !ok {
			return node.ValidatePayload(p)
		}
		id := node.NormalizeShapeID(p.ID)

		_, err := stmt.ExecContext(ctx,
			id,
			string(nodeType),
			p.X,
			p.Y,
			p.Content,
			nullFloat(p.Width),
			nullFloat(p.Height),
			s.clock.Now(),
		)
		if err != nil {
			return errs.Wrap(err, errs.CodeStoreDatabase, "upsert nodes: write", errs.Field("id", id))
		}
		ids = append(ids, id)
	}

	if err := tx.Commit(); err != nil {
		return errs.Wrap(err, errs.CodeStoreDatabase, "upsert nodes: commit")
	}

	s.metrics.rowsWritten.Add(float64(len(ids)))
	s.logger.Debug("nodes upserted", "count", len(ids), "ids", ids)
	return nil
}

// DeleteNodes removes the nodes with the given ids. Ids are trimmed, blank ids
// dropped, and the rest prefixed and deduplicated before a single DELETE runs.
// Unknown ids are ignored.
//
// An input that normalizes to nothing is a no-op.
func (s *Store) DeleteNodes(ctx context.Context, ids []string) (err error) {
	normalized := node.NormalizeDeleteIDs(ids)
	if len(normalized) == 0 {
		return nil
	}

	start := time.Now()
	defer func() { s.metrics.observe("delete", start, err) }()

	args := make([]any, len(normalized))
	for i, id := range normalized {
		args[i] = id
	}

	result, err := s.db.ExecContext(ctx,
		"DELETE FROM nodes WHERE id IN ("+placeholders(len(normalized))+")",
		args...,
	)
	if err != nil {
		return errs.Wrap(err, errs.CodeStoreDatabase, "delete nodes")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return errs.Wrap(err, errs.CodeStoreDatabase, "delete nodes: rows affected")
	}

	s.metrics.rowsDeleted.Add(float64(affected))
	s.logger.Debug("nodes deleted", "requested", len(normalized), "deleted", affected)
	return nil
}

// CountNodes returns the number of stored nodes of a supported type.
func (s *Store) CountNodes(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM nodes WHERE "+typeFilter, typeArgs()...).Scan(&n)
	if err != nil {
		return 0, errs.Wrap(err, errs.CodeStoreDatabase, "count nodes")
	}
	return n, nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}
