package store

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/nkanf-dev/CyberWeaver/internal/node"
	"github.com/nkanf-dev/CyberWeaver/internal/testutil"
)

// createTestStore creates a new file-backed store in a temp dir, stamped by a
// deterministic clock (1, 2, 3, ...).
func createTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	opts = append([]Option{WithClock(testutil.NewDeterministicClock())}, opts...)
	s, err := Open(path, opts...)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestPayload creates a payload with minimal required fields.
func createTestPayload(id string, typ node.Type, x, y float64) node.Payload {
	return node.Payload{
		ID:      id,
		Type:    string(typ),
		X:       x,
		Y:       y,
		Content: "content of " + id,
	}
}

// countRows counts every row in nodes, including ones reads would filter out.
func countRows(t *testing.T, s *Store) int {
	t.Helper()
	var n int
	if err := s.db.QueryRowContext(context.Background(), "SELECT COUNT(*) FROM nodes").Scan(&n); err != nil {
		t.Fatalf("count rows: %v", err)
	}
	return n
}

// listIDs returns the ids of ListNodes in order.
func listIDs(t *testing.T, s *Store) []string {
	t.Helper()
	nodes, err := s.ListNodes(context.Background())
	if err != nil {
		t.Fatalf("ListNodes() failed: %v", err)
	}
	ids := make([]string, len(nodes))
	for i, n := range nodes {
		ids[i] = n.ID
	}
	return ids
}

// verifyPragma checks that a pragma is set to the expected value.
func (s *Store) verifyPragma(name, expected string) error {
	var value string
	query := fmt.Sprintf("PRAGMA %s", name)
	if err := s.db.QueryRow(query).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}
