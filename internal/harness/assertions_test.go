package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nkanf-dev/CyberWeaver/internal/node"
)

func testContext() *AssertionContext {
	return &AssertionContext{
		Nodes: []node.Node{
			{ID: "shape:a", Type: node.TypeGeo, X: 1, Y: 2, Content: "A", Width: node.Float(10)},
			{ID: "shape:b", Type: node.TypeNote, X: 0, Y: 0, Content: "B"},
		},
		Trace: []TraceEvent{
			{Seq: 1, Command: "upsert_nodes", Status: "ok"},
			{Seq: 2, Command: "upsert_nodes", Status: "error", Error: "boom"},
			{Seq: 3, Command: "get_nodes", Status: "ok"},
		},
	}
}

func TestEvaluateAssertions_Pass(t *testing.T) {
	failures := EvaluateAssertions([]Assertion{
		{Type: AssertNodeCount, Count: 2},
		{Type: AssertNodeOrder, IDs: []string{"a", "shape:b"}},
		{Type: AssertNodeState, ID: "a", Expect: map[string]any{"type": "geo", "x": 1, "width": 10, "content": "A"}},
		{Type: AssertNodeState, ID: "b", Expect: map[string]any{"width": nil}},
		{Type: AssertNodeAbsent, ID: "c"},
		{Type: AssertTraceCount, Command: "upsert_nodes", Count: 2},
		{Type: AssertTraceCount, Command: "delete_nodes", Count: 0},
	}, testContext())

	assert.Empty(t, failures)
}

func TestEvaluateAssertions_Failures(t *testing.T) {
	tests := []struct {
		name      string
		assertion Assertion
		want      string
	}{
		{"count", Assertion{Type: AssertNodeCount, Count: 3}, "Expected: 3 nodes"},
		{"order", Assertion{Type: AssertNodeOrder, IDs: []string{"b", "a"}}, "Actual: [shape:a shape:b]"},
		{"order prefix", Assertion{Type: AssertNodeOrder, IDs: []string{"a"}}, "Expected: [shape:a]"},
		{"state missing", Assertion{Type: AssertNodeState, ID: "zzz", Expect: map[string]any{"x": 0}}, "node shape:zzz to exist"},
		{"state mismatch", Assertion{Type: AssertNodeState, ID: "a", Expect: map[string]any{"x": 2}}, "x: want 2, got 1"},
		{"absent", Assertion{Type: AssertNodeAbsent, ID: "b"}, "node shape:b to be absent"},
		{"trace count", Assertion{Type: AssertTraceCount, Command: "get_nodes", Count: 2}, "dispatched 1 times"},
		{"unknown", Assertion{Type: "nope"}, "unknown assertion type: nope"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			failures := EvaluateAssertions([]Assertion{tt.assertion}, testContext())
			require.Len(t, failures, 1)
			assert.Contains(t, failures[0], tt.want)
		})
	}
}

func TestAssertionError_IncludesTrace(t *testing.T) {
	err := &AssertionError{
		Type:     AssertNodeCount,
		Expected: "1 nodes",
		Actual:   "0 nodes",
		Trace:    testContext().Trace,
	}

	msg := err.Error()
	assert.Contains(t, msg, "Assertion failed: node_count")
	assert.Contains(t, msg, "[2] upsert_nodes -> error (boom)")
	assert.Contains(t, msg, "[3] get_nodes -> ok")
}
