package harness

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/nkanf-dev/CyberWeaver/internal/node"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, event := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s -> %s", event.Seq, event.Command, event.Status)
			if event.Error != "" {
				fmt.Fprintf(&buf, " (%s)", event.Error)
			}
			buf.WriteByte('\n')
		}
	}

	return buf.String()
}

// AssertionContext holds what assertions are evaluated against.
type AssertionContext struct {
	Nodes []node.Node
	Trace []TraceEvent
}

// EvaluateAssertions runs every assertion and returns the failure messages.
func EvaluateAssertions(assertions []Assertion, actx *AssertionContext) []string {
	var failures []string
	for _, a := range assertions {
		var err error
		switch a.Type {
		case AssertNodeCount:
			err = assertNodeCount(actx, a)
		case AssertNodeOrder:
			err = assertNodeOrder(actx, a)
		case AssertNodeState:
			err = assertNodeState(actx, a)
		case AssertNodeAbsent:
			err = assertNodeAbsent(actx, a)
		case AssertTraceCount:
			err = assertTraceCount(actx, a)
		default:
			err = fmt.Errorf("unknown assertion type: %s", a.Type)
		}
		if err != nil {
			failures = append(failures, err.Error())
		}
	}
	return failures
}

func assertNodeCount(actx *AssertionContext, a Assertion) error {
	if len(actx.Nodes) == a.Count {
		return nil
	}
	return &AssertionError{
		Type:     AssertNodeCount,
		Expected: fmt.Sprintf("%d nodes", a.Count),
		Actual:   fmt.Sprintf("%d nodes %v", len(actx.Nodes), nodeIDs(actx.Nodes)),
		Trace:    actx.Trace,
	}
}

// assertNodeOrder requires the listing to be exactly the given ids.
func assertNodeOrder(actx *AssertionContext, a Assertion) error {
	want := make([]string, len(a.IDs))
	for i, id := range a.IDs {
		want[i] = node.NormalizeShapeID(id)
	}
	got := nodeIDs(actx.Nodes)

	if reflect.DeepEqual(want, got) {
		return nil
	}
	return &AssertionError{
		Type:     AssertNodeOrder,
		Expected: fmt.Sprintf("%v", want),
		Actual:   fmt.Sprintf("%v", got),
		Trace:    actx.Trace,
	}
}

// assertNodeState checks the listed fields of one node (subset match).
func assertNodeState(actx *AssertionContext, a Assertion) error {
	id := node.NormalizeShapeID(a.ID)
	n, ok := findNode(actx.Nodes, id)
	if !ok {
		return &AssertionError{
			Type:     AssertNodeState,
			Expected: fmt.Sprintf("node %s to exist", id),
			Actual:   fmt.Sprintf("not found in %v", nodeIDs(actx.Nodes)),
			Trace:    actx.Trace,
		}
	}

	actual, err := toGeneric(n)
	if err != nil {
		return fmt.Errorf("node_state %s: %w", id, err)
	}
	fields, _ := actual.(map[string]any)

	keys := make([]string, 0, len(a.Expect))
	for k := range a.Expect {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var mismatches []string
	for _, key := range keys {
		want, err := toGeneric(a.Expect[key])
		if err != nil {
			return fmt.Errorf("node_state %s: field %s: %w", id, key, err)
		}
		got, present := fields[key]
		if !present {
			got = nil
		}
		if !reflect.DeepEqual(want, got) {
			mismatches = append(mismatches, fmt.Sprintf("%s: want %v, got %v", key, want, got))
		}
	}
	if len(mismatches) == 0 {
		return nil
	}
	return &AssertionError{
		Type:     AssertNodeState,
		Expected: fmt.Sprintf("node %s with %v", id, a.Expect),
		Actual:   strings.Join(mismatches, "; "),
		Trace:    actx.Trace,
	}
}

func assertNodeAbsent(actx *AssertionContext, a Assertion) error {
	id := node.NormalizeShapeID(a.ID)
	if _, ok := findNode(actx.Nodes, id); !ok {
		return nil
	}
	return &AssertionError{
		Type:     AssertNodeAbsent,
		Expected: fmt.Sprintf("node %s to be absent", id),
		Actual:   "node exists",
		Trace:    actx.Trace,
	}
}

func assertTraceCount(actx *AssertionContext, a Assertion) error {
	count := 0
	for _, event := range actx.Trace {
		if event.Command == a.Command {
			count++
		}
	}
	if count == a.Count {
		return nil
	}
	return &AssertionError{
		Type:     AssertTraceCount,
		Expected: fmt.Sprintf("%s dispatched %d times", a.Command, a.Count),
		Actual:   fmt.Sprintf("dispatched %d times", count),
		Trace:    actx.Trace,
	}
}

func findNode(nodes []node.Node, id string) (node.Node, bool) {
	for _, n := range nodes {
		if n.ID == id {
			return n, true
		}
	}
	return node.Node{}, false
}

func nodeIDs(nodes []node.Node) []string {
	ids := make([]string, len(nodes))
	for i, n := range nodes {
		ids[i] = n.ID
	}
	return ids
}

// toGeneric round-trips v through JSON so YAML ints and node float64s
// compare equal.
func toGeneric(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}
