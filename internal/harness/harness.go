package harness

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/nkanf-dev/CyberWeaver/internal/api"
	"github.com/nkanf-dev/CyberWeaver/internal/node"
	"github.com/nkanf-dev/CyberWeaver/internal/store"
	"github.com/nkanf-dev/CyberWeaver/internal/testutil"
)

// Harness is the test execution engine.
// It runs scenarios against a private store with a deterministic clock.
type Harness struct {
	store   *store.Store
	service *api.Service
	logger  *slog.Logger
}

// Option configures Run.
type Option func(*runOptions)

type runOptions struct {
	logger *slog.Logger
}

// WithLogger routes store and service logs to l. Runs are silent by default.
func WithLogger(l *slog.Logger) Option {
	return func(o *runOptions) { o.logger = l }
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation, with
// updated_at stamps 1, 2, 3, ... so listing order is reproducible.
//
// Execution flow:
// 1. Create fresh in-memory database
// 2. Upsert setup nodes
// 3. Dispatch flow steps and check expect clauses
// 4. Evaluate assertions
// 5. Return result with pass/fail, trace, final nodes and errors
//
// An error is returned only when the scenario could not be executed at all;
// failed expectations are reported in Result.Errors.
func Run(scenario *Scenario, opts ...Option) (*Result, error) {
	o := runOptions{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(&o)
	}

	clock := testutil.NewDeterministicClock()
	st, err := store.OpenMemory(store.WithClock(clock), store.WithLogger(o.logger))
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	h := &Harness{
		store:   st,
		service: api.NewService(st, api.WithLogger(o.logger)),
		logger:  o.logger,
	}

	ctx := context.Background()

	if err := h.executeSetup(ctx, scenario.Setup); err != nil {
		return nil, fmt.Errorf("failed to execute setup: %w", err)
	}

	result := NewResult()
	if err := h.executeFlow(ctx, scenario.Flow, result); err != nil {
		return nil, fmt.Errorf("failed to execute flow: %w", err)
	}

	nodes, err := st.ListNodes(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read final nodes: %w", err)
	}
	result.Nodes = nodes

	actx := &AssertionContext{
		Nodes: nodes,
		Trace: result.Trace,
	}
	for _, msg := range EvaluateAssertions(scenario.Assertions, actx) {
		result.AddError(msg)
	}

	return result, nil
}

// executeSetup upserts the seed nodes as one batch.
func (h *Harness) executeSetup(ctx context.Context, setup []node.Payload) error {
	if len(setup) == 0 {
		return nil
	}
	if err := h.store.UpsertNodes(ctx, setup); err != nil {
		return err
	}
	h.logger.Debug("setup applied", "nodes", len(setup))
	return nil
}

// executeFlow dispatches each step through the api contract and checks its
// expect clause.
func (h *Harness) executeFlow(ctx context.Context, flow []FlowStep, result *Result) error {
	for i, step := range flow {
		var args json.RawMessage
		if step.Args != nil {
			raw, err := json.Marshal(step.Args)
			if err != nil {
				return fmt.Errorf("flow step %d: failed to encode args: %w", i, err)
			}
			args = raw
		}

		resp := h.service.Dispatch(ctx, step.Invoke, args)

		event := TraceEvent{
			Seq:     int64(i + 1),
			Command: step.Invoke,
			Status:  resp.Status,
		}
		if step.Args != nil {
			event.Args = step.Args
		}
		if resp.Error != nil {
			event.Error = resp.Error.Message
			event.Kind = string(resp.Error.Kind)
		}
		if nodes, ok := resp.Data.([]node.Node); ok {
			event.Nodes = nodes
		}
		result.AddTrace(event)

		for _, msg := range checkExpect(i, step, event) {
			result.AddError(msg)
		}
	}
	return nil
}

// checkExpect compares a step's response with its expect clause. A step with
// no clause must succeed.
func checkExpect(index int, step FlowStep, event TraceEvent) []string {
	expect := step.Expect
	if expect == nil {
		expect = &ExpectClause{Status: api.StatusOK}
	}

	var failures []string
	prefix := fmt.Sprintf("flow[%d] %s", index, step.Invoke)

	if event.Status != expect.Status {
		msg := fmt.Sprintf("%s: expected status %q, got %q", prefix, expect.Status, event.Status)
		if event.Error != "" {
			msg += fmt.Sprintf(" (error: %s)", event.Error)
		}
		return append(failures, msg)
	}
	if expect.Error != "" && event.Error != expect.Error {
		failures = append(failures, fmt.Sprintf("%s: expected error %q, got %q", prefix, expect.Error, event.Error))
	}
	if expect.Kind != "" && event.Kind != expect.Kind {
		failures = append(failures, fmt.Sprintf("%s: expected error kind %q, got %q", prefix, expect.Kind, event.Kind))
	}
	if expect.Count != nil && len(event.Nodes) != *expect.Count {
		failures = append(failures, fmt.Sprintf("%s: expected %d nodes, got %d", prefix, *expect.Count, len(event.Nodes)))
	}
	return failures
}
