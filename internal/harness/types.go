package harness

import "github.com/nkanf-dev/CyberWeaver/internal/node"

// TraceEvent records one dispatched command and what came back.
type TraceEvent struct {
	Seq     int64       `json:"seq"`
	Command string      `json:"command"`
	Args    any         `json:"args,omitempty"`
	Status  string      `json:"status"`
	Error   string      `json:"error,omitempty"`
	Kind    string      `json:"kind,omitempty"`
	Nodes   []node.Node `json:"nodes,omitempty"`
}

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass is true if every expect clause and assertion held.
	Pass bool `json:"pass"`

	// Trace contains every flow command in execution order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains expectation and assertion failures.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Nodes is the store content after the flow, in list order.
	Nodes []node.Node `json:"nodes"`
}

// NewResult creates a new passing result.
// Used as the starting point for test execution.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
		Nodes:  []node.Node{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddTrace appends a dispatched command to the trace.
func (r *Result) AddTrace(event TraceEvent) {
	r.Trace = append(r.Trace, event)
}
