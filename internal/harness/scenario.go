package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/nkanf-dev/CyberWeaver/internal/api"
	"github.com/nkanf-dev/CyberWeaver/internal/node"
)

// Scenario is a scripted sequence of commands against a fresh store,
// followed by assertions on what the store holds afterwards.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Setup nodes are upserted as one batch before the flow and must be valid.
	Setup []node.Payload `yaml:"setup,omitempty"`

	// Flow contains the commands to dispatch, in order.
	Flow []FlowStep `yaml:"flow"`

	// Assertions validate the final store content and the trace.
	Assertions []Assertion `yaml:"assertions"`
}

// FlowStep dispatches one command.
type FlowStep struct {
	// Invoke is the command name (get_nodes, upsert_nodes, delete_nodes).
	Invoke string `yaml:"invoke"`

	// Args are the command arguments, sent as a JSON object.
	Args map[string]any `yaml:"args,omitempty"`

	// Expect specifies the expected response.
	// If nil, the step must succeed.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// ExpectClause specifies the expected response of a step.
type ExpectClause struct {
	// Status is "ok" or "error".
	Status string `yaml:"status"`

	// Error is the exact expected message (error status only).
	Error string `yaml:"error,omitempty"`

	// Kind is the expected error kind: validation, schema or store.
	Kind string `yaml:"kind,omitempty"`

	// Count is the expected number of nodes returned by get_nodes.
	Count *int `yaml:"count,omitempty"`
}

// Assertion validates the final state or the trace.
type Assertion struct {
	// Type specifies the assertion type:
	// - "node_count": the store holds exactly Count nodes
	// - "node_order": listing returns exactly IDs, in order
	// - "node_state": node ID exists and its fields match Expect (subset)
	// - "node_absent": node ID does not exist
	// - "trace_count": Command was dispatched exactly Count times
	Type string `yaml:"type"`

	// ID is the node id (node_state, node_absent). The shape: prefix is optional.
	ID string `yaml:"id,omitempty"`

	// IDs is the expected listing order (node_order).
	IDs []string `yaml:"ids,omitempty"`

	// Expect contains expected field values (node_state).
	Expect map[string]any `yaml:"expect,omitempty"`

	// Command is the command name (trace_count).
	Command string `yaml:"command,omitempty"`

	// Count is the expected number (node_count, trace_count).
	Count int `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertNodeCount  = "node_count"
	AssertNodeOrder  = "node_order"
	AssertNodeState  = "node_state"
	AssertNodeAbsent = "node_absent"
	AssertTraceCount = "trace_count"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Parse YAML with strict field validation (catches typos like "assertion:" vs "assertions:")
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// FindScenarios returns the .yaml and .yml files directly inside dir, sorted.
func FindScenarios(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".yaml", ".yml":
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(paths)
	return paths, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Flow) == 0 {
		return fmt.Errorf("flow list is required and must be non-empty")
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	known := make(map[string]bool)
	for _, name := range api.Commands() {
		known[name] = true
	}

	for i, step := range s.Flow {
		if step.Invoke == "" {
			return fmt.Errorf("flow[%d]: invoke is required", i)
		}
		if step.Expect != nil {
			switch step.Expect.Status {
			case api.StatusOK, api.StatusError:
			case "":
				return fmt.Errorf("flow[%d].expect: status is required", i)
			default:
				return fmt.Errorf("flow[%d].expect: status must be %q or %q, got %q", i, api.StatusOK, api.StatusError, step.Expect.Status)
			}
			if step.Expect.Status == api.StatusOK && (step.Expect.Error != "" || step.Expect.Kind != "") {
				return fmt.Errorf("flow[%d].expect: error and kind require status %q", i, api.StatusError)
			}
			if step.Expect.Count != nil && step.Invoke != api.CommandGetNodes {
				return fmt.Errorf("flow[%d].expect: count is only valid for %s", i, api.CommandGetNodes)
			}
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion, known); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion, commands map[string]bool) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertNodeCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for node_count", index)
		}
	case AssertNodeOrder:
		if a.IDs == nil {
			return fmt.Errorf("assertions[%d]: ids list is required for node_order (use [] for none)", index)
		}
	case AssertNodeState:
		if strings.TrimSpace(a.ID) == "" {
			return fmt.Errorf("assertions[%d]: id is required for node_state", index)
		}
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for node_state", index)
		}
	case AssertNodeAbsent:
		if strings.TrimSpace(a.ID) == "" {
			return fmt.Errorf("assertions[%d]: id is required for node_absent", index)
		}
	case AssertTraceCount:
		if !commands[a.Command] {
			return fmt.Errorf("assertions[%d]: unknown command %q for trace_count", index, a.Command)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
