// Package harness runs YAML scenarios against a fresh in-memory node store.
//
// Every flow step goes through api.Service.Dispatch, the same contract the
// presentation layer uses, so scenarios exercise real validation, upsert and
// delete behavior.
//
// # Scenario Format
//
//	name: write_ordering
//	description: "What this scenario validates"
//	setup:
//	  - {id: keep, type: note, x: 1, y: 1, content: kept}
//	flow:
//	  - invoke: upsert_nodes
//	    args:
//	      nodes:
//	        - {id: a, type: geo, x: 0, y: 0, content: A}
//	  - invoke: upsert_nodes
//	    args: {nodes: [{id: b, type: draw, x: 0, y: 0, content: ""}]}
//	    expect:
//	      status: error
//	      error: "unsupported node type: draw"
//	      kind: validation
//	assertions:
//	  - type: node_order
//	    ids: [keep, a]
//	  - type: node_state
//	    id: a
//	    expect: {type: geo, content: A}
//
// # Assertion Types
//
//   - node_count: the store holds exactly count nodes
//   - node_order: listing returns exactly ids, in order
//   - node_state: a node exists and the listed fields match
//   - node_absent: a node does not exist
//   - trace_count: a command was dispatched exactly count times
//
// # Deterministic Testing
//
// Writes are stamped by testutil.DeterministicClock (1, 2, 3, ...) and each
// scenario gets its own in-memory database, so listing order and golden
// snapshots are identical across runs.
package harness
