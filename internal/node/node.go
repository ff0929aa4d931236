// Package node defines the persisted diagram node and the pure functions that
// canonicalize and validate node payloads before any I/O happens.
//
// Nothing in this package touches the database or holds shared state.
package node

// IDPrefix is the namespace every persisted node id carries.
const IDPrefix = "shape:"

// Type is the closed set of persistable node types.
type Type string

const (
	TypeGeo  Type = "geo"
	TypeText Type = "text"
	TypeNote Type = "note"
)

// Types returns the closed set in a fixed order.
func Types() []Type {
	return []Type{TypeGeo, TypeText, TypeNote}
}

// Node is a persisted diagram element as returned by reads.
type Node struct {
	ID      string   `json:"id"`
	Type    Type     `json:"type"`
	X       float64  `json:"x"`
	Y       float64  `json:"y"`
	Content string   `json:"content"`
	Width   *float64 `json:"width,omitempty"`
	Height  *float64 `json:"height,omitempty"`
}

// Payload is a full node record supplied by a caller for upsert.
// Type stays a raw string so unsupported values can be reported back verbatim.
type Payload struct {
	ID      string   `json:"id" yaml:"id"`
	Type    string   `json:"type" yaml:"type"`
	X       float64  `json:"x" yaml:"x"`
	Y       float64  `json:"y" yaml:"y"`
	Content string   `json:"content" yaml:"content"`
	Width   *float64 `json:"width,omitempty" yaml:"width,omitempty"`
	Height  *float64 `json:"height,omitempty" yaml:"height,omitempty"`
}

// Float returns a pointer to v, for optional dimensions.
func Float(v float64) *float64 {
	return &v
}
