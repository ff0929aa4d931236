package node

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nkanf-dev/CyberWeaver/internal/errs"
)

func validPayload() Payload {
	return Payload{
		ID:      "shape:x",
		Type:    "geo",
		X:       1,
		Y:       2,
		Content: "",
	}
}

func TestNormalizeShapeID(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"artifact-1", "shape:artifact-1"},
		{"shape:artifact-1", "shape:artifact-1"},
		{"  artifact-1  ", "shape:artifact-1"},
		{"  shape:artifact-1\t", "shape:artifact-1"},
		{"", "shape:"},
		{"   ", "shape:"},
		{"Shape:x", "shape:Shape:x"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeShapeID(tt.raw))
		})
	}
}

func TestNormalizeShapeID_Idempotent(t *testing.T) {
	once := NormalizeShapeID("abc")
	assert.Equal(t, once, NormalizeShapeID(once))
}

func TestNormalizeType(t *testing.T) {
	tests := []struct {
		raw    string
		want   Type
		wantOK bool
	}{
		{"geo", TypeGeo, true},
		{"text", TypeText, true},
		{"note", TypeNote, true},
		{" note ", TypeNote, true},
		{"Geo", "", false},
		{"TEXT", "", false},
		{"draw", "", false},
		{"", "", false},
		{"   ", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := NormalizeType(tt.raw)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTypes_ClosedSet(t *testing.T) {
	assert.Equal(t, []Type{TypeGeo, TypeText, TypeNote}, Types())
}

func TestValidatePayload_Accepts(t *testing.T) {
	p := validPayload()
	require.NoError(t, ValidatePayload(p))

	p.Width = Float(200)
	p.Height = Float(0.5)
	require.NoError(t, ValidatePayload(p))

	p.X, p.Y = -1e9, 1e9
	require.NoError(t, ValidatePayload(p))
}

func TestValidatePayload_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(p *Payload)
		field   string
		message string
	}{
		{"empty id", func(p *Payload) { p.ID = "" }, "id", "node.id must not be empty"},
		{"blank id", func(p *Payload) { p.ID = "  \t" }, "id", "node.id must not be empty"},
		{"unknown type", func(p *Payload) { p.Type = "draw" }, "type", "unsupported node type: draw"},
		{"empty type", func(p *Payload) { p.Type = "" }, "type", "unsupported node type: "},
		{"NaN x", func(p *Payload) { p.X = math.NaN() }, "coordinates", "node coordinates must be finite numbers"},
		{"Inf y", func(p *Payload) { p.Y = math.Inf(1) }, "coordinates", "node coordinates must be finite numbers"},
		{"-Inf x", func(p *Payload) { p.X = math.Inf(-1) }, "coordinates", "node coordinates must be finite numbers"},
		{"zero width", func(p *Payload) { p.Width = Float(0) }, "width", "node.width must be a positive finite number when provided"},
		{"negative width", func(p *Payload) { p.Width = Float(-5) }, "width", "node.width must be a positive finite number when provided"},
		{"NaN width", func(p *Payload) { p.Width = Float(math.NaN()) }, "width", "node.width must be a positive finite number when provided"},
		{"zero height", func(p *Payload) { p.Height = Float(0) }, "height", "node.height must be a positive finite number when provided"},
		{"Inf height", func(p *Payload) { p.Height = Float(math.Inf(1)) }, "height", "node.height must be a positive finite number when provided"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validPayload()
			tt.mutate(&p)

			err := ValidatePayload(p)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.message)
			assert.True(t, errs.IsValidation(err))
			assert.Equal(t, tt.field, errs.FieldsOf(err)["field"])
		})
	}
}

func TestValidatePayload_CheckOrder(t *testing.T) {
	// Every check fails; the id check comes first.
	p := Payload{ID: "", Type: "draw", X: math.NaN(), Width: Float(-1), Height: Float(0)}
	err := ValidatePayload(p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "node.id must not be empty")

	p.ID = "a"
	err = ValidatePayload(p)
	assert.Contains(t, err.Error(), "unsupported node type")

	p.Type = "text"
	err = ValidatePayload(p)
	assert.Contains(t, err.Error(), "coordinates")

	p.X = 0
	err = ValidatePayload(p)
	assert.Contains(t, err.Error(), "node.width")

	p.Width = nil
	err = ValidatePayload(p)
	assert.Contains(t, err.Error(), "node.height")
}

func TestValidateBatch_FirstFailureVerbatim(t *testing.T) {
	bad := validPayload()
	bad.Type = "draw"

	err := ValidateBatch([]Payload{validPayload(), bad, {ID: ""}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported node type: draw")
	assert.False(t, strings.Contains(err.Error(), "node.id"))

	require.NoError(t, ValidateBatch(nil))
}

func TestNormalizeDeleteIDs(t *testing.T) {
	got := NormalizeDeleteIDs([]string{"b", " shape:a ", "", "   ", "shape:b", "a", "c"})
	assert.Equal(t, []string{"shape:a", "shape:b", "shape:c"}, got)
}

func TestNormalizeDeleteIDs_Empty(t *testing.T) {
	assert.Empty(t, NormalizeDeleteIDs(nil))
	assert.Empty(t, NormalizeDeleteIDs([]string{"", " ", "\n"}))
}

func TestNormalizeDeleteIDs_OrderIndependent(t *testing.T) {
	a := NormalizeDeleteIDs([]string{"x", "y", "z"})
	b := NormalizeDeleteIDs([]string{"z", "shape:y", "x", "x"})
	assert.Equal(t, a, b)
}

func TestNewShapeID(t *testing.T) {
	a := NewShapeID()
	b := NewShapeID()

	assert.True(t, strings.HasPrefix(a, IDPrefix))
	assert.Len(t, a, len(IDPrefix)+36)
	assert.NotEqual(t, a, b)
	assert.Equal(t, a, NormalizeShapeID(a))
}
