package node

import (
	"fmt"
	"math"
	"strings"

	"github.com/nkanf-dev/CyberWeaver/internal/errs"
)

// ValidatePayload rejects malformed payloads. Checks run in a fixed order
// (id, type, coordinates, width, height) and the first failure is returned.
func ValidatePayload(p Payload) error {
	if strings.TrimSpace(p.ID) == "" {
		return invalid("id", "node.id must not be empty")
	}

	if _, ok := NormalizeType(p.Type); !ok {
		return invalid("type", fmt.Sprintf("unsupported node type: %s", p.Type))
	}

	if !isFinite(p.X) || !isFinite(p.Y) {
		return invalid("coordinates", "node coordinates must be finite numbers")
	}

	if !validDimension(p.Width) {
		return invalid("width", "node.width must be a positive finite number when provided")
	}

	if !validDimension(p.Height) {
		return invalid("height", "node.height must be a positive finite number when provided")
	}

	return nil
}

// ValidateBatch validates payloads in order and returns the first failure
// unchanged, so its message reaches the caller verbatim.
func ValidateBatch(payloads []Payload) error {
	for _, p := range payloads {
		if err := ValidatePayload(p); err != nil {
			return err
		}
	}
	return nil
}

func invalid(field, msg string) error {
	return errs.New(errs.CodeNodeInvalidInput, msg, errs.Field("field", field))
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// validDimension accepts an absent value or a strictly positive finite one.
func validDimension(v *float64) bool {
	if v == nil {
		return true
	}
	return isFinite(*v) && *v > 0
}
