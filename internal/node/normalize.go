package node

import (
	"sort"
	"strings"

	"github.com/google/uuid"
)

// NormalizeShapeID trims raw and prepends IDPrefix unless it is already there.
// It never rejects input; an empty id becomes the bare prefix.
func NormalizeShapeID(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if strings.HasPrefix(trimmed, IDPrefix) {
		return trimmed
	}
	return IDPrefix + trimmed
}

// NormalizeType maps the trimmed raw value onto the closed type set.
// Matching is exact: case variants and empty strings are unsupported.
func NormalizeType(raw string) (Type, bool) {
	switch strings.TrimSpace(raw) {
	case string(TypeGeo):
		return TypeGeo, true
	case string(TypeText):
		return TypeText, true
	case string(TypeNote):
		return TypeNote, true
	default:
		return "", false
	}
}

// NormalizeDeleteIDs turns caller ids into the set of stored ids to delete.
// Blank ids are dropped, the rest are prefixed and deduplicated. The result is
// sorted so the delete set does not depend on caller order.
func NormalizeDeleteIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		trimmed := strings.TrimSpace(id)
		if trimmed == "" {
			continue
		}
		normalized := NormalizeShapeID(trimmed)
		if _, ok := seen[normalized]; ok {
			continue
		}
		seen[normalized] = struct{}{}
		out = append(out, normalized)
	}
	sort.Strings(out)
	return out
}

// NewShapeID returns a fresh prefixed id backed by a time-sortable UUIDv7.
func NewShapeID() string {
	return IDPrefix + uuid.Must(uuid.NewV7()).String()
}
