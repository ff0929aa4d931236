package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func compact(t *testing.T, v any) string {
	t.Helper()
	data, err := marshalSnapshot(v)
	require.NoError(t, err)
	return string(data)
}

func TestMarshalSnapshot_SortedKeys(t *testing.T) {
	got := compact(t, map[string]any{"z": 1, "a": map[string]any{"y": true, "b": nil}})
	want := "{\n  \"a\": {\n    \"b\": null,\n    \"y\": true\n  },\n  \"z\": 1\n}\n"
	assert.Equal(t, want, got)
}

func TestMarshalSnapshot_NoHTMLEscape(t *testing.T) {
	assert.Equal(t, "\"a < b && c > d\"\n", compact(t, "a < b && c > d"))
}

func TestMarshalSnapshot_NFC(t *testing.T) {
	// "e" + combining acute accent normalizes to U+00E9.
	assert.Equal(t, "\"caf\u00e9\"\n", compact(t, "cafe\u0301"))
	assert.Equal(t, "{\n  \"\u00e9\": 1\n}\n", compact(t, map[string]any{"e\u0301": 1}))
}

func TestMarshalSnapshot_EmptyContainers(t *testing.T) {
	assert.Equal(t, "{\n  \"l\": [],\n  \"m\": {}\n}\n", compact(t, map[string]any{"l": []int{}, "m": map[string]int{}}))
}

func TestSortUTF16(t *testing.T) {
	// U+1F600 is a surrogate pair (D83D DE00) and sorts before U+FFFD in UTF-16.
	keys := []string{"\uFFFD", "\U0001F600", "a"}
	sortUTF16(keys)
	assert.Equal(t, []string{"a", "\U0001F600", "\uFFFD"}, keys)
}
