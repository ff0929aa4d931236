package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemaText(t *testing.T) {
	db := tempDB(t)

	out, _, err := cliRun(t, db, "schema")
	require.NoError(t, err)
	assert.Contains(t, out, "Database: "+db)
	assert.Contains(t, out, "Schema version: 1")
	for _, col := range []string{"id", "type", "x", "y", "content", "width", "height", "updated_at"} {
		assert.Contains(t, out, col)
	}
}

func TestSchemaJSON(t *testing.T) {
	out, _, err := cliRun(t, tempDB(t), "--format", "json", "schema")
	require.NoError(t, err)

	var resp struct {
		Data SchemaInfo `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, 1, resp.Data.Version)
	require.Len(t, resp.Data.Columns, 8)
	assert.Equal(t, "id", resp.Data.Columns[0].Name)
	assert.True(t, resp.Data.Columns[0].PK)
	assert.Equal(t, "updated_at", resp.Data.Columns[7].Name)
	require.NotNil(t, resp.Data.Columns[7].Default)
	assert.Equal(t, "0", *resp.Data.Columns[7].Default)
}
