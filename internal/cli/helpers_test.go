package cli

import (
	"bytes"
	"path/filepath"
	"testing"
)

// cliRun executes the root command against the database at dbPath and
// returns stdout, stderr and the command error.
func cliRun(t *testing.T, dbPath string, args ...string) (string, string, error) {
	t.Helper()
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}

	cmd := NewRootCommand()
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetArgs(append([]string{"--db", dbPath}, args...))

	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

// tempDB returns a database path inside a fresh temp dir.
func tempDB(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "board.db")
}
