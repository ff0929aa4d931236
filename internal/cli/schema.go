package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/nkanf-dev/CyberWeaver/internal/store"
)

// SchemaInfo describes the live database layout.
type SchemaInfo struct {
	Path    string         `json:"path"`
	Version int            `json:"version"`
	Columns []store.Column `json:"columns"`
}

// NewSchemaCommand creates the schema command.
func NewSchemaCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Show the nodes table layout",
		Long: `Open the database, bringing an older layout up to date, and show the
schema version and the columns of the nodes table.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSchema(rootOpts, cmd)
		},
	}
}

func runSchema(opts *RootOptions, cmd *cobra.Command) error {
	e, err := openEnv(opts, cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	ctx := cmd.Context()
	version, err := e.store.SchemaVersion(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read schema version", err)
	}
	columns, err := e.store.Columns(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read columns", err)
	}

	info := SchemaInfo{Path: e.cfg.DatabasePath(), Version: version, Columns: columns}
	if opts.Format == "json" {
		f := newFormatter(opts, cmd)
		return f.Success(info)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Database: %s\n", info.Path)
	fmt.Fprintf(w, "Schema version: %d\n\n", info.Version)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "COLUMN\tTYPE\tNOT NULL\tDEFAULT\tPK")
	for _, c := range info.Columns {
		def := "-"
		if c.Default != nil {
			def = *c.Default
		}
		fmt.Fprintf(tw, "%s\t%s\t%t\t%s\t%t\n", c.Name, c.Type, c.NotNull, def, c.PK)
	}
	return tw.Flush()
}
