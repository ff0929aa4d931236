package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nkanf-dev/CyberWeaver/internal/node"
)

// Stats summarizes what is stored.
type Stats struct {
	Total  int            `json:"total"`
	ByType map[string]int `json:"by_type"`
}

// NewStatsCommand creates the stats command.
func NewStatsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "stats",
		Short:         "Count stored nodes by type",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(rootOpts, cmd)
		},
	}
}

func runStats(opts *RootOptions, cmd *cobra.Command) error {
	e, err := openEnv(opts, cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	ctx := cmd.Context()
	total, err := e.store.CountNodes(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to count nodes", err)
	}
	counts, err := e.store.CountByType(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to count nodes", err)
	}

	stats := Stats{Total: total, ByType: make(map[string]int, len(counts))}
	for t, n := range counts {
		stats.ByType[string(t)] = n
	}

	if opts.Format == "json" {
		f := newFormatter(opts, cmd)
		return f.Success(stats)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Total: %d\n", stats.Total)
	for _, t := range node.Types() {
		fmt.Fprintf(w, "  %-5s %d\n", t, stats.ByType[string(t)])
	}
	return nil
}
