package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/nkanf-dev/CyberWeaver/internal/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigFile string

	// viper carries --data-dir and --db into config resolution.
	viper *viper.Viper
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the CyberWeaver CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{viper: viper.New()})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cyberweaver",
		Short: "CyberWeaver - diagram node store",
		Long: `Manage the diagram nodes CyberWeaver persists in its local SQLite database.

Settings come from defaults, an optional config file (--config), CYBERWEAVER_*
environment variables and the --data-dir/--db flags, in increasing precedence.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return nil
		},
	}

	// Global flags
	flags := cmd.PersistentFlags()
	flags.BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	flags.StringVar(&opts.Format, "format", "text", "output format (json|text)")
	flags.StringVarP(&opts.ConfigFile, "config", "c", "", "path to config file")
	flags.String("data-dir", "", "directory holding the database (default: user config dir/CyberWeaver)")
	flags.String("db", "", "database file name or absolute path (default: cyberweaver.db, :memory: for a throwaway store)")

	// Flags only override config when set, so binding errors are programming errors.
	_ = opts.viper.BindPFlag(config.KeyDataDir, flags.Lookup("data-dir"))
	_ = opts.viper.BindPFlag(config.KeyDBFile, flags.Lookup("db"))

	// Add subcommands
	cmd.AddCommand(NewNodesCommand(opts))
	cmd.AddCommand(NewInvokeCommand(opts))
	cmd.AddCommand(NewSchemaCommand(opts))
	cmd.AddCommand(NewStatsCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// Execute runs the CLI with os.Args and returns the process exit code.
func Execute() int {
	return run(os.Args[1:], os.Stdout, os.Stderr)
}

// run executes the command line in args. Failures are rendered in the
// selected output format: a JSON error envelope on stdout for --format json,
// an "Error [code]" line on stderr otherwise.
func run(args []string, stdout, stderr io.Writer) int {
	opts := &RootOptions{viper: viper.New()}
	cmd := newRootCommand(opts)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	if err := cmd.Execute(); err != nil {
		f := &OutputFormatter{Format: opts.Format, Writer: stdout, ErrWriter: stderr, Verbose: opts.Verbose}
		if !isValidFormat(f.Format) {
			f.Format = "text"
		}
		f.Fail(err)
		return GetExitCode(err)
	}
	return ExitSuccess
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
