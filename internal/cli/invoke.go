package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nkanf-dev/CyberWeaver/internal/api"
)

// InvokeOptions holds flags for the invoke command.
type InvokeOptions struct {
	*RootOptions
	Args string
}

// NewInvokeCommand creates the invoke command.
func NewInvokeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InvokeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "invoke <command>",
		Short: "Dispatch a named command against the store",
		Long: fmt.Sprintf(`Dispatch a named command against the store and print its response.

The response is always JSON: {"status":"ok","data":...} on success or
{"status":"error","error":{"message":...}} on failure.

Commands: %s

Examples:
  cyberweaver invoke get_nodes
  cyberweaver invoke upsert_nodes --args '{"nodes":[{"id":"a","type":"geo","x":0,"y":0,"content":""}]}'
  cyberweaver invoke delete_nodes --args '{"ids":["a"]}'`, strings.Join(api.Commands(), ", ")),
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return invokeCommand(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Args, "args", "", "command arguments as JSON")

	return cmd
}

func invokeCommand(opts *InvokeOptions, name string, cmd *cobra.Command) error {
	e, err := openEnv(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	resp := e.service.Dispatch(cmd.Context(), name, json.RawMessage(opts.Args))

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(resp); err != nil {
		return err
	}

	if resp.Status != api.StatusOK {
		// The response on stdout already is the error envelope.
		exitErr := apiExitError(resp.Error)
		exitErr.reported = true
		return exitErr
	}
	return nil
}
