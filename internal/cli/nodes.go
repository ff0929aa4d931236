package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/nkanf-dev/CyberWeaver/internal/batchfile"
	"github.com/nkanf-dev/CyberWeaver/internal/node"
)

// NodesOptions holds flags for the nodes subcommands.
type NodesOptions struct {
	*RootOptions

	// add
	ID      string
	Type    string
	X       float64
	Y       float64
	Content string
	Width   float64
	Height  float64

	ImportFormat string
	ExportFormat string
	Output       string
}

// NewNodesCommand creates the nodes command group.
func NewNodesCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &NodesOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "nodes",
		Short: "List, add, delete, import and export diagram nodes",
	}

	cmd.AddCommand(newNodesListCommand(opts))
	cmd.AddCommand(newNodesAddCommand(opts))
	cmd.AddCommand(newNodesDeleteCommand(opts))
	cmd.AddCommand(newNodesImportCommand(opts))
	cmd.AddCommand(newNodesExportCommand(opts))

	return cmd
}

func newNodesListCommand(opts *NodesOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "list",
		Short:         "List stored nodes, oldest write first",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNodesList(opts, cmd)
		},
	}
}

func newNodesAddCommand(opts *NodesOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create or replace a single node",
		Long: `Create or replace a single node.

Without --id a fresh shape id is generated. Ids without the "shape:" prefix
are prefixed before they are stored.

Examples:
  cyberweaver nodes add --type geo --x 10 --y 20 --width 120 --height 60
  cyberweaver nodes add --id title --type text --x 0 --y 0 --content "Roadmap"`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNodesAdd(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.ID, "id", "", "node id (default: generated)")
	cmd.Flags().StringVar(&opts.Type, "type", "", "node type (geo|text|note)")
	cmd.Flags().Float64Var(&opts.X, "x", 0, "x coordinate")
	cmd.Flags().Float64Var(&opts.Y, "y", 0, "y coordinate")
	cmd.Flags().StringVar(&opts.Content, "content", "", "text content")
	cmd.Flags().Float64Var(&opts.Width, "width", 0, "width (omitted when unset)")
	cmd.Flags().Float64Var(&opts.Height, "height", 0, "height (omitted when unset)")
	_ = cmd.MarkFlagRequired("type")

	return cmd
}

func newNodesDeleteCommand(opts *NodesOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "delete <id>...",
		Short:         "Delete nodes by id; unknown ids are ignored",
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNodesDelete(opts, args, cmd)
		},
	}
}

func newNodesImportCommand(opts *NodesOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Apply a batch file of nodes and deletions",
		Long: `Apply a batch file: every node in "nodes" is upserted as one atomic batch,
then the ids in "delete" are removed.

The format follows the file extension (.json, .yaml, .yml, .cue) unless
--batch-format is given.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNodesImport(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.ImportFormat, "batch-format", "", "batch file format (json|yaml|cue)")

	return cmd
}

func newNodesExportCommand(opts *NodesOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "export",
		Short:         "Write every node as a batch file that import can replay",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNodesExport(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.ExportFormat, "batch-format", "json", "batch file format (json|yaml|cue)")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file (default: stdout)")

	return cmd
}

func runNodesList(opts *NodesOptions, cmd *cobra.Command) error {
	e, err := openEnv(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	nodes, apiErr := e.service.GetNodes(cmd.Context())
	if apiErr != nil {
		return apiExitError(apiErr)
	}

	if opts.Format == "json" {
		f := newFormatter(opts.RootOptions, cmd)
		return f.Success(nodes)
	}

	w := cmd.OutOrStdout()
	if len(nodes) == 0 {
		fmt.Fprintln(w, "No nodes.")
		return nil
	}
	writeNodeTable(w, nodes)
	return nil
}

func writeNodeTable(w io.Writer, nodes []node.Node) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTYPE\tX\tY\tW\tH\tCONTENT")
	for _, n := range nodes {
		fmt.Fprintf(tw, "%s\t%s\t%g\t%g\t%s\t%s\t%s\n",
			n.ID, n.Type, n.X, n.Y, optional(n.Width), optional(n.Height), oneLine(n.Content))
	}
	tw.Flush()
}

func optional(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%g", *v)
}

func oneLine(s string) string {
	return strings.ReplaceAll(s, "\n", `\n`)
}

func runNodesAdd(opts *NodesOptions, cmd *cobra.Command) error {
	payload := node.Payload{
		ID:      opts.ID,
		Type:    opts.Type,
		X:       opts.X,
		Y:       opts.Y,
		Content: opts.Content,
	}
	if payload.ID == "" {
		payload.ID = node.NewShapeID()
	}
	if cmd.Flags().Changed("width") {
		payload.Width = node.Float(opts.Width)
	}
	if cmd.Flags().Changed("height") {
		payload.Height = node.Float(opts.Height)
	}

	e, err := openEnv(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	if apiErr := e.service.UpsertNodes(cmd.Context(), []node.Payload{payload}); apiErr != nil {
		return apiExitError(apiErr)
	}

	id := node.NormalizeShapeID(payload.ID)
	f := newFormatter(opts.RootOptions, cmd)
	if opts.Format == "json" {
		return f.Success(map[string]string{"id": id})
	}
	return f.Success(id)
}

func runNodesDelete(opts *NodesOptions, ids []string, cmd *cobra.Command) error {
	e, err := openEnv(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	if apiErr := e.service.DeleteNodes(cmd.Context(), ids); apiErr != nil {
		return apiExitError(apiErr)
	}

	deleted := node.NormalizeDeleteIDs(ids)
	f := newFormatter(opts.RootOptions, cmd)
	if opts.Format == "json" {
		return f.Success(map[string][]string{"ids": deleted})
	}
	return f.Success(fmt.Sprintf("Deleted %d id(s)", len(deleted)))
}

// ImportResult summarizes an applied batch file.
type ImportResult struct {
	File     string `json:"file"`
	Upserted int    `json:"upserted"`
	Deleted  int    `json:"deleted"`
}

func runNodesImport(opts *NodesOptions, path string, cmd *cobra.Command) error {
	batch, err := loadBatch(path, opts.ImportFormat)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to read batch file", err)
	}
	f := newFormatter(opts.RootOptions, cmd)
	f.VerboseLog("loaded %s: %d node(s), %d delete id(s)", path, len(batch.Nodes), len(batch.Delete))

	e, err := openEnv(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	if err := applyBatch(cmd.Context(), e, batch); err != nil {
		return err
	}

	result := ImportResult{
		File:     path,
		Upserted: len(batch.Nodes),
		Deleted:  len(node.NormalizeDeleteIDs(batch.Delete)),
	}
	if opts.Format == "json" {
		return f.Success(result)
	}
	return f.Success(fmt.Sprintf("Imported %s: %d upserted, %d deleted", path, result.Upserted, result.Deleted))
}

func loadBatch(path, formatName string) (*batchfile.Batch, error) {
	if formatName == "" {
		return batchfile.Load(path)
	}
	format, err := batchfile.ParseFormat(formatName)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return batchfile.Parse(data, format, path)
}

// applyBatch upserts then deletes. The upsert is atomic on its own; a failed
// upsert skips the deletions.
func applyBatch(ctx context.Context, e *env, batch *batchfile.Batch) error {
	if batch.Empty() {
		e.logger.Debug("batch is empty")
		return nil
	}
	if apiErr := e.service.UpsertNodes(ctx, batch.Nodes); apiErr != nil {
		return apiExitError(apiErr)
	}
	if apiErr := e.service.DeleteNodes(ctx, batch.Delete); apiErr != nil {
		return apiExitError(apiErr)
	}
	return nil
}

func runNodesExport(opts *NodesOptions, cmd *cobra.Command) error {
	format, err := batchfile.ParseFormat(opts.ExportFormat)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid --batch-format", err)
	}

	e, err := openEnv(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	nodes, apiErr := e.service.GetNodes(cmd.Context())
	if apiErr != nil {
		return apiExitError(apiErr)
	}

	data, err := batchfile.Marshal(batchfile.FromNodes(nodes), format)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to encode batch", err)
	}

	if opts.Output == "" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.WriteFile(opts.Output, data, 0o644); err != nil {
		return WrapExitError(ExitCommandError, "failed to write export", err)
	}
	newFormatter(opts.RootOptions, cmd).VerboseLog("wrote %d node(s) to %s", len(nodes), opts.Output)
	return nil
}
