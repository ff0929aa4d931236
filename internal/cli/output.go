package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/nkanf-dev/CyberWeaver/internal/api"
	"github.com/nkanf-dev/CyberWeaver/internal/errs"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Rejected input or failed scenarios
	ExitCommandError = 2 // Command error (bad config, unreadable files, database failures)
)

// Fallback error codes for failures that carry no errs code.
const (
	codeCommandFailure = "cli.command.failure"
	codeCommandError   = "cli.command.error"
)

// ExitError is a command failure with a process exit code and the error code
// reported to the user.
type ExitError struct {
	Code      int    // Exit code (use ExitFailure or ExitCommandError)
	Message   string // Error message
	Err       error  // Underlying error (optional)
	ErrorCode string // Reported code; defaults to the code carried by Err
	Details   any    // Extra context for JSON output and --verbose

	// reported is set when the command already wrote its own error envelope.
	reported bool
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// apiExitError converts a service error into an ExitError, keeping its code
// and kind for the error envelope.
func apiExitError(e *api.Error) *ExitError {
	return &ExitError{
		Code:      exitCodeFor(e.Kind),
		Message:   e.Message,
		ErrorCode: string(e.Code),
		Details:   map[string]string{"kind": string(e.Kind)},
	}
}

// exitCodeFor maps an error kind to a process exit code: rejected input is a
// failure, anything else is a command error.
func exitCodeFor(kind errs.Kind) int {
	if kind == errs.KindValidation {
		return ExitFailure
	}
	return ExitCommandError
}

// errorCode picks the code shown for err.
func errorCode(err error) string {
	var exitErr *ExitError
	if errors.As(err, &exitErr) && exitErr.ErrorCode != "" {
		return exitErr.ErrorCode
	}
	if code := errs.CodeOf(err); code != "" {
		return string(code)
	}
	if GetExitCode(err) == ExitCommandError {
		return codeCommandError
	}
	return codeCommandFailure
}

// errorDetails returns the ExitError details, falling back to the fields
// attached to a coded error.
func errorDetails(err error) any {
	var exitErr *ExitError
	if errors.As(err, &exitErr) && exitErr.Details != nil {
		return exitErr.Details
	}
	if fields := errs.FieldsOf(err); len(fields) > 0 {
		return fields
	}
	return nil
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // Separate writer for verbose/diagnostic output (defaults to Writer)
	Verbose   bool
}

// newFormatter builds the formatter for a command invocation.
func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status string      `json:"status"`          // "ok" or "error"
	Data   interface{} `json:"data,omitempty"`  // success payload
	Error  *CLIError   `json:"error,omitempty"` // error details
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string      `json:"code"`              // error code, e.g. "node.payload.invalid_input"
	Message string      `json:"message"`           // human-readable message
	Details interface{} `json:"details,omitempty"` // additional context
}

// Success outputs a successful result in the configured format.
func (f *OutputFormatter) Success(data interface{}) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "ok",
			Data:   data,
		})
	}

	fmt.Fprintln(f.Writer, data)
	return nil
}

// Error outputs an error in the configured format. JSON goes to Writer so
// callers always get one envelope on stdout; text goes to the diagnostic
// writer.
func (f *OutputFormatter) Error(code, message string, details interface{}) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "error",
			Error: &CLIError{
				Code:    code,
				Message: message,
				Details: details,
			},
		})
	}

	w := f.GetErrWriter()
	fmt.Fprintf(w, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(w, "Details: %v\n", details)
	}
	return nil
}

// Fail reports a command error unless the command already wrote its own
// JSON error envelope.
func (f *OutputFormatter) Fail(err error) {
	var exitErr *ExitError
	if f.Format == "json" && errors.As(err, &exitErr) && exitErr.reported {
		return
	}
	_ = f.Error(errorCode(err), err.Error(), errorDetails(err))
}

// VerboseLog outputs a message only if verbose mode is enabled.
// Uses ErrWriter if set, otherwise falls back to Writer.
// When format is JSON, verbose logs go to ErrWriter to avoid corrupting JSON output.
func (f *OutputFormatter) VerboseLog(format string, args ...interface{}) {
	if !f.Verbose {
		return
	}
	fmt.Fprintf(f.GetErrWriter(), format+"\n", args...)
}

// GetErrWriter returns the appropriate writer for diagnostic output.
// Returns ErrWriter if set, otherwise Writer.
func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}
