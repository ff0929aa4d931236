// Package errs defines the coded error kinds used across CyberWeaver.
//
// Codes follow the "area.operation.reason" shape. Three kinds matter to callers:
// validation failures (bad payloads, never retried), schema failures (fatal at
// startup) and store failures (database errors during reads and writes).
package errs

import (
	"fmt"
	"strings"

	"github.com/samber/oops"
)

// Code is the machine-readable identifier for an error.
type Code string

const (
	CodeNodeInvalidInput    Code = "node.payload.invalid_input"
	CodeCommandUnknown      Code = "api.command.invalid_input"
	CodeCommandArgsInvalid  Code = "api.args.invalid_input"
	CodeBatchFileInvalid    Code = "batchfile.parse.invalid_input"
	CodeSchemaFailure       Code = "store.schema.failure"
	CodeStoreDatabase       Code = "store.database.failure"
	CodeStoreRowDecode      Code = "store.row.decode_failure"
	CodeConfigInvalidValue  Code = "config.validate.invalid_value"
	CodeConfigLoadFailure   Code = "config.load.failure"
	CodeDataDirCreateFailed Code = "config.data_dir.failure"
)

// Kind groups codes into the classes callers branch on.
type Kind string

const (
	KindNone       Kind = ""
	KindValidation Kind = "validation"
	KindSchema     Kind = "schema"
	KindStore      Kind = "store"
	KindConfig     Kind = "config"
)

// Attr is a structured key/value context attached to an error.
type Attr struct {
	Key   string
	Value any
}

// Field creates a structured error field.
func Field(key string, value any) Attr {
	return Attr{Key: key, Value: value}
}

func New(code Code, msg string, fields ...Attr) error {
	return oops.Code(code).With(flatten(fields)...).New(msg)
}

func Errorf(code Code, format string, args ...any) error {
	return oops.Code(code).Errorf(format, args...)
}

func Wrap(err error, code Code, msg string, fields ...Attr) error {
	if err == nil {
		return nil
	}

	return oops.Code(code).With(flatten(fields)...).Wrapf(err, "%s", msg)
}

func Wrapf(err error, code Code, format string, args ...any) error {
	if err == nil {
		return nil
	}

	return oops.Code(code).Wrapf(err, format, args...)
}

// CodeOf returns the innermost code in the chain, or "" for uncoded errors.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}

	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return ""
	}

	switch code := oopsErr.Code().(type) {
	case Code:
		return code
	case string:
		return Code(code)
	case nil:
		return ""
	default:
		return Code(fmt.Sprintf("%v", code))
	}
}

// FieldsOf returns the structured context attached to err.
func FieldsOf(err error) map[string]any {
	if err == nil {
		return nil
	}

	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return nil
	}

	return oopsErr.Context()
}

func HasCode(err error, code Code) bool {
	if err == nil {
		return false
	}
	return CodeOf(err) == code
}

// KindOf classifies err by its innermost code.
func KindOf(err error) Kind {
	code := CodeOf(err)
	switch {
	case code == "":
		return KindNone
	case code == CodeSchemaFailure:
		return KindSchema
	case strings.HasPrefix(string(code), "config."):
		return KindConfig
	case strings.HasSuffix(string(code), ".invalid_input"):
		return KindValidation
	case strings.HasPrefix(string(code), "store."):
		return KindStore
	default:
		return KindNone
	}
}

func IsValidation(err error) bool { return KindOf(err) == KindValidation }
func IsSchema(err error) bool     { return KindOf(err) == KindSchema }
func IsStore(err error) bool      { return KindOf(err) == KindStore }

func flatten(fields []Attr) []any {
	pairs := make([]any, 0, len(fields)*2)
	for _, field := range fields {
		if field.Key == "" {
			continue
		}
		pairs = append(pairs, field.Key, field.Value)
	}
	return pairs
}
