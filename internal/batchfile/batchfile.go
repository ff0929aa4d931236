// Package batchfile reads node batches from JSON, YAML or CUE files.
//
// Every format is checked against the embedded #Batch definition before
// decoding, so unknown fields and wrongly typed values are reported with the
// file position they came from. Whether a node is valid is still decided by
// the node package when the batch is applied.
package batchfile

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
	"gopkg.in/yaml.v3"

	"github.com/nkanf-dev/CyberWeaver/internal/errs"
	"github.com/nkanf-dev/CyberWeaver/internal/node"
)

//go:embed schema.cue
var schemaCUE string

// Format is a batch file encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatCUE  Format = "cue"
)

// Batch is a set of nodes to upsert followed by ids to delete.
type Batch struct {
	Nodes  []node.Payload `json:"nodes,omitempty" yaml:"nodes,omitempty"`
	Delete []string       `json:"delete,omitempty" yaml:"delete,omitempty"`
}

// Empty reports whether applying the batch would do nothing.
func (b *Batch) Empty() bool {
	return len(b.Nodes) == 0 && len(b.Delete) == 0
}

// FormatFromPath picks the format from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".cue":
		return FormatCUE, nil
	default:
		return "", errs.New(errs.CodeBatchFileInvalid,
			fmt.Sprintf("unsupported batch file extension %q (want .json, .yaml, .yml or .cue)", filepath.Ext(path)),
			errs.Field("path", path))
	}
}

// ParseFormat accepts a format name as given on the command line.
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(name))); f {
	case FormatJSON, FormatYAML, FormatCUE:
		return f, nil
	case "yml":
		return FormatYAML, nil
	default:
		return "", errs.New(errs.CodeBatchFileInvalid, fmt.Sprintf("unknown batch format %q", name))
	}
}

// Load reads and decodes the batch file at path.
func Load(path string) (*Batch, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.Wrap(err, errs.CodeBatchFileInvalid, "read batch file", errs.Field("path", path))
	}
	return Parse(data, format, path)
}

// Parse decodes a batch from data. name is used in error positions.
func Parse(data []byte, format Format, name string) (*Batch, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE, cue.Filename("batch.cue"))
	if err := schema.Err(); err != nil {
		return nil, errs.Wrap(err, errs.CodeBatchFileInvalid, "compile batch schema")
	}

	var value cue.Value
	switch format {
	case FormatJSON, FormatCUE:
		// JSON is a subset of CUE.
		value = ctx.CompileBytes(data, cue.Filename(name))
	case FormatYAML:
		var raw any
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, errs.Wrap(err, errs.CodeBatchFileInvalid, "parse YAML batch", errs.Field("path", name))
		}
		if raw == nil {
			raw = map[string]any{}
		}
		value = ctx.Encode(raw)
	default:
		return nil, errs.New(errs.CodeBatchFileInvalid, fmt.Sprintf("unknown batch format %q", format))
	}
	if err := value.Err(); err != nil {
		return nil, cueError(err, name, nil)
	}

	unified := schema.LookupPath(cue.ParsePath("#Batch")).Unify(value)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, cueError(err, name, &value)
	}

	var batch Batch
	if err := unified.Decode(&batch); err != nil {
		return nil, cueError(err, name, &value)
	}
	return &batch, nil
}

// cueError reports the first CUE error with the most specific position in
// name that can be found. data, when set, is the input before unification.
func cueError(err error, name string, data *cue.Value) error {
	list := cueerrors.Errors(err)
	if len(list) == 0 {
		return errs.Wrap(err, errs.CodeBatchFileInvalid, "invalid batch", errs.Field("path", name))
	}

	first := list[0]
	msg := first.Error()
	if pos, ok := errorPosition(first, name, data); ok {
		msg = fmt.Sprintf("%s:%d:%d: %s", name, pos.Line(), pos.Column(), msg)
	}
	if len(list) > 1 {
		msg = fmt.Sprintf("%s (and %d more errors)", msg, len(list)-1)
	}
	return errs.New(errs.CodeBatchFileInvalid, "invalid batch: "+msg, errs.Field("path", name))
}

// errorPosition prefers the input field the error path points at. Otherwise
// it takes the latest position in name, which is the innermost value.
func errorPosition(e cueerrors.Error, name string, data *cue.Value) (token.Pos, bool) {
	if data != nil {
		if v := data.LookupPath(inputPath(e.Path())); v.Exists() {
			if pos := v.Pos(); pos.IsValid() && pos.Filename() == name {
				return pos, true
			}
		}
	}

	var best token.Pos
	found := false
	for _, pos := range append([]token.Pos{e.Position()}, cueerrors.Positions(e)...) {
		if !pos.IsValid() || pos.Filename() != name {
			continue
		}
		if !found || pos.Line() > best.Line() || (pos.Line() == best.Line() && pos.Column() > best.Column()) {
			best, found = pos, true
		}
	}
	return best, found
}

// inputPath converts an error path such as [#Batch nodes 0 colour] into a
// path into the unschematized input.
func inputPath(elems []string) cue.Path {
	if len(elems) > 0 && strings.HasPrefix(elems[0], "#") {
		elems = elems[1:]
	}
	sels := make([]cue.Selector, 0, len(elems))
	for _, e := range elems {
		if i, err := strconv.Atoi(e); err == nil {
			sels = append(sels, cue.Index(i))
		} else if unquoted, err := strconv.Unquote(e); err == nil {
			sels = append(sels, cue.Str(unquoted))
		} else {
			sels = append(sels, cue.Str(e))
		}
	}
	return cue.MakePath(sels...)
}
