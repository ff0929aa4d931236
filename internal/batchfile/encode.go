package batchfile

import (
	"encoding/json"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/format"
	"gopkg.in/yaml.v3"

	"github.com/nkanf-dev/CyberWeaver/internal/errs"
	"github.com/nkanf-dev/CyberWeaver/internal/node"
)

// FromNodes builds a batch that recreates nodes when applied.
func FromNodes(nodes []node.Node) *Batch {
	b := &Batch{Nodes: make([]node.Payload, len(nodes))}
	for i, n := range nodes {
		b.Nodes[i] = node.Payload{
			ID:      n.ID,
			Type:    string(n.Type),
			X:       n.X,
			Y:       n.Y,
			Content: n.Content,
			Width:   n.Width,
			Height:  n.Height,
		}
	}
	return b
}

// Marshal encodes b in the given format. The output parses back with Parse.
func Marshal(b *Batch, f Format) ([]byte, error) {
	switch f {
	case FormatJSON:
		data, err := json.MarshalIndent(b, "", "  ")
		if err != nil {
			return nil, errs.Wrap(err, errs.CodeBatchFileInvalid, "encode JSON batch")
		}
		return append(data, '\n'), nil
	case FormatYAML:
		data, err := yaml.Marshal(b)
		if err != nil {
			return nil, errs.Wrap(err, errs.CodeBatchFileInvalid, "encode YAML batch")
		}
		return data, nil
	case FormatCUE:
		v := cuecontext.New().Encode(b)
		if err := v.Err(); err != nil {
			return nil, errs.Wrap(err, errs.CodeBatchFileInvalid, "encode CUE batch")
		}
		data, err := format.Node(v.Syntax(cue.Final(), cue.Concrete(true)))
		if err != nil {
			return nil, errs.Wrap(err, errs.CodeBatchFileInvalid, "format CUE batch")
		}
		return append(data, '\n'), nil
	default:
		return nil, errs.New(errs.CodeBatchFileInvalid, fmt.Sprintf("unknown batch format %q", f))
	}
}
