package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/nkanf-dev/CyberWeaver/internal/errs"
	"github.com/nkanf-dev/CyberWeaver/internal/node"
)

// Command names accepted by Dispatch.
const (
	CommandGetNodes    = "get_nodes"
	CommandUpsertNodes = "upsert_nodes"
	CommandDeleteNodes = "delete_nodes"
)

// Response statuses.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Response is the envelope Dispatch returns for every call.
type Response struct {
	Status string `json:"status"`
	Data   any    `json:"data,omitempty"`
	Error  *Error `json:"error,omitempty"`
}

// UpsertArgs are the arguments of upsert_nodes.
type UpsertArgs struct {
	Nodes []NodeArgs `json:"nodes"`
}

// NodeArgs is one node as sent to upsert_nodes. Every field except width and
// height must be present and non-null; a missing coordinate is not zero.
type NodeArgs struct {
	ID      *string  `json:"id"`
	Type    *string  `json:"type"`
	X       *float64 `json:"x"`
	Y       *float64 `json:"y"`
	Content *string  `json:"content"`
	Width   *float64 `json:"width,omitempty"`
	Height  *float64 `json:"height,omitempty"`
}

// Payloads converts the wire nodes, rejecting the first one with a missing
// required field.
func (a UpsertArgs) Payloads() ([]node.Payload, error) {
	payloads := make([]node.Payload, len(a.Nodes))
	for i, n := range a.Nodes {
		var missing string
		switch {
		case n.ID == nil:
			missing = "id"
		case n.Type == nil:
			missing = "type"
		case n.X == nil:
			missing = "x"
		case n.Y == nil:
			missing = "y"
		case n.Content == nil:
			missing = "content"
		}
		if missing != "" {
			return nil, errs.New(errs.CodeCommandArgsInvalid,
				fmt.Sprintf("invalid command arguments: nodes[%d]: missing field %q", i, missing),
				errs.Field("index", i), errs.Field("field", missing))
		}
		payloads[i] = node.Payload{
			ID:      *n.ID,
			Type:    *n.Type,
			X:       *n.X,
			Y:       *n.Y,
			Content: *n.Content,
			Width:   n.Width,
			Height:  n.Height,
		}
	}
	return payloads, nil
}

// DeleteArgs are the arguments of delete_nodes.
type DeleteArgs struct {
	IDs []string `json:"ids"`
}

type handler func(ctx context.Context, s *Service, args json.RawMessage) Response

var handlers = map[string]handler{
	CommandGetNodes: func(ctx context.Context, s *Service, args json.RawMessage) Response {
		if err := decodeArgs(args, &struct{}{}); err != nil {
			return errorResponse(err)
		}
		nodes, apiErr := s.GetNodes(ctx)
		if apiErr != nil {
			return Response{Status: StatusError, Error: apiErr}
		}
		return Response{Status: StatusOK, Data: nodes}
	},
	CommandUpsertNodes: func(ctx context.Context, s *Service, args json.RawMessage) Response {
		var a UpsertArgs
		if err := decodeArgs(args, &a); err != nil {
			return errorResponse(err)
		}
		payloads, err := a.Payloads()
		if err != nil {
			return errorResponse(err)
		}
		if apiErr := s.UpsertNodes(ctx, payloads); apiErr != nil {
			return Response{Status: StatusError, Error: apiErr}
		}
		return Response{Status: StatusOK}
	},
	CommandDeleteNodes: func(ctx context.Context, s *Service, args json.RawMessage) Response {
		var a DeleteArgs
		if err := decodeArgs(args, &a); err != nil {
			return errorResponse(err)
		}
		if apiErr := s.DeleteNodes(ctx, a.IDs); apiErr != nil {
			return Response{Status: StatusError, Error: apiErr}
		}
		return Response{Status: StatusOK}
	},
}

// Commands returns the accepted command names, sorted.
func Commands() []string {
	names := make([]string, 0, len(handlers))
	for name := range handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Dispatch routes a named command with JSON arguments. Empty or null args
// decode as an empty object. Unknown command names and malformed arguments
// are validation failures.
func (s *Service) Dispatch(ctx context.Context, name string, args json.RawMessage) Response {
	h, ok := handlers[name]
	if !ok {
		return errorResponse(errs.New(errs.CodeCommandUnknown, "unknown command: "+name, errs.Field("command", name)))
	}
	resp := h(ctx, s, args)
	if resp.Status == StatusOK {
		s.logger.Debug("command dispatched", "command", name)
	}
	return resp
}

func decodeArgs(raw json.RawMessage, v any) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errs.Wrap(err, errs.CodeCommandArgsInvalid, "invalid command arguments")
	}
	if dec.More() {
		return errs.New(errs.CodeCommandArgsInvalid, "invalid command arguments: trailing data")
	}
	return nil
}

func errorResponse(err error) Response {
	return Response{Status: StatusError, Error: flatten(err)}
}
