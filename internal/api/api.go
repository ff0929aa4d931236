// Package api is the operation contract the presentation layer calls:
// get_nodes, upsert_nodes and delete_nodes.
//
// Every failure crosses this boundary as a flat message. The internal kind
// (validation, schema, store) rides along on *Error for tests and logs but is
// not part of what a caller is expected to parse.
package api

import (
	"context"
	"io"
	"log/slog"

	"github.com/nkanf-dev/CyberWeaver/internal/errs"
	"github.com/nkanf-dev/CyberWeaver/internal/node"
)

// NodeStore is the persistence surface the contract runs on.
// *store.Store satisfies it.
type NodeStore interface {
	ListNodes(ctx context.Context) ([]node.Node, error)
	UpsertNodes(ctx context.Context, payloads []node.Payload) error
	DeleteNodes(ctx context.Context, ids []string) error
}

// Error is a failed operation flattened to a message.
type Error struct {
	Message string    `json:"message"`
	Kind    errs.Kind `json:"kind,omitempty"`
	Code    errs.Code `json:"code,omitempty"`
}

func (e *Error) Error() string {
	return e.Message
}

// flatten converts an internal error to its outward form. Nil stays nil so
// callers can return the result directly.
func flatten(err error) *Error {
	if err == nil {
		return nil
	}
	return &Error{
		Message: err.Error(),
		Kind:    errs.KindOf(err),
		Code:    errs.CodeOf(err),
	}
}

// Service exposes the node operations over a NodeStore.
type Service struct {
	store  NodeStore
	logger *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger used for failed operations.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// NewService creates a Service backed by store.
func NewService(store NodeStore, opts ...Option) *Service {
	s := &Service{
		store:  store,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetNodes returns every stored node in write order.
func (s *Service) GetNodes(ctx context.Context) ([]node.Node, *Error) {
	nodes, err := s.store.ListNodes(ctx)
	if err != nil {
		return nil, s.fail(CommandGetNodes, err)
	}
	return nodes, nil
}

// UpsertNodes writes a batch atomically. A validation failure is returned
// verbatim and nothing is written.
func (s *Service) UpsertNodes(ctx context.Context, payloads []node.Payload) *Error {
	if err := s.store.UpsertNodes(ctx, payloads); err != nil {
		return s.fail(CommandUpsertNodes, err)
	}
	return nil
}

// DeleteNodes removes the given ids. Unknown and blank ids are ignored.
func (s *Service) DeleteNodes(ctx context.Context, ids []string) *Error {
	if err := s.store.DeleteNodes(ctx, ids); err != nil {
		return s.fail(CommandDeleteNodes, err)
	}
	return nil
}

func (s *Service) fail(command string, err error) *Error {
	apiErr := flatten(err)
	level := slog.LevelError
	if apiErr.Kind == errs.KindValidation {
		level = slog.LevelWarn
	}
	s.logger.Log(context.Background(), level, "command failed",
		"command", command,
		"kind", string(apiErr.Kind),
		"code", string(apiErr.Code),
		"error", apiErr.Message,
	)
	return apiErr
}
