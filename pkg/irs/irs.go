// Package irs implements the Identifier Resolution Service: it mints
// identifiers for digital objects and resolves identifiers back to objects
// through a repository.
package irs

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mesh-intelligence/dorepo/pkg/types"
)

var _ types.IdentifierGenerator = (*Service)(nil)

// Retriever is the part of the repository the service resolves through.
type Retriever interface {
	Retrieve(ctx context.Context, id string) (*types.DigitalObject, error)
}

// Service generates and resolves digital-object identifiers.
type Service struct {
	repo   Retriever
	now    func() time.Time
	logger *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithClock replaces the wall clock used for identifier timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLogger sets the logger resolution failures are reported to.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// New returns a Service resolving through repo. repo may be nil for a
// service that only generates identifiers.
func New(repo Retriever, opts ...Option) *Service {
	s := &Service{repo: repo, now: time.Now, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Generate returns "<unix-millis>_<sha256-hex>" for data. The hash covers the
// canonical form of data; the timestamp makes repeated calls for the same
// payload distinct at millisecond granularity.
func (s *Service) Generate(data any) (string, error) {
	canonical, err := canonicalBytes(data)
	if err != nil {
		return "", fmt.Errorf("generating identifier: %w", err)
	}
	sum := sha256.Sum256(canonical)
	return fmt.Sprintf("%d_%s", s.now().UnixMilli(), hex.EncodeToString(sum[:])), nil
}

// Assign mints an identifier for obj and records it. It fails with
// ErrAlreadyIdentified if obj already has one.
func (s *Service) Assign(obj *types.DigitalObject) error {
	if obj == nil {
		return types.ErrNilObject
	}
	return obj.AssignIdentifier(s)
}

// Resolve loads the object stored under id. Any failure is logged and
// reported as nil; Resolve never returns an error to the caller.
func (s *Service) Resolve(ctx context.Context, id string) *types.DigitalObject {
	if s.repo == nil {
		s.logger.Error("resolve without repository", "doid", id)
		return nil
	}
	obj, err := s.repo.Retrieve(ctx, id)
	switch {
	case errors.Is(err, types.ErrNotFound):
		s.logger.Warn("resolve: identifier not found", "doid", id)
		return nil
	case err != nil:
		s.logger.Error("resolve failed", "doid", id, "outcome", types.Classify(err).String(), "error", err)
		return nil
	case obj == nil:
		s.logger.Warn("resolve: repository returned no object", "doid", id)
		return nil
	}
	return obj
}
