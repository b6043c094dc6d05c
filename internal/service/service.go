// Package service runs every use case of pitwall inside store transactions.
//
// Each write follows the same unit of work: begin a transaction, read the
// current records, mutate them in memory, write them back with a
// version-match specification and commit. A version mismatch at any write
// aborts the whole transaction with store.ErrConflict; nothing is retried.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/pitwall/internal/feature"
	"github.com/roach88/pitwall/internal/idgen"
	"github.com/roach88/pitwall/internal/query"
	"github.com/roach88/pitwall/internal/race"
	"github.com/roach88/pitwall/internal/simulate"
	"github.com/roach88/pitwall/internal/store"
)

// ErrInvalid reports a change rejected by a domain rule, such as an unknown
// feature id or an empty driver name.
var ErrInvalid = errors.New("invalid change")

// Service is the entry point for championship, track, driver, event and
// session operations.
type Service struct {
	store    *store.Store
	features *feature.Registry
	ids      idgen.Generator
	rand     simulate.RandSource
}

// Option configures a Service.
type Option func(*Service)

// WithFeatures sets the feature registry. Defaults to feature.Builtin().
func WithFeatures(r *feature.Registry) Option {
	return func(s *Service) { s.features = r }
}

// WithIDs sets the id generator. Defaults to idgen.UUIDv7.
func WithIDs(g idgen.Generator) Option {
	return func(s *Service) { s.ids = g }
}

// WithRandSource sets the random source used by lap progression. Defaults
// to simulate.Unseeded().
func WithRandSource(src simulate.RandSource) Option {
	return func(s *Service) { s.rand = src }
}

// New returns a Service over st.
func New(st *store.Store, opts ...Option) *Service {
	s := &Service{
		store:    st,
		features: feature.Builtin(),
		ids:      idgen.UUIDv7{},
		rand:     simulate.Unseeded(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Features returns the feature registry the service validates against.
func (s *Service) Features() *feature.Registry {
	return s.features
}

// withTx runs fn in a transaction and commits it if fn succeeds.
func (s *Service) withTx(ctx context.Context, fn func(tx *store.Tx) error) error {
	tx, err := s.store.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// compositeKey prints a multi-part key as a/b/c.
type compositeKey []fmt.Stringer

func (k compositeKey) String() string {
	parts := make([]string, len(k))
	for i, p := range k {
		parts[i] = p.String()
	}
	return strings.Join(parts, "/")
}

// find is Find with ErrNotFound mapped onto a race.NotFoundError.
func find[T any](ctx context.Context, c store.ReadOnly[T], kind string, key fmt.Stringer, specs ...query.Spec) (store.Record[T], error) {
	rec, err := c.Find(ctx, specs...)
	if errors.Is(err, store.ErrNotFound) {
		return store.Record[T]{}, race.NewNotFound(kind, key)
	}
	return rec, err
}

// insert stores entity and reads back its record.
func insert[T any](ctx context.Context, c store.Writable[T], entity T, key query.Spec) (store.Record[T], error) {
	if _, err := c.Insert(ctx, entity); err != nil {
		return store.Record[T]{}, err
	}
	return c.Find(ctx, key)
}

// replace writes entity over the record selected by key, provided that
// record still carries version, and reads back the new record.
func replace[T any](ctx context.Context, c store.Writable[T], entity T, version store.Version, key query.Spec) (store.Record[T], error) {
	if err := store.CheckUpdated(c.Update(ctx, entity, key, query.VersionMatch(string(version)))); err != nil {
		return store.Record[T]{}, err
	}
	return c.Find(ctx, key)
}

// checkVersion fails early when the caller's version is already stale.
func checkVersion(current, expected store.Version) error {
	if current != expected {
		return fmt.Errorf("%w: have %s, want %s", store.ErrConflict, current, expected)
	}
	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

func (s *Service) requireChampionship(ctx context.Context, c store.ReadOnly[race.Championship], id race.ChampionshipID) (store.Record[race.Championship], error) {
	return find(ctx, c, "championship", id, query.ByChampionship(id))
}
