package service

import (
	"context"
	"log/slog"

	"github.com/roach88/pitwall/internal/query"
	"github.com/roach88/pitwall/internal/race"
	"github.com/roach88/pitwall/internal/store"
)

// CreateChampionship stores a new championship.
func (s *Service) CreateChampionship(ctx context.Context, ch ChampionshipChange) (store.Record[race.Championship], error) {
	c := race.Championship{
		ChampionshipID: race.ChampionshipID(s.ids.NewID()),
		Name:           ch.Name,
		Features:       ch.Features.Clone(),
	}
	c.Normalize()
	if err := s.checkChampionship(&c); err != nil {
		return store.Record[race.Championship]{}, err
	}

	var rec store.Record[race.Championship]
	err := s.withTx(ctx, func(tx *store.Tx) error {
		var err error
		rec, err = insert(ctx, tx.Championships(), c, query.ByChampionship(c.ChampionshipID))
		return err
	})
	if err != nil {
		return store.Record[race.Championship]{}, err
	}
	slog.Info("championship created", "championship", c.ChampionshipID, "features", len(c.Features))
	return rec, nil
}

// ListChampionships returns every championship.
func (s *Service) ListChampionships(ctx context.Context) ([]store.Record[race.Championship], error) {
	return s.store.Championships().List(ctx)
}

// FindChampionship returns one championship.
func (s *Service) FindChampionship(ctx context.Context, id race.ChampionshipID) (store.Record[race.Championship], error) {
	return s.requireChampionship(ctx, s.store.Championships(), id)
}

// UpdateChampionship replaces the editable fields of a championship that
// still carries version. Sessions already started keep the features they
// captured.
func (s *Service) UpdateChampionship(ctx context.Context, id race.ChampionshipID, version store.Version, ch ChampionshipChange) (store.Record[race.Championship], error) {
	var rec store.Record[race.Championship]
	err := s.withTx(ctx, func(tx *store.Tx) error {
		cur, err := s.requireChampionship(ctx, tx.Championships(), id)
		if err != nil {
			return err
		}
		if err := checkVersion(cur.Version, version); err != nil {
			return err
		}

		c := cur.Object
		c.Name = ch.Name
		c.Features = ch.Features.Clone()
		c.Normalize()
		if err := s.checkChampionship(&c); err != nil {
			return err
		}

		rec, err = replace(ctx, tx.Championships(), c, version, query.ByChampionship(id))
		return err
	})
	if err != nil {
		return store.Record[race.Championship]{}, err
	}
	return rec, nil
}

func (s *Service) checkChampionship(c *race.Championship) error {
	if c.Name == "" {
		return invalid("championship name is empty")
	}
	if err := s.features.ValidateConfigs(c.Features); err != nil {
		return invalid("championship features: %v", err)
	}
	return nil
}
