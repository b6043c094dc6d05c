package service

import (
	"context"

	"github.com/roach88/pitwall/internal/feature"
	"github.com/roach88/pitwall/internal/query"
	"github.com/roach88/pitwall/internal/race"
	"github.com/roach88/pitwall/internal/store"
)

// CreateTrack adds a track to a championship.
func (s *Service) CreateTrack(ctx context.Context, cid race.ChampionshipID, ch TrackChange) (store.Record[race.Track], error) {
	t := race.Track{ChampionshipID: cid, TrackID: race.TrackID(s.ids.NewID())}
	applyTrack(&t, ch)
	if err := s.checkTrack(&t); err != nil {
		return store.Record[race.Track]{}, err
	}

	var rec store.Record[race.Track]
	err := s.withTx(ctx, func(tx *store.Tx) error {
		if _, err := s.requireChampionship(ctx, tx.Championships(), cid); err != nil {
			return err
		}
		var err error
		rec, err = insert(ctx, tx.Tracks(), t, query.ByTrack(cid, t.TrackID))
		return err
	})
	if err != nil {
		return store.Record[race.Track]{}, err
	}
	return rec, nil
}

// ListTracks returns the tracks of a championship.
func (s *Service) ListTracks(ctx context.Context, cid race.ChampionshipID) ([]store.Record[race.Track], error) {
	if _, err := s.requireChampionship(ctx, s.store.Championships(), cid); err != nil {
		return nil, err
	}
	return s.store.Tracks().List(ctx, query.ByChampionship(cid))
}

// FindTrack returns one track.
func (s *Service) FindTrack(ctx context.Context, cid race.ChampionshipID, id race.TrackID) (store.Record[race.Track], error) {
	return find(ctx, s.store.Tracks(), "track", compositeKey{cid, id}, query.ByTrack(cid, id))
}

// UpdateTrack replaces the editable fields of a track that still carries
// version.
func (s *Service) UpdateTrack(ctx context.Context, cid race.ChampionshipID, id race.TrackID, version store.Version, ch TrackChange) (store.Record[race.Track], error) {
	var rec store.Record[race.Track]
	err := s.withTx(ctx, func(tx *store.Tx) error {
		cur, err := find[race.Track](ctx, tx.Tracks(), "track", compositeKey{cid, id}, query.ByTrack(cid, id))
		if err != nil {
			return err
		}
		if err := checkVersion(cur.Version, version); err != nil {
			return err
		}

		t := cur.Object
		applyTrack(&t, ch)
		if err := s.checkTrack(&t); err != nil {
			return err
		}
		rec, err = replace(ctx, tx.Tracks(), t, version, query.ByTrack(cid, id))
		return err
	})
	if err != nil {
		return store.Record[race.Track]{}, err
	}
	return rec, nil
}

func applyTrack(t *race.Track, ch TrackChange) {
	t.Name = ch.Name
	t.LengthMillimeters = ch.LengthMillimeters
	t.City = ch.City
	t.Country = ch.Country
	t.Data = ch.Data.Clone()
	t.Normalize()
}

func (s *Service) checkTrack(t *race.Track) error {
	if t.Name == "" {
		return invalid("track name is empty")
	}
	if t.LengthMillimeters < 0 {
		return invalid("track length is negative")
	}
	if err := s.features.ValidateData(feature.ScopeTrack, t.Data); err != nil {
		return invalid("track data: %v", err)
	}
	return nil
}

// CreateDriver adds a driver to a championship's roster. Roster order is
// creation order and decides the starting grid.
func (s *Service) CreateDriver(ctx context.Context, cid race.ChampionshipID, ch DriverChange) (store.Record[race.Driver], error) {
	d := race.Driver{ChampionshipID: cid, DriverID: race.DriverID(s.ids.NewID())}
	applyDriver(&d, ch)
	if err := s.checkDriver(&d); err != nil {
		return store.Record[race.Driver]{}, err
	}

	var rec store.Record[race.Driver]
	err := s.withTx(ctx, func(tx *store.Tx) error {
		if _, err := s.requireChampionship(ctx, tx.Championships(), cid); err != nil {
			return err
		}
		var err error
		rec, err = insert(ctx, tx.Drivers(), d, query.ByDriver(cid, d.DriverID))
		return err
	})
	if err != nil {
		return store.Record[race.Driver]{}, err
	}
	return rec, nil
}

// ListDrivers returns the roster of a championship in roster order.
func (s *Service) ListDrivers(ctx context.Context, cid race.ChampionshipID) ([]store.Record[race.Driver], error) {
	if _, err := s.requireChampionship(ctx, s.store.Championships(), cid); err != nil {
		return nil, err
	}
	return s.store.Drivers().List(ctx, query.ByChampionship(cid))
}

// FindDriver returns one driver.
func (s *Service) FindDriver(ctx context.Context, cid race.ChampionshipID, id race.DriverID) (store.Record[race.Driver], error) {
	return find(ctx, s.store.Drivers(), "driver", compositeKey{cid, id}, query.ByDriver(cid, id))
}

// UpdateDriver replaces the editable fields of a driver that still carries
// version. Sessions already started keep the data they captured.
func (s *Service) UpdateDriver(ctx context.Context, cid race.ChampionshipID, id race.DriverID, version store.Version, ch DriverChange) (store.Record[race.Driver], error) {
	var rec store.Record[race.Driver]
	err := s.withTx(ctx, func(tx *store.Tx) error {
		cur, err := find[race.Driver](ctx, tx.Drivers(), "driver", compositeKey{cid, id}, query.ByDriver(cid, id))
		if err != nil {
			return err
		}
		if err := checkVersion(cur.Version, version); err != nil {
			return err
		}

		d := cur.Object
		applyDriver(&d, ch)
		if err := s.checkDriver(&d); err != nil {
			return err
		}
		rec, err = replace(ctx, tx.Drivers(), d, version, query.ByDriver(cid, id))
		return err
	})
	if err != nil {
		return store.Record[race.Driver]{}, err
	}
	return rec, nil
}

func applyDriver(d *race.Driver, ch DriverChange) {
	d.Name = append([]string(nil), ch.Name...)
	d.Abbreviation = ch.Abbreviation
	d.Number = ch.Number
	d.Data = ch.Data.Clone()
	d.Normalize()
}

func (s *Service) checkDriver(d *race.Driver) error {
	if len(d.Name) == 0 {
		return invalid("driver name is empty")
	}
	if err := s.features.ValidateData(feature.ScopeDriver, d.Data); err != nil {
		return invalid("driver data: %v", err)
	}
	return nil
}
