package service

import (
	"context"

	"github.com/roach88/pitwall/internal/query"
	"github.com/roach88/pitwall/internal/race"
	"github.com/roach88/pitwall/internal/store"
)

// CreateEvent adds an event, held at one of the championship's tracks.
// The new event has an empty schedule.
func (s *Service) CreateEvent(ctx context.Context, cid race.ChampionshipID, ch EventChange) (store.Record[race.Event], error) {
	e := race.Event{
		ChampionshipID: cid,
		EventID:        race.EventID(s.ids.NewID()),
		Name:           ch.Name,
		TrackID:        ch.TrackID,
		Schedule:       []race.SessionID{},
	}
	e.Normalize()
	if e.Name == "" {
		return store.Record[race.Event]{}, invalid("event name is empty")
	}

	var rec store.Record[race.Event]
	err := s.withTx(ctx, func(tx *store.Tx) error {
		if _, err := s.requireChampionship(ctx, tx.Championships(), cid); err != nil {
			return err
		}
		if err := requireTrack(ctx, tx.Tracks(), cid, e.TrackID); err != nil {
			return err
		}
		var err error
		rec, err = insert(ctx, tx.Events(), e, query.ByEvent(cid, e.EventID))
		return err
	})
	if err != nil {
		return store.Record[race.Event]{}, err
	}
	return rec, nil
}

// ListEvents returns the events of a championship.
func (s *Service) ListEvents(ctx context.Context, cid race.ChampionshipID) ([]store.Record[race.Event], error) {
	if _, err := s.requireChampionship(ctx, s.store.Championships(), cid); err != nil {
		return nil, err
	}
	return s.store.Events().List(ctx, query.ByChampionship(cid))
}

// FindEvent returns one event.
func (s *Service) FindEvent(ctx context.Context, cid race.ChampionshipID, id race.EventID) (store.Record[race.Event], error) {
	return findEvent(ctx, s.store.Events(), cid, id)
}

// UpdateEvent renames an event or moves it to another track. The schedule
// is left untouched.
func (s *Service) UpdateEvent(ctx context.Context, cid race.ChampionshipID, id race.EventID, version store.Version, ch EventChange) (store.Record[race.Event], error) {
	var rec store.Record[race.Event]
	err := s.withTx(ctx, func(tx *store.Tx) error {
		cur, err := findEvent(ctx, tx.Events(), cid, id)
		if err != nil {
			return err
		}
		if err := checkVersion(cur.Version, version); err != nil {
			return err
		}

		e := cur.Object
		e.Name = ch.Name
		e.TrackID = ch.TrackID
		e.Normalize()
		if e.Name == "" {
			return invalid("event name is empty")
		}
		if err := requireTrack(ctx, tx.Tracks(), cid, e.TrackID); err != nil {
			return err
		}
		rec, err = replace(ctx, tx.Events(), e, version, query.ByEvent(cid, id))
		return err
	})
	if err != nil {
		return store.Record[race.Event]{}, err
	}
	return rec, nil
}

func findEvent(ctx context.Context, c store.ReadOnly[race.Event], cid race.ChampionshipID, id race.EventID) (store.Record[race.Event], error) {
	return find(ctx, c, "event", compositeKey{cid, id}, query.ByEvent(cid, id))
}

func requireTrack(ctx context.Context, c store.ReadOnly[race.Track], cid race.ChampionshipID, id race.TrackID) error {
	ok, err := c.Exists(ctx, query.ByTrack(cid, id))
	if err != nil {
		return err
	}
	if !ok {
		return race.NewNotFound("track", compositeKey{cid, id})
	}
	return nil
}
