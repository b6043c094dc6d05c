package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/roach88/pitwall/internal/query"
	"github.com/roach88/pitwall/internal/race"
	"github.com/roach88/pitwall/internal/simulate"
	"github.com/roach88/pitwall/internal/store"
)

// CreateSession appends a new session to an event's schedule. The session
// records whether the session scheduled before it had already finished.
func (s *Service) CreateSession(ctx context.Context, cid race.ChampionshipID, eid race.EventID, ch SessionChange) (store.Record[race.Session], error) {
	key := race.SessionKey{ChampionshipID: cid, EventID: eid, SessionID: race.SessionID(s.ids.NewID())}
	sess := race.NewSession(key)
	sess.Name = ch.Name
	sess.LapCount = ch.LapCount
	sess.Normalize()
	if err := checkSession(sess); err != nil {
		return store.Record[race.Session]{}, err
	}

	var rec store.Record[race.Session]
	err := s.withTx(ctx, func(tx *store.Tx) error {
		if _, err := s.requireChampionship(ctx, tx.Championships(), cid); err != nil {
			return err
		}
		event, err := findEvent(ctx, tx.Events(), cid, eid)
		if err != nil {
			return err
		}

		sess.PreviousSessionHasFinished = true
		if last, ok := event.Object.Last(); ok {
			prev, err := findSession(ctx, tx.Sessions(), race.SessionKey{ChampionshipID: cid, EventID: eid, SessionID: last})
			if err != nil {
				return fmt.Errorf("event %s schedule: %w", compositeKey{cid, eid}, err)
			}
			sess.PreviousSessionHasFinished = prev.Object.State == race.Finished
		}

		rec, err = insert(ctx, tx.Sessions(), *sess, query.BySession(key))
		if err != nil {
			return err
		}

		e := event.Object
		e.Schedule = append(slices.Clone(e.Schedule), key.SessionID)
		_, err = replace(ctx, tx.Events(), e, event.Version, query.ByEvent(cid, eid))
		return err
	})
	if err != nil {
		return store.Record[race.Session]{}, err
	}
	slog.Info("session created", "session", key, "laps", sess.LapCount,
		"previous_finished", rec.Object.PreviousSessionHasFinished)
	return rec, nil
}

// ListSessions returns the sessions of an event in schedule order.
func (s *Service) ListSessions(ctx context.Context, cid race.ChampionshipID, eid race.EventID) ([]store.Record[race.Session], error) {
	event, err := findEvent(ctx, s.store.Events(), cid, eid)
	if err != nil {
		return nil, err
	}
	recs, err := s.store.Sessions().List(ctx, query.ByEvent(cid, eid))
	if err != nil {
		return nil, err
	}
	order := make(map[race.SessionID]int, len(event.Object.Schedule))
	for i, id := range event.Object.Schedule {
		order[id] = i
	}
	slices.SortStableFunc(recs, func(a, b store.Record[race.Session]) int {
		return scheduleIndex(order, a.Object.SessionID) - scheduleIndex(order, b.Object.SessionID)
	})
	return recs, nil
}

func scheduleIndex(order map[race.SessionID]int, id race.SessionID) int {
	if i, ok := order[id]; ok {
		return i
	}
	return len(order)
}

// FindSession returns one session.
func (s *Service) FindSession(ctx context.Context, key race.SessionKey) (store.Record[race.Session], error) {
	return findSession(ctx, s.store.Sessions(), key)
}

// UpdateSession renames a session or changes its lap count. The lap count
// is fixed once the session has started.
func (s *Service) UpdateSession(ctx context.Context, key race.SessionKey, version store.Version, ch SessionChange) (store.Record[race.Session], error) {
	return s.mutateSession(ctx, key, version, func(_ *store.Tx, sess *race.Session) error {
		if ch.LapCount != sess.LapCount && sess.State != race.NotStarted {
			return &race.SessionError{
				Code:    race.ErrCodeInvalidState,
				Message: "lap count can only change before the session starts",
				Session: key,
				Current: sess.State,
				Valid:   []race.State{race.NotStarted},
			}
		}
		sess.Name = ch.Name
		sess.LapCount = ch.LapCount
		sess.Normalize()
		return checkSession(sess)
	})
}

// SetState moves a session to Running or Finished.
func (s *Service) SetState(ctx context.Context, key race.SessionKey, version store.Version, state race.State) (store.Record[race.Session], error) {
	switch state {
	case race.Running:
		return s.Start(ctx, key, version)
	case race.Finished:
		return s.Finish(ctx, key, version)
	}

	rec, err := findSession(ctx, s.store.Sessions(), key)
	if err != nil {
		return store.Record[race.Session]{}, err
	}
	return store.Record[race.Session]{}, &race.SessionError{
		Code:      race.ErrCodeInvalidStateChange,
		Message:   "a session can only be started or finished",
		Session:   key,
		Current:   rec.Object.State,
		Requested: state,
		Valid:     []race.State{race.Running, race.Finished},
	}
}

// Start moves a session to Running. The session scheduled before it must
// have finished. The starting grid is the championship roster and the
// feature set is the championship's at this moment.
func (s *Service) Start(ctx context.Context, key race.SessionKey, version store.Version) (store.Record[race.Session], error) {
	rec, err := s.mutateSession(ctx, key, version, func(tx *store.Tx, sess *race.Session) error {
		event, err := findEvent(ctx, tx.Events(), key.ChampionshipID, key.EventID)
		if err != nil {
			return err
		}
		if prevID, ok := event.Object.Previous(key.SessionID); ok {
			prevKey := race.SessionKey{ChampionshipID: key.ChampionshipID, EventID: key.EventID, SessionID: prevID}
			prev, err := findSession(ctx, tx.Sessions(), prevKey)
			if err != nil {
				return err
			}
			if prev.Object.State != race.Finished {
				return race.NewScheduleConflict(key, prevID)
			}
		}

		champ, err := s.requireChampionship(ctx, tx.Championships(), key.ChampionshipID)
		if err != nil {
			return err
		}
		roster, err := tx.Drivers().List(ctx, query.ByChampionship(key.ChampionshipID))
		if err != nil {
			return err
		}
		drivers := make([]race.Driver, len(roster))
		for i, r := range roster {
			drivers[i] = r.Object
		}
		return sess.Start(champ.Object.Features, race.NewParticipants(drivers))
	})
	if err != nil {
		return store.Record[race.Session]{}, err
	}
	slog.Info("session started", "session", key, "participants", len(rec.Object.Participants),
		"features", len(rec.Object.Features))
	return rec, nil
}

// Progress simulates laps up to elapsedLaps and stores the results.
func (s *Service) Progress(ctx context.Context, key race.SessionKey, version store.Version, elapsedLaps uint16) (store.Record[race.Session], error) {
	rec, err := s.mutateSession(ctx, key, version, func(tx *store.Tx, sess *race.Session) error {
		if err := sess.CanProgressTo(elapsedLaps); err != nil {
			return err
		}
		set, err := s.features.Decode(sess.Features)
		if err != nil {
			return fmt.Errorf("session %s features: %w", key, err)
		}
		track, err := s.eventTrack(ctx, tx, key)
		if err != nil {
			return err
		}
		return simulate.Advance(set, sess, track, elapsedLaps, s.rand)
	})
	if err != nil {
		return store.Record[race.Session]{}, err
	}
	slog.Info("session progressed", "session", key, "elapsed_laps", rec.Object.ElapsedLaps,
		"lap_count", rec.Object.LapCount)
	return rec, nil
}

// Finish moves a session whose laps have all elapsed to Finished and marks
// the next scheduled session as clear to start.
func (s *Service) Finish(ctx context.Context, key race.SessionKey, version store.Version) (store.Record[race.Session], error) {
	var rec store.Record[race.Session]
	err := s.withTx(ctx, func(tx *store.Tx) error {
		var err error
		rec, err = updateSession(ctx, tx, key, version, func(sess *race.Session) error {
			return sess.Finish()
		})
		if err != nil {
			return err
		}

		event, err := findEvent(ctx, tx.Events(), key.ChampionshipID, key.EventID)
		if err != nil {
			return err
		}
		nextID, ok := event.Object.Next(key.SessionID)
		if !ok {
			return nil
		}
		nextKey := race.SessionKey{ChampionshipID: key.ChampionshipID, EventID: key.EventID, SessionID: nextID}
		next, err := findSession(ctx, tx.Sessions(), nextKey)
		if err != nil {
			return err
		}
		if next.Object.PreviousSessionHasFinished {
			return nil
		}
		_, err = updateSession(ctx, tx, nextKey, next.Version, func(sess *race.Session) error {
			sess.PreviousSessionHasFinished = true
			return nil
		})
		return err
	})
	if err != nil {
		return store.Record[race.Session]{}, err
	}
	slog.Info("session finished", "session", key)
	return rec, nil
}

// mutateSession applies fn to a session inside its own transaction.
func (s *Service) mutateSession(ctx context.Context, key race.SessionKey, version store.Version, fn func(tx *store.Tx, sess *race.Session) error) (store.Record[race.Session], error) {
	var rec store.Record[race.Session]
	err := s.withTx(ctx, func(tx *store.Tx) error {
		var err error
		rec, err = updateSession(ctx, tx, key, version, func(sess *race.Session) error {
			return fn(tx, sess)
		})
		return err
	})
	if err != nil {
		return store.Record[race.Session]{}, err
	}
	return rec, nil
}

// updateSession is one read-modify-write of a session within tx.
func updateSession(ctx context.Context, tx *store.Tx, key race.SessionKey, version store.Version, fn func(sess *race.Session) error) (store.Record[race.Session], error) {
	cur, err := findSession(ctx, tx.Sessions(), key)
	if err != nil {
		return store.Record[race.Session]{}, err
	}
	if err := checkVersion(cur.Version, version); err != nil {
		return store.Record[race.Session]{}, err
	}
	sess := cur.Object
	if err := fn(&sess); err != nil {
		return store.Record[race.Session]{}, err
	}
	return replace(ctx, tx.Sessions(), sess, version, query.BySession(key))
}

// eventTrack returns the track the session's event is held at, or nil when
// the track no longer resolves.
func (s *Service) eventTrack(ctx context.Context, tx *store.Tx, key race.SessionKey) (*race.Track, error) {
	event, err := findEvent(ctx, tx.Events(), key.ChampionshipID, key.EventID)
	if err != nil {
		return nil, err
	}
	rec, err := tx.Tracks().Find(ctx, query.ByTrack(key.ChampionshipID, event.Object.TrackID))
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec.Object, nil
}

func findSession(ctx context.Context, c store.ReadOnly[race.Session], key race.SessionKey) (store.Record[race.Session], error) {
	return find(ctx, c, "session", key, query.BySession(key))
}

func checkSession(sess *race.Session) error {
	if sess.Name == "" {
		return invalid("session name is empty")
	}
	if sess.LapCount == 0 {
		return invalid("session lap count must be positive")
	}
	return nil
}
