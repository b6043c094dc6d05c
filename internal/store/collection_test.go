package store

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pitwall/internal/query"
	"github.com/roach88/pitwall/internal/race"
	"github.com/roach88/pitwall/internal/testutil"
)

var (
	_ Writable[race.Session]      = (*Collection[race.Session])(nil)
	_ Writable[race.Championship] = (*Memory[race.Championship])(nil)
)

func sampleChampionship(id race.ChampionshipID, name string) race.Championship {
	return race.Championship{
		ChampionshipID: id,
		Name:           name,
		Features:       race.FeatureConfigs{"flat_driver_skill": json.RawMessage(`{}`)},
	}
}

// inTx runs fn in a transaction and commits it.
func inTx(t *testing.T, s *Store, fn func(tx *Tx)) {
	t.Helper()
	tx, err := s.Begin(context.Background())
	require.NoError(t, err)
	defer tx.Rollback()
	fn(tx)
	require.NoError(t, tx.Commit())
}

func TestInsertFind_RoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	c := sampleChampionship(1, "Formula Test")

	inTx(t, s, func(tx *Tx) {
		n, err := tx.Championships().Insert(ctx, c)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
	})

	rec, err := s.Championships().Find(ctx, query.ByChampionship(1))
	require.NoError(t, err)

	body, err := encodeBody(&c)
	require.NoError(t, err)
	assert.Equal(t, VersionOf(body), rec.Version)
	assert.Equal(t, c, rec.Object)
	assert.Equal(t, testutil.Epoch, rec.Created)
	assert.Equal(t, rec.Created, rec.Updated)
}

func TestFind_NotFound(t *testing.T) {
	s := createTestStore(t)

	_, err := s.Championships().Find(context.Background(), query.ByChampionship(42))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInsert_DuplicateKey(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	defer tx.Rollback()

	_, err = tx.Championships().Insert(ctx, sampleChampionship(1, "A"))
	require.NoError(t, err)
	_, err = tx.Championships().Insert(ctx, sampleChampionship(1, "B"))
	assert.ErrorIs(t, err, ErrDuplicateKey)
}

func TestUpdate_StaleVersionLosesRace(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	inTx(t, s, func(tx *Tx) {
		_, err := tx.Championships().Insert(ctx, sampleChampionship(1, "Original"))
		require.NoError(t, err)
	})
	orig, err := s.Championships().Find(ctx, query.ByChampionship(1))
	require.NoError(t, err)

	inTx(t, s, func(tx *Tx) {
		n, err := tx.Championships().Update(ctx, sampleChampionship(1, "A"),
			query.ByChampionship(1), query.VersionMatch(string(orig.Version)))
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		n, err = tx.Championships().Update(ctx, sampleChampionship(1, "B"),
			query.ByChampionship(1), query.VersionMatch(string(orig.Version)))
		require.NoError(t, err)
		assert.Equal(t, int64(0), n)
		assert.ErrorIs(t, CheckUpdated(n, err), ErrConflict)
	})

	got, err := s.Championships().Find(ctx, query.ByChampionship(1))
	require.NoError(t, err)
	assert.Equal(t, "A", got.Object.Name)
	assert.NotEqual(t, orig.Version, got.Version)
	assert.True(t, got.Updated.After(got.Created))
	assert.Equal(t, orig.Created, got.Created)
}

func TestUpdate_AmbiguousMatchWritesNothing(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	inTx(t, s, func(tx *Tx) {
		for _, id := range []race.DriverID{1, 2} {
			_, err := tx.Drivers().Insert(ctx, race.Driver{ChampionshipID: 9, DriverID: id, Abbreviation: "OLD"})
			require.NoError(t, err)
		}

		_, err := tx.Drivers().Update(ctx, race.Driver{ChampionshipID: 9, DriverID: 1, Abbreviation: "NEW"},
			query.ByChampionship(9))
		assert.ErrorIs(t, err, ErrAmbiguousMatch)
	})

	drivers, err := s.Drivers().List(ctx, query.ByChampionship(9))
	require.NoError(t, err)
	require.Len(t, drivers, 2)
	for _, d := range drivers {
		assert.Equal(t, "OLD", d.Object.Abbreviation)
	}
}

func TestRead_DataFormatIntegrity(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	inTx(t, s, func(tx *Tx) {
		_, err := tx.Championships().Insert(ctx, sampleChampionship(1, "A"))
		require.NoError(t, err)
		_, err = tx.Championships().Insert(ctx, sampleChampionship(2, "B"))
		require.NoError(t, err)
	})

	_, err := s.DB().Exec(`UPDATE Championship SET Data = 'null' WHERE ChampionshipId = 1`)
	require.NoError(t, err)
	_, err = s.DB().Exec(`UPDATE Championship SET Data = '{"name":' WHERE ChampionshipId = 2`)
	require.NoError(t, err)

	_, err = s.Championships().Find(ctx, query.ByChampionship(1))
	assert.ErrorIs(t, err, ErrDataFormatIntegrity)

	_, err = s.Championships().Find(ctx, query.ByChampionship(2))
	assert.ErrorIs(t, err, ErrDataFormatIntegrity)

	_, err = s.Championships().List(ctx)
	assert.ErrorIs(t, err, ErrDataFormatIntegrity)
}

func TestList_EmptyIsNotNil(t *testing.T) {
	s := createTestStore(t)

	records, err := s.Sessions().List(context.Background(), query.ByEvent(1, 1))
	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)
}

func TestList_KeyOrderAndCount(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	inTx(t, s, func(tx *Tx) {
		for _, id := range []race.TrackID{30, 10, 20} {
			_, err := tx.Tracks().Insert(ctx, race.Track{ChampionshipID: 1, TrackID: id, Name: "T"})
			require.NoError(t, err)
		}
		_, err := tx.Tracks().Insert(ctx, race.Track{ChampionshipID: 2, TrackID: 5})
		require.NoError(t, err)
	})

	tracks, err := s.Tracks().List(ctx, query.ByChampionship(1))
	require.NoError(t, err)
	require.Len(t, tracks, 3)
	assert.Equal(t, race.TrackID(10), tracks[0].Object.TrackID)
	assert.Equal(t, race.TrackID(20), tracks[1].Object.TrackID)
	assert.Equal(t, race.TrackID(30), tracks[2].Object.TrackID)

	n, err := s.Tracks().Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)

	ok, err := s.Tracks().Exists(ctx, query.ByTrack(2, 5))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Tracks().Exists(ctx, query.ByTrack(2, 6))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStream_StopsEarly(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	inTx(t, s, func(tx *Tx) {
		for id := race.EventID(1); id <= 5; id++ {
			_, err := tx.Events().Insert(ctx, race.Event{ChampionshipID: 1, EventID: id})
			require.NoError(t, err)
		}
	})

	var seen []race.EventID
	for rec, err := range s.Events().Stream(ctx, query.ByChampionship(1)) {
		require.NoError(t, err)
		seen = append(seen, rec.Object.EventID)
		if len(seen) == 2 {
			break
		}
	}
	assert.Equal(t, []race.EventID{1, 2}, seen)

	// The connection is released after an early break.
	n, err := s.Events().Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)
}

func TestTx_RollbackDiscards(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	_, err = tx.Championships().Insert(ctx, sampleChampionship(1, "A"))
	require.NoError(t, err)
	require.NoError(t, tx.Rollback())

	ok, err := s.Championships().Exists(ctx, query.ByChampionship(1))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTx_FinishIdempotence(t *testing.T) {
	s := createTestStore(t)

	tx, err := s.Begin(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, tx.ID())

	require.NoError(t, tx.Commit())
	assert.NoError(t, tx.Rollback())
	assert.ErrorIs(t, tx.Commit(), ErrTxDone)
}

func TestSession_RoundTripPreservesLapResults(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	key := race.SessionKey{ChampionshipID: 1, EventID: 2, SessionID: 3}

	sess := race.NewSession(key)
	sess.Name = "Race"
	sess.LapCount = 1
	require.NoError(t, sess.Start(race.FeatureConfigs{}, race.NewParticipants([]race.Driver{{DriverID: 7}})))
	require.NoError(t, sess.Progress(1, []race.LapResult{{Results: map[race.DriverID]race.ParticipantLapResult{
		7: {Position: 1, TotalTime: 5 * time.Second, LapTime: 5 * time.Second},
	}}}))

	inTx(t, s, func(tx *Tx) {
		_, err := tx.Sessions().Insert(ctx, *sess)
		require.NoError(t, err)
	})

	rec, err := s.Sessions().Find(ctx, query.BySession(key))
	require.NoError(t, err)
	assert.Equal(t, *sess, rec.Object)
}

func TestVersionOf(t *testing.T) {
	assert.Equal(t, Version("00000000"), VersionOf(nil))
	assert.Equal(t, Version("3610a686"), VersionOf([]byte("hello")))
}
