package store

import (
	"github.com/roach88/pitwall/internal/query"
	"github.com/roach88/pitwall/internal/race"
	"github.com/roach88/pitwall/internal/schema"
)

// DefaultSchema declares the tables of the five race entities.
func DefaultSchema() *schema.Registry {
	r := schema.NewRegistry()
	must(schema.Configure(r, "Championship",
		schema.Int(query.ColumnChampionshipID, func(c *race.Championship) int64 { return int64(c.ChampionshipID) }),
	))
	must(schema.Configure(r, "Track",
		schema.Int(query.ColumnChampionshipID, func(t *race.Track) int64 { return int64(t.ChampionshipID) }),
		schema.Int(query.ColumnTrackID, func(t *race.Track) int64 { return int64(t.TrackID) }),
	))
	must(schema.Configure(r, "Driver",
		schema.Int(query.ColumnChampionshipID, func(d *race.Driver) int64 { return int64(d.ChampionshipID) }),
		schema.Int(query.ColumnDriverID, func(d *race.Driver) int64 { return int64(d.DriverID) }),
	))
	must(schema.Configure(r, "Event",
		schema.Int(query.ColumnChampionshipID, func(e *race.Event) int64 { return int64(e.ChampionshipID) }),
		schema.Int(query.ColumnEventID, func(e *race.Event) int64 { return int64(e.EventID) }),
	))
	must(schema.Configure(r, "Session",
		schema.Int(query.ColumnChampionshipID, func(s *race.Session) int64 { return int64(s.ChampionshipID) }),
		schema.Int(query.ColumnEventID, func(s *race.Session) int64 { return int64(s.EventID) }),
		schema.Int(query.ColumnSessionID, func(s *race.Session) int64 { return int64(s.SessionID) }),
	))
	return r
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}

// tables caches the layouts of the default schema.
type tables struct {
	registry      *schema.Registry
	championships *schema.Table[race.Championship]
	tracks        *schema.Table[race.Track]
	drivers       *schema.Table[race.Driver]
	events        *schema.Table[race.Event]
	sessions      *schema.Table[race.Session]
}

func newTables(r *schema.Registry) *tables {
	return &tables{
		registry:      r,
		championships: schema.MustGet[race.Championship](r),
		tracks:        schema.MustGet[race.Track](r),
		drivers:       schema.MustGet[race.Driver](r),
		events:        schema.MustGet[race.Event](r),
		sessions:      schema.MustGet[race.Session](r),
	}
}
