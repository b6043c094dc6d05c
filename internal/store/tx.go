package store

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/roach88/pitwall/internal/race"
)

// Tx is one unit of work. Collections obtained from a Tx are writable and
// see its uncommitted changes. A Tx must not be shared between goroutines.
type Tx struct {
	id     string
	tx     *sql.Tx
	tables *tables
	now    func() time.Time
	done   bool
}

// ID identifies the transaction in logs.
func (t *Tx) ID() string { return t.id }

// Championships returns the writable championship collection.
func (t *Tx) Championships() Writable[race.Championship] {
	return newCollection(t.tx, t.tables.championships, t.now)
}

// Tracks returns the writable track collection.
func (t *Tx) Tracks() Writable[race.Track] {
	return newCollection(t.tx, t.tables.tracks, t.now)
}

// Drivers returns the writable driver collection.
func (t *Tx) Drivers() Writable[race.Driver] {
	return newCollection(t.tx, t.tables.drivers, t.now)
}

// Events returns the writable event collection.
func (t *Tx) Events() Writable[race.Event] {
	return newCollection(t.tx, t.tables.events, t.now)
}

// Sessions returns the writable session collection.
func (t *Tx) Sessions() Writable[race.Session] {
	return newCollection(t.tx, t.tables.sessions, t.now)
}

// Commit makes every write of the transaction durable.
func (t *Tx) Commit() error {
	if t.done {
		return ErrTxDone
	}
	t.done = true
	if err := t.tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction %s: %w", t.id, err)
	}
	slog.Debug("transaction committed", "tx", t.id)
	return nil
}

// Rollback discards every write of the transaction. Calling it after Commit
// or a previous Rollback is a no-op, so it is safe to defer.
func (t *Tx) Rollback() error {
	if t.done {
		return nil
	}
	t.done = true
	if err := t.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return fmt.Errorf("rollback transaction %s: %w", t.id, err)
	}
	slog.Debug("transaction rolled back", "tx", t.id)
	return nil
}
