// Package store provides the SQLite-backed versioned document store.
//
// Every entity type is stored in its own table as an opaque JSON body plus
// the key columns declared in the schema registry:
//
//	<key columns> | Data | Created | Updated | Version
//
// # Versions
//
// A record's Version is the lowercase 8-digit hex CRC-32 (IEEE) of its JSON
// body. Identical bodies carry identical versions. Versions detect concurrent
// modification only; they are not collision resistant.
//
// # Optimistic Concurrency
//
// Update writes only when exactly one stored record satisfies every supplied
// specification. Pairing an id spec with query.VersionMatch turns the write
// into a compare-and-swap: a stale version affects zero rows and the caller
// rolls the whole transaction back. The store never retries or merges.
//
// # Transactions
//
// Reads through Store run on the shared connection. Writes happen only
// through a Tx, which owns one SQLite transaction for its lifetime:
//
//	tx, err := s.Begin(ctx)
//	if err != nil {
//	    return err
//	}
//	defer tx.Rollback()
//	...
//	return tx.Commit()
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - _txlock=immediate: Writers take the lock at BEGIN
//   - One open connection: SQLite allows a single writer
package store
