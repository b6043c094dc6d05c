package store

import (
	"context"
	"fmt"
	"iter"
	"sync"
	"time"

	"github.com/roach88/pitwall/internal/query"
	"github.com/roach88/pitwall/internal/schema"
)

// Memory is an in-memory Writable collection for tests and fakes. It stores
// the same serialized bodies and versions as the SQLite collection and
// evaluates specifications with query.Match.
type Memory[T any] struct {
	mu    sync.Mutex
	table *schema.Table[T]
	now   func() time.Time
	rows  []memoryRow
}

type memoryRow struct {
	keys    query.Row
	body    []byte
	created time.Time
	updated time.Time
	version Version
}

func (r memoryRow) matchRow() query.Row {
	row := make(query.Row, len(r.keys)+1)
	for k, v := range r.keys {
		row[k] = v
	}
	row[schema.ColumnVersion] = string(r.version)
	return row
}

// NewMemory returns an empty in-memory collection laid out like table.
func NewMemory[T any](table *schema.Table[T], now func() time.Time) *Memory[T] {
	if now == nil {
		now = time.Now
	}
	return &Memory[T]{table: table, now: now}
}

// Corrupt overwrites the stored body of every record matching specs.
// Used to exercise data format integrity failures.
func (m *Memory[T]) Corrupt(body string, specs ...query.Spec) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.rows {
		if query.Match(m.rows[i].matchRow(), specs...) {
			m.rows[i].body = []byte(body)
		}
	}
}

func (m *Memory[T]) Stream(ctx context.Context, specs ...query.Spec) iter.Seq2[Record[T], error] {
	return func(yield func(Record[T], error) bool) {
		records, err := m.List(ctx, specs...)
		if err != nil {
			yield(Record[T]{}, err)
			return
		}
		for _, rec := range records {
			if !yield(rec, nil) {
				return
			}
		}
	}
}

func (m *Memory[T]) List(ctx context.Context, specs ...query.Spec) ([]Record[T], error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	records := []Record[T]{}
	for _, r := range m.rows {
		if !query.Match(r.matchRow(), specs...) {
			continue
		}
		obj, err := decodeBody[T](r.body)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", m.table.Name, err)
		}
		records = append(records, Record[T]{Object: obj, Created: r.created, Updated: r.updated, Version: r.version})
	}
	return records, nil
}

func (m *Memory[T]) Find(ctx context.Context, specs ...query.Spec) (Record[T], error) {
	records, err := m.List(ctx, specs...)
	if err != nil {
		return Record[T]{}, err
	}
	if len(records) == 0 {
		return Record[T]{}, fmt.Errorf("find %s: %w", m.table.Name, ErrNotFound)
	}
	return records[0], nil
}

func (m *Memory[T]) Count(ctx context.Context, specs ...query.Spec) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.countLocked(specs), nil
}

func (m *Memory[T]) Exists(ctx context.Context, specs ...query.Spec) (bool, error) {
	n, err := m.Count(ctx, specs...)
	return n > 0, err
}

func (m *Memory[T]) Insert(ctx context.Context, entity T) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	body, err := encodeBody(&entity)
	if err != nil {
		return 0, fmt.Errorf("insert %s: %w", m.table.Name, err)
	}
	keys := query.Row(m.table.Row(&entity))
	now := m.now().UTC()

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rows {
		if sameKeys(r.keys, keys) {
			return 0, fmt.Errorf("insert %s: %w", m.table.Name, ErrDuplicateKey)
		}
	}
	m.rows = append(m.rows, memoryRow{keys: keys, body: body, created: now, updated: now, version: VersionOf(body)})
	return 1, nil
}

func (m *Memory[T]) Update(ctx context.Context, entity T, specs ...query.Spec) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	switch n := m.countLocked(specs); {
	case n == 0:
		return 0, nil
	case n > 1:
		return 0, fmt.Errorf("update %s: %w (%d records)", m.table.Name, ErrAmbiguousMatch, n)
	}

	body, err := encodeBody(&entity)
	if err != nil {
		return 0, fmt.Errorf("update %s: %w", m.table.Name, err)
	}
	for i := range m.rows {
		if query.Match(m.rows[i].matchRow(), specs...) {
			m.rows[i].body = body
			m.rows[i].updated = m.now().UTC()
			m.rows[i].version = VersionOf(body)
			return 1, nil
		}
	}
	return 0, nil
}

func (m *Memory[T]) countLocked(specs []query.Spec) int64 {
	var n int64
	for _, r := range m.rows {
		if query.Match(r.matchRow(), specs...) {
			n++
		}
	}
	return n
}

func sameKeys(a, b query.Row) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if b[k] != v {
			return false
		}
	}
	return true
}
