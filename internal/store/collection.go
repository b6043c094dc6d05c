package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/roach88/pitwall/internal/query"
	"github.com/roach88/pitwall/internal/querysql"
	"github.com/roach88/pitwall/internal/schema"
)

// ReadOnly is the read side of a versioned collection.
type ReadOnly[T any] interface {
	// List returns every matching record in key order.
	List(ctx context.Context, specs ...query.Spec) ([]Record[T], error)
	// Stream yields matching records one at a time.
	Stream(ctx context.Context, specs ...query.Spec) iter.Seq2[Record[T], error]
	// Find returns one matching record or ErrNotFound.
	Find(ctx context.Context, specs ...query.Spec) (Record[T], error)
	Exists(ctx context.Context, specs ...query.Spec) (bool, error)
	Count(ctx context.Context, specs ...query.Spec) (int64, error)
}

// Writable adds inserts and version-matched updates.
type Writable[T any] interface {
	ReadOnly[T]
	// Insert stores a new record and returns the number of rows written.
	Insert(ctx context.Context, entity T) (int64, error)
	// Update replaces the single record matching specs. It returns 0 when
	// nothing matched.
	Update(ctx context.Context, entity T, specs ...query.Spec) (int64, error)
}

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Collection is a view of one entity table bound to a connection or a
// transaction. It holds no state of its own beyond that handle.
type Collection[T any] struct {
	q     querier
	table *schema.Table[T]
	now   func() time.Time
}

func newCollection[T any](q querier, table *schema.Table[T], now func() time.Time) *Collection[T] {
	return &Collection[T]{q: q, table: table, now: now}
}

var recordColumns = schema.RecordColumns

func (c *Collection[T]) Stream(ctx context.Context, specs ...query.Spec) iter.Seq2[Record[T], error] {
	return func(yield func(Record[T], error) bool) {
		stmt, args, err := querysql.Select(c.table.Name, recordColumns, c.table.KeyColumns(), specs...)
		if err != nil {
			yield(Record[T]{}, err)
			return
		}
		rows, err := c.q.QueryContext(ctx, stmt, args...)
		if err != nil {
			yield(Record[T]{}, fmt.Errorf("query %s: %w", c.table.Name, err))
			return
		}
		defer rows.Close()

		for rows.Next() {
			rec, err := scanRecord[T](rows)
			if err != nil {
				yield(Record[T]{}, fmt.Errorf("read %s: %w", c.table.Name, err))
				return
			}
			if !yield(rec, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(Record[T]{}, fmt.Errorf("iterate %s: %w", c.table.Name, err))
		}
	}
}

func (c *Collection[T]) List(ctx context.Context, specs ...query.Spec) ([]Record[T], error) {
	records := []Record[T]{}
	for rec, err := range c.Stream(ctx, specs...) {
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

func (c *Collection[T]) Find(ctx context.Context, specs ...query.Spec) (Record[T], error) {
	stmt, args, err := querysql.Select(c.table.Name, recordColumns, c.table.KeyColumns(), specs...)
	if err != nil {
		return Record[T]{}, err
	}
	rec, err := scanRecord[T](c.q.QueryRowContext(ctx, stmt+" LIMIT 1", args...))
	if errors.Is(err, sql.ErrNoRows) {
		return Record[T]{}, fmt.Errorf("find %s: %w", c.table.Name, ErrNotFound)
	}
	if err != nil {
		return Record[T]{}, fmt.Errorf("find %s: %w", c.table.Name, err)
	}
	return rec, nil
}

func (c *Collection[T]) Count(ctx context.Context, specs ...query.Spec) (int64, error) {
	stmt, args, err := querysql.Count(c.table.Name, specs...)
	if err != nil {
		return 0, err
	}
	var n int64
	if err := c.q.QueryRowContext(ctx, stmt, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", c.table.Name, err)
	}
	return n, nil
}

func (c *Collection[T]) Exists(ctx context.Context, specs ...query.Spec) (bool, error) {
	n, err := c.Count(ctx, specs...)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (c *Collection[T]) Insert(ctx context.Context, entity T) (int64, error) {
	body, err := encodeBody(&entity)
	if err != nil {
		return 0, fmt.Errorf("insert %s: %w", c.table.Name, err)
	}
	now := formatTime(c.now())

	cols := append(c.table.KeyColumns(), recordColumns...)
	args := append(c.table.KeyValues(&entity), string(body), now, now, string(VersionOf(body)))

	res, err := c.q.ExecContext(ctx, querysql.Insert(c.table.Name, cols), args...)
	if err != nil {
		var se sqlite3.Error
		if errors.As(err, &se) && se.Code == sqlite3.ErrConstraint {
			return 0, fmt.Errorf("insert %s: %w", c.table.Name, ErrDuplicateKey)
		}
		return 0, fmt.Errorf("insert %s: %w", c.table.Name, err)
	}
	return res.RowsAffected()
}

func (c *Collection[T]) Update(ctx context.Context, entity T, specs ...query.Spec) (int64, error) {
	matched, err := c.Count(ctx, specs...)
	if err != nil {
		return 0, fmt.Errorf("update %s: %w", c.table.Name, err)
	}
	switch {
	case matched == 0:
		slog.Debug("update matched no record", "table", c.table.Name)
		return 0, nil
	case matched > 1:
		return 0, fmt.Errorf("update %s: %w (%d records)", c.table.Name, ErrAmbiguousMatch, matched)
	}

	body, err := encodeBody(&entity)
	if err != nil {
		return 0, fmt.Errorf("update %s: %w", c.table.Name, err)
	}
	stmt, whereArgs, err := querysql.Update(c.table.Name,
		[]string{schema.ColumnData, schema.ColumnUpdated, schema.ColumnVersion}, specs...)
	if err != nil {
		return 0, fmt.Errorf("update %s: %w", c.table.Name, err)
	}
	args := append([]any{string(body), formatTime(c.now()), string(VersionOf(body))}, whereArgs...)

	res, err := c.q.ExecContext(ctx, stmt, args...)
	if err != nil {
		return 0, fmt.Errorf("update %s: %w", c.table.Name, err)
	}
	return res.RowsAffected()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord[T any](row scanner) (Record[T], error) {
	var data, created, updated, version string
	if err := row.Scan(&data, &created, &updated, &version); err != nil {
		return Record[T]{}, err
	}
	obj, err := decodeBody[T]([]byte(data))
	if err != nil {
		return Record[T]{}, err
	}
	c, err := parseTime(created)
	if err != nil {
		return Record[T]{}, err
	}
	u, err := parseTime(updated)
	if err != nil {
		return Record[T]{}, err
	}
	return Record[T]{Object: obj, Created: c, Updated: u, Version: Version(version)}, nil
}
