// Package schema declares how entity types map onto SQLite tables.
//
// Every entity is stored as an opaque serialized body plus a handful of
// key columns extracted from it. The registry is the only place those key
// columns are declared; the store uses it to create tables and to fill key
// columns on insert, and the in-memory fakes use it to evaluate
// specifications without SQL.
package schema

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

// Reserved columns present on every table after the key columns.
const (
	ColumnData    = "Data"
	ColumnCreated = "Created"
	ColumnUpdated = "Updated"
	ColumnVersion = "Version"
)

// RecordColumns lists the reserved columns in storage order.
var RecordColumns = []string{ColumnData, ColumnCreated, ColumnUpdated, ColumnVersion}

// ErrUnconfigured is returned by Get for a type that was never configured.
var ErrUnconfigured = errors.New("schema: type not configured")

// ColumnType is the SQLite storage class of a key column.
type ColumnType string

const (
	Integer ColumnType = "INTEGER"
	Text    ColumnType = "TEXT"
)

// Field is one key column: its name, storage type and how to pull its value
// out of an entity. Value must return int64 for Integer and string for Text.
type Field[T any] struct {
	Name  string
	Type  ColumnType
	Value func(*T) any
}

// Int declares an INTEGER key column.
func Int[T any](name string, get func(*T) int64) Field[T] {
	return Field[T]{Name: name, Type: Integer, Value: func(v *T) any { return get(v) }}
}

// String declares a TEXT key column.
func String[T any](name string, get func(*T) string) Field[T] {
	return Field[T]{Name: name, Type: Text, Value: func(v *T) any { return get(v) }}
}

// Table describes the storage layout of entity type T.
type Table[T any] struct {
	Name string
	Keys []Field[T]
}

// KeyColumns returns the key column names in declaration order.
func (t *Table[T]) KeyColumns() []string {
	cols := make([]string, len(t.Keys))
	for i, k := range t.Keys {
		cols[i] = k.Name
	}
	return cols
}

// KeyValues extracts the key column values of v in declaration order.
func (t *Table[T]) KeyValues(v *T) []any {
	vals := make([]any, len(t.Keys))
	for i, k := range t.Keys {
		vals[i] = k.Value(v)
	}
	return vals
}

// Row returns the key columns of v keyed by column name.
func (t *Table[T]) Row(v *T) map[string]any {
	row := make(map[string]any, len(t.Keys)+1)
	for _, k := range t.Keys {
		row[k.Name] = k.Value(v)
	}
	return row
}

// CreateSQL renders the idempotent DDL for the table.
func (t *Table[T]) CreateSQL() string {
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE IF NOT EXISTS %s (", t.Name)
	for _, k := range t.Keys {
		fmt.Fprintf(&b, "%s %s NOT NULL, ", k.Name, k.Type)
	}
	for _, c := range RecordColumns {
		fmt.Fprintf(&b, "%s TEXT NOT NULL, ", c)
	}
	fmt.Fprintf(&b, "PRIMARY KEY (%s));", strings.Join(t.KeyColumns(), ", "))
	return b.String()
}

type declared interface {
	CreateSQL() string
}

// Registry holds the table layout of every configured entity type.
// It is built once at startup and read-only afterwards.
type Registry struct {
	tables map[reflect.Type]declared
	order  []declared
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{tables: make(map[reflect.Type]declared)}
}

// Configure declares the table name and key fields for T.
func Configure[T any](r *Registry, name string, keys ...Field[T]) error {
	typ := reflect.TypeFor[T]()
	if _, ok := r.tables[typ]; ok {
		return fmt.Errorf("schema: %s already configured", typ)
	}
	if name == "" {
		return fmt.Errorf("schema: %s: empty table name", typ)
	}
	if len(keys) == 0 {
		return fmt.Errorf("schema: %s: at least one key field required", typ)
	}
	seen := make(map[string]bool, len(keys))
	for _, k := range keys {
		if k.Value == nil {
			return fmt.Errorf("schema: %s.%s: missing value function", name, k.Name)
		}
		if seen[k.Name] || isReserved(k.Name) {
			return fmt.Errorf("schema: %s.%s: duplicate or reserved column", name, k.Name)
		}
		seen[k.Name] = true
	}

	t := &Table[T]{Name: name, Keys: keys}
	r.tables[typ] = t
	r.order = append(r.order, t)
	return nil
}

// Get returns the table layout of T.
func Get[T any](r *Registry) (*Table[T], error) {
	typ := reflect.TypeFor[T]()
	d, ok := r.tables[typ]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnconfigured, typ)
	}
	return d.(*Table[T]), nil
}

// MustGet is like Get but panics for unconfigured types.
// Use only where configuration is fixed at compile time.
func MustGet[T any](r *Registry) *Table[T] {
	t, err := Get[T](r)
	if err != nil {
		panic(err)
	}
	return t
}

// CreateStatements returns the DDL of every table in configuration order.
func (r *Registry) CreateStatements() []string {
	stmts := make([]string, len(r.order))
	for i, t := range r.order {
		stmts[i] = t.CreateSQL()
	}
	return stmts
}

func isReserved(name string) bool {
	for _, c := range RecordColumns {
		if strings.EqualFold(c, name) {
			return true
		}
	}
	return false
}
