// Package querysql compiles specifications into parameterized SQLite.
//
// All values are bound as ? parameters and never interpolated. Table and
// column names come from the schema registry, never from user input.
package querysql

import (
	"fmt"
	"strings"

	"github.com/roach88/pitwall/internal/query"
)

// alwaysTrue is the WHERE fragment for an empty conjunction.
const alwaysTrue = "1 = 1"

// Where compiles specs into a WHERE fragment (without the keyword) and its
// parameters. No specs compiles to a vacuously true fragment.
func Where(specs ...query.Spec) (string, []any, error) {
	return compilePredicate(query.Combine(specs...))
}

// Select renders a query over table returning columns, filtered by specs and
// ordered by orderBy. Rows come back in key order so repeated reads agree.
func Select(table string, columns, orderBy []string, specs ...query.Spec) (string, []any, error) {
	where, args, err := Where(specs...)
	if err != nil {
		return "", nil, fmt.Errorf("compile select %s: %w", table, err)
	}
	sql := fmt.Sprintf("SELECT %s FROM %s WHERE %s", strings.Join(columns, ", "), table, where)
	if len(orderBy) > 0 {
		sql += " ORDER BY " + strings.Join(orderBy, ", ")
	}
	return sql, args, nil
}

// Count renders a COUNT(*) over table filtered by specs.
func Count(table string, specs ...query.Spec) (string, []any, error) {
	where, args, err := Where(specs...)
	if err != nil {
		return "", nil, fmt.Errorf("compile count %s: %w", table, err)
	}
	return fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s", table, where), args, nil
}

// Insert renders an INSERT of columns into table. Parameters follow column
// order.
func Insert(table string, columns []string) string {
	marks := make([]string, len(columns))
	for i := range marks {
		marks[i] = "?"
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		table, strings.Join(columns, ", "), strings.Join(marks, ", "))
}

// Update renders an UPDATE of set columns on table filtered by specs. The
// returned parameters are the WHERE parameters only; callers prepend the
// values for set in column order.
func Update(table string, set []string, specs ...query.Spec) (string, []any, error) {
	if len(set) == 0 {
		return "", nil, fmt.Errorf("compile update %s: no columns to set", table)
	}
	where, args, err := Where(specs...)
	if err != nil {
		return "", nil, fmt.Errorf("compile update %s: %w", table, err)
	}
	assigns := make([]string, len(set))
	for i, c := range set {
		assigns[i] = c + " = ?"
	}
	return fmt.Sprintf("UPDATE %s SET %s WHERE %s", table, strings.Join(assigns, ", "), where), args, nil
}

func compilePredicate(p query.Predicate) (string, []any, error) {
	leaves, err := query.Flatten(p)
	if err != nil {
		return "", nil, err
	}
	if len(leaves) == 0 {
		return alwaysTrue, nil, nil
	}

	parts := make([]string, len(leaves))
	params := make([]any, len(leaves))
	for i, eq := range leaves {
		parts[i] = eq.Column + " = ?"
		params[i] = eq.Value
	}
	return strings.Join(parts, " AND "), params, nil
}
