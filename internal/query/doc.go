// Package query provides the specification algebra used to select stored
// records.
//
// A Spec describes "which records match" as a conjunction of column
// equalities. Every spec kind lowers to the same small predicate IR:
//
//   - Equals: column = value
//   - And: all predicates must hold
//
// The IR has no OR, negation or ranges. Specs supplied together are combined
// with AND and may be evaluated in any order.
//
// Two backends consume the IR and must agree:
//   - querysql compiles it to a parameterized SQLite WHERE clause
//   - Match evaluates it against an in-memory row for fakes and tests
//
// Because both derive from Spec.Predicate, the column list of a spec kind is
// declared exactly once.
//
// Example:
//
//	specs := []query.Spec{
//	    query.BySession(key),
//	    query.VersionMatch("9f86d081"),
//	}
//	where, args, err := querysql.Where(specs...)
//	// where: "ChampionshipId = ? AND EventId = ? AND SessionId = ? AND Version = ?"
package query
