package query

// Row is the column view of one stored record: its key columns plus Version.
type Row map[string]any

// Match reports whether row satisfies every spec. A column the row does not
// carry never matches. Malformed predicates never match.
func Match(row Row, specs ...Spec) bool {
	leaves, err := Flatten(Combine(specs...))
	if err != nil {
		return false
	}
	for _, eq := range leaves {
		v, ok := row[eq.Column]
		if !ok || v != eq.Value {
			return false
		}
	}
	return true
}
