package store

import "errors"

var (
	// ErrNotFound is returned by Find when no record matches.
	ErrNotFound = errors.New("store: record not found")

	// ErrConflict reports a version-matched write that affected no rows.
	ErrConflict = errors.New("store: version conflict")

	// ErrDuplicateKey is returned by Insert when the key is already taken.
	ErrDuplicateKey = errors.New("store: duplicate key")

	// ErrAmbiguousMatch is returned by Update when the specifications match
	// more than one record. Nothing is written.
	ErrAmbiguousMatch = errors.New("store: update matched more than one record")

	// ErrDataFormatIntegrity reports a stored record that no longer decodes
	// into its entity type. It is never recovered from.
	ErrDataFormatIntegrity = errors.New("store: stored data failed to decode")

	// ErrTxDone is returned when using a committed or rolled back Tx.
	ErrTxDone = errors.New("store: transaction already finished")
)

// CheckUpdated converts the result of a version-matched Update into an
// error: zero affected rows become ErrConflict.
func CheckUpdated(n int64, err error) error {
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrConflict
	}
	return nil
}
