package race

import (
	"errors"
	"fmt"
)

// NotFoundError reports that an entity addressed by a request does not exist.
type NotFoundError struct {
	// Kind is the entity kind ("championship", "session", ...).
	Kind string
	// Key is a printable form of the entity key.
	Key string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.Key)
}

// NewNotFound builds a NotFoundError.
func NewNotFound(kind string, key fmt.Stringer) *NotFoundError {
	return &NotFoundError{Kind: kind, Key: key.String()}
}

// IsNotFound reports whether err is (or wraps) a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// SessionErrorCode categorizes rule violations on a session.
type SessionErrorCode string

const (
	// ErrCodeInvalidState means the operation is not valid in the current state.
	ErrCodeInvalidState SessionErrorCode = "INVALID_STATE"

	// ErrCodeInvalidStateChange means the requested transition is not allowed.
	ErrCodeInvalidStateChange SessionErrorCode = "INVALID_STATE_CHANGE"

	// ErrCodeInvalidProgress means the requested lap count is out of range.
	ErrCodeInvalidProgress SessionErrorCode = "INVALID_PROGRESS"

	// ErrCodeScheduleConflict means the preceding scheduled session has not finished.
	ErrCodeScheduleConflict SessionErrorCode = "SCHEDULE_CONFLICT"
)

// SessionError is a business-rule rejection on one session. Only the fields
// relevant to Code are populated.
type SessionError struct {
	Code    SessionErrorCode
	Message string
	Session SessionKey

	Current   State
	Requested State
	Valid     []State

	RequestedProgress uint16
	MinimumProgress   uint16
	MaximumProgress   uint16

	ConflictingSession SessionID
}

func (e *SessionError) Error() string {
	switch e.Code {
	case ErrCodeInvalidProgress:
		return fmt.Sprintf("%s: %s (session=%s, requested=%d, valid=%d..%d)",
			e.Code, e.Message, e.Session, e.RequestedProgress, e.MinimumProgress, e.MaximumProgress)
	case ErrCodeScheduleConflict:
		return fmt.Sprintf("%s: %s (session=%s, conflicting=%s)",
			e.Code, e.Message, e.Session, e.ConflictingSession)
	case ErrCodeInvalidStateChange:
		return fmt.Sprintf("%s: %s (session=%s, current=%s, requested=%s)",
			e.Code, e.Message, e.Session, e.Current, e.Requested)
	}
	return fmt.Sprintf("%s: %s (session=%s, current=%s)", e.Code, e.Message, e.Session, e.Current)
}

// String renders the key as championship/event/session in base 36.
func (k SessionKey) String() string {
	return k.ChampionshipID.String() + "/" + k.EventID.String() + "/" + k.SessionID.String()
}

// HasCode reports whether err is a SessionError with the given code.
func HasCode(err error, code SessionErrorCode) bool {
	var se *SessionError
	if errors.As(err, &se) {
		return se.Code == code
	}
	return false
}

// IsSessionError reports whether err is any SessionError.
func IsSessionError(err error) bool {
	var se *SessionError
	return errors.As(err, &se)
}

// NewScheduleConflict reports that key cannot start before conflicting finishes.
func NewScheduleConflict(key SessionKey, conflicting SessionID) *SessionError {
	return &SessionError{
		Code:               ErrCodeScheduleConflict,
		Message:            "session cannot start while the previous scheduled session is not finished",
		Session:            key,
		ConflictingSession: conflicting,
	}
}
