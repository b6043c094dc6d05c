package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/roach88/pitwall/internal/race"
	"github.com/roach88/pitwall/internal/service"
	"github.com/roach88/pitwall/internal/store"
	"github.com/roach88/pitwall/internal/validate"
)

// recordBody is the wire form of a store.Record.
type recordBody[T any] struct {
	Object  T         `json:"object"`
	Created time.Time `json:"created"`
	Updated time.Time `json:"updated"`
	Version string    `json:"version"`
}

func toBody[T any](rec store.Record[T]) recordBody[T] {
	return recordBody[T]{Object: rec.Object, Created: rec.Created, Updated: rec.Updated, Version: string(rec.Version)}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Warn("response write failed", "error", err)
	}
}

// writeRecord writes one record with its version as ETag.
func writeRecord[T any](w http.ResponseWriter, status int, rec store.Record[T]) {
	w.Header().Set("ETag", `"`+string(rec.Version)+`"`)
	writeJSON(w, status, toBody(rec))
}

func writeRecords[T any](w http.ResponseWriter, recs []store.Record[T]) {
	out := make([]recordBody[T], len(recs))
	for i, rec := range recs {
		out[i] = toBody(rec)
	}
	writeJSON(w, http.StatusOK, out)
}

// writeCreated writes a new record and points Location at it.
func writeCreated[T any](w http.ResponseWriter, r *http.Request, id string, rec store.Record[T]) {
	w.Header().Set("Location", strings.TrimSuffix(r.URL.Path, "/")+"/"+id)
	writeRecord(w, http.StatusCreated, rec)
}

// problem is an RFC 9457 problem document.
type problem struct {
	Type      string                `json:"type,omitempty"`
	Title     string                `json:"title"`
	Status    int                   `json:"status"`
	Detail    string                `json:"detail,omitempty"`
	Code      string                `json:"code,omitempty"`
	RequestID string                `json:"requestId,omitempty"`
	Fields    []validate.FieldError `json:"fields,omitempty"`
	Session   *sessionProblem       `json:"session,omitempty"`
}

// sessionProblem carries the fields of a race.SessionError that apply to
// its code.
type sessionProblem struct {
	Current            race.State     `json:"current,omitempty"`
	Requested          race.State     `json:"requested,omitempty"`
	Valid              []race.State   `json:"valid,omitempty"`
	RequestedProgress  uint16         `json:"requestedProgress,omitempty"`
	MinimumProgress    uint16         `json:"minimumProgress,omitempty"`
	MaximumProgress    uint16         `json:"maximumProgress,omitempty"`
	ConflictingSession race.SessionID `json:"conflictingSession,omitempty"`
}

func writeProblem(w http.ResponseWriter, p problem) {
	if p.Type == "" {
		p.Type = "about:blank"
	}
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(p.Status)
	if err := json.NewEncoder(w).Encode(p); err != nil {
		slog.Warn("response write failed", "error", err)
	}
}

// writeError maps a service error onto a problem response.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	p := problem{Detail: err.Error(), RequestID: middleware.GetReqID(r.Context())}

	var (
		verr *validate.Error
		nf   *race.NotFoundError
		se   *race.SessionError
	)
	switch {
	case errors.As(err, &verr):
		p.Status, p.Title, p.Code, p.Fields = http.StatusBadRequest, "Invalid Payload", verr.Code, verr.Fields
	case errors.Is(err, service.ErrInvalid):
		p.Status, p.Title = http.StatusBadRequest, "Invalid Change"
	case errors.As(err, &nf):
		p.Status, p.Title = http.StatusNotFound, "Not Found"
	case errors.Is(err, store.ErrConflict):
		p.Status, p.Title = http.StatusPreconditionFailed, "Version Mismatch"
	case errors.As(err, &se):
		p.Status, p.Title, p.Code = http.StatusConflict, "Session Rule Violated", string(se.Code)
		p.Session = &sessionProblem{
			Current:            se.Current,
			Requested:          se.Requested,
			Valid:              se.Valid,
			RequestedProgress:  se.RequestedProgress,
			MinimumProgress:    se.MinimumProgress,
			MaximumProgress:    se.MaximumProgress,
			ConflictingSession: se.ConflictingSession,
		}
	default:
		if errors.Is(err, store.ErrDataFormatIntegrity) {
			slog.Error("stored data is corrupt", "path", r.URL.Path, "error", err)
		} else {
			slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		}
		p.Status, p.Title, p.Detail = http.StatusInternalServerError, "Internal Server Error", ""
	}
	writeProblem(w, p)
}

// decode reads the request body and validates it as kind into dst.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, kind validate.Kind, dst any) error {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return &validate.Error{Kind: kind, Code: validate.ErrCodeMalformed, Fields: []validate.FieldError{{Message: err.Error()}}}
	}
	return s.validator.Decode(kind, data, dst)
}
