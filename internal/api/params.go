package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/roach88/pitwall/internal/race"
	"github.com/roach88/pitwall/internal/store"
)

// errPreconditionRequired is returned when a PUT omits If-Match.
var errPreconditionRequired = errors.New("missing If-Match header")

// pathID parses a base-36 id from a URL parameter.
func pathID(r *http.Request, name string) (int64, error) {
	id, err := race.ParseID(chi.URLParam(r, name))
	if err != nil {
		return 0, fmt.Errorf("path parameter %s: %w", name, err)
	}
	return id, nil
}

func championshipID(r *http.Request) (race.ChampionshipID, error) {
	id, err := pathID(r, "championshipId")
	return race.ChampionshipID(id), err
}

func eventKey(r *http.Request) (race.ChampionshipID, race.EventID, error) {
	cid, err := championshipID(r)
	if err != nil {
		return 0, 0, err
	}
	eid, err := pathID(r, "eventId")
	return cid, race.EventID(eid), err
}

func sessionKey(r *http.Request) (race.SessionKey, error) {
	cid, eid, err := eventKey(r)
	if err != nil {
		return race.SessionKey{}, err
	}
	sid, err := pathID(r, "sessionId")
	return race.SessionKey{ChampionshipID: cid, EventID: eid, SessionID: race.SessionID(sid)}, err
}

// ifMatch returns the version the client expects to replace. Only a single
// strong entity tag is accepted.
func ifMatch(r *http.Request) (store.Version, error) {
	v := strings.TrimSpace(r.Header.Get("If-Match"))
	if v == "" {
		return "", errPreconditionRequired
	}
	if strings.HasPrefix(v, "W/") || v == "*" || strings.Contains(v, ",") {
		return "", fmt.Errorf("if-match %q: want a single strong entity tag", v)
	}
	return store.Version(strings.Trim(v, `"`)), nil
}

// badRequest writes a 400 for malformed path or header values.
func badRequest(w http.ResponseWriter, err error) {
	if errors.Is(err, errPreconditionRequired) {
		writeProblem(w, problem{Status: http.StatusPreconditionRequired, Title: "Precondition Required", Detail: err.Error()})
		return
	}
	writeProblem(w, problem{Status: http.StatusBadRequest, Title: "Bad Request", Detail: err.Error()})
}
