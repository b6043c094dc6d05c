package api

import (
	"net/http"

	"github.com/roach88/pitwall/internal/race"
	"github.com/roach88/pitwall/internal/service"
	"github.com/roach88/pitwall/internal/validate"
)

type featureBody struct {
	ID    string `json:"id"`
	Scope string `json:"scope,omitempty"`
}

func (s *Server) listFeatures(w http.ResponseWriter, r *http.Request) {
	reg := s.svc.Features()
	out := []featureBody{}
	for _, id := range reg.IDs() {
		f, _ := reg.Lookup(id)
		out = append(out, featureBody{ID: id, Scope: string(f.Scope)})
	}
	writeJSON(w, http.StatusOK, out)
}

// Championships

func (s *Server) listChampionships(w http.ResponseWriter, r *http.Request) {
	recs, err := s.svc.ListChampionships(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeRecords(w, recs)
}

func (s *Server) createChampionship(w http.ResponseWriter, r *http.Request) {
	var ch service.ChampionshipChange
	if err := s.decode(w, r, validate.Championship, &ch); err != nil {
		writeError(w, r, err)
		return
	}
	rec, err := s.svc.CreateChampionship(r.Context(), ch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeCreated(w, r, rec.Object.ChampionshipID.String(), rec)
}

func (s *Server) getChampionship(w http.ResponseWriter, r *http.Request) {
	cid, err := championshipID(r)
	if err != nil {
		badRequest(w, err)
		return
	}
	rec, err := s.svc.FindChampionship(r.Context(), cid)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeRecord(w, http.StatusOK, rec)
}

func (s *Server) updateChampionship(w http.ResponseWriter, r *http.Request) {
	cid, err := championshipID(r)
	if err != nil {
		badRequest(w, err)
		return
	}
	version, err := ifMatch(r)
	if err != nil {
		badRequest(w, err)
		return
	}
	var ch service.ChampionshipChange
	if err := s.decode(w, r, validate.Championship, &ch); err != nil {
		writeError(w, r, err)
		return
	}
	rec, err := s.svc.UpdateChampionship(r.Context(), cid, version, ch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeRecord(w, http.StatusOK, rec)
}

// Tracks

func (s *Server) listTracks(w http.ResponseWriter, r *http.Request) {
	cid, err := championshipID(r)
	if err != nil {
		badRequest(w, err)
		return
	}
	recs, err := s.svc.ListTracks(r.Context(), cid)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeRecords(w, recs)
}

func (s *Server) createTrack(w http.ResponseWriter, r *http.Request) {
	cid, err := championshipID(r)
	if err != nil {
		badRequest(w, err)
		return
	}
	var ch service.TrackChange
	if err := s.decode(w, r, validate.Track, &ch); err != nil {
		writeError(w, r, err)
		return
	}
	rec, err := s.svc.CreateTrack(r.Context(), cid, ch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeCreated(w, r, rec.Object.TrackID.String(), rec)
}

func (s *Server) getTrack(w http.ResponseWriter, r *http.Request) {
	cid, err := championshipID(r)
	if err != nil {
		badRequest(w, err)
		return
	}
	tid, err := pathID(r, "trackId")
	if err != nil {
		badRequest(w, err)
		return
	}
	rec, err := s.svc.FindTrack(r.Context(), cid, race.TrackID(tid))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeRecord(w, http.StatusOK, rec)
}

func (s *Server) updateTrack(w http.ResponseWriter, r *http.Request) {
	cid, err := championshipID(r)
	if err != nil {
		badRequest(w, err)
		return
	}
	tid, err := pathID(r, "trackId")
	if err != nil {
		badRequest(w, err)
		return
	}
	version, err := ifMatch(r)
	if err != nil {
		badRequest(w, err)
		return
	}
	var ch service.TrackChange
	if err := s.decode(w, r, validate.Track, &ch); err != nil {
		writeError(w, r, err)
		return
	}
	rec, err := s.svc.UpdateTrack(r.Context(), cid, race.TrackID(tid), version, ch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeRecord(w, http.StatusOK, rec)
}

// Drivers

func (s *Server) listDrivers(w http.ResponseWriter, r *http.Request) {
	cid, err := championshipID(r)
	if err != nil {
		badRequest(w, err)
		return
	}
	recs, err := s.svc.ListDrivers(r.Context(), cid)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeRecords(w, recs)
}

func (s *Server) createDriver(w http.ResponseWriter, r *http.Request) {
	cid, err := championshipID(r)
	if err != nil {
		badRequest(w, err)
		return
	}
	var ch service.DriverChange
	if err := s.decode(w, r, validate.Driver, &ch); err != nil {
		writeError(w, r, err)
		return
	}
	rec, err := s.svc.CreateDriver(r.Context(), cid, ch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeCreated(w, r, rec.Object.DriverID.String(), rec)
}

func (s *Server) getDriver(w http.ResponseWriter, r *http.Request) {
	cid, err := championshipID(r)
	if err != nil {
		badRequest(w, err)
		return
	}
	did, err := pathID(r, "driverId")
	if err != nil {
		badRequest(w, err)
		return
	}
	rec, err := s.svc.FindDriver(r.Context(), cid, race.DriverID(did))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeRecord(w, http.StatusOK, rec)
}

func (s *Server) updateDriver(w http.ResponseWriter, r *http.Request) {
	cid, err := championshipID(r)
	if err != nil {
		badRequest(w, err)
		return
	}
	did, err := pathID(r, "driverId")
	if err != nil {
		badRequest(w, err)
		return
	}
	version, err := ifMatch(r)
	if err != nil {
		badRequest(w, err)
		return
	}
	var ch service.DriverChange
	if err := s.decode(w, r, validate.Driver, &ch); err != nil {
		writeError(w, r, err)
		return
	}
	rec, err := s.svc.UpdateDriver(r.Context(), cid, race.DriverID(did), version, ch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeRecord(w, http.StatusOK, rec)
}

// Events

func (s *Server) listEvents(w http.ResponseWriter, r *http.Request) {
	cid, err := championshipID(r)
	if err != nil {
		badRequest(w, err)
		return
	}
	recs, err := s.svc.ListEvents(r.Context(), cid)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeRecords(w, recs)
}

func (s *Server) createEvent(w http.ResponseWriter, r *http.Request) {
	cid, err := championshipID(r)
	if err != nil {
		badRequest(w, err)
		return
	}
	var ch service.EventChange
	if err := s.decode(w, r, validate.Event, &ch); err != nil {
		writeError(w, r, err)
		return
	}
	rec, err := s.svc.CreateEvent(r.Context(), cid, ch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeCreated(w, r, rec.Object.EventID.String(), rec)
}

func (s *Server) getEvent(w http.ResponseWriter, r *http.Request) {
	cid, eid, err := eventKey(r)
	if err != nil {
		badRequest(w, err)
		return
	}
	rec, err := s.svc.FindEvent(r.Context(), cid, eid)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeRecord(w, http.StatusOK, rec)
}

func (s *Server) updateEvent(w http.ResponseWriter, r *http.Request) {
	cid, eid, err := eventKey(r)
	if err != nil {
		badRequest(w, err)
		return
	}
	version, err := ifMatch(r)
	if err != nil {
		badRequest(w, err)
		return
	}
	var ch service.EventChange
	if err := s.decode(w, r, validate.Event, &ch); err != nil {
		writeError(w, r, err)
		return
	}
	rec, err := s.svc.UpdateEvent(r.Context(), cid, eid, version, ch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeRecord(w, http.StatusOK, rec)
}

// Sessions

func (s *Server) listSessions(w http.ResponseWriter, r *http.Request) {
	cid, eid, err := eventKey(r)
	if err != nil {
		badRequest(w, err)
		return
	}
	recs, err := s.svc.ListSessions(r.Context(), cid, eid)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeRecords(w, recs)
}

func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	cid, eid, err := eventKey(r)
	if err != nil {
		badRequest(w, err)
		return
	}
	var ch service.SessionChange
	if err := s.decode(w, r, validate.Session, &ch); err != nil {
		writeError(w, r, err)
		return
	}
	rec, err := s.svc.CreateSession(r.Context(), cid, eid, ch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeCreated(w, r, rec.Object.SessionID.String(), rec)
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	key, err := sessionKey(r)
	if err != nil {
		badRequest(w, err)
		return
	}
	rec, err := s.svc.FindSession(r.Context(), key)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeRecord(w, http.StatusOK, rec)
}

func (s *Server) updateSession(w http.ResponseWriter, r *http.Request) {
	key, err := sessionKey(r)
	if err != nil {
		badRequest(w, err)
		return
	}
	version, err := ifMatch(r)
	if err != nil {
		badRequest(w, err)
		return
	}
	var ch service.SessionChange
	if err := s.decode(w, r, validate.Session, &ch); err != nil {
		writeError(w, r, err)
		return
	}
	rec, err := s.svc.UpdateSession(r.Context(), key, version, ch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeRecord(w, http.StatusOK, rec)
}

func (s *Server) setSessionState(w http.ResponseWriter, r *http.Request) {
	key, err := sessionKey(r)
	if err != nil {
		badRequest(w, err)
		return
	}
	version, err := ifMatch(r)
	if err != nil {
		badRequest(w, err)
		return
	}
	var ch service.StateChange
	if err := s.decode(w, r, validate.StateChange, &ch); err != nil {
		writeError(w, r, err)
		return
	}
	rec, err := s.svc.SetState(r.Context(), key, version, ch.State)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeRecord(w, http.StatusOK, rec)
}

func (s *Server) progressSession(w http.ResponseWriter, r *http.Request) {
	key, err := sessionKey(r)
	if err != nil {
		badRequest(w, err)
		return
	}
	version, err := ifMatch(r)
	if err != nil {
		badRequest(w, err)
		return
	}
	var ch service.ProgressChange
	if err := s.decode(w, r, validate.ProgressChange, &ch); err != nil {
		writeError(w, r, err)
		return
	}
	rec, err := s.svc.Progress(r.Context(), key, version, ch.ElapsedLaps)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeRecord(w, http.StatusOK, rec)
}
