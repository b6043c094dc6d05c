// Package api exposes the service over HTTP.
//
// Every resource lives under /api. Single-record responses carry the record
// version as a strong ETag, and every PUT must send it back in If-Match.
// Errors are written as application/problem+json.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/roach88/pitwall/internal/service"
	"github.com/roach88/pitwall/internal/validate"
)

// maxBodyBytes bounds change payloads.
const maxBodyBytes = 1 << 20

// Server holds the HTTP handlers.
type Server struct {
	svc       *service.Service
	validator *validate.Validator
	accessLog bool
}

// Option configures a Server.
type Option func(*Server)

// WithoutAccessLog disables the request logging middleware.
func WithoutAccessLog() Option {
	return func(s *Server) { s.accessLog = false }
}

// New returns a Server backed by svc.
func New(svc *service.Service, v *validate.Validator, opts ...Option) *Server {
	s := &Server{svc: svc, validator: v, accessLog: true}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	if s.accessLog {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Get("/features", s.listFeatures)

		r.Route("/championships", func(r chi.Router) {
			r.Get("/", s.listChampionships)
			r.Post("/", s.createChampionship)

			r.Route("/{championshipId}", func(r chi.Router) {
				r.Get("/", s.getChampionship)
				r.Put("/", s.updateChampionship)

				r.Route("/tracks", func(r chi.Router) {
					r.Get("/", s.listTracks)
					r.Post("/", s.createTrack)
					r.Get("/{trackId}", s.getTrack)
					r.Put("/{trackId}", s.updateTrack)
				})

				r.Route("/drivers", func(r chi.Router) {
					r.Get("/", s.listDrivers)
					r.Post("/", s.createDriver)
					r.Get("/{driverId}", s.getDriver)
					r.Put("/{driverId}", s.updateDriver)
				})

				r.Route("/events", func(r chi.Router) {
					r.Get("/", s.listEvents)
					r.Post("/", s.createEvent)

					r.Route("/{eventId}", func(r chi.Router) {
						r.Get("/", s.getEvent)
						r.Put("/", s.updateEvent)

						r.Route("/sessions", func(r chi.Router) {
							r.Get("/", s.listSessions)
							r.Post("/", s.createSession)

							r.Route("/{sessionId}", func(r chi.Router) {
								r.Get("/", s.getSession)
								r.Put("/", s.updateSession)
								r.Put("/state", s.setSessionState)
								r.Put("/progress", s.progressSession)
							})
						})
					})
				})
			})
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeProblem(w, problem{Status: http.StatusNotFound, Title: "Not Found", Detail: "no route for " + r.URL.Path})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeProblem(w, problem{Status: http.StatusMethodNotAllowed, Title: "Method Not Allowed"})
	})
	return r
}
