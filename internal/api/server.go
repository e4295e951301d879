// Package api serves the learner's progress over HTTP so dashboards and
// scripts can read it without touching the data directory.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/gemtutor-ai/gemtutor/internal/history"
	"github.com/gemtutor-ai/gemtutor/internal/logging"
	"github.com/gemtutor-ai/gemtutor/internal/profile"
)

// Server exposes read-only endpoints over a profile and a session archive.
type Server struct {
	state   *profile.State
	archive *history.Store
	log     *zap.Logger
}

// NewServer wires the API over the given profile and archive.
func NewServer(state *profile.State, archive *history.Store) *Server {
	return &Server{state: state, archive: archive, log: logging.L()}
}

// Router builds the HTTP routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Get("/profile", s.handleProfile)
		r.Get("/skills", s.handleSkills)
		r.Get("/time", s.handleTime)
		r.Get("/sessions", s.handleSessions)
		r.Get("/sessions/{id}", s.handleSession)
	})
	return r
}

// requestLogger logs one line per request with latency and status.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)))
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// profileResponse is the public shape of the learner profile. Transcript
// caches and file paths stay private to the data directory.
type profileResponse struct {
	Level    int      `json:"level"`
	XP       int      `json:"xp"`
	XPNeeded int      `json:"xp_needed"`
	Language string   `json:"language"`
	Theme    string   `json:"theme"`
	Skills   []string `json:"skills"`
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, profileResponse{
		Level:    s.state.Level,
		XP:       s.state.XP,
		XPNeeded: s.state.XPForNextLevel(),
		Language: s.state.Language,
		Theme:    s.state.Theme,
		Skills:   s.state.Skills,
	})
}

func (s *Server) handleSkills(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"skills": s.state.Skills})
}

func (s *Server) handleTime(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]map[string]float64{"time_per_topic": s.state.TimePerTopic})
}

func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	recs, err := s.archive.List(limit)
	if err != nil {
		s.log.Error("list sessions", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "cannot list sessions")
		return
	}
	if recs == nil {
		recs = []history.Record{}
	}
	writeJSON(w, http.StatusOK, map[string][]history.Record{"sessions": recs})
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rec, err := s.archive.Get(id)
	if errors.Is(err, history.ErrNotFound) {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	if err != nil {
		s.log.Error("get session", zap.String("id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "cannot load session")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
