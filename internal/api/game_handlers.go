package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vytor/templemind/internal/session"
)

func (s *Server) handleLevels(w http.ResponseWriter, r *http.Request) {
	levels, err := s.GameService.Levels(r.Context(), identityFromContext(r.Context()))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"levels": levels})
}

func (s *Server) handleLevel(w http.ResponseWriter, r *http.Request) {
	level, err := pathInt(r, "level")
	if err != nil {
		handleError(w, r, err)
		return
	}
	info, err := s.GameService.Level(r.Context(), identityFromContext(r.Context()), int(level))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, info)
}

type startSessionRequest struct {
	Level int `json:"level"`
}

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	var req startSessionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	snap, err := s.GameService.Start(r.Context(), identityFromContext(r.Context()), req.Level)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, snap)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	snap, err := s.GameService.Get(r.Context(), identityFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, snap)
}

func (s *Server) handleSessionInput(w http.ResponseWriter, r *http.Request) {
	var in session.Input
	if err := decodeJSON(w, r, &in); err != nil {
		handleError(w, r, err)
		return
	}

	snap, err := s.GameService.Submit(r.Context(), identityFromContext(r.Context()), chi.URLParam(r, "id"), in)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, snap)
}

func (s *Server) handleRestartSession(w http.ResponseWriter, r *http.Request) {
	snap, err := s.GameService.Restart(r.Context(), identityFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, snap)
}

func (s *Server) handleExitSession(w http.ResponseWriter, r *http.Request) {
	if err := s.GameService.Exit(r.Context(), identityFromContext(r.Context()), chi.URLParam(r, "id")); err != nil {
		handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
