package api

import (
	"net/http"

	"github.com/vytor/templemind/internal/auth"
	"github.com/vytor/templemind/internal/logger"
	"github.com/vytor/templemind/internal/models"
	"github.com/vytor/templemind/internal/services"
)

type registerRequest struct {
	Username string `json:"username"`
	Religion string `json:"religion"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	reg, err := s.ProfileService.Register(r.Context(), req.Username, req.Religion)
	if err != nil {
		handleError(w, r, err)
		return
	}

	cookie := auth.Cookie(reg.Token, reg.ExpiresAt)
	cookie.Secure = s.SecureCookies
	http.SetCookie(w, cookie)
	writeJSON(w, r, http.StatusCreated, reg)
}

func (s *Server) handleListProfiles(w http.ResponseWriter, r *http.Request) {
	profiles, err := s.ProfileService.ListProfiles(r.Context())
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"profiles": profiles})
}

func (s *Server) handleDeleteProfile(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		handleError(w, r, err)
		return
	}
	if err := s.ProfileService.DeleteProfile(r.Context(), identityFromContext(r.Context()), id); err != nil {
		handleError(w, r, err)
		return
	}
	http.SetCookie(w, auth.ClearCookie())
	w.WriteHeader(http.StatusNoContent)
}

type meResponse struct {
	Identity models.Identity    `json:"identity"`
	Overview *services.Overview `json:"overview"`
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	caller := identityFromContext(r.Context())
	overview, err := s.ProgressService.Overview(r.Context(), caller)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, meResponse{Identity: caller, Overview: overview})
}

type religionRequest struct {
	Religion string `json:"religion"`
}

func (s *Server) handleChangeReligion(w http.ResponseWriter, r *http.Request) {
	var req religionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	profile, err := s.ProfileService.ChangeReligion(r.Context(), identityFromContext(r.Context()), req.Religion)
	if err != nil {
		handleError(w, r, err)
		return
	}
	logger.FromContext(r.Context()).Info("religion changed to %s", profile.Religion)
	writeJSON(w, r, http.StatusOK, profile)
}
