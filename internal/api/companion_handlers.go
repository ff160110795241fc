package api

import (
	"net/http"
)

type chatRequest struct {
	Message string `json:"message"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	resp, err := s.CompanionService.Chat(r.Context(), identityFromContext(r.Context()), req.Message)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, resp)
}

func (s *Server) handleChatHistory(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		handleError(w, r, err)
		return
	}
	msgs, err := s.CompanionService.History(r.Context(), identityFromContext(r.Context()), limit)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"messages": msgs})
}

func (s *Server) handleClearChatHistory(w http.ResponseWriter, r *http.Request) {
	if err := s.CompanionService.ClearHistory(r.Context(), identityFromContext(r.Context())); err != nil {
		handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleQuestion(w http.ResponseWriter, r *http.Request) {
	chapter, err := queryInt(r, "chapter")
	if err != nil {
		handleError(w, r, err)
		return
	}
	q, err := s.CompanionService.Question(r.Context(), identityFromContext(r.Context()), r.URL.Query().Get("game_type"), chapter)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, q)
}

func (s *Server) handleTip(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, s.CompanionService.Tip(r.Context(), identityFromContext(r.Context())))
}

func (s *Server) handleStory(w http.ResponseWriter, r *http.Request) {
	story, err := s.CompanionService.Story(r.Context(), identityFromContext(r.Context()))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, story)
}
