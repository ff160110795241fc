package api

import (
	"net/http"

	"github.com/vytor/templemind/internal/models"
)

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	overview, err := s.ProgressService.Overview(r.Context(), identityFromContext(r.Context()))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, overview)
}

func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	filter := models.ResultFilter{GameType: models.GameType(r.URL.Query().Get("game_type"))}
	var err error
	for name, dst := range map[string]*int{
		"level":     &filter.Level,
		"min_stars": &filter.MinStars,
		"limit":     &filter.Limit,
		"offset":    &filter.Offset,
	} {
		if *dst, err = queryInt(r, name); err != nil {
			handleError(w, r, err)
			return
		}
	}

	page, err := s.ProgressService.ListResults(r.Context(), identityFromContext(r.Context()), filter)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, page)
}
