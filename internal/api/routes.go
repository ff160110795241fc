package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/cors"
)

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(recoveryMiddleware)
	r.Use(loggingMiddleware)
	r.Use(securityHeadersMiddleware)
	r.Use(cors.New(cors.Options{
		AllowedOrigins:   s.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", religionHeader, "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: !allowsAnyOrigin(s.CORSOrigins),
		MaxAge:           600,
	}).Handler)

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)

	r.Route("/api", func(r chi.Router) {
		r.Use(s.identityMiddleware)

		r.Post("/profiles", s.handleRegister)
		r.Get("/profiles", s.handleListProfiles)
		r.Delete("/profiles/{id}", s.handleDeleteProfile)
		r.Get("/me", s.handleMe)
		r.Put("/me/religion", s.handleChangeReligion)

		r.Get("/levels", s.handleLevels)
		r.Get("/levels/{level}", s.handleLevel)
		r.Get("/story", s.handleStory)

		r.Post("/sessions", s.handleStartSession)
		r.Get("/sessions/{id}", s.handleGetSession)
		r.Post("/sessions/{id}/input", s.handleSessionInput)
		r.Post("/sessions/{id}/restart", s.handleRestartSession)
		r.Delete("/sessions/{id}", s.handleExitSession)

		r.Get("/progress", s.handleProgress)
		r.Get("/results", s.handleResults)

		r.Post("/chat", s.handleChat)
		r.Get("/chat/history", s.handleChatHistory)
		r.Delete("/chat/history", s.handleClearChatHistory)
		r.Get("/questions", s.handleQuestion)
		r.Get("/tips", s.handleTip)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		handleError(w, r, errNotFoundRoute(r))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		handleError(w, r, errMethodNotAllowed(r))
	})
	return r
}

func allowsAnyOrigin(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return len(origins) == 0
}
