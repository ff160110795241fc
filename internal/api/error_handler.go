package api

import (
	"encoding/json"
	"net/http"

	"github.com/vytor/templemind/internal/errors"
	"github.com/vytor/templemind/internal/logger"
)

// handleError centralizes error handling for HTTP responses
func handleError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContext(r.Context())

	appErr, ok := errors.As(err)
	if !ok {
		appErr = errors.NewInternalError(err)
	}

	if appErr.Status >= 500 {
		log.Error("server error: %v", appErr)
	} else if appErr.Status >= 400 {
		log.Warn("client error: %v", appErr)
	} else {
		log.Debug("error: %v", appErr)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.Status)
	if err := json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"code":    appErr.Code,
			"message": appErr.Message,
		},
	}); err != nil {
		log.Error("failed to encode error response: %v", err)
	}
}

func errNotFoundRoute(r *http.Request) error {
	return &errors.AppError{
		Code:    errors.ErrCodeNotFound,
		Message: "no route for " + r.Method + " " + r.URL.Path,
		Status:  http.StatusNotFound,
	}
}

func errMethodNotAllowed(r *http.Request) error {
	return &errors.AppError{
		Code:    errors.ErrCodeBadRequest,
		Message: "method not allowed",
		Status:  http.StatusMethodNotAllowed,
	}
}
