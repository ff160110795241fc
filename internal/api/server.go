package api

import (
	"context"

	"github.com/vytor/templemind/internal/services"
)

// Pinger reports whether the store is reachable. *db.DB implements it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type Server struct {
	ProfileService   services.ProfileService
	GameService      services.GameService
	ProgressService  services.ProgressService
	CompanionService services.CompanionService
	DB               Pinger
	CORSOrigins      []string
	// SecureCookies marks the identity cookie Secure, for HTTPS deployments.
	SecureCookies bool
}
