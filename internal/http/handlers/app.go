package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"server/internal/auth"
	"server/internal/domain"
	"server/internal/license"
	"server/internal/security"
)

// App bundles the dependencies shared by the HTTP handlers.
type App struct {
	Logger      zerolog.Logger
	Registry    *license.Registry
	Activator   *license.Activator
	Users       domain.UserRepository
	Gate        *security.Gate
	Credentials auth.CredentialVerifier
	Tokens      *auth.TokenManager
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, message string) {
	a.json(w, code, map[string]string{"error": message})
}

// Health reports liveness.
func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]string{"status": "ok"})
}
