package handlers

import (
	"encoding/json"
	"net/http"

	"server/internal/middleware"
)

type adminLoginRequest struct {
	Password string `json:"password"`
}

type adminLoginResponse struct {
	Token string `json:"token"`
}

// AdminLogin exchanges the admin password for a session token. The security
// gate runs first so repeated guesses get throttled like any other auth
// attempt. POST /admin/login
func (a *App) AdminLogin(w http.ResponseWriter, r *http.Request) {
	var req adminLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Password == "" {
		a.error(w, http.StatusBadRequest, "password is required")
		return
	}

	if verdict := a.Gate.Allow(r.Context(), "", middleware.ClientIP(r)); !verdict.Allowed {
		a.error(w, http.StatusForbidden, verdict.Reason)
		return
	}

	if !a.Credentials.Verify(req.Password) {
		a.error(w, http.StatusUnauthorized, "invalid password")
		return
	}

	token, err := a.Tokens.Issue()
	if err != nil {
		a.Logger.Error().Err(err).Msg("issue admin token failed")
		a.error(w, http.StatusInternalServerError, "failed to issue token")
		return
	}
	a.json(w, http.StatusOK, adminLoginResponse{Token: token})
}
