package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"server/internal/domain"
	"server/internal/entitlement"
	"server/internal/middleware"
)

type registerRequest struct {
	UserID string `json:"userId"`
	Name   string `json:"name"`
	Email  string `json:"email"`
}

type registerResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Plan  string `json:"plan"`
}

// Register creates a profile for an identity issued by the auth provider.
// The pre-auth security gate runs first. POST /api/register
func (a *App) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if req.UserID == "" || req.Email == "" {
		a.error(w, http.StatusBadRequest, "userId and email are required")
		return
	}

	if verdict := a.Gate.Allow(r.Context(), req.Email, middleware.ClientIP(r)); !verdict.Allowed {
		a.error(w, http.StatusForbidden, verdict.Reason)
		return
	}

	user := &domain.UserProfile{
		ID:        req.UserID,
		Name:      req.Name,
		Email:     req.Email,
		Plan:      domain.PlanFree,
		CreatedAt: time.Now(),
	}
	if err := a.Users.Create(r.Context(), user); err != nil {
		a.Logger.Error().Err(err).Msg("create user failed")
		a.error(w, http.StatusInternalServerError, "failed to create user")
		return
	}

	a.json(w, http.StatusCreated, registerResponse{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
		Plan:  string(user.Plan),
	})
}

type limitsResponse struct {
	CanSend   bool   `json:"canSend"`
	Reason    string `json:"reason,omitempty"`
	Plan      string `json:"plan"`
	Limit     int    `json:"limit"`
	Current   int    `json:"current"`
	Remaining int    `json:"remaining"`
}

// UserLimits reports a user's standing against their plan quota.
// GET /api/users/{id}/limits
func (a *App) UserLimits(w http.ResponseWriter, r *http.Request) {
	user, err := a.Users.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "user not found")
			return
		}
		a.Logger.Error().Err(err).Msg("load user failed")
		a.error(w, http.StatusInternalServerError, "failed to load user")
		return
	}

	now := time.Now()
	decision := entitlement.Check(user, now)
	info := entitlement.Limits(user, now)
	a.json(w, http.StatusOK, limitsResponse{
		CanSend:   decision.Allowed,
		Reason:    decision.Reason,
		Plan:      string(info.Plan),
		Limit:     info.Limit,
		Current:   info.Current,
		Remaining: info.Remaining,
	})
}
