package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"server/internal/domain"
	"server/internal/entitlement"
	"server/internal/middleware"
)

type sendMessageRequest struct {
	UserID string `json:"userId"`
}

type sendMessageResponse struct {
	Allowed           bool   `json:"allowed"`
	MessageCount      int    `json:"messageCount"`
	TodayMessageCount int    `json:"todayMessageCount"`
	Remaining         int    `json:"remaining"`
}

type limitReachedResponse struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason"`
	Upgrade string `json:"upgrade,omitempty"`
}

// SendMessage is the entitlement-gated action: the quota check and the
// counter advance happen in one conditional repository update, so two
// concurrent sends cannot both slip under the limit.
// POST /api/messages
func (a *App) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req sendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" {
		a.error(w, http.StatusBadRequest, "userId is required")
		return
	}

	now := time.Now()
	user, err := a.Users.RecordMessage(r.Context(), req.UserID, now)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			a.error(w, http.StatusNotFound, "user not found")
		case errors.Is(err, domain.ErrQuotaExceeded):
			a.quotaExceeded(w, r, req.UserID, now)
		default:
			a.Logger.Error().Err(err).Msg("record message failed")
			a.error(w, http.StatusInternalServerError, "failed to send message")
		}
		return
	}

	info := entitlement.Limits(user, now)
	a.json(w, http.StatusOK, sendMessageResponse{
		Allowed:           true,
		MessageCount:      user.MessageCount,
		TodayMessageCount: user.TodayMessageCount,
		Remaining:         info.Remaining,
	})
}

func (a *App) quotaExceeded(w http.ResponseWriter, r *http.Request, userID string, now time.Time) {
	reason := "limit reached"
	if user, err := a.Users.GetByID(r.Context(), userID); err == nil {
		if decision := entitlement.Check(user, now); decision.Reason != "" {
			reason = decision.Reason
		}
	}
	a.json(w, http.StatusForbidden, limitReachedResponse{
		Allowed: false,
		Reason:  reason,
		Upgrade: upgradeHint(middleware.LocaleFromContext(r.Context())),
	})
}

func upgradeHint(locale string) string {
	if locale == "fr" {
		return "Passez à un forfait supérieur pour continuer à envoyer des messages"
	}
	return "Upgrade your plan to keep sending messages"
}
