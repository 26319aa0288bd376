package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"server/internal/license"
)

type activateRequest struct {
	UserID     string `json:"userId"`
	LicenseKey string `json:"licenseKey"`
}

type activatedLicenseDTO struct {
	Key           string    `json:"key"`
	Plan          string    `json:"plan"`
	ExpiresAt     time.Time `json:"expiresAt"`
	DaysRemaining int       `json:"daysRemaining"`
}

type activateResponse struct {
	Success bool                `json:"success"`
	License activatedLicenseDTO `json:"license"`
}

// ActivateLicense redeems a license key against a user account.
// POST /api/activate-license
func (a *App) ActivateLicense(w http.ResponseWriter, r *http.Request) {
	var req activateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, license.ReasonMissingFields)
		return
	}

	result, err := a.Activator.Activate(r.Context(), req.UserID, req.LicenseKey)
	if err != nil {
		var rejected *license.RejectedError
		if errors.As(err, &rejected) {
			a.error(w, http.StatusBadRequest, rejected.Reason)
			return
		}
		a.Logger.Error().Err(err).Msg("license activation failed")
		a.error(w, http.StatusInternalServerError, "License activation failed")
		return
	}

	a.json(w, http.StatusOK, activateResponse{
		Success: true,
		License: activatedLicenseDTO{
			Key:           result.Key,
			Plan:          string(result.Plan),
			ExpiresAt:     result.ExpiresAt,
			DaysRemaining: result.DaysRemaining,
		},
	})
}
