package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"server/internal/domain"
)

type createLicensesRequest struct {
	Plan           string `json:"plan"`
	Status         string `json:"status"`
	ExpirationDays int    `json:"expirationDays"`
	Count          int    `json:"count"`
}

type licenseDTO struct {
	ID         string     `json:"id"`
	Key        string     `json:"key"`
	Plan       string     `json:"plan"`
	Status     string     `json:"status"`
	CreatedAt  time.Time  `json:"createdAt"`
	ExpiresAt  *time.Time `json:"expiresAt,omitempty"`
	AssignedTo string     `json:"assignedTo,omitempty"`
}

func toLicenseDTO(record domain.LicenseRecord) licenseDTO {
	return licenseDTO{
		ID:         record.ID,
		Key:        record.Key,
		Plan:       string(record.Plan),
		Status:     string(record.Status),
		CreatedAt:  record.CreatedAt,
		ExpiresAt:  record.ExpiresAt,
		AssignedTo: record.AssignedTo,
	}
}

// CreateLicenses bulk-mints license records. POST /admin/licenses
func (a *App) CreateLicenses(w http.ResponseWriter, r *http.Request) {
	var req createLicensesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if req.Count == 0 {
		req.Count = 1
	}

	records, err := a.Registry.CreateBatch(r.Context(), domain.Plan(req.Plan), domain.LicenseStatus(req.Status), req.ExpirationDays, req.Count)
	if err != nil {
		a.registryError(w, err, "create licenses failed")
		return
	}

	out := make([]licenseDTO, 0, len(records))
	for _, record := range records {
		out = append(out, toLicenseDTO(record))
	}
	a.json(w, http.StatusCreated, map[string]any{"licenses": out})
}

// ListLicenses returns the full registry. GET /admin/licenses
func (a *App) ListLicenses(w http.ResponseWriter, r *http.Request) {
	records, err := a.Registry.List(r.Context())
	if err != nil {
		a.registryError(w, err, "list licenses failed")
		return
	}
	out := make([]licenseDTO, 0, len(records))
	for _, record := range records {
		out = append(out, toLicenseDTO(record))
	}
	a.json(w, http.StatusOK, map[string]any{"licenses": out})
}

// LicenseStats aggregates the registry for the dashboard.
// GET /admin/licenses/stats
func (a *App) LicenseStats(w http.ResponseWriter, r *http.Request) {
	stats, err := a.Registry.Stats(r.Context())
	if err != nil {
		a.registryError(w, err, "license stats failed")
		return
	}
	a.json(w, http.StatusOK, map[string]int{
		"totalKeys":      stats.TotalKeys,
		"activeKeys":     stats.ActiveKeys,
		"inMaintenance":  stats.InMaintenance,
		"generatedToday": stats.GeneratedToday,
	})
}

// ToggleLicenseStatus flips a record between active and maintenance.
// POST /admin/licenses/{id}/toggle
func (a *App) ToggleLicenseStatus(w http.ResponseWriter, r *http.Request) {
	record, err := a.Registry.ToggleStatus(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.registryError(w, err, "toggle status failed")
		return
	}
	a.json(w, http.StatusOK, toLicenseDTO(*record))
}

type setStatusRequest struct {
	Status string `json:"status"`
}

// SetLicenseStatus sets an explicit status, including inactive.
// PATCH /admin/licenses/{id}/status
func (a *App) SetLicenseStatus(w http.ResponseWriter, r *http.Request) {
	var req setStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "invalid payload")
		return
	}
	record, err := a.Registry.SetStatus(r.Context(), chi.URLParam(r, "id"), domain.LicenseStatus(req.Status))
	if err != nil {
		a.registryError(w, err, "set status failed")
		return
	}
	a.json(w, http.StatusOK, toLicenseDTO(*record))
}

type setExpirationRequest struct {
	Days int `json:"days"`
}

// SetLicenseExpiration recomputes a record's expiry as now + days.
// PATCH /admin/licenses/{id}/expiration
func (a *App) SetLicenseExpiration(w http.ResponseWriter, r *http.Request) {
	var req setExpirationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "invalid payload")
		return
	}
	record, err := a.Registry.SetExpiration(r.Context(), chi.URLParam(r, "id"), req.Days)
	if err != nil {
		a.registryError(w, err, "set expiration failed")
		return
	}
	a.json(w, http.StatusOK, toLicenseDTO(*record))
}

// DeleteLicense removes a record permanently. DELETE /admin/licenses/{id}
func (a *App) DeleteLicense(w http.ResponseWriter, r *http.Request) {
	if err := a.Registry.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		a.registryError(w, err, "delete license failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *App) registryError(w http.ResponseWriter, err error, logMsg string) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		a.error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		a.error(w, http.StatusNotFound, "license not found")
	default:
		a.Logger.Error().Err(err).Msg(logMsg)
		a.error(w, http.StatusInternalServerError, "internal error")
	}
}
