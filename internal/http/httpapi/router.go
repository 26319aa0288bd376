package httpapi

import (
	stdhttp "net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"server/internal/http/handlers"
	"server/internal/middleware"
)

// Options tunes the router's middleware.
type Options struct {
	RateLimitPerMin int
	DefaultLocale   string
}

// NewRouter wires the public API and the admin surface.
func NewRouter(app *handlers.App, opts Options) stdhttp.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, chimw.RealIP, chimw.Recoverer)
	r.Use(middleware.Logger(app.Logger))
	r.Use(middleware.Locale(opts.DefaultLocale))

	r.Get("/v1/healthz", app.Health)

	r.Route("/api", func(r chi.Router) {
		if opts.RateLimitPerMin > 0 {
			r.Use(middleware.RateLimit(opts.RateLimitPerMin, time.Minute))
		}
		r.Post("/activate-license", app.ActivateLicense)
		r.Post("/register", app.Register)
		r.Post("/messages", app.SendMessage)
		r.Get("/users/{id}/limits", app.UserLimits)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Post("/login", app.AdminLogin)

		r.Group(func(r chi.Router) {
			r.Use(middleware.AdminAuth(app.Tokens))
			r.Post("/licenses", app.CreateLicenses)
			r.Get("/licenses", app.ListLicenses)
			r.Get("/licenses/stats", app.LicenseStats)
			r.Post("/licenses/{id}/toggle", app.ToggleLicenseStatus)
			r.Patch("/licenses/{id}/status", app.SetLicenseStatus)
			r.Patch("/licenses/{id}/expiration", app.SetLicenseExpiration)
			r.Delete("/licenses/{id}", app.DeleteLicense)
		})
	})

	return r
}
