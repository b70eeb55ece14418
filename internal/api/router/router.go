// Package router assembles the HTTP API.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/jaylondental/clinic-api/internal/appointments"
	"github.com/jaylondental/clinic-api/internal/auth"
	"github.com/jaylondental/clinic-api/internal/dashboard"
	"github.com/jaylondental/clinic-api/internal/gallery"
	httpmiddleware "github.com/jaylondental/clinic-api/internal/http/middleware"
	"github.com/jaylondental/clinic-api/internal/notify"
	"github.com/jaylondental/clinic-api/internal/services"
	"github.com/jaylondental/clinic-api/internal/sweeper"
	"github.com/jaylondental/clinic-api/internal/users"
	"github.com/jaylondental/clinic-api/pkg/logging"
)

// Config holds router configuration.
type Config struct {
	Logger *logging.Logger

	Sessions            *auth.Store
	AppointmentsHandler *appointments.Handler
	ServicesHandler     *services.Handler
	GalleryHandler      *gallery.Handler
	UsersHandler        *users.Handler
	ContactHandler      *notify.ContactHandler
	DashboardHandler    *dashboard.Handler
	SweepHandler        *sweeper.Handler

	MetricsHandler     http.Handler
	CORSAllowedOrigins []string

	// Requests/sec and burst per IP on the credential endpoints.
	AuthRateLimit float64
	AuthRateBurst int
}

// New creates the chi router with all routes configured.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	authLimit := cfg.AuthRateLimit
	if authLimit <= 0 {
		authLimit = 1
	}
	authBurst := cfg.AuthRateBurst
	if authBurst <= 0 {
		authBurst = 10
	}

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}
	if cfg.SweepHandler != nil {
		r.Post("/internal/sweep", cfg.SweepHandler.Trigger)
	}

	r.Route("/api", func(api chi.Router) {
		// Public surface: browsing and account lifecycle.
		api.Get("/slots", cfg.AppointmentsHandler.GetAvailableSlots)
		api.Get("/services", cfg.ServicesHandler.List)
		api.Get("/gallery", cfg.GalleryHandler.List)
		api.Post("/contact", cfg.ContactHandler.Submit)
		api.Get("/verify-email", cfg.UsersHandler.VerifyEmail)

		api.Group(func(limited chi.Router) {
			limited.Use(httpmiddleware.RateLimit(authLimit, authBurst))
			limited.Post("/register", cfg.UsersHandler.Register)
			limited.Post("/login", cfg.UsersHandler.Login)
			limited.Post("/password-reset", cfg.UsersHandler.RequestPasswordReset)
			limited.Post("/password-reset/confirm", cfg.UsersHandler.ConfirmPasswordReset)
		})

		// Any signed-in user.
		api.Group(func(authed chi.Router) {
			authed.Use(auth.Require(cfg.Sessions, ""))
			authed.Post("/logout", cfg.UsersHandler.Logout)
			authed.Get("/me", cfg.UsersHandler.Me)
			authed.Put("/me", cfg.UsersHandler.UpdateMe)
			authed.Post("/appointments", cfg.AppointmentsHandler.Create)
		})

		// Patients only.
		api.Group(func(client chi.Router) {
			client.Use(auth.RequireClient(cfg.Sessions))
			client.Get("/appointments/mine", cfg.AppointmentsHandler.ListMine)
		})

		// Clinic staff.
		api.Route("/admin", func(admin chi.Router) {
			admin.Use(auth.RequireAdmin(cfg.Sessions))

			admin.Get("/dashboard", cfg.DashboardHandler.Stats)

			admin.Route("/appointments", func(r chi.Router) {
				r.Get("/", cfg.AppointmentsHandler.List)
				r.Get("/user/{userID}", cfg.AppointmentsHandler.ListForUser)
				r.Put("/{id}/status", cfg.AppointmentsHandler.UpdateStatus)
				r.Put("/{id}/attended", cfg.AppointmentsHandler.MarkAttended)
				r.Delete("/{id}", cfg.AppointmentsHandler.Delete)
			})

			admin.Route("/services", func(r chi.Router) {
				r.Post("/", cfg.ServicesHandler.Create)
				r.Put("/{id}", cfg.ServicesHandler.Update)
				r.Delete("/{id}", cfg.ServicesHandler.Delete)
			})

			admin.Route("/gallery", func(r chi.Router) {
				r.Post("/", cfg.GalleryHandler.Upload)
				r.Delete("/{id}", cfg.GalleryHandler.Delete)
			})

			admin.Route("/users", func(r chi.Router) {
				r.Get("/", cfg.UsersHandler.List)
				r.Post("/", cfg.UsersHandler.CreateUser)
				r.Get("/{id}", cfg.UsersHandler.Get)
				r.Put("/{id}", cfg.UsersHandler.UpdateUser)
				r.Delete("/{id}", cfg.UsersHandler.Delete)
			})
		})
	})

	return r
}
