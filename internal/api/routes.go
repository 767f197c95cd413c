package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// SetupRoutes configures all API routes. Public capture endpoints sit behind
// the per-IP rate limiter; everything admin-facing sits behind the bearer
// guard.
func SetupRoutes(h *Handlers, allowedOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check (no auth required)
	r.Get("/health", h.HealthCheck)

	r.Route("/api", func(api chi.Router) {
		// Public capture endpoints
		api.Post("/emails", h.rateLimited("emails", h.SubmitEmail))
		api.Post("/feedback", h.rateLimited("feedback", h.SubmitFeedback))
		api.Post("/analytics", h.rateLimited("analytics", h.SubmitAnalytics))
		api.Post("/admin", h.AdminLogin)

		// Admin endpoints
		api.Group(func(admin chi.Router) {
			admin.Use(h.guard.RequireAdmin)
			admin.Get("/emails", h.ListEmails)
			admin.Get("/feedback", h.ListFeedback)
			admin.Patch("/feedback", h.UpdateFeedbackStatus)
			admin.Get("/admin", h.AdminDashboard)
			admin.Delete("/admin", h.AdminLogout)
		})
	})

	return r
}
