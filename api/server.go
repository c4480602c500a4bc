/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for the frontend

ROUTE GROUPS:
  /api/login, /api/logout     Session
  /api/state                  Composite snapshot
  /api/requests/*             Leave request lifecycle
  /api/users/*                User management
  /api/departments/*          Department management
  /api/permissions            Role grants
  /api/settings               Global quotas
  /api/reports/*              Usage summaries
  /api/webhook/*              Spreadsheet webhook probes

SECURITY NOTE:
  The session is process-global and credentials travel in plaintext; this
  mirrors the single-operator deployment the system targets.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		// Session
		r.Post("/login", h.Login)
		r.Post("/logout", h.Logout)

		// Composite state
		r.Get("/state", h.GetState)

		// Leave requests
		r.Route("/requests", func(r chi.Router) {
			r.Post("/", h.SubmitRequest)
			r.Put("/{id}/status", h.UpdateRequestStatus)
			r.Delete("/{id}", h.DeleteRequest)
		})

		// Users
		r.Route("/users", func(r chi.Router) {
			r.Get("/", h.ListUsers)
			r.Post("/", h.CreateUser)
			r.Put("/{id}", h.UpdateUser)
			r.Delete("/{id}", h.DeleteUser)
		})

		// Departments
		r.Route("/departments", func(r chi.Router) {
			r.Get("/", h.ListDepartments)
			r.Post("/", h.CreateDepartment)
			r.Put("/{name}", h.RenameDepartment)
			r.Delete("/{name}", h.DeleteDepartment)
		})

		// Permissions and settings
		r.Get("/permissions", h.GetPermissions)
		r.Put("/permissions", h.SetPermission)
		r.Get("/settings", h.GetSettings)
		r.Put("/settings", h.UpdateSettings)

		// Reports
		r.Get("/reports/usage", h.GetUsageReport)

		// Webhook probes
		r.Route("/webhook", func(r chi.Router) {
			r.Post("/test", h.TestWebhook)
			r.Post("/headers", h.SendWebhookHeaders)
		})
	})

	return r
}
