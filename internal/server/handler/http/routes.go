package http

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/healthdesk/medvault/internal/middleware"
)

// NewRouter constructs the HTTP handler for the dashboard API.
//
// Routes:
//
//	POST /api/login                         → AuthHandler.Login (public)
//	POST /api/logout                        → AuthHandler.Logout
//	GET  /api/patients                      → PatientHandler.List
//	POST /api/patients                      → PatientHandler.Create
//	GET  /api/patients/export               → PatientHandler.Export
//	GET  /api/patients/{id}                 → PatientHandler.Get
//	PUT  /api/patients/{id}                 → PatientHandler.Update
//	GET  /api/patients/{id}/diagnosis       → PatientHandler.Decrypt
//	POST /api/patients/{id}/anonymize       → PatientHandler.Anonymize
//	GET  /api/audit                         → AuditHandler.Query
//	GET  /api/audit/export                  → AuditHandler.Export
//	GET  /api/stats                         → AuditHandler.Summary
//	POST /api/users                         → UserHandler.Create
//	GET  /api/users                         → UserHandler.List
//	POST /api/users/{username}/disable      → UserHandler.Disable
//
// Everything except login requires a session token. Role enforcement
// is not done here: the core's mediator decides, and denials are
// logged by the core.
func NewRouter(
	authHandler *AuthHandler,
	patientHandler *PatientHandler,
	auditHandler *AuditHandler,
	userHandler *UserHandler,
	sessions middleware.SessionResolver,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.WithRequestLogging(logger))

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			// Only login takes a body without a session.
			r.Use(chiMiddleware.AllowContentType("application/json"))
			r.Post("/login", authHandler.Login)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.SessionAuth(sessions))

			r.Post("/logout", authHandler.Logout)

			r.Route("/patients", func(r chi.Router) {
				r.Get("/", patientHandler.List)
				r.Post("/", patientHandler.Create)
				r.Get("/export", patientHandler.Export)
				r.Get("/{id}", patientHandler.Get)
				r.Put("/{id}", patientHandler.Update)
				r.Get("/{id}/diagnosis", patientHandler.Decrypt)
				r.Post("/{id}/anonymize", patientHandler.Anonymize)
			})

			r.Route("/audit", func(r chi.Router) {
				r.Get("/", auditHandler.Query)
				r.Get("/export", auditHandler.Export)
			})
			r.Get("/stats", auditHandler.Summary)

			r.Route("/users", func(r chi.Router) {
				r.Get("/", userHandler.List)
				r.Post("/", userHandler.Create)
				r.Post("/{username}/disable", userHandler.Disable)
			})
		})
	})

	return r
}
