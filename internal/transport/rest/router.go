package rest

import (
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/httprate"

	"github.com/expenseflow/expenseflow/internal/auth"
	"github.com/expenseflow/expenseflow/internal/directory"
	"github.com/expenseflow/expenseflow/internal/expense"
	"github.com/expenseflow/expenseflow/internal/report"
	"github.com/expenseflow/expenseflow/internal/transport/middleware"
	"github.com/expenseflow/expenseflow/internal/transport/swagger"
)

type Handlers struct {
	Auth      *auth.Handler
	Directory *directory.Handler
	Expense   *expense.Handler
	Report    *report.Handler
}

// RegisterAllRoutes wires the whole API surface under /api/v1.
// Credential endpoints stay public (login additionally rate-limited by
// IP); user management is admin-only; the review queue and reports are
// for managers and admins; submission is for any authenticated
// principal.
func RegisterAllRoutes(router *chi.Mux, db *sql.DB, h Handlers, allowedOrigins string, loginRateLimit int, logger *slog.Logger) {
	healthHandler := NewHealthHandler(db)

	router.Use(middleware.CORS(allowedOrigins))
	router.Use(middleware.RequestID)
	router.Use(middleware.Logging)
	router.Use(middleware.Recovery(logger))

	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./api/openapi.yml")
	})
	router.Handle("/swagger/*", swagger.Handler())

	if loginRateLimit <= 0 {
		loginRateLimit = 10
	}

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		r.Route("/auth", func(sr chi.Router) {
			sr.Group(func(lr chi.Router) {
				lr.Use(httprate.Limit(loginRateLimit, time.Minute, httprate.WithKeyFuncs(httprate.KeyByIP)))
				lr.Post("/login", h.Auth.Login)
			})
			sr.Post("/register", h.Auth.Register)
		})

		// Everything below requires a valid session assertion.
		r.Group(func(pr chi.Router) {
			pr.Use(h.Auth.Middleware)

			pr.Get("/users/me", h.Auth.Me)

			// User management is admin territory.
			pr.Group(func(ar chi.Router) {
				ar.Use(auth.RequireRole(directory.RoleAdmin))
				ar.Get("/users", h.Directory.ListUsers)
				ar.Post("/users", h.Directory.CreateUser)
				ar.Put("/users/{id}", h.Directory.UpdateUser)
				ar.Delete("/users/{id}", h.Directory.DeleteUser)
			})

			pr.Route("/expenses", func(er chi.Router) {
				er.Post("/", h.Expense.Submit)
				er.Get("/mine", h.Expense.ListMine)
				er.Get("/{id}", h.Expense.Get)

				er.Group(func(mr chi.Router) {
					mr.Use(auth.RequireRole(directory.RoleManager, directory.RoleAdmin))
					mr.Get("/", h.Expense.ListAll)
					mr.Get("/pending", h.Expense.ListPending)
					mr.Patch("/{id}/approve", h.Expense.Approve)
					mr.Patch("/{id}/reject", h.Expense.Reject)
				})
			})

			pr.Group(func(rr chi.Router) {
				rr.Use(auth.RequireRole(directory.RoleManager, directory.RoleAdmin))
				rr.Get("/reports/summary", h.Report.Summary)
				rr.Get("/reports/categories", h.Report.Categories)
				rr.Get("/reports/dates", h.Report.Dates)
				rr.Get("/reports/top-payers", h.Report.TopPayers)
			})
		})
	})
}
