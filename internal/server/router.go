package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter builds the HTTP router. Everything under /api/transactions,
// /api/user, /api/update, and /api/analytics requires an authenticated
// token, as does /api/auth/check.
func NewRouter(h *Handler, verifier TokenVerifier) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
		r.Post("/logout", h.Logout)
		r.With(Authenticate(verifier)).Get("/check", h.Check)
	})

	r.Group(func(r chi.Router) {
		r.Use(Authenticate(verifier))

		r.Get("/api/user/profile", h.Profile)
		r.Put("/api/update/change-password", h.ChangePassword)

		r.Route("/api/transactions", func(r chi.Router) {
			r.Get("/balance", h.Balance)
			r.Post("/deposit", h.Deposit)
			r.Post("/withdraw", h.Withdraw)
			r.Post("/transfer", h.Transfer)
			r.Get("/history", h.History)
			r.Get("/transfers", h.Transfers)
			r.Get("/report", h.Report)
		})

		r.Get("/api/analytics/operations", h.Operations)
	})

	return r
}
