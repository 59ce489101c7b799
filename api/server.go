/*
server.go - HTTP router setup

PURPOSE:
  Wires handlers into a chi router with the shared middleware stack: request
  IDs, logging, panic recovery, CORS, and the owner identity requirement on
  every /api route.

SEE ALSO:
  - handlers.go:   Endpoint implementations
  - middleware.go: Owner identity extraction
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter builds the HTTP router with all routes registered.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", OwnerHeader},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(RequireOwner)

		r.Route("/contracts", func(r chi.Router) {
			r.Get("/", h.ListContracts)
			r.Post("/", h.CreateContract)
			r.Get("/{id}", h.GetContract)
			r.Put("/{id}", h.UpdateContract)
			r.Delete("/{id}", h.DeleteContract)
			r.Post("/{id}/pdf", h.UploadContractPDF)
			r.Get("/{id}/payments", h.ListContractPayments)
			r.Get("/{id}/invoices", h.ListContractInvoices)
		})

		r.Route("/payments", func(r chi.Router) {
			r.Get("/", h.ListPayments)
			r.Post("/", h.CreatePayment)
			r.Get("/{id}", h.GetPayment)
			r.Put("/{id}", h.UpdatePayment)
			r.Delete("/{id}", h.DeletePayment)
		})

		r.Route("/invoices", func(r chi.Router) {
			r.Get("/", h.ListInvoices)
			r.Post("/", h.IssueInvoice)
			r.Get("/{id}", h.GetInvoice)
			r.Put("/{id}/status", h.UpdateInvoiceStatus)
			r.Delete("/{id}", h.DeleteInvoice)
		})

		r.Route("/dashboard", func(r chi.Router) {
			r.Get("/summary", h.DashboardSummary)
			r.Get("/revenue", h.DashboardRevenue)
			r.Get("/payments", h.DashboardRecentPayments)
		})
	})

	return r
}
