package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	custommiddleware "github.com/ralfiz/bizdesk/internal/middleware"
)

// SetupRouter настраивает HTTP-маршруты и middleware сервиса bizdesk.
func (h *Handler) SetupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(custommiddleware.GzipMiddleware)
	r.Use(custommiddleware.Logger(h.logger))
	if h.metrics != nil {
		r.Use(custommiddleware.Metrics(h.metrics))
	}

	r.Post("/billing/totals", h.PreviewTotals)

	r.Route("/clients", func(r chi.Router) {
		r.Post("/", h.CreateClient)
		r.Get("/", h.ListClients)
		r.Get("/{id}", h.GetClient)
	})

	r.Route("/projects", func(r chi.Router) {
		r.Post("/", h.CreateProject)
		r.Get("/{id}", h.GetProject)
	})

	r.Route("/credentials", func(r chi.Router) {
		r.Post("/", h.CreateCredential)
		r.Get("/expiring", h.GetExpiringCredentials)
		r.Get("/{id}", h.GetCredential)
	})

	r.Route("/quotes", func(r chi.Router) {
		r.Post("/", h.CreateQuote)
		r.Get("/", h.ListQuotes)
		r.Get("/{id}", h.GetQuote)
		r.Put("/{id}", h.UpdateQuote)
	})

	r.Route("/invoices", func(r chi.Router) {
		r.Post("/", h.CreateInvoice)
		r.Get("/", h.ListInvoices)
		r.Get("/{id}", h.GetInvoice)
		r.Put("/{id}", h.UpdateInvoice)
		r.Post("/{id}/payments", h.RecordPayment)
	})

	r.Get("/payments", h.ListPayments)
	r.Get("/reports/summary", h.GetSummary)

	r.Get("/search/", h.Search)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	})

	return r
}
