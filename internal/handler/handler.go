// Package handler содержит HTTP-обработчики API сервиса bizdesk.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ralfiz/bizdesk/internal/format"
	"github.com/ralfiz/bizdesk/internal/metrics"
	"github.com/ralfiz/bizdesk/internal/model"
	"github.com/ralfiz/bizdesk/internal/repository"
	"github.com/ralfiz/bizdesk/internal/service"
)

const dateLayout = "2006-01-02"

// Service определяет контракт бизнес-логики, используемой HTTP-обработчиками.
type Service interface {
	PreviewTotals(in service.TotalsInput) model.BillingTotals
	CreateClient(ctx context.Context, c *model.Client) error
	GetClient(ctx context.Context, id uuid.UUID) (*model.Client, error)
	ListClients(ctx context.Context, f model.ClientFilter) ([]model.Client, error)
	CreateProject(ctx context.Context, p *model.Project) error
	GetProject(ctx context.Context, id uuid.UUID) (*model.Project, error)
	CreateCredential(ctx context.Context, c *model.Credential) error
	GetCredential(ctx context.Context, id uuid.UUID) (*service.CredentialView, error)
	CredentialExpiryReport(ctx context.Context) (*service.ExpiryReport, error)
	CreateQuote(ctx context.Context, in service.DocumentInput) (*model.Quote, error)
	GetQuote(ctx context.Context, id uuid.UUID) (*service.QuoteView, error)
	UpdateQuote(ctx context.Context, id uuid.UUID, in service.DocumentInput) (*model.Quote, error)
	ListQuotes(ctx context.Context, f model.DocumentFilter) ([]model.Quote, error)
	CreateInvoice(ctx context.Context, in service.DocumentInput) (*model.Invoice, error)
	GetInvoice(ctx context.Context, id uuid.UUID) (*model.Invoice, error)
	UpdateInvoice(ctx context.Context, id uuid.UUID, in service.DocumentInput) (*model.Invoice, error)
	ListInvoices(ctx context.Context, f model.DocumentFilter) ([]model.Invoice, error)
	RecordPayment(ctx context.Context, p *model.Payment) (*model.Invoice, error)
	ListPayments(ctx context.Context, f model.PaymentFilter) ([]model.PaymentEntry, error)
	Summary(ctx context.Context) (*service.Summary, error)
	Search(ctx context.Context, query string) ([]model.SearchResult, error)
}

// Handler реализует HTTP-обработчики API сервиса bizdesk.
type Handler struct {
	service   Service
	logger    *zap.Logger
	formatter *format.Formatter
	metrics   *metrics.Metrics
}

// NewHandler создаёт новый экземпляр обработчика HTTP-запросов.
func NewHandler(s Service, logger *zap.Logger, formatter *format.Formatter, m *metrics.Metrics) *Handler {
	return &Handler{
		service:   s,
		logger:    logger,
		formatter: formatter,
		metrics:   m,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError переводит ошибку сервиса в HTTP-статус. Непредвиденные ошибки пишутся в лог.
func (h *Handler) writeError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, repository.ErrClientNotFound), errors.Is(err, repository.ErrProjectNotFound):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, repository.ErrNotFound):
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
	case errors.Is(err, repository.ErrInvoiceClosed):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		h.logger.Error(op+" error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func decode(r *http.Request, dst any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(dst)
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("date %q: %w", s, err)
	}
	return t, nil
}

func parseOptionalDate(s string) (*time.Time, error) {
	t, err := parseDate(s)
	if err != nil || t.IsZero() {
		return nil, err
	}
	return &t, nil
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}

func formatOptionalDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return formatDate(*t)
}

func pathID(r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	return id, err == nil
}
