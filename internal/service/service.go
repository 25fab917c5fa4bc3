// Package service реализует бизнес-логику сервиса bizdesk.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/ralfiz/bizdesk/internal/billing"
	"github.com/ralfiz/bizdesk/internal/cache"
	"github.com/ralfiz/bizdesk/internal/clock"
	"github.com/ralfiz/bizdesk/internal/metrics"
	"github.com/ralfiz/bizdesk/internal/model"
	"github.com/ralfiz/bizdesk/internal/repository"
)

// ErrInvalidInput оборачивает ошибки проверки входных данных.
var ErrInvalidInput = errors.New("invalid input")

// Repository описывает контракт доступа к данным, используемый сервисом.
type Repository interface {
	Close() error
	CreateClient(ctx context.Context, c *model.Client) error
	GetClient(ctx context.Context, id uuid.UUID) (*model.Client, error)
	ListClients(ctx context.Context, f model.ClientFilter) ([]model.Client, error)
	CreateProject(ctx context.Context, p *model.Project) error
	GetProject(ctx context.Context, id uuid.UUID) (*model.Project, error)
	CreateCredential(ctx context.Context, c *model.Credential) error
	GetCredential(ctx context.Context, id uuid.UUID) (*model.Credential, error)
	ListCredentialsExpiringBy(ctx context.Context, until time.Time) ([]model.Credential, error)
	CreateQuote(ctx context.Context, q *model.Quote) error
	GetQuote(ctx context.Context, id uuid.UUID) (*model.Quote, error)
	UpdateQuote(ctx context.Context, q *model.Quote) error
	ListQuotes(ctx context.Context, f model.DocumentFilter) ([]model.Quote, error)
	ListQuotesPastValidity(ctx context.Context, today time.Time, after *repository.Cursor, limit int) ([]model.Quote, error)
	UpdateQuoteStatus(ctx context.Context, id uuid.UUID, from, to model.DocumentStatus) (bool, error)
	CreateInvoice(ctx context.Context, inv *model.Invoice) error
	GetInvoice(ctx context.Context, id uuid.UUID) (*model.Invoice, error)
	UpdateInvoice(ctx context.Context, inv *model.Invoice, derive repository.StatusFunc) error
	ListInvoices(ctx context.Context, f model.DocumentFilter) ([]model.Invoice, error)
	AddPayment(ctx context.Context, p *model.Payment, derive repository.StatusFunc) (*model.Invoice, error)
	ListPayments(ctx context.Context, f model.PaymentFilter) ([]model.PaymentEntry, error)
	ListInvoicesPastDue(ctx context.Context, today time.Time, after *repository.Cursor, limit int) ([]model.Invoice, error)
	UpdateInvoiceStatus(ctx context.Context, id uuid.UUID, from, to model.DocumentStatus) (bool, error)
	Summary(ctx context.Context, today, monthStart time.Time, limit int) (*model.Summary, error)
	Search(ctx context.Context, query string, perType int) ([]model.SearchResult, error)
}

// Service содержит бизнес-логику сервиса bizdesk.
type Service struct {
	repo    Repository
	cache   *cache.Cache
	clock   clock.Clock
	metrics *metrics.Metrics
	logger  *zap.Logger
	taxRate decimal.Decimal

	refreshBatch int
}

// Option настраивает Service.
type Option func(*Service)

// WithCache включает кэширование результатов поиска.
func WithCache(c *cache.Cache) Option {
	return func(s *Service) { s.cache = c }
}

// WithClock подменяет источник текущей даты.
func WithClock(c clock.Clock) Option {
	return func(s *Service) { s.clock = c }
}

// WithMetrics задаёт счётчики Prometheus.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithLogger задаёт логгер.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithTaxRate задаёт ставку налога для документов, в которых она не указана.
func WithTaxRate(rate decimal.Decimal) Option {
	return func(s *Service) { s.taxRate = rate }
}

// NewService создаёт новый сервис с указанным репозиторием.
func NewService(repo Repository, opts ...Option) *Service {
	s := &Service{
		repo:    repo,
		clock:   clock.Real{},
		logger:  zap.NewNop(),
		taxRate: billing.DefaultTaxRate,

		refreshBatch: refreshBatchSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = metrics.Nop()
	}
	return s
}

// Close закрывает ресурсы сервиса.
func (s *Service) Close() error {
	if s.repo != nil {
		return s.repo.Close()
	}
	return nil
}

func (s *Service) today() time.Time {
	return clock.Today(s.clock)
}
