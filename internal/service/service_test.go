package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ralfiz/bizdesk/internal/cache"
	"github.com/ralfiz/bizdesk/internal/clock"
	"github.com/ralfiz/bizdesk/internal/expiry"
	"github.com/ralfiz/bizdesk/internal/metrics"
	"github.com/ralfiz/bizdesk/internal/model"
	"github.com/ralfiz/bizdesk/internal/repository"
)

var testToday = time.Date(2024, time.June, 10, 9, 30, 0, 0, time.UTC)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type statusUpdate struct {
	id       uuid.UUID
	from, to model.DocumentStatus
}

type stubRepo struct {
	createErr error

	clients     []model.Client
	quotes      []model.Quote
	invoices    []model.Invoice
	credentials []model.Credential
	expiringBy  time.Time

	getQuote          *model.Quote
	getInvoice        *model.Invoice
	getErr            error
	invoiceForPayment model.Invoice
	paymentErr        error

	pastDue        []model.Invoice
	pastValidity   []model.Quote
	invoiceUpdates []statusUpdate
	quoteUpdates   []statusUpdate
	failUpdates    map[uuid.UUID]bool
	pageCalls      int

	storedPaid     decimal.Decimal
	updatedInvoice *model.Invoice
	updatedQuote   *model.Quote
	updateErr      error
	listedInvoices []model.Invoice
	listedQuotes   []model.Quote

	summary    model.Summary
	monthStart time.Time

	searchCalls   []string
	searchResults []model.SearchResult
	searchErr     error
}

func (s *stubRepo) Close() error { return nil }

func (s *stubRepo) CreateClient(ctx context.Context, c *model.Client) error {
	if s.createErr != nil {
		return s.createErr
	}
	c.ID = uuid.New()
	s.clients = append(s.clients, *c)
	return nil
}

func (s *stubRepo) GetClient(ctx context.Context, id uuid.UUID) (*model.Client, error) {
	return &model.Client{ID: id}, s.getErr
}

func (s *stubRepo) ListClients(ctx context.Context, f model.ClientFilter) ([]model.Client, error) {
	return []model.Client{}, nil
}

func (s *stubRepo) CreateProject(ctx context.Context, p *model.Project) error {
	return s.createErr
}

func (s *stubRepo) GetProject(ctx context.Context, id uuid.UUID) (*model.Project, error) {
	return &model.Project{ID: id}, s.getErr
}

func (s *stubRepo) CreateCredential(ctx context.Context, c *model.Credential) error {
	return s.createErr
}

func (s *stubRepo) GetCredential(ctx context.Context, id uuid.UUID) (*model.Credential, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return &s.credentials[0], nil
}

func (s *stubRepo) ListCredentialsExpiringBy(ctx context.Context, until time.Time) ([]model.Credential, error) {
	s.expiringBy = until
	return s.credentials, nil
}

func (s *stubRepo) CreateQuote(ctx context.Context, q *model.Quote) error {
	if s.createErr != nil {
		return s.createErr
	}
	q.Number = "QT20240001"
	s.quotes = append(s.quotes, *q)
	return nil
}

func (s *stubRepo) GetQuote(ctx context.Context, id uuid.UUID) (*model.Quote, error) {
	return s.getQuote, s.getErr
}

// page отдаёт limit идентификаторов, следующих за after, в порядке ids.
func page(ids []uuid.UUID, after *repository.Cursor, limit int) (from, to int) {
	if after != nil {
		for i, id := range ids {
			if id == after.ID {
				from = i + 1
				break
			}
		}
	}
	to = min(from+limit, len(ids))
	return from, to
}

func (s *stubRepo) ListQuotesPastValidity(ctx context.Context, today time.Time, after *repository.Cursor, limit int) ([]model.Quote, error) {
	ids := make([]uuid.UUID, len(s.pastValidity))
	for i, q := range s.pastValidity {
		ids[i] = q.ID
	}
	from, to := page(ids, after, limit)
	return s.pastValidity[from:to], nil
}

func (s *stubRepo) UpdateQuoteStatus(ctx context.Context, id uuid.UUID, from, to model.DocumentStatus) (bool, error) {
	if s.failUpdates[id] {
		return false, errors.New("serialization failure")
	}
	s.quoteUpdates = append(s.quoteUpdates, statusUpdate{id, from, to})
	return true, nil
}

func (s *stubRepo) UpdateQuote(ctx context.Context, q *model.Quote) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	q.Number = "QT20240001"
	s.updatedQuote = q
	return nil
}

func (s *stubRepo) ListQuotes(ctx context.Context, f model.DocumentFilter) ([]model.Quote, error) {
	return s.listedQuotes, nil
}

func (s *stubRepo) CreateInvoice(ctx context.Context, inv *model.Invoice) error {
	if s.createErr != nil {
		return s.createErr
	}
	inv.Number = "INV20240001"
	s.invoices = append(s.invoices, *inv)
	return nil
}

func (s *stubRepo) GetInvoice(ctx context.Context, id uuid.UUID) (*model.Invoice, error) {
	return s.getInvoice, s.getErr
}

func (s *stubRepo) AddPayment(ctx context.Context, p *model.Payment, derive repository.StatusFunc) (*model.Invoice, error) {
	if s.paymentErr != nil {
		return nil, s.paymentErr
	}
	inv := s.invoiceForPayment
	inv.AmountPaid = inv.AmountPaid.Add(p.Amount)
	inv.Status = derive(inv)
	s.invoiceForPayment = inv
	return &inv, nil
}

func (s *stubRepo) ListInvoicesPastDue(ctx context.Context, today time.Time, after *repository.Cursor, limit int) ([]model.Invoice, error) {
	s.pageCalls++
	ids := make([]uuid.UUID, len(s.pastDue))
	for i, inv := range s.pastDue {
		ids[i] = inv.ID
	}
	from, to := page(ids, after, limit)
	return s.pastDue[from:to], nil
}

func (s *stubRepo) UpdateInvoiceStatus(ctx context.Context, id uuid.UUID, from, to model.DocumentStatus) (bool, error) {
	if s.failUpdates[id] {
		return false, errors.New("serialization failure")
	}
	s.invoiceUpdates = append(s.invoiceUpdates, statusUpdate{id, from, to})
	return true, nil
}

func (s *stubRepo) UpdateInvoice(ctx context.Context, inv *model.Invoice, derive repository.StatusFunc) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	inv.Number = "INV20240001"
	inv.AmountPaid = s.storedPaid
	inv.Status = derive(*inv)
	s.updatedInvoice = inv
	return nil
}

func (s *stubRepo) ListInvoices(ctx context.Context, f model.DocumentFilter) ([]model.Invoice, error) {
	return s.listedInvoices, nil
}

func (s *stubRepo) ListPayments(ctx context.Context, f model.PaymentFilter) ([]model.PaymentEntry, error) {
	return []model.PaymentEntry{}, nil
}

func (s *stubRepo) Summary(ctx context.Context, today, monthStart time.Time, limit int) (*model.Summary, error) {
	s.monthStart = monthStart
	sum := s.summary
	return &sum, nil
}

func (s *stubRepo) Search(ctx context.Context, query string, perType int) ([]model.SearchResult, error) {
	s.searchCalls = append(s.searchCalls, query)
	return s.searchResults, s.searchErr
}

func newTestService(t *testing.T, repo *stubRepo, opts ...Option) *Service {
	t.Helper()
	base := []Option{
		WithClock(clock.NewFake(testToday)),
		WithMetrics(metrics.New("test", prometheus.NewRegistry())),
	}
	return NewService(repo, append(base, opts...)...)
}

func TestPreviewTotals(t *testing.T) {
	svc := newTestService(t, &stubRepo{})

	got := svc.PreviewTotals(TotalsInput{
		Items: []ItemInput{
			{Quantity: "2", UnitPrice: "100.005"},
			{Quantity: "1", UnitPrice: "50"},
		},
		Discount: "0",
	})

	assert.Equal(t, "250.01", got.Subtotal.StringFixed(2))
	assert.Equal(t, "45.00", got.TaxAmount.StringFixed(2))
	assert.Equal(t, "295.01", got.TotalAmount.StringFixed(2))
}

func TestPreviewTotals_CoercesMalformedInput(t *testing.T) {
	svc := newTestService(t, &stubRepo{}, WithTaxRate(dec("5")))

	got := svc.PreviewTotals(TotalsInput{
		Items:    []ItemInput{{Quantity: "abc", UnitPrice: "10"}, {Quantity: "3", UnitPrice: "10"}},
		Discount: "",
	})

	assert.Equal(t, "30.00", got.Subtotal.StringFixed(2))
	assert.True(t, got.TaxRate.Equal(dec("5")), "empty tax rate must fall back to the service rate")
	assert.Equal(t, "31.50", got.TotalAmount.StringFixed(2))
}

func TestCreateClient_Validation(t *testing.T) {
	tests := []struct {
		name    string
		client  model.Client
		wantErr bool
	}{
		{"valid without gst", model.Client{Name: "Acme"}, false},
		{"valid gst", model.Client{Name: "Acme", GSTNumber: "27aapfu0939f1zv"}, false},
		{"missing name", model.Client{Name: "  "}, true},
		{"bad gst", model.Client{Name: "Acme", GSTNumber: "07AAACR5055K1Z8"}, true},
		{"bad priority", model.Client{Name: "Acme", Priority: "urgent"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &stubRepo{}
			svc := newTestService(t, repo)

			c := tt.client
			err := svc.CreateClient(context.Background(), &c)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidInput)
				assert.Empty(t, repo.clients)
				return
			}
			require.NoError(t, err)
			require.Len(t, repo.clients, 1)
			assert.Equal(t, "medium", repo.clients[0].Priority)
		})
	}
}

func TestCredentialExpiryReport(t *testing.T) {
	at := func(days int) *time.Time {
		d := date(2024, time.June, 10).AddDate(0, 0, days)
		return &d
	}
	repo := &stubRepo{credentials: []model.Credential{
		{Name: "old", ExpiryDate: at(-3)},
		{Name: "today", ExpiryDate: at(0)},
		{Name: "week", ExpiryDate: at(7)},
		{Name: "month", ExpiryDate: at(8)},
		{Name: "edge", ExpiryDate: at(30)},
		{Name: "none"},
	}}
	svc := newTestService(t, repo)

	report, err := svc.CredentialExpiryReport(context.Background())
	require.NoError(t, err)

	names := func(items []ExpiringCredential) []string {
		var out []string
		for _, it := range items {
			out = append(out, it.Credential.Name)
		}
		return out
	}

	assert.Equal(t, date(2024, time.July, 10), repo.expiringBy)
	assert.Equal(t, []string{"old"}, names(report.Expired))
	assert.Equal(t, []string{"today", "week"}, names(report.ThisWeek))
	assert.Equal(t, []string{"month", "edge"}, names(report.ThisMonth))
	assert.Equal(t, expiry.StateExpiringSoon, report.ThisWeek[0].Expiry.State)
	assert.Equal(t, -3, report.Expired[0].Expiry.DaysUntilExpiry)
}

func TestCreateInvoice_DefaultsAndStatus(t *testing.T) {
	repo := &stubRepo{}
	svc := newTestService(t, repo)

	inv, err := svc.CreateInvoice(context.Background(), DocumentInput{
		ClientID: uuid.New(),
		Title:    "Website",
		Items:    []model.LineItem{{Quantity: dec("1"), UnitPrice: dec("1000")}},
	})
	require.NoError(t, err)

	assert.Equal(t, "INV20240001", inv.Number)
	assert.Equal(t, model.StatusDraft, inv.Status)
	assert.Equal(t, date(2024, time.June, 10), inv.IssueDate)
	assert.Equal(t, date(2024, time.June, 25), inv.DueDate)
	assert.Equal(t, "1180.00", inv.Totals.TotalAmount.StringFixed(2))
}

func TestCreateInvoice_PastDueBecomesOverdue(t *testing.T) {
	svc := newTestService(t, &stubRepo{})

	inv, err := svc.CreateInvoice(context.Background(), DocumentInput{
		ClientID:  uuid.New(),
		Title:     "Hosting",
		Items:     []model.LineItem{{Quantity: dec("1"), UnitPrice: dec("10")}},
		Status:    model.StatusSent,
		IssueDate: date(2024, time.May, 1),
		DueDate:   date(2024, time.May, 16),
	})
	require.NoError(t, err)
	assert.Equal(t, model.StatusOverdue, inv.Status)
}

func TestCreateInvoice_Validation(t *testing.T) {
	rate := dec("150")
	tests := []struct {
		name string
		in   DocumentInput
	}{
		{"no title", DocumentInput{ClientID: uuid.New()}},
		{"no client", DocumentInput{Title: "x"}},
		{"negative discount", DocumentInput{ClientID: uuid.New(), Title: "x", Discount: dec("-1")}},
		{"negative price", DocumentInput{ClientID: uuid.New(), Title: "x", Items: []model.LineItem{{Quantity: dec("1"), UnitPrice: dec("-5")}}}},
		{"tax rate out of range", DocumentInput{ClientID: uuid.New(), Title: "x", TaxRate: &rate}},
		{"quote-only status", DocumentInput{ClientID: uuid.New(), Title: "x", Status: model.StatusAccepted}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &stubRepo{}
			svc := newTestService(t, repo)

			_, err := svc.CreateInvoice(context.Background(), tt.in)
			assert.ErrorIs(t, err, ErrInvalidInput)
			assert.Empty(t, repo.invoices)
		})
	}
}

func TestCreateQuote_DefaultValidity(t *testing.T) {
	svc := newTestService(t, &stubRepo{})

	q, err := svc.CreateQuote(context.Background(), DocumentInput{
		ClientID: uuid.New(),
		Title:    "Redesign",
		Items:    []model.LineItem{{Quantity: dec("2"), UnitPrice: dec("500")}},
	})
	require.NoError(t, err)
	assert.Equal(t, date(2024, time.July, 10), q.ValidUntil)
	assert.Equal(t, model.StatusDraft, q.Status)
}

func TestGetQuote_ReportsValidity(t *testing.T) {
	repo := &stubRepo{getQuote: &model.Quote{
		Status:     model.StatusSent,
		ValidUntil: date(2024, time.June, 15),
	}}
	svc := newTestService(t, repo)

	v, err := svc.GetQuote(context.Background(), uuid.New())
	require.NoError(t, err)
	require.NotNil(t, v.Validity)
	assert.Equal(t, 5, v.Validity.DaysUntilExpiry)
	assert.Equal(t, expiry.StateExpiringSoon, v.Validity.State)
	assert.Equal(t, model.StatusSent, v.Quote.Status)
}

func TestGetQuote_ExpiredOnRead(t *testing.T) {
	repo := &stubRepo{getQuote: &model.Quote{
		Status:     model.StatusViewed,
		ValidUntil: date(2024, time.June, 9),
	}}
	svc := newTestService(t, repo)

	v, err := svc.GetQuote(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Equal(t, model.StatusExpired, v.Quote.Status)
	assert.Equal(t, expiry.StateExpired, v.Validity.State)
}

func TestGetInvoice_PropagatesNotFound(t *testing.T) {
	svc := newTestService(t, &stubRepo{getErr: repository.ErrNotFound})

	_, err := svc.GetInvoice(context.Background(), uuid.New())
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestRecordPayment(t *testing.T) {
	m := metrics.New("test", prometheus.NewRegistry())
	repo := &stubRepo{invoiceForPayment: model.Invoice{
		Number:  "INV20240001",
		Status:  model.StatusSent,
		Totals:  model.BillingTotals{TotalAmount: dec("118.00")},
		DueDate: date(2024, time.June, 1),
	}}
	svc := newTestService(t, repo, WithMetrics(m))

	inv, err := svc.RecordPayment(context.Background(), &model.Payment{Amount: dec("18")})
	require.NoError(t, err)
	assert.Equal(t, model.StatusPartial, inv.Status)

	inv, err = svc.RecordPayment(context.Background(), &model.Payment{Amount: dec("100")})
	require.NoError(t, err)
	assert.Equal(t, model.StatusPaid, inv.Status)
	assert.True(t, inv.BalanceDue().IsZero())

	assert.Equal(t, 2.0, testutil.ToFloat64(m.PaymentsRecorded))
}

func TestRecordPayment_RejectsNonPositive(t *testing.T) {
	svc := newTestService(t, &stubRepo{})

	_, err := svc.RecordPayment(context.Background(), &model.Payment{Amount: decimal.Zero})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestRecordPayment_CancelledInvoice(t *testing.T) {
	svc := newTestService(t, &stubRepo{paymentErr: repository.ErrInvoiceClosed})

	_, err := svc.RecordPayment(context.Background(), &model.Payment{Amount: dec("1")})
	assert.True(t, errors.Is(err, repository.ErrInvoiceClosed))
}

func newTestCache(t *testing.T) (*cache.Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return cache.New(client, "search:", time.Minute), mr
}

func TestSearch_ShortQueryDoesNotTouchStorage(t *testing.T) {
	repo := &stubRepo{}
	svc := newTestService(t, repo)

	for _, q := range []string{"", "a", "  b "} {
		res, err := svc.Search(context.Background(), q)
		require.NoError(t, err)
		assert.NotNil(t, res)
		assert.Empty(t, res)
	}
	assert.Empty(t, repo.searchCalls)
}

func TestSearch_ServedFromCache(t *testing.T) {
	c, mr := newTestCache(t)
	m := metrics.New("test", prometheus.NewRegistry())
	repo := &stubRepo{searchResults: []model.SearchResult{
		{Type: model.SearchClient, Title: "Acme", URL: "/clients/1/", Icon: "user"},
	}}
	svc := newTestService(t, repo, WithCache(c), WithMetrics(m))

	first, err := svc.Search(context.Background(), "  ACME ")
	require.NoError(t, err)
	second, err := svc.Search(context.Background(), "acme")
	require.NoError(t, err)

	assert.Equal(t, []string{"acme"}, repo.searchCalls)
	assert.Equal(t, first, second)
	assert.True(t, mr.Exists("search:acme"))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SearchRequests.WithLabelValues("cache")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SearchRequests.WithLabelValues("db")))
}

func TestSearch_CacheFlushedOnWrite(t *testing.T) {
	c, mr := newTestCache(t)
	repo := &stubRepo{searchResults: []model.SearchResult{}}
	svc := newTestService(t, repo, WithCache(c))

	_, err := svc.Search(context.Background(), "acme")
	require.NoError(t, err)
	require.True(t, mr.Exists("search:acme"))

	require.NoError(t, svc.CreateClient(context.Background(), &model.Client{Name: "Acme"}))
	assert.False(t, mr.Exists("search:acme"))
}

func TestSearch_CacheUnavailableFallsBackToStorage(t *testing.T) {
	c, mr := newTestCache(t)
	mr.Close()

	repo := &stubRepo{searchResults: []model.SearchResult{{Type: model.SearchProject, Title: "Portal"}}}
	svc := newTestService(t, repo, WithCache(c))

	res, err := svc.Search(context.Background(), "portal")
	require.NoError(t, err)
	assert.Len(t, res, 1)
}

func TestRefreshStatuses(t *testing.T) {
	m := metrics.New("test", prometheus.NewRegistry())
	overdueID, paidID, quoteID := uuid.New(), uuid.New(), uuid.New()
	repo := &stubRepo{
		pastDue: []model.Invoice{
			{ID: overdueID, Status: model.StatusSent, Totals: model.BillingTotals{TotalAmount: dec("10")}, DueDate: date(2024, time.June, 1)},
			{ID: paidID, Status: model.StatusSent, Totals: model.BillingTotals{TotalAmount: dec("0")}, DueDate: date(2024, time.June, 1)},
		},
		pastValidity: []model.Quote{
			{ID: quoteID, Status: model.StatusSent, ValidUntil: date(2024, time.June, 9)},
		},
	}
	svc := newTestService(t, repo, WithMetrics(m))

	svc.RefreshStatuses(context.Background())

	assert.Equal(t, []statusUpdate{
		{overdueID, model.StatusSent, model.StatusOverdue},
		{paidID, model.StatusSent, model.StatusPaid},
	}, repo.invoiceUpdates)
	assert.Equal(t, []statusUpdate{{quoteID, model.StatusSent, model.StatusExpired}}, repo.quoteUpdates)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StatusTransitions.WithLabelValues("invoice", "overdue")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StatusTransitions.WithLabelValues("quote", "expired")))
}

func TestRunStatusRefresh_StopsOnCancel(t *testing.T) {
	svc := newTestService(t, &stubRepo{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.RunStatusRefresh(ctx, 5*time.Millisecond) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("refresher did not stop after cancel")
	}
}

func TestRefreshStatuses_PagesPastFailingRows(t *testing.T) {
	repo := &stubRepo{failUpdates: map[uuid.UUID]bool{}}
	for i := 0; i < 5; i++ {
		inv := model.Invoice{
			ID:      uuid.New(),
			Status:  model.StatusSent,
			Totals:  model.BillingTotals{TotalAmount: dec("10")},
			DueDate: date(2024, time.June, 1+i),
		}
		repo.pastDue = append(repo.pastDue, inv)
	}
	repo.failUpdates[repo.pastDue[0].ID] = true
	repo.failUpdates[repo.pastDue[1].ID] = true

	svc := newTestService(t, repo)
	svc.refreshBatch = 2

	svc.RefreshStatuses(context.Background())

	var updated []uuid.UUID
	for _, u := range repo.invoiceUpdates {
		updated = append(updated, u.id)
	}
	assert.Equal(t, []uuid.UUID{repo.pastDue[2].ID, repo.pastDue[3].ID, repo.pastDue[4].ID}, updated)
	assert.Equal(t, 3, repo.pageCalls)
}

func TestRefreshStatuses_QuotesPagedPastFailures(t *testing.T) {
	repo := &stubRepo{failUpdates: map[uuid.UUID]bool{}}
	for i := 0; i < 3; i++ {
		repo.pastValidity = append(repo.pastValidity, model.Quote{
			ID:         uuid.New(),
			Status:     model.StatusSent,
			ValidUntil: date(2024, time.June, 1+i),
		})
	}
	repo.failUpdates[repo.pastValidity[0].ID] = true

	svc := newTestService(t, repo)
	svc.refreshBatch = 1

	svc.RefreshStatuses(context.Background())

	require.Len(t, repo.quoteUpdates, 2)
	assert.Equal(t, repo.pastValidity[1].ID, repo.quoteUpdates[0].id)
	assert.Equal(t, repo.pastValidity[2].ID, repo.quoteUpdates[1].id)
}

func TestUpdateInvoice_DerivesStatus(t *testing.T) {
	items := []model.LineItem{{Quantity: dec("1"), UnitPrice: dec("100")}}
	tests := []struct {
		name      string
		requested model.DocumentStatus
		paid      string
		due       time.Time
		want      model.DocumentStatus
	}{
		{"marked sent", model.StatusSent, "0", date(2024, time.June, 30), model.StatusSent},
		{"cancelled stays cancelled", model.StatusCancelled, "50", date(2024, time.June, 1), model.StatusCancelled},
		{"existing payment makes it partial", model.StatusSent, "50", date(2024, time.June, 30), model.StatusPartial},
		{"existing payment covers new total", model.StatusViewed, "118", date(2024, time.June, 30), model.StatusPaid},
		{"past due", model.StatusViewed, "0", date(2024, time.June, 1), model.StatusOverdue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &stubRepo{storedPaid: dec(tt.paid)}
			svc := newTestService(t, repo)
			id := uuid.New()

			inv, err := svc.UpdateInvoice(context.Background(), id, DocumentInput{
				ClientID:  uuid.New(),
				Title:     "Website",
				Items:     items,
				Status:    tt.requested,
				IssueDate: date(2024, time.May, 20),
				DueDate:   tt.due,
			})
			require.NoError(t, err)

			assert.Equal(t, id, inv.ID)
			assert.Equal(t, tt.want, inv.Status)
			assert.Equal(t, "118.00", inv.Totals.TotalAmount.StringFixed(2))
			assert.Same(t, inv, repo.updatedInvoice)
		})
	}
}

func TestUpdateInvoice_Errors(t *testing.T) {
	t.Run("invalid status", func(t *testing.T) {
		repo := &stubRepo{}
		svc := newTestService(t, repo)

		_, err := svc.UpdateInvoice(context.Background(), uuid.New(), DocumentInput{
			ClientID: uuid.New(), Title: "x", Status: model.StatusAccepted,
		})
		assert.ErrorIs(t, err, ErrInvalidInput)
		assert.Nil(t, repo.updatedInvoice)
	})

	t.Run("not found", func(t *testing.T) {
		svc := newTestService(t, &stubRepo{updateErr: repository.ErrNotFound})

		_, err := svc.UpdateInvoice(context.Background(), uuid.New(), DocumentInput{ClientID: uuid.New(), Title: "x"})
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})
}

func TestUpdateQuote(t *testing.T) {
	tests := []struct {
		name      string
		requested model.DocumentStatus
		until     time.Time
		want      model.DocumentStatus
	}{
		{"accepted", model.StatusAccepted, date(2024, time.June, 1), model.StatusAccepted},
		{"rejected", model.StatusRejected, date(2024, time.July, 1), model.StatusRejected},
		{"sent past validity", model.StatusSent, date(2024, time.June, 9), model.StatusExpired},
		{"sent", model.StatusSent, date(2024, time.June, 10), model.StatusSent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, mr := newTestCache(t)
			require.NoError(t, mr.Set("search:acme", "[]"))

			repo := &stubRepo{}
			svc := newTestService(t, repo, WithCache(c))

			q, err := svc.UpdateQuote(context.Background(), uuid.New(), DocumentInput{
				ClientID: uuid.New(),
				Title:    "Redesign",
				Items:    []model.LineItem{{Quantity: dec("2"), UnitPrice: dec("500")}},
				Status:   tt.requested,
				DueDate:  tt.until,
			})
			require.NoError(t, err)

			assert.Equal(t, tt.want, q.Status)
			assert.Equal(t, "1180.00", q.Totals.TotalAmount.StringFixed(2))
			assert.Same(t, q, repo.updatedQuote)
			assert.False(t, mr.Exists("search:acme"))
		})
	}
}

func TestListInvoices_DerivesStatusOnRead(t *testing.T) {
	repo := &stubRepo{listedInvoices: []model.Invoice{
		{Status: model.StatusSent, Totals: model.BillingTotals{TotalAmount: dec("10")}, DueDate: date(2024, time.June, 1)},
		{Status: model.StatusCancelled, Totals: model.BillingTotals{TotalAmount: dec("10")}, DueDate: date(2024, time.June, 1)},
		{Status: model.StatusSent, Totals: model.BillingTotals{TotalAmount: dec("10")}, DueDate: date(2024, time.June, 20)},
	}}
	svc := newTestService(t, repo)

	invoices, err := svc.ListInvoices(context.Background(), model.DocumentFilter{Search: " acme "})
	require.NoError(t, err)

	var got []model.DocumentStatus
	for _, inv := range invoices {
		got = append(got, inv.Status)
	}
	assert.Equal(t, []model.DocumentStatus{model.StatusOverdue, model.StatusCancelled, model.StatusSent}, got)
}

func TestListQuotes_DerivesStatusOnRead(t *testing.T) {
	repo := &stubRepo{listedQuotes: []model.Quote{
		{Status: model.StatusViewed, ValidUntil: date(2024, time.June, 9)},
		{Status: model.StatusAccepted, ValidUntil: date(2024, time.June, 9)},
	}}
	svc := newTestService(t, repo)

	quotes, err := svc.ListQuotes(context.Background(), model.DocumentFilter{})
	require.NoError(t, err)
	require.Len(t, quotes, 2)
	assert.Equal(t, model.StatusExpired, quotes[0].Status)
	assert.Equal(t, model.StatusAccepted, quotes[1].Status)
}

func TestSummary(t *testing.T) {
	at := func(days int) *time.Time {
		d := date(2024, time.June, 10).AddDate(0, 0, days)
		return &d
	}
	repo := &stubRepo{
		summary: model.Summary{
			PendingInvoices: 2,
			PendingAmount:   dec("150"),
			Overdue: []model.Invoice{
				{Status: model.StatusSent, Totals: model.BillingTotals{TotalAmount: dec("100")}, DueDate: date(2024, time.June, 1)},
				{Status: model.StatusSent, AmountPaid: dec("50"), Totals: model.BillingTotals{TotalAmount: dec("100")}, DueDate: date(2024, time.June, 2)},
			},
		},
		credentials: []model.Credential{
			{Name: "expired", ExpiryDate: at(-1)},
			{Name: "c1", ExpiryDate: at(0)},
			{Name: "c2", ExpiryDate: at(2)},
			{Name: "c3", ExpiryDate: at(5)},
			{Name: "c4", ExpiryDate: at(9)},
			{Name: "c5", ExpiryDate: at(20)},
			{Name: "c6", ExpiryDate: at(30)},
		},
	}
	svc := newTestService(t, repo)

	s, err := svc.Summary(context.Background())
	require.NoError(t, err)

	assert.Equal(t, date(2024, time.June, 1), repo.monthStart)
	assert.Equal(t, "150", s.PendingAmount.String())
	assert.Equal(t, model.StatusOverdue, s.Overdue[0].Status)
	assert.Equal(t, model.StatusPartial, s.Overdue[1].Status)

	var names []string
	for _, c := range s.ExpiringCredentials {
		names = append(names, c.Credential.Name)
	}
	assert.Equal(t, []string{"c1", "c2", "c3", "c4", "c5"}, names)
}

func TestGetCredential_ClassifiesExpiry(t *testing.T) {
	expires := date(2024, time.June, 13)
	svc := newTestService(t, &stubRepo{credentials: []model.Credential{{Name: "SSL", ExpiryDate: &expires}}})

	v, err := svc.GetCredential(context.Background(), uuid.New())
	require.NoError(t, err)
	require.NotNil(t, v.Expiry)
	assert.Equal(t, 3, v.Expiry.DaysUntilExpiry)
	assert.Equal(t, expiry.StateExpiringSoon, v.Expiry.State)
}
