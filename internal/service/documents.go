package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/ralfiz/bizdesk/internal/billing"
	"github.com/ralfiz/bizdesk/internal/expiry"
	"github.com/ralfiz/bizdesk/internal/model"
)

const (
	// DefaultQuoteValidityDays — срок действия предложения, если он не указан.
	DefaultQuoteValidityDays = 30
	// DefaultPaymentTermDays — срок оплаты счёта, если он не указан.
	DefaultPaymentTermDays = 15
)

// TotalsInput содержит сырые значения полей формы для предварительного расчёта итогов.
type TotalsInput struct {
	Items    []ItemInput `json:"items"`
	Discount string      `json:"discount"`
	TaxRate  string      `json:"tax_rate"`
}

// ItemInput — строка формы документа в том виде, в каком её ввёл пользователь.
type ItemInput struct {
	Description string `json:"description"`
	Quantity    string `json:"quantity"`
	UnitPrice   string `json:"unit_price"`
}

// PreviewTotals считает итоги по незавершённой форме. Некорректные числа считаются нулём,
// пустая ставка заменяется ставкой сервиса.
func (s *Service) PreviewTotals(in TotalsInput) model.BillingTotals {
	items := make([]model.LineItem, 0, len(in.Items))
	for _, it := range in.Items {
		items = append(items, model.LineItem{
			Description: it.Description,
			Quantity:    billing.ParseAmount(it.Quantity),
			UnitPrice:   billing.ParseAmount(it.UnitPrice),
		})
	}

	rate := s.taxRate
	if strings.TrimSpace(in.TaxRate) != "" {
		rate = billing.ParseTaxRate(in.TaxRate)
	}

	return billing.ComputeTotals(items, billing.ParseAmount(in.Discount), rate)
}

// DocumentInput содержит данные для создания счёта или предложения.
type DocumentInput struct {
	ClientID  uuid.UUID
	Title     string
	Items     []model.LineItem
	Discount  decimal.Decimal
	TaxRate   *decimal.Decimal
	Status    model.DocumentStatus
	IssueDate time.Time
	// DueDate — срок оплаты счёта либо срок действия предложения.
	DueDate time.Time
}

func (s *Service) prepare(in *DocumentInput) (model.BillingTotals, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return model.BillingTotals{}, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if in.ClientID == uuid.Nil {
		return model.BillingTotals{}, fmt.Errorf("%w: client is required", ErrInvalidInput)
	}
	if in.Discount.IsNegative() {
		return model.BillingTotals{}, fmt.Errorf("%w: discount must not be negative", ErrInvalidInput)
	}
	for i, it := range in.Items {
		if it.Quantity.IsNegative() || it.UnitPrice.IsNegative() {
			return model.BillingTotals{}, fmt.Errorf("%w: item %d has a negative amount", ErrInvalidInput, i+1)
		}
	}

	rate := s.taxRate
	if in.TaxRate != nil {
		rate = *in.TaxRate
	}
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(100)) {
		return model.BillingTotals{}, fmt.Errorf("%w: tax rate %s", ErrInvalidInput, rate)
	}

	if in.IssueDate.IsZero() {
		in.IssueDate = s.today()
	}
	if in.Status == "" {
		in.Status = model.StatusDraft
	}

	return billing.ComputeTotals(in.Items, in.Discount, rate), nil
}

func (s *Service) buildQuote(in DocumentInput) (*model.Quote, error) {
	totals, err := s.prepare(&in)
	if err != nil {
		return nil, err
	}
	if !model.IsValidQuoteStatus(in.Status) {
		return nil, fmt.Errorf("%w: quote status %q", ErrInvalidInput, in.Status)
	}
	if in.DueDate.IsZero() {
		in.DueDate = in.IssueDate.AddDate(0, 0, DefaultQuoteValidityDays)
	}

	q := &model.Quote{
		ClientID:   in.ClientID,
		Title:      in.Title,
		Totals:     totals,
		IssueDate:  in.IssueDate,
		ValidUntil: in.DueDate,
		Items:      in.Items,
	}
	q.Status = billing.DeriveQuoteStatus(q.ValidUntil, s.today(), in.Status)
	return q, nil
}

// CreateQuote рассчитывает итоги, выводит статус и сохраняет коммерческое предложение.
func (s *Service) CreateQuote(ctx context.Context, in DocumentInput) (*model.Quote, error) {
	q, err := s.buildQuote(in)
	if err != nil {
		return nil, err
	}

	if err := s.repo.CreateQuote(ctx, q); err != nil {
		return nil, err
	}
	s.invalidateSearch(ctx)
	return q, nil
}

// UpdateQuote заменяет поля и строки предложения id. Итоги и статус пересчитываются так же,
// как при создании.
func (s *Service) UpdateQuote(ctx context.Context, id uuid.UUID, in DocumentInput) (*model.Quote, error) {
	q, err := s.buildQuote(in)
	if err != nil {
		return nil, err
	}
	q.ID = id

	if err := s.repo.UpdateQuote(ctx, q); err != nil {
		return nil, err
	}
	s.invalidateSearch(ctx)
	s.logger.Info("quote updated", zap.String("quote", q.Number), zap.String("status", string(q.Status)))
	return q, nil
}

// ListQuotes возвращает предложения по фильтру. Статусы пересчитываются на текущую дату.
func (s *Service) ListQuotes(ctx context.Context, f model.DocumentFilter) ([]model.Quote, error) {
	f.Search = strings.TrimSpace(f.Search)
	quotes, err := s.repo.ListQuotes(ctx, f)
	if err != nil {
		return nil, err
	}

	today := s.today()
	for i := range quotes {
		quotes[i].Status = billing.DeriveQuoteStatus(quotes[i].ValidUntil, today, quotes[i].Status)
	}
	return quotes, nil
}

// QuoteView дополняет предложение классификацией срока действия.
type QuoteView struct {
	Quote    *model.Quote
	Validity *expiry.Classification
}

// GetQuote возвращает предложение. Статус пересчитывается на текущую дату.
func (s *Service) GetQuote(ctx context.Context, id uuid.UUID) (*QuoteView, error) {
	q, err := s.repo.GetQuote(ctx, id)
	if err != nil {
		return nil, err
	}

	today := s.today()
	q.Status = billing.DeriveQuoteStatus(q.ValidUntil, today, q.Status)

	return &QuoteView{
		Quote:    q,
		Validity: expiry.ClassifyWithin(&q.ValidUntil, today, expiry.QuoteSoonWindowDays),
	}, nil
}

func (s *Service) buildInvoice(in DocumentInput) (*model.Invoice, error) {
	totals, err := s.prepare(&in)
	if err != nil {
		return nil, err
	}
	if !model.IsValidInvoiceStatus(in.Status) {
		return nil, fmt.Errorf("%w: invoice status %q", ErrInvalidInput, in.Status)
	}
	if in.DueDate.IsZero() {
		in.DueDate = in.IssueDate.AddDate(0, 0, DefaultPaymentTermDays)
	}

	return &model.Invoice{
		ClientID:   in.ClientID,
		Title:      in.Title,
		Status:     in.Status,
		Totals:     totals,
		AmountPaid: decimal.Zero,
		IssueDate:  in.IssueDate,
		DueDate:    in.DueDate,
		Items:      in.Items,
	}, nil
}

// CreateInvoice рассчитывает итоги, выводит статус и сохраняет счёт.
func (s *Service) CreateInvoice(ctx context.Context, in DocumentInput) (*model.Invoice, error) {
	inv, err := s.buildInvoice(in)
	if err != nil {
		return nil, err
	}
	inv.Status = s.deriveInvoice(*inv)

	if err := s.repo.CreateInvoice(ctx, inv); err != nil {
		return nil, err
	}
	s.invalidateSearch(ctx)
	return inv, nil
}

// UpdateInvoice заменяет поля и строки счёта id. Статус выводится из запрошенного статуса,
// новых итогов и уже поступивших оплат.
func (s *Service) UpdateInvoice(ctx context.Context, id uuid.UUID, in DocumentInput) (*model.Invoice, error) {
	inv, err := s.buildInvoice(in)
	if err != nil {
		return nil, err
	}
	inv.ID = id

	if err := s.repo.UpdateInvoice(ctx, inv, s.deriveInvoice); err != nil {
		return nil, err
	}
	s.invalidateSearch(ctx)
	s.logger.Info("invoice updated", zap.String("invoice", inv.Number), zap.String("status", string(inv.Status)))
	return inv, nil
}

// ListInvoices возвращает счета по фильтру. Статусы пересчитываются на текущую дату.
func (s *Service) ListInvoices(ctx context.Context, f model.DocumentFilter) ([]model.Invoice, error) {
	f.Search = strings.TrimSpace(f.Search)
	invoices, err := s.repo.ListInvoices(ctx, f)
	if err != nil {
		return nil, err
	}

	for i := range invoices {
		invoices[i].Status = s.deriveInvoice(invoices[i])
	}
	return invoices, nil
}

// GetInvoice возвращает счёт. Статус пересчитывается на текущую дату.
func (s *Service) GetInvoice(ctx context.Context, id uuid.UUID) (*model.Invoice, error) {
	inv, err := s.repo.GetInvoice(ctx, id)
	if err != nil {
		return nil, err
	}
	inv.Status = s.deriveInvoice(*inv)
	return inv, nil
}

func (s *Service) deriveInvoice(inv model.Invoice) model.DocumentStatus {
	return billing.DeriveInvoiceStatus(inv.AmountPaid, inv.Totals.TotalAmount, inv.DueDate, s.today(), inv.Status)
}

// RecordPayment сохраняет оплату и пересчитывает статус счёта.
func (s *Service) RecordPayment(ctx context.Context, p *model.Payment) (*model.Invoice, error) {
	if !p.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: payment amount must be positive", ErrInvalidInput)
	}
	if p.PaymentDate.IsZero() {
		p.PaymentDate = s.today()
	}
	if p.Method == "" {
		p.Method = "bank_transfer"
	}

	inv, err := s.repo.AddPayment(ctx, p, s.deriveInvoice)
	if err != nil {
		return nil, err
	}

	s.metrics.PaymentsRecorded.Inc()
	s.invalidateSearch(ctx)
	s.logger.Info("payment recorded",
		zap.String("invoice", inv.Number),
		zap.String("amount", p.Amount.StringFixed(2)),
		zap.String("status", string(inv.Status)),
	)
	return inv, nil
}

// ListPayments возвращает оплаты по фильтру.
func (s *Service) ListPayments(ctx context.Context, f model.PaymentFilter) ([]model.PaymentEntry, error) {
	f.Search = strings.TrimSpace(f.Search)
	return s.repo.ListPayments(ctx, f)
}
