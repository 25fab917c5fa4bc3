package handler

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ralfiz/bizdesk/internal/expiry"
	"github.com/ralfiz/bizdesk/internal/model"
	"github.com/ralfiz/bizdesk/internal/service"
)

// PreviewTotals пересчитывает итоги незавершённой формы документа.
func (h *Handler) PreviewTotals(w http.ResponseWriter, r *http.Request) {
	var req service.TotalsInput
	if err := decode(r, &req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	totals := h.service.PreviewTotals(req)
	writeJSON(w, http.StatusOK, h.totalsResponse(totals))
}

type totalsResponse struct {
	Subtotal    string `json:"subtotal"`
	Discount    string `json:"discount"`
	TaxRate     string `json:"tax_rate"`
	TaxAmount   string `json:"tax_amount"`
	TotalAmount string `json:"total_amount"`
	Formatted   struct {
		Subtotal    string `json:"subtotal"`
		TaxAmount   string `json:"tax_amount"`
		TotalAmount string `json:"total_amount"`
	} `json:"formatted"`
}

func (h *Handler) totalsResponse(t model.BillingTotals) totalsResponse {
	resp := totalsResponse{
		Subtotal:    t.Subtotal.StringFixed(2),
		Discount:    t.Discount.StringFixed(2),
		TaxRate:     t.TaxRate.String(),
		TaxAmount:   t.TaxAmount.StringFixed(2),
		TotalAmount: t.TotalAmount.StringFixed(2),
	}
	resp.Formatted.Subtotal = h.formatter.Currency(t.Subtotal)
	resp.Formatted.TaxAmount = h.formatter.Currency(t.TaxAmount)
	resp.Formatted.TotalAmount = h.formatter.Currency(t.TotalAmount)
	return resp
}

type documentRequest struct {
	ClientID   uuid.UUID        `json:"client_id"`
	Title      string           `json:"title"`
	Items      []model.LineItem `json:"items"`
	Discount   decimal.Decimal  `json:"discount"`
	TaxRate    *decimal.Decimal `json:"tax_rate"`
	Status     string           `json:"status"`
	IssueDate  string           `json:"issue_date"`
	DueDate    string           `json:"due_date"`
	ValidUntil string           `json:"valid_until"`
}

func (req documentRequest) input(until string) (service.DocumentInput, error) {
	issue, err := parseDate(req.IssueDate)
	if err != nil {
		return service.DocumentInput{}, err
	}
	due, err := parseDate(until)
	if err != nil {
		return service.DocumentInput{}, err
	}
	return service.DocumentInput{
		ClientID:  req.ClientID,
		Title:     req.Title,
		Items:     req.Items,
		Discount:  req.Discount,
		TaxRate:   req.TaxRate,
		Status:    model.DocumentStatus(req.Status),
		IssueDate: issue,
		DueDate:   due,
	}, nil
}

type quoteResponse struct {
	ID         uuid.UUID              `json:"id"`
	Number     string                 `json:"number"`
	ClientID   uuid.UUID              `json:"client_id"`
	Title      string                 `json:"title"`
	Status     string                 `json:"status"`
	Totals     totalsResponse         `json:"totals"`
	IssueDate  string                 `json:"issue_date"`
	ValidUntil string                 `json:"valid_until"`
	Items      []model.LineItem       `json:"items"`
	Validity   *expiry.Classification `json:"validity,omitempty"`
}

func (h *Handler) quoteResponse(q *model.Quote, validity *expiry.Classification) quoteResponse {
	items := q.Items
	if items == nil {
		items = []model.LineItem{}
	}
	return quoteResponse{
		ID:         q.ID,
		Number:     q.Number,
		ClientID:   q.ClientID,
		Title:      q.Title,
		Status:     string(q.Status),
		Totals:     h.totalsResponse(q.Totals),
		IssueDate:  formatDate(q.IssueDate),
		ValidUntil: formatDate(q.ValidUntil),
		Items:      items,
		Validity:   validity,
	}
}

// CreateQuote создаёт коммерческое предложение.
func (h *Handler) CreateQuote(w http.ResponseWriter, r *http.Request) {
	var req documentRequest
	if err := decode(r, &req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	in, err := req.input(req.ValidUntil)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	q, err := h.service.CreateQuote(r.Context(), in)
	if err != nil {
		h.writeError(w, "create quote", err)
		return
	}

	writeJSON(w, http.StatusCreated, h.quoteResponse(q, nil))
}

// GetQuote возвращает коммерческое предложение по идентификатору.
func (h *Handler) GetQuote(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
		return
	}

	v, err := h.service.GetQuote(r.Context(), id)
	if err != nil {
		h.writeError(w, "get quote", err)
		return
	}

	writeJSON(w, http.StatusOK, h.quoteResponse(v.Quote, v.Validity))
}

// UpdateQuote заменяет предложение целиком: поля, строки и статус.
func (h *Handler) UpdateQuote(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
		return
	}

	var req documentRequest
	if err := decode(r, &req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	in, err := req.input(req.ValidUntil)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	q, err := h.service.UpdateQuote(r.Context(), id, in)
	if err != nil {
		h.writeError(w, "update quote", err)
		return
	}

	writeJSON(w, http.StatusOK, h.quoteResponse(q, nil))
}

// documentFilter читает параметры search, status и client списка документов.
func documentFilter(r *http.Request) (model.DocumentFilter, error) {
	q := r.URL.Query()
	f := model.DocumentFilter{Search: q.Get("search"), Status: model.DocumentStatus(q.Get("status"))}
	if c := q.Get("client"); c != "" {
		id, err := uuid.Parse(c)
		if err != nil {
			return f, fmt.Errorf("client %q: %w", c, err)
		}
		f.ClientID = id
	}
	return f, nil
}

type quoteListResponse struct {
	Quotes []quoteResponse `json:"quotes"`
}

// ListQuotes возвращает предложения без строк.
func (h *Handler) ListQuotes(w http.ResponseWriter, r *http.Request) {
	f, err := documentFilter(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	quotes, err := h.service.ListQuotes(r.Context(), f)
	if err != nil {
		h.writeError(w, "list quotes", err)
		return
	}

	resp := quoteListResponse{Quotes: make([]quoteResponse, 0, len(quotes))}
	for i := range quotes {
		resp.Quotes = append(resp.Quotes, h.quoteResponse(&quotes[i], nil))
	}
	writeJSON(w, http.StatusOK, resp)
}

type invoiceResponse struct {
	ID         uuid.UUID        `json:"id"`
	Number     string           `json:"number"`
	ClientID   uuid.UUID        `json:"client_id"`
	Title      string           `json:"title"`
	Status     string           `json:"status"`
	Totals     totalsResponse   `json:"totals"`
	AmountPaid string           `json:"amount_paid"`
	BalanceDue string           `json:"balance_due"`
	Formatted  invoiceFormatted `json:"formatted"`
	IssueDate  string           `json:"issue_date"`
	DueDate    string           `json:"due_date,omitempty"`
	Items      []model.LineItem `json:"items"`
}

type invoiceFormatted struct {
	AmountPaid string `json:"amount_paid"`
	BalanceDue string `json:"balance_due"`
}

func (h *Handler) invoiceResponse(inv *model.Invoice) invoiceResponse {
	items := inv.Items
	if items == nil {
		items = []model.LineItem{}
	}
	return invoiceResponse{
		ID:         inv.ID,
		Number:     inv.Number,
		ClientID:   inv.ClientID,
		Title:      inv.Title,
		Status:     string(inv.Status),
		Totals:     h.totalsResponse(inv.Totals),
		AmountPaid: inv.AmountPaid.StringFixed(2),
		BalanceDue: inv.BalanceDue().StringFixed(2),
		Formatted: invoiceFormatted{
			AmountPaid: h.formatter.Currency(inv.AmountPaid),
			BalanceDue: h.formatter.Currency(inv.BalanceDue()),
		},
		IssueDate: formatDate(inv.IssueDate),
		DueDate:   formatDate(inv.DueDate),
		Items:     items,
	}
}

// CreateInvoice создаёт счёт.
func (h *Handler) CreateInvoice(w http.ResponseWriter, r *http.Request) {
	var req documentRequest
	if err := decode(r, &req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	in, err := req.input(req.DueDate)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	inv, err := h.service.CreateInvoice(r.Context(), in)
	if err != nil {
		h.writeError(w, "create invoice", err)
		return
	}

	writeJSON(w, http.StatusCreated, h.invoiceResponse(inv))
}

// GetInvoice возвращает счёт по идентификатору.
func (h *Handler) GetInvoice(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
		return
	}

	inv, err := h.service.GetInvoice(r.Context(), id)
	if err != nil {
		h.writeError(w, "get invoice", err)
		return
	}

	writeJSON(w, http.StatusOK, h.invoiceResponse(inv))
}

// UpdateInvoice заменяет счёт целиком. Оплаты сохраняются, статус выводится заново.
func (h *Handler) UpdateInvoice(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
		return
	}

	var req documentRequest
	if err := decode(r, &req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	in, err := req.input(req.DueDate)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	inv, err := h.service.UpdateInvoice(r.Context(), id, in)
	if err != nil {
		h.writeError(w, "update invoice", err)
		return
	}

	writeJSON(w, http.StatusOK, h.invoiceResponse(inv))
}

type invoiceListResponse struct {
	Invoices []invoiceResponse `json:"invoices"`
}

// ListInvoices возвращает счета без строк.
func (h *Handler) ListInvoices(w http.ResponseWriter, r *http.Request) {
	f, err := documentFilter(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	invoices, err := h.service.ListInvoices(r.Context(), f)
	if err != nil {
		h.writeError(w, "list invoices", err)
		return
	}

	resp := invoiceListResponse{Invoices: make([]invoiceResponse, 0, len(invoices))}
	for i := range invoices {
		resp.Invoices = append(resp.Invoices, h.invoiceResponse(&invoices[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}

type paymentRequest struct {
	Amount        decimal.Decimal `json:"amount"`
	PaymentDate   string          `json:"payment_date"`
	PaymentMethod string          `json:"payment_method"`
	TransactionID string          `json:"transaction_id"`
}

// RecordPayment принимает оплату по счёту и возвращает счёт с обновлённым статусом.
func (h *Handler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
		return
	}

	var req paymentRequest
	if err := decode(r, &req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	paidOn, err := parseDate(req.PaymentDate)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	inv, err := h.service.RecordPayment(r.Context(), &model.Payment{
		InvoiceID:     id,
		Amount:        req.Amount,
		PaymentDate:   paidOn,
		Method:        req.PaymentMethod,
		TransactionID: req.TransactionID,
	})
	if err != nil {
		h.writeError(w, "record payment", err)
		return
	}

	writeJSON(w, http.StatusCreated, h.invoiceResponse(inv))
}

type paymentResponse struct {
	ID            uuid.UUID `json:"id"`
	InvoiceID     uuid.UUID `json:"invoice_id"`
	InvoiceNumber string    `json:"invoice_number"`
	ClientName    string    `json:"client_name"`
	Amount        string    `json:"amount"`
	Formatted     string    `json:"formatted_amount"`
	PaymentDate   string    `json:"payment_date"`
	PaymentMethod string    `json:"payment_method"`
	TransactionID string    `json:"transaction_id"`
}

func (h *Handler) paymentResponse(e model.PaymentEntry) paymentResponse {
	return paymentResponse{
		ID:            e.ID,
		InvoiceID:     e.InvoiceID,
		InvoiceNumber: e.InvoiceNumber,
		ClientName:    e.ClientName,
		Amount:        e.Amount.StringFixed(2),
		Formatted:     h.formatter.Currency(e.Amount),
		PaymentDate:   formatDate(e.PaymentDate),
		PaymentMethod: e.Method,
		TransactionID: e.TransactionID,
	}
}

func (h *Handler) paymentResponses(entries []model.PaymentEntry) []paymentResponse {
	out := make([]paymentResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, h.paymentResponse(e))
	}
	return out
}

type paymentListResponse struct {
	Payments []paymentResponse `json:"payments"`
}

// ListPayments возвращает оплаты. Параметры: search, method.
func (h *Handler) ListPayments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	payments, err := h.service.ListPayments(r.Context(), model.PaymentFilter{
		Search: q.Get("search"),
		Method: q.Get("method"),
	})
	if err != nil {
		h.writeError(w, "list payments", err)
		return
	}

	writeJSON(w, http.StatusOK, paymentListResponse{Payments: h.paymentResponses(payments)})
}
