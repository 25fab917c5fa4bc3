// Package model содержит доменные сущности сервиса bizdesk.
package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DocumentStatus описывает статус счёта или коммерческого предложения.
type DocumentStatus string

const (
	StatusDraft     DocumentStatus = "draft"
	StatusSent      DocumentStatus = "sent"
	StatusViewed    DocumentStatus = "viewed"
	StatusPartial   DocumentStatus = "partial"
	StatusPaid      DocumentStatus = "paid"
	StatusOverdue   DocumentStatus = "overdue"
	StatusCancelled DocumentStatus = "cancelled"

	// Статусы, встречающиеся только у коммерческих предложений.
	StatusAccepted DocumentStatus = "accepted"
	StatusRejected DocumentStatus = "rejected"
	StatusExpired  DocumentStatus = "expired"
)

// IsValidInvoiceStatus сообщает, допустим ли статус для счёта.
func IsValidInvoiceStatus(s DocumentStatus) bool {
	switch s {
	case StatusDraft, StatusSent, StatusViewed, StatusPartial, StatusPaid, StatusOverdue, StatusCancelled:
		return true
	}
	return false
}

// IsValidQuoteStatus сообщает, допустим ли статус для коммерческого предложения.
func IsValidQuoteStatus(s DocumentStatus) bool {
	switch s {
	case StatusDraft, StatusSent, StatusViewed, StatusAccepted, StatusRejected, StatusExpired:
		return true
	}
	return false
}

// LineItem описывает одну строку счёта или предложения.
type LineItem struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

// Amount возвращает сумму строки без округления.
func (li LineItem) Amount() decimal.Decimal {
	return li.Quantity.Mul(li.UnitPrice)
}

// BillingTotals содержит итоговые суммы документа.
type BillingTotals struct {
	Subtotal    decimal.Decimal `json:"subtotal"`
	Discount    decimal.Decimal `json:"discount"`
	TaxRate     decimal.Decimal `json:"tax_rate"`
	TaxAmount   decimal.Decimal `json:"tax_amount"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

// Client описывает клиента агентства.
type Client struct {
	ID          uuid.UUID
	Name        string
	CompanyName string
	Email       string
	Phone       string
	GSTNumber   string
	Priority    string
	IsActive    bool
	CreatedAt   time.Time
}

// DisplayName возвращает название компании, а при его отсутствии — имя клиента.
func (c Client) DisplayName() string {
	if c.CompanyName != "" {
		return c.CompanyName
	}
	return c.Name
}

// Project описывает проект клиента.
type Project struct {
	ID          uuid.UUID
	ClientID    uuid.UUID
	Name        string
	ProjectType string
	Status      string
	Deadline    *time.Time
	CreatedAt   time.Time
}

// Credential описывает учётные данные, хранящиеся для проекта.
type Credential struct {
	ID             uuid.UUID
	ProjectID      uuid.UUID
	ProjectName    string
	CredentialType string
	Name           string
	Provider       string
	URL            string
	Username       string
	ExpiryDate     *time.Time
	IsActive       bool
	CreatedAt      time.Time
}

// Quote описывает коммерческое предложение.
type Quote struct {
	ID         uuid.UUID
	Number     string
	ClientID   uuid.UUID
	Title      string
	Status     DocumentStatus
	Totals     BillingTotals
	IssueDate  time.Time
	ValidUntil time.Time
	Items      []LineItem
	CreatedAt  time.Time
}

// Invoice описывает счёт на оплату.
type Invoice struct {
	ID         uuid.UUID
	Number     string
	ClientID   uuid.UUID
	Title      string
	Status     DocumentStatus
	Totals     BillingTotals
	AmountPaid decimal.Decimal
	IssueDate  time.Time
	DueDate    time.Time
	Items      []LineItem
	CreatedAt  time.Time
}

// BalanceDue возвращает неоплаченный остаток по счёту.
func (i Invoice) BalanceDue() decimal.Decimal {
	return i.Totals.TotalAmount.Sub(i.AmountPaid)
}

// Payment описывает поступление оплаты по счёту.
type Payment struct {
	ID            uuid.UUID
	InvoiceID     uuid.UUID
	Amount        decimal.Decimal
	PaymentDate   time.Time
	Method        string
	TransactionID string
	CreatedAt     time.Time
}

// SearchResultType описывает тип найденной записи.
type SearchResultType string

const (
	SearchClient     SearchResultType = "client"
	SearchProject    SearchResultType = "project"
	SearchInvoice    SearchResultType = "invoice"
	SearchQuote      SearchResultType = "quote"
	SearchCredential SearchResultType = "credential"
)

// SearchResultTypes перечисляет типы в порядке групп выдачи.
var SearchResultTypes = []SearchResultType{SearchClient, SearchProject, SearchInvoice, SearchQuote, SearchCredential}

var searchPaths = map[SearchResultType]string{
	SearchClient:     "/clients/",
	SearchProject:    "/projects/",
	SearchInvoice:    "/invoices/",
	SearchQuote:      "/quotes/",
	SearchCredential: "/credentials/",
}

// URL возвращает путь API, по которому отдаётся запись с идентификатором id.
func (t SearchResultType) URL(id uuid.UUID) string {
	return searchPaths[t] + id.String()
}

// SearchResult описывает одну запись в выдаче глобального поиска.
type SearchResult struct {
	Type     SearchResultType `json:"type"`
	Title    string           `json:"title"`
	Subtitle string           `json:"subtitle"`
	URL      string           `json:"url"`
	Icon     string           `json:"icon"`
}

// ClientFilter задаёт условия выборки списка клиентов. Пустые поля не ограничивают выборку.
type ClientFilter struct {
	Search   string
	Priority string
	Active   *bool
}

// DocumentFilter задаёт условия выборки счетов и предложений.
type DocumentFilter struct {
	Search   string
	Status   DocumentStatus
	ClientID uuid.UUID
}

// PaymentFilter задаёт условия выборки оплат.
type PaymentFilter struct {
	Search string
	Method string
}

// PaymentEntry описывает оплату вместе с данными счёта для списка оплат.
type PaymentEntry struct {
	Payment
	InvoiceNumber string
	ClientName    string
}

// Summary содержит сводные показатели для главной страницы и отчётов.
type Summary struct {
	ActiveClients    int
	ActiveProjects   int
	PendingInvoices  int
	PendingAmount    decimal.Decimal
	RevenueThisMonth decimal.Decimal
	TotalRevenue     decimal.Decimal
	Overdue          []Invoice
	RecentPayments   []PaymentEntry
}
