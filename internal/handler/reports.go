package handler

import (
	"net/http"
)

type summaryResponse struct {
	ActiveClients    int    `json:"active_clients"`
	ActiveProjects   int    `json:"active_projects"`
	PendingInvoices  int    `json:"pending_invoices"`
	PendingAmount    string `json:"pending_amount"`
	RevenueThisMonth string `json:"revenue_this_month"`
	TotalRevenue     string `json:"total_revenue"`
	Formatted        struct {
		PendingAmount    string `json:"pending_amount"`
		RevenueThisMonth string `json:"revenue_this_month"`
		TotalRevenue     string `json:"total_revenue"`
	} `json:"formatted"`
	Overdue             []invoiceResponse    `json:"overdue"`
	RecentPayments      []paymentResponse    `json:"recent_payments"`
	ExpiringCredentials []credentialResponse `json:"expiring_credentials"`
}

// GetSummary возвращает сводные показатели: открытые счета и остаток по ним, выручку,
// просроченные счета, последние оплаты и истекающие учётные данные.
func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	s, err := h.service.Summary(r.Context())
	if err != nil {
		h.writeError(w, "summary", err)
		return
	}

	resp := summaryResponse{
		ActiveClients:       s.ActiveClients,
		ActiveProjects:      s.ActiveProjects,
		PendingInvoices:     s.PendingInvoices,
		PendingAmount:       s.PendingAmount.StringFixed(2),
		RevenueThisMonth:    s.RevenueThisMonth.StringFixed(2),
		TotalRevenue:        s.TotalRevenue.StringFixed(2),
		Overdue:             make([]invoiceResponse, 0, len(s.Overdue)),
		RecentPayments:      h.paymentResponses(s.RecentPayments),
		ExpiringCredentials: toCredentialResponses(s.ExpiringCredentials),
	}
	resp.Formatted.PendingAmount = h.formatter.Currency(s.PendingAmount)
	resp.Formatted.RevenueThisMonth = h.formatter.Currency(s.RevenueThisMonth)
	resp.Formatted.TotalRevenue = h.formatter.Currency(s.TotalRevenue)
	for i := range s.Overdue {
		resp.Overdue = append(resp.Overdue, h.invoiceResponse(&s.Overdue[i]))
	}

	writeJSON(w, http.StatusOK, resp)
}
