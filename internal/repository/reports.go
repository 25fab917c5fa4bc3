package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/ralfiz/bizdesk/internal/model"
)

const paymentEntrySQL = `SELECT p.id, p.invoice_id, p.amount, p.payment_date, p.payment_method, p.transaction_id,
	p.created_at, i.invoice_number, c.name
	FROM payments p
	JOIN invoices i ON i.id = p.invoice_id
	JOIN clients c ON c.id = i.client_id`

func collectPayments(rows pgx.Rows) ([]model.PaymentEntry, error) {
	res := make([]model.PaymentEntry, 0)
	for rows.Next() {
		var e model.PaymentEntry
		if err := rows.Scan(&e.ID, &e.InvoiceID, &e.Amount, &e.PaymentDate, &e.Method, &e.TransactionID,
			&e.CreatedAt, &e.InvoiceNumber, &e.ClientName); err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		res = append(res, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return res, nil
}

// ListPayments возвращает оплаты с номером счёта и именем клиента, последние первыми.
func (r *PostgresRepository) ListPayments(ctx context.Context, f model.PaymentFilter) ([]model.PaymentEntry, error) {
	var fl filter
	if f.Search != "" {
		fl.add("(i.invoice_number ILIKE $%[1]d OR p.transaction_id ILIKE $%[1]d OR c.name ILIKE $%[1]d)", likePattern(f.Search))
	}
	if f.Method != "" {
		fl.add("p.payment_method = $%d", f.Method)
	}

	rows, err := r.pool.Query(ctx,
		paymentEntrySQL+fl.where()+` ORDER BY p.payment_date DESC, p.created_at DESC`,
		fl.args...,
	)
	if err != nil {
		return nil, fmt.Errorf("select payments: %w", err)
	}
	defer rows.Close()

	return collectPayments(rows)
}

// Summary собирает сводные показатели одним пакетом запросов. Списки просроченных счетов и
// последних оплат ограничены limit записями.
func (r *PostgresRepository) Summary(ctx context.Context, today, monthStart time.Time, limit int) (*model.Summary, error) {
	batch := &pgx.Batch{}
	batch.Queue(`SELECT count(*) FROM clients WHERE is_active`)
	batch.Queue(`SELECT count(*) FROM projects WHERE status NOT IN ('completed', 'cancelled')`)
	batch.Queue(`SELECT count(*), COALESCE(SUM(total_amount - amount_paid), 0)
		FROM invoices WHERE status NOT IN ('paid', 'cancelled')`)
	batch.Queue(`SELECT COALESCE(SUM(amount) FILTER (WHERE payment_date >= $1), 0), COALESCE(SUM(amount), 0)
		FROM payments`, monthStart)
	batch.Queue(`SELECT `+invoiceColumns+`
		FROM invoices
		WHERE status NOT IN ('paid', 'cancelled') AND due_date < $1
		ORDER BY due_date, id
		LIMIT $2`, today, limit)
	batch.Queue(paymentEntrySQL+` ORDER BY p.payment_date DESC, p.created_at DESC LIMIT $1`, limit)

	br := r.pool.SendBatch(ctx, batch)
	defer br.Close()

	var s model.Summary
	if err := br.QueryRow().Scan(&s.ActiveClients); err != nil {
		return nil, fmt.Errorf("count clients: %w", err)
	}
	if err := br.QueryRow().Scan(&s.ActiveProjects); err != nil {
		return nil, fmt.Errorf("count projects: %w", err)
	}
	if err := br.QueryRow().Scan(&s.PendingInvoices, &s.PendingAmount); err != nil {
		return nil, fmt.Errorf("sum pending invoices: %w", err)
	}
	if err := br.QueryRow().Scan(&s.RevenueThisMonth, &s.TotalRevenue); err != nil {
		return nil, fmt.Errorf("sum revenue: %w", err)
	}

	rows, err := br.Query()
	if err != nil {
		return nil, fmt.Errorf("select overdue invoices: %w", err)
	}
	s.Overdue, err = collectInvoices(rows)
	rows.Close()
	if err != nil {
		return nil, err
	}

	rows, err = br.Query()
	if err != nil {
		return nil, fmt.Errorf("select recent payments: %w", err)
	}
	s.RecentPayments, err = collectPayments(rows)
	rows.Close()
	if err != nil {
		return nil, err
	}

	return &s, nil
}
