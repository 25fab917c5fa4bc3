package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/ralfiz/bizdesk/internal/billing"
	"github.com/ralfiz/bizdesk/internal/model"
)

// StatusFunc выводит статус счёта после изменения суммы оплат или состава счёта.
type StatusFunc func(inv model.Invoice) model.DocumentStatus

// Cursor указывает последнюю просмотренную запись в выборке, упорядоченной по дате и идентификатору.
type Cursor struct {
	Date time.Time
	ID   uuid.UUID
}

func cursorArgs(c *Cursor) (*time.Time, uuid.UUID) {
	if c == nil {
		return nil, uuid.Nil
	}
	return &c.Date, c.ID
}

// nextNumber выдаёт следующий номер документа в пределах транзакции. Рекомендательная
// блокировка сериализует выдачу номеров для одного префикса и года.
func nextNumber(ctx context.Context, tx pgx.Tx, table, column, prefix string, year int) (string, error) {
	head := fmt.Sprintf("%s%d", prefix, year)

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, head); err != nil {
		return "", fmt.Errorf("lock numbering: %w", err)
	}

	var last string
	err := tx.QueryRow(ctx,
		fmt.Sprintf(`SELECT %[1]s FROM %[2]s WHERE %[1]s LIKE $1 ORDER BY length(%[1]s) DESC, %[1]s DESC LIMIT 1`, column, table),
		head+"%",
	).Scan(&last)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return "", fmt.Errorf("select last number: %w", err)
	}

	return billing.NextDocumentNumber(prefix, year, last), nil
}

func insertItems(ctx context.Context, tx pgx.Tx, table, fk string, id uuid.UUID, items []model.LineItem) error {
	if len(items) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	query := fmt.Sprintf(`INSERT INTO %s (%s, position, description, quantity, unit_price) VALUES ($1, $2, $3, $4, $5)`, table, fk)
	for i, it := range items {
		batch.Queue(query, id, i, it.Description, it.Quantity, it.UnitPrice)
	}

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert items: %w", err)
	}
	return nil
}

// replaceItems заменяет строки документа новым набором.
func replaceItems(ctx context.Context, tx pgx.Tx, table, fk string, id uuid.UUID, items []model.LineItem) error {
	if _, err := tx.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`, table, fk), id); err != nil {
		return fmt.Errorf("delete items: %w", err)
	}
	return insertItems(ctx, tx, table, fk, id, items)
}

func selectItems(ctx context.Context, q pgx.Tx, table, fk string, id uuid.UUID) ([]model.LineItem, error) {
	rows, err := q.Query(ctx,
		fmt.Sprintf(`SELECT description, quantity, unit_price FROM %s WHERE %s = $1 ORDER BY position`, table, fk),
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("select items: %w", err)
	}
	defer rows.Close()

	var items []model.LineItem
	for rows.Next() {
		var it model.LineItem
		if err := rows.Scan(&it.Description, &it.Quantity, &it.UnitPrice); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return items, nil
}

// CreateQuote сохраняет предложение со строками и присваивает ему номер.
func (r *PostgresRepository) CreateQuote(ctx context.Context, q *model.Quote) error {
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}

	return withRetry(ctx, func() error {
		tx, err := r.pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		defer tx.Rollback(ctx)

		number, err := nextNumber(ctx, tx, "quotes", "quote_number", billing.QuotePrefix, q.IssueDate.Year())
		if err != nil {
			return err
		}

		t := q.Totals
		err = tx.QueryRow(ctx,
			`INSERT INTO quotes (id, quote_number, client_id, title, status, subtotal, discount, tax_rate,
			                     tax_amount, total_amount, issue_date, valid_until)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			 RETURNING created_at`,
			q.ID, number, q.ClientID, q.Title, string(q.Status), t.Subtotal, t.Discount, t.TaxRate,
			t.TaxAmount, t.TotalAmount, q.IssueDate, q.ValidUntil,
		).Scan(&q.CreatedAt)
		if err != nil {
			if isForeignKeyViolation(err) {
				return ErrClientNotFound
			}
			return fmt.Errorf("insert quote: %w", err)
		}

		if err := insertItems(ctx, tx, "quote_items", "quote_id", q.ID, q.Items); err != nil {
			return err
		}

		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("commit tx: %w", err)
		}

		q.Number = number
		return nil
	})
}

const quoteColumns = `id, quote_number, client_id, title, status, subtotal, discount, tax_rate, tax_amount,
	total_amount, issue_date, valid_until, created_at`

func scanQuote(row pgx.Row) (*model.Quote, error) {
	var (
		q      model.Quote
		status string
	)
	err := row.Scan(&q.ID, &q.Number, &q.ClientID, &q.Title, &status, &q.Totals.Subtotal, &q.Totals.Discount,
		&q.Totals.TaxRate, &q.Totals.TaxAmount, &q.Totals.TotalAmount, &q.IssueDate, &q.ValidUntil, &q.CreatedAt)
	if err != nil {
		return nil, err
	}
	q.Status = model.DocumentStatus(status)
	return &q, nil
}

// GetQuote возвращает предложение со строками.
func (r *PostgresRepository) GetQuote(ctx context.Context, id uuid.UUID) (*model.Quote, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{AccessMode: pgx.ReadOnly})
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	q, err := scanQuote(tx.QueryRow(ctx, `SELECT `+quoteColumns+` FROM quotes WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get quote: %w", err)
	}

	q.Items, err = selectItems(ctx, tx, "quote_items", "quote_id", q.ID)
	if err != nil {
		return nil, err
	}

	return q, nil
}

// UpdateQuote перезаписывает поля и строки предложения. Номер и дата создания сохраняются.
func (r *PostgresRepository) UpdateQuote(ctx context.Context, q *model.Quote) error {
	return withRetry(ctx, func() error {
		tx, err := r.pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		defer tx.Rollback(ctx)

		t := q.Totals
		err = tx.QueryRow(ctx,
			`UPDATE quotes
			 SET client_id = $2, title = $3, status = $4, subtotal = $5, discount = $6, tax_rate = $7,
			     tax_amount = $8, total_amount = $9, issue_date = $10, valid_until = $11
			 WHERE id = $1
			 RETURNING quote_number, created_at`,
			q.ID, q.ClientID, q.Title, string(q.Status), t.Subtotal, t.Discount, t.TaxRate,
			t.TaxAmount, t.TotalAmount, q.IssueDate, q.ValidUntil,
		).Scan(&q.Number, &q.CreatedAt)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrNotFound
			}
			if isForeignKeyViolation(err) {
				return ErrClientNotFound
			}
			return fmt.Errorf("update quote: %w", err)
		}

		if err := replaceItems(ctx, tx, "quote_items", "quote_id", q.ID, q.Items); err != nil {
			return err
		}

		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("commit tx: %w", err)
		}
		return nil
	})
}

// documentFilter переводит фильтр списка документов в условия WHERE.
func documentFilter(f model.DocumentFilter, numberColumn string) filter {
	var fl filter
	if f.Search != "" {
		fl.add("("+numberColumn+" ILIKE $%[1]d OR title ILIKE $%[1]d OR client_id IN "+
			"(SELECT id FROM clients WHERE name ILIKE $%[1]d OR company_name ILIKE $%[1]d))", likePattern(f.Search))
	}
	if f.Status != "" {
		fl.add("status = $%d", string(f.Status))
	}
	if f.ClientID != uuid.Nil {
		fl.add("client_id = $%d", f.ClientID)
	}
	return fl
}

// ListQuotes возвращает предложения без строк, новые первыми.
func (r *PostgresRepository) ListQuotes(ctx context.Context, f model.DocumentFilter) ([]model.Quote, error) {
	fl := documentFilter(f, "quote_number")
	rows, err := r.pool.Query(ctx,
		`SELECT `+quoteColumns+` FROM quotes`+fl.where()+` ORDER BY issue_date DESC, created_at DESC`,
		fl.args...,
	)
	if err != nil {
		return nil, fmt.Errorf("select quotes: %w", err)
	}
	defer rows.Close()

	res := make([]model.Quote, 0)
	for rows.Next() {
		q, err := scanQuote(rows)
		if err != nil {
			return nil, fmt.Errorf("scan quote: %w", err)
		}
		res = append(res, *q)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return res, nil
}

// ListQuotesPastValidity возвращает незакрытые предложения со сроком действия раньше today,
// следующие за after в порядке (valid_until, id).
func (r *PostgresRepository) ListQuotesPastValidity(ctx context.Context, today time.Time, after *Cursor, limit int) ([]model.Quote, error) {
	afterDate, afterID := cursorArgs(after)
	rows, err := r.pool.Query(ctx,
		`SELECT id, quote_number, status, valid_until
		 FROM quotes
		 WHERE status IN ($1, $2, $3) AND valid_until < $4
		   AND ($5::date IS NULL OR (valid_until, id) > ($5::date, $6))
		 ORDER BY valid_until, id
		 LIMIT $7`,
		string(model.StatusDraft), string(model.StatusSent), string(model.StatusViewed), today,
		afterDate, afterID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("select quotes past validity: %w", err)
	}
	defer rows.Close()

	var res []model.Quote
	for rows.Next() {
		var (
			q      model.Quote
			status string
		)
		if err := rows.Scan(&q.ID, &q.Number, &status, &q.ValidUntil); err != nil {
			return nil, fmt.Errorf("scan quote: %w", err)
		}
		q.Status = model.DocumentStatus(status)
		res = append(res, q)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return res, nil
}

// UpdateQuoteStatus меняет статус предложения, если он всё ещё равен from.
func (r *PostgresRepository) UpdateQuoteStatus(ctx context.Context, id uuid.UUID, from, to model.DocumentStatus) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE quotes SET status = $3 WHERE id = $1 AND status = $2`,
		id, string(from), string(to),
	)
	if err != nil {
		return false, fmt.Errorf("update quote status: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// CreateInvoice сохраняет счёт со строками и присваивает ему номер.
func (r *PostgresRepository) CreateInvoice(ctx context.Context, inv *model.Invoice) error {
	if inv.ID == uuid.Nil {
		inv.ID = uuid.New()
	}

	return withRetry(ctx, func() error {
		tx, err := r.pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		defer tx.Rollback(ctx)

		number, err := nextNumber(ctx, tx, "invoices", "invoice_number", billing.InvoicePrefix, inv.IssueDate.Year())
		if err != nil {
			return err
		}

		t := inv.Totals
		err = tx.QueryRow(ctx,
			`INSERT INTO invoices (id, invoice_number, client_id, title, status, subtotal, discount, tax_rate,
			                       tax_amount, total_amount, amount_paid, issue_date, due_date)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
			 RETURNING created_at`,
			inv.ID, number, inv.ClientID, inv.Title, string(inv.Status), t.Subtotal, t.Discount, t.TaxRate,
			t.TaxAmount, t.TotalAmount, inv.AmountPaid, inv.IssueDate, nullDate(inv.DueDate),
		).Scan(&inv.CreatedAt)
		if err != nil {
			if isForeignKeyViolation(err) {
				return ErrClientNotFound
			}
			return fmt.Errorf("insert invoice: %w", err)
		}

		if err := insertItems(ctx, tx, "invoice_items", "invoice_id", inv.ID, inv.Items); err != nil {
			return err
		}

		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("commit tx: %w", err)
		}

		inv.Number = number
		return nil
	})
}

const invoiceColumns = `id, invoice_number, client_id, title, status, subtotal, discount, tax_rate, tax_amount,
	total_amount, amount_paid, issue_date, due_date, created_at`

func scanInvoice(row pgx.Row) (*model.Invoice, error) {
	var (
		inv    model.Invoice
		status string
		due    *time.Time
	)
	err := row.Scan(&inv.ID, &inv.Number, &inv.ClientID, &inv.Title, &status, &inv.Totals.Subtotal,
		&inv.Totals.Discount, &inv.Totals.TaxRate, &inv.Totals.TaxAmount, &inv.Totals.TotalAmount,
		&inv.AmountPaid, &inv.IssueDate, &due, &inv.CreatedAt)
	if err != nil {
		return nil, err
	}
	inv.Status = model.DocumentStatus(status)
	if due != nil {
		inv.DueDate = *due
	}
	return &inv, nil
}

// GetInvoice возвращает счёт со строками.
func (r *PostgresRepository) GetInvoice(ctx context.Context, id uuid.UUID) (*model.Invoice, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{AccessMode: pgx.ReadOnly})
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	inv, err := scanInvoice(tx.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get invoice: %w", err)
	}

	inv.Items, err = selectItems(ctx, tx, "invoice_items", "invoice_id", inv.ID)
	if err != nil {
		return nil, err
	}

	return inv, nil
}

// UpdateInvoice перезаписывает поля и строки счёта. Оплаченная сумма берётся из базы, статус
// выводится через derive. Номер и дата создания сохраняются.
func (r *PostgresRepository) UpdateInvoice(ctx context.Context, inv *model.Invoice, derive StatusFunc) error {
	return withRetry(ctx, func() error {
		tx, err := r.pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		defer tx.Rollback(ctx)

		err = tx.QueryRow(ctx,
			`SELECT invoice_number, amount_paid, created_at FROM invoices WHERE id = $1 FOR UPDATE`,
			inv.ID,
		).Scan(&inv.Number, &inv.AmountPaid, &inv.CreatedAt)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrNotFound
			}
			return fmt.Errorf("lock invoice: %w", err)
		}
		inv.Status = derive(*inv)

		t := inv.Totals
		_, err = tx.Exec(ctx,
			`UPDATE invoices
			 SET client_id = $2, title = $3, status = $4, subtotal = $5, discount = $6, tax_rate = $7,
			     tax_amount = $8, total_amount = $9, issue_date = $10, due_date = $11
			 WHERE id = $1`,
			inv.ID, inv.ClientID, inv.Title, string(inv.Status), t.Subtotal, t.Discount, t.TaxRate,
			t.TaxAmount, t.TotalAmount, inv.IssueDate, nullDate(inv.DueDate),
		)
		if err != nil {
			if isForeignKeyViolation(err) {
				return ErrClientNotFound
			}
			return fmt.Errorf("update invoice: %w", err)
		}

		if err := replaceItems(ctx, tx, "invoice_items", "invoice_id", inv.ID, inv.Items); err != nil {
			return err
		}

		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("commit tx: %w", err)
		}
		return nil
	})
}

// ListInvoices возвращает счета без строк, новые первыми.
func (r *PostgresRepository) ListInvoices(ctx context.Context, f model.DocumentFilter) ([]model.Invoice, error) {
	fl := documentFilter(f, "invoice_number")
	rows, err := r.pool.Query(ctx,
		`SELECT `+invoiceColumns+` FROM invoices`+fl.where()+` ORDER BY issue_date DESC, created_at DESC`,
		fl.args...,
	)
	if err != nil {
		return nil, fmt.Errorf("select invoices: %w", err)
	}
	defer rows.Close()

	return collectInvoices(rows)
}

func collectInvoices(rows pgx.Rows) ([]model.Invoice, error) {
	res := make([]model.Invoice, 0)
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("scan invoice: %w", err)
		}
		res = append(res, *inv)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return res, nil
}

// AddPayment сохраняет оплату, пересчитывает оплаченную сумму счёта и обновляет его статус
// через derive. Строка счёта блокируется на время транзакции.
func (r *PostgresRepository) AddPayment(ctx context.Context, p *model.Payment, derive StatusFunc) (*model.Invoice, error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}

	var updated *model.Invoice
	err := withRetry(ctx, func() error {
		tx, err := r.pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		defer tx.Rollback(ctx)

		inv, err := scanInvoice(tx.QueryRow(ctx,
			`SELECT `+invoiceColumns+` FROM invoices WHERE id = $1 FOR UPDATE`, p.InvoiceID))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrNotFound
			}
			return fmt.Errorf("lock invoice: %w", err)
		}
		if inv.Status == model.StatusCancelled {
			return ErrInvoiceClosed
		}

		err = tx.QueryRow(ctx,
			`INSERT INTO payments (id, invoice_id, amount, payment_date, payment_method, transaction_id)
			 VALUES ($1, $2, $3, $4, $5, $6)
			 RETURNING created_at`,
			p.ID, p.InvoiceID, p.Amount, p.PaymentDate, p.Method, p.TransactionID,
		).Scan(&p.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert payment: %w", err)
		}

		var paid decimal.Decimal
		err = tx.QueryRow(ctx,
			`SELECT COALESCE(SUM(amount), 0) FROM payments WHERE invoice_id = $1`,
			p.InvoiceID,
		).Scan(&paid)
		if err != nil {
			return fmt.Errorf("sum payments: %w", err)
		}

		inv.AmountPaid = paid
		inv.Status = derive(*inv)

		_, err = tx.Exec(ctx,
			`UPDATE invoices SET amount_paid = $2, status = $3 WHERE id = $1`,
			inv.ID, inv.AmountPaid, string(inv.Status),
		)
		if err != nil {
			return fmt.Errorf("update invoice: %w", err)
		}

		inv.Items, err = selectItems(ctx, tx, "invoice_items", "invoice_id", inv.ID)
		if err != nil {
			return err
		}

		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("commit tx: %w", err)
		}

		updated = inv
		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

// ListInvoicesPastDue возвращает счета в статусах draft, sent и viewed со сроком оплаты раньше today,
// следующие за after в порядке (due_date, id).
func (r *PostgresRepository) ListInvoicesPastDue(ctx context.Context, today time.Time, after *Cursor, limit int) ([]model.Invoice, error) {
	afterDate, afterID := cursorArgs(after)
	rows, err := r.pool.Query(ctx,
		`SELECT `+invoiceColumns+`
		 FROM invoices
		 WHERE status IN ($1, $2, $3) AND due_date < $4
		   AND ($5::date IS NULL OR (due_date, id) > ($5::date, $6))
		 ORDER BY due_date, id
		 LIMIT $7`,
		string(model.StatusDraft), string(model.StatusSent), string(model.StatusViewed), today,
		afterDate, afterID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("select invoices past due: %w", err)
	}
	defer rows.Close()

	return collectInvoices(rows)
}

// UpdateInvoiceStatus меняет статус счёта, если он всё ещё равен from.
func (r *PostgresRepository) UpdateInvoiceStatus(ctx context.Context, id uuid.UUID, from, to model.DocumentStatus) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE invoices SET status = $3 WHERE id = $1 AND status = $2`,
		id, string(from), string(to),
	)
	if err != nil {
		return false, fmt.Errorf("update invoice status: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func nullDate(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
