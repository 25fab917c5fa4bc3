package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/ralfiz/bizdesk/internal/billing"
	"github.com/ralfiz/bizdesk/internal/model"
	"github.com/ralfiz/bizdesk/internal/repository"
)

const refreshBatchSize = 100

// RunStatusRefresh периодически переводит просроченные счета в overdue, а предложения с
// истёкшим сроком в expired. Возвращает управление при отмене ctx.
func (s *Service) RunStatusRefresh(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return nil
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.RefreshStatuses(ctx)
		}
	}
}

// RefreshStatuses выполняет один проход обновления статусов.
func (s *Service) RefreshStatuses(ctx context.Context) {
	today := s.today()
	changed := s.refreshInvoices(ctx, today) + s.refreshQuotes(ctx, today)
	if changed > 0 {
		s.invalidateSearch(ctx)
	}
}

// refreshInvoices проходит все просроченные счета страницами. Курсор сдвигается и за строки,
// которые не удалось обновить.
func (s *Service) refreshInvoices(ctx context.Context, today time.Time) int {
	var (
		after            *repository.Cursor
		changed, skipped int
	)
	for ctx.Err() == nil {
		invoices, err := s.repo.ListInvoicesPastDue(ctx, today, after, s.refreshBatch)
		if err != nil {
			s.logger.Error("list invoices past due", zap.Error(err))
			break
		}

		for _, inv := range invoices {
			next := billing.DeriveInvoiceStatus(inv.AmountPaid, inv.Totals.TotalAmount, inv.DueDate, today, inv.Status)
			if next == inv.Status {
				continue
			}

			ok, err := s.repo.UpdateInvoiceStatus(ctx, inv.ID, inv.Status, next)
			if err != nil {
				skipped++
				s.logger.Error("update invoice status", zap.String("invoice", inv.Number), zap.Error(err))
				continue
			}
			if !ok {
				continue
			}

			changed++
			s.metrics.StatusTransitions.WithLabelValues("invoice", string(next)).Inc()
			s.logger.Info("invoice status changed",
				zap.String("invoice", inv.Number),
				zap.String("from", string(inv.Status)),
				zap.String("to", string(next)),
			)
		}

		if len(invoices) < s.refreshBatch {
			break
		}
		last := invoices[len(invoices)-1]
		after = &repository.Cursor{Date: last.DueDate, ID: last.ID}
	}

	if skipped > 0 {
		s.logger.Warn("invoices left unchanged after update errors", zap.Int("skipped", skipped))
	}
	return changed
}

func (s *Service) refreshQuotes(ctx context.Context, today time.Time) int {
	var (
		after            *repository.Cursor
		changed, skipped int
	)
	for ctx.Err() == nil {
		quotes, err := s.repo.ListQuotesPastValidity(ctx, today, after, s.refreshBatch)
		if err != nil {
			s.logger.Error("list quotes past validity", zap.Error(err))
			break
		}

		for _, q := range quotes {
			next := billing.DeriveQuoteStatus(q.ValidUntil, today, q.Status)
			if next == q.Status {
				continue
			}

			ok, err := s.repo.UpdateQuoteStatus(ctx, q.ID, q.Status, next)
			if err != nil {
				skipped++
				s.logger.Error("update quote status", zap.String("quote", q.Number), zap.Error(err))
				continue
			}
			if !ok {
				continue
			}

			changed++
			s.metrics.StatusTransitions.WithLabelValues("quote", string(model.StatusExpired)).Inc()
			s.logger.Info("quote expired", zap.String("quote", q.Number), zap.String("from", string(q.Status)))
		}

		if len(quotes) < s.refreshBatch {
			break
		}
		last := quotes[len(quotes)-1]
		after = &repository.Cursor{Date: last.ValidUntil, ID: last.ID}
	}

	if skipped > 0 {
		s.logger.Warn("quotes left unchanged after update errors", zap.Int("skipped", skipped))
	}
	return changed
}
