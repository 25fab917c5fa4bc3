package service

import (
	"context"
	"time"

	"github.com/ralfiz/bizdesk/internal/expiry"
	"github.com/ralfiz/bizdesk/internal/model"
)

// SummaryListSize ограничивает списки в сводке.
const SummaryListSize = 5

// Summary содержит показатели главной страницы и отчётов.
type Summary struct {
	model.Summary
	// ExpiringCredentials содержит ещё не истёкшие учётные данные со сроком в пределах 30 дней.
	ExpiringCredentials []ExpiringCredential
}

// Summary собирает сводку на текущую дату. Выручка за месяц считается с первого числа.
func (s *Service) Summary(ctx context.Context) (*Summary, error) {
	today := s.today()
	monthStart := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)

	base, err := s.repo.Summary(ctx, today, monthStart, SummaryListSize)
	if err != nil {
		return nil, err
	}
	for i := range base.Overdue {
		base.Overdue[i].Status = s.deriveInvoice(base.Overdue[i])
	}

	creds, err := s.repo.ListCredentialsExpiringBy(ctx, today.AddDate(0, 0, expiry.SoonWindowDays))
	if err != nil {
		return nil, err
	}

	res := &Summary{Summary: *base, ExpiringCredentials: make([]ExpiringCredential, 0, SummaryListSize)}
	for _, c := range creds {
		cls := expiry.Classify(c.ExpiryDate, today)
		if cls == nil || cls.State == expiry.StateExpired {
			continue
		}
		res.ExpiringCredentials = append(res.ExpiringCredentials, ExpiringCredential{Credential: c, Expiry: *cls})
		if len(res.ExpiringCredentials) == SummaryListSize {
			break
		}
	}

	return res, nil
}
