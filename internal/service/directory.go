package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/ralfiz/bizdesk/internal/expiry"
	"github.com/ralfiz/bizdesk/internal/model"
	"github.com/ralfiz/bizdesk/internal/validation"
)

// CreateClient проверяет и сохраняет клиента.
func (s *Service) CreateClient(ctx context.Context, c *model.Client) error {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}

	c.GSTNumber = strings.ToUpper(strings.TrimSpace(c.GSTNumber))
	if c.GSTNumber != "" && !validation.IsValidGSTIN(c.GSTNumber) {
		return fmt.Errorf("%w: gst number %q", ErrInvalidInput, c.GSTNumber)
	}

	switch c.Priority {
	case "":
		c.Priority = "medium"
	case "low", "medium", "high":
	default:
		return fmt.Errorf("%w: priority %q", ErrInvalidInput, c.Priority)
	}

	if err := s.repo.CreateClient(ctx, c); err != nil {
		return err
	}
	s.invalidateSearch(ctx)
	return nil
}

// GetClient возвращает клиента по идентификатору.
func (s *Service) GetClient(ctx context.Context, id uuid.UUID) (*model.Client, error) {
	return s.repo.GetClient(ctx, id)
}

// ListClients возвращает клиентов, подходящих под фильтр.
func (s *Service) ListClients(ctx context.Context, f model.ClientFilter) ([]model.Client, error) {
	f.Search = strings.TrimSpace(f.Search)
	return s.repo.ListClients(ctx, f)
}

// CreateProject сохраняет проект клиента.
func (s *Service) CreateProject(ctx context.Context, p *model.Project) error {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if p.ProjectType == "" {
		p.ProjectType = "web_app"
	}
	if p.Status == "" {
		p.Status = "lead"
	}
	if err := s.repo.CreateProject(ctx, p); err != nil {
		return err
	}
	s.invalidateSearch(ctx)
	return nil
}

// GetProject возвращает проект по идентификатору.
func (s *Service) GetProject(ctx context.Context, id uuid.UUID) (*model.Project, error) {
	return s.repo.GetProject(ctx, id)
}

// CreateCredential сохраняет учётные данные проекта.
func (s *Service) CreateCredential(ctx context.Context, c *model.Credential) error {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if c.CredentialType == "" {
		return fmt.Errorf("%w: credential type is required", ErrInvalidInput)
	}
	if err := s.repo.CreateCredential(ctx, c); err != nil {
		return err
	}
	s.invalidateSearch(ctx)
	return nil
}

// CredentialView дополняет учётные данные классификацией срока. Expiry равен nil, если срок не задан.
type CredentialView struct {
	Credential *model.Credential
	Expiry     *expiry.Classification
}

// GetCredential возвращает учётные данные с классификацией срока на текущую дату.
func (s *Service) GetCredential(ctx context.Context, id uuid.UUID) (*CredentialView, error) {
	c, err := s.repo.GetCredential(ctx, id)
	if err != nil {
		return nil, err
	}
	return &CredentialView{Credential: c, Expiry: expiry.Classify(c.ExpiryDate, s.today())}, nil
}

// ExpiringCredential хранит учётные данные вместе с классификацией их срока.
type ExpiringCredential struct {
	Credential model.Credential
	Expiry     expiry.Classification
}

// ExpiryReport группирует активные учётные данные по разделам отчёта.
type ExpiryReport struct {
	Expired   []ExpiringCredential
	ThisWeek  []ExpiringCredential
	ThisMonth []ExpiringCredential
}

// CredentialExpiryReport строит отчёт об истёкших и истекающих в ближайшие 30 дней учётных данных.
func (s *Service) CredentialExpiryReport(ctx context.Context) (*ExpiryReport, error) {
	today := s.today()

	creds, err := s.repo.ListCredentialsExpiringBy(ctx, today.AddDate(0, 0, expiry.SoonWindowDays))
	if err != nil {
		return nil, err
	}

	report := &ExpiryReport{}
	for _, c := range creds {
		cls := expiry.Classify(c.ExpiryDate, today)
		if cls == nil {
			continue
		}
		item := ExpiringCredential{Credential: c, Expiry: *cls}

		switch expiry.BucketOf(c.ExpiryDate, today) {
		case expiry.BucketExpired:
			report.Expired = append(report.Expired, item)
		case expiry.BucketThisWeek:
			report.ThisWeek = append(report.ThisWeek, item)
		case expiry.BucketThisMonth:
			report.ThisMonth = append(report.ThisMonth, item)
		}
	}

	return report, nil
}
