package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ralfiz/bizdesk/internal/model"
)

// CreateClient сохраняет нового клиента и заполняет его идентификатор.
func (r *PostgresRepository) CreateClient(ctx context.Context, c *model.Client) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}

	err := r.pool.QueryRow(ctx,
		`INSERT INTO clients (id, name, company_name, email, phone, gst_number, priority, is_active)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING created_at`,
		c.ID, c.Name, c.CompanyName, c.Email, c.Phone, c.GSTNumber, c.Priority, c.IsActive,
	).Scan(&c.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert client: %w", err)
	}
	return nil
}

const clientColumns = `id, name, company_name, email, phone, gst_number, priority, is_active, created_at`

func scanClient(row pgx.Row) (*model.Client, error) {
	var c model.Client
	if err := row.Scan(&c.ID, &c.Name, &c.CompanyName, &c.Email, &c.Phone, &c.GSTNumber, &c.Priority,
		&c.IsActive, &c.CreatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

// GetClient возвращает клиента по идентификатору.
func (r *PostgresRepository) GetClient(ctx context.Context, id uuid.UUID) (*model.Client, error) {
	c, err := scanClient(r.pool.QueryRow(ctx, `SELECT `+clientColumns+` FROM clients WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get client: %w", err)
	}
	return c, nil
}

// ListClients возвращает клиентов, подходящих под фильтр, в порядке имени.
func (r *PostgresRepository) ListClients(ctx context.Context, f model.ClientFilter) ([]model.Client, error) {
	var fl filter
	if f.Search != "" {
		fl.add("(name ILIKE $%[1]d OR company_name ILIKE $%[1]d OR email ILIKE $%[1]d)", likePattern(f.Search))
	}
	if f.Priority != "" {
		fl.add("priority = $%d", f.Priority)
	}
	if f.Active != nil {
		fl.add("is_active = $%d", *f.Active)
	}

	query := `SELECT ` + clientColumns + ` FROM clients` + fl.where() + ` ORDER BY name, created_at`

	rows, err := r.pool.Query(ctx, query, fl.args...)
	if err != nil {
		return nil, fmt.Errorf("select clients: %w", err)
	}
	defer rows.Close()

	res := make([]model.Client, 0)
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, fmt.Errorf("scan client: %w", err)
		}
		res = append(res, *c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return res, nil
}

// CreateProject сохраняет новый проект клиента.
func (r *PostgresRepository) CreateProject(ctx context.Context, p *model.Project) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}

	err := r.pool.QueryRow(ctx,
		`INSERT INTO projects (id, client_id, name, project_type, status, deadline)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING created_at`,
		p.ID, p.ClientID, p.Name, p.ProjectType, p.Status, p.Deadline,
	).Scan(&p.CreatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrClientNotFound
		}
		return fmt.Errorf("insert project: %w", err)
	}
	return nil
}

// GetProject возвращает проект по идентификатору.
func (r *PostgresRepository) GetProject(ctx context.Context, id uuid.UUID) (*model.Project, error) {
	var p model.Project
	err := r.pool.QueryRow(ctx,
		`SELECT id, client_id, name, project_type, status, deadline, created_at FROM projects WHERE id = $1`,
		id,
	).Scan(&p.ID, &p.ClientID, &p.Name, &p.ProjectType, &p.Status, &p.Deadline, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get project: %w", err)
	}
	return &p, nil
}

// CreateCredential сохраняет учётные данные проекта.
func (r *PostgresRepository) CreateCredential(ctx context.Context, c *model.Credential) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}

	err := r.pool.QueryRow(ctx,
		`INSERT INTO credentials (id, project_id, credential_type, name, provider, url, username, expiry_date, is_active)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING created_at`,
		c.ID, c.ProjectID, c.CredentialType, c.Name, c.Provider, c.URL, c.Username, c.ExpiryDate, c.IsActive,
	).Scan(&c.CreatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrProjectNotFound
		}
		return fmt.Errorf("insert credential: %w", err)
	}
	return nil
}

// GetCredential возвращает учётные данные вместе с названием проекта.
func (r *PostgresRepository) GetCredential(ctx context.Context, id uuid.UUID) (*model.Credential, error) {
	var c model.Credential
	err := r.pool.QueryRow(ctx,
		`SELECT c.id, c.project_id, p.name, c.credential_type, c.name, c.provider, c.url, c.username,
		        c.expiry_date, c.is_active, c.created_at
		 FROM credentials c
		 JOIN projects p ON p.id = c.project_id
		 WHERE c.id = $1`,
		id,
	).Scan(&c.ID, &c.ProjectID, &c.ProjectName, &c.CredentialType, &c.Name, &c.Provider,
		&c.URL, &c.Username, &c.ExpiryDate, &c.IsActive, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get credential: %w", err)
	}
	return &c, nil
}

// ListCredentialsExpiringBy возвращает активные учётные данные со сроком не позднее until,
// включая уже истёкшие, в порядке срока.
func (r *PostgresRepository) ListCredentialsExpiringBy(ctx context.Context, until time.Time) ([]model.Credential, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT c.id, c.project_id, p.name, c.credential_type, c.name, c.provider, c.url, c.username,
		        c.expiry_date, c.is_active, c.created_at
		 FROM credentials c
		 JOIN projects p ON p.id = c.project_id
		 WHERE c.is_active AND c.expiry_date IS NOT NULL AND c.expiry_date <= $1
		 ORDER BY c.expiry_date, c.created_at DESC`,
		until,
	)
	if err != nil {
		return nil, fmt.Errorf("select expiring credentials: %w", err)
	}
	defer rows.Close()

	var res []model.Credential
	for rows.Next() {
		var c model.Credential
		if err := rows.Scan(&c.ID, &c.ProjectID, &c.ProjectName, &c.CredentialType, &c.Name, &c.Provider,
			&c.URL, &c.Username, &c.ExpiryDate, &c.IsActive, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan credential: %w", err)
		}
		res = append(res, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return res, nil
}
