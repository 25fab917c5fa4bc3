package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ralfiz/bizdesk/internal/model"
)

type searchSource struct {
	typ   model.SearchResultType
	icon  string
	query string
}

const (
	searchClientsSQL = `SELECT id, CASE WHEN company_name <> '' THEN company_name ELSE name END, email
		FROM clients
		WHERE name ILIKE $1 OR company_name ILIKE $1 OR email ILIKE $1
		ORDER BY name
		LIMIT $2`

	searchProjectsSQL = `SELECT p.id, p.name, CASE WHEN c.company_name <> '' THEN c.company_name ELSE c.name END
		FROM projects p
		JOIN clients c ON c.id = p.client_id
		WHERE p.name ILIKE $1 OR c.name ILIKE $1 OR c.company_name ILIKE $1
		ORDER BY p.created_at DESC
		LIMIT $2`

	searchInvoicesSQL = `SELECT i.id, i.invoice_number || ' ' || i.title, c.name || ' · ' || i.status
		FROM invoices i
		JOIN clients c ON c.id = i.client_id
		WHERE i.invoice_number ILIKE $1 OR i.title ILIKE $1 OR c.name ILIKE $1 OR c.company_name ILIKE $1
		ORDER BY i.issue_date DESC
		LIMIT $2`

	searchQuotesSQL = `SELECT q.id, q.quote_number || ' ' || q.title, c.name || ' · ' || q.status
		FROM quotes q
		JOIN clients c ON c.id = q.client_id
		WHERE q.quote_number ILIKE $1 OR q.title ILIKE $1 OR c.name ILIKE $1 OR c.company_name ILIKE $1
		ORDER BY q.issue_date DESC
		LIMIT $2`

	searchCredentialsSQL = `SELECT cr.id, cr.name, p.name || CASE WHEN cr.provider <> '' THEN ' · ' || cr.provider ELSE '' END
		FROM credentials cr
		JOIN projects p ON p.id = cr.project_id
		WHERE cr.is_active AND (cr.name ILIKE $1 OR cr.provider ILIKE $1 OR p.name ILIKE $1)
		ORDER BY cr.name
		LIMIT $2`
)

// Порядок источников определяет порядок групп в выдаче.
var searchSources = []searchSource{
	{typ: model.SearchClient, icon: "user", query: searchClientsSQL},
	{typ: model.SearchProject, icon: "folder", query: searchProjectsSQL},
	{typ: model.SearchInvoice, icon: "file-invoice", query: searchInvoicesSQL},
	{typ: model.SearchQuote, icon: "file-alt", query: searchQuotesSQL},
	{typ: model.SearchCredential, icon: "key", query: searchCredentialsSQL},
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePattern строит шаблон ILIKE для поиска подстроки s.
func likePattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

// Search ищет query по клиентам, проектам, счетам, предложениям и учётным данным.
// На каждый тип приходится не больше perType записей.
func (r *PostgresRepository) Search(ctx context.Context, query string, perType int) ([]model.SearchResult, error) {
	pattern := likePattern(query)

	batch := &pgx.Batch{}
	for _, src := range searchSources {
		batch.Queue(src.query, pattern, perType)
	}

	br := r.pool.SendBatch(ctx, batch)
	defer br.Close()

	results := make([]model.SearchResult, 0)
	for _, src := range searchSources {
		rows, err := br.Query()
		if err != nil {
			return nil, fmt.Errorf("search %s: %w", src.typ, err)
		}

		for rows.Next() {
			var (
				id              uuid.UUID
				title, subtitle string
			)
			if err := rows.Scan(&id, &title, &subtitle); err != nil {
				rows.Close()
				return nil, fmt.Errorf("scan %s: %w", src.typ, err)
			}
			results = append(results, model.SearchResult{
				Type:     src.typ,
				Title:    title,
				Subtitle: subtitle,
				URL:      src.typ.URL(id),
				Icon:     src.icon,
			})
		}
		rows.Close()

		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("rows error: %w", err)
		}
	}

	return results, nil
}
