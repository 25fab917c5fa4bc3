package handler

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/ralfiz/bizdesk/internal/expiry"
	"github.com/ralfiz/bizdesk/internal/model"
	"github.com/ralfiz/bizdesk/internal/service"
)

type clientRequest struct {
	Name        string `json:"name"`
	CompanyName string `json:"company_name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	GSTNumber   string `json:"gst_number"`
	Priority    string `json:"priority"`
}

type clientResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	CompanyName string    `json:"company_name"`
	DisplayName string    `json:"display_name"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone"`
	GSTNumber   string    `json:"gst_number"`
	Priority    string    `json:"priority"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   string    `json:"created_at"`
}

// CreateClient создаёт клиента.
func (h *Handler) CreateClient(w http.ResponseWriter, r *http.Request) {
	var req clientRequest
	if err := decode(r, &req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	c := &model.Client{
		Name:        req.Name,
		CompanyName: req.CompanyName,
		Email:       req.Email,
		Phone:       req.Phone,
		GSTNumber:   req.GSTNumber,
		Priority:    req.Priority,
		IsActive:    true,
	}
	if err := h.service.CreateClient(r.Context(), c); err != nil {
		h.writeError(w, "create client", err)
		return
	}

	writeJSON(w, http.StatusCreated, newClientResponse(c))
}

func newClientResponse(c *model.Client) clientResponse {
	return clientResponse{
		ID:          c.ID,
		Name:        c.Name,
		CompanyName: c.CompanyName,
		DisplayName: c.DisplayName(),
		Email:       c.Email,
		Phone:       c.Phone,
		GSTNumber:   c.GSTNumber,
		Priority:    c.Priority,
		IsActive:    c.IsActive,
		CreatedAt:   c.CreatedAt.Format(time.RFC3339),
	}
}

// GetClient возвращает клиента по идентификатору.
func (h *Handler) GetClient(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
		return
	}

	c, err := h.service.GetClient(r.Context(), id)
	if err != nil {
		h.writeError(w, "get client", err)
		return
	}

	writeJSON(w, http.StatusOK, newClientResponse(c))
}

type clientListResponse struct {
	Clients []clientResponse `json:"clients"`
}

// ListClients возвращает клиентов. Параметры: search, priority, status=active|inactive.
func (h *Handler) ListClients(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := model.ClientFilter{Search: q.Get("search"), Priority: q.Get("priority")}
	switch q.Get("status") {
	case "":
	case "active":
		active := true
		f.Active = &active
	case "inactive":
		active := false
		f.Active = &active
	default:
		http.Error(w, "status must be active or inactive", http.StatusBadRequest)
		return
	}

	clients, err := h.service.ListClients(r.Context(), f)
	if err != nil {
		h.writeError(w, "list clients", err)
		return
	}

	resp := clientListResponse{Clients: make([]clientResponse, 0, len(clients))}
	for i := range clients {
		resp.Clients = append(resp.Clients, newClientResponse(&clients[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}

type projectRequest struct {
	ClientID    uuid.UUID `json:"client_id"`
	Name        string    `json:"name"`
	ProjectType string    `json:"project_type"`
	Status      string    `json:"status"`
	Deadline    string    `json:"deadline"`
}

type projectResponse struct {
	ID          uuid.UUID `json:"id"`
	ClientID    uuid.UUID `json:"client_id"`
	Name        string    `json:"name"`
	ProjectType string    `json:"project_type"`
	Status      string    `json:"status"`
	Deadline    string    `json:"deadline,omitempty"`
}

// CreateProject создаёт проект клиента.
func (h *Handler) CreateProject(w http.ResponseWriter, r *http.Request) {
	var req projectRequest
	if err := decode(r, &req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	deadline, err := parseOptionalDate(req.Deadline)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	p := &model.Project{
		ClientID:    req.ClientID,
		Name:        req.Name,
		ProjectType: req.ProjectType,
		Status:      req.Status,
		Deadline:    deadline,
	}
	if err := h.service.CreateProject(r.Context(), p); err != nil {
		h.writeError(w, "create project", err)
		return
	}

	writeJSON(w, http.StatusCreated, newProjectResponse(p))
}

func newProjectResponse(p *model.Project) projectResponse {
	return projectResponse{
		ID:          p.ID,
		ClientID:    p.ClientID,
		Name:        p.Name,
		ProjectType: p.ProjectType,
		Status:      p.Status,
		Deadline:    formatOptionalDate(p.Deadline),
	}
}

// GetProject возвращает проект по идентификатору.
func (h *Handler) GetProject(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
		return
	}

	p, err := h.service.GetProject(r.Context(), id)
	if err != nil {
		h.writeError(w, "get project", err)
		return
	}

	writeJSON(w, http.StatusOK, newProjectResponse(p))
}

type credentialRequest struct {
	ProjectID      uuid.UUID `json:"project_id"`
	CredentialType string    `json:"credential_type"`
	Name           string    `json:"name"`
	Provider       string    `json:"provider"`
	URL            string    `json:"url"`
	Username       string    `json:"username"`
	ExpiryDate     string    `json:"expiry_date"`
}

type credentialResponse struct {
	ID             uuid.UUID              `json:"id"`
	ProjectID      uuid.UUID              `json:"project_id"`
	ProjectName    string                 `json:"project_name,omitempty"`
	CredentialType string                 `json:"credential_type"`
	Name           string                 `json:"name"`
	Provider       string                 `json:"provider"`
	URL            string                 `json:"url"`
	Username       string                 `json:"username"`
	ExpiryDate     string                 `json:"expiry_date,omitempty"`
	Expiry         *expiry.Classification `json:"expiry,omitempty"`
}

func newCredentialResponse(c model.Credential, cls *expiry.Classification) credentialResponse {
	return credentialResponse{
		ID:             c.ID,
		ProjectID:      c.ProjectID,
		ProjectName:    c.ProjectName,
		CredentialType: c.CredentialType,
		Name:           c.Name,
		Provider:       c.Provider,
		URL:            c.URL,
		Username:       c.Username,
		ExpiryDate:     formatOptionalDate(c.ExpiryDate),
		Expiry:         cls,
	}
}

// CreateCredential сохраняет учётные данные проекта.
func (h *Handler) CreateCredential(w http.ResponseWriter, r *http.Request) {
	var req credentialRequest
	if err := decode(r, &req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	expiryDate, err := parseOptionalDate(req.ExpiryDate)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	c := &model.Credential{
		ProjectID:      req.ProjectID,
		CredentialType: req.CredentialType,
		Name:           req.Name,
		Provider:       req.Provider,
		URL:            req.URL,
		Username:       req.Username,
		ExpiryDate:     expiryDate,
		IsActive:       true,
	}
	if err := h.service.CreateCredential(r.Context(), c); err != nil {
		h.writeError(w, "create credential", err)
		return
	}

	writeJSON(w, http.StatusCreated, newCredentialResponse(*c, nil))
}

// GetCredential возвращает учётные данные с классификацией срока.
func (h *Handler) GetCredential(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
		return
	}

	v, err := h.service.GetCredential(r.Context(), id)
	if err != nil {
		h.writeError(w, "get credential", err)
		return
	}

	writeJSON(w, http.StatusOK, newCredentialResponse(*v.Credential, v.Expiry))
}

type expiryReportResponse struct {
	Expired   []credentialResponse `json:"expired"`
	ThisWeek  []credentialResponse `json:"this_week"`
	ThisMonth []credentialResponse `json:"this_month"`
}

func toCredentialResponses(items []service.ExpiringCredential) []credentialResponse {
	out := make([]credentialResponse, 0, len(items))
	for _, it := range items {
		cls := it.Expiry
		out = append(out, newCredentialResponse(it.Credential, &cls))
	}
	return out
}

// GetExpiringCredentials возвращает отчёт об истёкших и истекающих учётных данных.
func (h *Handler) GetExpiringCredentials(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.CredentialExpiryReport(r.Context())
	if err != nil {
		h.writeError(w, "credential expiry report", err)
		return
	}

	writeJSON(w, http.StatusOK, expiryReportResponse{
		Expired:   toCredentialResponses(report.Expired),
		ThisWeek:  toCredentialResponses(report.ThisWeek),
		ThisMonth: toCredentialResponses(report.ThisMonth),
	})
}
