// Package search реализует клиентскую часть глобального поиска: HTTP-клиент эндпоинта
// поиска и координатор, отправляющий запросы по мере ввода.
package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ralfiz/bizdesk/internal/model"
)

// DefaultTimeout ограничивает время ожидания ответа эндпоинта поиска.
const DefaultTimeout = 5 * time.Second

// ErrUnexpectedStatus возвращается при ответе эндпоинта с кодом не из диапазона 2xx.
var ErrUnexpectedStatus = errors.New("unexpected search status")

// Client инкапсулирует HTTP-взаимодействие с эндпоинтом поиска.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Response описывает тело ответа эндпоинта поиска.
type Response struct {
	Results []model.SearchResult `json:"results"`
}

// NewClient создаёт HTTP-клиент эндпоинта поиска по указанному адресу.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}
}

// Search выполняет GET /search/?q=<query> и возвращает результаты в порядке ответа.
func (c *Client) Search(ctx context.Context, query string) ([]model.SearchResult, error) {
	if c == nil || c.baseURL == "" {
		return nil, fmt.Errorf("search client not configured")
	}

	base := c.baseURL
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "http://" + base
	}

	u := fmt.Sprintf("%s/search/?q=%s", base, url.QueryEscape(query))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	var result Response
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if result.Results == nil {
		return nil, fmt.Errorf("decode response: missing results")
	}

	return result.Results, nil
}
