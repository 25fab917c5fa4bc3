package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/ralfiz/bizdesk/internal/model"
)

const (
	// SearchMinLength — минимальная длина запроса, при которой выполняется поиск.
	SearchMinLength = 2
	// SearchPerType — максимум результатов одного типа.
	SearchPerType = 5
)

// Search выполняет глобальный поиск. Результаты берутся из кэша, если он подключён и
// содержит ответ на тот же нормализованный запрос.
func (s *Service) Search(ctx context.Context, query string) ([]model.SearchResult, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	if utf8.RuneCountInString(q) < SearchMinLength {
		return []model.SearchResult{}, nil
	}

	var cached []model.SearchResult
	hit, err := s.cache.GetJSON(ctx, q, &cached)
	if err != nil {
		s.logger.Warn("search cache read failed", zap.Error(err))
	}
	if hit {
		s.metrics.SearchRequests.WithLabelValues("cache").Inc()
		return cached, nil
	}

	results, err := s.repo.Search(ctx, q, SearchPerType)
	if err != nil {
		return nil, err
	}
	s.metrics.SearchRequests.WithLabelValues("db").Inc()

	if err := s.cache.SetJSON(ctx, q, results); err != nil {
		s.logger.Warn("search cache write failed", zap.Error(err))
	}

	return results, nil
}

// invalidateSearch сбрасывает кэш поиска после изменения данных.
func (s *Service) invalidateSearch(ctx context.Context) {
	if err := s.cache.Flush(ctx); err != nil {
		s.logger.Warn("search cache flush failed", zap.Error(err))
	}
}
