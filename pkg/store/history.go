package store

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// HistoryItem: один запрос из истории поиска.
type HistoryItem struct {
	Query        string    `json:"query"`
	Frequency    int       `json:"frequency"`
	ResultCount  int       `json:"resultCount"`
	LastSearched time.Time `json:"lastSearched"`
}

// RecordSearch увеличивает частоту запроса и обновляет время последнего поиска.
// Новый запрос вставляется.
func (s *Store) RecordSearch(ctx context.Context, query string, resultCount int) error {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO search_history (query, frequency, result_count, last_searched)
		VALUES (?, 1, ?, ?)
		ON CONFLICT(query) DO UPDATE SET
			frequency = frequency + 1,
			result_count = excluded.result_count,
			last_searched = excluded.last_searched
	`, query, resultCount, s.now().UTC())
	if err != nil {
		return fmt.Errorf("failed to record search: %w", err)
	}
	return nil
}

// RecentSearches возвращает последние limit запросов, свежие первыми.
func (s *Store) RecentSearches(ctx context.Context, limit int) ([]HistoryItem, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT query, frequency, result_count, last_searched
		FROM search_history
		ORDER BY last_searched DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent searches: %w", err)
	}
	defer rows.Close()

	items := []HistoryItem{}
	for rows.Next() {
		var item HistoryItem
		if err := rows.Scan(&item.Query, &item.Frequency, &item.ResultCount, &item.LastSearched); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
