package search

import (
	"context"

	"github.com/ilkoid/saigon-traffic/pkg/places"
	"github.com/ilkoid/saigon-traffic/pkg/utils"
)

// Параметры автодополнения.
const (
	suggestMinLength       = 2 // Для более коротких запросов пустой список без ошибки
	suggestLocalLimit      = 6 // Сколько локальных подсказок брать
	suggestRemoteThreshold = 4 // Геокодер вызывается, если локальных меньше
	suggestRemoteMinLength = 4 // ...и запрос не короче
	suggestRemoteLimit     = 4 // Сколько удалённых подсказок брать
)

// Suggest возвращает подсказки для частично введённого запроса.
//
// Запрос короче двух символов даёт пустой список, а не ошибку.
// Удалённые подсказки добавляются только для длинных запросов с малым
// числом локальных совпадений и только если рядом нет локальной.
// Итоговый список упорядочен по баллу и обрезан до SuggestLimit.
func (s *Service) Suggest(ctx context.Context, partial string) (*SuggestResponse, error) {
	resp := &SuggestResponse{Query: partial, Suggestions: []Result{}}

	if queryLength(partial) < suggestMinLength {
		return resp, nil
	}
	normalized := places.Normalize(partial)
	if normalized == "" {
		return resp, nil
	}

	// 1. Локальные подсказки
	candidates := places.Rank(places.Match(s.gazetteer, normalized), suggestLocalLimit)

	// 2. Удалённые подсказки для длинных запросов с малым числом совпадений
	if len(candidates) < suggestRemoteThreshold && queryLength(partial) >= suggestRemoteMinLength && s.HasGeocoder() {
		remote, err := s.geocoder.Lookup(ctx, partial, suggestRemoteLimit)
		if err != nil {
			resp.Degraded = true
		}
		for _, r := range remote {
			if nearAny(r, candidates) {
				continue
			}
			candidates = append(candidates, r)
		}
	}

	// 3. Общий порядок по баллу
	resp.Suggestions = toResults(places.Rank(candidates, s.opts.SuggestLimit))

	utils.Debug("Suggest done", "query", normalized, "suggestions", len(resp.Suggestions), "degraded", resp.Degraded)
	return resp, nil
}
