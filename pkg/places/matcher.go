package places

import (
	"strings"
	"unicode/utf8"
)

// Баллы правил сопоставления.
const (
	ScoreExact    = 100
	ScorePrefix   = 80
	ScoreAllWords = 60
	ScorePartial  = 40
	ScoreSimilar  = 20
)

// matchRule: одно правило сопоставления нормализованного запроса с кандидатом.
type matchRule struct {
	score     int
	matchType MatchType
	matches   func(query string, tokens []string, candidate string) bool
}

// matchRules перебираются по порядку, побеждает первое сработавшее правило.
var matchRules = []matchRule{
	{
		score:     ScoreExact,
		matchType: MatchExact,
		matches: func(query string, _ []string, candidate string) bool {
			return candidate == query
		},
	},
	{
		score:     ScorePrefix,
		matchType: MatchPrefix,
		matches: func(query string, _ []string, candidate string) bool {
			return strings.HasPrefix(candidate, query)
		},
	},
	{
		score:     ScoreAllWords,
		matchType: MatchAllWords,
		matches: func(_ string, tokens []string, candidate string) bool {
			for _, token := range tokens {
				if !strings.Contains(candidate, token) {
					return false
				}
			}
			return true
		},
	},
	{
		score:     ScorePartial,
		matchType: MatchPartial,
		matches: func(_ string, tokens []string, candidate string) bool {
			for _, token := range tokens {
				if utf8.RuneCountInString(token) > 1 && strings.Contains(candidate, token) {
					return true
				}
			}
			return false
		},
	},
	{
		score:     ScoreSimilar,
		matchType: MatchSimilar,
		matches: func(query string, _ []string, candidate string) bool {
			return Similarity(candidate, query) > SimilarityThreshold
		},
	},
}

// Score сопоставляет нормализованный запрос с нормализованным кандидатом.
//
// Параметры:
//   - query: запрос после Normalize
//   - candidate: ключ или локализованное имя после Normalize
//
// Возвращает балл и тип совпадения. Пустой запрос или пустой кандидат
// дают (0, MatchNone).
func Score(query, candidate string) (int, MatchType) {
	if query == "" || candidate == "" {
		return 0, MatchNone
	}

	tokens := strings.Fields(query)
	for _, rule := range matchRules {
		if rule.matches(query, tokens, candidate) {
			return rule.score, rule.matchType
		}
	}
	return 0, MatchNone
}

// ScoreRecord сопоставляет запрос с ключом и локализованным именем записи
// и возвращает лучший из двух результатов. При равенстве баллов
// предпочитается совпадение по ключу.
func ScoreRecord(query string, rec *PlaceRecord) (int, MatchType) {
	score, matchType := Score(query, rec.NormalizedKey())
	if localized := rec.NormalizedLocalized(); localized != "" {
		if s, mt := Score(query, localized); s > score {
			score, matchType = s, mt
		}
	}
	return score, matchType
}

// Match прогоняет нормализованный запрос по всем записям справочника
// и возвращает кандидатов с ненулевым баллом в порядке справочника.
func Match(g *Gazetteer, query string) []Candidate {
	if g == nil || query == "" {
		return nil
	}

	var candidates []Candidate
	for i := range g.records {
		rec := &g.records[i]
		score, matchType := ScoreRecord(query, rec)
		if score <= 0 {
			continue
		}
		candidates = append(candidates, Candidate{
			Place:     *rec,
			Score:     score,
			MatchType: matchType,
			Source:    SourceLocal,
		})
	}
	return candidates
}
