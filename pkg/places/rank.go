package places

import (
	"sort"
	"unicode/utf8"
)

// Лимиты по умолчанию.
const (
	DefaultSearchLimit  = 10
	DefaultSuggestLimit = 8
)

// Rank отбрасывает кандидатов с нулевым баллом, сортирует оставшихся
// по убыванию балла, а при равных баллах по возрастанию длины
// нормализованного ключа, и обрезает список до limit.
//
// Сортировка стабильная: при полном равенстве сохраняется исходный порядок.
// limit <= 0 означает "без ограничения". Входной срез не изменяется.
func Rank(candidates []Candidate, limit int) []Candidate {
	ranked := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.Score > 0 {
			ranked = append(ranked, c)
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return less(ranked[i], ranked[j])
	})

	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

func less(a, b Candidate) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	return keyLength(a) < keyLength(b)
}

func keyLength(c Candidate) int {
	return utf8.RuneCountInString(c.Place.NormalizedKey())
}
