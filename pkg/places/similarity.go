package places

import (
	"unicode/utf8"

	"github.com/hbollon/go-edlib"
)

// SimilarityThreshold: порог, выше которого срабатывает правило "similar".
const SimilarityThreshold = 0.6

// Similarity возвращает нормированную похожесть двух строк в диапазоне [0, 1].
//
// Формула: (max(len(a), len(b)) - lev(a, b)) / max(len(a), len(b)),
// где длины считаются в рунах, а lev: расстояние Левенштейна
// с единичной стоимостью вставки, удаления и замены.
// Две пустые строки считаются полностью похожими.
func Similarity(a, b string) float64 {
	longest := utf8.RuneCountInString(a)
	if n := utf8.RuneCountInString(b); n > longest {
		longest = n
	}
	if longest == 0 {
		return 1.0
	}

	distance := edlib.LevenshteinDistance(a, b)
	return float64(longest-distance) / float64(longest)
}
