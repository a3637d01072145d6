package places

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// letterFolds: буквы, которые не раскладываются через NFD и требуют явной замены.
var letterFolds = strings.NewReplacer(
	"đ", "d",
	"Đ", "d",
)

// Normalize приводит строку к виду для сравнения без учёта регистра и диакритики.
//
// Шаги:
//  1. Приведение к нижнему регистру
//  2. NFD-разложение, удаление комбинируемых знаков (тоны, крышки, рожки), NFC-сборка
//  3. Замена "đ" на "d"
//  4. Схлопывание пробелов по краям и внутри строки
//
// Функция идемпотентна: Normalize(Normalize(s)) == Normalize(s).
func Normalize(s string) string {
	if s == "" {
		return ""
	}

	// Transformer не потокобезопасен, поэтому создаём цепочку на каждый вызов.
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	lowered := strings.ToLower(s)
	stripped, _, err := transform.String(t, lowered)
	if err != nil {
		stripped = lowered
	}

	return strings.Join(strings.Fields(letterFolds.Replace(stripped)), " ")
}
