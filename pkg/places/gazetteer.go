package places

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed data/hcmc.yaml
var defaultGazetteer []byte

// ErrEmptyGazetteer возвращается, если источник не содержит ни одной записи.
var ErrEmptyGazetteer = errors.New("gazetteer has no places")

// Gazetteer: неизменяемый справочник мест.
//
// Создаётся один раз через Load, LoadDefault или Parse и далее
// используется только на чтение, в том числе из нескольких горутин.
type Gazetteer struct {
	records     []PlaceRecord
	byKey       map[string]int
	byLocalized map[string]int
}

// gazetteerFile: формат YAML файла справочника.
type gazetteerFile struct {
	Places []PlaceRecord `yaml:"places"`
}

// LoadDefault загружает встроенный справочник Хошимина.
func LoadDefault() (*Gazetteer, error) {
	return Parse(defaultGazetteer)
}

// Load читает справочник из YAML файла.
//
// Пустой путь означает встроенный справочник.
func Load(path string) (*Gazetteer, error) {
	if path == "" {
		return LoadDefault()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read gazetteer %s: %w", path, err)
	}

	g, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("gazetteer %s: %w", path, err)
	}
	return g, nil
}

// Parse разбирает YAML справочника и строит индексы.
//
// Повторное определение ключа (с точностью до нормализации) заменяет
// предыдущую запись, сохраняя её позицию в справочнике.
func Parse(data []byte) (*Gazetteer, error) {
	var file gazetteerFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse gazetteer yaml: %w", err)
	}

	g := &Gazetteer{
		byKey:       make(map[string]int, len(file.Places)),
		byLocalized: make(map[string]int, len(file.Places)),
	}

	for i, rec := range file.Places {
		if err := validateRecord(rec); err != nil {
			return nil, fmt.Errorf("place #%d: %w", i+1, err)
		}
		rec.prepare()

		if idx, ok := g.byKey[rec.normKey]; ok {
			g.records[idx] = rec
			continue
		}
		g.byKey[rec.normKey] = len(g.records)
		g.records = append(g.records, rec)
	}

	if len(g.records) == 0 {
		return nil, ErrEmptyGazetteer
	}

	// Индекс по локализованному имени: первая запись с таким именем побеждает.
	for i := range g.records {
		if localized := g.records[i].normLocalized; localized != "" {
			if _, exists := g.byLocalized[localized]; !exists {
				g.byLocalized[localized] = i
			}
		}
	}

	return g, nil
}

func validateRecord(rec PlaceRecord) error {
	if Normalize(rec.Key) == "" {
		return fmt.Errorf("key is required")
	}
	if !rec.Category.Valid() {
		return fmt.Errorf("key %q: unknown category %q", rec.Key, rec.Category)
	}
	if rec.Lat < -90 || rec.Lat > 90 || rec.Lng < -180 || rec.Lng > 180 {
		return fmt.Errorf("key %q: coordinates out of range (%f, %f)", rec.Key, rec.Lat, rec.Lng)
	}
	if rec.Name == "" {
		return fmt.Errorf("key %q: name is required", rec.Key)
	}
	return nil
}

// Len возвращает количество записей.
func (g *Gazetteer) Len() int {
	return len(g.records)
}

// Records возвращает копию всех записей в порядке справочника.
func (g *Gazetteer) Records() []PlaceRecord {
	out := make([]PlaceRecord, len(g.records))
	copy(out, g.records)
	return out
}

// Lookup ищет запись по ключу или локализованному имени.
// Сравнение идёт после Normalize, поэтому регистр и диакритика не важны.
func (g *Gazetteer) Lookup(name string) (PlaceRecord, bool) {
	normalized := Normalize(name)
	if normalized == "" {
		return PlaceRecord{}, false
	}
	if idx, ok := g.byKey[normalized]; ok {
		return g.records[idx], true
	}
	if idx, ok := g.byLocalized[normalized]; ok {
		return g.records[idx], true
	}
	return PlaceRecord{}, false
}
