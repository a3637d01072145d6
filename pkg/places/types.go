// Package places содержит локальный справочник мест Хошимина (gazetteer)
// и нечёткий поиск по нему: нормализация, скоринг, похожесть и ранжирование.
//
// Все функции пакета чистые и не держат изменяемого состояния,
// поэтому безопасны для конкурентного использования.
package places

// Category: категория места в справочнике.
type Category string

const (
	CategoryDistrict     Category = "district"
	CategoryStreet       Category = "street"
	CategoryLandmark     Category = "landmark"
	CategoryUniversity   Category = "university"
	CategoryPark         Category = "park"
	CategoryMarket       Category = "market"
	CategoryArea         Category = "area"
	CategoryTransport    Category = "transport"
	CategoryHospital     Category = "hospital"
	CategoryHighway      Category = "highway"
	CategoryBridge       Category = "bridge"
	CategoryIntersection Category = "intersection"
	CategoryCity         Category = "city"

	// CategoryPlace используется для внешних результатов без явного соответствия.
	CategoryPlace Category = "place"
)

var knownCategories = map[Category]bool{
	CategoryDistrict:     true,
	CategoryStreet:       true,
	CategoryLandmark:     true,
	CategoryUniversity:   true,
	CategoryPark:         true,
	CategoryMarket:       true,
	CategoryArea:         true,
	CategoryTransport:    true,
	CategoryHospital:     true,
	CategoryHighway:      true,
	CategoryBridge:       true,
	CategoryIntersection: true,
	CategoryCity:         true,
	CategoryPlace:        true,
}

// Valid сообщает, известна ли категория.
func (c Category) Valid() bool {
	return knownCategories[c]
}

// MatchType: правило, по которому кандидат совпал с запросом.
type MatchType string

const (
	MatchExact     MatchType = "exact"
	MatchPrefix    MatchType = "prefix"
	MatchAllWords  MatchType = "all-words"
	MatchPartial   MatchType = "partial"
	MatchSimilar   MatchType = "similar"
	MatchGeocoding MatchType = "geocoding"
	MatchNone      MatchType = ""
)

// Source: происхождение кандидата.
type Source string

const (
	SourceLocal  Source = "local"
	SourceRemote Source = "remote"
)

// PlaceRecord: запись справочника.
//
// Нормализованные формы ключа и локализованного имени считаются один раз
// при создании записи. После загрузки запись не изменяется.
type PlaceRecord struct {
	Key       string   `json:"key" yaml:"key"`
	Lat       float64  `json:"lat" yaml:"lat"`
	Lng       float64  `json:"lng" yaml:"lng"`
	Category  Category `json:"type" yaml:"category"`
	Name      string   `json:"fullName" yaml:"name"`
	Localized string   `json:"vietnameseName,omitempty" yaml:"localized,omitempty"`

	normKey       string
	normLocalized string
}

// NewPlaceRecord создаёт запись и вычисляет её нормализованные формы.
func NewPlaceRecord(key string, lat, lng float64, category Category, name, localized string) PlaceRecord {
	rec := PlaceRecord{
		Key:       key,
		Lat:       lat,
		Lng:       lng,
		Category:  category,
		Name:      name,
		Localized: localized,
	}
	rec.prepare()
	return rec
}

func (r *PlaceRecord) prepare() {
	r.normKey = Normalize(r.Key)
	r.normLocalized = Normalize(r.Localized)
}

// NormalizedKey возвращает нормализованный ключ записи.
func (r *PlaceRecord) NormalizedKey() string {
	if r.normKey == "" && r.Key != "" {
		return Normalize(r.Key)
	}
	return r.normKey
}

// NormalizedLocalized возвращает нормализованное локализованное имя (может быть пустым).
func (r *PlaceRecord) NormalizedLocalized() string {
	if r.normLocalized == "" && r.Localized != "" {
		return Normalize(r.Localized)
	}
	return r.normLocalized
}

// Address: адресные поля, которые есть только у внешних результатов.
type Address struct {
	FullAddress string `json:"fullAddress,omitempty"`
	PlaceID     string `json:"placeId,omitempty"`
	District    string `json:"district,omitempty"`
	Area        string `json:"area,omitempty"`
}

// Candidate: кандидат в результаты одного поиска.
//
// Живёт только в рамках одного запроса. Address заполнен только
// для кандидатов с Source == SourceRemote.
type Candidate struct {
	Place     PlaceRecord
	Score     int
	MatchType MatchType
	Source    Source
	Address   *Address
}

// IsRemote сообщает, получен ли кандидат от внешнего геокодера.
func (c Candidate) IsRemote() bool {
	return c.Source == SourceRemote
}
