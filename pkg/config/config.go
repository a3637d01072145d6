package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// AppConfig: корневая структура конфигурации.
// Она зеркалит структуру config.yaml.
type AppConfig struct {
	App             AppSpecific     `yaml:"app"`
	Server          ServerConfig    `yaml:"server"`
	Search          SearchConfig    `yaml:"search"`
	Gazetteer       GazetteerConfig `yaml:"gazetteer"`
	Geocoding       GeocodingConfig `yaml:"geocoding"`
	Storage         StorageConfig   `yaml:"storage"`
	S3              S3Config        `yaml:"s3"`
	ImageProcessing ImageProcConfig `yaml:"image_processing"`
}

// AppSpecific: общие настройки приложения.
type AppSpecific struct {
	Debug     bool   `yaml:"debug"`
	LogPrefix string `yaml:"log_prefix"` // Префикс имени лог-файла
}

// ServerConfig: настройки HTTP API.
type ServerConfig struct {
	Addr         string `yaml:"addr"`
	ReadTimeout  string `yaml:"read_timeout"`
	WriteTimeout string `yaml:"write_timeout"`
	MaxUploadMB  int    `yaml:"max_upload_mb"`
}

// GetDefaults возвращает дефолтные значения для незаполненных полей.
func (c *ServerConfig) GetDefaults() ServerConfig {
	result := *c

	if result.Addr == "" {
		result.Addr = ":3000"
	}
	if result.ReadTimeout == "" {
		result.ReadTimeout = "15s"
	}
	if result.WriteTimeout == "" {
		result.WriteTimeout = "30s"
	}
	if result.MaxUploadMB == 0 {
		result.MaxUploadMB = 10
	}

	return result
}

// Режимы обращения к внешнему геокодеру.
const (
	ModeLocalFirst     = "local-first"
	ModeRemotePriority = "remote-priority"
	ModeLocalOnly      = "local-only"
)

// SearchConfig: настройки поиска мест.
type SearchConfig struct {
	Mode              string `yaml:"mode"`               // local-first | remote-priority | local-only
	DefaultLimit      int    `yaml:"default_limit"`      // Лимит результатов поиска
	SuggestLimit      int    `yaml:"suggest_limit"`      // Лимит подсказок
	FallbackThreshold int    `yaml:"fallback_threshold"` // local-first: геокодер вызывается, если локальных результатов меньше
	CacheTTL          string `yaml:"cache_ttl"`          // "0s" отключает кэш
}

// GetDefaults возвращает дефолтные значения для незаполненных полей.
func (c *SearchConfig) GetDefaults() SearchConfig {
	result := *c

	if result.Mode == "" {
		result.Mode = ModeLocalFirst
	}
	if result.DefaultLimit == 0 {
		result.DefaultLimit = 10
	}
	if result.SuggestLimit == 0 {
		result.SuggestLimit = 8
	}
	if result.FallbackThreshold == 0 {
		result.FallbackThreshold = 3
	}
	if result.CacheTTL == "" {
		result.CacheTTL = "30s"
	}

	return result
}

// GazetteerConfig: источник справочника мест.
type GazetteerConfig struct {
	Path string `yaml:"path"` // Пусто = встроенный справочник
}

// Провайдеры геокодирования.
const (
	ProviderGoogle    = "google"
	ProviderNominatim = "nominatim"
	ProviderNone      = "none"
)

// GeocodingConfig: настройки внешнего геокодера.
type GeocodingConfig struct {
	Provider      string          `yaml:"provider"`       // google | nominatim | none
	Timeout       string          `yaml:"timeout"`        // Timeout одного вызова провайдера
	RetryAttempts int             `yaml:"retry_attempts"` // Количество попыток HTTP запроса
	MinInterval   string          `yaml:"min_interval"`   // Минимальная пауза между запросами
	Bounds        BoundsConfig    `yaml:"bounds"`
	Google        GoogleConfig    `yaml:"google"`
	Nominatim     NominatimConfig `yaml:"nominatim"`
}

// BoundsConfig: прямоугольник, которым ограничены внешние результаты.
type BoundsConfig struct {
	South float64 `yaml:"south"`
	West  float64 `yaml:"west"`
	North float64 `yaml:"north"`
	East  float64 `yaml:"east"`
}

// IsZero сообщает, что прямоугольник не задан.
func (b BoundsConfig) IsZero() bool {
	return b == BoundsConfig{}
}

// GoogleConfig: настройки Google Geocoding API.
type GoogleConfig struct {
	APIKey   string `yaml:"api_key"` // Поддерживает ${VAR}
	BaseURL  string `yaml:"base_url"`
	Region   string `yaml:"region"`
	Language string `yaml:"language"`
}

// NominatimConfig: настройки OpenStreetMap Nominatim.
type NominatimConfig struct {
	BaseURL   string `yaml:"base_url"`
	UserAgent string `yaml:"user_agent"` // Nominatim требует идентифицирующий User-Agent
	Email     string `yaml:"email"`
	Language  string `yaml:"language"`
}

// GetDefaults возвращает дефолтные значения для незаполненных полей.
func (c *GeocodingConfig) GetDefaults() GeocodingConfig {
	result := *c

	if result.Provider == "" {
		result.Provider = ProviderNone
	}
	if result.Timeout == "" {
		result.Timeout = "10s"
	}
	if result.RetryAttempts == 0 {
		result.RetryAttempts = 2
	}
	if result.MinInterval == "" {
		result.MinInterval = "1s"
	}
	if result.Bounds.IsZero() {
		// Хошимин: юго-запад (10.3, 106.3), северо-восток (11.2, 107.1)
		result.Bounds = BoundsConfig{South: 10.3, West: 106.3, North: 11.2, East: 107.1}
	}
	if result.Google.BaseURL == "" {
		result.Google.BaseURL = "https://maps.googleapis.com/maps/api/geocode/json"
	}
	if result.Google.Region == "" {
		result.Google.Region = "vn"
	}
	if result.Google.Language == "" {
		result.Google.Language = "vi"
	}
	if result.Nominatim.BaseURL == "" {
		result.Nominatim.BaseURL = "https://nominatim.openstreetmap.org"
	}
	if result.Nominatim.UserAgent == "" {
		result.Nominatim.UserAgent = "saigon-traffic/1.0"
	}
	if result.Nominatim.Language == "" {
		result.Nominatim.Language = "vi,en"
	}

	return result
}

// Хранилища фото к отчётам.
const (
	ImageBackendLocal = "local"
	ImageBackendS3    = "s3"
	ImageBackendNone  = "none"
)

// StorageConfig: локальное хранилище отчётов и изображений.
type StorageConfig struct {
	DBPath       string `yaml:"db_path"`
	UploadsDir   string `yaml:"uploads_dir"`
	ImageBackend string `yaml:"image_backend"` // local | s3 | none
}

// GetDefaults возвращает дефолтные значения для незаполненных полей.
func (c *StorageConfig) GetDefaults() StorageConfig {
	result := *c

	if result.DBPath == "" {
		result.DBPath = "data/traffic.db"
	}
	if result.UploadsDir == "" {
		result.UploadsDir = "data/uploads"
	}
	if result.ImageBackend == "" {
		result.ImageBackend = ImageBackendLocal
	}

	return result
}

// S3Config: настройки объектного хранилища.
type S3Config struct {
	Endpoint  string `yaml:"endpoint"`
	Region    string `yaml:"region"`
	Bucket    string `yaml:"bucket"`
	AccessKey string `yaml:"access_key"` // Поддерживает ${VAR}
	SecretKey string `yaml:"secret_key"` // Поддерживает ${VAR}
	UseSSL    bool   `yaml:"use_ssl"`
	PublicURL string `yaml:"public_url"` // Базовый URL для ссылок на объекты
}

// ImageProcConfig: настройки обработки изображений.
type ImageProcConfig struct {
	MaxWidth int `yaml:"max_width"`
	Quality  int `yaml:"quality"`
}

// GetDefaults возвращает дефолтные значения для незаполненных полей.
func (c *ImageProcConfig) GetDefaults() ImageProcConfig {
	result := *c

	if result.MaxWidth == 0 {
		result.MaxWidth = 1280
	}
	if result.Quality == 0 {
		result.Quality = 85
	}

	return result
}

// Load читает YAML файл, подставляет ENV переменные и возвращает готовую структуру.
func Load(path string) (*AppConfig, error) {
	// 1. Проверяем существование файла
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found at: %s", path)
	}

	// 2. Читаем файл целиком
	rawBytes, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return Parse(rawBytes)
}

// Parse разбирает YAML конфигурацию из памяти.
//
// Подставляет переменные окружения, применяет дефолты и валидирует результат.
func Parse(rawBytes []byte) (*AppConfig, error) {
	// os.ExpandEnv заменяет ${VAR} или $VAR на значение из системы.
	contentWithEnv := os.ExpandEnv(string(rawBytes))

	var cfg AppConfig
	if err := yaml.Unmarshal([]byte(contentWithEnv), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse yaml: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// Default возвращает конфигурацию только из дефолтов.
func Default() *AppConfig {
	var cfg AppConfig
	cfg.applyDefaults()
	return &cfg
}

func (c *AppConfig) applyDefaults() {
	if c.App.LogPrefix == "" {
		c.App.LogPrefix = "traffic"
	}
	c.Server = c.Server.GetDefaults()
	c.Search = c.Search.GetDefaults()
	c.Geocoding = c.Geocoding.GetDefaults()
	c.Storage = c.Storage.GetDefaults()
	c.ImageProcessing = c.ImageProcessing.GetDefaults()
}

// validate проверяет согласованность настроек.
func (c *AppConfig) validate() error {
	switch c.Search.Mode {
	case ModeLocalFirst, ModeRemotePriority, ModeLocalOnly:
	default:
		return fmt.Errorf("search.mode must be one of %s, %s, %s, got %q",
			ModeLocalFirst, ModeRemotePriority, ModeLocalOnly, c.Search.Mode)
	}
	if c.Search.DefaultLimit < 0 || c.Search.SuggestLimit < 0 {
		return fmt.Errorf("search limits must not be negative")
	}
	if _, err := time.ParseDuration(c.Search.CacheTTL); err != nil {
		return fmt.Errorf("invalid search.cache_ttl format: %w", err)
	}

	switch c.Geocoding.Provider {
	case ProviderNone, ProviderNominatim:
	case ProviderGoogle:
		if c.Geocoding.Google.APIKey == "" {
			return fmt.Errorf("geocoding.google.api_key is required for provider %q", ProviderGoogle)
		}
	default:
		return fmt.Errorf("unknown geocoding.provider %q", c.Geocoding.Provider)
	}
	for name, value := range map[string]string{
		"geocoding.timeout":      c.Geocoding.Timeout,
		"geocoding.min_interval": c.Geocoding.MinInterval,
		"server.read_timeout":    c.Server.ReadTimeout,
		"server.write_timeout":   c.Server.WriteTimeout,
	} {
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("invalid %s format: %w", name, err)
		}
	}
	b := c.Geocoding.Bounds
	if b.South >= b.North || b.West >= b.East {
		return fmt.Errorf("geocoding.bounds must have south < north and west < east")
	}

	switch c.Storage.ImageBackend {
	case ImageBackendLocal, ImageBackendNone:
	case ImageBackendS3:
		if c.S3.Bucket == "" {
			return fmt.Errorf("s3.bucket is required")
		}
		if c.S3.Endpoint == "" {
			return fmt.Errorf("s3.endpoint is required")
		}
	default:
		return fmt.Errorf("unknown storage.image_backend %q", c.Storage.ImageBackend)
	}

	return nil
}

// Duration парсит строку длительности из конфига, подставляя fallback при ошибке.
//
// Формат уже проверен в validate, fallback нужен для конфигов,
// собранных в коде без Load.
func Duration(value string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}
