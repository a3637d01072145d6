// Package app собирает компоненты приложения (справочник, геокодер, поиск,
// отчёты, хранилище) для переиспользования в разных точках входа: HTTP API,
// CLI и TUI.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ilkoid/saigon-traffic/pkg/config"
	"github.com/ilkoid/saigon-traffic/pkg/geocoding"
	"github.com/ilkoid/saigon-traffic/pkg/places"
	"github.com/ilkoid/saigon-traffic/pkg/reports"
	"github.com/ilkoid/saigon-traffic/pkg/s3storage"
	"github.com/ilkoid/saigon-traffic/pkg/search"
	"github.com/ilkoid/saigon-traffic/pkg/store"
	"github.com/ilkoid/saigon-traffic/pkg/utils"
)

// UploadsURLPrefix: путь, под которым API отдаёт фото отчётов.
const UploadsURLPrefix = "/uploads"

// bucketCheckTimeout ограничивает проверку бакета при старте.
const bucketCheckTimeout = 10 * time.Second

// Components содержит все компоненты приложения для переиспользования.
type Components struct {
	Config    *config.AppConfig
	Gazetteer *places.Gazetteer
	Geocoder  *geocoding.Adapter // nil при provider: none
	Search    *search.Service
	Reports   *reports.Service
	Store     *store.Store
}

// ConfigPathFinder определяет стратегию поиска пути к config.yaml.
//
// По умолчанию используется DefaultConfigPathFinder, но можно
// реализовать свою стратегию для тестов или специальных случаев.
type ConfigPathFinder interface {
	FindConfigPath() string
}

// DefaultConfigPathFinder реализует стандартную стратегию поиска config.yaml.
//
// Порядок поиска:
// 1. Флаг --config (если указан)
// 2. Переменная окружения TRAFFIC_CONFIG
// 3. Текущая директория (./config.yaml)
// 4. Директория бинарника
// 5. Родительские директории (для запуска из cmd/<name>/)
type DefaultConfigPathFinder struct {
	// ConfigFlag - значение флага --config, если указан
	ConfigFlag string
}

// FindConfigPath находит путь к config.yaml. Возвращает "", если файла нет.
func (f *DefaultConfigPathFinder) FindConfigPath() string {
	// 1. Флаг имеет приоритет
	if f.ConfigFlag != "" {
		return resolveAbsPath(f.ConfigFlag)
	}

	// 2. Переменная окружения
	if env := os.Getenv("TRAFFIC_CONFIG"); env != "" {
		return resolveAbsPath(env)
	}

	candidates := []string{"config.yaml"}

	// 3. Директория бинарника
	if execPath, err := os.Executable(); err == nil {
		candidates = append(candidates, filepath.Join(filepath.Dir(execPath), "config.yaml"))
	}

	// 4. Родительские директории
	candidates = append(candidates,
		filepath.Join("..", "config.yaml"),
		filepath.Join("..", "..", "config.yaml"),
	)

	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return resolveAbsPath(p)
		}
	}
	return ""
}

// InitializeConfig загружает конфигурацию.
//
// Если файл не найден и путь не задан явно, возвращает config.Default():
// сервис запускается без конфига с локальным поиском.
func InitializeConfig(finder ConfigPathFinder) (*config.AppConfig, string, error) {
	cfgPath := finder.FindConfigPath()
	if cfgPath == "" {
		return config.Default(), "", nil
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load config from %s: %w", cfgPath, err)
	}

	return cfg, cfgPath, nil
}

// Initialize создаёт и инициализирует все компоненты приложения.
//
// При ошибке закрывает уже открытые ресурсы.
func Initialize(ctx context.Context, cfg *config.AppConfig) (*Components, error) {
	utils.Info("Initializing components",
		"search_mode", cfg.Search.Mode,
		"geocoder", cfg.Geocoding.Provider,
		"image_backend", cfg.Storage.ImageBackend)

	// 1. Справочник мест
	gaz, err := places.Load(cfg.Gazetteer.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to load gazetteer: %w", err)
	}
	utils.Info("Gazetteer loaded", "places", gaz.Len(), "path", cfg.Gazetteer.Path)

	// 2. Геокодер (может отсутствовать)
	adapter, err := geocoding.NewAdapterFromConfig(cfg.Geocoding, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create geocoder: %w", err)
	}
	var geocoder search.Geocoder
	if adapter != nil {
		geocoder = adapter
		utils.Info("Geocoder initialized", "provider", adapter.ProviderName())
	}

	// 3. Хранилище
	st, err := store.Open(cfg.Storage.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	utils.Info("Store opened", "path", cfg.Storage.DBPath)

	// 4. Хранилище фото
	images, err := newImageStore(ctx, cfg)
	if err != nil {
		st.Close()
		return nil, err
	}

	// 5. Сервисы
	searchSvc, err := search.New(gaz, geocoder, st, search.OptionsFromConfig(cfg.Search))
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("failed to create search service: %w", err)
	}
	bounds := geocoding.BoundsFromConfig(cfg.Geocoding.Bounds)
	reportsSvc := reports.NewService(st, images, bounds, cfg.ImageProcessing)

	return &Components{
		Config:    cfg,
		Gazetteer: gaz,
		Geocoder:  adapter,
		Search:    searchSvc,
		Reports:   reportsSvc,
		Store:     st,
	}, nil
}

// newImageStore выбирает хранилище фото по storage.image_backend.
func newImageStore(ctx context.Context, cfg *config.AppConfig) (reports.ImageStore, error) {
	switch cfg.Storage.ImageBackend {
	case config.ImageBackendS3:
		client, err := s3storage.New(cfg.S3)
		if err != nil {
			return nil, fmt.Errorf("failed to create S3 client: %w", err)
		}
		checkCtx, cancel := context.WithTimeout(ctx, bucketCheckTimeout)
		defer cancel()
		if err := client.EnsureBucket(checkCtx); err != nil {
			return nil, err
		}
		utils.Info("S3 image store initialized", "bucket", cfg.S3.Bucket)
		return reports.NewS3ImageStore(client, UploadsURLPrefix), nil
	case config.ImageBackendNone:
		return nil, nil
	default:
		utils.Info("Local image store initialized", "dir", cfg.Storage.UploadsDir)
		return reports.NewLocalImageStore(cfg.Storage.UploadsDir, UploadsURLPrefix), nil
	}
}

// Close освобождает ресурсы компонентов.
func (c *Components) Close() error {
	if c == nil || c.Store == nil {
		return nil
	}
	return c.Store.Close()
}

// IsNotFound сообщает, что ошибка означает отсутствие сущности.
func IsNotFound(err error) bool {
	return errors.Is(err, search.ErrNotFound) ||
		errors.Is(err, reports.ErrNotFound) ||
		errors.Is(err, reports.ErrImageNotFound)
}

// resolveAbsPath преобразует путь в абсолютный (если это не уже абсолютный путь).
func resolveAbsPath(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return p
	}
	return abs
}
