package reports

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/ilkoid/saigon-traffic/pkg/s3storage"
)

// ImageContentType: все сохранённые фото перекодируются в JPEG.
const ImageContentType = "image/jpeg"

// ErrImageNotFound: изображения с таким ключом нет.
var ErrImageNotFound = errors.New("image not found")

// ImageStore сохраняет фотографии к отчётам.
type ImageStore interface {
	// Save сохраняет изображение и возвращает URL для клиента.
	Save(ctx context.Context, key string, data []byte) (string, error)
	// Load читает изображение по ключу.
	Load(ctx context.Context, key string) ([]byte, error)
	// Delete удаляет изображение. Отсутствие ключа не ошибка.
	Delete(ctx context.Context, key string) error
}

// NewImageKey строит ключ вида "hazards/<id>-<uuid>.jpg".
func NewImageKey(kind string, id int64) string {
	return fmt.Sprintf("%s/%d-%s.jpg", kind, id, uuid.NewString())
}

// ValidKey проверяет, что ключ не выходит за пределы хранилища.
func ValidKey(key string) bool {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return false
	}
	for _, part := range strings.Split(key, "/") {
		if part == "" || part == "." || part == ".." {
			return false
		}
	}
	return true
}

// LocalImageStore хранит изображения на диске.
type LocalImageStore struct {
	dir       string
	urlPrefix string
}

// NewLocalImageStore создаёт хранилище в каталоге dir.
//
// Параметры:
//   - dir: корневой каталог (создаётся при первой записи)
//   - urlPrefix: префикс URL, под которым сервер отдаёт файлы ("/uploads")
func NewLocalImageStore(dir, urlPrefix string) *LocalImageStore {
	return &LocalImageStore{dir: dir, urlPrefix: strings.TrimSuffix(urlPrefix, "/")}
}

var _ ImageStore = (*LocalImageStore)(nil)

func (s *LocalImageStore) Save(_ context.Context, key string, data []byte) (string, error) {
	if !ValidKey(key) {
		return "", fmt.Errorf("invalid image key %q", key)
	}
	path := filepath.Join(s.dir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("failed to create image directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write image %s: %w", key, err)
	}
	return s.urlPrefix + "/" + key, nil
}

func (s *LocalImageStore) Load(_ context.Context, key string) ([]byte, error) {
	if !ValidKey(key) {
		return nil, ErrImageNotFound
	}
	data, err := os.ReadFile(filepath.Join(s.dir, filepath.FromSlash(key)))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrImageNotFound
	}
	return data, err
}

func (s *LocalImageStore) Delete(_ context.Context, key string) error {
	if !ValidKey(key) {
		return nil
	}
	err := os.Remove(filepath.Join(s.dir, filepath.FromSlash(key)))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// S3ImageStore хранит изображения в S3/MinIO.
//
// Если у клиента нет публичного URL, ссылки ведут на urlPrefix и
// сервер отдаёт объекты через Load.
type S3ImageStore struct {
	client    s3storage.ClientInterface
	urlPrefix string
}

// NewS3ImageStore оборачивает S3 клиента.
func NewS3ImageStore(client s3storage.ClientInterface, urlPrefix string) *S3ImageStore {
	return &S3ImageStore{client: client, urlPrefix: strings.TrimSuffix(urlPrefix, "/")}
}

var _ ImageStore = (*S3ImageStore)(nil)

func (s *S3ImageStore) Save(ctx context.Context, key string, data []byte) (string, error) {
	if !ValidKey(key) {
		return "", fmt.Errorf("invalid image key %q", key)
	}
	if err := s.client.Upload(ctx, key, data, ImageContentType); err != nil {
		return "", err
	}
	if url := s.client.ObjectURL(key); url != "" {
		return url, nil
	}
	return s.urlPrefix + "/" + key, nil
}

func (s *S3ImageStore) Load(ctx context.Context, key string) ([]byte, error) {
	if !ValidKey(key) {
		return nil, ErrImageNotFound
	}
	data, err := s.client.DownloadFile(ctx, key)
	if errors.Is(err, s3storage.ErrObjectNotFound) {
		return nil, ErrImageNotFound
	}
	return data, err
}

func (s *S3ImageStore) Delete(ctx context.Context, key string) error {
	if !ValidKey(key) {
		return nil
	}
	return s.client.Delete(ctx, key)
}
