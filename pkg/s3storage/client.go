// Клиент объектного хранилища для фотографий к отчётам.

package s3storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/ilkoid/saigon-traffic/pkg/config"
)

// ErrObjectNotFound: объекта с таким ключом нет в бакете.
var ErrObjectNotFound = errors.New("object not found")

// ClientInterface определяет интерфейс для S3 клиента.
// Используется для мокания в тестах и внедрения зависимостей.
type ClientInterface interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) error
	DownloadFile(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	ObjectURL(key string) string
}

type Client struct {
	api       *minio.Client
	bucket    string
	region    string
	publicURL string
}

// Проверка что Client реализует ClientInterface
var _ ClientInterface = (*Client)(nil)

// New создает клиент, используя наш конфиг
func New(cfg config.S3Config) (*Client, error) {
	if cfg.Endpoint == "" || cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 endpoint and bucket are required")
	}

	minioClient, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, err
	}

	return &Client{
		api:       minioClient,
		bucket:    cfg.Bucket,
		region:    cfg.Region,
		publicURL: strings.TrimSuffix(cfg.PublicURL, "/"),
	}, nil
}

// EnsureBucket создаёт бакет, если его ещё нет.
func (c *Client) EnsureBucket(ctx context.Context) error {
	exists, err := c.api.BucketExists(ctx, c.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket %s: %w", c.bucket, err)
	}
	if exists {
		return nil
	}
	if err := c.api.MakeBucket(ctx, c.bucket, minio.MakeBucketOptions{Region: c.region}); err != nil {
		return fmt.Errorf("failed to create bucket %s: %w", c.bucket, err)
	}
	return nil
}

// Upload загружает объект целиком из памяти.
func (c *Client) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := c.api.PutObject(ctx, c.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("failed to upload object %s: %w", key, err)
	}
	return nil
}

// DownloadFile скачивает объект целиком в память
func (c *Client) DownloadFile(ctx context.Context, key string) ([]byte, error) {
	obj, err := c.api.GetObject(ctx, c.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, wrapNotFound(key, err)
	}
	defer obj.Close()

	// Читаем в буфер
	buf := new(bytes.Buffer)
	if _, err := io.Copy(buf, obj); err != nil {
		return nil, wrapNotFound(key, err)
	}

	return buf.Bytes(), nil
}

// Delete удаляет объект. Отсутствующий объект не считается ошибкой.
func (c *Client) Delete(ctx context.Context, key string) error {
	if err := c.api.RemoveObject(ctx, c.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to delete object %s: %w", key, err)
	}
	return nil
}

// ObjectURL возвращает публичную ссылку на объект или "" если public_url не задан.
func (c *Client) ObjectURL(key string) string {
	if c.publicURL == "" {
		return ""
	}
	return c.publicURL + "/" + key
}

func wrapNotFound(key string, err error) error {
	if minio.ToErrorResponse(err).Code == "NoSuchKey" {
		return fmt.Errorf("%w: %s", ErrObjectNotFound, key)
	}
	return fmt.Errorf("failed to get object %s: %w", key, err)
}
