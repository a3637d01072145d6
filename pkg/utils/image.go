// Package utils предоставляет утилиты для обработки изображений.
package utils

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png" // Регистрируем PNG декодер

	"github.com/nfnt/resize"
)

// MaxImagePixels ограничивает размер исходного изображения до декодирования.
const MaxImagePixels = 40_000_000

// ErrImageTooLarge: исходное изображение больше MaxImagePixels.
var ErrImageTooLarge = errors.New("image is too large")

// ResizeImage ресайзит фотографию отчёта до указанной ширины, сохраняя пропорции.
//
// Параметры:
//   - data: байты исходного изображения (JPEG, PNG)
//   - maxWidth: целевая ширина в пикселях. Если 0 или меньше исходной ширины: ресайз не применяется.
//   - quality: качество JPEG при кодировании (1-100).
//
// Всегда возвращает JPEG: хранилища отчётов держат один формат.
func ResizeImage(data []byte, maxWidth int, quality int) ([]byte, error) {
	// 1. Проверяем размеры по заголовку
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	if cfg.Width*cfg.Height > MaxImagePixels {
		return nil, fmt.Errorf("%w: %dx%d", ErrImageTooLarge, cfg.Width, cfg.Height)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	// 2. Ресайз только если шире лимита
	if maxWidth > 0 && cfg.Width > maxWidth {
		newHeight := uint(float64(maxWidth) * float64(cfg.Height) / float64(cfg.Width))
		img = resize.Resize(uint(maxWidth), newHeight, img, resize.Lanczos3)
	}

	// 3. Кодируем в JPEG
	if quality < 1 || quality > 100 {
		quality = jpeg.DefaultQuality
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("encode to jpeg: %w", err)
	}
	return buf.Bytes(), nil
}
