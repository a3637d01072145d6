package reports

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ilkoid/saigon-traffic/pkg/config"
	"github.com/ilkoid/saigon-traffic/pkg/geocoding"
	"github.com/ilkoid/saigon-traffic/pkg/utils"
)

// Виды отчётов, используются как префикс ключа изображения.
const (
	KindHazards   = "hazards"
	KindIncidents = "incidents"
)

// Repository: постоянное хранилище отчётов.
//
// Методы Get*, Update* и Delete* возвращают ErrNotFound для неизвестного ID.
type Repository interface {
	CreateHazard(ctx context.Context, h *Hazard) error
	ListHazards(ctx context.Context) ([]Hazard, error)
	GetHazard(ctx context.Context, id int64) (*Hazard, error)
	UpdateHazard(ctx context.Context, h *Hazard) error
	DeleteHazard(ctx context.Context, id int64) error

	CreateIncident(ctx context.Context, i *Incident) error
	ListIncidents(ctx context.Context) ([]Incident, error)
	GetIncident(ctx context.Context, id int64) (*Incident, error)
	UpdateIncident(ctx context.Context, i *Incident) error
	DeleteIncident(ctx context.Context, id int64) error
}

// Service: сценарии работы с отчётами: проверка, сохранение, фото.
type Service struct {
	repo   Repository
	images ImageStore
	box    geocoding.BoundingBox
	image  config.ImageProcConfig
	now    func() time.Time
}

// NewService создаёт сервис отчётов.
//
// Параметры:
//   - repo: хранилище отчётов
//   - images: хранилище фото или nil (тогда фото отклоняются)
//   - box: границы города для проверки координат
//   - image: параметры ресайза фото
func NewService(repo Repository, images ImageStore, box geocoding.BoundingBox, image config.ImageProcConfig) *Service {
	return &Service{
		repo:   repo,
		images: images,
		box:    box,
		image:  image.GetDefaults(),
		now:    time.Now,
	}
}

// CreateHazard проверяет и сохраняет опасность, затем прикрепляет фото (если есть).
func (s *Service) CreateHazard(ctx context.Context, h Hazard, image []byte) (*Hazard, error) {
	// 1. Проверка полей
	h.Cause = strings.TrimSpace(h.Cause)
	h.Notes = strings.TrimSpace(h.Notes)
	if err := h.Validate(s.box); err != nil {
		return nil, err
	}
	if len(image) > 0 && s.images == nil {
		return nil, &ValidationError{Field: "image", Reason: "image uploads are disabled"}
	}

	// 2. Сохранение записи (получаем ID)
	h.ID = 0
	h.ImageURL, h.ImageKey = "", ""
	h.CreatedAt = s.now().UTC()
	if err := s.repo.CreateHazard(ctx, &h); err != nil {
		return nil, fmt.Errorf("failed to save hazard: %w", err)
	}

	// 3. Фото: ключ зависит от ID
	if len(image) > 0 {
		url, key, err := s.storeImage(ctx, KindHazards, h.ID, image)
		if err != nil {
			s.rollbackHazard(ctx, h.ID)
			return nil, err
		}
		h.ImageURL, h.ImageKey = url, key
		if err := s.repo.UpdateHazard(ctx, &h); err != nil {
			s.deleteImage(ctx, key)
			s.rollbackHazard(ctx, h.ID)
			return nil, fmt.Errorf("failed to attach image to hazard %d: %w", h.ID, err)
		}
	}

	utils.Info("Hazard created", "id", h.ID, "cause", h.Cause, "severity", h.Severity, "image", h.ImageKey != "")
	return &h, nil
}

// ListHazards возвращает все опасности, новые первыми.
func (s *Service) ListHazards(ctx context.Context) ([]Hazard, error) {
	return s.repo.ListHazards(ctx)
}

// GetHazard возвращает опасность по ID.
func (s *Service) GetHazard(ctx context.Context, id int64) (*Hazard, error) {
	return s.repo.GetHazard(ctx, id)
}

// UpdateHazard меняет серьёзность и/или заметки.
func (s *Service) UpdateHazard(ctx context.Context, id int64, upd HazardUpdate) (*Hazard, error) {
	h, err := s.repo.GetHazard(ctx, id)
	if err != nil {
		return nil, err
	}

	if upd.Severity != nil {
		if err := validateLevel("severity", *upd.Severity); err != nil {
			return nil, err
		}
		h.Severity = *upd.Severity
	}
	if upd.Notes != nil {
		notes := strings.TrimSpace(*upd.Notes)
		if notes == "" {
			return nil, &ValidationError{Field: "notes", Reason: "is required"}
		}
		h.Notes = notes
	}

	if err := s.repo.UpdateHazard(ctx, h); err != nil {
		return nil, err
	}
	utils.Info("Hazard updated", "id", id, "severity", h.Severity)
	return h, nil
}

// DeleteHazard удаляет опасность и её фото.
func (s *Service) DeleteHazard(ctx context.Context, id int64) (*Hazard, error) {
	h, err := s.repo.GetHazard(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.DeleteHazard(ctx, id); err != nil {
		return nil, err
	}
	s.deleteImage(ctx, h.ImageKey)
	utils.Info("Hazard deleted", "id", id)
	return h, nil
}

// CreateIncident проверяет и сохраняет происшествие, затем прикрепляет фото (если есть).
func (s *Service) CreateIncident(ctx context.Context, i Incident, image []byte) (*Incident, error) {
	// 1. Проверка полей
	i.Description = strings.TrimSpace(i.Description)
	i.Type = strings.TrimSpace(i.Type)
	if err := i.Validate(s.box); err != nil {
		return nil, err
	}
	if len(image) > 0 && s.images == nil {
		return nil, &ValidationError{Field: "image", Reason: "image uploads are disabled"}
	}

	// 2. Сохранение записи
	i.ID = 0
	i.ImageURL, i.ImageKey = "", ""
	i.CreatedAt = s.now().UTC()
	if err := s.repo.CreateIncident(ctx, &i); err != nil {
		return nil, fmt.Errorf("failed to save incident: %w", err)
	}

	// 3. Фото
	if len(image) > 0 {
		url, key, err := s.storeImage(ctx, KindIncidents, i.ID, image)
		if err != nil {
			s.rollbackIncident(ctx, i.ID)
			return nil, err
		}
		i.ImageURL, i.ImageKey = url, key
		if err := s.repo.UpdateIncident(ctx, &i); err != nil {
			s.deleteImage(ctx, key)
			s.rollbackIncident(ctx, i.ID)
			return nil, fmt.Errorf("failed to attach image to incident %d: %w", i.ID, err)
		}
	}

	utils.Info("Incident created", "id", i.ID, "type", i.Type, "impact", i.Impact, "image", i.ImageKey != "")
	return &i, nil
}

// ListIncidents возвращает все происшествия, новые первыми.
func (s *Service) ListIncidents(ctx context.Context) ([]Incident, error) {
	return s.repo.ListIncidents(ctx)
}

// GetIncident возвращает происшествие по ID.
func (s *Service) GetIncident(ctx context.Context, id int64) (*Incident, error) {
	return s.repo.GetIncident(ctx, id)
}

// VerifyIncident отмечает происшествие как подтверждённое.
func (s *Service) VerifyIncident(ctx context.Context, id int64) (*Incident, error) {
	i, err := s.repo.GetIncident(ctx, id)
	if err != nil {
		return nil, err
	}
	if i.Verified {
		return i, nil
	}
	i.Verified = true
	if err := s.repo.UpdateIncident(ctx, i); err != nil {
		return nil, err
	}
	utils.Info("Incident verified", "id", id)
	return i, nil
}

// DeleteIncident удаляет происшествие и его фото.
func (s *Service) DeleteIncident(ctx context.Context, id int64) (*Incident, error) {
	i, err := s.repo.GetIncident(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.DeleteIncident(ctx, id); err != nil {
		return nil, err
	}
	s.deleteImage(ctx, i.ImageKey)
	utils.Info("Incident deleted", "id", id)
	return i, nil
}

// LoadImage читает сохранённое фото по ключу.
func (s *Service) LoadImage(ctx context.Context, key string) ([]byte, error) {
	if s.images == nil {
		return nil, ErrImageNotFound
	}
	return s.images.Load(ctx, key)
}

// storeImage ресайзит фото и сохраняет его. Возвращает URL и ключ.
func (s *Service) storeImage(ctx context.Context, kind string, id int64, data []byte) (string, string, error) {
	resized, err := utils.ResizeImage(data, s.image.MaxWidth, s.image.Quality)
	if err != nil {
		return "", "", &ValidationError{Field: "image", Reason: err.Error()}
	}

	key := NewImageKey(kind, id)
	url, err := s.images.Save(ctx, key, resized)
	if err != nil {
		return "", "", fmt.Errorf("failed to store image: %w", err)
	}
	utils.Debug("Report image stored", "key", key, "original_bytes", len(data), "stored_bytes", len(resized))
	return url, key, nil
}

func (s *Service) deleteImage(ctx context.Context, key string) {
	if key == "" || s.images == nil {
		return
	}
	if err := s.images.Delete(ctx, key); err != nil {
		utils.Warn("Failed to delete report image", "key", key, "error", err)
	}
}

func (s *Service) rollbackHazard(ctx context.Context, id int64) {
	if err := s.repo.DeleteHazard(ctx, id); err != nil {
		utils.Warn("Failed to roll back hazard", "id", id, "error", err)
	}
}

func (s *Service) rollbackIncident(ctx context.Context, id int64) {
	if err := s.repo.DeleteIncident(ctx, id); err != nil {
		utils.Warn("Failed to roll back incident", "id", id, "error", err)
	}
}
