package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ilkoid/saigon-traffic/pkg/reports"
)

const hazardColumns = `id, lat, lng, cause, severity, notes, reported_at, image_url, image_key, created_at`

const incidentColumns = `id, lat, lng, description, type, impact, reported_at, verified, image_url, image_key, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanHazard(row rowScanner) (*reports.Hazard, error) {
	var h reports.Hazard
	err := row.Scan(&h.ID, &h.Lat, &h.Lng, &h.Cause, &h.Severity, &h.Notes,
		&h.Timestamp, &h.ImageURL, &h.ImageKey, &h.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &h, nil
}

func scanIncident(row rowScanner) (*reports.Incident, error) {
	var i reports.Incident
	err := row.Scan(&i.ID, &i.Lat, &i.Lng, &i.Description, &i.Type, &i.Impact,
		&i.Timestamp, &i.Verified, &i.ImageURL, &i.ImageKey, &i.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &i, nil
}

// CreateHazard вставляет опасность и заполняет h.ID.
func (s *Store) CreateHazard(ctx context.Context, h *reports.Hazard) error {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO hazards (lat, lng, cause, severity, notes, reported_at, image_url, image_key, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		h.Lat, h.Lng, h.Cause, h.Severity, h.Notes, h.Timestamp.UTC(), h.ImageURL, h.ImageKey, h.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to insert hazard: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get hazard id: %w", err)
	}
	h.ID = id
	return nil
}

// ListHazards возвращает опасности, новые первыми.
func (s *Store) ListHazards(ctx context.Context) ([]reports.Hazard, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+hazardColumns+` FROM hazards ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list hazards: %w", err)
	}
	defer rows.Close()

	items := []reports.Hazard{}
	for rows.Next() {
		h, err := scanHazard(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan hazard: %w", err)
		}
		items = append(items, *h)
	}
	return items, rows.Err()
}

// GetHazard возвращает опасность по ID или reports.ErrNotFound.
func (s *Store) GetHazard(ctx context.Context, id int64) (*reports.Hazard, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+hazardColumns+` FROM hazards WHERE id = ?`, id)
	h, err := scanHazard(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: hazard %d", reports.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get hazard %d: %w", id, err)
	}
	return h, nil
}

// UpdateHazard перезаписывает изменяемые поля опасности.
func (s *Store) UpdateHazard(ctx context.Context, h *reports.Hazard) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE hazards SET severity = ?, notes = ?, image_url = ?, image_key = ? WHERE id = ?`,
		h.Severity, h.Notes, h.ImageURL, h.ImageKey, h.ID)
	if err != nil {
		return fmt.Errorf("failed to update hazard %d: %w", h.ID, err)
	}
	return expectAffected(res, "hazard", h.ID)
}

// DeleteHazard удаляет опасность.
func (s *Store) DeleteHazard(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM hazards WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete hazard %d: %w", id, err)
	}
	return expectAffected(res, "hazard", id)
}

// CreateIncident вставляет происшествие и заполняет i.ID.
func (s *Store) CreateIncident(ctx context.Context, i *reports.Incident) error {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO incidents (lat, lng, description, type, impact, reported_at, verified, image_url, image_key, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		i.Lat, i.Lng, i.Description, i.Type, i.Impact, i.Timestamp.UTC(), i.Verified, i.ImageURL, i.ImageKey, i.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to insert incident: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get incident id: %w", err)
	}
	i.ID = id
	return nil
}

// ListIncidents возвращает происшествия, новые первыми.
func (s *Store) ListIncidents(ctx context.Context) ([]reports.Incident, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+incidentColumns+` FROM incidents ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list incidents: %w", err)
	}
	defer rows.Close()

	items := []reports.Incident{}
	for rows.Next() {
		i, err := scanIncident(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan incident: %w", err)
		}
		items = append(items, *i)
	}
	return items, rows.Err()
}

// GetIncident возвращает происшествие по ID или reports.ErrNotFound.
func (s *Store) GetIncident(ctx context.Context, id int64) (*reports.Incident, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+incidentColumns+` FROM incidents WHERE id = ?`, id)
	i, err := scanIncident(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: incident %d", reports.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get incident %d: %w", id, err)
	}
	return i, nil
}

// UpdateIncident перезаписывает изменяемые поля происшествия.
func (s *Store) UpdateIncident(ctx context.Context, i *reports.Incident) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE incidents SET verified = ?, image_url = ?, image_key = ? WHERE id = ?`,
		i.Verified, i.ImageURL, i.ImageKey, i.ID)
	if err != nil {
		return fmt.Errorf("failed to update incident %d: %w", i.ID, err)
	}
	return expectAffected(res, "incident", i.ID)
}

// DeleteIncident удаляет происшествие.
func (s *Store) DeleteIncident(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM incidents WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete incident %d: %w", id, err)
	}
	return expectAffected(res, "incident", id)
}

func expectAffected(res sql.Result, kind string, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check %s %d: %w", kind, id, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s %d", reports.ErrNotFound, kind, id)
	}
	return nil
}
