package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/michal94mk/taskflow/internal/model"
)

// ListStatuses returns all task statuses in display order
func (db *DB) ListStatuses(ctx context.Context) ([]model.TaskStatus, error) {
	var statuses []model.TaskStatus
	if err := db.conn(ctx).Order("sort_order, name").Find(&statuses).Error; err != nil {
		return nil, fmt.Errorf("failed to list statuses: %w", err)
	}
	return statuses, nil
}

// ListPriorities returns all task priorities in display order
func (db *DB) ListPriorities(ctx context.Context) ([]model.TaskPriority, error) {
	var priorities []model.TaskPriority
	if err := db.conn(ctx).Order("sort_order, name").Find(&priorities).Error; err != nil {
		return nil, fmt.Errorf("failed to list priorities: %w", err)
	}
	return priorities, nil
}

// GetStatus returns a status by ID, or nil if it does not exist
func (db *DB) GetStatus(ctx context.Context, id string) (*model.TaskStatus, error) {
	var s model.TaskStatus
	err := db.conn(ctx).Where("id = ?", id).First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get status: %w", err)
	}
	return &s, nil
}

// GetPriority returns a priority by ID, or nil if it does not exist
func (db *DB) GetPriority(ctx context.Context, id string) (*model.TaskPriority, error) {
	var p model.TaskPriority
	err := db.conn(ctx).Where("id = ?", id).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get priority: %w", err)
	}
	return &p, nil
}

// StatusIDBySlug returns the id of the status with slug, or "" when absent
func (db *DB) StatusIDBySlug(ctx context.Context, slug string) (string, error) {
	var ids []string
	err := db.conn(ctx).Model(&model.TaskStatus{}).
		Where("slug = ?", slug).
		Limit(1).
		Pluck("id", &ids).Error
	if err != nil {
		return "", fmt.Errorf("failed to look up status %q: %w", slug, err)
	}
	if len(ids) == 0 {
		return "", nil
	}
	return ids[0], nil
}

// PriorityIDBySlug returns the id of the priority with slug, or "" when absent
func (db *DB) PriorityIDBySlug(ctx context.Context, slug string) (string, error) {
	var ids []string
	err := db.conn(ctx).Model(&model.TaskPriority{}).
		Where("slug = ?", slug).
		Limit(1).
		Pluck("id", &ids).Error
	if err != nil {
		return "", fmt.Errorf("failed to look up priority %q: %w", slug, err)
	}
	if len(ids) == 0 {
		return "", nil
	}
	return ids[0], nil
}

// CreateStatus inserts a status
func (db *DB) CreateStatus(ctx context.Context, s *model.TaskStatus) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	if err := db.conn(ctx).Create(s).Error; err != nil {
		return fmt.Errorf("failed to create status: %w", err)
	}
	return nil
}

// UpdateStatus writes every editable column of s
func (db *DB) UpdateStatus(ctx context.Context, s *model.TaskStatus) error {
	res := db.conn(ctx).Model(s).
		Select("slug", "name", "color", "sort_order").
		Updates(s)
	if res.Error != nil {
		return fmt.Errorf("failed to update status: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("failed to update status %s: %w", s.ID, gorm.ErrRecordNotFound)
	}
	return nil
}

// DeleteStatus removes a status. Fails while tasks still reference it.
func (db *DB) DeleteStatus(ctx context.Context, id string) error {
	if err := db.conn(ctx).Delete(&model.TaskStatus{}, "id = ?", id).Error; err != nil {
		return fmt.Errorf("failed to delete status: %w", err)
	}
	return nil
}

// CreatePriority inserts a priority
func (db *DB) CreatePriority(ctx context.Context, p *model.TaskPriority) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if err := db.conn(ctx).Create(p).Error; err != nil {
		return fmt.Errorf("failed to create priority: %w", err)
	}
	return nil
}

// UpdatePriority writes every editable column of p
func (db *DB) UpdatePriority(ctx context.Context, p *model.TaskPriority) error {
	res := db.conn(ctx).Model(p).
		Select("slug", "name", "color", "sort_order").
		Updates(p)
	if res.Error != nil {
		return fmt.Errorf("failed to update priority: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("failed to update priority %s: %w", p.ID, gorm.ErrRecordNotFound)
	}
	return nil
}

// DeletePriority removes a priority. Fails while tasks still reference it.
func (db *DB) DeletePriority(ctx context.Context, id string) error {
	if err := db.conn(ctx).Delete(&model.TaskPriority{}, "id = ?", id).Error; err != nil {
		return fmt.Errorf("failed to delete priority: %w", err)
	}
	return nil
}

// EnsureReferenceData seeds the default statuses and priorities into
// empty tables. Tables that already have rows are left alone.
func (db *DB) EnsureReferenceData(ctx context.Context) error {
	return db.Transaction(ctx, func(tx *DB) error {
		var n int64
		if err := tx.conn(ctx).Model(&model.TaskStatus{}).Count(&n).Error; err != nil {
			return fmt.Errorf("failed to count statuses: %w", err)
		}
		if n == 0 {
			for _, s := range model.DefaultStatuses() {
				s := s
				if err := tx.CreateStatus(ctx, &s); err != nil {
					return err
				}
			}
		}

		if err := tx.conn(ctx).Model(&model.TaskPriority{}).Count(&n).Error; err != nil {
			return fmt.Errorf("failed to count priorities: %w", err)
		}
		if n == 0 {
			for _, p := range model.DefaultPriorities() {
				p := p
				if err := tx.CreatePriority(ctx, &p); err != nil {
					return err
				}
			}
		}
		return nil
	})
}
