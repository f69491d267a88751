package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/michal94mk/taskflow/internal/model"
)

// GetComment returns a comment with its author, or nil if it does not exist
func (db *DB) GetComment(ctx context.Context, id string) (*model.Comment, error) {
	var c model.Comment
	err := db.conn(ctx).Preload("User").Where("comments.id = ?", id).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get comment: %w", err)
	}
	return &c, nil
}

// CreateComment inserts a comment
func (db *DB) CreateComment(ctx context.Context, c *model.Comment) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if err := db.conn(ctx).Omit(clause.Associations).Create(c).Error; err != nil {
		return fmt.Errorf("failed to create comment: %w", err)
	}
	return nil
}

// UpdateCommentContent replaces the content of a comment
func (db *DB) UpdateCommentContent(ctx context.Context, id, content string) error {
	err := db.conn(ctx).Model(&model.Comment{}).
		Where("id = ?", id).
		Update("content", content).Error
	if err != nil {
		return fmt.Errorf("failed to update comment: %w", err)
	}
	return nil
}

// DeleteComment soft-deletes a comment
func (db *DB) DeleteComment(ctx context.Context, id string) error {
	if err := db.conn(ctx).Delete(&model.Comment{}, "id = ?", id).Error; err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}
	return nil
}
