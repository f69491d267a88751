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

const projectColumnsWithTaskCount = `projects.*, (SELECT COUNT(*) FROM tasks
	WHERE tasks.project_id = projects.id AND tasks.deleted_at IS NULL) AS tasks_count`

// withTaskCount selects the project columns plus the live task count
func withTaskCount(d *gorm.DB) *gorm.DB {
	return d.Select(projectColumnsWithTaskCount)
}

// ProjectListResult is one page of projects plus the total row count
type ProjectListResult struct {
	Projects []model.Project
	Total    int64
}

// ListProjects returns a page of the user's projects, newest first, each
// carrying its task count
func (db *DB) ListProjects(ctx context.Context, userID string, page, perPage int) (*ProjectListResult, error) {
	var total int64
	if err := db.conn(ctx).Model(&model.Project{}).Scopes(ForUser(userID)).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count projects: %w", err)
	}

	var projects []model.Project
	err := db.conn(ctx).Model(&model.Project{}).
		Scopes(withTaskCount, ForUser(userID), Latest, Paginate(page, perPage)).
		Find(&projects).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}

	return &ProjectListResult{Projects: projects, Total: total}, nil
}

// RecentProjects returns the user's newest projects with their task counts
func (db *DB) RecentProjects(ctx context.Context, userID string, limit int) ([]model.Project, error) {
	var projects []model.Project
	err := db.conn(ctx).Model(&model.Project{}).
		Scopes(withTaskCount, ForUser(userID), Latest).
		Limit(limit).
		Find(&projects).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list recent projects: %w", err)
	}
	return projects, nil
}

// FindProjects returns projects matching every scope. A positive limit
// caps the result.
func (db *DB) FindProjects(ctx context.Context, limit int, scopes ...Scope) ([]model.Project, error) {
	q := db.conn(ctx).Model(&model.Project{}).Scopes(scopes...)
	if limit > 0 {
		q = q.Limit(limit)
	}

	var projects []model.Project
	if err := q.Find(&projects).Error; err != nil {
		return nil, fmt.Errorf("failed to find projects: %w", err)
	}
	return projects, nil
}

// ProjectNames returns id and name of every project the user owns, by name
func (db *DB) ProjectNames(ctx context.Context, userID string) ([]model.Project, error) {
	var projects []model.Project
	err := db.conn(ctx).Model(&model.Project{}).
		Select("id", "name").
		Scopes(ForUser(userID)).
		Order("name").
		Find(&projects).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list project names: %w", err)
	}
	return projects, nil
}

// GetProject returns a single project with its task count, or nil if it
// does not exist
func (db *DB) GetProject(ctx context.Context, id string) (*model.Project, error) {
	var p model.Project
	err := db.conn(ctx).Model(&model.Project{}).
		Scopes(withTaskCount).
		Where("projects.id = ?", id).
		First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	return &p, nil
}

// CreateProject inserts a project
func (db *DB) CreateProject(ctx context.Context, p *model.Project) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.Status == "" {
		p.Status = model.ProjectActive
	}
	if err := db.conn(ctx).Omit(clause.Associations).Create(p).Error; err != nil {
		return fmt.Errorf("failed to create project: %w", err)
	}
	return nil
}

// UpdateProject writes the editable columns of p
func (db *DB) UpdateProject(ctx context.Context, p *model.Project) error {
	err := db.conn(ctx).Model(p).
		Select("name", "description", "status", "start_date", "end_date", "updated_at").
		Updates(p).Error
	if err != nil {
		return fmt.Errorf("failed to update project: %w", err)
	}
	return nil
}

// DeleteProject soft-deletes a project together with its tasks
func (db *DB) DeleteProject(ctx context.Context, id string) error {
	return db.Transaction(ctx, func(tx *DB) error {
		if err := tx.conn(ctx).Where("project_id = ?", id).Delete(&model.Task{}).Error; err != nil {
			return fmt.Errorf("failed to delete project tasks: %w", err)
		}
		if err := tx.conn(ctx).Delete(&model.Project{}, "id = ?", id).Error; err != nil {
			return fmt.Errorf("failed to delete project: %w", err)
		}
		return nil
	})
}

// CountCompletedTasks counts the live tasks of a project in statusID
func (db *DB) CountCompletedTasks(ctx context.Context, projectID, statusID string) (int64, error) {
	var n int64
	err := db.conn(ctx).Model(&model.Task{}).
		Where("project_id = ? AND task_status_id = ?", projectID, statusID).
		Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count completed tasks: %w", err)
	}
	return n, nil
}

// SetCompletedTasksCount stores the denormalized counter without touching
// updated_at. Returns false when the project does not exist.
func (db *DB) SetCompletedTasksCount(ctx context.Context, projectID string, n int64) (bool, error) {
	res := db.conn(ctx).Model(&model.Project{}).
		Where("id = ?", projectID).
		UpdateColumn("completed_tasks_count", n)
	if res.Error != nil {
		return false, fmt.Errorf("failed to update completed tasks count: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}
