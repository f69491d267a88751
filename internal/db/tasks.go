package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/michal94mk/taskflow/internal/model"
)

// TaskFilter narrows a task listing. Empty fields are ignored.
type TaskFilter struct {
	UserID     string
	ProjectID  string
	StatusID   string
	PriorityID string
	Search     string
	Page       int
	PerPage    int
}

// TaskListResult is one page of tasks plus the total row count
type TaskListResult struct {
	Tasks []model.Task
	Total int64
}

// GroupCount is the number of tasks sharing one status or priority
type GroupCount struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
	Order int    `gorm:"column:sort_order" json:"-"`
	Count int64  `json:"count"`
}

func withRelations(d *gorm.DB) *gorm.DB {
	return d.Preload("Project").Preload("TaskStatus").Preload("TaskPriority")
}

// scopes returns the predicates described by the filter
func (f TaskFilter) scopes() []Scope {
	scopes := []Scope{ForUser(f.UserID)}
	if f.ProjectID != "" {
		scopes = append(scopes, ByProject(f.ProjectID))
	}
	if f.StatusID != "" {
		scopes = append(scopes, ByStatus(f.StatusID))
	}
	if f.PriorityID != "" {
		scopes = append(scopes, ByPriority(f.PriorityID))
	}
	if f.Search != "" {
		scopes = append(scopes, Matching(f.Search, "tasks.title", "tasks.description"))
	}
	return scopes
}

// ListTasks returns a page of tasks matching the filter, newest first, with
// project, status and priority loaded
func (db *DB) ListTasks(ctx context.Context, f TaskFilter) (*TaskListResult, error) {
	total, err := db.CountTasks(ctx, f.scopes()...)
	if err != nil {
		return nil, err
	}

	scopes := append(f.scopes(), Latest, Paginate(f.Page, f.PerPage))
	tasks, err := db.FindTasks(ctx, 0, scopes...)
	if err != nil {
		return nil, err
	}

	return &TaskListResult{Tasks: tasks, Total: total}, nil
}

// FindTasks returns tasks matching every scope with project, status and
// priority loaded. A positive limit caps the result.
func (db *DB) FindTasks(ctx context.Context, limit int, scopes ...Scope) ([]model.Task, error) {
	q := db.conn(ctx).Model(&model.Task{}).Scopes(withRelations).Scopes(scopes...)
	if limit > 0 {
		q = q.Limit(limit)
	}

	var tasks []model.Task
	if err := q.Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("failed to find tasks: %w", err)
	}
	return tasks, nil
}

// CountTasks counts live tasks matching every scope
func (db *DB) CountTasks(ctx context.Context, scopes ...Scope) (int64, error) {
	var n int64
	if err := db.conn(ctx).Model(&model.Task{}).Scopes(scopes...).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count tasks: %w", err)
	}
	return n, nil
}

// CountTasksByDay counts tasks per calendar day of column ("created_at" or
// "updated_at") within [since, until). Keys are YYYY-MM-DD.
func (db *DB) CountTasksByDay(ctx context.Context, column string, since, until time.Time, scopes ...Scope) (map[string]int64, error) {
	if column != "created_at" && column != "updated_at" {
		return nil, fmt.Errorf("cannot group tasks by %q", column)
	}
	col := "tasks." + column

	var rows []struct {
		Day   string
		Count int64
	}
	err := db.conn(ctx).Model(&model.Task{}).
		Select("DATE("+col+") AS day, COUNT(*) AS count").
		Where(col+" >= ? AND "+col+" < ?", since.UTC(), until.UTC()).
		Scopes(scopes...).
		Group("day").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count tasks by day: %w", err)
	}

	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		// postgres hands DATE back as a timestamp string
		day := r.Day
		if len(day) > 10 {
			day = day[:10]
		}
		counts[day] += r.Count
	}
	return counts, nil
}

// CountTasksByStatus groups the user's tasks by status, in status order.
// Statuses without tasks are omitted.
func (db *DB) CountTasksByStatus(ctx context.Context, userID string) ([]GroupCount, error) {
	return db.countTasksGrouped(ctx, userID, "task_statuses", "task_status_id")
}

// CountTasksByPriority groups the user's tasks by priority, in priority
// order. Priorities without tasks are omitted.
func (db *DB) CountTasksByPriority(ctx context.Context, userID string) ([]GroupCount, error) {
	return db.countTasksGrouped(ctx, userID, "task_priorities", "task_priority_id")
}

func (db *DB) countTasksGrouped(ctx context.Context, userID, table, fk string) ([]GroupCount, error) {
	cols := fmt.Sprintf("%[1]s.id, %[1]s.name, %[1]s.color, %[1]s.sort_order", table)

	var rows []GroupCount
	err := db.conn(ctx).Model(&model.Task{}).
		Select(fmt.Sprintf("%[1]s.id AS id, %[1]s.name AS name, %[1]s.color AS color, %[1]s.sort_order AS sort_order, COUNT(*) AS count", table)).
		Joins(fmt.Sprintf("JOIN %[1]s ON %[1]s.id = tasks.%[2]s", table, fk)).
		Scopes(ForUser(userID)).
		Group(cols).
		Order(table + ".sort_order").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count tasks by %s: %w", table, err)
	}
	return rows, nil
}

// GetTask returns a single task with project, status and priority loaded,
// or nil if it does not exist
func (db *DB) GetTask(ctx context.Context, id string) (*model.Task, error) {
	var t model.Task
	err := db.conn(ctx).Scopes(withRelations).Where("tasks.id = ?", id).First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return &t, nil
}

// GetTaskWithComments is GetTask plus the comments, oldest first, with
// their authors
func (db *DB) GetTaskWithComments(ctx context.Context, id string) (*model.Task, error) {
	var t model.Task
	err := db.conn(ctx).
		Scopes(withRelations).
		Preload("Comments", func(d *gorm.DB) *gorm.DB {
			return d.Order("comments.created_at")
		}).
		Preload("Comments.User").
		Where("tasks.id = ?", id).
		First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return &t, nil
}

// CreateTask inserts a task. Loaded relationships are not written.
func (db *DB) CreateTask(ctx context.Context, t *model.Task) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	if !t.CreatedAt.IsZero() {
		t.CreatedAt = t.CreatedAt.UTC()
	}
	if !t.UpdatedAt.IsZero() {
		t.UpdatedAt = t.UpdatedAt.UTC()
	}
	if t.DueDate != nil {
		due := t.DueDate.UTC()
		t.DueDate = &due
	}
	if err := db.conn(ctx).Omit(clause.Associations).Create(t).Error; err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}
	return nil
}

// UpdateTask writes the editable columns of t
func (db *DB) UpdateTask(ctx context.Context, t *model.Task) error {
	if t.DueDate != nil {
		due := t.DueDate.UTC()
		t.DueDate = &due
	}
	err := db.conn(ctx).Model(t).
		Omit(clause.Associations).
		Select("title", "description", "project_id", "task_status_id",
			"task_priority_id", "due_date", "assigned_to", "updated_at").
		Updates(t).Error
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}
	return nil
}

// SetTaskStatus changes only the status of a task (and its updated_at)
func (db *DB) SetTaskStatus(ctx context.Context, id, statusID string) error {
	err := db.conn(ctx).Model(&model.Task{}).
		Where("id = ?", id).
		Update("task_status_id", statusID).Error
	if err != nil {
		return fmt.Errorf("failed to update task status: %w", err)
	}
	return nil
}

// DeleteTask soft-deletes a task
func (db *DB) DeleteTask(ctx context.Context, id string) error {
	if err := db.conn(ctx).Delete(&model.Task{}, "id = ?", id).Error; err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	return nil
}
