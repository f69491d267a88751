package model

import (
	"time"

	"gorm.io/gorm"
)

// Task represents a unit of work inside a project
type Task struct {
	ID             string         `gorm:"primaryKey" json:"id"`
	UserID         string         `json:"user_id"`
	ProjectID      string         `json:"project_id"`
	TaskStatusID   string         `json:"task_status_id"`
	TaskPriorityID string         `json:"task_priority_id"`
	Title          string         `json:"title"`
	Description    *string        `json:"description,omitempty"`
	DueDate        *time.Time     `json:"due_date,omitempty"`
	AssignedTo     *string        `json:"assigned_to,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `json:"-"`

	// Loaded relationships
	Project      *Project      `json:"project,omitempty"`
	TaskStatus   *TaskStatus   `json:"task_status,omitempty"`
	TaskPriority *TaskPriority `json:"task_priority,omitempty"`
	Comments     []Comment     `json:"comments,omitempty"`
}

// IsOverdue returns true if the task is past its due date and not completed
func (t *Task) IsOverdue() bool {
	return t.IsOverdueAt(time.Now())
}

// IsOverdueAt evaluates IsOverdue against the given instant.
// The status must be loaded; a task without a loaded status is treated as
// not completed.
func (t *Task) IsOverdueAt(now time.Time) bool {
	if t.DueDate == nil || !t.DueDate.Before(now) {
		return false
	}
	return t.StatusSlug() != StatusCompleted
}

// StatusSlug returns the slug of the loaded status, or "" if not loaded
func (t *Task) StatusSlug() string {
	if t.TaskStatus == nil {
		return ""
	}
	return t.TaskStatus.Slug
}

// PriorityColor returns the display color of the loaded priority
func (t *Task) PriorityColor() string {
	if t.TaskPriority == nil || t.TaskPriority.Color == "" {
		return "gray"
	}
	return t.TaskPriority.Color
}
