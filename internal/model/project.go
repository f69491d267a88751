package model

import (
	"encoding/json"
	"math"
	"time"

	"gorm.io/gorm"
)

// ProjectStatus is the lifecycle state of a project
type ProjectStatus string

const (
	ProjectActive    ProjectStatus = "active"
	ProjectOnHold    ProjectStatus = "on_hold"
	ProjectCompleted ProjectStatus = "completed"
	ProjectCancelled ProjectStatus = "cancelled"
)

// Valid reports whether s is one of the known project statuses
func (s ProjectStatus) Valid() bool {
	switch s {
	case ProjectActive, ProjectOnHold, ProjectCompleted, ProjectCancelled:
		return true
	}
	return false
}

// Project represents a group of tasks owned by one user
type Project struct {
	ID          string        `gorm:"primaryKey" json:"id"`
	UserID      string        `json:"user_id"`
	Name        string        `json:"name"`
	Description *string       `json:"description,omitempty"`
	Status      ProjectStatus `json:"status"`
	StartDate   *time.Time    `json:"start_date,omitempty"`
	EndDate     *time.Time    `json:"end_date,omitempty"`

	// CompletedTasksCount caches the number of tasks in the completed
	// status. It is maintained by the progress package.
	CompletedTasksCount int `json:"completed_tasks_count"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-"`

	// Computed fields (not stored)
	TasksCount int `gorm:"->" json:"tasks_count"`

	Tasks []Task `json:"tasks,omitempty"`
}

// Progress returns the completion percentage rounded to the nearest integer
func (p *Project) Progress() int {
	if p.TasksCount == 0 {
		return 0
	}
	return int(math.Round(p.ProgressRatio() * 100))
}

// ProgressRatio returns completion as a value between 0 and 1
func (p *Project) ProgressRatio() float64 {
	if p.TasksCount == 0 {
		return 0
	}
	return float64(p.CompletedTasksCount) / float64(p.TasksCount)
}

// MarshalJSON adds the derived progress percentage
func (p Project) MarshalJSON() ([]byte, error) {
	type project Project
	return json.Marshal(struct {
		project
		Progress int `json:"progress"`
	}{project(p), p.Progress()})
}
