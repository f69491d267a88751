package model

import (
	"time"

	"gorm.io/gorm"
)

// User owns projects and tasks exclusively
type User struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	APIToken  string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Comment is a note left on a task by its author
type Comment struct {
	ID        string         `gorm:"primaryKey" json:"id"`
	TaskID    string         `json:"task_id"`
	UserID    string         `json:"user_id"`
	Content   string         `json:"content"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-"`

	User *User `json:"user,omitempty"`
}
