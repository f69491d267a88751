package db

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/michal94mk/taskflow/internal/model"
)

// NewAPIToken returns a random 64-character hex token built from two
// random UUIDs
func NewAPIToken() (string, error) {
	a, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	b, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return strings.ReplaceAll(a.String()+b.String(), "-", ""), nil
}

// CreateUser inserts a user, assigning an id and an API token when missing
func (db *DB) CreateUser(ctx context.Context, u *model.User) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	if u.APIToken == "" {
		token, err := NewAPIToken()
		if err != nil {
			return err
		}
		u.APIToken = token
	}
	if err := db.conn(ctx).Create(u).Error; err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetUser returns a user by ID, or nil if it does not exist
func (db *DB) GetUser(ctx context.Context, id string) (*model.User, error) {
	return db.findUser(ctx, "id = ?", id)
}

// GetUserByEmail returns a user by email, or nil if it does not exist
func (db *DB) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return db.findUser(ctx, "email = ?", email)
}

// GetUserByToken returns the user owning token, or nil if none does
func (db *DB) GetUserByToken(ctx context.Context, token string) (*model.User, error) {
	if token == "" {
		return nil, nil
	}
	return db.findUser(ctx, "api_token = ?", token)
}

func (db *DB) findUser(ctx context.Context, query string, arg interface{}) (*model.User, error) {
	var u model.User
	err := db.conn(ctx).Where(query, arg).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}

// ListUsers returns every user ordered by name
func (db *DB) ListUsers(ctx context.Context) ([]model.User, error) {
	var users []model.User
	if err := db.conn(ctx).Order("name").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}
