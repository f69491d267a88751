package tracker

import (
	"context"
	"strings"

	"github.com/michal94mk/taskflow/internal/apperr"
	"github.com/michal94mk/taskflow/internal/model"
)

// CreateUser registers a user and issues an API token
func (s *Service) CreateUser(ctx context.Context, name, email string) (*model.User, error) {
	ve := apperr.NewValidationError()
	requireText(ve, "name", &name, maxTitleLength, "The name is required.")

	email = strings.ToLower(strings.TrimSpace(email))
	if err := s.validate.Var(email, "required,email,max=255"); err != nil {
		ve.Add("email", "The email must be a valid email address.")
	} else {
		existing, err := s.db.GetUserByEmail(ctx, email)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			ve.Add("email", "The email has already been taken.")
		}
	}
	if err := ve.OrNil(); err != nil {
		return nil, err
	}

	u := &model.User{Name: name, Email: email}
	if err := s.db.CreateUser(ctx, u); err != nil {
		return nil, err
	}

	s.log.WithField("user_id", u.ID).Info("user created")
	return u, nil
}

// ResolveToken returns the user owning token, or nil when no user does
func (s *Service) ResolveToken(ctx context.Context, token string) (*model.User, error) {
	return s.db.GetUserByToken(ctx, strings.TrimSpace(token))
}

// UserByEmail returns the user with email, or ErrNotFound
func (s *Service) UserByEmail(ctx context.Context, email string) (*model.User, error) {
	u, err := s.db.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, apperr.ErrNotFound
	}
	return u, nil
}
