package tracker

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/michal94mk/taskflow/internal/apperr"
	"github.com/michal94mk/taskflow/internal/model"
)

func validateComment(content *string) error {
	*content = strings.TrimSpace(*content)
	switch {
	case *content == "":
		return apperr.Invalid("content", "The comment content is required.")
	case utf8.RuneCountInString(*content) > maxDescriptionLength:
		return apperr.Invalid("content", "The comment cannot be longer than 10,000 characters.")
	}
	return nil
}

// authoredComment loads a comment and checks user wrote it
func (s *Service) authoredComment(ctx context.Context, user *model.User, id string) (*model.Comment, error) {
	c, err := s.db.GetComment(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, apperr.ErrNotFound
	}
	if c.UserID != user.ID {
		return nil, apperr.ErrForbidden
	}
	return c, nil
}

// AddComment posts a comment on a task the user can see
func (s *Service) AddComment(ctx context.Context, user *model.User, taskID, content string) (*model.Comment, error) {
	if _, err := s.ownedTask(ctx, user, taskID); err != nil {
		return nil, err
	}
	if err := validateComment(&content); err != nil {
		return nil, err
	}

	c := &model.Comment{TaskID: taskID, UserID: user.ID, Content: content}
	if err := s.db.CreateComment(ctx, c); err != nil {
		return nil, err
	}
	return s.db.GetComment(ctx, c.ID)
}

// UpdateComment replaces the content of a comment the user wrote
func (s *Service) UpdateComment(ctx context.Context, user *model.User, id, content string) (*model.Comment, error) {
	if _, err := s.authoredComment(ctx, user, id); err != nil {
		return nil, err
	}
	if err := validateComment(&content); err != nil {
		return nil, err
	}

	if err := s.db.UpdateCommentContent(ctx, id, content); err != nil {
		return nil, err
	}
	return s.db.GetComment(ctx, id)
}

// DeleteComment soft-deletes a comment the user wrote
func (s *Service) DeleteComment(ctx context.Context, user *model.User, id string) error {
	if _, err := s.authoredComment(ctx, user, id); err != nil {
		return err
	}
	return s.db.DeleteComment(ctx, id)
}
