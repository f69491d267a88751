package tracker

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/michal94mk/taskflow/internal/apperr"
	"github.com/michal94mk/taskflow/internal/db"
	"github.com/michal94mk/taskflow/internal/model"
)

// TaskInput is the editable part of a task
type TaskInput struct {
	Title          string     `json:"title"`
	Description    *string    `json:"description"`
	ProjectID      string     `json:"project_id"`
	TaskStatusID   string     `json:"task_status_id"`
	TaskPriorityID string     `json:"task_priority_id"`
	DueDate        *time.Time `json:"due_date"`
	AssignedTo     *string    `json:"assigned_to"`
}

// TaskQuery filters a task listing. Empty fields are ignored.
type TaskQuery struct {
	ProjectID  string `form:"project_id"`
	StatusID   string `form:"status_id"`
	PriorityID string `form:"priority_id"`
	Search     string `form:"search"`
	Page       int    `form:"page"`
}

// validateTask checks the input and the references it makes. A project
// owned by someone else is forbidden rather than invalid.
func (s *Service) validateTask(ctx context.Context, user *model.User, in *TaskInput) error {
	ve := apperr.NewValidationError()
	requireText(ve, "title", &in.Title, maxTitleLength, "The task title is required.")
	optionalText(ve, "description", &in.Description, maxDescriptionLength)
	optionalText(ve, "assigned_to", &in.AssignedTo, maxTitleLength)

	if in.ProjectID == "" {
		ve.Add("project_id", "The project is required.")
	} else {
		p, err := s.db.GetProject(ctx, in.ProjectID)
		if err != nil {
			return err
		}
		if p == nil {
			ve.Add("project_id", "The selected project is invalid.")
		} else if p.UserID != user.ID {
			return apperr.ErrForbidden
		}
	}

	if in.TaskStatusID == "" {
		ve.Add("task_status_id", "The status is required.")
	} else {
		st, err := s.refs.StatusByID(ctx, in.TaskStatusID)
		if err != nil {
			return err
		}
		if st == nil {
			ve.Add("task_status_id", "The selected status is invalid.")
		}
	}

	if in.TaskPriorityID == "" {
		ve.Add("task_priority_id", "The priority is required.")
	} else {
		pr, err := s.refs.PriorityByID(ctx, in.TaskPriorityID)
		if err != nil {
			return err
		}
		if pr == nil {
			ve.Add("task_priority_id", "The selected priority is invalid.")
		}
	}

	return ve.OrNil()
}

func (in *TaskInput) apply(t *model.Task) {
	t.Title = in.Title
	t.Description = in.Description
	t.ProjectID = in.ProjectID
	t.TaskStatusID = in.TaskStatusID
	t.TaskPriorityID = in.TaskPriorityID
	t.DueDate = utcPtr(in.DueDate)
	t.AssignedTo = in.AssignedTo
}

// ownedTask loads a task with comments and checks it belongs to user
func (s *Service) ownedTask(ctx context.Context, user *model.User, id string) (*model.Task, error) {
	t, err := s.db.GetTaskWithComments(ctx, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, apperr.ErrNotFound
	}
	if t.UserID != user.ID {
		return nil, apperr.ErrForbidden
	}
	return t, nil
}

// ListTasks returns one page of the user's tasks matching q, newest first
func (s *Service) ListTasks(ctx context.Context, user *model.User, q TaskQuery) (*Page[model.Task], error) {
	q.Search = strings.TrimSpace(q.Search)
	if utf8.RuneCountInString(q.Search) > maxSearchLength {
		return nil, apperr.Invalid("search", tooLong("search", maxSearchLength))
	}
	if q.Page < 1 {
		q.Page = 1
	}

	res, err := s.db.ListTasks(ctx, db.TaskFilter{
		UserID:     user.ID,
		ProjectID:  q.ProjectID,
		StatusID:   q.StatusID,
		PriorityID: q.PriorityID,
		Search:     q.Search,
		Page:       q.Page,
		PerPage:    TasksPerPage,
	})
	if err != nil {
		return nil, err
	}
	return newPage(res.Tasks, q.Page, TasksPerPage, res.Total), nil
}

// GetTask returns a task the user owns, with its comments
func (s *Service) GetTask(ctx context.Context, user *model.User, id string) (*model.Task, error) {
	return s.ownedTask(ctx, user, id)
}

// CreateTask validates and stores a new task and recounts its project
func (s *Service) CreateTask(ctx context.Context, user *model.User, in TaskInput) (*model.Task, error) {
	if err := s.validateTask(ctx, user, &in); err != nil {
		return nil, err
	}

	t := &model.Task{UserID: user.ID}
	in.apply(t)

	err := s.db.Transaction(ctx, func(tx *db.DB) error {
		if err := tx.CreateTask(ctx, t); err != nil {
			return err
		}
		return s.progress.TaskCreated(ctx, tx, t)
	})
	if err != nil {
		return nil, err
	}

	s.log.WithField("task_id", t.ID).Info("task created")
	return s.db.GetTask(ctx, t.ID)
}

// UpdateTask replaces the editable fields of a task the user owns
func (s *Service) UpdateTask(ctx context.Context, user *model.User, id string, in TaskInput) (*model.Task, error) {
	existing, err := s.ownedTask(ctx, user, id)
	if err != nil {
		return nil, err
	}
	if err := s.validateTask(ctx, user, &in); err != nil {
		return nil, err
	}

	before := *existing
	after := *existing
	in.apply(&after)

	err = s.db.Transaction(ctx, func(tx *db.DB) error {
		if err := tx.UpdateTask(ctx, &after); err != nil {
			return err
		}
		return s.progress.TaskUpdated(ctx, tx, &before, &after)
	})
	if err != nil {
		return nil, err
	}

	return s.db.GetTask(ctx, id)
}

// DeleteTask soft-deletes a task the user owns and recounts its project
func (s *Service) DeleteTask(ctx context.Context, user *model.User, id string) error {
	t, err := s.ownedTask(ctx, user, id)
	if err != nil {
		return err
	}

	err = s.db.Transaction(ctx, func(tx *db.DB) error {
		if err := tx.DeleteTask(ctx, t.ID); err != nil {
			return err
		}
		return s.progress.TaskDeleted(ctx, tx, t)
	})
	if err != nil {
		return err
	}

	s.log.WithField("task_id", id).Info("task deleted")
	return nil
}

// OverdueTasks lists the user's tasks that are past due and not completed
func (s *Service) OverdueTasks(ctx context.Context, user *model.User, now time.Time) ([]model.Task, error) {
	return s.db.FindTasks(ctx, 0, db.ForUser(user.ID), db.Overdue(now.UTC()), db.Latest)
}
