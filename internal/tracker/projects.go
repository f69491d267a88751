package tracker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/michal94mk/taskflow/internal/apperr"
	"github.com/michal94mk/taskflow/internal/db"
	"github.com/michal94mk/taskflow/internal/model"
)

// ProjectInput is the editable part of a project
type ProjectInput struct {
	Name        string              `json:"name"`
	Description *string             `json:"description"`
	Status      model.ProjectStatus `json:"status"`
	StartDate   *time.Time          `json:"start_date"`
	EndDate     *time.Time          `json:"end_date"`
}

func (in *ProjectInput) validate() error {
	ve := apperr.NewValidationError()
	requireText(ve, "name", &in.Name, maxTitleLength, "The project name is required.")
	optionalText(ve, "description", &in.Description, maxDescriptionLength)

	if in.Status == "" {
		in.Status = model.ProjectActive
	} else if !in.Status.Valid() {
		ve.Add("status", "The selected status is invalid.")
	}

	if in.StartDate != nil && in.EndDate != nil && in.EndDate.Before(*in.StartDate) {
		ve.Add("end_date", "The end date must be after or equal to the start date.")
	}
	return ve.OrNil()
}

func (in *ProjectInput) apply(p *model.Project) {
	p.Name = in.Name
	p.Description = in.Description
	p.Status = in.Status
	p.StartDate = utcPtr(in.StartDate)
	p.EndDate = utcPtr(in.EndDate)
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

// ProjectDetail is a project with its newest tasks
type ProjectDetail struct {
	*model.Project
	RecentTasks []model.Task `json:"recent_tasks"`
}

// MarshalJSON flattens the project fields next to recent_tasks. Without it
// the promoted Project.MarshalJSON would drop recent_tasks.
func (d ProjectDetail) MarshalJSON() ([]byte, error) {
	raw, err := json.Marshal(d.Project)
	if err != nil {
		return nil, err
	}
	fields := make(map[string]json.RawMessage)
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	tasks, err := json.Marshal(d.RecentTasks)
	if err != nil {
		return nil, err
	}
	fields["recent_tasks"] = tasks
	return json.Marshal(fields)
}

// ownedProject loads a project and checks it belongs to user
func (s *Service) ownedProject(ctx context.Context, user *model.User, id string) (*model.Project, error) {
	p, err := s.db.GetProject(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, apperr.ErrNotFound
	}
	if p.UserID != user.ID {
		return nil, apperr.ErrForbidden
	}
	return p, nil
}

// ListProjects returns one page of the user's projects, newest first
func (s *Service) ListProjects(ctx context.Context, user *model.User, page int) (*Page[model.Project], error) {
	if page < 1 {
		page = 1
	}
	res, err := s.db.ListProjects(ctx, user.ID, page, ProjectsPerPage)
	if err != nil {
		return nil, err
	}
	return newPage(res.Projects, page, ProjectsPerPage, res.Total), nil
}

// GetProject returns a project with its ten newest tasks
func (s *Service) GetProject(ctx context.Context, user *model.User, id string) (*ProjectDetail, error) {
	p, err := s.ownedProject(ctx, user, id)
	if err != nil {
		return nil, err
	}
	tasks, err := s.db.FindTasks(ctx, 10, db.ForUser(user.ID), db.ByProject(p.ID), db.Latest)
	if err != nil {
		return nil, err
	}
	if tasks == nil {
		tasks = []model.Task{}
	}
	return &ProjectDetail{Project: p, RecentTasks: tasks}, nil
}

// CreateProject validates and stores a new project owned by user
func (s *Service) CreateProject(ctx context.Context, user *model.User, in ProjectInput) (*model.Project, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	p := &model.Project{UserID: user.ID}
	in.apply(p)
	if err := s.db.CreateProject(ctx, p); err != nil {
		return nil, err
	}

	s.log.WithField("project_id", p.ID).Info("project created")
	return s.db.GetProject(ctx, p.ID)
}

// UpdateProject replaces the editable fields of a project the user owns
func (s *Service) UpdateProject(ctx context.Context, user *model.User, id string, in ProjectInput) (*model.Project, error) {
	p, err := s.ownedProject(ctx, user, id)
	if err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	in.apply(p)
	if err := s.db.UpdateProject(ctx, p); err != nil {
		return nil, err
	}
	return s.db.GetProject(ctx, p.ID)
}

// DeleteProject soft-deletes a project the user owns, with its tasks
func (s *Service) DeleteProject(ctx context.Context, user *model.User, id string) error {
	if _, err := s.ownedProject(ctx, user, id); err != nil {
		return err
	}
	if err := s.db.DeleteProject(ctx, id); err != nil {
		return err
	}
	s.log.WithField("project_id", id).Info("project deleted")
	return nil
}
