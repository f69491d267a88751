// Package board groups a user's tasks into one Kanban column per status and
// moves tasks between columns.
package board

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/michal94mk/taskflow/internal/apperr"
	"github.com/michal94mk/taskflow/internal/db"
	"github.com/michal94mk/taskflow/internal/logging"
	"github.com/michal94mk/taskflow/internal/model"
	"github.com/michal94mk/taskflow/internal/progress"
	"github.com/michal94mk/taskflow/internal/refdata"
)

// Filter narrows the board. An empty ProjectID shows every project.
type Filter struct {
	ProjectID string `form:"project_id" json:"project_id,omitempty"`
}

// Column is one status bucket of the board
type Column struct {
	Status model.TaskStatus `json:"status"`
	Tasks  []model.Task     `json:"tasks"`
}

// Assembler builds boards and applies task moves
type Assembler struct {
	db       *db.DB
	refs     *refdata.Registry
	progress *progress.Maintainer
	log      *logrus.Entry
}

// New creates an assembler
func New(database *db.DB, refs *refdata.Registry, maintainer *progress.Maintainer, log *logrus.Entry) *Assembler {
	return &Assembler{
		db:       database,
		refs:     refs,
		progress: maintainer,
		log:      logging.OrDiscard(log).WithField("component", "board"),
	}
}

// Assemble returns one column per status in status order, empty columns
// included. Tasks are the user's own, newest first, with project and
// priority loaded.
func (a *Assembler) Assemble(ctx context.Context, user *model.User, f Filter) ([]Column, error) {
	statuses, err := a.refs.Statuses(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load statuses: %w", err)
	}

	columns := make([]Column, 0, len(statuses))
	for _, status := range statuses {
		scopes := []db.Scope{db.ForUser(user.ID), db.ByStatus(status.ID)}
		if f.ProjectID != "" {
			scopes = append(scopes, db.ByProject(f.ProjectID))
		}
		scopes = append(scopes, db.Latest)

		tasks, err := a.db.FindTasks(ctx, 0, scopes...)
		if err != nil {
			return nil, err
		}
		if tasks == nil {
			tasks = []model.Task{}
		}
		columns = append(columns, Column{Status: status, Tasks: tasks})
	}

	return columns, nil
}

// ProjectOptions lists the projects the board can be filtered by
func (a *Assembler) ProjectOptions(ctx context.Context, user *model.User) ([]model.Project, error) {
	return a.db.ProjectNames(ctx, user.ID)
}

// MoveTask puts a task into another status. Unknown tasks and tasks owned
// by someone else are both reported as forbidden. Moving a task to its
// current status changes nothing.
func (a *Assembler) MoveTask(ctx context.Context, user *model.User, taskID, statusID string) (*model.Task, error) {
	log := a.log.WithFields(logrus.Fields{"task_id": taskID, "status_id": statusID})

	task, err := a.db.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task == nil || task.UserID != user.ID {
		return nil, apperr.ErrForbidden
	}

	status, err := a.refs.StatusByID(ctx, statusID)
	if err != nil {
		return nil, err
	}
	if status == nil {
		return nil, apperr.Invalid("task_status_id", "The selected status is invalid.")
	}

	if task.TaskStatusID == statusID {
		log.Debug("task already in status")
		return task, nil
	}

	before := *task
	after := *task
	after.TaskStatusID = statusID

	err = a.db.Transaction(ctx, func(tx *db.DB) error {
		if err := tx.SetTaskStatus(ctx, task.ID, statusID); err != nil {
			return err
		}
		return a.progress.TaskUpdated(ctx, tx, &before, &after)
	})
	if err != nil {
		return nil, err
	}

	log.Info("task moved")
	return a.db.GetTask(ctx, task.ID)
}
