// Package progress keeps each project's completed_tasks_count equal to the
// number of its live tasks in the "completed" status.
package progress

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/michal94mk/taskflow/internal/db"
	"github.com/michal94mk/taskflow/internal/logging"
	"github.com/michal94mk/taskflow/internal/model"
)

// Maintainer recounts the completed-task counter after task writes
type Maintainer struct {
	db  *db.DB
	log *logrus.Entry
}

// New creates a maintainer
func New(database *db.DB, log *logrus.Entry) *Maintainer {
	return &Maintainer{
		db:  database,
		log: logging.OrDiscard(log).WithField("component", "progress"),
	}
}

// Sync recounts the completed tasks of projectID and stores the count.
// tx must be the transaction the triggering write runs in. A missing
// project id or a missing "completed" status is a logged no-op.
func (m *Maintainer) Sync(ctx context.Context, tx *db.DB, projectID string) error {
	log := m.log.WithField("project_id", projectID)

	if projectID == "" {
		log.Debug("skipping recount: task has no project")
		return nil
	}

	// Looked up through tx, not the reference cache: a cache miss would
	// query outside the transaction.
	completedID, err := tx.StatusIDBySlug(ctx, model.StatusCompleted)
	if err != nil {
		return err
	}
	if completedID == "" {
		log.Warn("skipping recount: no completed status defined")
		return nil
	}

	n, err := tx.CountCompletedTasks(ctx, projectID, completedID)
	if err != nil {
		return err
	}

	found, err := tx.SetCompletedTasksCount(ctx, projectID, n)
	if err != nil {
		return err
	}
	if !found {
		log.Debug("skipping recount: project not found")
		return nil
	}

	log.WithField("completed_tasks_count", n).Debug("project progress recounted")
	return nil
}

// SyncProject runs Sync in a transaction of its own
func (m *Maintainer) SyncProject(ctx context.Context, projectID string) error {
	return m.db.Transaction(ctx, func(tx *db.DB) error {
		return m.Sync(ctx, tx, projectID)
	})
}

// TaskCreated recounts the new task's project
func (m *Maintainer) TaskCreated(ctx context.Context, tx *db.DB, t *model.Task) error {
	return m.Sync(ctx, tx, t.ProjectID)
}

// TaskUpdated recounts after an update. Nothing is recounted unless the
// status or the project changed; a project change recounts both projects.
func (m *Maintainer) TaskUpdated(ctx context.Context, tx *db.DB, before, after *model.Task) error {
	if before.ProjectID != after.ProjectID {
		if err := m.Sync(ctx, tx, before.ProjectID); err != nil {
			return err
		}
		return m.Sync(ctx, tx, after.ProjectID)
	}
	if before.TaskStatusID != after.TaskStatusID {
		return m.Sync(ctx, tx, after.ProjectID)
	}
	return nil
}

// TaskDeleted recounts the deleted task's project
func (m *Maintainer) TaskDeleted(ctx context.Context, tx *db.DB, t *model.Task) error {
	return m.Sync(ctx, tx, t.ProjectID)
}
