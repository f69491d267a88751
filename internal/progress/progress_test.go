package progress

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/michal94mk/taskflow/internal/db"
	"github.com/michal94mk/taskflow/internal/model"
)

type fixture struct {
	db       *db.DB
	m        *Maintainer
	user     *model.User
	statuses map[string]string
	priority string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	database, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	u := &model.User{Name: "Owner", Email: "owner@example.com"}
	if err := database.CreateUser(ctx, u); err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}

	statuses, err := database.ListStatuses(ctx)
	if err != nil {
		t.Fatalf("Failed to list statuses: %v", err)
	}
	ids := make(map[string]string)
	for _, s := range statuses {
		ids[s.Slug] = s.ID
	}
	priority, _ := database.PriorityIDBySlug(ctx, "medium")

	return &fixture{db: database, m: New(database, nil), user: u, statuses: ids, priority: priority}
}

func (f *fixture) project(t *testing.T, name string) *model.Project {
	t.Helper()
	p := &model.Project{UserID: f.user.ID, Name: name}
	if err := f.db.CreateProject(context.Background(), p); err != nil {
		t.Fatalf("Failed to create project: %v", err)
	}
	return p
}

// createTask inserts a task and runs the create hook in one transaction
func (f *fixture) createTask(t *testing.T, projectID, slug string) *model.Task {
	t.Helper()
	ctx := context.Background()
	task := &model.Task{
		UserID:         f.user.ID,
		ProjectID:      projectID,
		TaskStatusID:   f.statuses[slug],
		TaskPriorityID: f.priority,
		Title:          "task",
	}
	err := f.db.Transaction(ctx, func(tx *db.DB) error {
		if err := tx.CreateTask(ctx, task); err != nil {
			return err
		}
		return f.m.TaskCreated(ctx, tx, task)
	})
	if err != nil {
		t.Fatalf("Failed to create task: %v", err)
	}
	return task
}

func (f *fixture) updateTask(t *testing.T, task *model.Task, mutate func(*model.Task)) {
	t.Helper()
	ctx := context.Background()
	before := *task
	mutate(task)
	err := f.db.Transaction(ctx, func(tx *db.DB) error {
		if err := tx.UpdateTask(ctx, task); err != nil {
			return err
		}
		return f.m.TaskUpdated(ctx, tx, &before, task)
	})
	if err != nil {
		t.Fatalf("Failed to update task: %v", err)
	}
}

func (f *fixture) completed(t *testing.T, projectID string) int {
	t.Helper()
	p, err := f.db.GetProject(context.Background(), projectID)
	if err != nil || p == nil {
		t.Fatalf("Failed to get project: %v", err)
	}
	return p.CompletedTasksCount
}

func TestCreateCountsCompleted(t *testing.T) {
	f := newFixture(t)
	p := f.project(t, "P")

	f.createTask(t, p.ID, model.StatusCompleted)
	f.createTask(t, p.ID, model.StatusCompleted)
	f.createTask(t, p.ID, model.StatusToDo)

	if got := f.completed(t, p.ID); got != 2 {
		t.Errorf("Expected 2 completed, got %d", got)
	}
}

func TestStatusChangeRecounts(t *testing.T) {
	f := newFixture(t)
	p := f.project(t, "P")
	task := f.createTask(t, p.ID, model.StatusToDo)

	f.updateTask(t, task, func(tk *model.Task) { tk.TaskStatusID = f.statuses[model.StatusCompleted] })
	if got := f.completed(t, p.ID); got != 1 {
		t.Errorf("Expected 1 completed after completing, got %d", got)
	}

	f.updateTask(t, task, func(tk *model.Task) { tk.TaskStatusID = f.statuses[model.StatusInProgress] })
	if got := f.completed(t, p.ID); got != 0 {
		t.Errorf("Expected 0 completed after reopening, got %d", got)
	}
}

func TestUnrelatedUpdateDoesNotRecount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.project(t, "P")
	task := f.createTask(t, p.ID, model.StatusCompleted)

	// Skew the counter; only a recount would repair it.
	if _, err := f.db.SetCompletedTasksCount(ctx, p.ID, 99); err != nil {
		t.Fatalf("SetCompletedTasksCount failed: %v", err)
	}

	f.updateTask(t, task, func(tk *model.Task) { tk.Title = "renamed" })
	if got := f.completed(t, p.ID); got != 99 {
		t.Errorf("Expected title-only update to skip the recount, got %d", got)
	}
}

func TestProjectChangeRecountsBoth(t *testing.T) {
	f := newFixture(t)
	from := f.project(t, "From")
	to := f.project(t, "To")
	task := f.createTask(t, from.ID, model.StatusCompleted)

	f.updateTask(t, task, func(tk *model.Task) { tk.ProjectID = to.ID })

	if got := f.completed(t, from.ID); got != 0 {
		t.Errorf("Expected old project to drop to 0, got %d", got)
	}
	if got := f.completed(t, to.ID); got != 1 {
		t.Errorf("Expected new project to rise to 1, got %d", got)
	}
}

func TestDeleteRecounts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.project(t, "P")
	task := f.createTask(t, p.ID, model.StatusCompleted)
	f.createTask(t, p.ID, model.StatusCompleted)

	err := f.db.Transaction(ctx, func(tx *db.DB) error {
		if err := tx.DeleteTask(ctx, task.ID); err != nil {
			return err
		}
		return f.m.TaskDeleted(ctx, tx, task)
	})
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	if got := f.completed(t, p.ID); got != 1 {
		t.Errorf("Expected soft-deleted task to be excluded, got %d", got)
	}
}

func TestRecountRepairsDrift(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.project(t, "P")
	f.createTask(t, p.ID, model.StatusCompleted)

	if _, err := f.db.SetCompletedTasksCount(ctx, p.ID, 42); err != nil {
		t.Fatalf("SetCompletedTasksCount failed: %v", err)
	}
	if err := f.m.SyncProject(ctx, p.ID); err != nil {
		t.Fatalf("SyncProject failed: %v", err)
	}
	if got := f.completed(t, p.ID); got != 1 {
		t.Errorf("Expected full recount to restore 1, got %d", got)
	}
}

func TestNoOpCases(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.project(t, "P")

	if err := f.m.SyncProject(ctx, ""); err != nil {
		t.Errorf("Expected empty project id to be a no-op, got %v", err)
	}
	if err := f.m.SyncProject(ctx, "does-not-exist"); err != nil {
		t.Errorf("Expected missing project to be a no-op, got %v", err)
	}

	if _, err := f.db.SetCompletedTasksCount(ctx, p.ID, 7); err != nil {
		t.Fatalf("SetCompletedTasksCount failed: %v", err)
	}
	if err := f.db.DeleteStatus(ctx, f.statuses[model.StatusCompleted]); err != nil {
		t.Fatalf("DeleteStatus failed: %v", err)
	}
	if err := f.m.SyncProject(ctx, p.ID); err != nil {
		t.Errorf("Expected missing completed status to be a no-op, got %v", err)
	}
	if got := f.completed(t, p.ID); got != 7 {
		t.Errorf("Expected counter untouched without a completed status, got %d", got)
	}
}
