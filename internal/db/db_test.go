package db

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/michal94mk/taskflow/internal/model"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func mustUser(t *testing.T, db *DB, email string) *model.User {
	t.Helper()
	u := &model.User{Name: email, Email: email}
	if err := db.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}
	return u
}

func mustProject(t *testing.T, db *DB, userID, name string) *model.Project {
	t.Helper()
	p := &model.Project{UserID: userID, Name: name}
	if err := db.CreateProject(context.Background(), p); err != nil {
		t.Fatalf("Failed to create project: %v", err)
	}
	return p
}

func mustStatusID(t *testing.T, db *DB, slug string) string {
	t.Helper()
	id, err := db.StatusIDBySlug(context.Background(), slug)
	if err != nil || id == "" {
		t.Fatalf("Failed to find status %q: %v", slug, err)
	}
	return id
}

func mustTask(t *testing.T, db *DB, userID, projectID, statusSlug, title string) *model.Task {
	t.Helper()
	ctx := context.Background()
	priorityID, err := db.PriorityIDBySlug(ctx, "medium")
	if err != nil || priorityID == "" {
		t.Fatalf("Failed to find priority: %v", err)
	}
	task := &model.Task{
		UserID:         userID,
		ProjectID:      projectID,
		TaskStatusID:   mustStatusID(t, db, statusSlug),
		TaskPriorityID: priorityID,
		Title:          title,
	}
	if err := db.CreateTask(ctx, task); err != nil {
		t.Fatalf("Failed to create task: %v", err)
	}
	return task
}

func TestOpenSeedsReferenceData(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	statuses, err := db.ListStatuses(ctx)
	if err != nil {
		t.Fatalf("ListStatuses failed: %v", err)
	}
	want := []string{model.StatusToDo, model.StatusInProgress, model.StatusCompleted, model.StatusCancelled}
	if len(statuses) != len(want) {
		t.Fatalf("Expected %d statuses, got %d", len(want), len(statuses))
	}
	for i, s := range statuses {
		if s.Slug != want[i] {
			t.Errorf("Status %d: expected %s, got %s", i, want[i], s.Slug)
		}
	}

	priorities, err := db.ListPriorities(ctx)
	if err != nil {
		t.Fatalf("ListPriorities failed: %v", err)
	}
	if len(priorities) != 4 || priorities[0].Slug != "low" || priorities[3].Slug != "critical" {
		t.Errorf("Unexpected default priorities: %+v", priorities)
	}
}

func TestOpenTwiceDoesNotDuplicateReferenceData(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	first, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	first.Close()

	second, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Failed to reopen database: %v", err)
	}
	defer second.Close()

	statuses, err := second.ListStatuses(context.Background())
	if err != nil {
		t.Fatalf("ListStatuses failed: %v", err)
	}
	if len(statuses) != 4 {
		t.Errorf("Expected 4 statuses after reopen, got %d", len(statuses))
	}

	version, err := second.MigrationVersion()
	if err != nil {
		t.Fatalf("MigrationVersion failed: %v", err)
	}
	if version != 2 {
		t.Errorf("Expected schema version 2, got %d", version)
	}
}

// TestQueriesInsideTransactionNoDeadlock guards the single-connection
// SQLite setup: preloads and counts inside a transaction must run on the
// transaction's connection.
func TestQueriesInsideTransactionNoDeadlock(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	u := mustUser(t, db, "a@example.com")
	p := mustProject(t, db, u.ID, "Project")
	for i := 0; i < 5; i++ {
		mustTask(t, db, u.ID, p.ID, model.StatusToDo, "task")
	}

	done := make(chan error, 1)
	go func() {
		done <- db.Transaction(ctx, func(tx *DB) error {
			tasks, err := tx.FindTasks(ctx, 0, ForUser(u.ID))
			if err != nil {
				return err
			}
			for _, task := range tasks {
				if _, err := tx.GetTask(ctx, task.ID); err != nil {
					return err
				}
			}
			completedID, err := tx.StatusIDBySlug(ctx, model.StatusCompleted)
			if err != nil {
				return err
			}
			n, err := tx.CountCompletedTasks(ctx, p.ID, completedID)
			if err != nil {
				return err
			}
			_, err = tx.SetCompletedTasksCount(ctx, p.ID, n)
			return err
		})
	}()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Transaction failed: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Deadlock detected: transaction did not complete within 5 seconds")
	}
}

func TestTransactionRollsBack(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	u := mustUser(t, db, "a@example.com")

	errBoom := errors.New("boom")
	err := db.Transaction(ctx, func(tx *DB) error {
		if err := tx.CreateProject(ctx, &model.Project{UserID: u.ID, Name: "rolled back"}); err != nil {
			return err
		}
		return errBoom
	})
	if err != errBoom {
		t.Fatalf("Expected transaction error to be returned, got %v", err)
	}

	res, err := db.ListProjects(ctx, u.ID, 1, 10)
	if err != nil {
		t.Fatalf("ListProjects failed: %v", err)
	}
	if res.Total != 0 {
		t.Errorf("Expected rollback to discard the project, found %d", res.Total)
	}
}

func TestUserLookupByToken(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	u := mustUser(t, db, "a@example.com")

	if len(u.APIToken) != 64 {
		t.Errorf("Expected a 64 character token, got %q", u.APIToken)
	}

	got, err := db.GetUserByToken(ctx, u.APIToken)
	if err != nil {
		t.Fatalf("GetUserByToken failed: %v", err)
	}
	if got == nil || got.ID != u.ID {
		t.Errorf("Expected user %s, got %+v", u.ID, got)
	}

	missing, err := db.GetUserByToken(ctx, "nope")
	if err != nil {
		t.Fatalf("GetUserByToken failed: %v", err)
	}
	if missing != nil {
		t.Errorf("Expected nil for unknown token, got %+v", missing)
	}
}

func TestProjectTaskCountAndSoftDelete(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	u := mustUser(t, db, "a@example.com")
	p := mustProject(t, db, u.ID, "Project")

	mustTask(t, db, u.ID, p.ID, model.StatusToDo, "one")
	gone := mustTask(t, db, u.ID, p.ID, model.StatusToDo, "two")

	if err := db.DeleteTask(ctx, gone.ID); err != nil {
		t.Fatalf("DeleteTask failed: %v", err)
	}

	got, err := db.GetProject(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetProject failed: %v", err)
	}
	if got.TasksCount != 1 {
		t.Errorf("Expected soft-deleted task to be excluded from count, got %d", got.TasksCount)
	}

	deleted, err := db.GetTask(ctx, gone.ID)
	if err != nil {
		t.Fatalf("GetTask failed: %v", err)
	}
	if deleted != nil {
		t.Errorf("Expected soft-deleted task to be hidden, got %+v", deleted)
	}

	if err := db.DeleteProject(ctx, p.ID); err != nil {
		t.Fatalf("DeleteProject failed: %v", err)
	}
	n, err := db.CountTasks(ctx, ForUser(u.ID))
	if err != nil {
		t.Fatalf("CountTasks failed: %v", err)
	}
	if n != 0 {
		t.Errorf("Expected project tasks to be deleted with the project, %d left", n)
	}
}

func TestSetCompletedTasksCountKeepsUpdatedAt(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	u := mustUser(t, db, "a@example.com")
	p := mustProject(t, db, u.ID, "Project")

	before, _ := db.GetProject(ctx, p.ID)

	ok, err := db.SetCompletedTasksCount(ctx, p.ID, 3)
	if err != nil || !ok {
		t.Fatalf("SetCompletedTasksCount failed: ok=%v err=%v", ok, err)
	}

	after, _ := db.GetProject(ctx, p.ID)
	if after.CompletedTasksCount != 3 {
		t.Errorf("Expected counter 3, got %d", after.CompletedTasksCount)
	}
	if !after.UpdatedAt.Equal(before.UpdatedAt) {
		t.Errorf("Expected updated_at to be unchanged, %v -> %v", before.UpdatedAt, after.UpdatedAt)
	}

	ok, err = db.SetCompletedTasksCount(ctx, "missing", 1)
	if err != nil {
		t.Fatalf("SetCompletedTasksCount failed: %v", err)
	}
	if ok {
		t.Error("Expected false for a missing project")
	}
}

func TestListTasksFilters(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	u := mustUser(t, db, "a@example.com")
	other := mustUser(t, db, "b@example.com")
	p1 := mustProject(t, db, u.ID, "One")
	p2 := mustProject(t, db, u.ID, "Two")
	op := mustProject(t, db, other.ID, "Theirs")

	mustTask(t, db, u.ID, p1.ID, model.StatusToDo, "Write docs")
	mustTask(t, db, u.ID, p1.ID, model.StatusCompleted, "Ship release")
	mustTask(t, db, u.ID, p2.ID, model.StatusToDo, "Write tests")
	mustTask(t, db, other.ID, op.ID, model.StatusToDo, "Write code")

	res, err := db.ListTasks(ctx, TaskFilter{UserID: u.ID, PerPage: 15})
	if err != nil {
		t.Fatalf("ListTasks failed: %v", err)
	}
	if res.Total != 3 || len(res.Tasks) != 3 {
		t.Fatalf("Expected 3 own tasks, got total=%d len=%d", res.Total, len(res.Tasks))
	}
	if res.Tasks[0].Title != "Write tests" {
		t.Errorf("Expected newest task first, got %q", res.Tasks[0].Title)
	}
	if res.Tasks[0].Project == nil || res.Tasks[0].TaskStatus == nil || res.Tasks[0].TaskPriority == nil {
		t.Error("Expected relationships to be loaded")
	}

	res, err = db.ListTasks(ctx, TaskFilter{UserID: u.ID, ProjectID: p1.ID, Search: "write"})
	if err != nil {
		t.Fatalf("ListTasks failed: %v", err)
	}
	if res.Total != 1 || res.Tasks[0].Title != "Write docs" {
		t.Errorf("Expected only 'Write docs', got %+v", res.Tasks)
	}

	res, err = db.ListTasks(ctx, TaskFilter{UserID: u.ID, StatusID: mustStatusID(t, db, model.StatusCompleted)})
	if err != nil {
		t.Fatalf("ListTasks failed: %v", err)
	}
	if res.Total != 1 || res.Tasks[0].Title != "Ship release" {
		t.Errorf("Expected only 'Ship release', got %+v", res.Tasks)
	}

	res, err = db.ListTasks(ctx, TaskFilter{UserID: u.ID, Page: 2, PerPage: 2})
	if err != nil {
		t.Fatalf("ListTasks failed: %v", err)
	}
	if res.Total != 3 || len(res.Tasks) != 1 {
		t.Errorf("Expected second page with 1 of 3 tasks, got total=%d len=%d", res.Total, len(res.Tasks))
	}
}

func TestEscapeLike(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain", "plain"},
		{"100%", `100\%`},
		{"a_b", `a\_b`},
		{`c:\dir`, `c:\\dir`},
		{`%_\`, `\%\_\\`},
	}

	for _, tt := range tests {
		if got := EscapeLike(tt.in); got != tt.want {
			t.Errorf("EscapeLike(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestMatchingTreatsWildcardsLiterally(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	u := mustUser(t, db, "a@example.com")
	p := mustProject(t, db, u.ID, "Project")

	mustTask(t, db, u.ID, p.ID, model.StatusToDo, "100% done")
	mustTask(t, db, u.ID, p.ID, model.StatusToDo, "1000 done")
	mustTask(t, db, u.ID, p.ID, model.StatusToDo, "snake_case")
	mustTask(t, db, u.ID, p.ID, model.StatusToDo, "snakeXcase")

	tests := []struct {
		query string
		want  int64
	}{
		{"100%", 1},
		{"%", 1},
		{"snake_case", 1},
		{"_", 1},
		{"done", 2},
	}

	for _, tt := range tests {
		n, err := db.CountTasks(ctx, ForUser(u.ID), Matching(tt.query, "tasks.title"))
		if err != nil {
			t.Fatalf("CountTasks(%q) failed: %v", tt.query, err)
		}
		if n != tt.want {
			t.Errorf("Matching(%q): expected %d, got %d", tt.query, tt.want, n)
		}
	}
}

func TestOverdueScopeExcludesCompleted(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	u := mustUser(t, db, "a@example.com")
	p := mustProject(t, db, u.ID, "Project")
	now := time.Now().UTC()
	yesterday := now.Add(-24 * time.Hour)
	tomorrow := now.Add(24 * time.Hour)

	late := mustTask(t, db, u.ID, p.ID, model.StatusToDo, "late")
	done := mustTask(t, db, u.ID, p.ID, model.StatusCompleted, "late but done")
	future := mustTask(t, db, u.ID, p.ID, model.StatusInProgress, "not yet due")
	for _, tc := range []struct {
		task *model.Task
		due  time.Time
	}{{late, yesterday}, {done, yesterday}, {future, tomorrow}} {
		tc.task.DueDate = &tc.due
		if err := db.UpdateTask(ctx, tc.task); err != nil {
			t.Fatalf("UpdateTask failed: %v", err)
		}
	}

	tasks, err := db.FindTasks(ctx, 0, ForUser(u.ID), Overdue(now))
	if err != nil {
		t.Fatalf("FindTasks failed: %v", err)
	}
	if len(tasks) != 1 || tasks[0].ID != late.ID {
		t.Fatalf("Expected only the late task, got %+v", tasks)
	}
	if !tasks[0].IsOverdueAt(now) {
		t.Error("Expected loaded task to report overdue")
	}
}

func TestCountTasksByDay(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	u := mustUser(t, db, "a@example.com")
	p := mustProject(t, db, u.ID, "Project")
	today := time.Now().UTC().Truncate(24 * time.Hour)

	statusID := mustStatusID(t, db, model.StatusToDo)
	priorityID, _ := db.PriorityIDBySlug(ctx, "low")
	for _, created := range []time.Time{
		today.Add(2 * time.Hour),
		today.Add(3 * time.Hour),
		today.Add(-20 * time.Hour),
		today.Add(-10 * 24 * time.Hour),
	} {
		task := &model.Task{
			UserID: u.ID, ProjectID: p.ID, TaskStatusID: statusID, TaskPriorityID: priorityID,
			Title: "t", CreatedAt: created, UpdatedAt: created,
		}
		if err := db.CreateTask(ctx, task); err != nil {
			t.Fatalf("CreateTask failed: %v", err)
		}
	}

	counts, err := db.CountTasksByDay(ctx, "created_at", today.Add(-24*time.Hour), today.Add(24*time.Hour), ForUser(u.ID))
	if err != nil {
		t.Fatalf("CountTasksByDay failed: %v", err)
	}

	if got := counts[today.Format("2006-01-02")]; got != 2 {
		t.Errorf("Expected 2 tasks today, got %d (%v)", got, counts)
	}
	if got := counts[today.Add(-24*time.Hour).Format("2006-01-02")]; got != 1 {
		t.Errorf("Expected 1 task yesterday, got %d (%v)", got, counts)
	}
	if len(counts) != 2 {
		t.Errorf("Expected the 10-day-old task outside the window, got %v", counts)
	}

	if _, err := db.CountTasksByDay(ctx, "title", today, today); err == nil {
		t.Error("Expected error for unsupported column")
	}
}

func TestCountTasksByStatusOmitsEmpty(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	u := mustUser(t, db, "a@example.com")
	p := mustProject(t, db, u.ID, "Project")

	mustTask(t, db, u.ID, p.ID, model.StatusCompleted, "a")
	mustTask(t, db, u.ID, p.ID, model.StatusToDo, "b")
	mustTask(t, db, u.ID, p.ID, model.StatusToDo, "c")

	rows, err := db.CountTasksByStatus(ctx, u.ID)
	if err != nil {
		t.Fatalf("CountTasksByStatus failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("Expected 2 groups, got %+v", rows)
	}
	if rows[0].Name != "To Do" || rows[0].Count != 2 {
		t.Errorf("Expected To Do=2 first, got %+v", rows[0])
	}
	if rows[1].Name != "Completed" || rows[1].Count != 1 || rows[1].Color != "green" {
		t.Errorf("Expected Completed=1 second, got %+v", rows[1])
	}

	byPriority, err := db.CountTasksByPriority(ctx, u.ID)
	if err != nil {
		t.Fatalf("CountTasksByPriority failed: %v", err)
	}
	if len(byPriority) != 1 || byPriority[0].Count != 3 {
		t.Errorf("Expected a single medium group of 3, got %+v", byPriority)
	}
}

func TestReferenceUpdateAndDelete(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	p := &model.TaskPriority{Slug: "urgent", Name: "Urgent", Color: "purple", Order: 5}
	if err := db.CreatePriority(ctx, p); err != nil {
		t.Fatalf("CreatePriority failed: %v", err)
	}

	p.Color = "magenta"
	if err := db.UpdatePriority(ctx, p); err != nil {
		t.Fatalf("UpdatePriority failed: %v", err)
	}
	got, err := db.GetPriority(ctx, p.ID)
	if err != nil || got == nil {
		t.Fatalf("GetPriority failed: %v", err)
	}
	if got.Color != "magenta" || got.Order != 5 {
		t.Errorf("Expected updated priority, got %+v", got)
	}

	if err := db.DeletePriority(ctx, p.ID); err != nil {
		t.Fatalf("DeletePriority failed: %v", err)
	}
	if got, _ := db.GetPriority(ctx, p.ID); got != nil {
		t.Errorf("Expected priority to be gone, got %+v", got)
	}

	if err := db.UpdateStatus(ctx, &model.TaskStatus{ID: "missing", Slug: "x", Name: "x"}); err == nil {
		t.Error("Expected error updating a missing status")
	}
}

func TestCommentsLoadedWithTask(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	u := mustUser(t, db, "a@example.com")
	p := mustProject(t, db, u.ID, "Project")
	task := mustTask(t, db, u.ID, p.ID, model.StatusToDo, "task")

	for _, content := range []string{"first", "second"} {
		if err := db.CreateComment(ctx, &model.Comment{TaskID: task.ID, UserID: u.ID, Content: content}); err != nil {
			t.Fatalf("CreateComment failed: %v", err)
		}
	}

	got, err := db.GetTaskWithComments(ctx, task.ID)
	if err != nil {
		t.Fatalf("GetTaskWithComments failed: %v", err)
	}
	if len(got.Comments) != 2 || got.Comments[0].Content != "first" {
		t.Fatalf("Expected two comments oldest first, got %+v", got.Comments)
	}
	if got.Comments[0].User == nil || got.Comments[0].User.ID != u.ID {
		t.Error("Expected comment author to be loaded")
	}

	if err := db.DeleteComment(ctx, got.Comments[0].ID); err != nil {
		t.Fatalf("DeleteComment failed: %v", err)
	}
	got, _ = db.GetTaskWithComments(ctx, task.ID)
	if len(got.Comments) != 1 {
		t.Errorf("Expected soft-deleted comment to be hidden, got %d", len(got.Comments))
	}
}
