package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/michal94mk/taskflow/internal/app"
	"github.com/michal94mk/taskflow/internal/config"
	"github.com/michal94mk/taskflow/internal/seed"
)

// Wednesday
var testNow = time.Date(2024, 3, 13, 10, 0, 0, 0, time.UTC)

func TestParseQuickAdd(t *testing.T) {
	tests := []struct {
		input    string
		title    string
		project  string
		priority string
		due      string
	}{
		{"Buy milk", "Buy milk", "", "medium", ""},
		{"Review PR @website !high", "Review PR", "website", "high", ""},
		{"Fix bug !urgent due:tomorrow", "Fix bug", "", "critical", "2024-03-14"},
		{"Plan due:friday @ops", "Plan", "ops", "medium", "2024-03-15"},
		{"Ship due:2024-04-01 !l", "Ship", "", "low", "2024-04-01"},
		{"Wow !!! due:someday", "Wow !!! due:someday", "", "medium", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			qa := parseQuickAdd(tt.input, testNow)
			if qa.Title != tt.title {
				t.Errorf("Expected title %q, got %q", tt.title, qa.Title)
			}
			if qa.Project != tt.project {
				t.Errorf("Expected project %q, got %q", tt.project, qa.Project)
			}
			if qa.Priority != tt.priority {
				t.Errorf("Expected priority %q, got %q", tt.priority, qa.Priority)
			}
			var due string
			if qa.DueDate != nil {
				due = qa.DueDate.Format("2006-01-02")
			}
			if due != tt.due {
				t.Errorf("Expected due %q, got %q", tt.due, due)
			}
		})
	}
}

func TestParseNaturalDateWeekdayIsStrictlyAfterToday(t *testing.T) {
	got := parseNaturalDate("wed", testNow)
	if got == nil || got.Format("2006-01-02") != "2024-03-20" {
		t.Errorf("Expected next Wednesday 2024-03-20, got %v", got)
	}
	if got := parseNaturalDate("today", testNow); got.Hour() != 23 || got.Minute() != 59 {
		t.Errorf("Expected end of day, got %v", got)
	}
}

func TestProjectMatches(t *testing.T) {
	if !projectMatches("website-redesign", "Website Redesign") {
		t.Error("Expected dashes to match spaces")
	}
	if !projectMatches("TASKFLOW_development", "TaskFlow Development") {
		t.Error("Expected underscores and case to be ignored")
	}
	if projectMatches("web", "Website Redesign") {
		t.Error("Expected prefixes not to match")
	}
}

func TestFormatDueDate(t *testing.T) {
	tests := map[string]time.Time{
		"today":       testNow.Add(2 * time.Hour),
		"tomorrow":    testNow.AddDate(0, 0, 1),
		"Fri, Mar 15": testNow.AddDate(0, 0, 2),
		"Jan 5, 2025": time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC),
	}
	for want, in := range tests {
		if got := formatDueDate(in, testNow); got != want {
			t.Errorf("Expected %q, got %q", want, got)
		}
	}
}

func seededApp(t *testing.T) *app.App {
	t.Helper()
	cfg := config.Default()
	cfg.Database.Path = filepath.Join(t.TempDir(), "taskflow.db")
	cfg.Notify.Enabled = false

	a, err := app.New(cfg, nil)
	if err != nil {
		t.Fatalf("Failed to create app: %v", err)
	}
	t.Cleanup(func() { a.Close() })

	if _, err := seed.Run(context.Background(), a.Tracker, a.Refs, time.Now(), nil); err != nil {
		t.Fatalf("Failed to seed: %v", err)
	}
	return a
}

func TestQuickAddTaskCreatesInProject(t *testing.T) {
	a := seededApp(t)
	ctx := context.Background()

	qa := parseQuickAdd("Write release notes @taskflow-development !high", time.Now())
	task, err := quickAddTask(ctx, a, seed.DemoEmail, qa)
	if err != nil {
		t.Fatalf("Failed to quick add: %v", err)
	}

	if task.Project == nil || task.Project.Name != "TaskFlow Development" {
		t.Errorf("Expected TaskFlow Development, got %+v", task.Project)
	}
	if task.TaskPriority == nil || task.TaskPriority.Slug != "high" {
		t.Errorf("Expected high priority, got %+v", task.TaskPriority)
	}
	if task.StatusSlug() != "to_do" {
		t.Errorf("Expected to_do status, got %s", task.StatusSlug())
	}
}

func TestQuickAddTaskErrors(t *testing.T) {
	a := seededApp(t)
	ctx := context.Background()

	if _, err := quickAddTask(ctx, a, seed.DemoEmail, parseQuickAdd("No project", time.Now())); err == nil {
		t.Error("Expected error without a project")
	}
	if _, err := quickAddTask(ctx, a, seed.DemoEmail, parseQuickAdd("Task @nope", time.Now())); err == nil || !strings.Contains(err.Error(), "nope") {
		t.Errorf("Expected unknown project error, got %v", err)
	}
	if _, err := quickAddTask(ctx, a, "nobody@example.com", parseQuickAdd("Task @x", time.Now())); err == nil {
		t.Error("Expected error for unknown user")
	}
}

func TestVersionCommandSkipsConfig(t *testing.T) {
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"version", "--config", filepath.Join(t.TempDir(), "missing", "bad.yaml")})

	if err := root.Execute(); err != nil {
		t.Fatalf("Expected version to run, got %v", err)
	}
	if !strings.Contains(out.String(), "taskflow v") {
		t.Errorf("Expected version output, got %q", out.String())
	}
}

func TestConfigInitAndShow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "taskflow", "config.yaml")

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"config", "init", "--config", path})
	if err := root.Execute(); err != nil {
		t.Fatalf("Failed to init config: %v", err)
	}

	root = newRootCmd()
	root.SetArgs([]string{"config", "init", "--config", path})
	if err := root.Execute(); err == nil {
		t.Error("Expected init to refuse overwriting without --force")
	}

	out.Reset()
	root = newRootCmd()
	root.SetOut(&out)
	root.SetArgs([]string{"config", "show", "--config", path})
	if err := root.Execute(); err != nil {
		t.Fatalf("Failed to show config: %v", err)
	}
	if !strings.Contains(out.String(), "driver: sqlite") {
		t.Errorf("Expected driver in output, got %q", out.String())
	}
}
