package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/michal94mk/taskflow/internal/app"
	"github.com/michal94mk/taskflow/internal/config"
	"github.com/michal94mk/taskflow/internal/model"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fixture struct {
	app      *app.App
	router   *gin.Engine
	owner    *model.User
	stranger *model.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := config.Default()
	cfg.Database.Path = filepath.Join(t.TempDir(), "taskflow.db")

	a, err := app.New(cfg, nil)
	if err != nil {
		t.Fatalf("Failed to create app: %v", err)
	}
	t.Cleanup(func() { a.Close() })

	ctx := context.Background()
	owner, err := a.Tracker.CreateUser(ctx, "Owner", "owner@example.com")
	if err != nil {
		t.Fatalf("Failed to create owner: %v", err)
	}
	stranger, err := a.Tracker.CreateUser(ctx, "Stranger", "stranger@example.com")
	if err != nil {
		t.Fatalf("Failed to create stranger: %v", err)
	}

	return &fixture{app: a, router: NewRouter(a, nil), owner: owner, stranger: stranger}
}

func (f *fixture) do(t *testing.T, user *model.User, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("Failed to encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if user != nil {
		req.Header.Set("Authorization", "Bearer "+user.APIToken)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("Failed to decode response %q: %v", w.Body.String(), err)
	}
}

func expectStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	if w.Code != want {
		t.Fatalf("Expected status %d, got %d: %s", want, w.Code, w.Body.String())
	}
}

func (f *fixture) statusID(t *testing.T, slug string) string {
	t.Helper()
	s, err := f.app.Refs.StatusBySlug(context.Background(), slug)
	if err != nil || s == nil {
		t.Fatalf("Failed to find status %s: %v", slug, err)
	}
	return s.ID
}

func (f *fixture) priorityID(t *testing.T, slug string) string {
	t.Helper()
	p, err := f.app.Refs.PriorityBySlug(context.Background(), slug)
	if err != nil || p == nil {
		t.Fatalf("Failed to find priority %s: %v", slug, err)
	}
	return p.ID
}

func (f *fixture) createProject(t *testing.T, name string) string {
	t.Helper()
	w := f.do(t, f.owner, http.MethodPost, "/api/projects", gin.H{"name": name})
	expectStatus(t, w, http.StatusCreated)
	var p struct {
		ID string `json:"id"`
	}
	decode(t, w, &p)
	return p.ID
}

func (f *fixture) createTask(t *testing.T, projectID, title string) string {
	t.Helper()
	w := f.do(t, f.owner, http.MethodPost, "/api/tasks", gin.H{
		"title":            title,
		"project_id":       projectID,
		"task_status_id":   f.statusID(t, model.StatusToDo),
		"task_priority_id": f.priorityID(t, "high"),
		"due_date":         "2030-01-02",
	})
	expectStatus(t, w, http.StatusCreated)
	var task struct {
		ID string `json:"id"`
	}
	decode(t, w, &task)
	return task.ID
}

func TestHealth(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, nil, http.MethodGet, "/health", nil)
	expectStatus(t, w, http.StatusOK)
	if !strings.Contains(w.Body.String(), `"ok"`) {
		t.Errorf("Unexpected health body %s", w.Body.String())
	}
}

func TestAuthentication(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, nil, http.MethodGet, "/api/statuses", nil)
	expectStatus(t, w, http.StatusUnauthorized)

	bogus := &model.User{APIToken: "nope"}
	w = f.do(t, bogus, http.MethodGet, "/api/statuses", nil)
	expectStatus(t, w, http.StatusUnauthorized)

	var body ErrorResponse
	decode(t, w, &body)
	if body.Message != msgUnauthenticated {
		t.Errorf("Expected %q, got %q", msgUnauthenticated, body.Message)
	}
}

func TestReferenceList(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, f.owner, http.MethodGet, "/api/statuses", nil)
	expectStatus(t, w, http.StatusOK)
	var statuses []model.TaskStatus
	decode(t, w, &statuses)
	if len(statuses) != 4 || statuses[0].Slug != model.StatusToDo {
		t.Fatalf("Expected 4 statuses starting with to_do, got %+v", statuses)
	}
}

func TestReferenceDataIsReadOnlyOverHTTP(t *testing.T) {
	f := newFixture(t)

	completedID := f.statusID(t, model.StatusCompleted)
	w := f.do(t, f.stranger, http.MethodPatch, "/api/statuses/"+completedID, gin.H{"slug": "done"})
	expectStatus(t, w, http.StatusForbidden)

	highID := f.priorityID(t, "high")
	w = f.do(t, f.owner, http.MethodPatch, "/api/priorities/"+highID, gin.H{"color": "purple"})
	expectStatus(t, w, http.StatusForbidden)

	w = f.do(t, f.owner, http.MethodGet, "/api/statuses", nil)
	var statuses []model.TaskStatus
	decode(t, w, &statuses)
	found := false
	for _, s := range statuses {
		if s.ID == completedID {
			found = true
			if s.Slug != model.StatusCompleted {
				t.Errorf("Expected completed slug to be kept, got %q", s.Slug)
			}
		}
	}
	if !found {
		t.Error("Expected completed status in list")
	}

	w = f.do(t, f.owner, http.MethodGet, "/api/priorities", nil)
	var priorities []model.TaskPriority
	decode(t, w, &priorities)
	for _, p := range priorities {
		if p.ID == highID && p.Color == "purple" {
			t.Errorf("Expected priority color to be unchanged, got %+v", p)
		}
	}
}

func TestProjectValidationShape(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, f.owner, http.MethodPost, "/api/projects", gin.H{
		"name":       "",
		"start_date": "2026-03-10",
		"end_date":   "2026-03-01",
	})
	expectStatus(t, w, http.StatusUnprocessableEntity)

	var body ErrorResponse
	decode(t, w, &body)
	if body.Errors["name"] != "The project name is required." {
		t.Errorf("Unexpected name error %q", body.Errors["name"])
	}
	if body.Errors["end_date"] == "" {
		t.Error("Expected end_date error")
	}

	w = f.do(t, f.owner, http.MethodPost, "/api/projects", gin.H{"name": "x", "start_date": "tomorrow"})
	expectStatus(t, w, http.StatusUnprocessableEntity)
	decode(t, w, &body)
	if body.Errors["start_date"] == "" {
		t.Error("Expected start_date parse error")
	}
}

func TestProjectLifecycle(t *testing.T) {
	f := newFixture(t)
	id := f.createProject(t, "Website")

	w := f.do(t, f.owner, http.MethodGet, "/api/projects", nil)
	expectStatus(t, w, http.StatusOK)
	var page struct {
		Data        []map[string]interface{} `json:"data"`
		Total       int                      `json:"total"`
		CurrentPage int                      `json:"current_page"`
	}
	decode(t, w, &page)
	if page.Total != 1 || page.CurrentPage != 1 || len(page.Data) != 1 {
		t.Fatalf("Unexpected page %+v", page)
	}
	if _, ok := page.Data[0]["progress"]; !ok {
		t.Error("Expected progress in project JSON")
	}

	w = f.do(t, f.owner, http.MethodPut, "/api/projects/"+id, gin.H{"name": "Renamed", "status": "completed"})
	expectStatus(t, w, http.StatusOK)

	w = f.do(t, f.stranger, http.MethodGet, "/api/projects/"+id, nil)
	expectStatus(t, w, http.StatusForbidden)

	w = f.do(t, f.owner, http.MethodDelete, "/api/projects/"+id, nil)
	expectStatus(t, w, http.StatusNoContent)

	w = f.do(t, f.owner, http.MethodGet, "/api/projects/"+id, nil)
	expectStatus(t, w, http.StatusNotFound)
}

func TestTaskLifecycleAndComments(t *testing.T) {
	f := newFixture(t)
	projectID := f.createProject(t, "Website")
	taskID := f.createTask(t, projectID, "Fix header")

	w := f.do(t, f.owner, http.MethodGet, "/api/tasks?search=header", nil)
	expectStatus(t, w, http.StatusOK)
	var page struct {
		Total int `json:"total"`
	}
	decode(t, w, &page)
	if page.Total != 1 {
		t.Errorf("Expected 1 matching task, got %d", page.Total)
	}

	w = f.do(t, f.stranger, http.MethodGet, "/api/tasks/"+taskID, nil)
	expectStatus(t, w, http.StatusForbidden)

	w = f.do(t, f.owner, http.MethodPost, "/api/tasks/"+taskID+"/comments", gin.H{"content": "on it"})
	expectStatus(t, w, http.StatusCreated)
	var comment struct {
		ID string `json:"id"`
	}
	decode(t, w, &comment)

	w = f.do(t, f.stranger, http.MethodPatch, "/api/comments/"+comment.ID, gin.H{"content": "mine now"})
	expectStatus(t, w, http.StatusForbidden)

	w = f.do(t, f.owner, http.MethodGet, "/api/tasks/"+taskID, nil)
	expectStatus(t, w, http.StatusOK)
	var task model.Task
	decode(t, w, &task)
	if len(task.Comments) != 1 || task.Comments[0].Content != "on it" {
		t.Errorf("Expected the comment on the task, got %+v", task.Comments)
	}
	if task.DueDate == nil || task.DueDate.Format("2006-01-02") != "2030-01-02" {
		t.Errorf("Expected due date 2030-01-02, got %v", task.DueDate)
	}

	w = f.do(t, f.owner, http.MethodDelete, "/api/comments/"+comment.ID, nil)
	expectStatus(t, w, http.StatusNoContent)

	w = f.do(t, f.owner, http.MethodDelete, "/api/tasks/"+taskID, nil)
	expectStatus(t, w, http.StatusNoContent)
	w = f.do(t, f.owner, http.MethodGet, "/api/tasks/"+taskID, nil)
	expectStatus(t, w, http.StatusNotFound)
}

func TestKanbanMove(t *testing.T) {
	f := newFixture(t)
	projectID := f.createProject(t, "Board")
	taskID := f.createTask(t, projectID, "Move me")

	w := f.do(t, f.owner, http.MethodGet, "/api/kanban?project_id="+projectID, nil)
	expectStatus(t, w, http.StatusOK)
	var board boardResponse
	decode(t, w, &board)
	if len(board.Columns) != 4 || len(board.Columns[0].Tasks) != 1 {
		t.Fatalf("Expected the task in the first of 4 columns, got %+v", board.Columns)
	}
	if len(board.Projects) != 1 {
		t.Errorf("Expected 1 project option, got %d", len(board.Projects))
	}

	completed := f.statusID(t, model.StatusCompleted)
	w = f.do(t, f.owner, http.MethodPatch, "/api/kanban/"+taskID+"/status", gin.H{"task_status_id": completed})
	expectStatus(t, w, http.StatusOK)

	w = f.do(t, f.stranger, http.MethodPatch, "/api/kanban/"+taskID+"/status", gin.H{"task_status_id": completed})
	expectStatus(t, w, http.StatusForbidden)

	w = f.do(t, f.owner, http.MethodPatch, "/api/kanban/"+taskID+"/status", gin.H{"task_status_id": "nope"})
	expectStatus(t, w, http.StatusUnprocessableEntity)

	w = f.do(t, f.owner, http.MethodGet, "/api/projects/"+projectID, nil)
	var detail struct {
		Progress int `json:"progress"`
	}
	decode(t, w, &detail)
	if detail.Progress != 100 {
		t.Errorf("Expected progress 100 after completing the only task, got %d", detail.Progress)
	}
}

func TestDashboardAndSearch(t *testing.T) {
	f := newFixture(t)
	projectID := f.createProject(t, "Website")
	f.createTask(t, projectID, "Fix 100% width")

	w := f.do(t, f.owner, http.MethodGet, "/api/dashboard", nil)
	expectStatus(t, w, http.StatusOK)
	var dash struct {
		KPIs struct {
			Total int `json:"total"`
		} `json:"kpis"`
		Timeline []interface{} `json:"timeline"`
	}
	decode(t, w, &dash)
	if dash.KPIs.Total != 1 {
		t.Errorf("Expected 1 task in KPIs, got %d", dash.KPIs.Total)
	}
	if len(dash.Timeline) != 30 {
		t.Errorf("Expected 30 timeline points, got %d", len(dash.Timeline))
	}

	w = f.do(t, f.owner, http.MethodGet, "/api/dashboard/timeline?days=7", nil)
	expectStatus(t, w, http.StatusOK)
	var points []interface{}
	decode(t, w, &points)
	if len(points) != 7 {
		t.Errorf("Expected 7 points, got %d", len(points))
	}

	w = f.do(t, f.owner, http.MethodGet, "/api/dashboard/timeline?days=week", nil)
	expectStatus(t, w, http.StatusUnprocessableEntity)

	w = f.do(t, f.owner, http.MethodGet, "/api/search?q=100%25", nil)
	expectStatus(t, w, http.StatusOK)
	var results struct {
		Tasks []struct {
			URL string `json:"url"`
		} `json:"tasks"`
		Projects []interface{} `json:"projects"`
	}
	decode(t, w, &results)
	if len(results.Tasks) != 1 || !strings.HasPrefix(results.Tasks[0].URL, "/tasks/") {
		t.Errorf("Expected one task hit with a task URL, got %+v", results.Tasks)
	}
	if results.Projects == nil {
		t.Error("Expected an empty project list rather than null")
	}

	w = f.do(t, f.owner, http.MethodGet, "/api/search?q="+strings.Repeat("a", 256), nil)
	expectStatus(t, w, http.StatusUnprocessableEntity)
}
