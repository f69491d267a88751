// Package search finds a user's tasks and projects by literal substring.
package search

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"github.com/michal94mk/taskflow/internal/apperr"
	"github.com/michal94mk/taskflow/internal/db"
	"github.com/michal94mk/taskflow/internal/logging"
	"github.com/michal94mk/taskflow/internal/model"
)

const (
	// DefaultMaxQueryLength is the longest query, in characters, accepted
	// when the config sets none
	DefaultMaxQueryLength = 255
	// DefaultLimit is how many hits of each type a search returns
	DefaultLimit = 5

	// Values of ResultRow.Type
	TypeTask    = "task"
	TypeProject = "project"
)

// ResultRow is one hit, shaped the same for tasks and projects
type ResultRow struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description *string `json:"description"`
	Type        string  `json:"type"`
	URL         string  `json:"url"`
	Project     string  `json:"project,omitempty"`
	Status      string  `json:"status,omitempty"`
	Priority    string  `json:"priority,omitempty"`
}

// Results holds the hits per category
type Results struct {
	Tasks    []ResultRow `json:"tasks"`
	Projects []ResultRow `json:"projects"`
}

// Searcher runs owner-scoped searches
type Searcher struct {
	db        *db.DB
	log       *logrus.Entry
	maxLength int
	limit     int
}

// New creates a searcher. Non-positive maxLength or limit select the defaults.
func New(database *db.DB, maxLength, limit int, log *logrus.Entry) *Searcher {
	if maxLength <= 0 {
		maxLength = DefaultMaxQueryLength
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Searcher{
		db:        database,
		log:       logging.OrDiscard(log).WithField("component", "search"),
		maxLength: maxLength,
		limit:     limit,
	}
}

func empty() *Results {
	return &Results{Tasks: []ResultRow{}, Projects: []ResultRow{}}
}

// Search matches query against task title/description and project
// name/description. Wildcards in query match literally. A blank query
// returns no results without touching storage.
func (s *Searcher) Search(ctx context.Context, user *model.User, query string) (*Results, error) {
	if utf8.RuneCountInString(query) > s.maxLength {
		return nil, apperr.Invalid("q", fmt.Sprintf("The search query cannot be longer than %d characters.", s.maxLength))
	}

	query = strings.TrimSpace(query)
	if query == "" {
		return empty(), nil
	}

	tasks, err := s.db.FindTasks(ctx, s.limit,
		db.ForUser(user.ID),
		db.Matching(query, "tasks.title", "tasks.description"))
	if err != nil {
		return nil, err
	}

	projects, err := s.db.FindProjects(ctx, s.limit,
		db.ForUser(user.ID),
		db.Matching(query, "projects.name", "projects.description"))
	if err != nil {
		return nil, err
	}

	res := empty()
	for _, t := range tasks {
		res.Tasks = append(res.Tasks, taskRow(t))
	}
	for _, p := range projects {
		res.Projects = append(res.Projects, projectRow(p))
	}

	s.log.WithFields(logrus.Fields{
		"tasks":    len(res.Tasks),
		"projects": len(res.Projects),
	}).Debug("search finished")

	return res, nil
}

func taskRow(t model.Task) ResultRow {
	row := ResultRow{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Type:        TypeTask,
		URL:         "/tasks/" + t.ID,
	}
	if t.Project != nil {
		row.Project = t.Project.Name
	}
	if t.TaskStatus != nil {
		row.Status = t.TaskStatus.Name
	}
	if t.TaskPriority != nil {
		row.Priority = t.TaskPriority.Name
	}
	return row
}

func projectRow(p model.Project) ResultRow {
	return ResultRow{
		ID:          p.ID,
		Title:       p.Name,
		Description: p.Description,
		Type:        TypeProject,
		URL:         "/projects/" + p.ID,
		Status:      string(p.Status),
	}
}
