// Package analytics computes the dashboard figures for one user: KPI
// counts, status and priority breakdowns and a rolling daily timeline.
package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/michal94mk/taskflow/internal/apperr"
	"github.com/michal94mk/taskflow/internal/db"
	"github.com/michal94mk/taskflow/internal/logging"
	"github.com/michal94mk/taskflow/internal/model"
)

const (
	// DefaultTimelineDays is the timeline length used when none is given
	DefaultTimelineDays = 30
	// MaxTimelineDays is the longest timeline a caller may ask for
	MaxTimelineDays = 365
	// RecentLimit caps the recent task and project lists on the dashboard
	RecentLimit = 5

	dateLayout = "2006-01-02"
)

// KPIs are the headline task counts
type KPIs struct {
	Total      int64 `json:"total"`
	Completed  int64 `json:"completed"`
	InProgress int64 `json:"in_progress"`
	Overdue    int64 `json:"overdue"`
}

// ChartRow is the task count of one status or priority
type ChartRow struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
	Count int64  `json:"count"`
}

// Charts holds both breakdowns, each in reference order
type Charts struct {
	ByStatus   []ChartRow `json:"by_status"`
	ByPriority []ChartRow `json:"by_priority"`
}

// TimelinePoint is the activity of one calendar day (UTC)
type TimelinePoint struct {
	Date      string `json:"date"`
	Created   int64  `json:"created"`
	Completed int64  `json:"completed"`
}

// Dashboard bundles everything the dashboard screen shows
type Dashboard struct {
	KPIs           KPIs            `json:"kpis"`
	RecentTasks    []model.Task    `json:"recent_tasks"`
	RecentProjects []model.Project `json:"recent_projects"`
	Charts         Charts          `json:"charts"`
	Timeline       []TimelinePoint `json:"timeline"`
}

// Engine answers analytics queries
type Engine struct {
	db           *db.DB
	log          *logrus.Entry
	now          func() time.Time
	timelineDays int
}

// New creates an engine using the wall clock
func New(database *db.DB, log *logrus.Entry) *Engine {
	return &Engine{
		db:           database,
		log:          logging.OrDiscard(log).WithField("component", "analytics"),
		now:          time.Now,
		timelineDays: DefaultTimelineDays,
	}
}

// WithClock replaces the clock used for "now" and "today"
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// WithTimelineDays sets the window used when Timeline is called with days <= 0
func (e *Engine) WithTimelineDays(days int) *Engine {
	if days > 0 && days <= MaxTimelineDays {
		e.timelineDays = days
	}
	return e
}

// KPIs counts the user's tasks: all, completed, in progress and overdue
func (e *Engine) KPIs(ctx context.Context, user *model.User) (*KPIs, error) {
	owner := db.ForUser(user.ID)
	var (
		k   KPIs
		err error
	)

	if k.Total, err = e.db.CountTasks(ctx, owner); err != nil {
		return nil, err
	}
	if k.Completed, err = e.db.CountTasks(ctx, owner, db.WithStatusSlug(model.StatusCompleted)); err != nil {
		return nil, err
	}
	if k.InProgress, err = e.db.CountTasks(ctx, owner, db.WithStatusSlug(model.StatusInProgress)); err != nil {
		return nil, err
	}
	if k.Overdue, err = e.db.CountTasks(ctx, owner, db.Overdue(e.now().UTC())); err != nil {
		return nil, err
	}

	return &k, nil
}

// Charts groups the user's tasks by status and by priority. Only entities
// with at least one task appear.
func (e *Engine) Charts(ctx context.Context, user *model.User) (*Charts, error) {
	byStatus, err := e.db.CountTasksByStatus(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	byPriority, err := e.db.CountTasksByPriority(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return &Charts{ByStatus: chartRows(byStatus), ByPriority: chartRows(byPriority)}, nil
}

func chartRows(groups []db.GroupCount) []ChartRow {
	rows := make([]ChartRow, len(groups))
	for i, g := range groups {
		rows[i] = ChartRow{ID: g.ID, Name: g.Name, Color: g.Color, Count: g.Count}
	}
	return rows
}

// Timeline returns one point per day from today-(days-1) through today,
// ascending and zero-filled. Completed counts tasks currently in the
// completed status by the day they were last updated.
func (e *Engine) Timeline(ctx context.Context, user *model.User, days int) ([]TimelinePoint, error) {
	if days <= 0 {
		days = e.timelineDays
	}
	if days > MaxTimelineDays {
		return nil, apperr.Invalid("days", fmt.Sprintf("The timeline cannot span more than %d days.", MaxTimelineDays))
	}

	now := e.now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	start := today.AddDate(0, 0, -(days - 1))
	end := today.AddDate(0, 0, 1)

	owner := db.ForUser(user.ID)
	created, err := e.db.CountTasksByDay(ctx, "created_at", start, end, owner)
	if err != nil {
		return nil, err
	}
	completed, err := e.db.CountTasksByDay(ctx, "updated_at", start, end, owner, db.WithStatusSlug(model.StatusCompleted))
	if err != nil {
		return nil, err
	}

	points := make([]TimelinePoint, days)
	for i := range points {
		day := start.AddDate(0, 0, i).Format(dateLayout)
		points[i] = TimelinePoint{Date: day, Created: created[day], Completed: completed[day]}
	}
	return points, nil
}

// RecentTasks returns the user's newest tasks with relationships loaded
func (e *Engine) RecentTasks(ctx context.Context, user *model.User, limit int) ([]model.Task, error) {
	if limit <= 0 {
		limit = RecentLimit
	}
	return e.db.FindTasks(ctx, limit, db.ForUser(user.ID), db.Latest)
}

// RecentProjects returns the user's newest projects with their task counts
func (e *Engine) RecentProjects(ctx context.Context, user *model.User, limit int) ([]model.Project, error) {
	if limit <= 0 {
		limit = RecentLimit
	}
	return e.db.RecentProjects(ctx, user.ID, limit)
}

// Dashboard gathers KPIs, recent items, breakdowns and the default timeline
func (e *Engine) Dashboard(ctx context.Context, user *model.User) (*Dashboard, error) {
	kpis, err := e.KPIs(ctx, user)
	if err != nil {
		return nil, err
	}
	tasks, err := e.RecentTasks(ctx, user, RecentLimit)
	if err != nil {
		return nil, err
	}
	projects, err := e.RecentProjects(ctx, user, RecentLimit)
	if err != nil {
		return nil, err
	}
	charts, err := e.Charts(ctx, user)
	if err != nil {
		return nil, err
	}
	timeline, err := e.Timeline(ctx, user, 0)
	if err != nil {
		return nil, err
	}

	e.log.WithField("user_id", user.ID).Debug("dashboard assembled")

	return &Dashboard{
		KPIs:           *kpis,
		RecentTasks:    tasks,
		RecentProjects: projects,
		Charts:         *charts,
		Timeline:       timeline,
	}, nil
}
