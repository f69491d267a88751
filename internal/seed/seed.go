// Package seed loads a demo user with example projects and tasks.
package seed

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/michal94mk/taskflow/internal/apperr"
	"github.com/michal94mk/taskflow/internal/logging"
	"github.com/michal94mk/taskflow/internal/model"
	"github.com/michal94mk/taskflow/internal/refdata"
	"github.com/michal94mk/taskflow/internal/tracker"
)

const (
	DemoName  = "Test User"
	DemoEmail = "test@example.com"
)

type projectSeed struct {
	name, description string
	status            model.ProjectStatus
	startDays         int
	endDays           int
}

var projects = []projectSeed{
	{"TaskFlow Development", "Main project for TaskFlow application development", model.ProjectActive, -30, 60},
	{"Website Redesign", "Redesign company website with modern UI/UX", model.ProjectActive, -15, 30},
	{"Mobile App", "Develop mobile application for iOS and Android", model.ProjectOnHold, -10, 90},
}

type taskSeed struct {
	title, description string
	status, priority   string
	dueDays            int
	project            int // index into projects
}

var tasks = []taskSeed{
	{"Setup Laravel project", "Initialize Laravel project with all necessary packages", model.StatusCompleted, "high", -5, 0},
	{"Create database models", "Create Project, Task, and related models", model.StatusCompleted, "high", -3, 0},
	{"Implement dashboard", "Create dashboard with KPI cards and charts", model.StatusInProgress, "high", 2, 0},
	{"Design UI components", "Create reusable UI components for the application", model.StatusToDo, "medium", 5, 0},
	{"Write tests", "Add unit and feature tests for all functionality", model.StatusToDo, "medium", 7, 0},
	{"Fix responsive design", "Ensure all components work on mobile devices", model.StatusToDo, "low", 10, 1},
	{"Optimize performance", "Optimize database queries and frontend performance", model.StatusToDo, "low", 14, 1},
}

// Result reports what Run did
type Result struct {
	User     *model.User
	Projects int
	Tasks    int
	Skipped  bool // demo user already existed
}

// Run creates the demo data with dates relative to now. It does nothing
// when the demo user already exists.
func Run(ctx context.Context, svc *tracker.Service, refs *refdata.Registry, now time.Time, log *logrus.Entry) (*Result, error) {
	log = logging.OrDiscard(log).WithField("component", "seed")

	existing, err := svc.UserByEmail(ctx, DemoEmail)
	if err != nil && !apperr.IsNotFound(err) {
		return nil, err
	}
	if existing != nil {
		log.Info("demo user exists, skipping")
		return &Result{User: existing, Skipped: true}, nil
	}

	user, err := svc.CreateUser(ctx, DemoName, DemoEmail)
	if err != nil {
		return nil, err
	}
	res := &Result{User: user}

	day := func(offset int) *time.Time {
		t := now.UTC().AddDate(0, 0, offset)
		return &t
	}

	projectIDs := make([]string, len(projects))
	for i, ps := range projects {
		desc := ps.description
		p, err := svc.CreateProject(ctx, user, tracker.ProjectInput{
			Name:        ps.name,
			Description: &desc,
			Status:      ps.status,
			StartDate:   day(ps.startDays),
			EndDate:     day(ps.endDays),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to seed project %q: %w", ps.name, err)
		}
		projectIDs[i] = p.ID
		res.Projects++
	}

	for _, ts := range tasks {
		status, err := refs.StatusBySlug(ctx, ts.status)
		if err != nil {
			return nil, err
		}
		priority, err := refs.PriorityBySlug(ctx, ts.priority)
		if err != nil {
			return nil, err
		}
		if status == nil || priority == nil {
			return nil, fmt.Errorf("reference data missing %s/%s", ts.status, ts.priority)
		}

		desc := ts.description
		_, err = svc.CreateTask(ctx, user, tracker.TaskInput{
			Title:          ts.title,
			Description:    &desc,
			ProjectID:      projectIDs[ts.project],
			TaskStatusID:   status.ID,
			TaskPriorityID: priority.ID,
			DueDate:        day(ts.dueDays),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to seed task %q: %w", ts.title, err)
		}
		res.Tasks++
	}

	log.WithFields(logrus.Fields{"projects": res.Projects, "tasks": res.Tasks}).Info("demo data seeded")
	return res, nil
}
