package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/michal94mk/taskflow/internal/app"
	"github.com/michal94mk/taskflow/internal/model"
	"github.com/michal94mk/taskflow/internal/seed"
	"github.com/michal94mk/taskflow/internal/tracker"
	"github.com/spf13/cobra"
)

func (c *cli) addCmd() *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "add <task>",
		Short: "Quick add a task",
		Long: `Quick add a task from a single line.

  taskflow add "Review PR @website !high due:tomorrow"

  Project:   @name        (dashes match spaces: @website-redesign)
  Priority:  !low !medium !high !critical
  Due date:  due:today due:tomorrow due:friday due:2024-01-15`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			qa := parseQuickAdd(strings.Join(args, " "), time.Now())
			if qa.Title == "" {
				return fmt.Errorf("the task needs a title")
			}

			a, err := c.openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			task, err := quickAddTask(cmd.Context(), a, email, qa)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Created: %s\n", task.Title)
			if task.Project != nil {
				fmt.Fprintf(out, "Project: %s\n", task.Project.Name)
			}
			if task.DueDate != nil {
				fmt.Fprintf(out, "Due: %s\n", formatDueDate(*task.DueDate, time.Now()))
			}
			if task.TaskPriority != nil {
				fmt.Fprintf(out, "Priority: %s\n", task.TaskPriority.Name)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&email, "user", "u", seed.DemoEmail, "email of the task owner")
	return cmd
}

// quickAdd is a task line broken into its parts
type quickAdd struct {
	Title    string
	Project  string
	Priority string
	DueDate  *time.Time
}

var prioritySlugs = map[string]string{
	"low": "low", "l": "low",
	"medium": "medium", "med": "medium", "m": "medium",
	"high": "high", "hi": "high", "h": "high",
	"critical": "critical", "crit": "critical", "c": "critical", "urgent": "critical",
}

func parseQuickAdd(text string, now time.Time) quickAdd {
	qa := quickAdd{Priority: "medium"}

	var titleParts []string
	for _, word := range strings.Fields(text) {
		switch {
		case strings.HasPrefix(word, "@") && len(word) > 1:
			qa.Project = strings.TrimPrefix(word, "@")

		case strings.HasPrefix(word, "!"):
			if slug, ok := prioritySlugs[strings.ToLower(strings.TrimPrefix(word, "!"))]; ok {
				qa.Priority = slug
			} else {
				titleParts = append(titleParts, word)
			}

		case strings.HasPrefix(strings.ToLower(word), "due:"):
			if parsed := parseNaturalDate(word[len("due:"):], now); parsed != nil {
				qa.DueDate = parsed
			} else {
				titleParts = append(titleParts, word)
			}

		default:
			titleParts = append(titleParts, word)
		}
	}

	qa.Title = strings.Join(titleParts, " ")
	return qa
}

// projectMatches compares a quick-add project token with a project name,
// ignoring case and treating dashes and underscores as spaces
func projectMatches(token, name string) bool {
	norm := strings.NewReplacer("-", " ", "_", " ").Replace(token)
	return strings.EqualFold(strings.TrimSpace(norm), strings.TrimSpace(name))
}

func quickAddTask(ctx context.Context, a *app.App, email string, qa quickAdd) (*model.Task, error) {
	user, err := a.Tracker.UserByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to find user %s: %w", email, err)
	}
	if qa.Project == "" {
		return nil, fmt.Errorf("name a project with @project")
	}

	projects, err := a.Board.ProjectOptions(ctx, user)
	if err != nil {
		return nil, err
	}
	var projectID string
	for _, p := range projects {
		if projectMatches(qa.Project, p.Name) {
			projectID = p.ID
			break
		}
	}
	if projectID == "" {
		return nil, fmt.Errorf("no project named %q", qa.Project)
	}

	status, err := a.Refs.StatusBySlug(ctx, model.StatusToDo)
	if err != nil {
		return nil, err
	}
	priority, err := a.Refs.PriorityBySlug(ctx, qa.Priority)
	if err != nil {
		return nil, err
	}
	if status == nil || priority == nil {
		return nil, fmt.Errorf("reference data is missing the %q status or %q priority", model.StatusToDo, qa.Priority)
	}

	return a.Tracker.CreateTask(ctx, user, tracker.TaskInput{
		Title:          qa.Title,
		ProjectID:      projectID,
		TaskStatusID:   status.ID,
		TaskPriorityID: priority.ID,
		DueDate:        qa.DueDate,
	})
}

func parseNaturalDate(s string, now time.Time) *time.Time {
	today := time.Date(now.Year(), now.Month(), now.Day(), 23, 59, 59, 0, now.Location())

	switch strings.ToLower(s) {
	case "today":
		return &today
	case "tomorrow", "tom":
		t := today.AddDate(0, 0, 1)
		return &t
	case "nextweek":
		t := today.AddDate(0, 0, 7)
		return &t
	}

	weekdays := map[string]time.Weekday{
		"monday": time.Monday, "mon": time.Monday,
		"tuesday": time.Tuesday, "tue": time.Tuesday,
		"wednesday": time.Wednesday, "wed": time.Wednesday,
		"thursday": time.Thursday, "thu": time.Thursday,
		"friday": time.Friday, "fri": time.Friday,
		"saturday": time.Saturday, "sat": time.Saturday,
		"sunday": time.Sunday, "sun": time.Sunday,
	}
	if day, ok := weekdays[strings.ToLower(s)]; ok {
		return nextWeekday(today, day)
	}

	formats := []string{
		"2006-01-02",
		"01/02/2006",
		"01-02-2006",
	}
	for _, format := range formats {
		if t, err := time.ParseInLocation(format, s, now.Location()); err == nil {
			t = time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, now.Location())
			return &t
		}
	}

	return nil
}

// nextWeekday returns the next day strictly after today falling on day
func nextWeekday(today time.Time, day time.Weekday) *time.Time {
	daysUntil := int(day - today.Weekday())
	if daysUntil <= 0 {
		daysUntil += 7
	}
	t := today.AddDate(0, 0, daysUntil)
	return &t
}

func formatDueDate(t, now time.Time) string {
	t = t.In(now.Location())
	if t.Year() == now.Year() && t.YearDay() == now.YearDay() {
		return "today"
	}

	tomorrow := now.AddDate(0, 0, 1)
	if t.Year() == tomorrow.Year() && t.YearDay() == tomorrow.YearDay() {
		return "tomorrow"
	}

	if t.Year() == now.Year() {
		return t.Format("Mon, Jan 2")
	}
	return t.Format("Jan 2, 2006")
}
