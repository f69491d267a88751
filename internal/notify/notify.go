// Package notify sends desktop notifications through notify-send.
package notify

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/michal94mk/taskflow/internal/logging"
	"github.com/michal94mk/taskflow/internal/model"
)

// Urgency levels for notifications
type Urgency int

const (
	UrgencyLow Urgency = iota
	UrgencyNormal
	UrgencyCritical
)

// Notification represents a desktop notification
type Notification struct {
	Title   string
	Body    string
	Urgency Urgency
	Timeout time.Duration
	Icon    string // Optional icon name
}

// Runner executes a command. Tests swap it for a recorder.
type Runner func(ctx context.Context, name string, args ...string) error

func execRunner(ctx context.Context, name string, args ...string) error {
	return exec.CommandContext(ctx, name, args...).Run()
}

// Notifier handles sending desktop notifications
type Notifier struct {
	enabled bool
	run     Runner
	log     *logrus.Entry
}

// NewNotifier creates a notifier that shells out to notify-send
func NewNotifier(log *logrus.Entry) *Notifier {
	return &Notifier{
		enabled: true,
		run:     execRunner,
		log:     logging.OrDiscard(log).WithField("component", "notify"),
	}
}

// WithRunner replaces the command runner
func (n *Notifier) WithRunner(r Runner) *Notifier {
	n.run = r
	return n
}

// SetEnabled enables or disables notifications
func (n *Notifier) SetEnabled(enabled bool) {
	n.enabled = enabled
}

// IsEnabled returns whether notifications are enabled
func (n *Notifier) IsEnabled() bool {
	return n.enabled
}

func (n Notification) args() []string {
	args := []string{}

	switch n.Urgency {
	case UrgencyLow:
		args = append(args, "-u", "low")
	case UrgencyCritical:
		args = append(args, "-u", "critical")
	default:
		args = append(args, "-u", "normal")
	}

	// milliseconds
	if n.Timeout > 0 {
		args = append(args, "-t", strconv.Itoa(int(n.Timeout.Milliseconds())))
	}
	if n.Icon != "" {
		args = append(args, "-i", n.Icon)
	}
	args = append(args, "-a", "taskflow")

	args = append(args, n.Title)
	if n.Body != "" {
		args = append(args, n.Body)
	}
	return args
}

// Send sends a desktop notification using notify-send
func (n *Notifier) Send(ctx context.Context, notification Notification) error {
	if !n.enabled {
		return nil
	}
	if err := n.run(ctx, "notify-send", notification.args()...); err != nil {
		return fmt.Errorf("failed to send notification: %w", err)
	}
	return nil
}

// overdueBody describes how late a task is, in whole days
func overdueBody(t model.Task, now time.Time) string {
	project := ""
	if t.Project != nil {
		project = t.Project.Name + ": "
	}
	days := int(now.Sub(*t.DueDate).Hours() / 24)
	switch days {
	case 0:
		return project + "due today"
	case 1:
		return project + "overdue by 1 day"
	default:
		return fmt.Sprintf("%soverdue by %d days", project, days)
	}
}

// SendOverdueReminder sends a critical notification for one overdue task
func (n *Notifier) SendOverdueReminder(ctx context.Context, t model.Task, now time.Time) error {
	if !t.IsOverdueAt(now) {
		return nil
	}
	return n.Send(ctx, Notification{
		Title:   t.Title,
		Body:    overdueBody(t, now),
		Urgency: UrgencyCritical,
		Timeout: 15 * time.Second,
		Icon:    "emblem-important-symbolic",
	})
}

// RemindOverdue notifies once per overdue task and returns how many were
// sent. It keeps going after a failed send and returns the first error.
func (n *Notifier) RemindOverdue(ctx context.Context, tasks []model.Task, now time.Time) (int, error) {
	if !n.enabled {
		return 0, nil
	}

	var sent int
	var firstErr error
	for _, t := range tasks {
		if !t.IsOverdueAt(now) {
			continue
		}
		if err := n.SendOverdueReminder(ctx, t, now); err != nil {
			n.log.WithError(err).WithField("task_id", t.ID).Warn("reminder failed")
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		sent++
	}
	return sent, firstErr
}
