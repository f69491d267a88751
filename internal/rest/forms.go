package rest

import (
	"strings"
	"time"

	"github.com/michal94mk/taskflow/internal/apperr"
	"github.com/michal94mk/taskflow/internal/model"
	"github.com/michal94mk/taskflow/internal/tracker"
)

const dateLayout = "2006-01-02"

// parseDate accepts a calendar date or an RFC 3339 timestamp. Blank means
// no date.
func parseDate(ve *apperr.ValidationError, field string, raw *string) *time.Time {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil
	}
	s := strings.TrimSpace(*raw)
	if t, err := time.Parse(dateLayout, s); err == nil {
		return &t
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t
	}
	ve.Add(field, "The "+strings.ReplaceAll(field, "_", " ")+" is not a valid date.")
	return nil
}

type projectRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
	Status      string  `json:"status"`
	StartDate   *string `json:"start_date"`
	EndDate     *string `json:"end_date"`
}

func (r projectRequest) input() (tracker.ProjectInput, error) {
	ve := apperr.NewValidationError()
	in := tracker.ProjectInput{
		Name:        r.Name,
		Description: r.Description,
		Status:      model.ProjectStatus(r.Status),
		StartDate:   parseDate(ve, "start_date", r.StartDate),
		EndDate:     parseDate(ve, "end_date", r.EndDate),
	}
	return in, ve.OrNil()
}

type taskRequest struct {
	Title          string  `json:"title"`
	Description    *string `json:"description"`
	ProjectID      string  `json:"project_id"`
	TaskStatusID   string  `json:"task_status_id"`
	TaskPriorityID string  `json:"task_priority_id"`
	DueDate        *string `json:"due_date"`
	AssignedTo     *string `json:"assigned_to"`
}

func (r taskRequest) input() (tracker.TaskInput, error) {
	ve := apperr.NewValidationError()
	in := tracker.TaskInput{
		Title:          r.Title,
		Description:    r.Description,
		ProjectID:      r.ProjectID,
		TaskStatusID:   r.TaskStatusID,
		TaskPriorityID: r.TaskPriorityID,
		DueDate:        parseDate(ve, "due_date", r.DueDate),
		AssignedTo:     r.AssignedTo,
	}
	return in, ve.OrNil()
}

type commentRequest struct {
	Content string `json:"content"`
}

type moveRequest struct {
	TaskStatusID string `json:"task_status_id"`
}
