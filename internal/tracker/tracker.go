// Package tracker implements the owner-checked create, read, update and
// delete operations on projects, tasks, comments and users.
package tracker

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/michal94mk/taskflow/internal/apperr"
	"github.com/michal94mk/taskflow/internal/db"
	"github.com/michal94mk/taskflow/internal/logging"
	"github.com/michal94mk/taskflow/internal/progress"
	"github.com/michal94mk/taskflow/internal/refdata"
)

const (
	ProjectsPerPage = 10
	TasksPerPage    = 15

	maxTitleLength       = 255
	maxDescriptionLength = 10000
	maxSearchLength      = 255
)

// Page is one page of a listing
type Page[T any] struct {
	Data     []T   `json:"data"`
	Page     int   `json:"current_page"`
	PerPage  int   `json:"per_page"`
	Total    int64 `json:"total"`
	LastPage int   `json:"last_page"`
}

func newPage[T any](data []T, page, perPage int, total int64) *Page[T] {
	if data == nil {
		data = []T{}
	}
	if page < 1 {
		page = 1
	}
	last := int((total + int64(perPage) - 1) / int64(perPage))
	if last < 1 {
		last = 1
	}
	return &Page[T]{Data: data, Page: page, PerPage: perPage, Total: total, LastPage: last}
}

// Service is the entry point for tracker operations
type Service struct {
	db       *db.DB
	refs     *refdata.Registry
	progress *progress.Maintainer
	validate *validator.Validate
	log      *logrus.Entry
}

// New creates a service
func New(database *db.DB, refs *refdata.Registry, maintainer *progress.Maintainer, log *logrus.Entry) *Service {
	return &Service{
		db:       database,
		refs:     refs,
		progress: maintainer,
		validate: validator.New(),
		log:      logging.OrDiscard(log).WithField("component", "tracker"),
	}
}

func tooLong(field string, max int) string {
	return fmt.Sprintf("The %s cannot be longer than %d characters.", strings.ReplaceAll(field, "_", " "), max)
}

// requireText trims *s in place and checks it is present and short enough
func requireText(ve *apperr.ValidationError, field string, s *string, max int, required string) {
	*s = strings.TrimSpace(*s)
	if *s == "" {
		ve.Add(field, required)
		return
	}
	if utf8.RuneCountInString(*s) > max {
		ve.Add(field, tooLong(field, max))
	}
}

// optionalText trims *s in place, turning blank text into nil
func optionalText(ve *apperr.ValidationError, field string, s **string, max int) {
	if *s == nil {
		return
	}
	v := strings.TrimSpace(**s)
	if v == "" {
		*s = nil
		return
	}
	if utf8.RuneCountInString(v) > max {
		ve.Add(field, tooLong(field, max))
	}
	*s = &v
}
