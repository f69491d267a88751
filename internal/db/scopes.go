package db

import (
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/michal94mk/taskflow/internal/model"
)

// Scope is a composable query predicate, applied with gorm's Scopes
type Scope = func(*gorm.DB) *gorm.DB

// EscapeLike escapes the LIKE wildcards and the escape character itself
// so that s matches literally inside a pattern using ESCAPE '\'.
func EscapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func currentColumn(name string) clause.Column {
	return clause.Column{Table: clause.CurrentTable, Name: name}
}

// ForUser restricts rows to those owned by userID
func ForUser(userID string) Scope {
	return func(d *gorm.DB) *gorm.DB {
		return d.Where(clause.Eq{Column: currentColumn("user_id"), Value: userID})
	}
}

// ByProject restricts tasks to one project
func ByProject(projectID string) Scope {
	return func(d *gorm.DB) *gorm.DB {
		return d.Where("tasks.project_id = ?", projectID)
	}
}

// ByStatus restricts tasks to one status id
func ByStatus(statusID string) Scope {
	return func(d *gorm.DB) *gorm.DB {
		return d.Where("tasks.task_status_id = ?", statusID)
	}
}

// ByPriority restricts tasks to one priority id
func ByPriority(priorityID string) Scope {
	return func(d *gorm.DB) *gorm.DB {
		return d.Where("tasks.task_priority_id = ?", priorityID)
	}
}

func statusIDsWithSlug(d *gorm.DB, slug string) *gorm.DB {
	return d.Session(&gorm.Session{NewDB: true}).
		Model(&model.TaskStatus{}).
		Select("id").
		Where("slug = ?", slug)
}

// WithStatusSlug restricts tasks to the status identified by slug
func WithStatusSlug(slug string) Scope {
	return func(d *gorm.DB) *gorm.DB {
		return d.Where("tasks.task_status_id IN (?)", statusIDsWithSlug(d, slug))
	}
}

// WithoutStatusSlug excludes tasks in the status identified by slug
func WithoutStatusSlug(slug string) Scope {
	return func(d *gorm.DB) *gorm.DB {
		return d.Where("tasks.task_status_id NOT IN (?)", statusIDsWithSlug(d, slug))
	}
}

// Overdue selects tasks due before now that are not completed
func Overdue(now time.Time) Scope {
	return func(d *gorm.DB) *gorm.DB {
		return d.Where("tasks.due_date < ?", now).
			Scopes(WithoutStatusSlug(model.StatusCompleted))
	}
}

// Matching selects rows where any of cols contains text literally.
// An empty text matches everything.
func Matching(text string, cols ...string) Scope {
	return func(d *gorm.DB) *gorm.DB {
		if text == "" || len(cols) == 0 {
			return d
		}

		op := "LIKE"
		if d.Dialector.Name() == DriverPostgres {
			op = "ILIKE"
		}

		pattern := "%" + EscapeLike(text) + "%"
		parts := make([]string, len(cols))
		args := make([]interface{}, len(cols))
		for i, col := range cols {
			parts[i] = col + " " + op + ` ? ESCAPE '\'`
			args[i] = pattern
		}
		return d.Where("("+strings.Join(parts, " OR ")+")", args...)
	}
}

// Latest orders rows newest first
func Latest(d *gorm.DB) *gorm.DB {
	return d.Order(clause.OrderByColumn{Column: currentColumn("created_at"), Desc: true})
}

// Paginate applies a 1-based page window
func Paginate(page, perPage int) Scope {
	return func(d *gorm.DB) *gorm.DB {
		if page < 1 {
			page = 1
		}
		if perPage < 1 {
			perPage = 15
		}
		return d.Offset((page - 1) * perPage).Limit(perPage)
	}
}
