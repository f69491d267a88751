// Package refdata serves the task status and priority taxonomies from a
// read-through TTL cache that is invalidated by every write.
package refdata

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/michal94mk/taskflow/internal/apperr"
	"github.com/michal94mk/taskflow/internal/db"
	"github.com/michal94mk/taskflow/internal/logging"
	"github.com/michal94mk/taskflow/internal/model"
)

const (
	// KeyStatuses is the cache key of the status list
	KeyStatuses = "task_statuses.all"
	// KeyPriorities is the cache key of the priority list
	KeyPriorities = "task_priorities.all"

	// DefaultTTL is how long a cached list lives when New gets no ttl
	DefaultTTL = time.Hour
)

// Registry is the shared handle to the reference taxonomies
type Registry struct {
	db    *db.DB
	cache *cache.Cache
	log   *logrus.Entry
}

// New creates a registry whose entries live for ttl (DefaultTTL when zero)
func New(database *db.DB, ttl time.Duration, log *logrus.Entry) *Registry {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Registry{
		db:    database,
		cache: cache.New(ttl, 2*ttl),
		log:   logging.OrDiscard(log).WithField("component", "refdata"),
	}
}

// load returns the cached list under key, rebuilding it on a miss.
// Concurrent misses may both rebuild; the result is the same.
func load[T any](ctx context.Context, r *Registry, key string, fetch func(context.Context) ([]T, error)) ([]T, error) {
	if v, ok := r.cache.Get(key); ok {
		return clone(v.([]T)), nil
	}

	r.log.WithField("key", key).Debug("reference cache miss")
	items, err := fetch(ctx)
	if err != nil {
		return nil, err
	}
	r.cache.Set(key, items, cache.DefaultExpiration)
	return clone(items), nil
}

func clone[T any](items []T) []T {
	out := make([]T, len(items))
	copy(out, items)
	return out
}

// Statuses returns every status ordered by display order
func (r *Registry) Statuses(ctx context.Context) ([]model.TaskStatus, error) {
	return load(ctx, r, KeyStatuses, r.db.ListStatuses)
}

// Priorities returns every priority ordered by display order
func (r *Registry) Priorities(ctx context.Context) ([]model.TaskPriority, error) {
	return load(ctx, r, KeyPriorities, r.db.ListPriorities)
}

// StatusBySlug returns the status with slug, or nil when there is none
func (r *Registry) StatusBySlug(ctx context.Context, slug string) (*model.TaskStatus, error) {
	statuses, err := r.Statuses(ctx)
	if err != nil {
		return nil, err
	}
	for i := range statuses {
		if statuses[i].Slug == slug {
			return &statuses[i], nil
		}
	}
	return nil, nil
}

// StatusByID returns the status with id, or nil when there is none
func (r *Registry) StatusByID(ctx context.Context, id string) (*model.TaskStatus, error) {
	statuses, err := r.Statuses(ctx)
	if err != nil {
		return nil, err
	}
	for i := range statuses {
		if statuses[i].ID == id {
			return &statuses[i], nil
		}
	}
	return nil, nil
}

// PriorityByID returns the priority with id, or nil when there is none
func (r *Registry) PriorityByID(ctx context.Context, id string) (*model.TaskPriority, error) {
	priorities, err := r.Priorities(ctx)
	if err != nil {
		return nil, err
	}
	for i := range priorities {
		if priorities[i].ID == id {
			return &priorities[i], nil
		}
	}
	return nil, nil
}

// PriorityBySlug returns the priority with slug, or nil when there is none
func (r *Registry) PriorityBySlug(ctx context.Context, slug string) (*model.TaskPriority, error) {
	priorities, err := r.Priorities(ctx)
	if err != nil {
		return nil, err
	}
	for i := range priorities {
		if priorities[i].Slug == slug {
			return &priorities[i], nil
		}
	}
	return nil, nil
}

// Flush drops every cached list
func (r *Registry) Flush() {
	r.cache.Flush()
}

// write runs fn in a transaction and drops key both inside the transaction
// and after it ends, so no reader can observe the pre-write list once the
// call returns.
func (r *Registry) write(ctx context.Context, key string, fn func(tx *db.DB) error) error {
	err := r.db.Transaction(ctx, func(tx *db.DB) error {
		if err := fn(tx); err != nil {
			return err
		}
		r.cache.Delete(key)
		return nil
	})
	r.cache.Delete(key)

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %v", apperr.ErrNotFound, err)
	}
	return err
}

func validateTaxon(slug, name, color string) error {
	ve := apperr.NewValidationError()
	if slug == "" {
		ve.Add("slug", "The slug is required.")
	} else if utf8.RuneCountInString(slug) > 64 {
		ve.Add("slug", "The slug cannot be longer than 64 characters.")
	}
	if name == "" {
		ve.Add("name", "The name is required.")
	} else if utf8.RuneCountInString(name) > 255 {
		ve.Add("name", "The name cannot be longer than 255 characters.")
	}
	if color == "" {
		ve.Add("color", "The color is required.")
	}
	return ve.OrNil()
}

// CreateStatus validates and stores a new status
func (r *Registry) CreateStatus(ctx context.Context, s *model.TaskStatus) error {
	if err := validateTaxon(s.Slug, s.Name, s.Color); err != nil {
		return err
	}
	return r.write(ctx, KeyStatuses, func(tx *db.DB) error {
		return tx.CreateStatus(ctx, s)
	})
}

// errSlugChanged rejects edits to a slug. Business rules key off slugs, so
// they are fixed once created.
func errSlugChanged() error {
	return apperr.Invalid("slug", "The slug cannot be changed.")
}

// UpdateStatus validates and stores the name, color and order of s. The
// slug must match the stored one.
func (r *Registry) UpdateStatus(ctx context.Context, s *model.TaskStatus) error {
	if err := validateTaxon(s.Slug, s.Name, s.Color); err != nil {
		return err
	}
	return r.write(ctx, KeyStatuses, func(tx *db.DB) error {
		existing, err := tx.GetStatus(ctx, s.ID)
		if err != nil {
			return err
		}
		if existing == nil {
			return apperr.ErrNotFound
		}
		if existing.Slug != s.Slug {
			return errSlugChanged()
		}
		return tx.UpdateStatus(ctx, s)
	})
}

// DeleteStatus removes a status
func (r *Registry) DeleteStatus(ctx context.Context, id string) error {
	return r.write(ctx, KeyStatuses, func(tx *db.DB) error {
		return tx.DeleteStatus(ctx, id)
	})
}

// CreatePriority validates and stores a new priority
func (r *Registry) CreatePriority(ctx context.Context, p *model.TaskPriority) error {
	if err := validateTaxon(p.Slug, p.Name, p.Color); err != nil {
		return err
	}
	return r.write(ctx, KeyPriorities, func(tx *db.DB) error {
		return tx.CreatePriority(ctx, p)
	})
}

// UpdatePriority validates and stores the name, color and order of p. The
// slug must match the stored one.
func (r *Registry) UpdatePriority(ctx context.Context, p *model.TaskPriority) error {
	if err := validateTaxon(p.Slug, p.Name, p.Color); err != nil {
		return err
	}
	return r.write(ctx, KeyPriorities, func(tx *db.DB) error {
		existing, err := tx.GetPriority(ctx, p.ID)
		if err != nil {
			return err
		}
		if existing == nil {
			return apperr.ErrNotFound
		}
		if existing.Slug != p.Slug {
			return errSlugChanged()
		}
		return tx.UpdatePriority(ctx, p)
	})
}

// DeletePriority removes a priority
func (r *Registry) DeletePriority(ctx context.Context, id string) error {
	return r.write(ctx, KeyPriorities, func(tx *db.DB) error {
		return tx.DeletePriority(ctx, id)
	})
}
