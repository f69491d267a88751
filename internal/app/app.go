// Package app wires storage, caches and services into one handle shared by
// the HTTP server, the terminal client and the CLI commands.
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/sirupsen/logrus"

	"github.com/michal94mk/taskflow/internal/analytics"
	"github.com/michal94mk/taskflow/internal/board"
	"github.com/michal94mk/taskflow/internal/config"
	"github.com/michal94mk/taskflow/internal/db"
	"github.com/michal94mk/taskflow/internal/logging"
	"github.com/michal94mk/taskflow/internal/notify"
	"github.com/michal94mk/taskflow/internal/progress"
	"github.com/michal94mk/taskflow/internal/refdata"
	"github.com/michal94mk/taskflow/internal/search"
	"github.com/michal94mk/taskflow/internal/tracker"
)

// App holds the application state and dependencies
type App struct {
	Config    *config.Config
	Log       *logrus.Entry
	DB        *db.DB
	Refs      *refdata.Registry
	Progress  *progress.Maintainer
	Board     *board.Assembler
	Analytics *analytics.Engine
	Search    *search.Searcher
	Tracker   *tracker.Service
	Notifier  *notify.Notifier

	lockFile *flock.Flock
}

// New opens the configured database and builds every service on top of it.
// With SQLite the data directory is locked for the lifetime of the App.
func New(cfg *config.Config, log *logrus.Entry) (*App, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	log = logging.OrDiscard(log)

	app := &App{Config: cfg, Log: log}

	if cfg.Database.Driver == db.DriverSQLite {
		dataDir := filepath.Dir(cfg.Database.Path)
		if err := os.MkdirAll(dataDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
		if err := app.acquireLock(dataDir); err != nil {
			return nil, err
		}
	}

	database, err := db.OpenConfig(db.Config{
		Driver: cfg.Database.Driver,
		Path:   cfg.Database.Path,
		DSN:    cfg.Database.DSN,
		Debug:  cfg.Env == logging.EnvLocal,
		Logger: log,
	})
	if err != nil {
		app.releaseLock()
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	app.DB = database

	app.Refs = refdata.New(database, cfg.Cache.ReferenceTTL, log)
	app.Progress = progress.New(database, log)
	app.Board = board.New(database, app.Refs, app.Progress, log)
	app.Analytics = analytics.New(database, log).WithTimelineDays(cfg.Dashboard.TimelineDays)
	app.Search = search.New(database, cfg.Search.MaxQueryLength, cfg.Search.Limit, log)
	app.Tracker = tracker.New(database, app.Refs, app.Progress, log)
	app.Notifier = notify.NewNotifier(log)
	app.Notifier.SetEnabled(cfg.Notify.Enabled)

	log.WithField("driver", database.Driver()).Debug("application ready")
	return app, nil
}

// acquireLock acquires an exclusive file lock to prevent multiple instances
func (a *App) acquireLock(dataDir string) error {
	lockPath := filepath.Join(dataDir, "taskflow.lock")
	a.lockFile = flock.New(lockPath)

	locked, err := a.lockFile.TryLock()
	if err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}

	if !locked {
		return fmt.Errorf("another taskflow process is using %s", dataDir)
	}

	return nil
}

// releaseLock releases the file lock
func (a *App) releaseLock() {
	if a.lockFile != nil {
		a.lockFile.Unlock()
	}
}

// SyncAllProjects recounts completed tasks for every project and returns
// how many were checked.
func (a *App) SyncAllProjects(ctx context.Context) (int, error) {
	projects, err := a.DB.FindProjects(ctx, 0)
	if err != nil {
		return 0, err
	}
	for _, p := range projects {
		if err := a.Progress.SyncProject(ctx, p.ID); err != nil {
			return 0, err
		}
	}
	return len(projects), nil
}

// Close cleans up application resources
func (a *App) Close() error {
	var errs []error

	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		}
	}

	a.releaseLock()

	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}
