// Package rest exposes taskflow over a JSON HTTP API.
package rest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/michal94mk/taskflow/internal/app"
	"github.com/michal94mk/taskflow/internal/logging"
)

const shutdownTimeout = 10 * time.Second

// NewRouter builds the gin engine with every route mounted
func NewRouter(a *app.App, log *logrus.Entry) *gin.Engine {
	log = logging.OrDiscard(log).WithField("component", "rest")

	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(log))

	router.GET("/health", func(c *gin.Context) {
		status := http.StatusOK
		body := gin.H{"status": "ok"}
		if err := a.DB.Ping(c.Request.Context()); err != nil {
			log.WithError(err).Warn("health check failed")
			status = http.StatusServiceUnavailable
			body = gin.H{"status": "unavailable"}
		}
		c.JSON(status, body)
	})

	api := router.Group("/api")
	api.Use(authenticate(a.Tracker, log))

	NewReferenceHandler(a.Refs, log).EnrichRoutes(api)
	NewDashboardHandler(a.Analytics, a.Search, log).EnrichRoutes(api)
	NewKanbanHandler(a.Board, log).EnrichRoutes(api)
	NewProjectHandler(a.Tracker, log).EnrichRoutes(api)
	NewTaskHandler(a.Tracker, log).EnrichRoutes(api)

	return router
}

// Serve runs the API on addr until ctx is cancelled, then drains in-flight
// requests.
func Serve(ctx context.Context, a *app.App, addr string, log *logrus.Entry) error {
	log = logging.OrDiscard(log)
	srv := &http.Server{
		Addr:              addr,
		Handler:           NewRouter(a, log),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", addr).Info("http server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down http server: %w", err)
	}
	log.Info("http server stopped")
	return nil
}
