package rest

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/michal94mk/taskflow/internal/analytics"
	"github.com/michal94mk/taskflow/internal/apperr"
	"github.com/michal94mk/taskflow/internal/search"
)

// Dashboard serves analytics and global search
type Dashboard struct {
	log       *logrus.Entry
	analytics *analytics.Engine
	search    *search.Searcher
}

func NewDashboardHandler(engine *analytics.Engine, searcher *search.Searcher, log *logrus.Entry) *Dashboard {
	return &Dashboard{log: log, analytics: engine, search: searcher}
}

func (h *Dashboard) EnrichRoutes(router gin.IRoutes) {
	router.GET("/dashboard", h.dashboardAction)
	router.GET("/dashboard/kpis", h.kpisAction)
	router.GET("/dashboard/timeline", h.timelineAction)
	router.GET("/search", h.searchAction)
}

func (h *Dashboard) dashboardAction(c *gin.Context) {
	const op = "handlers.Dashboard.dashboardAction"
	log := h.log.WithField("operation", op)

	dash, err := h.analytics.Dashboard(c.Request.Context(), currentUser(c))
	if err != nil {
		handleError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, dash)
}

func (h *Dashboard) kpisAction(c *gin.Context) {
	const op = "handlers.Dashboard.kpisAction"
	log := h.log.WithField("operation", op)

	kpis, err := h.analytics.KPIs(c.Request.Context(), currentUser(c))
	if err != nil {
		handleError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, kpis)
}

func (h *Dashboard) timelineAction(c *gin.Context) {
	const op = "handlers.Dashboard.timelineAction"
	log := h.log.WithField("operation", op)

	days := 0
	if raw := c.Query("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			handleError(c, log, apperr.Invalid("days", "The days must be an integer."))
			return
		}
		days = n
	}

	points, err := h.analytics.Timeline(c.Request.Context(), currentUser(c), days)
	if err != nil {
		handleError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, points)
}

func (h *Dashboard) searchAction(c *gin.Context) {
	const op = "handlers.Dashboard.searchAction"
	log := h.log.WithField("operation", op)

	results, err := h.search.Search(c.Request.Context(), currentUser(c), c.Query("q"))
	if err != nil {
		handleError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, results)
}
