package rest

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/michal94mk/taskflow/internal/tracker"
)

// Project serves project CRUD
type Project struct {
	log     *logrus.Entry
	tracker *tracker.Service
}

func NewProjectHandler(svc *tracker.Service, log *logrus.Entry) *Project {
	return &Project{log: log, tracker: svc}
}

func (h *Project) EnrichRoutes(router gin.IRoutes) {
	router.GET("/projects", h.listProjectsAction)
	router.POST("/projects", h.createProjectAction)
	router.GET("/projects/:id", h.getProjectAction)
	router.PUT("/projects/:id", h.updateProjectAction)
	router.DELETE("/projects/:id", h.deleteProjectAction)
}

// pageParam reads ?page=, treating anything unparsable as the first page
func pageParam(c *gin.Context) int {
	page, err := strconv.Atoi(c.Query("page"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

func (h *Project) listProjectsAction(c *gin.Context) {
	const op = "handlers.Project.listProjectsAction"
	log := h.log.WithField("operation", op)

	page, err := h.tracker.ListProjects(c.Request.Context(), currentUser(c), pageParam(c))
	if err != nil {
		handleError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *Project) createProjectAction(c *gin.Context) {
	const op = "handlers.Project.createProjectAction"
	log := h.log.WithField("operation", op)

	var req projectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c)
		return
	}
	in, err := req.input()
	if err != nil {
		handleError(c, log, err)
		return
	}

	project, err := h.tracker.CreateProject(c.Request.Context(), currentUser(c), in)
	if err != nil {
		handleError(c, log, err)
		return
	}
	c.JSON(http.StatusCreated, project)
}

func (h *Project) getProjectAction(c *gin.Context) {
	const op = "handlers.Project.getProjectAction"
	log := h.log.WithField("operation", op)

	detail, err := h.tracker.GetProject(c.Request.Context(), currentUser(c), c.Param("id"))
	if err != nil {
		handleError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (h *Project) updateProjectAction(c *gin.Context) {
	const op = "handlers.Project.updateProjectAction"
	log := h.log.WithField("operation", op)

	var req projectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c)
		return
	}
	in, err := req.input()
	if err != nil {
		handleError(c, log, err)
		return
	}

	project, err := h.tracker.UpdateProject(c.Request.Context(), currentUser(c), c.Param("id"), in)
	if err != nil {
		handleError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, project)
}

func (h *Project) deleteProjectAction(c *gin.Context) {
	const op = "handlers.Project.deleteProjectAction"
	log := h.log.WithField("operation", op)

	if err := h.tracker.DeleteProject(c.Request.Context(), currentUser(c), c.Param("id")); err != nil {
		handleError(c, log, err)
		return
	}
	c.Status(http.StatusNoContent)
}
