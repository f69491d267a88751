package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/michal94mk/taskflow/internal/tracker"
)

// Task serves task CRUD and task comments
type Task struct {
	log     *logrus.Entry
	tracker *tracker.Service
}

func NewTaskHandler(svc *tracker.Service, log *logrus.Entry) *Task {
	return &Task{log: log, tracker: svc}
}

func (h *Task) EnrichRoutes(router gin.IRoutes) {
	router.GET("/tasks", h.listTasksAction)
	router.POST("/tasks", h.createTaskAction)
	router.GET("/tasks/:id", h.getTaskAction)
	router.PUT("/tasks/:id", h.updateTaskAction)
	router.DELETE("/tasks/:id", h.deleteTaskAction)
	router.POST("/tasks/:id/comments", h.addCommentAction)
	router.PATCH("/comments/:id", h.updateCommentAction)
	router.DELETE("/comments/:id", h.deleteCommentAction)
}

func (h *Task) listTasksAction(c *gin.Context) {
	const op = "handlers.Task.listTasksAction"
	log := h.log.WithField("operation", op)

	var q tracker.TaskQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		q = tracker.TaskQuery{}
	}
	q.Page = pageParam(c)

	page, err := h.tracker.ListTasks(c.Request.Context(), currentUser(c), q)
	if err != nil {
		handleError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *Task) createTaskAction(c *gin.Context) {
	const op = "handlers.Task.createTaskAction"
	log := h.log.WithField("operation", op)

	var req taskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c)
		return
	}
	in, err := req.input()
	if err != nil {
		handleError(c, log, err)
		return
	}

	task, err := h.tracker.CreateTask(c.Request.Context(), currentUser(c), in)
	if err != nil {
		handleError(c, log, err)
		return
	}
	c.JSON(http.StatusCreated, task)
}

func (h *Task) getTaskAction(c *gin.Context) {
	const op = "handlers.Task.getTaskAction"
	log := h.log.WithField("operation", op)

	task, err := h.tracker.GetTask(c.Request.Context(), currentUser(c), c.Param("id"))
	if err != nil {
		handleError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (h *Task) updateTaskAction(c *gin.Context) {
	const op = "handlers.Task.updateTaskAction"
	log := h.log.WithField("operation", op)

	var req taskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c)
		return
	}
	in, err := req.input()
	if err != nil {
		handleError(c, log, err)
		return
	}

	task, err := h.tracker.UpdateTask(c.Request.Context(), currentUser(c), c.Param("id"), in)
	if err != nil {
		handleError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (h *Task) deleteTaskAction(c *gin.Context) {
	const op = "handlers.Task.deleteTaskAction"
	log := h.log.WithField("operation", op)

	if err := h.tracker.DeleteTask(c.Request.Context(), currentUser(c), c.Param("id")); err != nil {
		handleError(c, log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Task) addCommentAction(c *gin.Context) {
	const op = "handlers.Task.addCommentAction"
	log := h.log.WithField("operation", op)

	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c)
		return
	}

	comment, err := h.tracker.AddComment(c.Request.Context(), currentUser(c), c.Param("id"), req.Content)
	if err != nil {
		handleError(c, log, err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}

func (h *Task) updateCommentAction(c *gin.Context) {
	const op = "handlers.Task.updateCommentAction"
	log := h.log.WithField("operation", op)

	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c)
		return
	}

	comment, err := h.tracker.UpdateComment(c.Request.Context(), currentUser(c), c.Param("id"), req.Content)
	if err != nil {
		handleError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, comment)
}

func (h *Task) deleteCommentAction(c *gin.Context) {
	const op = "handlers.Task.deleteCommentAction"
	log := h.log.WithField("operation", op)

	if err := h.tracker.DeleteComment(c.Request.Context(), currentUser(c), c.Param("id")); err != nil {
		handleError(c, log, err)
		return
	}
	c.Status(http.StatusNoContent)
}
