package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/michal94mk/taskflow/internal/board"
	"github.com/michal94mk/taskflow/internal/model"
)

// Kanban serves the status board
type Kanban struct {
	log   *logrus.Entry
	board *board.Assembler
}

func NewKanbanHandler(assembler *board.Assembler, log *logrus.Entry) *Kanban {
	return &Kanban{log: log, board: assembler}
}

func (h *Kanban) EnrichRoutes(router gin.IRoutes) {
	router.GET("/kanban", h.boardAction)
	router.PATCH("/kanban/:task/status", h.moveAction)
}

type boardResponse struct {
	Columns  []board.Column  `json:"columns"`
	Projects []model.Project `json:"projects"`
	Filter   board.Filter    `json:"filter"`
}

func (h *Kanban) boardAction(c *gin.Context) {
	const op = "handlers.Kanban.boardAction"
	log := h.log.WithField("operation", op)
	ctx := c.Request.Context()
	user := currentUser(c)

	filter := board.Filter{ProjectID: c.Query("project_id")}
	columns, err := h.board.Assemble(ctx, user, filter)
	if err != nil {
		handleError(c, log, err)
		return
	}
	projects, err := h.board.ProjectOptions(ctx, user)
	if err != nil {
		handleError(c, log, err)
		return
	}
	if projects == nil {
		projects = []model.Project{}
	}

	c.JSON(http.StatusOK, boardResponse{Columns: columns, Projects: projects, Filter: filter})
}

func (h *Kanban) moveAction(c *gin.Context) {
	const op = "handlers.Kanban.moveAction"
	log := h.log.WithField("operation", op)

	var req moveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c)
		return
	}

	task, err := h.board.MoveTask(c.Request.Context(), currentUser(c), c.Param("task"), req.TaskStatusID)
	if err != nil {
		handleError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, task)
}
