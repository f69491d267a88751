package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/michal94mk/taskflow/internal/apperr"
	"github.com/michal94mk/taskflow/internal/refdata"
)

// Reference serves task statuses and priorities
type Reference struct {
	log  *logrus.Entry
	refs *refdata.Registry
}

func NewReferenceHandler(refs *refdata.Registry, log *logrus.Entry) *Reference {
	return &Reference{log: log, refs: refs}
}

func (h *Reference) EnrichRoutes(router gin.IRoutes) {
	router.GET("/statuses", h.listStatusesAction)
	router.PATCH("/statuses/:id", h.readOnlyAction)
	router.GET("/priorities", h.listPrioritiesAction)
	router.PATCH("/priorities/:id", h.readOnlyAction)
}

func (h *Reference) listStatusesAction(c *gin.Context) {
	const op = "handlers.Reference.listStatusesAction"
	log := h.log.WithField("operation", op)

	statuses, err := h.refs.Statuses(c.Request.Context())
	if err != nil {
		handleError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, statuses)
}

func (h *Reference) listPrioritiesAction(c *gin.Context) {
	const op = "handlers.Reference.listPrioritiesAction"
	log := h.log.WithField("operation", op)

	priorities, err := h.refs.Priorities(c.Request.Context())
	if err != nil {
		handleError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, priorities)
}

// readOnlyAction answers writes to statuses and priorities. They are shared
// by every user and are edited with the status and priority CLI commands.
func (h *Reference) readOnlyAction(c *gin.Context) {
	const op = "handlers.Reference.readOnlyAction"
	log := h.log.WithField("operation", op)

	log.WithField("path", c.FullPath()).Warn("rejected reference data write")
	handleError(c, log, apperr.ErrForbidden)
}
