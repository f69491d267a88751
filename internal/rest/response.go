package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/michal94mk/taskflow/internal/apperr"
)

// ErrorResponse is the body of every non-2xx reply
type ErrorResponse struct {
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors,omitempty"`
}

const (
	msgInvalid         = "The given data was invalid."
	msgForbidden       = "This action is unauthorized."
	msgNotFound        = "Not found."
	msgUnauthenticated = "Unauthenticated."
	msgInternal        = "Server error."
)

// handleError writes the status and body matching err. Errors that are not
// part of the domain vocabulary are logged and reported as 500.
func handleError(c *gin.Context, log *logrus.Entry, err error) {
	if ve, ok := apperr.AsValidation(err); ok {
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, ErrorResponse{Message: msgInvalid, Errors: ve.Fields})
		return
	}

	switch {
	case apperr.IsForbidden(err):
		c.AbortWithStatusJSON(http.StatusForbidden, ErrorResponse{Message: msgForbidden})
	case apperr.IsNotFound(err):
		c.AbortWithStatusJSON(http.StatusNotFound, ErrorResponse{Message: msgNotFound})
	default:
		log.WithError(err).Error("request failed")
		c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{Message: msgInternal})
	}
}

func badBody(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnprocessableEntity, ErrorResponse{
		Message: msgInvalid,
		Errors:  map[string]string{"body": "The request body must be a JSON object."},
	})
}
