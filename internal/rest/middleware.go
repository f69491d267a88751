package rest

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/michal94mk/taskflow/internal/model"
)

const userKey = "user"

// TokenResolver maps an API token to its user, nil when unknown
type TokenResolver interface {
	ResolveToken(ctx context.Context, token string) (*model.User, error)
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

// authenticate resolves the bearer token and stores the user on the context
func authenticate(resolver TokenResolver, log *logrus.Entry) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Message: msgUnauthenticated})
			return
		}

		user, err := resolver.ResolveToken(c.Request.Context(), token)
		if err != nil {
			handleError(c, log, err)
			return
		}
		if user == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Message: msgUnauthenticated})
			return
		}

		c.Set(userKey, user)
		c.Next()
	}
}

// currentUser returns the user set by authenticate
func currentUser(c *gin.Context) *model.User {
	return c.MustGet(userKey).(*model.User)
}

// requestLogger logs one line per request
func requestLogger(log *logrus.Entry) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		entry := log.WithFields(logrus.Fields{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   c.Writer.Status(),
			"duration": time.Since(start),
		})
		switch {
		case c.Writer.Status() >= 500:
			entry.Error("request")
		case c.Writer.Status() >= 400:
			entry.Info("request")
		default:
			entry.Debug("request")
		}
	}
}
