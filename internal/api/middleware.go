package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"mediadrop/gateway/internal/config"
	"mediadrop/gateway/internal/domain"
	"mediadrop/gateway/internal/session"
)

// ContextUserKey is the gin context key under which the gate stores the
// unsealed session user.
const ContextUserKey = "sessionUser"

const loginPath = "/auth/login"

// AccessGate is the edge authorization middleware. Auth-flow paths and the
// health endpoint bypass it; when role-gating is disabled everything passes.
// Otherwise the request needs a sealed session cookie whose identity holds
// the required role. A denied GET is redirected to the login entry point with
// the query string dropped; a denied non-GET gets 401 JSON. Both denial
// causes look identical from outside.
func AccessGate(cfg *config.ServerConfig, codec *session.Codec) gin.HandlerFunc {
	return func(c *gin.Context) {
		if isExemptPath(c.Request.URL.Path) {
			c.Next()
			return
		}
		if !cfg.Discord.Enabled() {
			c.Next()
			return
		}

		token, err := c.Cookie(cfg.CookieName)
		if err != nil {
			denyRequest(c)
			return
		}
		user, err := codec.Unseal(token)
		if err != nil {
			denyRequest(c)
			return
		}
		if !user.HasRole(cfg.Discord.RoleID) {
			denyRequest(c)
			return
		}

		c.Set(ContextUserKey, user)
		c.Next()
	}
}

func isExemptPath(path string) bool {
	return path == "/ping" || strings.HasPrefix(path, "/auth/")
}

func denyRequest(c *gin.Context) {
	if c.Request.Method == http.MethodGet {
		c.Redirect(http.StatusFound, loginPath)
		c.Abort()
		return
	}
	abortWithError(c, http.StatusUnauthorized, "authentication required")
}

// currentUser returns the session user the gate stored, if any.
func currentUser(c *gin.Context) (*domain.SessionUser, bool) {
	raw, exists := c.Get(ContextUserKey)
	if !exists {
		return nil, false
	}
	user, ok := raw.(*domain.SessionUser)
	return user, ok
}

// RequestLogger logs one structured line per request.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logrus.WithFields(logrus.Fields{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   c.Writer.Status(),
			"duration": time.Since(start).String(),
		}).Info("request")
	}
}
