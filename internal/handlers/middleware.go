package handlers

import (
	"net/http"
	"strings"
	"time"

	"cellscan/internal/models"
	"cellscan/internal/session"

	"github.com/gin-gonic/gin"
)

const identityKey = "identity"

// requireSession redirects anonymous browsers to the landing page, flashing
// msg first when it is not empty.
func (h *Handler) requireSession(msg string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := h.sessions.Current(c.Request)
		if !ok {
			if msg != "" {
				h.flash(c, session.FlashDanger, msg)
			}
			c.Redirect(http.StatusFound, "/")
			c.Abort()
			return
		}
		c.Set(identityKey, id)
		c.Next()
	}
}

func (h *Handler) bearerAuth(c *gin.Context) {
	header := c.GetHeader("Authorization")
	if header == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": "missing Authorization header",
		})
		return
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": "invalid Authorization header format",
		})
		return
	}

	id, err := h.sessions.ParseToken(parts[1])
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": "invalid or expired token",
		})
		return
	}

	// store in Gin context
	c.Set(identityKey, id)
	c.Next()
}

// identity returns the caller set by requireSession or bearerAuth.
func identity(c *gin.Context) models.Identity {
	v, _ := c.Get(identityKey)
	id, _ := v.(models.Identity)
	return id
}

func (h *Handler) requestLogger(c *gin.Context) {
	start := time.Now()
	c.Next()
	h.log.Debugw("http_request",
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"status", c.Writer.Status(),
		"latency", time.Since(start),
		"client_ip", c.ClientIP(),
	)
}
