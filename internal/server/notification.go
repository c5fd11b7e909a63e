package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	obscontext "github.com/voluntaria/platform/internal/observability/context"
)

// ListNotifications returns the in-app notifications for the acting user,
// newest first.
func (s *Server) ListNotifications(c *gin.Context) {
	actorID := obscontext.ActorIDFromContext(c.Request.Context())
	if actorID == "" {
		actorID = c.Query("userId")
	}
	if actorID == "" {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	limit, _ := strconv.Atoi(c.Query("limit"))

	notifications, err := s.notificationSvc.ListForUser(c.Request.Context(), actorID, limit)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    notifications,
	})
}

// MarkNotificationRead marks one of the acting user's notifications as read.
func (s *Server) MarkNotificationRead(c *gin.Context) {
	actorID := obscontext.ActorIDFromContext(c.Request.Context())
	if actorID == "" {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	if err := s.notificationSvc.MarkRead(c.Request.Context(), actorID, c.Param("id")); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
