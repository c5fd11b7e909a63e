package server

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	applicationdomain "github.com/voluntaria/platform/internal/application/domain"
	obscontext "github.com/voluntaria/platform/internal/observability/context"
)

type transitionRequest struct {
	Action              string  `json:"action" binding:"required"`
	ApplicationID       string  `json:"applicationId" binding:"required"`
	ActorID             string  `json:"actorId"`
	Message             string  `json:"message"`
	AttachmentPath      *string `json:"attachmentPath"`
	AttachmentName      *string `json:"attachmentName"`
	AttachmentMimeType  *string `json:"attachmentMimeType"`
	AttachmentSizeBytes *int64  `json:"attachmentSizeBytes"`
}

// TransitionApplication applies one lifecycle action to an application. The
// actor comes from the X-Actor-Id header when present, falling back to the
// body for callers that don't set it.
func (s *Server) TransitionApplication(c *gin.Context) {
	var req transitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, fmt.Errorf("%w: %s", ErrInvalidRequest, err.Error()))
		return
	}

	action, err := applicationdomain.ParseAction(req.Action)
	if err != nil {
		AbortWithError(c, fmt.Errorf("%w: %s", ErrInvalidRequest, err.Error()))
		return
	}

	actorID := obscontext.ActorIDFromContext(c.Request.Context())
	if actorID == "" {
		actorID = req.ActorID
	}

	resp, err := s.applicationSvc.Transition(c.Request.Context(), applicationdomain.TransitionRequest{
		Action:        action,
		ApplicationID: req.ApplicationID,
		ActorID:       actorID,
		Message:       req.Message,
		Attachment: &applicationdomain.Attachment{
			Path:      req.AttachmentPath,
			Name:      req.AttachmentName,
			MimeType:  req.AttachmentMimeType,
			SizeBytes: req.AttachmentSizeBytes,
		},
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"application":        resp.Application,
			"notificationStatus": resp.Notification.Status,
			"notificationError":  orNil(resp.Notification.Error),
		},
	})
}

func orNil(s string) any {
	if s == "" {
		return nil
	}
	return s
}
