package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// ListEvents returns active events. Each read also kicks the sweep
// scheduler, so expired events drift to completed without a cron.
func (s *Server) ListEvents(c *gin.Context) {
	s.sweepScheduler.Kick(c.Request.Context())

	events, err := s.eventRepo.ListActive(c.Request.Context(), s.db)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    events,
	})
}

type sweepRequest struct {
	DryRun bool `json:"dryRun"`
}

// SweepEvents runs an expired-event sweep immediately. With dryRun set it
// reports what would be completed without writing.
func (s *Server) SweepEvents(c *gin.Context) {
	var req sweepRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			AbortWithError(c, fmt.Errorf("%w: %s", ErrInvalidRequest, err.Error()))
			return
		}
	}

	result, err := s.sweeper.Sweep(c.Request.Context(), req.DryRun)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":           true,
		"completedEventIds": result.CompletedIDs,
		"skippedEventIds":   result.SkippedIDs,
		"completedCount":    result.CompletedCount,
		"dryRun":            req.DryRun,
		"processedAt":       result.ProcessedAt.UTC().Format(time.RFC3339),
	})
}
