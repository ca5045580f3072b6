package handlers

import (
	"errors"
	"net/http"

	"blogfolio/pkg/services"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type hookResult struct {
	Slug  string `json:"slug"`
	Count int    `json:"count"`
	Total int    `json:"total"`
	Error string `json:"error,omitempty"`
}

// PushHook notifies subscribers about every article that a push added to
// the published directory. Articles already announced are skipped.
func (h *Handler) PushHook(c *gin.Context) {
	var req struct {
		Before string `json:"before"`
		After  string `json:"after" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "after commit is required"})
		return
	}

	ctx := c.Request.Context()
	slugs, err := h.git.AddedPublishedSlugs(ctx, req.Before, req.After)
	if errors.Is(err, services.ErrInvalidCommit) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		h.log.WithError(err).Error("Failed to inspect pushed commits")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to inspect commits"})
		return
	}

	notified := make([]hookResult, 0, len(slugs))
	for _, slug := range slugs {
		res, err := h.dispatcher.Dispatch(ctx, slug, services.DispatchOptions{})
		if err != nil {
			if !errors.Is(err, services.ErrAlreadyNotified) {
				h.log.WithFields(logrus.Fields{"slug": slug, "error": err}).Warn("Push notification failed")
			}
			_, msg := notifyError(err)
			notified = append(notified, hookResult{Slug: slug, Error: msg})
			continue
		}
		notified = append(notified, hookResult{Slug: slug, Count: res.Sent, Total: res.Total})
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "notified": notified})
}
