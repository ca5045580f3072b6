package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"blogfolio/pkg/services"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// articleErrorStatus maps content errors to HTTP status codes.
func articleErrorStatus(err error) int {
	switch {
	case errors.Is(err, services.ErrInvalidSlug):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) ListArticles(c *gin.Context) {
	articles, err := h.content.ListAll()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"blogs": articles})
}

func (h *Handler) GetArticle(c *gin.Context) {
	article, err := h.content.Get(c.Query("slug"))
	if err != nil {
		c.JSON(articleErrorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, article)
}

func (h *Handler) SaveDraft(c *gin.Context) {
	var in services.DraftInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}

	res, err := h.content.SaveDraft(in)
	if err != nil {
		c.JSON(articleErrorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "unpublished": res.Unpublished, "article": res.Article})
}

func (h *Handler) TogglePublish(c *gin.Context) {
	var req struct {
		Slug string `json:"slug"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}

	status, err := h.content.TogglePublish(req.Slug)
	if err != nil {
		c.JSON(articleErrorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "status": status})
}

// DiffDraft shows how saving the posted draft would change the stored copy.
func (h *Handler) DiffDraft(c *gin.Context) {
	var in services.DraftInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}

	saved, err := h.content.Stored(in.Slug)
	if err != nil {
		c.JSON(articleErrorStatus(err), gin.H{"error": err.Error()})
		return
	}
	edited, err := h.content.RenderDraft(in)
	if err != nil {
		c.JSON(articleErrorStatus(err), gin.H{"error": err.Error()})
		return
	}

	diff, err := h.git.Diff(c.Request.Context(), saved, edited)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Diff failed: " + err.Error()})
		return
	}
	diffType := "none"
	if diff != "" {
		diffType = "unsaved"
	}
	c.JSON(http.StatusOK, gin.H{"diff": diff, "type": diffType})
}

func (h *Handler) NotifySubscribers(c *gin.Context) {
	var req struct {
		BlogSlug string `json:"blogSlug"`
		Force    bool   `json:"force"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}

	res, err := h.dispatcher.Dispatch(c.Request.Context(), req.BlogSlug, services.DispatchOptions{Force: req.Force})
	if err != nil {
		status, msg := notifyError(err)
		h.log.WithFields(logrus.Fields{"slug": req.BlogSlug, "error": err}).Warn("Notification run refused")
		c.JSON(status, gin.H{"error": msg})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"count":   res.Sent,
		"total":   res.Total,
		"failed":  res.Failed,
		"runId":   res.RunID,
		"message": fmt.Sprintf("Sent %d of %d emails", res.Sent, res.Total),
	})
}

func notifyError(err error) (int, string) {
	switch {
	case errors.Is(err, services.ErrMissingSlug):
		return http.StatusBadRequest, "Blog slug is required"
	case errors.Is(err, services.ErrInvalidSlug):
		return http.StatusBadRequest, "Invalid blog slug"
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound, "Blog post not found"
	case errors.Is(err, services.ErrSubscriberStore):
		return http.StatusInternalServerError, "Failed to fetch subscribers"
	case errors.Is(err, services.ErrNoActiveSubscribers):
		return http.StatusBadRequest, "No active subscribers found"
	case errors.Is(err, services.ErrMailerNotConfigured):
		return http.StatusInternalServerError, "Email service not configured"
	case errors.Is(err, services.ErrAlreadyNotified):
		return http.StatusConflict, err.Error()
	default:
		return http.StatusInternalServerError, "Failed to send notifications"
	}
}

func (h *Handler) SubscriberCount(c *gin.Context) {
	n, err := h.subscriptions.CountActive(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": n})
}

// sessionToken is the GitHub token of a logged-in admin, or "" for API key
// callers.
func sessionToken(c *gin.Context) string {
	token, _ := sessions.Default(c).Get(sessionAccessToken).(string)
	return token
}

func (h *Handler) HandleSync(c *gin.Context) {
	log, err := h.git.Sync(c.Request.Context(), sessionToken(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "log": log})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "log": log})
}

func (h *Handler) HandlePublish(c *gin.Context) {
	log, err := h.git.Publish(c.Request.Context(), sessionToken(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "log": log})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "log": log})
}
