package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"blogfolio/pkg/services"

	"github.com/gin-gonic/gin"
)

const recentNotesWindow = 30 * 24 * time.Hour

func (h *Handler) Status(c *gin.Context) {
	c.Header("Cache-Control", "s-maxage=10, stale-while-revalidate=59")
	c.JSON(http.StatusOK, h.site.Status())
}

func (h *Handler) Notes(c *gin.Context) {
	notes, err := h.content.RecentNotes(recentNotesWindow)
	if err != nil {
		h.log.WithError(err).Error("Failed to read recent notes")
		c.JSON(http.StatusInternalServerError, []interface{}{})
		return
	}
	c.JSON(http.StatusOK, notes)
}

func (h *Handler) Featured(c *gin.Context) {
	c.JSON(http.StatusOK, h.site.FeaturedLinks())
}

func (h *Handler) ListBlogs(c *gin.Context) {
	articles, err := h.content.ListPublished()
	if err != nil {
		h.log.WithError(err).Error("Failed to list published articles")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch blogs"})
		return
	}
	for i := range articles {
		articles[i].Content = ""
	}
	c.JSON(http.StatusOK, gin.H{"blogs": articles})
}

func (h *Handler) GetBlog(c *gin.Context) {
	article, err := h.content.GetPublished(c.Param("slug"))
	if err != nil {
		if errors.Is(err, services.ErrNotFound) || errors.Is(err, services.ErrInvalidSlug) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Blog post not found"})
			return
		}
		h.log.WithError(err).Error("Failed to read article")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch blog post"})
		return
	}
	c.JSON(http.StatusOK, article)
}

func (h *Handler) ListPhotos(c *gin.Context) {
	photos, err := h.photos.List(c.Request.Context(), false)
	if err != nil {
		h.log.WithError(err).Error("Failed to list photos")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch photos"})
		return
	}
	c.JSON(http.StatusOK, photos)
}

func (h *Handler) Subscribe(c *gin.Context) {
	var req struct {
		Email string `json:"email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Please enter a valid email address"})
		return
	}

	res, err := h.subscriptions.Subscribe(c.Request.Context(), req.Email)
	switch {
	case errors.Is(err, services.ErrInvalidEmail):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Please enter a valid email address"})
		return
	case err != nil:
		h.log.WithError(err).Error("Subscribe failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to subscribe. Please try again."})
		return
	}

	if res.AlreadySubscribed {
		c.JSON(http.StatusOK, gin.H{
			"success":           true,
			"alreadySubscribed": true,
			"message":           "You're already subscribed! 🎉",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Successfully subscribed!"})
}

func (h *Handler) Contact(c *gin.Context) {
	var msg services.ContactMessage
	if err := c.ShouldBindJSON(&msg); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "All fields are required"})
		return
	}

	err := h.contact.Submit(c.Request.Context(), msg)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Message sent successfully!"})
	case errors.Is(err, services.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": validationMessage(err)})
	case errors.Is(err, services.ErrRateLimited):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests. Please try again later."})
	case errors.Is(err, services.ErrMailerNotConfigured):
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Email service is not configured"})
	default:
		h.log.WithError(err).Error("Contact form failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send message. Please try again later."})
	}
}

func validationMessage(err error) string {
	return strings.TrimPrefix(err.Error(), services.ErrValidation.Error()+": ")
}

func (h *Handler) Sitemap(c *gin.Context) {
	published, err := h.content.ListPublished()
	if err != nil {
		h.log.WithError(err).Error("Failed to build sitemap")
		c.Status(http.StatusInternalServerError)
		return
	}
	out, err := services.BuildSitemap(h.siteURL, published)
	if err != nil {
		h.log.WithError(err).Error("Failed to build sitemap")
		c.Status(http.StatusInternalServerError)
		return
	}
	c.Data(http.StatusOK, "application/xml; charset=utf-8", out)
}

func (h *Handler) RSS(c *gin.Context) {
	published, err := h.content.ListPublished()
	if err != nil {
		h.log.WithError(err).Error("Failed to build RSS feed")
		c.Status(http.StatusInternalServerError)
		return
	}
	out, err := services.BuildRSS(h.siteURL, h.siteTitle, published)
	if err != nil {
		h.log.WithError(err).Error("Failed to build RSS feed")
		c.Status(http.StatusInternalServerError)
		return
	}
	c.Data(http.StatusOK, "application/rss+xml; charset=utf-8", out)
}
