package handlers

import (
	"errors"
	"net/http"

	"blogfolio/pkg/database"
	"blogfolio/pkg/models"
	"blogfolio/pkg/services"

	"github.com/gin-gonic/gin"
)

func photoErrorStatus(err error) int {
	switch {
	case errors.Is(err, database.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrValidation), errors.Is(err, services.ErrInvalidUpload):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) UploadResume(c *gin.Context) {
	file, err := c.FormFile("resume")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
		return
	}

	info, err := h.media.SaveResume(file)
	if err != nil {
		if errors.Is(err, services.ErrInvalidUpload) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save file: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Resume uploaded successfully", "file": info})
}

func (h *Handler) AdminListPhotos(c *gin.Context) {
	photos, err := h.photos.List(c.Request.Context(), true)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, photos)
}

// CreatePhoto accepts either a multipart upload in "file" with metadata
// form fields, or a JSON body registering an external image URL.
func (h *Handler) CreatePhoto(c *gin.Context) {
	var in services.PhotoInput
	if err := c.ShouldBind(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	ctx := c.Request.Context()
	file, fileErr := c.FormFile("file")
	var err error
	var photo *models.Photo
	if fileErr == nil {
		photo, err = h.photos.Upload(ctx, file, in)
	} else {
		photo, err = h.photos.Create(ctx, in)
	}
	if err != nil {
		c.JSON(photoErrorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, photo)
}

func (h *Handler) UpdatePhoto(c *gin.Context) {
	var in services.PhotoInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}
	photo, err := h.photos.Update(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		c.JSON(photoErrorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, photo)
}

func (h *Handler) SetPhotoVisibility(c *gin.Context) {
	var req struct {
		IsVisible *bool `json:"is_visible"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.IsVisible == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "is_visible is required"})
		return
	}
	if err := h.photos.SetVisibility(c.Request.Context(), c.Param("id"), *req.IsVisible); err != nil {
		c.JSON(photoErrorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "is_visible": *req.IsVisible})
}

func (h *Handler) DeletePhoto(c *gin.Context) {
	if err := h.photos.Delete(c.Request.Context(), c.Param("id")); err != nil {
		c.JSON(photoErrorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}
