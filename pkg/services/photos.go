package services

import (
	"context"
	"fmt"
	"mime/multipart"
	"strings"

	"blogfolio/pkg/models"

	"github.com/sirupsen/logrus"
)

type PhotoStore interface {
	List(ctx context.Context, includeHidden bool) ([]models.Photo, error)
	Get(ctx context.Context, id string) (*models.Photo, error)
	Insert(ctx context.Context, p models.Photo) (*models.Photo, error)
	Update(ctx context.Context, p models.Photo) error
	SetVisibility(ctx context.Context, id string, visible bool) error
	Delete(ctx context.Context, id string) error
}

// PhotoInput carries gallery metadata. Nil fields are left unchanged on
// update.
type PhotoInput struct {
	ImageURL     *string `json:"image_url" form:"image_url"`
	AltText      *string `json:"alt_text" form:"alt_text"`
	Description  *string `json:"description" form:"description"`
	DisplayOrder *int    `json:"display_order" form:"display_order"`
	IsVisible    *bool   `json:"is_visible" form:"is_visible"`
}

func (in PhotoInput) apply(p *models.Photo) {
	if in.ImageURL != nil {
		p.ImageURL = strings.TrimSpace(*in.ImageURL)
	}
	if in.AltText != nil {
		p.AltText = *in.AltText
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.DisplayOrder != nil {
		p.DisplayOrder = *in.DisplayOrder
	}
	if in.IsVisible != nil {
		p.IsVisible = *in.IsVisible
	}
}

type PhotoService struct {
	store PhotoStore
	media *MediaStore
	log   *logrus.Entry
}

func NewPhotoService(store PhotoStore, media *MediaStore, logger *logrus.Logger) *PhotoService {
	return &PhotoService{store: store, media: media, log: logger.WithField("component", "photos")}
}

func (s *PhotoService) List(ctx context.Context, includeHidden bool) ([]models.Photo, error) {
	photos, err := s.store.List(ctx, includeHidden)
	if err != nil {
		return nil, err
	}
	if photos == nil {
		photos = []models.Photo{}
	}
	return photos, nil
}

// Create registers a photo by URL. New photos are visible unless the input
// says otherwise.
func (s *PhotoService) Create(ctx context.Context, in PhotoInput) (*models.Photo, error) {
	p := models.Photo{IsVisible: true}
	in.apply(&p)
	if p.ImageURL == "" {
		return nil, fmt.Errorf("%w: image_url is required", ErrValidation)
	}
	return s.store.Insert(ctx, p)
}

// Upload stores the image file and registers it. The file is removed again
// when the row cannot be written.
func (s *PhotoService) Upload(ctx context.Context, header *multipart.FileHeader, in PhotoInput) (*models.Photo, error) {
	file, err := s.media.SavePhoto(header)
	if err != nil {
		return nil, err
	}
	in.ImageURL = &file.URL

	photo, err := s.Create(ctx, in)
	if err != nil {
		if rmErr := s.media.DeletePhoto(file.URL); rmErr != nil {
			s.log.WithError(rmErr).Warn("Failed to remove orphaned upload")
		}
		return nil, err
	}
	return photo, nil
}

func (s *PhotoService) Update(ctx context.Context, id string, in PhotoInput) (*models.Photo, error) {
	p, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	in.apply(p)
	if p.ImageURL == "" {
		return nil, fmt.Errorf("%w: image_url is required", ErrValidation)
	}
	if err := s.store.Update(ctx, *p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *PhotoService) SetVisibility(ctx context.Context, id string, visible bool) error {
	return s.store.SetVisibility(ctx, id, visible)
}

// Delete removes the row, then the local file if there is one.
func (s *PhotoService) Delete(ctx context.Context, id string) error {
	p, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	if err := s.media.DeletePhoto(p.ImageURL); err != nil {
		s.log.WithFields(logrus.Fields{"id": id, "error": err}).Warn("Photo row deleted but file removal failed")
	}
	return nil
}
