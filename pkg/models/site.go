package models

import "time"

// Photo is an entry of the public gallery.
type Photo struct {
	ID           string    `json:"id"`
	ImageURL     string    `json:"image_url"`
	AltText      string    `json:"alt_text"`
	Description  string    `json:"description"`
	UploadedAt   time.Time `json:"uploaded_at"`
	DisplayOrder int       `json:"display_order"`
	IsVisible    bool      `json:"is_visible"`
}

type FeaturedLink struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	IconPath    string `json:"icon_path"`
	Description string `json:"description,omitempty"`
}
