package models

// Status is the lifecycle state of an article. It always matches the
// directory the article file lives in.
type Status string

const (
	StatusDraft     Status = "Draft"
	StatusPublished Status = "Published"
)

func (s Status) Valid() bool {
	return s == StatusDraft || s == StatusPublished
}

// Opposite returns the status a toggle moves to.
func (s Status) Opposite() Status {
	if s == StatusDraft {
		return StatusPublished
	}
	return StatusDraft
}

// Article represents a blog post stored as a frontmatter+body file.
type Article struct {
	ID          string `json:"id"` // file name, e.g. hello-world.mdx
	Slug        string `json:"slug"`
	Title       string `json:"title"`
	Date        string `json:"date"`
	Author      string `json:"author"`
	Excerpt     string `json:"excerpt"`
	Description string `json:"description,omitempty"`
	Status      Status `json:"status"`
	Content     string `json:"content,omitempty"`
}

// Note is the short form used by the recent notes widget.
type Note struct {
	Title   string `json:"title"`
	Slug    string `json:"slug"`
	Date    string `json:"date"`
	Excerpt string `json:"excerpt,omitempty"`
}
