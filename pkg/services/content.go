package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"blogfolio/pkg/models"

	"github.com/sirupsen/logrus"
)

// DraftInput is the full content of a draft save. Empty fields are
// written as empty strings.
type DraftInput struct {
	Title   string `json:"title"`
	Slug    string `json:"slug"`
	Body    string `json:"content"`
	Excerpt string `json:"excerpt"`
	Author  string `json:"author"`
}

type SaveResult struct {
	Article models.Article `json:"article"`
	// Unpublished is set when the slug was published and saving moved it
	// back to drafts.
	Unpublished bool `json:"unpublished"`
}

// ContentManager owns the draft/publish lifecycle of articles. Mutations
// are serialised so an article always has exactly one copy once a call
// returns.
type ContentManager struct {
	repo  Repository
	mu    sync.Mutex
	cache articleCache
	now   func() time.Time
	log   *logrus.Entry
}

func NewContentManager(repo Repository, logger *logrus.Logger) *ContentManager {
	return &ContentManager{
		repo: repo,
		now:  time.Now,
		log:  logger.WithField("component", "content"),
	}
}

// SaveDraft writes the article to the draft collection, replacing any
// existing draft. A published copy of the same slug is removed afterwards.
func (m *ContentManager) SaveDraft(in DraftInput) (*SaveResult, error) {
	if err := ValidateSlug(in.Slug); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	// runs before Unlock, so a list rebuilt between write and delete is dropped
	defer m.cache.invalidate()

	fm := m.draftFrontMatter(in)
	body := strings.TrimSpace(in.Body)
	content, err := ConstructFileContent(fm, body, FormatYAML)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrWrite, err)
	}
	if err := m.repo.Write(models.StatusDraft, in.Slug, content); err != nil {
		return nil, err
	}

	result := &SaveResult{Article: articleFromDocument(in.Slug, models.StatusDraft, &Document{FrontMatter: fm, Body: body})}

	published, err := m.repo.Exists(models.StatusPublished, in.Slug)
	if err != nil {
		return nil, err
	}
	if published {
		if err := m.repo.Delete(models.StatusPublished, in.Slug); err != nil && !errors.Is(err, ErrNotFound) {
			return nil, err
		}
		result.Unpublished = true
		m.log.WithField("slug", in.Slug).Info("Published article moved back to drafts by save")
	}

	m.log.WithField("slug", in.Slug).Debug("Draft saved")
	return result, nil
}

// RenderDraft returns the file SaveDraft would write for in.
func (m *ContentManager) RenderDraft(in DraftInput) ([]byte, error) {
	if err := ValidateSlug(in.Slug); err != nil {
		return nil, err
	}
	return ConstructFileContent(m.draftFrontMatter(in), strings.TrimSpace(in.Body), FormatYAML)
}

// Stored returns the current copy of slug re-serialised, so formatting
// differences do not show up when it is compared with RenderDraft. A slug
// with no copy yields empty content.
func (m *ContentManager) Stored(slug string) ([]byte, error) {
	if err := ValidateSlug(slug); err != nil {
		return nil, err
	}
	status, err := m.locate(slug)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	raw, err := m.repo.Read(status, slug)
	if err != nil {
		return nil, err
	}
	doc, err := ParseDocument(raw)
	if err != nil {
		return raw, nil
	}
	if out, err := doc.Bytes(); err == nil {
		return out, nil
	}
	return raw, nil
}

func (m *ContentManager) draftFrontMatter(in DraftInput) FrontMatter {
	return FrontMatter{
		Title:   in.Title,
		Date:    m.now().UTC().Format("2006-01-02"),
		Author:  in.Author,
		Excerpt: in.Excerpt,
		Status:  models.StatusDraft,
	}
}

// TogglePublish moves an article to the other collection and rewrites its
// status to match. The new copy is written before the old one is removed.
func (m *ContentManager) TogglePublish(slug string) (models.Status, error) {
	if err := ValidateSlug(slug); err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	// runs before Unlock, so a list rebuilt between write and delete is dropped
	defer m.cache.invalidate()

	from, err := m.locate(slug)
	if err != nil {
		return "", err
	}
	to := from.Opposite()

	raw, err := m.repo.Read(from, slug)
	if err != nil {
		return "", err
	}
	doc, err := ParseDocument(raw)
	if err != nil {
		return "", fmt.Errorf("%s: %w", slug, err)
	}
	doc.FrontMatter.Status = to
	content, err := doc.Bytes()
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrWrite, err)
	}

	if err := m.repo.Write(to, slug, content); err != nil {
		return "", err
	}

	if err := m.repo.Delete(from, slug); err != nil && !errors.Is(err, ErrNotFound) {
		if rbErr := m.repo.Delete(to, slug); rbErr != nil {
			m.log.WithFields(logrus.Fields{"slug": slug, "error": rbErr}).Error("Rollback failed, article has two copies")
		}
		return "", err
	}

	m.log.WithFields(logrus.Fields{"slug": slug, "from": from, "to": to}).Info("Article status toggled")
	return to, nil
}

// locate finds the collection holding slug, checking drafts first.
func (m *ContentManager) locate(slug string) (models.Status, error) {
	for _, status := range []models.Status{models.StatusDraft, models.StatusPublished} {
		ok, err := m.repo.Exists(status, slug)
		if err != nil {
			return "", err
		}
		if ok {
			return status, nil
		}
	}
	return "", ErrNotFound
}

// ListAll merges both collections, newest first. Untitled articles are
// listed under their slug.
func (m *ContentManager) ListAll() ([]models.Article, error) {
	return m.cache.get(func() ([]models.Article, error) {
		published, err := m.list(models.StatusPublished)
		if err != nil {
			return nil, err
		}
		drafts, err := m.list(models.StatusDraft)
		if err != nil {
			return nil, err
		}
		articles := append(published, drafts...)
		sortArticles(articles)
		return articles, nil
	})
}

func (m *ContentManager) ListPublished() ([]models.Article, error) {
	all, err := m.ListAll()
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, a := range all {
		if a.Status == models.StatusPublished {
			out = append(out, a)
		}
	}
	return out, nil
}

// Get returns the article from whichever collection holds it.
func (m *ContentManager) Get(slug string) (*models.Article, error) {
	if err := ValidateSlug(slug); err != nil {
		return nil, err
	}
	status, err := m.locate(slug)
	if err != nil {
		return nil, err
	}
	return m.read(status, slug)
}

func (m *ContentManager) GetPublished(slug string) (*models.Article, error) {
	if err := ValidateSlug(slug); err != nil {
		return nil, err
	}
	return m.read(models.StatusPublished, slug)
}

// RecentNotes returns published articles dated within window of now,
// newest first. Articles without a date count as new.
func (m *ContentManager) RecentNotes(window time.Duration) ([]models.Note, error) {
	published, err := m.ListPublished()
	if err != nil {
		return nil, err
	}
	now := m.now()
	cutoff := now.Add(-window)

	type dated struct {
		note models.Note
		at   time.Time
	}
	var recent []dated
	for _, a := range published {
		date := a.Date
		if date == "" {
			date = now.UTC().Format(time.RFC3339)
		}
		t, ok := parseArticleDate(date)
		if !ok || t.Before(cutoff) {
			continue
		}
		recent = append(recent, dated{models.Note{Title: a.Title, Slug: a.Slug, Date: date, Excerpt: a.Excerpt}, t})
	}
	sort.SliceStable(recent, func(i, j int) bool { return recent[i].at.After(recent[j].at) })

	notes := make([]models.Note, 0, len(recent))
	for _, r := range recent {
		notes = append(notes, r.note)
	}
	return notes, nil
}

func (m *ContentManager) read(status models.Status, slug string) (*models.Article, error) {
	raw, err := m.repo.Read(status, slug)
	if err != nil {
		return nil, err
	}
	doc, err := ParseDocument(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", slug, err)
	}
	a := articleFromDocument(slug, status, doc)
	return &a, nil
}

func (m *ContentManager) list(status models.Status) ([]models.Article, error) {
	slugs, err := m.repo.List(status)
	if err != nil {
		return nil, err
	}
	articles := make([]models.Article, 0, len(slugs))
	for _, slug := range slugs {
		a, err := m.read(status, slug)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			m.log.WithFields(logrus.Fields{"slug": slug, "error": err}).Warn("Unreadable article, listing with defaults")
			articles = append(articles, models.Article{ID: slug + ArticleExt, Slug: slug, Title: slug, Status: status})
			continue
		}
		if a.Title == "" {
			a.Title = slug
		}
		articles = append(articles, *a)
	}
	return articles, nil
}

// articleFromDocument tags the article with the status of its location,
// whatever its metadata says.
func articleFromDocument(slug string, status models.Status, doc *Document) models.Article {
	return models.Article{
		ID:          slug + ArticleExt,
		Slug:        slug,
		Title:       doc.FrontMatter.Title,
		Date:        doc.FrontMatter.Date,
		Author:      doc.FrontMatter.Author,
		Excerpt:     doc.FrontMatter.Excerpt,
		Description: doc.FrontMatter.Description,
		Status:      status,
		Content:     doc.Body,
	}
}

// sortArticles orders by date string descending; empty dates sort last.
func sortArticles(articles []models.Article) {
	sort.SliceStable(articles, func(i, j int) bool {
		if articles[i].Date != articles[j].Date {
			return articles[i].Date > articles[j].Date
		}
		return articles[i].Slug < articles[j].Slug
	})
}

var articleDateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
}

func parseArticleDate(s string) (time.Time, bool) {
	for _, layout := range articleDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
