package services

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"blogfolio/pkg/logging"
	"blogfolio/pkg/models"

	"github.com/mmcdole/gofeed"
)

func TestFeaturedLinksIconFallback(t *testing.T) {
	data, public := t.TempDir(), t.TempDir()
	if err := os.MkdirAll(filepath.Join(public, "icons"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(public, "icons", "gh.png"), []byte("png"), 0644); err != nil {
		t.Fatal(err)
	}
	featured := `[
		{"title": "GitHub", "url": "https://github.com", "icon_path": "/icons/gh.png"},
		{"title": "Talk", "url": "https://example.com", "icon_path": "/icons/missing.png"},
		{"title": "Plain", "url": "https://example.org"}
	]`
	if err := os.WriteFile(filepath.Join(data, "featured.json"), []byte(featured), 0644); err != nil {
		t.Fatal(err)
	}

	links := NewSiteService(data, public, "Ada", logging.Discard()).FeaturedLinks()
	if len(links) != 3 {
		t.Fatalf("Expected 3 links, got %d", len(links))
	}
	want := []string{"/icons/gh.png", DefaultIconPath, DefaultIconPath}
	for i, l := range links {
		if l.IconPath != want[i] {
			t.Errorf("link %d: expected icon %s, got %s", i, want[i], l.IconPath)
		}
	}
}

func TestFeaturedLinksFallbackList(t *testing.T) {
	links := NewSiteService(t.TempDir(), t.TempDir(), "Ada", logging.Discard()).FeaturedLinks()
	if len(links) != len(fallbackFeaturedLinks) || links[0].Title != fallbackFeaturedLinks[0].Title {
		t.Errorf("Expected fallback list, got %+v", links)
	}
}

func TestStatus(t *testing.T) {
	s := NewSiteService(t.TempDir(), t.TempDir(), "Ada", logging.Discard())
	s.started = time.Date(2026, 10, 19, 11, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC) }

	st := s.Status()
	if st.System != "Ada's System" {
		t.Errorf("Unexpected system %q", st.System)
	}
	if st.TimeISO != "2026-10-19T12:00:00.000Z" {
		t.Errorf("Unexpected time %q", st.TimeISO)
	}
	if st.Uptime != "1h0m0s" {
		t.Errorf("Unexpected uptime %q", st.Uptime)
	}
}

var feedArticles = []models.Article{
	{Slug: "second", Title: "Second", Date: "2026-10-02", Excerpt: "Two", Author: "Ada", Status: models.StatusPublished},
	{Slug: "first", Title: "First", Date: "2026-09-01", Description: "One", Status: models.StatusPublished},
}

func TestBuildSitemap(t *testing.T) {
	out, err := BuildSitemap("https://blog.example.com", feedArticles)
	if err != nil {
		t.Fatalf("BuildSitemap error: %v", err)
	}
	xml := string(out)
	for _, loc := range []string{
		"<loc>https://blog.example.com/</loc>",
		"<loc>https://blog.example.com/blogs/</loc>",
		"<loc>https://blog.example.com/blogs/second</loc>",
		"<loc>https://blog.example.com/blogs/first</loc>",
	} {
		if !strings.Contains(xml, loc) {
			t.Errorf("Expected %s in sitemap:\n%s", loc, xml)
		}
	}
	if !strings.Contains(xml, `xmlns="http://www.sitemaps.org/schemas/sitemap/0.9"`) {
		t.Error("Missing sitemap namespace")
	}
}

func TestBuildRSSParses(t *testing.T) {
	out, err := BuildRSS("https://blog.example.com", "Ada's Blog", feedArticles)
	if err != nil {
		t.Fatalf("BuildRSS error: %v", err)
	}

	feed, err := gofeed.NewParser().ParseString(string(out))
	if err != nil {
		t.Fatalf("generated RSS does not parse: %v", err)
	}
	if feed.Title != "Ada's Blog" {
		t.Errorf("Unexpected title %q", feed.Title)
	}
	if len(feed.Items) != 2 {
		t.Fatalf("Expected 2 items, got %d", len(feed.Items))
	}
	if feed.Items[0].Link != "https://blog.example.com/blogs/second" {
		t.Errorf("Unexpected link %q", feed.Items[0].Link)
	}
	if feed.Items[0].Description != "Two" || feed.Items[1].Description != "One" {
		t.Errorf("Unexpected descriptions %q, %q", feed.Items[0].Description, feed.Items[1].Description)
	}
	if feed.Items[1].PublishedParsed == nil || feed.Items[1].PublishedParsed.Format("2006-01-02") != "2026-09-01" {
		t.Errorf("Unexpected pubDate %v", feed.Items[1].PublishedParsed)
	}
}
