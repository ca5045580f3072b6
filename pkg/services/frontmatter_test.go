package services

import (
	"errors"
	"strings"
	"testing"

	"blogfolio/pkg/models"
)

func TestParseFrontMatterFormats(t *testing.T) {
	tests := []struct {
		name    string
		content string
		format  string
		title   string
		body    string
	}{
		{
			name:    "yaml",
			content: "---\ntitle: \"Hello\"\ndate: \"2026-01-02\"\n---\n\nBody here\n",
			format:  FormatYAML,
			title:   "Hello",
			body:    "Body here",
		},
		{
			name:    "yaml with crlf",
			content: "---\r\ntitle: Hello\r\n---\r\nBody\r\n",
			format:  FormatYAML,
			title:   "Hello",
			body:    "Body",
		},
		{
			name:    "toml",
			content: "+++\ntitle = \"Hello\"\n+++\nBody\n",
			format:  FormatTOML,
			title:   "Hello",
			body:    "Body",
		},
		{
			name:    "json",
			content: "{\"title\": \"Hello\"}\n\nBody\n",
			format:  FormatJSON,
			title:   "Hello",
			body:    "Body",
		},
		{
			name:    "delimiter inside body",
			content: "---\ntitle: Hello\n---\nIntro\n\n---\n\nAfter rule\n",
			format:  FormatYAML,
			title:   "Hello",
			body:    "Intro\n\n---\n\nAfter rule",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fm, body, format, err := ParseFrontMatter([]byte(tt.content))
			if err != nil {
				t.Fatalf("ParseFrontMatter error: %v", err)
			}
			if format != tt.format {
				t.Errorf("Expected format %s, got %s", tt.format, format)
			}
			if fm["title"] != tt.title {
				t.Errorf("Expected title %q, got %v", tt.title, fm["title"])
			}
			if body != tt.body {
				t.Errorf("Expected body %q, got %q", tt.body, body)
			}
		})
	}
}

func TestParseFrontMatterErrors(t *testing.T) {
	if _, _, _, err := ParseFrontMatter([]byte("just text")); !errors.Is(err, ErrNoFrontMatter) {
		t.Errorf("Expected ErrNoFrontMatter, got %v", err)
	}
	if _, _, _, err := ParseFrontMatter([]byte("---\ntitle: [unclosed\n---\nbody")); !errors.Is(err, ErrMalformedFrontMatter) {
		t.Errorf("Expected ErrMalformedFrontMatter, got %v", err)
	}
}

func TestParseDocumentWithoutFrontMatter(t *testing.T) {
	doc, err := ParseDocument([]byte("plain body\n"))
	if err != nil {
		t.Fatalf("ParseDocument error: %v", err)
	}
	if doc.Format != FormatYAML || doc.Body != "plain body" {
		t.Errorf("Unexpected document: %+v", doc)
	}
}

func TestConstructFileContentYAML(t *testing.T) {
	fm := FrontMatter{
		Title:   "Hello World",
		Date:    "2026-10-19",
		Author:  "Ada",
		Excerpt: "",
		Status:  models.StatusDraft,
	}
	out, err := ConstructFileContent(fm, "Body text", FormatYAML)
	if err != nil {
		t.Fatalf("ConstructFileContent error: %v", err)
	}
	content := string(out)

	if !strings.HasPrefix(content, "---\ntitle: \"Hello World\"\n") {
		t.Errorf("Unexpected header:\n%s", content)
	}
	for _, line := range []string{
		`date: "2026-10-19"`,
		`author: "Ada"`,
		`excerpt: ""`,
		`status: "Draft"`,
	} {
		if !strings.Contains(content, line+"\n") {
			t.Errorf("Expected line %q in:\n%s", line, content)
		}
	}
	if !strings.HasSuffix(content, "---\n\nBody text\n") {
		t.Errorf("Unexpected body section:\n%s", content)
	}
	if strings.Index(content, "title:") > strings.Index(content, "status:") {
		t.Error("Known keys must keep their order")
	}
}

func TestDocumentRoundTripKeepsExtraKeys(t *testing.T) {
	src := "---\ntitle: Hello\ntags:\n  - go\n  - blog\ndraft: false\n---\n\nBody\n"
	doc, err := ParseDocument([]byte(src))
	if err != nil {
		t.Fatalf("ParseDocument error: %v", err)
	}
	doc.FrontMatter.Status = models.StatusPublished

	out, err := doc.Bytes()
	if err != nil {
		t.Fatalf("Bytes error: %v", err)
	}
	again, err := ParseDocument(out)
	if err != nil {
		t.Fatalf("ParseDocument round trip error: %v", err)
	}
	if again.FrontMatter.Status != models.StatusPublished {
		t.Errorf("Expected status to be added, got %q", again.FrontMatter.Status)
	}
	if _, ok := again.FrontMatter.Extra["tags"]; !ok {
		t.Errorf("Extra key tags dropped:\n%s", out)
	}
	if again.Body != "Body" {
		t.Errorf("Body changed: %q", again.Body)
	}
}

func TestDocumentKeepsTOMLFormat(t *testing.T) {
	doc, err := ParseDocument([]byte("+++\ntitle = \"Hi\"\nstatus = \"Draft\"\n+++\nBody\n"))
	if err != nil {
		t.Fatalf("ParseDocument error: %v", err)
	}
	doc.FrontMatter.Status = models.StatusPublished
	out, err := doc.Bytes()
	if err != nil {
		t.Fatalf("Bytes error: %v", err)
	}
	if !strings.HasPrefix(string(out), "+++\n") {
		t.Errorf("Expected TOML output, got:\n%s", out)
	}
	if !strings.Contains(string(out), "Published") {
		t.Errorf("Expected status in output:\n%s", out)
	}
}

func TestYAMLDateValuesStayDates(t *testing.T) {
	doc, err := ParseDocument([]byte("---\ntitle: Hi\ndate: 2026-03-04\n---\n"))
	if err != nil {
		t.Fatalf("ParseDocument error: %v", err)
	}
	if doc.FrontMatter.Date != "2026-03-04" {
		t.Errorf("Expected 2026-03-04, got %q", doc.FrontMatter.Date)
	}
}
