package services

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"blogfolio/pkg/logging"
)

func TestParseAddedSlugs(t *testing.T) {
	tests := []struct {
		name   string
		output string
		rel    string
		want   []string
	}{
		{
			name:   "direct children only",
			output: "content/notes/new-post.mdx\ncontent/notes/draft_folder/wip.mdx\ncontent/notes/img.png\n",
			rel:    "content/notes",
			want:   []string{"new-post"},
		},
		{
			name:   "other directories ignored",
			output: "README.md\nsrc/app.mdx\ncontent/notes/a.mdx\ncontent/notes/b.mdx",
			rel:    "content/notes",
			want:   []string{"a", "b"},
		},
		{
			name:   "repo root",
			output: "post.mdx\nnested/post.mdx\n",
			rel:    ".",
			want:   []string{"post"},
		},
		{
			name:   "empty",
			output: "",
			rel:    "content/notes",
			want:   nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseAddedSlugs(tt.output, tt.rel)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}

func runGit(t *testing.T, dir string, args ...string) string {
	t.Helper()
	cmd := exec.Command("git", append([]string{"-c", "user.name=Test", "-c", "user.email=test@example.com"}, args...)...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("git %s: %v\n%s", strings.Join(args, " "), err, out)
	}
	return strings.TrimSpace(string(out))
}

func TestAddedPublishedSlugsAgainstRepository(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	repo := t.TempDir()
	content := filepath.Join(repo, "content", "notes")
	if err := os.MkdirAll(filepath.Join(content, "draft_folder"), 0755); err != nil {
		t.Fatal(err)
	}
	write := func(rel string) {
		if err := os.WriteFile(filepath.Join(content, rel), []byte("---\ntitle: x\n---\n"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	runGit(t, repo, "init", "-q")
	write("existing.mdx")
	runGit(t, repo, "add", ".")
	runGit(t, repo, "commit", "-q", "-m", "first")
	before := runGit(t, repo, "rev-parse", "HEAD")

	write("fresh.mdx")
	write("draft_folder/wip.mdx")
	if err := os.WriteFile(filepath.Join(content, "existing.mdx"), []byte("changed"), 0644); err != nil {
		t.Fatal(err)
	}
	runGit(t, repo, "add", ".")
	runGit(t, repo, "commit", "-q", "-m", "second")
	after := runGit(t, repo, "rev-parse", "HEAD")

	g := NewGitService(GitConfig{RepoPath: repo, ContentDir: content, Branch: "main", Remote: "origin"}, logging.Discard())

	slugs, err := g.AddedPublishedSlugs(context.Background(), before, after)
	if err != nil {
		t.Fatalf("AddedPublishedSlugs error: %v", err)
	}
	if !reflect.DeepEqual(slugs, []string{"fresh"}) {
		t.Errorf("Expected [fresh], got %v", slugs)
	}

	all, err := g.AddedPublishedSlugs(context.Background(), strings.Repeat("0", 40), after)
	if err != nil {
		t.Fatalf("AddedPublishedSlugs from zero commit: %v", err)
	}
	if !reflect.DeepEqual(all, []string{"existing", "fresh"}) {
		t.Errorf("Expected [existing fresh], got %v", all)
	}

	target := filepath.Join(t.TempDir(), "written.txt")
	for _, tc := range []struct{ before, after string }{
		{"--output=" + target, after},
		{before, "--output=" + target},
		{before, "HEAD~1"},
		{before, ""},
		{before, strings.Repeat("0", 40)},
	} {
		if _, err := g.AddedPublishedSlugs(context.Background(), tc.before, tc.after); !errors.Is(err, ErrInvalidCommit) {
			t.Errorf("AddedPublishedSlugs(%q, %q): expected ErrInvalidCommit, got %v", tc.before, tc.after, err)
		}
	}
	if _, err := os.Stat(target); !os.IsNotExist(err) {
		t.Errorf("git wrote %s: %v", target, err)
	}
}

func TestDiff(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	g := NewGitService(GitConfig{RepoPath: t.TempDir()}, logging.Discard())

	same, err := g.Diff(context.Background(), []byte("a\n"), []byte("a\n"))
	if err != nil || same != "" {
		t.Errorf("Expected empty diff, got %q, %v", same, err)
	}
	diff, err := g.Diff(context.Background(), []byte("a\n"), []byte("b\n"))
	if err != nil {
		t.Fatalf("Diff error: %v", err)
	}
	if !strings.Contains(diff, "-a") || !strings.Contains(diff, "+b") {
		t.Errorf("Unexpected diff:\n%s", diff)
	}
}
