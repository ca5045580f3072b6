package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// emptyTree is the hash of git's empty tree, used when a push creates a
// branch and has no parent commit.
const emptyTree = "4b825dc642cb6eb9a060e54bf8d69288fbee4904"

var (
	zeroCommit = regexp.MustCompile(`^0+$`)
	commitID   = regexp.MustCompile(`^[0-9a-fA-F]{4,64}$`)

	ErrInvalidCommit = errors.New("invalid commit id")
)

type GitConfig struct {
	RepoPath   string
	ContentDir string
	Branch     string
	Remote     string
	UserName   string
	UserEmail  string
}

// GitService runs git in the content repository.
type GitService struct {
	cfg          GitConfig
	publishedRel string
	log          *logrus.Entry
}

func NewGitService(cfg GitConfig, logger *logrus.Logger) *GitService {
	rel, err := filepath.Rel(cfg.RepoPath, cfg.ContentDir)
	if err != nil {
		rel = cfg.ContentDir
	}
	return &GitService{
		cfg:          cfg,
		publishedRel: path.Clean(filepath.ToSlash(rel)),
		log:          logger.WithField("component", "git"),
	}
}

func (g *GitService) command(ctx context.Context, args ...string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = g.cfg.RepoPath
	return cmd
}

// executeWithToken runs git with the remote name replaced by an URL that
// carries token. The token is masked in the returned output.
func (g *GitService) executeWithToken(ctx context.Context, token string, args ...string) (string, error) {
	if token == "" {
		out, err := g.command(ctx, args...).CombinedOutput()
		return string(out), err
	}

	outURL, err := g.command(ctx, "remote", "get-url", g.cfg.Remote).Output()
	if err != nil {
		return "Failed to get remote url", err
	}
	remoteURL := strings.TrimSpace(string(outURL))
	u, err := url.Parse(remoteURL)
	if err != nil {
		return "Invalid remote url", err
	}
	u.User = url.UserPassword("oauth2", token)
	authenticatedURL := u.String()

	newArgs := make([]string, len(args))
	copy(newArgs, args)
	for i, v := range newArgs {
		if v == g.cfg.Remote {
			newArgs[i] = authenticatedURL
		}
	}

	output, err := g.command(ctx, newArgs...).CombinedOutput()
	safeLog := strings.ReplaceAll(string(output), authenticatedURL, remoteURL)
	safeLog = strings.ReplaceAll(safeLog, token, "***")
	return safeLog, err
}

// Sync pulls the configured branch.
func (g *GitService) Sync(ctx context.Context, token string) (string, error) {
	out, err := g.executeWithToken(ctx, token, "pull", g.cfg.Remote, g.cfg.Branch)
	if err != nil {
		g.log.WithError(err).Warn("git pull failed")
	}
	return out, err
}

// Publish commits every change under the content dir and pushes it.
func (g *GitService) Publish(ctx context.Context, token string) (string, error) {
	if out, err := g.command(ctx, "add", "--", g.publishedRel).CombinedOutput(); err != nil {
		return string(out), err
	}

	msg := fmt.Sprintf("Update content: %s", time.Now().Format("2006-01-02 15:04:05"))
	commit := g.command(ctx,
		"-c", "user.name="+g.cfg.UserName,
		"-c", "user.email="+g.cfg.UserEmail,
		"commit", "-m", msg,
	)
	// Nothing to commit is fine; the push still sends earlier commits.
	if out, err := commit.CombinedOutput(); err != nil {
		g.log.WithField("output", strings.TrimSpace(string(out))).Debug("git commit skipped")
	}

	return g.executeWithToken(ctx, token, "push", g.cfg.Remote, g.cfg.Branch)
}

// AddedPublishedSlugs lists articles added directly under the published
// directory between two commits.
func (g *GitService) AddedPublishedSlugs(ctx context.Context, before, after string) ([]string, error) {
	if !commitID.MatchString(after) || zeroCommit.MatchString(after) {
		return nil, fmt.Errorf("%w: after %q", ErrInvalidCommit, after)
	}
	switch {
	case before == "" || zeroCommit.MatchString(before):
		before = emptyTree
	case !commitID.MatchString(before):
		return nil, fmt.Errorf("%w: before %q", ErrInvalidCommit, before)
	}
	out, err := g.command(ctx, "diff", "--name-only", "--diff-filter=A", "--end-of-options", before, after, "--", g.publishedRel).Output()
	if err != nil {
		return nil, fmt.Errorf("git diff %s..%s: %w", before, after, err)
	}
	return parseAddedSlugs(string(out), g.publishedRel), nil
}

func parseAddedSlugs(output, publishedRel string) []string {
	var slugs []string
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || path.Dir(line) != publishedRel || path.Ext(line) != ArticleExt {
			continue
		}
		slug := strings.TrimSuffix(path.Base(line), ArticleExt)
		if ValidateSlug(slug) != nil {
			continue
		}
		slugs = append(slugs, slug)
	}
	return slugs
}

// Diff shows what replacing saved with edited would change. An empty string
// means the two are identical.
func (g *GitService) Diff(ctx context.Context, saved, edited []byte) (string, error) {
	f1, err := os.CreateTemp("", "diff_old_*")
	if err != nil {
		return "", err
	}
	defer os.Remove(f1.Name())
	f2, err := os.CreateTemp("", "diff_new_*")
	if err != nil {
		f1.Close()
		return "", err
	}
	defer os.Remove(f2.Name())

	_, err1 := f1.Write(saved)
	_, err2 := f2.Write(edited)
	f1.Close()
	f2.Close()
	if err1 != nil {
		return "", err1
	}
	if err2 != nil {
		return "", err2
	}

	cmd := exec.CommandContext(ctx, "git", "diff", "--no-index", f1.Name(), f2.Name())
	output, err := cmd.CombinedOutput()
	if err != nil && cmd.ProcessState != nil && cmd.ProcessState.ExitCode() == 1 {
		diff := string(output)
		for name, label := range map[string]string{f1.Name(): "Saved", f2.Name(): "Editor"} {
			diff = strings.ReplaceAll(diff, name, label)
			diff = strings.ReplaceAll(diff, strings.TrimPrefix(name, "/"), label)
		}
		return diff, nil
	}
	if err != nil {
		return "", fmt.Errorf("git diff: %w", err)
	}
	return "", nil
}
