package services

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"blogfolio/pkg/models"
)

// ArticleExt is the extension of article files in both collections.
const ArticleExt = ".mdx"

var (
	ErrNotFound    = errors.New("article not found")
	ErrInvalidSlug = errors.New("invalid slug")
	ErrRead        = errors.New("read failed")
	ErrWrite       = errors.New("write failed")
	ErrDelete      = errors.New("delete failed")
)

var slugPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// ValidateSlug rejects slugs that are not usable as a single file name.
func ValidateSlug(slug string) error {
	if !slugPattern.MatchString(slug) || strings.Contains(slug, "..") {
		return fmt.Errorf("%w: %q", ErrInvalidSlug, slug)
	}
	return nil
}

// SafeJoin joins target under root/sub, returning "" when target escapes.
func SafeJoin(root, sub, target string) string {
	cleanTarget := filepath.Clean(target)
	if strings.Contains(cleanTarget, "..") || filepath.IsAbs(cleanTarget) {
		return ""
	}
	return filepath.Join(root, sub, cleanTarget)
}

// Repository stores article files in two named collections, one per status.
type Repository interface {
	Exists(status models.Status, slug string) (bool, error)
	Read(status models.Status, slug string) ([]byte, error)
	Write(status models.Status, slug string, content []byte) error
	Delete(status models.Status, slug string) error
	List(status models.Status) ([]string, error)
}

var _ Repository = (*FileRepository)(nil)

// FileRepository keeps each collection in its own directory as <slug>.mdx.
type FileRepository struct {
	dirs map[models.Status]string
}

func NewFileRepository(publishedDir, draftDir string) *FileRepository {
	return &FileRepository{dirs: map[models.Status]string{
		models.StatusPublished: publishedDir,
		models.StatusDraft:     draftDir,
	}}
}

func (r *FileRepository) Dir(status models.Status) string {
	return r.dirs[status]
}

func (r *FileRepository) Path(status models.Status, slug string) string {
	return filepath.Join(r.dirs[status], slug+ArticleExt)
}

func (r *FileRepository) Exists(status models.Status, slug string) (bool, error) {
	info, err := os.Stat(r.Path(status, slug))
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrRead, err)
	}
	return !info.IsDir(), nil
}

func (r *FileRepository) Read(status models.Status, slug string) ([]byte, error) {
	content, err := os.ReadFile(r.Path(status, slug))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRead, err)
	}
	return content, nil
}

// Write replaces the file atomically: readers see the old or the new
// content, never a partial file.
func (r *FileRepository) Write(status models.Status, slug string, content []byte) error {
	if err := writeFileAtomic(r.Path(status, slug), content, 0644); err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	return nil
}

func (r *FileRepository) Delete(status models.Status, slug string) error {
	if err := os.Remove(r.Path(status, slug)); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrNotFound
		}
		return fmt.Errorf("%w: %w", ErrDelete, err)
	}
	return nil
}

// List returns the slugs in a collection. A missing directory is empty.
func (r *FileRepository) List(status models.Status) ([]string, error) {
	entries, err := os.ReadDir(r.dirs[status])
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRead, err)
	}

	var slugs []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ArticleExt) {
			continue
		}
		slugs = append(slugs, strings.TrimSuffix(entry.Name(), ArticleExt))
	}
	sort.Strings(slugs)
	return slugs, nil
}

func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return err
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		cleanup()
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return err
	}
	return nil
}
