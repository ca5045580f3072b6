package services

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
)

const (
	PhotoFolder    = "uploads/photos"
	MaxResumeSize  = 10 << 20
	MaxPhotoSize   = 20 << 20
	pdfContentType = "application/pdf"
)

var ErrInvalidUpload = errors.New("invalid upload")

var photoExts = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true, ".avif": true,
}

type MediaFile struct {
	Name string `json:"name"`
	Path string `json:"path"` // path on disk, relative to the public dir
	Size int64  `json:"size"`
	URL  string `json:"url"`
}

// MediaStore writes uploaded files under the public directory served by
// the frontend.
type MediaStore struct {
	publicDir  string
	resumeFile string
	now        func() time.Time
}

func NewMediaStore(publicDir, resumeFile string) *MediaStore {
	return &MediaStore{publicDir: publicDir, resumeFile: resumeFile, now: time.Now}
}

// SaveResume replaces the downloadable resume. Only PDFs are accepted.
func (s *MediaStore) SaveResume(header *multipart.FileHeader) (*MediaFile, error) {
	if header == nil {
		return nil, fmt.Errorf("%w: no file uploaded", ErrInvalidUpload)
	}
	if ct := header.Header.Get("Content-Type"); ct != pdfContentType {
		return nil, fmt.Errorf("%w: only PDF files are allowed", ErrInvalidUpload)
	}
	if header.Size > MaxResumeSize {
		return nil, fmt.Errorf("%w: file exceeds %d bytes", ErrInvalidUpload, MaxResumeSize)
	}

	data, err := readUpload(header, MaxResumeSize)
	if err != nil {
		return nil, err
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		return nil, fmt.Errorf("%w: file is not a PDF document", ErrInvalidUpload)
	}

	name := filepath.Base(s.resumeFile)
	if err := writeFileAtomic(filepath.Join(s.publicDir, name), data, 0644); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrWrite, err)
	}
	return &MediaFile{Name: name, Path: name, Size: int64(len(data)), URL: "/" + name}, nil
}

// SavePhoto stores an image under a timestamped name so uploads never
// overwrite each other.
func (s *MediaStore) SavePhoto(header *multipart.FileHeader) (*MediaFile, error) {
	if header == nil {
		return nil, fmt.Errorf("%w: no file uploaded", ErrInvalidUpload)
	}
	filename := filepath.Base(header.Filename)
	filename = strings.ReplaceAll(filename, " ", "_")
	ext := strings.ToLower(filepath.Ext(filename))
	if !photoExts[ext] {
		return nil, fmt.Errorf("%w: unsupported image type %q", ErrInvalidUpload, ext)
	}
	if header.Size > MaxPhotoSize {
		return nil, fmt.Errorf("%w: file exceeds %d bytes", ErrInvalidUpload, MaxPhotoSize)
	}

	name := strings.TrimSuffix(filename, filepath.Ext(filename))
	filename = fmt.Sprintf("%s_%d%s", name, s.now().UnixNano(), ext)

	fullPath := SafeJoin(s.publicDir, PhotoFolder, filename)
	if fullPath == "" {
		return nil, fmt.Errorf("%w: invalid media path", ErrInvalidUpload)
	}

	data, err := readUpload(header, MaxPhotoSize)
	if err != nil {
		return nil, err
	}
	if err := writeFileAtomic(fullPath, data, 0644); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrWrite, err)
	}

	rel := path.Join(PhotoFolder, filename)
	return &MediaFile{Name: filename, Path: rel, Size: int64(len(data)), URL: "/" + rel}, nil
}

// IsLocalPhoto reports whether url points at a file SavePhoto wrote.
func (s *MediaStore) IsLocalPhoto(url string) bool {
	return strings.HasPrefix(url, "/"+PhotoFolder+"/")
}

// DeletePhoto removes a locally stored photo. External URLs are ignored.
func (s *MediaStore) DeletePhoto(url string) error {
	if !s.IsLocalPhoto(url) {
		return nil
	}
	fullPath := SafeJoin(s.publicDir, PhotoFolder, path.Base(url))
	if fullPath == "" {
		return fmt.Errorf("%w: invalid media path", ErrInvalidUpload)
	}
	if err := os.Remove(fullPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %w", ErrDelete, err)
	}
	return nil
}

func readUpload(header *multipart.FileHeader, limit int64) ([]byte, error) {
	src, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidUpload, err)
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, limit+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRead, err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: file exceeds %d bytes", ErrInvalidUpload, limit)
	}
	return data, nil
}
