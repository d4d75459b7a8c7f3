package storage

import (
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"locmaison/backend/internal/config"
)

// IMediaStorage defines the interface for listing media operations.
type IMediaStorage interface {
	Save(file *multipart.FileHeader) (string, error)
	Remove(filename string)
	Path(filename string) string
}

// mediaStorage implements IMediaStorage on the local filesystem. Files
// are served back verbatim under /uploads by the router.
type mediaStorage struct {
	dir string
}

// NewMediaStorage creates the upload directory if needed and returns the store.
func NewMediaStorage(cfg *config.Config) (IMediaStorage, error) {
	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir %s: %w", cfg.UploadDir, err)
	}
	return &mediaStorage{dir: cfg.UploadDir}, nil
}

// Save writes an uploaded file to disk under a generated name and
// returns that name. The original filename only contributes its
// extension; the rest is discarded to keep stored names opaque.
func (s *mediaStorage) Save(file *multipart.FileHeader) (string, error) {
	ext := strings.ToLower(filepath.Ext(file.Filename))
	name := uuid.NewString() + ext

	src, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open uploaded file %s: %w", file.Filename, err)
	}
	defer src.Close()

	dst, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return "", fmt.Errorf("failed to create media file %s: %w", name, err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", fmt.Errorf("failed to write media file %s: %w", name, err)
	}

	return name, nil
}

// Remove deletes a stored file. Failures are logged and tolerated:
// cleanup must never abort the owning database operation.
func (s *mediaStorage) Remove(filename string) {
	// Reject anything that could escape the upload dir.
	if filename == "" || filename != filepath.Base(filename) {
		log.Printf("Refusing to remove suspicious media filename: %q", filename)
		return
	}
	if err := os.Remove(filepath.Join(s.dir, filename)); err != nil && !os.IsNotExist(err) {
		log.Printf("Failed to remove media file %s: %v", filename, err)
	}
}

// Path returns the on-disk path for a stored filename.
func (s *mediaStorage) Path(filename string) string {
	return filepath.Join(s.dir, filename)
}
