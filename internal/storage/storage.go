package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// UploadsDir is the directory under the static root that holds garment images.
const UploadsDir = "uploads"

// ErrUnsupportedImage is returned for files that are not a known image type.
var ErrUnsupportedImage = errors.New("unsupported image type")

var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".webp": true,
	".gif":  true,
}

// ImageStore provides file-based storage for garment images served under
// /static/uploads/.
type ImageStore struct {
	basePath string
}

// NewImageStore creates a new ImageStore rooted at staticDir and ensures the
// uploads directory exists.
func NewImageStore(staticDir string) (*ImageStore, error) {
	basePath := filepath.Join(staticDir, UploadsDir)
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory %s: %w", basePath, err)
	}
	return &ImageStore{basePath: basePath}, nil
}

// Save copies src into the store under a fresh name and returns that name.
// The name is what the wardrobe records as the garment's image_url.
func (s *ImageStore) Save(src io.Reader, originalName string) (string, error) {
	ext := strings.ToLower(filepath.Ext(originalName))
	if !imageExtensions[ext] {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedImage, originalName)
	}

	name := uuid.NewString() + ext
	f, err := os.OpenFile(s.path(name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return "", fmt.Errorf("failed to create image file: %w", err)
	}
	if _, err := io.Copy(f, src); err != nil {
		f.Close()
		os.Remove(s.path(name))
		return "", fmt.Errorf("failed to write image file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to close image file: %w", err)
	}
	return name, nil
}

// SaveFile is Save for a file on local disk.
func (s *ImageStore) SaveFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()
	return s.Save(f, filepath.Base(path))
}

// Remove deletes a stored image. Removing a missing image is not an error.
func (s *ImageStore) Remove(name string) error {
	if err := os.Remove(s.path(name)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove image %s: %w", name, err)
	}
	return nil
}

// path keeps lookups inside the store even for names like "../x".
func (s *ImageStore) path(name string) string {
	return filepath.Join(s.basePath, filepath.Base(name))
}
