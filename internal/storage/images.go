package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// ErrImageExists is returned by Save when an image is already stored under
// the requested complaint id.
var ErrImageExists = errors.New("image already exists")

// ImageStore keeps uploaded complaint photos on disk, one file per complaint.
type ImageStore struct {
	dir string
}

// NewImageStore creates dir if needed.
func NewImageStore(dir string) (*ImageStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create image directory: %w", err)
	}
	return &ImageStore{dir: dir}, nil
}

// PathFor returns the path an image for complaintID is stored under.
func (s *ImageStore) PathFor(complaintID string) string {
	return filepath.Join(s.dir, complaintID+".jpg")
}

// Save writes r to the path derived from complaintID and returns that path.
// An existing image is never overwritten.
func (s *ImageStore) Save(complaintID string, r io.Reader) (string, error) {
	path := s.PathFor(complaintID)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if errors.Is(err, os.ErrExist) {
		return "", fmt.Errorf("%w: %s", ErrImageExists, complaintID)
	}
	if err != nil {
		return "", fmt.Errorf("failed to create image file: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("failed to write image %s: %w", complaintID, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", err
	}
	return path, nil
}

// Remove deletes a stored image; a missing file is not an error.
func (s *ImageStore) Remove(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Exists reports whether path refers to a regular file.
func (s *ImageStore) Exists(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
