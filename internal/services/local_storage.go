package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/codeatpanorama/vision-flow/internal/models"
)

// LocalImageStore writes check images under a base directory
type LocalImageStore struct {
	basePath string
}

// NewLocalImageStore creates a new local image store
func NewLocalImageStore(basePath string) (*LocalImageStore, error) {
	// Ensure base directory exists
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &LocalImageStore{basePath: basePath}, nil
}

// SaveCheckImage writes <base>/<checkID>/check_<side>.png and returns its path
func (s *LocalImageStore) SaveCheckImage(ctx context.Context, checkID, side string, png []byte) (string, error) {
	fullPath := filepath.Join(s.basePath, filepath.FromSlash(CheckImageKey(checkID, side)))

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	if _, err := io.Copy(file, bytes.NewReader(png)); err != nil {
		// Clean up on error
		os.Remove(fullPath)
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	return fullPath, nil
}

// GetObject opens a stored image
func (s *LocalImageStore) GetObject(ctx context.Context, key string) (io.ReadCloser, string, error) {
	clean := filepath.Clean(filepath.FromSlash(key))
	if filepath.IsAbs(clean) || strings.HasPrefix(clean, "..") {
		return nil, "", fmt.Errorf("invalid key %q", key)
	}

	file, err := os.Open(filepath.Join(s.basePath, clean))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, "", fmt.Errorf("file %s: %w", key, models.ErrNotFound)
		}
		return nil, "", fmt.Errorf("failed to open file: %w", err)
	}
	return file, "image/png", nil
}
