package services

import (
	"context"
	"fmt"
	"io"
)

// Check image sides
const (
	SideFront = "front"
	SideBack  = "back"
)

// ImageStore archives the cleaned images of each check.
// This allows switching between S3 and local storage implementations.
type ImageStore interface {
	// SaveCheckImage stores one side of a check and returns where it was written
	SaveCheckImage(ctx context.Context, checkID, side string, png []byte) (string, error)

	// GetObject retrieves a stored image by key
	GetObject(ctx context.Context, key string) (io.ReadCloser, string, error)
}

// CheckImageKey generates the storage key for one side of a check
func CheckImageKey(checkID, side string) string {
	return fmt.Sprintf("%s/check_%s.png", checkID, side)
}
