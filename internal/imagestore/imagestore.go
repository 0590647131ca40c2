// Package imagestore hosts product images and deletes them by handle.
//
// The caller checks an upload with Detect before calling Store; stores
// themselves do not re-check the encoding.
package imagestore

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/gabriel-vasile/mimetype"
)

// ErrUnsupportedFormat is returned by Detect for anything but JPEG or PNG.
var ErrUnsupportedFormat = errors.New("unsupported image format")

var allowed = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
}

// Upload is an image submitted with a product form.
type Upload struct {
	Filename    string
	ContentType string // sniffed by Detect, not the client's claim
	Size        int64
	Body        io.ReadSeeker
}

// Image is a hosted image.
type Image struct {
	URL    string
	Handle string
}

type Store interface {
	Store(ctx context.Context, up *Upload) (Image, error)
	Delete(ctx context.Context, handle string) error
}

// Detect sniffs the leading bytes of body, rewinds it and returns the MIME
// type when it is on the allow-list.
func Detect(body io.ReadSeeker) (string, error) {
	mt, err := mimetype.DetectReader(body)
	if err != nil {
		return "", fmt.Errorf("imagestore: sniffing upload: %w", err)
	}
	if _, err := body.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("imagestore: rewinding upload: %w", err)
	}
	if _, ok := allowed[mt.String()]; !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, mt.String())
	}
	return mt.String(), nil
}

// Extension returns the file extension used for a detected content type.
func Extension(contentType string) string {
	if ext, ok := allowed[contentType]; ok {
		return ext
	}
	return ".bin"
}
