package imagestore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/rs/xid"
)

// Local keeps images in a directory served by the web server under URLPrefix.
// The handle is the generated file name.
type Local struct {
	dir       string
	urlPrefix string
}

var _ Store = (*Local)(nil)

func NewLocal(dir, urlPrefix string) (*Local, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("imagestore: creating %s: %w", dir, err)
	}
	return &Local{dir: dir, urlPrefix: strings.TrimSuffix(urlPrefix, "/")}, nil
}

// Dir is the directory to serve statically.
func (l *Local) Dir() string { return l.dir }

func (l *Local) Store(ctx context.Context, up *Upload) (Image, error) {
	if err := ctx.Err(); err != nil {
		return Image{}, err
	}
	name := xid.New().String() + Extension(up.ContentType)
	dst := filepath.Join(l.dir, name)

	f, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return Image{}, fmt.Errorf("imagestore: creating %s: %w", name, err)
	}
	if _, err := io.Copy(f, up.Body); err != nil {
		f.Close()
		os.Remove(dst)
		return Image{}, fmt.Errorf("imagestore: writing %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(dst)
		return Image{}, fmt.Errorf("imagestore: closing %s: %w", name, err)
	}
	return Image{URL: path.Join(l.urlPrefix, name), Handle: name}, nil
}

// Delete removes the file; an already missing file is not an error.
func (l *Local) Delete(_ context.Context, handle string) error {
	if handle == "" || handle != filepath.Base(handle) {
		return fmt.Errorf("imagestore: invalid handle %q", handle)
	}
	err := os.Remove(filepath.Join(l.dir, handle))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("imagestore: deleting %s: %w", handle, err)
	}
	return nil
}
