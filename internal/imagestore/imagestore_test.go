package imagestore

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopper/internal/config"
)

var (
	jpegBytes = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00, 0x01, 0x01, 0x00}
	pngBytes  = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1A, '\n', 0x00, 0x00, 0x00, 0x0D, 'I', 'H', 'D', 'R'}
	gifBytes  = []byte("GIF89a\x01\x00\x01\x00")
)

func TestDetect(t *testing.T) {
	tests := []struct {
		name    string
		body    []byte
		want    string
		wantErr bool
	}{
		{name: "jpeg", body: jpegBytes, want: "image/jpeg"},
		{name: "png", body: pngBytes, want: "image/png"},
		{name: "gif is rejected", body: gifBytes, wantErr: true},
		{name: "text is rejected", body: []byte("hello, not an image"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := bytes.NewReader(tt.body)
			got, err := Detect(r)
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrUnsupportedFormat), "err = %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			rest, err := io.ReadAll(r)
			require.NoError(t, err)
			assert.Equal(t, tt.body, rest, "Detect must rewind the body")
		})
	}
}

func TestExtension(t *testing.T) {
	assert.Equal(t, ".jpg", Extension("image/jpeg"))
	assert.Equal(t, ".png", Extension("image/png"))
	assert.Equal(t, ".bin", Extension("image/gif"))
}

func TestLocal_StoreAndDelete(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "uploads")
	l, err := NewLocal(dir, "/uploads/")
	require.NoError(t, err)

	img, err := l.Store(context.Background(), &Upload{
		Filename:    "lamp.jpeg",
		ContentType: "image/jpeg",
		Body:        bytes.NewReader(jpegBytes),
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(img.URL, "/uploads/"), img.URL)
	assert.True(t, strings.HasSuffix(img.Handle, ".jpg"), img.Handle)
	assert.Equal(t, "/uploads/"+img.Handle, img.URL)

	stored, err := os.ReadFile(filepath.Join(dir, img.Handle))
	require.NoError(t, err)
	assert.Equal(t, jpegBytes, stored)

	require.NoError(t, l.Delete(context.Background(), img.Handle))
	_, err = os.Stat(filepath.Join(dir, img.Handle))
	assert.True(t, errors.Is(err, os.ErrNotExist))

	assert.NoError(t, l.Delete(context.Background(), img.Handle), "deleting twice is fine")
}

func TestLocal_UniqueHandles(t *testing.T) {
	l, err := NewLocal(t.TempDir(), "/uploads")
	require.NoError(t, err)

	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		img, err := l.Store(context.Background(), &Upload{ContentType: "image/png", Body: bytes.NewReader(pngBytes)})
		require.NoError(t, err)
		assert.False(t, seen[img.Handle], "duplicate handle %s", img.Handle)
		seen[img.Handle] = true
	}
}

func TestLocal_DeleteRejectsPaths(t *testing.T) {
	l, err := NewLocal(t.TempDir(), "/uploads")
	require.NoError(t, err)

	assert.Error(t, l.Delete(context.Background(), "../etc/passwd"))
	assert.Error(t, l.Delete(context.Background(), ""))
}

func TestLocal_StoreCancelled(t *testing.T) {
	l, err := NewLocal(t.TempDir(), "/uploads")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = l.Store(ctx, &Upload{ContentType: "image/png", Body: bytes.NewReader(pngBytes)})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNew(t *testing.T) {
	t.Run("local", func(t *testing.T) {
		s, err := New(config.ImagesConfig{Provider: config.ImagesLocal, UploadDir: t.TempDir(), URLPrefix: "/uploads"})
		require.NoError(t, err)
		assert.IsType(t, &Local{}, s)
	})

	t.Run("cloudinary", func(t *testing.T) {
		s, err := New(config.ImagesConfig{
			Provider: config.ImagesCloudinary,
			Cloudinary: config.CloudinaryConfig{
				CloudName: "demo", APIKey: "key", APISecret: "secret", Folder: "Shopper",
			},
		})
		require.NoError(t, err)
		assert.IsType(t, &Cloudinary{}, s)
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := New(config.ImagesConfig{Provider: "ftp"})
		assert.Error(t, err)
	})
}
