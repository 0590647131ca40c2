package imagestore

import (
	"context"
	"errors"
	"fmt"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"

	"shopper/internal/config"
)

// Cloudinary hosts images in a Cloudinary folder. The handle is the public id.
type Cloudinary struct {
	cld    *cloudinary.Cloudinary
	folder string
}

var _ Store = (*Cloudinary)(nil)

func NewCloudinary(cfg config.CloudinaryConfig) (*Cloudinary, error) {
	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("imagestore: configuring cloudinary: %w", err)
	}
	return &Cloudinary{cld: cld, folder: cfg.Folder}, nil
}

func (c *Cloudinary) Store(ctx context.Context, up *Upload) (Image, error) {
	res, err := c.cld.Upload.Upload(ctx, up.Body, uploader.UploadParams{
		Folder:         c.folder,
		AllowedFormats: api.CldAPIArray{"jpeg", "png", "jpg"},
	})
	if err != nil {
		return Image{}, fmt.Errorf("imagestore: cloudinary upload: %w", err)
	}
	if res.Error.Message != "" {
		return Image{}, fmt.Errorf("imagestore: cloudinary upload: %s", res.Error.Message)
	}
	if res.PublicID == "" {
		return Image{}, errors.New("imagestore: cloudinary upload returned no public id")
	}
	return Image{URL: res.SecureURL, Handle: res.PublicID}, nil
}

func (c *Cloudinary) Delete(ctx context.Context, handle string) error {
	res, err := c.cld.Upload.Destroy(ctx, uploader.DestroyParams{PublicID: handle})
	if err != nil {
		return fmt.Errorf("imagestore: cloudinary destroy %s: %w", handle, err)
	}
	if res.Error.Message != "" {
		return fmt.Errorf("imagestore: cloudinary destroy %s: %s", handle, res.Error.Message)
	}
	// "not found" means someone already removed it
	if res.Result != "ok" && res.Result != "not found" {
		return fmt.Errorf("imagestore: cloudinary destroy %s: result %q", handle, res.Result)
	}
	return nil
}
