package imagestore

import (
	"fmt"

	"shopper/internal/config"
)

// New builds the store named by cfg.Provider.
func New(cfg config.ImagesConfig) (Store, error) {
	switch cfg.Provider {
	case config.ImagesLocal:
		l, err := NewLocal(cfg.UploadDir, cfg.URLPrefix)
		if err != nil {
			return nil, err
		}
		return l, nil
	case config.ImagesCloudinary:
		c, err := NewCloudinary(cfg.Cloudinary)
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, fmt.Errorf("imagestore: unknown provider %q", cfg.Provider)
	}
}
