package images

import (
	"fmt"

	"github.com/matthieukhl/freshmart/internal/config"
	"github.com/matthieukhl/freshmart/internal/types"
)

// NewStore creates an image store based on configuration
func NewStore(cfg *config.ImagesConfig) (types.ImageStore, error) {
	switch cfg.Provider {
	case "cloudinary":
		return NewCloudinaryStore(cfg.CloudinaryURL, cfg.Folder)
	case "memory":
		return NewMemoryStore("memory://" + cfg.Folder), nil
	default:
		return nil, fmt.Errorf("unsupported image provider: %s", cfg.Provider)
	}
}
