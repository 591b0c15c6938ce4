package types

import (
	"context"
	"io"
)

// ImageStore uploads product images to a hosting provider
type ImageStore interface {
	Upload(ctx context.Context, src ImageSource) (*StoredImage, error)
	UploadFromURL(ctx context.Context, url string) (*StoredImage, error)
	Destroy(ctx context.Context, publicID string) error
	Provider() string
}

// ImageSource is an uploaded file as received from a multipart form
type ImageSource struct {
	Filename string
	Reader   io.Reader
}

// StoredImage identifies a hosted image
type StoredImage struct {
	URL      string `json:"url"`
	PublicID string `json:"public_id"`
}
