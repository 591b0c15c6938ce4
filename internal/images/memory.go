package images

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/matthieukhl/freshmart/internal/types"
)

// MemoryStore keeps images in process memory. Used in development and tests.
type MemoryStore struct {
	mu      sync.Mutex
	baseURL string
	next    int
	images  map[string][]byte
}

func NewMemoryStore(baseURL string) *MemoryStore {
	return &MemoryStore{
		baseURL: baseURL,
		images:  make(map[string][]byte),
	}
}

func (s *MemoryStore) Upload(ctx context.Context, src types.ImageSource) (*types.StoredImage, error) {
	data, err := io.ReadAll(src.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read image %s: %w", src.Filename, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("image %s is empty", src.Filename)
	}
	return s.store(data), nil
}

func (s *MemoryStore) UploadFromURL(ctx context.Context, url string) (*types.StoredImage, error) {
	if url == "" {
		return nil, fmt.Errorf("image url is empty")
	}
	return s.store([]byte(url)), nil
}

func (s *MemoryStore) store(data []byte) *types.StoredImage {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.next++
	id := fmt.Sprintf("mem-%d", s.next)
	s.images[id] = data
	return &types.StoredImage{
		URL:      fmt.Sprintf("%s/%s", s.baseURL, id),
		PublicID: id,
	}
}

func (s *MemoryStore) Destroy(ctx context.Context, publicID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.images[publicID]; !ok {
		return fmt.Errorf("image %s not found", publicID)
	}
	delete(s.images, publicID)
	return nil
}

// Has reports whether publicID is currently stored
func (s *MemoryStore) Has(publicID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.images[publicID]
	return ok
}

func (s *MemoryStore) Provider() string {
	return "memory"
}
