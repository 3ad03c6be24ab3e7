package image

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"sync"
	"testing"

	"dynamic-image/internal/domain"
	repoImage "dynamic-image/internal/repository/image"

	"github.com/rs/zerolog"
)

type variantKey struct {
	imageID   string
	imageType string
	params    domain.VariantParams
}

type fakeStore struct {
	mu       sync.Mutex
	images   map[string]domain.Image
	variants map[variantKey]domain.Variant
	inserts  int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		images:   map[string]domain.Image{},
		variants: map[variantKey]domain.Variant{},
	}
}

func (s *fakeStore) Save(_ context.Context, img *domain.Image) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *img
	stored.Data = nil
	s.images[img.ID] = stored
	return nil
}

func (s *fakeStore) GetByID(_ context.Context, id string) (*domain.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	img, ok := s.images[id]
	if !ok {
		return nil, repoImage.ErrImageNotFound
	}
	return &img, nil
}

func (s *fakeStore) Update(_ context.Context, img *domain.Image, clearVariants bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.images[img.ID]; !ok {
		return repoImage.ErrImageNotFound
	}
	if clearVariants {
		for k := range s.variants {
			if k.imageID == img.ID {
				delete(s.variants, k)
			}
		}
	}
	stored := *img
	stored.Data = nil
	s.images[img.ID] = stored
	return nil
}

func (s *fakeStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.images[id]; !ok {
		return repoImage.ErrImageNotFound
	}
	delete(s.images, id)
	for k := range s.variants {
		if k.imageID == id {
			delete(s.variants, k)
		}
	}
	return nil
}

func (s *fakeStore) List(_ context.Context, limit, offset int) ([]domain.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Image
	for _, img := range s.images {
		out = append(out, img)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (s *fakeStore) Count(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.images), nil
}

func (s *fakeStore) FindVariant(_ context.Context, imageID, imageType string, params domain.VariantParams) (*domain.Variant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.variants[variantKey{imageID, imageType, params}]
	if !ok {
		return nil, repoImage.ErrVariantNotFound
	}
	return &v, nil
}

func (s *fakeStore) CreateVariant(_ context.Context, v *domain.Variant, sourceHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	img, ok := s.images[v.ImageID]
	if !ok {
		return repoImage.ErrImageNotFound
	}
	if img.ContentHash != sourceHash {
		return repoImage.ErrStaleSource
	}
	key := variantKey{v.ImageID, v.ImageType, v.VariantParams}
	if _, ok := s.variants[key]; ok {
		return repoImage.ErrDuplicateKey
	}
	s.variants[key] = *v
	s.inserts++
	return nil
}

func (s *fakeStore) DeleteVariant(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range s.variants {
		if v.ID == id {
			delete(s.variants, k)
		}
	}
	return nil
}

func (s *fakeStore) ListVariants(_ context.Context, imageID, imageType string) ([]domain.Variant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Variant
	for k, v := range s.variants {
		if k.imageID == imageID && k.imageType == imageType {
			out = append(out, v)
		}
	}
	return out, nil
}

func (s *fakeStore) variantCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.variants)
}

type fakeBlobs struct {
	mu    sync.Mutex
	blobs map[string][]byte
}

func newFakeBlobs() *fakeBlobs {
	return &fakeBlobs{blobs: map[string][]byte{}}
}

func (b *fakeBlobs) Create(_ context.Context, data []byte, _ string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	sum := sha256.Sum256(data)
	hash := hex.EncodeToString(sum[:])
	b.blobs[hash] = append([]byte(nil), data...)
	return hash, nil
}

func (b *fakeBlobs) Find(_ context.Context, hash string) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	data, ok := b.blobs[hash]
	if !ok {
		return nil, repoImage.ErrFileNotFound
	}
	return data, nil
}

func (b *fakeBlobs) Exists(_ context.Context, hash string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.blobs[hash]
	return ok, nil
}

func (b *fakeBlobs) Delete(_ context.Context, hash string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.blobs, hash)
	return nil
}

type fakeQueue struct {
	mu    sync.Mutex
	tasks []*domain.VariantTask
}

func (q *fakeQueue) Enqueue(_ context.Context, task *domain.VariantTask) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.tasks = append(q.tasks, task)
	return nil
}

type fixture struct {
	uc           *ImageUsecase
	store        *fakeStore
	images       *fakeBlobs
	variantBlobs *fakeBlobs
	queue        *fakeQueue
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()
	logger := zerolog.Nop()
	f := &fixture{
		store:        newFakeStore(),
		images:       newFakeBlobs(),
		variantBlobs: newFakeBlobs(),
		queue:        &fakeQueue{},
	}
	f.uc = NewImageUsecase(f.store, f.store, f.images, f.variantBlobs, f.queue, &logger, opts)
	return f
}
