package image

import (
	"context"

	"dynamic-image/internal/domain"
)

type imageRepository interface {
	Save(ctx context.Context, image *domain.Image) error
	GetByID(ctx context.Context, id string) (*domain.Image, error)
	Update(ctx context.Context, image *domain.Image, clearVariants bool) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, limit, offset int) ([]domain.Image, error)
	Count(ctx context.Context) (int, error)
}

type variantRepository interface {
	FindVariant(ctx context.Context, imageID, imageType string, params domain.VariantParams) (*domain.Variant, error)
	CreateVariant(ctx context.Context, variant *domain.Variant, sourceHash string) error
	DeleteVariant(ctx context.Context, id string) error
	ListVariants(ctx context.Context, imageID, imageType string) ([]domain.Variant, error)
}

type blobStore interface {
	Create(ctx context.Context, data []byte, contentType string) (string, error)
	Find(ctx context.Context, hash string) ([]byte, error)
	Exists(ctx context.Context, hash string) (bool, error)
	Delete(ctx context.Context, hash string) error
}

type variantQueue interface {
	Enqueue(ctx context.Context, task *domain.VariantTask) error
}
