package image

import (
	"context"

	"dynamic-image/internal/domain"
	image_uc "dynamic-image/internal/usecase/image"
)

type imageUsecase interface {
	UploadImage(ctx context.Context, data []byte, filename string, attrs image_uc.Attributes) (*domain.Image, error)
	GetImage(ctx context.Context, id string) (*domain.Image, error)
	ListImages(ctx context.Context, limit, offset int) ([]domain.Image, int, error)
	ListVariants(ctx context.Context, img *domain.Image) ([]domain.Variant, error)
	UpdateImage(ctx context.Context, id string, attrs image_uc.Attributes) (*domain.Image, error)
	ReplaceData(ctx context.Context, id string, data []byte, filename string) (*domain.Image, error)
	RotateImage(ctx context.Context, id string, degrees int) (*domain.Image, error)
	ResizeImage(ctx context.Context, id string, size string) (*domain.Image, error)
	DeleteImage(ctx context.Context, id string) error
	OriginalData(ctx context.Context, img *domain.Image) ([]byte, error)
	RenderVariant(ctx context.Context, img *domain.Image, size domain.Vector, opts image_uc.ProcessingOptions) ([]byte, string, error)
}

type verifier interface {
	Generate(data string) string
	Verify(data, digest string) error
}
