package image

import (
	"context"
	"errors"
	"fmt"
	"time"

	"dynamic-image/internal/domain"
	repoImage "dynamic-image/internal/repository/image"
	"dynamic-image/internal/usecase/metadata"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/wb-go/wbf/zlog"
)

type Options struct {
	// MaxPixelArea above which uncached variants are rendered by workers
	// instead of inside the request. Zero disables the limit.
	MaxPixelArea int64
}

type ImageUsecase struct {
	repo         imageRepository
	variants     variantRepository
	images       blobStore
	variantBlobs blobStore
	queue        variantQueue
	validate     *validator.Validate
	logger       *zlog.Zerolog
	maxPixelArea int64
}

func NewImageUsecase(
	repo imageRepository,
	variants variantRepository,
	images blobStore,
	variantBlobs blobStore,
	queue variantQueue,
	logger *zlog.Zerolog,
	opts Options,
) *ImageUsecase {
	return &ImageUsecase{
		repo:         repo,
		variants:     variants,
		images:       images,
		variantBlobs: variantBlobs,
		queue:        queue,
		validate:     newValidator(),
		logger:       logger,
		maxPixelArea: opts.MaxPixelArea,
	}
}

// Attributes are the user-editable fields of an image. Nil fields are left
// unchanged.
type Attributes struct {
	Filename     *string
	CropWidth    *int
	CropHeight   *int
	CropStartX   *int
	CropStartY   *int
	CropGravityX *int
	CropGravityY *int
	// ClearCrop unsets the crop rectangle and gravity before applying the
	// other fields.
	ClearCrop bool
}

func (a Attributes) apply(img *domain.Image) {
	if a.ClearCrop {
		img.CropWidth, img.CropHeight = nil, nil
		img.CropStartX, img.CropStartY = nil, nil
		img.CropGravityX, img.CropGravityY = nil, nil
	}
	if a.Filename != nil {
		img.Filename = *a.Filename
	}
	setInt(&img.CropWidth, a.CropWidth)
	setInt(&img.CropHeight, a.CropHeight)
	setInt(&img.CropStartX, a.CropStartX)
	setInt(&img.CropStartY, a.CropStartY)
	setInt(&img.CropGravityX, a.CropGravityX)
	setInt(&img.CropGravityY, a.CropGravityY)
}

func setInt(dst **int, v *int) {
	if v != nil {
		n := *v
		*dst = &n
	}
}

func (i *ImageUsecase) UploadImage(ctx context.Context, data []byte, filename string, attrs Attributes) (*domain.Image, error) {
	img := &domain.Image{Filename: filename}
	attrs.apply(img)
	readMetadata(img, data)

	if err := i.validateImage(img); err != nil {
		return nil, err
	}

	hash, err := i.images.Create(ctx, data, img.ContentType)
	if err != nil {
		i.logger.Error().Err(err).Str("filename", filename).Msg("Failed to store image data")
		return nil, fmt.Errorf("%w: %v", ErrStorageError, err)
	}

	now := time.Now().UTC()
	img.ID = uuid.New().String()
	img.ContentHash = hash
	img.CreatedAt = now
	img.UpdatedAt = now

	if err := i.repo.Save(ctx, img); err != nil {
		i.logger.Error().Err(err).Str("image_id", img.ID).Msg("Failed to save image")
		return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}

	i.logger.Info().
		Str("image_id", img.ID).
		Str("content_type", img.ContentType).
		Int("width", img.RealWidth).
		Int("height", img.RealHeight).
		Msg("Image uploaded")

	return img, nil
}

func (i *ImageUsecase) GetImage(ctx context.Context, id string) (*domain.Image, error) {
	img, err := i.repo.GetByID(ctx, id)
	if errors.Is(err, repoImage.ErrImageNotFound) {
		return nil, ErrImageNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	return img, nil
}

func (i *ImageUsecase) ListImages(ctx context.Context, limit, offset int) ([]domain.Image, int, error) {
	images, err := i.repo.List(ctx, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	total, err := i.repo.Count(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	return images, total, nil
}

func (i *ImageUsecase) ListVariants(ctx context.Context, img *domain.Image) ([]domain.Variant, error) {
	variants, err := i.variants.ListVariants(ctx, img.ID, domain.ImageTypeImage)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	return variants, nil
}

// UpdateImage changes crop settings or the filename. Variants stay valid
// since they are keyed by crop geometry.
func (i *ImageUsecase) UpdateImage(ctx context.Context, id string, attrs Attributes) (*domain.Image, error) {
	img, err := i.GetImage(ctx, id)
	if err != nil {
		return nil, err
	}

	attrs.apply(img)
	return img, i.save(ctx, img, false)
}

// ReplaceData swaps the image data. Existing variants are discarded.
func (i *ImageUsecase) ReplaceData(ctx context.Context, id string, data []byte, filename string) (*domain.Image, error) {
	img, err := i.GetImage(ctx, id)
	if err != nil {
		return nil, err
	}
	if filename != "" {
		img.Filename = filename
	}
	readMetadata(img, data)
	return img, i.storeData(ctx, img)
}

func (i *ImageUsecase) DeleteImage(ctx context.Context, id string) error {
	err := i.repo.Delete(ctx, id)
	if errors.Is(err, repoImage.ErrImageNotFound) {
		return ErrImageNotFound
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	i.logger.Info().Str("image_id", id).Msg("Image deleted")
	return nil
}

// OriginalData returns the stored source bytes.
func (i *ImageUsecase) OriginalData(ctx context.Context, img *domain.Image) ([]byte, error) {
	return i.sourceData(ctx, img)
}

// Oversized reports whether rendering img inside a request is too costly.
func (i *ImageUsecase) Oversized(img *domain.Image) bool {
	return i.maxPixelArea > 0 && int64(img.RealWidth)*int64(img.RealHeight) > i.maxPixelArea
}

// RenderVariant returns a rendered variant of img and its content type.
// Oversized images without a cached variant are queued for a worker and
// ErrVariantPending is returned.
func (i *ImageUsecase) RenderVariant(ctx context.Context, img *domain.Image, size domain.Vector, opts ProcessingOptions) ([]byte, string, error) {
	processed, err := i.Processed(img, opts)
	if err != nil {
		return nil, "", err
	}

	if i.Oversized(img) {
		variant, err := processed.FindVariant(ctx, size)
		if err != nil {
			return nil, "", err
		}
		if variant == nil {
			if err := i.enqueueVariant(ctx, img, size, processed); err != nil {
				return nil, "", err
			}
			return nil, "", ErrVariantPending
		}
	}

	data, err := processed.CroppedAndResized(ctx, size)
	if err != nil {
		return nil, "", err
	}
	return data, processed.ContentType(), nil
}

// CreateVariant renders the variant described by a queued task.
func (i *ImageUsecase) CreateVariant(ctx context.Context, task *domain.VariantTask) (*domain.Variant, error) {
	img, err := i.GetImage(ctx, task.ImageID)
	if err != nil {
		return nil, err
	}

	size, err := domain.ParseSize(task.Size)
	if err != nil {
		return nil, err
	}

	processed, err := i.Processed(img, ProcessingOptions{Uncropped: task.Uncropped, Format: task.Format})
	if err != nil {
		return nil, err
	}
	return processed.FindOrCreateVariant(ctx, size)
}

func (i *ImageUsecase) enqueueVariant(ctx context.Context, img *domain.Image, size domain.Vector, processed *ProcessedImage) error {
	task := &domain.VariantTask{
		ID:         uuid.New().String(),
		ImageID:    img.ID,
		ImageType:  domain.ImageTypeImage,
		Size:       size.Round().String(),
		Uncropped:  processed.uncropped,
		Format:     processed.Format().Name,
		EnqueuedAt: time.Now().UTC(),
	}

	if err := i.queue.Enqueue(ctx, task); err != nil {
		i.logger.Error().Err(err).Str("image_id", img.ID).Msg("Failed to enqueue variant task")
		return fmt.Errorf("%w: %v", ErrMessageQueueError, err)
	}

	i.logger.Info().
		Str("task_id", task.ID).
		Str("image_id", img.ID).
		Str("size", task.Size).
		Msg("Variant task enqueued")
	return nil
}

func (i *ImageUsecase) sourceData(ctx context.Context, img *domain.Image) ([]byte, error) {
	if img.Data != nil {
		return img.Data, nil
	}
	data, err := i.images.Find(ctx, img.ContentHash)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to load image data: %v", ErrStorageError, err)
	}
	img.Data = data
	return data, nil
}

// storeData validates img, uploads its Data and persists it. Variants are
// cleared in the same transaction when the content changed.
func (i *ImageUsecase) storeData(ctx context.Context, img *domain.Image) error {
	if err := i.validateImage(img); err != nil {
		return err
	}

	hash, err := i.images.Create(ctx, img.Data, img.ContentType)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorageError, err)
	}

	changed := hash != img.ContentHash
	img.ContentHash = hash
	if err := i.save(ctx, img, changed); err != nil {
		return err
	}

	if changed {
		i.logger.Info().Str("image_id", img.ID).Str("content_hash", hash).Msg("Image data replaced, variants cleared")
	}
	return nil
}

func (i *ImageUsecase) save(ctx context.Context, img *domain.Image, clearVariants bool) error {
	if err := i.validateImage(img); err != nil {
		return err
	}

	img.UpdatedAt = time.Now().UTC()
	err := i.repo.Update(ctx, img, clearVariants)
	if errors.Is(err, repoImage.ErrImageNotFound) {
		return ErrImageNotFound
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	return nil
}

// readMetadata fills the derived attributes of img from data. Invalid data
// leaves them blank so validation reports it.
func readMetadata(img *domain.Image, data []byte) {
	m := metadata.New(data)
	img.Data = data
	img.ContentLength = int64(len(data))
	img.ContentType = m.ContentType()
	img.Colorspace = m.Colorspace()
	img.RealWidth = m.Width()
	img.RealHeight = m.Height()
}
