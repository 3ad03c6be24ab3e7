package image

import (
	"context"
	"errors"
	"fmt"
	"time"

	"dynamic-image/internal/domain"
	"dynamic-image/internal/format"
	repoImage "dynamic-image/internal/repository/image"
	"dynamic-image/internal/usecase/metadata"
	"dynamic-image/internal/usecase/processor"
	"dynamic-image/internal/usecase/sizing"

	"github.com/google/uuid"
)

// Operation is a pipeline step applied between colorspace normalization and
// format conversion.
type Operation func(processor.ImageProcessor) (processor.ImageProcessor, error)

type ProcessingOptions struct {
	Uncropped bool
	// Format is a format name. Empty means the record's own format.
	Format string
}

// ProcessedImage renders derivatives of a record and caches them as
// variants.
type ProcessedImage struct {
	uc        *ImageUsecase
	record    *domain.Image
	sizing    *sizing.ImageSizing
	format    *format.Format
	uncropped bool
}

func (i *ImageUsecase) Processed(record *domain.Image, opts ProcessingOptions) (*ProcessedImage, error) {
	f := format.ContentType(record.ContentType)
	if opts.Format != "" {
		f = format.Find(opts.Format)
	}
	if f == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, opts.Format)
	}

	return &ProcessedImage{
		uc:        i,
		record:    record,
		sizing:    sizing.New(record, sizing.Options{Uncropped: opts.Uncropped}),
		format:    f,
		uncropped: opts.Uncropped,
	}, nil
}

func (p *ProcessedImage) Format() *format.Format {
	return p.format
}

func (p *ProcessedImage) ContentType() string {
	return p.format.ContentType()
}

// Normalized decodes the source, normalizes its colorspace, applies ops and
// encodes the result in the target format. The record must be valid.
func (p *ProcessedImage) Normalized(ctx context.Context, ops ...Operation) ([]byte, error) {
	if err := p.uc.validateImage(p.record); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}

	data, err := p.uc.sourceData(ctx, p.record)
	if err != nil {
		return nil, err
	}
	if !metadata.New(data).Valid() {
		return nil, ErrInvalidImage
	}

	img, err := processor.NewReader(data).Read()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}

	img = img.ScreenProfile()
	for _, op := range ops {
		if img, err = op(img); err != nil {
			return nil, err
		}
	}

	return img.Convert(p.format).Read()
}

// CroppedAndResized returns the image cropped to the aspect ratio of size
// and scaled to it. Persisted records are served from the variant cache.
func (p *ProcessedImage) CroppedAndResized(ctx context.Context, size domain.Vector) ([]byte, error) {
	if !p.record.Persisted() {
		return p.cropAndResize(ctx, size)
	}

	variant, err := p.FindOrCreateVariant(ctx, size)
	if err != nil {
		return nil, err
	}

	data, err := p.uc.variantBlobs.Find(ctx, variant.ContentHash)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to load variant: %v", ErrStorageError, err)
	}
	return data, nil
}

// VariantParams is the cache key for size.
func (p *ProcessedImage) VariantParams(size domain.Vector) domain.VariantParams {
	cropSize, cropStart := p.sizing.CropGeometry(size)
	out := size.Round()

	return domain.VariantParams{
		Format:     p.format.Name,
		Width:      int(out.X),
		Height:     int(out.Y),
		CropWidth:  int(cropSize.X),
		CropHeight: int(cropSize.Y),
		CropStartX: int(cropStart.X),
		CropStartY: int(cropStart.Y),
	}
}

// FindVariant looks up a cached variant. A variant whose blob has gone
// missing is removed and reported as absent.
func (p *ProcessedImage) FindVariant(ctx context.Context, size domain.Vector) (*domain.Variant, error) {
	if !p.record.Persisted() {
		return nil, nil
	}

	variant, err := p.uc.variants.FindVariant(ctx, p.record.ID, domain.ImageTypeImage, p.VariantParams(size))
	if errors.Is(err, repoImage.ErrVariantNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to find variant: %v", ErrDatabaseError, err)
	}

	exists, err := p.uc.variantBlobs.Exists(ctx, variant.ContentHash)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageError, err)
	}
	if exists {
		return variant, nil
	}

	p.uc.logger.Warn().
		Str("image_id", p.record.ID).
		Str("variant_id", variant.ID).
		Str("content_hash", variant.ContentHash).
		Msg("Variant data missing, discarding variant")

	if err := p.uc.variants.DeleteVariant(ctx, variant.ID); err != nil {
		return nil, fmt.Errorf("%w: failed to delete stale variant: %v", ErrDatabaseError, err)
	}
	return nil, nil
}

// FindOrCreateVariant returns the cached variant for size, rendering it if
// needed. Concurrent creators race on the unique index; losers return the
// winner's row. A render of data that was replaced meanwhile is returned
// without being cached.
func (p *ProcessedImage) FindOrCreateVariant(ctx context.Context, size domain.Vector) (*domain.Variant, error) {
	variant, err := p.FindVariant(ctx, size)
	if err != nil || variant != nil {
		return variant, err
	}

	data, err := p.cropAndResize(ctx, size)
	if err != nil {
		return nil, err
	}

	hash, err := p.uc.variantBlobs.Create(ctx, data, p.ContentType())
	if err != nil {
		return nil, fmt.Errorf("%w: failed to store variant: %v", ErrStorageError, err)
	}

	now := time.Now()
	variant = &domain.Variant{
		ID:            uuid.New().String(),
		ImageID:       p.record.ID,
		ImageType:     domain.ImageTypeImage,
		ContentHash:   hash,
		ContentType:   p.ContentType(),
		ContentLength: int64(len(data)),
		Filename:      p.record.BaseName() + "." + p.format.Extension(),
		VariantParams: p.VariantParams(size),
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	err = p.uc.variants.CreateVariant(ctx, variant, p.record.ContentHash)
	if errors.Is(err, repoImage.ErrStaleSource) {
		p.uc.logger.Warn().
			Str("image_id", p.record.ID).
			Str("content_hash", p.record.ContentHash).
			Msg("Image data replaced during render, variant not cached")
		return variant, nil
	}
	if errors.Is(err, repoImage.ErrImageNotFound) || errors.Is(err, repoImage.ErrForeignKeyViolation) {
		return nil, ErrImageNotFound
	}
	if errors.Is(err, repoImage.ErrDuplicateKey) {
		winner, findErr := p.uc.variants.FindVariant(ctx, p.record.ID, domain.ImageTypeImage, variant.VariantParams)
		if findErr != nil {
			return nil, fmt.Errorf("%w: failed to reload variant: %v", ErrDatabaseError, findErr)
		}
		return winner, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to save variant: %v", ErrDatabaseError, err)
	}

	p.uc.logger.Debug().
		Str("image_id", p.record.ID).
		Str("variant_id", variant.ID).
		Str("size", size.String()).
		Str("format", p.format.Name).
		Msg("Variant created")

	return variant, nil
}

func (p *ProcessedImage) cropAndResize(ctx context.Context, size domain.Vector) ([]byte, error) {
	if size.X < 1 || size.Y < 1 {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidSize, size)
	}

	cropSize, cropStart := p.sizing.CropGeometry(size)
	return p.Normalized(ctx, func(img processor.ImageProcessor) (processor.ImageProcessor, error) {
		img, err := img.Crop(cropStart, cropSize)
		if err != nil {
			return img, err
		}
		return img.Resize(size.Round())
	})
}
