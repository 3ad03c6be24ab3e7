package image

import (
	"context"
	"fmt"

	"dynamic-image/internal/domain"
	"dynamic-image/internal/usecase/processor"
	"dynamic-image/internal/usecase/processor/operations"
)

// RotateImage rotates the stored image clockwise and moves the crop
// rectangle and gravity with it.
func (i *ImageUsecase) RotateImage(ctx context.Context, id string, degrees int) (*domain.Image, error) {
	degrees = operations.NormalizeAngle(degrees)
	if degrees%90 != 0 {
		return nil, fmt.Errorf("%w: angle must be a multiple of 90 degrees", processor.ErrInvalidTransformation)
	}

	img, err := i.GetImage(ctx, id)
	if err != nil || degrees == 0 {
		return img, err
	}

	err = i.transform(ctx, img, func(p processor.ImageProcessor) (processor.ImageProcessor, error) {
		return p.Rotate(degrees)
	})
	if err != nil {
		return nil, err
	}

	for n := 0; n < degrees/90; n++ {
		rotateDimensions(img)
	}
	return img, i.storeData(ctx, img)
}

// ResizeImage scales the stored image down to fit size and scales the crop
// rectangle and gravity with it.
func (i *ImageUsecase) ResizeImage(ctx context.Context, id string, size string) (*domain.Image, error) {
	img, err := i.GetImage(ctx, id)
	if err != nil {
		return nil, err
	}

	target, err := domain.ParseSize(size)
	if err != nil {
		return nil, err
	}
	current := img.RealSize()
	newSize := current.Contain(current.Fit(target)).Round()
	if newSize.X < 1 || newSize.Y < 1 {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidSize, size)
	}
	if newSize.Equal(current) {
		return img, nil
	}

	err = i.transform(ctx, img, func(p processor.ImageProcessor) (processor.ImageProcessor, error) {
		return p.Resize(newSize)
	})
	if err != nil {
		return nil, err
	}

	scaleDimensions(img, newSize, newSize.X/current.X)
	return img, i.storeData(ctx, img)
}

func (i *ImageUsecase) transform(ctx context.Context, img *domain.Image, op Operation) error {
	processed, err := i.Processed(img, ProcessingOptions{Uncropped: true})
	if err != nil {
		return err
	}
	data, err := processed.Normalized(ctx, op)
	if err != nil {
		return err
	}
	img.Data = data
	img.ContentLength = int64(len(data))
	return nil
}

// rotateDimensions applies a single 90 degree clockwise turn to the stored
// geometry.
func rotateDimensions(img *domain.Image) {
	width := img.RealHeight
	img.RealWidth, img.RealHeight = img.RealHeight, img.RealWidth

	if img.HasCropGravity() {
		x, y := *img.CropGravityX, *img.CropGravityY
		img.CropGravityX, img.CropGravityY = domain.IntPtr(width-y), domain.IntPtr(x)
	}

	if img.Cropped() {
		start := img.CropStart()
		size, _ := img.CropSize()
		img.CropStartX = domain.IntPtr(width - int(start.Y+size.Y))
		img.CropStartY = domain.IntPtr(int(start.X))
		img.CropWidth = domain.IntPtr(int(size.Y))
		img.CropHeight = domain.IntPtr(int(size.X))
	}
}

func scaleDimensions(img *domain.Image, size domain.Vector, factor float64) {
	img.RealWidth, img.RealHeight = size.Ints()

	for _, field := range []**int{
		&img.CropWidth, &img.CropHeight,
		&img.CropStartX, &img.CropStartY,
		&img.CropGravityX, &img.CropGravityY,
	} {
		if *field != nil {
			*field = domain.IntPtr(int(float64(**field)*factor + 0.5))
		}
	}
}
