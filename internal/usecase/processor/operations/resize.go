package operations

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// Resize scales img to exactly width x height.
func Resize(img image.Image, width, height int) (*image.NRGBA, error) {
	if width < 1 || height < 1 {
		return nil, fmt.Errorf("invalid size %dx%d", width, height)
	}
	b := img.Bounds()
	if b.Dx() == width && b.Dy() == height {
		return imaging.Clone(img), nil
	}
	return imaging.Resize(img, width, height, imaging.Lanczos), nil
}
