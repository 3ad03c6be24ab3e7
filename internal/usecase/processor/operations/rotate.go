package operations

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// NormalizeAngle maps degrees into [0, 360).
func NormalizeAngle(degrees int) int {
	degrees %= 360
	if degrees < 0 {
		degrees += 360
	}
	return degrees
}

// Rotate turns img clockwise by a multiple of 90 degrees.
func Rotate(img image.Image, degrees int) (*image.NRGBA, error) {
	switch NormalizeAngle(degrees) {
	case 0:
		return imaging.Clone(img), nil
	case 90:
		return imaging.Rotate270(img), nil
	case 180:
		return imaging.Rotate180(img), nil
	case 270:
		return imaging.Rotate90(img), nil
	}
	return nil, fmt.Errorf("angle must be a multiple of 90 degrees, got %d", degrees)
}
