package operations

import (
	"image"

	"github.com/disintegration/imaging"
)

// Crop cuts the rectangle at start with the given size out of img.
// Coordinates are relative to the image origin.
func Crop(img image.Image, start, size image.Point) *image.NRGBA {
	origin := img.Bounds().Min
	rect := image.Rectangle{Min: start, Max: start.Add(size)}.Add(origin)
	return imaging.Crop(img, rect)
}

// InBounds reports whether the rectangle fits inside an image of the given
// dimensions.
func InBounds(start, size, bounds image.Point) bool {
	return start.X >= 0 && start.Y >= 0 &&
		size.X > 0 && size.Y > 0 &&
		start.X+size.X <= bounds.X && start.Y+size.Y <= bounds.Y
}
