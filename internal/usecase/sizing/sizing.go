package sizing

import (
	"fmt"
	"math"

	"dynamic-image/internal/domain"
)

type Options struct {
	// Uncropped ignores the record's stored crop rectangle.
	Uncropped bool
}

type FitOptions struct {
	// Crop keeps the requested aspect ratio, cropping the image to match.
	Crop bool
	// Upscale allows results larger than the source.
	Upscale bool
}

// ImageSizing computes crop rectangles and fitted sizes for a record.
type ImageSizing struct {
	record    *domain.Image
	uncropped bool
}

func New(record *domain.Image, opts Options) *ImageSizing {
	return &ImageSizing{
		record:    record,
		uncropped: opts.Uncropped,
	}
}

// CropGeometry returns the largest rectangle with the aspect ratio of ratio
// that fits in the effective image, centered on the crop gravity and clamped
// to the image bounds. Each side is at least one pixel, so extreme ratios
// approximate the requested aspect. The start is expressed in real image
// coordinates.
func (s *ImageSizing) CropGeometry(ratio domain.Vector) (size, start domain.Vector) {
	bounds := s.size()
	size = ratio.Fit(bounds).Round().Clamp(domain.Vec(1, 1), bounds)

	center := s.cropGravity().Sub(s.cropStart())
	start = center.Sub(size.Half())
	start = clamp(start, size, bounds)

	return size, start.Add(s.cropStart())
}

// CropGeometryString formats the crop geometry as "WxH+X+Y".
func (s *ImageSizing) CropGeometryString(ratio domain.Vector) string {
	size, start := s.CropGeometry(ratio)
	size = size.Floor()
	return fmt.Sprintf("%s+%d+%d", size.String(), int(start.X), int(start.Y))
}

// Fit adjusts size to the image dimensions. A zero dimension is
// unconstrained unless Crop is set, in which case both are required.
func (s *ImageSizing) Fit(size domain.Vector, opts FitOptions) (domain.Vector, error) {
	if opts.Crop {
		if size.X <= 0 || size.Y <= 0 {
			return domain.Vector{}, fmt.Errorf("%w: crop requires both dimensions, got %s", ErrInvalidSizeOptions, size)
		}
	} else {
		size = s.size().Fit(size)
	}

	if !opts.Upscale {
		size = s.size().Contain(size)
	}
	return size, nil
}

func (s *ImageSizing) FitString(size string, opts FitOptions) (domain.Vector, error) {
	v, err := domain.ParseSize(size)
	if err != nil {
		return domain.Vector{}, err
	}
	return s.Fit(v, opts)
}

func (s *ImageSizing) cropGravity() domain.Vector {
	if s.uncropped && !s.record.HasCropGravity() {
		return s.size().Half()
	}
	return s.record.CropGravity()
}

func (s *ImageSizing) cropStart() domain.Vector {
	if s.uncropped {
		return domain.Vector{}
	}
	return s.record.CropStart()
}

func (s *ImageSizing) size() domain.Vector {
	if s.uncropped {
		return s.record.RealSize()
	}
	return s.record.Size()
}

// clamp moves the rectangle at start with the given size inside
// (0, 0)..max. size is assumed to be no larger than max.
func clamp(start, size, max domain.Vector) domain.Vector {
	start = start.Add(shift(start))
	start = start.Sub(shift(max.Sub(start.Add(size))))
	return start
}

func shift(v domain.Vector) domain.Vector {
	var out domain.Vector
	if v.X < 0 {
		out.X = math.Abs(v.X)
	}
	if v.Y < 0 {
		out.Y = math.Abs(v.Y)
	}
	return out
}
