package processor

import (
	"bytes"
	"fmt"
	"image"
	"os"

	"dynamic-image/internal/domain"
	"dynamic-image/internal/format"
	"dynamic-image/internal/usecase/processor/operations"

	"github.com/disintegration/imaging"
)

const (
	interpretationRGB  = "sRGB"
	interpretationGray = "Gray"
	interpretationCMYK = "CMYK"
)

// ImageProcessor is an immutable image pipeline. Every operation returns a
// new value and leaves the receiver untouched. All frames share one size.
type ImageProcessor struct {
	frames         []image.Image
	delays         []int
	loopCount      int
	interpretation string
	intent         *format.Format
}

func (p ImageProcessor) Intent() *format.Format {
	return p.intent
}

func (p ImageProcessor) Interpretation() string {
	return p.interpretation
}

func (p ImageProcessor) FrameCount() int {
	return len(p.frames)
}

// Size returns the size of a single frame.
func (p ImageProcessor) Size() domain.Vector {
	if len(p.frames) == 0 {
		return domain.Vector{}
	}
	b := p.frames[0].Bounds()
	return domain.Vec(float64(b.Dx()), float64(b.Dy()))
}

// Crop cuts every frame to the rectangle at start with the given size.
func (p ImageProcessor) Crop(start, size domain.Vector) (ImageProcessor, error) {
	if start.IsZero() && size.Equal(p.Size()) {
		return p, nil
	}

	sp, sz, bounds := point(start), point(size), point(p.Size())
	if !operations.InBounds(sp, sz, bounds) {
		return p, fmt.Errorf("%w: crop size is out of bounds", ErrInvalidTransformation)
	}

	return p.mapFrames(func(img image.Image) (image.Image, error) {
		return operations.Crop(img, sp, sz), nil
	})
}

// Resize scales every frame to exactly size.
func (p ImageProcessor) Resize(size domain.Vector) (ImageProcessor, error) {
	sz := point(size)
	if sz.X < 1 || sz.Y < 1 {
		return p, fmt.Errorf("%w: invalid size %s", ErrInvalidTransformation, size)
	}
	if size.Equal(p.Size()) {
		return p, nil
	}

	return p.mapFrames(func(img image.Image) (image.Image, error) {
		return operations.Resize(img, sz.X, sz.Y)
	})
}

// Rotate turns every frame clockwise. Only multiples of 90 are allowed.
func (p ImageProcessor) Rotate(degrees int) (ImageProcessor, error) {
	degrees = operations.NormalizeAngle(degrees)
	if degrees == 0 {
		return p, nil
	}
	if degrees%90 != 0 {
		return p, fmt.Errorf("%w: angle must be a multiple of 90 degrees", ErrInvalidTransformation)
	}

	return p.mapFrames(func(img image.Image) (image.Image, error) {
		return operations.Rotate(img, degrees)
	})
}

// ScreenProfile converts the pixels to a display colorspace. RGB and gray
// images are kept as they are; anything else is converted to sRGB.
func (p ImageProcessor) ScreenProfile() ImageProcessor {
	switch p.interpretation {
	case interpretationRGB, interpretationGray:
		return p
	}

	out, _ := p.mapFrames(func(img image.Image) (image.Image, error) {
		return imaging.Clone(img), nil
	})
	out.interpretation = interpretationRGB
	return out
}

// Convert sets the output format. Formats without animation support keep
// only the first frame.
func (p ImageProcessor) Convert(f *format.Format) ImageProcessor {
	out := p.clone()
	out.intent = f
	if !f.Animated && len(out.frames) > 1 {
		out.frames = out.frames[:1]
		out.delays = out.delays[:1]
	}
	return out
}

// Frame extracts a single frame as a static image.
func (p ImageProcessor) Frame(i int) (ImageProcessor, error) {
	if i < 0 || i >= len(p.frames) {
		return p, fmt.Errorf("%w: frame %d out of range", ErrInvalidTransformation, i)
	}
	out := p.clone()
	out.frames = []image.Image{p.frames[i]}
	out.delays = []int{p.delays[i]}
	return out, nil
}

// Read encodes the pipeline in its target format.
func (p ImageProcessor) Read() ([]byte, error) {
	if p.intent == nil {
		return nil, fmt.Errorf("no output format")
	}
	if len(p.frames) == 0 {
		return nil, fmt.Errorf("no frames to encode")
	}

	var buf bytes.Buffer
	if err := encode(&buf, p); err != nil {
		return nil, fmt.Errorf("failed to encode %s image: %w", p.intent.Name, err)
	}
	return buf.Bytes(), nil
}

func (p ImageProcessor) Write(path string) error {
	data, err := p.Read()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func (p ImageProcessor) clone() ImageProcessor {
	out := p
	out.frames = append([]image.Image(nil), p.frames...)
	out.delays = append([]int(nil), p.delays...)
	return out
}

func (p ImageProcessor) mapFrames(fn func(image.Image) (image.Image, error)) (ImageProcessor, error) {
	out := p.clone()
	for i, frame := range p.frames {
		img, err := fn(frame)
		if err != nil {
			return p, fmt.Errorf("%w: %v", ErrInvalidTransformation, err)
		}
		out.frames[i] = img
	}
	return out, nil
}

func point(v domain.Vector) image.Point {
	x, y := v.Round().Ints()
	return image.Pt(x, y)
}
