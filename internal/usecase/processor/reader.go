package processor

import (
	"bytes"
	"fmt"
	"image"
	"image/gif"
	"io"

	"dynamic-image/internal/format"
	"dynamic-image/internal/usecase/metadata"

	"github.com/disintegration/imaging"
	xdraw "golang.org/x/image/draw"
)

const headerSize = 10

// Reader validates and decodes raw image data.
type Reader struct {
	data []byte
}

func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

func ReadFrom(r io.Reader) (*Reader, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}
	return NewReader(data), nil
}

func (r *Reader) header() []byte {
	if len(r.data) > headerSize {
		return r.data[:headerSize]
	}
	return r.data
}

func (r *Reader) Format() *format.Format {
	return format.Sniff(r.header())
}

func (r *Reader) ValidHeader() bool {
	return r.Format() != nil
}

// Read decodes the data into a pipeline. EXIF orientation is applied to the
// pixels, and GIF frames are composited onto full-size canvases.
func (r *Reader) Read() (ImageProcessor, error) {
	f := r.Format()
	if f == nil {
		return ImageProcessor{}, ErrInvalidHeader
	}

	if f == format.GIF {
		return r.readGIF()
	}

	img, err := imaging.Decode(bytes.NewReader(r.data), imaging.AutoOrientation(true))
	if err != nil {
		return ImageProcessor{}, fmt.Errorf("failed to decode %s image: %w", f.Name, err)
	}

	return ImageProcessor{
		frames:         []image.Image{img},
		delays:         []int{0},
		interpretation: metadata.Interpretation(img.ColorModel()),
		intent:         f,
	}, nil
}

func (r *Reader) readGIF() (ImageProcessor, error) {
	g, err := gif.DecodeAll(bytes.NewReader(r.data))
	if err != nil {
		return ImageProcessor{}, fmt.Errorf("failed to decode GIF image: %w", err)
	}
	if len(g.Image) == 0 {
		return ImageProcessor{}, fmt.Errorf("failed to decode GIF image: no frames")
	}

	bounds := image.Rect(0, 0, g.Config.Width, g.Config.Height)
	if bounds.Empty() {
		bounds = g.Image[0].Bounds()
	}

	canvas := image.NewNRGBA(bounds)
	frames := make([]image.Image, 0, len(g.Image))
	delays := make([]int, 0, len(g.Image))

	for i, frame := range g.Image {
		var previous *image.NRGBA
		disposal := byte(0)
		if i < len(g.Disposal) {
			disposal = g.Disposal[i]
		}
		if disposal == gif.DisposalPrevious {
			previous = imaging.Clone(canvas)
		}

		xdraw.Draw(canvas, frame.Bounds(), frame, frame.Bounds().Min, xdraw.Over)
		frames = append(frames, imaging.Clone(canvas))

		delay := 0
		if i < len(g.Delay) {
			delay = g.Delay[i]
		}
		delays = append(delays, delay)

		switch disposal {
		case gif.DisposalBackground:
			xdraw.Draw(canvas, frame.Bounds(), image.Transparent, image.Point{}, xdraw.Src)
		case gif.DisposalPrevious:
			canvas = previous
		}
	}

	return ImageProcessor{
		frames:         frames,
		delays:         delays,
		loopCount:      g.LoopCount,
		interpretation: "sRGB",
		intent:         format.GIF,
	}, nil
}
