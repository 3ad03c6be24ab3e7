package processor

import (
	"fmt"
	"image"
	"image/gif"
	"io"

	"dynamic-image/internal/format"
	"dynamic-image/internal/usecase/processor/operations"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
)

func encode(w io.Writer, p ImageProcessor) error {
	opts := p.intent.SaveOptions

	switch p.intent {
	case format.GIF:
		return encodeGIF(w, p, opts)
	case format.WEBP:
		return webp.Encode(w, p.frames[0], &webp.Options{
			Lossless: opts.Lossless,
			Quality:  float32(opts.Quality),
		})
	}

	img := p.frames[0]
	if p.interpretation == interpretationGray {
		img = toGray(img)
	}

	switch p.intent {
	case format.JPEG:
		quality := opts.Quality
		if quality == 0 {
			quality = 90
		}
		return imaging.Encode(w, img, imaging.JPEG, imaging.JPEGQuality(quality))
	case format.PNG:
		return imaging.Encode(w, img, imaging.PNG)
	case format.TIFF:
		return imaging.Encode(w, img, imaging.TIFF)
	case format.BMP:
		return imaging.Encode(w, img, imaging.BMP)
	}
	return fmt.Errorf("unsupported format %s", p.intent.Name)
}

// encodeGIF writes every frame. With OptimizeFrames, opaque animations store
// only the region that changed since the previous frame.
func encodeGIF(w io.Writer, p ImageProcessor, opts format.SaveOptions) error {
	withAlpha := false
	for _, frame := range p.frames {
		if !operations.Opaque(frame) {
			withAlpha = true
			break
		}
	}

	g := &gif.GIF{LoopCount: p.loopCount}
	var previous *image.Paletted

	for i, frame := range p.frames {
		current := operations.Quantize(frame, withAlpha)
		out := current
		disposal := byte(gif.DisposalNone)

		switch {
		case withAlpha:
			disposal = gif.DisposalBackground
		case opts.OptimizeFrames && previous != nil:
			changed := operations.Diff(previous, current)
			if changed.Empty() {
				changed = image.Rect(0, 0, 1, 1)
			}
			out = current.SubImage(changed).(*image.Paletted)
		}

		g.Image = append(g.Image, out)
		g.Delay = append(g.Delay, p.delays[i])
		g.Disposal = append(g.Disposal, disposal)
		previous = current
	}

	return gif.EncodeAll(w, g)
}

func toGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		return g
	}
	b := img.Bounds()
	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			out.Set(x, y, img.At(b.Min.X+x, b.Min.Y+y))
		}
	}
	return out
}
