package operations

import (
	"image"
	"image/color"
	"image/color/palette"

	xdraw "golang.org/x/image/draw"
)

var transparentPalette = append(color.Palette{color.Transparent}, palette.Plan9[:255]...)

// Quantize dithers img onto a web palette. Index 0 is reserved for
// transparency when withAlpha is set.
func Quantize(img image.Image, withAlpha bool) *image.Paletted {
	p := color.Palette(palette.Plan9)
	if withAlpha {
		p = transparentPalette
	}
	b := img.Bounds()
	out := image.NewPaletted(image.Rect(0, 0, b.Dx(), b.Dy()), p)
	xdraw.FloydSteinberg.Draw(out, out.Bounds(), img, b.Min)
	return out
}

// Opaque reports whether every pixel of img is fully opaque.
func Opaque(img image.Image) bool {
	if o, ok := img.(interface{ Opaque() bool }); ok {
		return o.Opaque()
	}
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if _, _, _, a := img.At(x, y).RGBA(); a != 0xffff {
				return false
			}
		}
	}
	return true
}

// Diff returns the smallest rectangle containing every pixel index that
// differs between a and b, which must have the same bounds.
func Diff(a, b *image.Paletted) image.Rectangle {
	var r image.Rectangle
	bounds := a.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			if a.ColorIndexAt(x, y) != b.ColorIndexAt(x, y) {
				r = r.Union(image.Rect(x, y, x+1, y+1))
			}
		}
	}
	return r
}
