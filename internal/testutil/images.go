// Package testutil generates encoded images for tests.
package testutil

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/color/palette"
	"image/gif"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

// Gradient returns an RGBA image where every pixel is distinct enough to
// detect crops and rotations.
func Gradient(width, height int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetNRGBA(x, y, color.NRGBA{
				R: uint8(x * 255 / max(width-1, 1)),
				G: uint8(y * 255 / max(height-1, 1)),
				B: 128,
				A: 255,
			})
		}
	}
	return img
}

func PNG(t testing.TB, width, height int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, Gradient(width, height)))
	return buf.Bytes()
}

func GrayPNG(t testing.TB, width, height int) []byte {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, width, height))
	for i := range img.Pix {
		img.Pix[i] = uint8(i % 256)
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func JPEG(t testing.TB, width, height int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, Gradient(width, height), &jpeg.Options{Quality: 95}))
	return buf.Bytes()
}

func TIFF(t testing.TB, width, height int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, tiff.Encode(&buf, Gradient(width, height), nil))
	return buf.Bytes()
}

func BMP(t testing.TB, width, height int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, bmp.Encode(&buf, Gradient(width, height)))
	return buf.Bytes()
}

// AnimatedGIF returns a GIF with the given number of frames, each filled
// with a different palette color.
func AnimatedGIF(t testing.TB, width, height, frames int) []byte {
	t.Helper()
	anim := &gif.GIF{}
	for i := 0; i < frames; i++ {
		frame := image.NewPaletted(image.Rect(0, 0, width, height), palette.Plan9)
		for p := range frame.Pix {
			frame.Pix[p] = uint8((i*40 + p%7) % len(palette.Plan9))
		}
		anim.Image = append(anim.Image, frame)
		anim.Delay = append(anim.Delay, 10)
	}
	var buf bytes.Buffer
	require.NoError(t, gif.EncodeAll(&buf, anim))
	return buf.Bytes()
}

// JPEGWithOrientation returns a JPEG carrying an EXIF orientation tag.
func JPEGWithOrientation(t testing.TB, width, height, orientation int) []byte {
	t.Helper()
	data := JPEG(t, width, height)

	ifd := []byte{'I', 'I', 0x2a, 0x00, 0x08, 0x00, 0x00, 0x00, 0x01, 0x00}
	entry := make([]byte, 12)
	binary.LittleEndian.PutUint16(entry[0:], 0x0112)
	binary.LittleEndian.PutUint16(entry[2:], 3)
	binary.LittleEndian.PutUint32(entry[4:], 1)
	binary.LittleEndian.PutUint16(entry[8:], uint16(orientation))
	ifd = append(ifd, entry...)
	ifd = append(ifd, 0x00, 0x00, 0x00, 0x00)

	payload := append([]byte("Exif\x00\x00"), ifd...)
	segment := []byte{0xff, 0xe1, 0x00, 0x00}
	binary.BigEndian.PutUint16(segment[2:], uint16(len(payload)+2))
	segment = append(segment, payload...)

	out := []byte{0xff, 0xd8}
	out = append(out, segment...)
	return append(out, data[2:]...)
}
