package metadata

import (
	"image/color"
	"testing"

	"dynamic-image/internal/domain"
	"dynamic-image/internal/format"
	"dynamic-image/internal/testutil"

	"github.com/stretchr/testify/assert"
)

func TestMetadataValidImages(t *testing.T) {
	tests := []struct {
		name        string
		data        []byte
		contentType string
		colorspace  string
		format      *format.Format
	}{
		{"png", testutil.PNG(t, 320, 200), "image/png", "rgb", format.PNG},
		{"jpeg", testutil.JPEG(t, 320, 200), "image/jpeg", "rgb", format.JPEG},
		{"gray png", testutil.GrayPNG(t, 320, 200), "image/png", "gray", format.PNG},
		{"tiff", testutil.TIFF(t, 320, 200), "image/tiff", "rgb", format.TIFF},
		{"bmp", testutil.BMP(t, 320, 200), "image/bmp", "rgb", format.BMP},
		{"animated gif", testutil.AnimatedGIF(t, 320, 200, 3), "image/gif", "rgb", format.GIF},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := New(tt.data)

			assert.True(t, m.Valid())
			assert.Equal(t, tt.contentType, m.ContentType())
			assert.Equal(t, tt.colorspace, m.Colorspace())
			assert.Equal(t, tt.format, m.Format())
			assert.Equal(t, 320, m.Width())
			assert.Equal(t, 200, m.Height())

			dims, ok := m.Dimensions()
			assert.True(t, ok)
			assert.Equal(t, domain.Vec(320, 200), dims)
		})
	}
}

func TestMetadataInvalidData(t *testing.T) {
	inputs := map[string][]byte{
		"nil":          nil,
		"empty":        {},
		"text":         []byte("this is not an image"),
		"truncated":    testutil.PNG(t, 10, 10)[:12],
		"bad jpeg":     {0xff, 0xd8, 0x00, 0x00, 0x00},
		"unknown type": []byte("%PDF-1.4\n"),
	}

	for name, data := range inputs {
		t.Run(name, func(t *testing.T) {
			m := New(data)

			assert.False(t, m.Valid())
			assert.Empty(t, m.Colorspace())
			assert.Empty(t, m.ContentType())
			assert.Nil(t, m.Format())
			assert.Zero(t, m.Width())
			assert.Zero(t, m.Height())

			_, ok := m.Dimensions()
			assert.False(t, ok)
		})
	}
}

func TestMetadataOrientation(t *testing.T) {
	for orientation, want := range map[int]domain.Vector{
		1: domain.Vec(320, 200),
		3: domain.Vec(320, 200),
		6: domain.Vec(200, 320),
		8: domain.Vec(200, 320),
	} {
		m := New(testutil.JPEGWithOrientation(t, 320, 200, orientation))

		dims, ok := m.Dimensions()
		assert.True(t, ok)
		assert.Equal(t, want, dims, "orientation %d", orientation)
	}
}

func TestInterpretation(t *testing.T) {
	assert.Equal(t, "CMYK", Interpretation(color.CMYKModel))
	assert.Equal(t, "Gray", Interpretation(color.Gray16Model))
	assert.Equal(t, "sRGB", Interpretation(color.YCbCrModel))
	assert.Equal(t, "sRGB", Interpretation(color.Palette{color.Black, color.White}))
	assert.Equal(t, "Undefined", Interpretation(color.ModelFunc(func(c color.Color) color.Color { return c })))
}
