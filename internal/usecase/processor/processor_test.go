package processor

import (
	"bytes"
	"image/gif"
	"os"
	"path/filepath"
	"testing"

	"dynamic-image/internal/domain"
	"dynamic-image/internal/format"
	"dynamic-image/internal/testutil"
	"dynamic-image/internal/usecase/metadata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func read(t *testing.T, data []byte) ImageProcessor {
	t.Helper()
	p, err := NewReader(data).Read()
	require.NoError(t, err)
	return p
}

func TestReaderValidHeader(t *testing.T) {
	tests := []struct {
		name  string
		data  []byte
		valid bool
		want  *format.Format
	}{
		{"png", testutil.PNG(t, 4, 4), true, format.PNG},
		{"jpeg", testutil.JPEG(t, 4, 4), true, format.JPEG},
		{"gif", testutil.AnimatedGIF(t, 4, 4, 2), true, format.GIF},
		{"tiff", testutil.TIFF(t, 4, 4), true, format.TIFF},
		{"bmp", testutil.BMP(t, 4, 4), true, format.BMP},
		{"text", []byte("not an image at all"), false, nil},
		{"empty", nil, false, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewReader(tt.data)
			assert.Equal(t, tt.valid, r.ValidHeader())
			assert.Equal(t, tt.want, r.Format())
		})
	}
}

func TestReaderRejectsInvalidHeader(t *testing.T) {
	_, err := NewReader([]byte("<svg></svg>")).Read()
	assert.ErrorIs(t, err, ErrInvalidHeader)
}

func TestReadFrom(t *testing.T) {
	r, err := ReadFrom(bytes.NewReader(testutil.PNG(t, 8, 6)))
	require.NoError(t, err)

	p, err := r.Read()
	require.NoError(t, err)
	assert.Equal(t, domain.Vec(8, 6), p.Size())
	assert.Equal(t, format.PNG, p.Intent())
}

func TestReaderAppliesOrientation(t *testing.T) {
	p := read(t, testutil.JPEGWithOrientation(t, 320, 200, 6))
	assert.Equal(t, domain.Vec(200, 320), p.Size())
}

func TestCrop(t *testing.T) {
	p := read(t, testutil.PNG(t, 320, 200))

	same, err := p.Crop(domain.Vec(0, 0), domain.Vec(320, 200))
	require.NoError(t, err)
	assert.Equal(t, p.Size(), same.Size())

	cropped, err := p.Crop(domain.Vec(60, 0), domain.Vec(200, 200))
	require.NoError(t, err)
	assert.Equal(t, domain.Vec(200, 200), cropped.Size())
	assert.Equal(t, domain.Vec(320, 200), p.Size(), "receiver is unchanged")

	_, err = p.Crop(domain.Vec(200, 0), domain.Vec(200, 200))
	assert.ErrorIs(t, err, ErrInvalidTransformation)
	assert.Contains(t, err.Error(), "crop size is out of bounds")

	_, err = p.Crop(domain.Vec(0, 1), domain.Vec(320, 200))
	assert.ErrorIs(t, err, ErrInvalidTransformation)
}

func TestResize(t *testing.T) {
	p := read(t, testutil.PNG(t, 320, 200))

	resized, err := p.Resize(domain.Vec(100, 62))
	require.NoError(t, err)
	assert.Equal(t, domain.Vec(100, 62), resized.Size())

	_, err = p.Resize(domain.Vec(0, 10))
	assert.ErrorIs(t, err, ErrInvalidTransformation)
}

func TestRotate(t *testing.T) {
	p := read(t, testutil.PNG(t, 320, 200))

	for _, degrees := range []int{90, 270, -90, 450} {
		rotated, err := p.Rotate(degrees)
		require.NoError(t, err)
		assert.Equal(t, domain.Vec(200, 320), rotated.Size(), "degrees %d", degrees)
	}

	for _, degrees := range []int{0, 180, 360} {
		rotated, err := p.Rotate(degrees)
		require.NoError(t, err)
		assert.Equal(t, domain.Vec(320, 200), rotated.Size(), "degrees %d", degrees)
	}

	_, err := p.Rotate(45)
	require.ErrorIs(t, err, ErrInvalidTransformation)
	assert.Contains(t, err.Error(), "angle must be a multiple of 90 degrees")
}

func TestConvert(t *testing.T) {
	p := read(t, testutil.PNG(t, 64, 48))

	for _, f := range []*format.Format{format.JPEG, format.PNG, format.GIF, format.TIFF, format.BMP} {
		t.Run(f.Name, func(t *testing.T) {
			data, err := p.Convert(f).Read()
			require.NoError(t, err)

			m := metadata.New(data)
			require.True(t, m.Valid())
			assert.Equal(t, f, m.Format())
			assert.Equal(t, 64, m.Width())
			assert.Equal(t, 48, m.Height())
		})
	}
}

func TestConvertToWEBP(t *testing.T) {
	data, err := read(t, testutil.PNG(t, 64, 48)).Convert(format.WEBP).Read()
	require.NoError(t, err)
	assert.Equal(t, format.WEBP, format.Sniff(data))
}

func TestAnimatedGIF(t *testing.T) {
	p := read(t, testutil.AnimatedGIF(t, 40, 30, 3))
	assert.Equal(t, 3, p.FrameCount())
	assert.Equal(t, domain.Vec(40, 30), p.Size())

	resized, err := p.Resize(domain.Vec(20, 15))
	require.NoError(t, err)

	data, err := resized.Convert(format.GIF).Read()
	require.NoError(t, err)

	g, err := gif.DecodeAll(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Len(t, g.Image, 3)
	assert.Equal(t, 20, g.Config.Width)
	assert.Equal(t, 15, g.Config.Height)

	static := p.Convert(format.JPEG)
	assert.Equal(t, 1, static.FrameCount())
	assert.Equal(t, 3, p.FrameCount())
}

func TestFrame(t *testing.T) {
	p := read(t, testutil.AnimatedGIF(t, 40, 30, 3))

	frame, err := p.Frame(2)
	require.NoError(t, err)
	assert.Equal(t, 1, frame.FrameCount())
	assert.Equal(t, domain.Vec(40, 30), frame.Size())

	_, err = p.Frame(3)
	assert.ErrorIs(t, err, ErrInvalidTransformation)
}

func TestScreenProfileKeepsGrayscale(t *testing.T) {
	p := read(t, testutil.GrayPNG(t, 32, 32)).ScreenProfile()
	assert.Equal(t, "Gray", p.Interpretation())

	resized, err := p.Resize(domain.Vec(16, 16))
	require.NoError(t, err)

	data, err := resized.Convert(format.JPEG).Read()
	require.NoError(t, err)
	assert.Equal(t, domain.ColorspaceGray, metadata.New(data).Colorspace())
}

func TestScreenProfileKeepsRGB(t *testing.T) {
	p := read(t, testutil.JPEG(t, 32, 32)).ScreenProfile()
	assert.Equal(t, "sRGB", p.Interpretation())
}

func TestWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.png")
	require.NoError(t, read(t, testutil.PNG(t, 10, 10)).Write(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, format.PNG, format.Sniff(data))
}
