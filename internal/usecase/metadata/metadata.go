package metadata

import (
	"bytes"
	"image"
	"image/color"
	"regexp"

	"dynamic-image/internal/domain"
	"dynamic-image/internal/format"

	"github.com/rwcarlsen/goexif/exif"
)

var (
	rgbPattern  = regexp.MustCompile(`(?i)rgb`)
	cmykPattern = regexp.MustCompile(`(?i)cmyk`)
	grayPattern = regexp.MustCompile(`(?i)gray`)
)

type info struct {
	interpretation string
	width          int
	height         int
	format         *format.Format
}

// Metadata reads basic properties of encoded image data. Parsing happens on
// first access. Invalid data never returns an error: every accessor reports
// its zero value instead.
type Metadata struct {
	data   []byte
	parsed bool
	info   *info
}

func New(data []byte) *Metadata {
	return &Metadata{data: data}
}

func (m *Metadata) Valid() bool {
	return m.read() != nil
}

// Colorspace is one of "rgb", "cmyk", "gray", or "" when unknown.
func (m *Metadata) Colorspace() string {
	i := m.read()
	if i == nil {
		return ""
	}
	switch {
	case rgbPattern.MatchString(i.interpretation):
		return domain.ColorspaceRGB
	case cmykPattern.MatchString(i.interpretation):
		return domain.ColorspaceCMYK
	case grayPattern.MatchString(i.interpretation):
		return domain.ColorspaceGray
	}
	return ""
}

func (m *Metadata) ContentType() string {
	if f := m.Format(); f != nil {
		return f.ContentType()
	}
	return ""
}

func (m *Metadata) Format() *format.Format {
	if i := m.read(); i != nil {
		return i.format
	}
	return nil
}

// Dimensions returns the displayed size, after applying EXIF orientation.
func (m *Metadata) Dimensions() (domain.Vector, bool) {
	i := m.read()
	if i == nil {
		return domain.Vector{}, false
	}
	return domain.Vec(float64(i.width), float64(i.height)), true
}

func (m *Metadata) Width() int {
	if i := m.read(); i != nil {
		return i.width
	}
	return 0
}

func (m *Metadata) Height() int {
	if i := m.read(); i != nil {
		return i.height
	}
	return 0
}

func (m *Metadata) read() *info {
	if !m.parsed {
		m.parsed = true
		m.info = parse(m.data)
	}
	return m.info
}

func parse(data []byte) *info {
	if len(data) == 0 {
		return nil
	}
	f := format.Sniff(header(data))
	if f == nil {
		return nil
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil || cfg.Width <= 0 || cfg.Height <= 0 {
		return nil
	}

	width, height := cfg.Width, cfg.Height
	if swapsDimensions(orientation(data, f)) {
		width, height = height, width
	}

	return &info{
		interpretation: Interpretation(cfg.ColorModel),
		width:          width,
		height:         height,
		format:         f,
	}
}

func header(data []byte) []byte {
	if len(data) > 10 {
		return data[:10]
	}
	return data
}

// Interpretation names the color model the way image tools report it.
func Interpretation(model color.Model) string {
	if _, ok := model.(color.Palette); ok {
		return "sRGB"
	}
	switch model {
	case color.GrayModel, color.Gray16Model:
		return "Gray"
	case color.CMYKModel:
		return "CMYK"
	case color.RGBAModel, color.RGBA64Model, color.NRGBAModel, color.NRGBA64Model,
		color.YCbCrModel, color.NYCbCrAModel, color.AlphaModel, color.Alpha16Model:
		return "sRGB"
	}
	return "Undefined"
}

func orientation(data []byte, f *format.Format) (o int) {
	if f != format.JPEG && f != format.TIFF {
		return 1
	}
	defer func() {
		if recover() != nil {
			o = 1
		}
	}()
	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return 1
	}
	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return 1
	}
	o, err = tag.Int(0)
	if err != nil {
		return 1
	}
	return o
}

// Orientations 5 through 8 are transposed.
func swapsDimensions(orientation int) bool {
	return orientation >= 5 && orientation <= 8
}
