package domain

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

const (
	ColorspaceRGB  = "rgb"
	ColorspaceCMYK = "cmyk"
	ColorspaceGray = "gray"
)

const paramTimeLayout = "20060102150405"

var paramPattern = regexp.MustCompile(`^(.+)-(\d{14})$`)

// Image is a stored source image. Optional crop and gravity fields are nil
// when unset; 0 is a valid explicit coordinate.
type Image struct {
	ID            string    `json:"id"`
	ContentHash   string    `json:"content_hash"`
	ContentType   string    `json:"content_type" validate:"required,image_content_type"`
	ContentLength int64     `json:"content_length" validate:"gt=0"`
	Filename      string    `json:"filename"`
	Colorspace    string    `json:"colorspace" validate:"required,oneof=rgb cmyk gray"`
	RealWidth     int       `json:"real_width" validate:"gt=0"`
	RealHeight    int       `json:"real_height" validate:"gt=0"`
	CropWidth     *int      `json:"crop_width,omitempty" validate:"omitempty,gt=0"`
	CropHeight    *int      `json:"crop_height,omitempty" validate:"omitempty,gt=0"`
	CropStartX    *int      `json:"crop_start_x,omitempty" validate:"omitempty,gte=0"`
	CropStartY    *int      `json:"crop_start_y,omitempty" validate:"omitempty,gte=0"`
	CropGravityX  *int      `json:"crop_gravity_x,omitempty" validate:"omitempty,gte=0"`
	CropGravityY  *int      `json:"crop_gravity_y,omitempty" validate:"omitempty,gte=0"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	Data []byte `json:"-"`
}

func IntPtr(v int) *int {
	return &v
}

func (i *Image) Persisted() bool {
	return i.ID != ""
}

func (i *Image) RealSize() Vector {
	return Vec(float64(i.RealWidth), float64(i.RealHeight))
}

// CropSize returns the crop size, if both dimensions are set.
func (i *Image) CropSize() (Vector, bool) {
	if i.CropWidth == nil || i.CropHeight == nil {
		return Vector{}, false
	}
	return Vec(float64(*i.CropWidth), float64(*i.CropHeight)), true
}

func (i *Image) CropStart() Vector {
	if i.CropStartX == nil || i.CropStartY == nil {
		return Vector{}
	}
	return Vec(float64(*i.CropStartX), float64(*i.CropStartY))
}

func (i *Image) HasCropGravity() bool {
	return i.CropGravityX != nil && i.CropGravityY != nil
}

// CropGravity returns the explicit gravity if set, otherwise the center of
// the crop rectangle, otherwise the center of the image.
func (i *Image) CropGravity() Vector {
	if i.HasCropGravity() {
		return Vec(float64(*i.CropGravityX), float64(*i.CropGravityY))
	}
	if size, ok := i.CropSize(); ok && i.Cropped() {
		return i.CropStart().Add(size.Half())
	}
	return i.RealSize().Half()
}

func (i *Image) Cropped() bool {
	size, ok := i.CropSize()
	return ok && !size.Equal(i.RealSize())
}

// Size is the effective size: the crop size if cropped, else the real size.
func (i *Image) Size() Vector {
	if size, ok := i.CropSize(); ok {
		return size
	}
	return i.RealSize()
}

// SafeContentType returns a content type every browser can display.
func (i *Image) SafeContentType() string {
	switch i.ContentType {
	case "image/png", "image/gif", "image/jpeg":
		return i.ContentType
	}
	return "image/jpeg"
}

// Param identifies the image in URLs. The UpdatedAt fingerprint changes
// whenever the record does, so rendered responses can be cached forever.
func (i *Image) Param() string {
	if i.UpdatedAt.IsZero() {
		return i.ID
	}
	return fmt.Sprintf("%s-%s", i.ID, i.UpdatedAt.UTC().Format(paramTimeLayout))
}

// ParseParam extracts the id from a Param value.
func ParseParam(param string) string {
	if m := paramPattern.FindStringSubmatch(param); m != nil {
		return m[1]
	}
	return param
}

// Filename without extension, falling back to the id.
func (i *Image) BaseName() string {
	name := i.Filename
	if idx := strings.LastIndex(name, "."); idx > 0 {
		name = name[:idx]
	}
	if name == "" {
		return i.ID
	}
	return name
}
