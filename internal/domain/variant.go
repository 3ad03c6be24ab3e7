package domain

import "time"

const ImageTypeImage = "Image"

// VariantParams is the unique key of a variant within its owner.
type VariantParams struct {
	Format     string
	Width      int
	Height     int
	CropWidth  int
	CropHeight int
	CropStartX int
	CropStartY int
}

// Variant is a cached derivative of an Image.
type Variant struct {
	ID            string
	ImageID       string
	ImageType     string
	ContentHash   string
	ContentType   string
	ContentLength int64
	Filename      string
	VariantParams
	CreatedAt time.Time
	UpdatedAt time.Time
}
