package dto

import "time"

type ImageResponse struct {
	ID            string            `json:"id"`
	Param         string            `json:"param"`
	Filename      string            `json:"filename"`
	ContentType   string            `json:"content_type"`
	ContentLength int64             `json:"content_length"`
	Colorspace    string            `json:"colorspace"`
	RealWidth     int               `json:"real_width"`
	RealHeight    int               `json:"real_height"`
	CropWidth     *int              `json:"crop_width,omitempty"`
	CropHeight    *int              `json:"crop_height,omitempty"`
	CropStartX    *int              `json:"crop_start_x,omitempty"`
	CropStartY    *int              `json:"crop_start_y,omitempty"`
	CropGravityX  *int              `json:"crop_gravity_x,omitempty"`
	CropGravityY  *int              `json:"crop_gravity_y,omitempty"`
	URLs          map[string]string `json:"urls"`
	Variants      []VariantResponse `json:"variants,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

type VariantResponse struct {
	ID            string    `json:"id"`
	Format        string    `json:"format"`
	Width         int       `json:"width"`
	Height        int       `json:"height"`
	CropWidth     int       `json:"crop_width"`
	CropHeight    int       `json:"crop_height"`
	CropStartX    int       `json:"crop_start_x"`
	CropStartY    int       `json:"crop_start_y"`
	ContentType   string    `json:"content_type"`
	ContentLength int64     `json:"content_length"`
	CreatedAt     time.Time `json:"created_at"`
}

type ListResponse struct {
	Images []ImageResponse `json:"images"`
	Total  int             `json:"total"`
	Limit  int             `json:"limit"`
	Offset int             `json:"offset"`
}

type ErrorResponse struct {
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Details string            `json:"details,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}
