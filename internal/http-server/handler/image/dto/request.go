package dto

type ListRequest struct {
	Limit  int `validate:"gte=1,lte=100"`
	Offset int `validate:"gte=0"`
}

// UpdateImageRequest holds the editable attributes. Omitted fields are left
// unchanged.
type UpdateImageRequest struct {
	Filename     *string `json:"filename" validate:"omitempty,max=255"`
	CropWidth    *int    `json:"crop_width" validate:"omitempty,gt=0"`
	CropHeight   *int    `json:"crop_height" validate:"omitempty,gt=0"`
	CropStartX   *int    `json:"crop_start_x" validate:"omitempty,gte=0"`
	CropStartY   *int    `json:"crop_start_y" validate:"omitempty,gte=0"`
	CropGravityX *int    `json:"crop_gravity_x" validate:"omitempty,gte=0"`
	CropGravityY *int    `json:"crop_gravity_y" validate:"omitempty,gte=0"`
	ClearCrop    bool    `json:"clear_crop"`
}

type RotateRequest struct {
	Degrees int `json:"degrees"`
}

type ResizeRequest struct {
	Size string `json:"size" validate:"required"`
}
