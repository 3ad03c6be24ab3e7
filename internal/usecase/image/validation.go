package image

import (
	"errors"
	"reflect"
	"strings"

	"dynamic-image/internal/domain"
	"dynamic-image/internal/format"

	"github.com/go-playground/validator/v10"
)

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("image_content_type", func(fl validator.FieldLevel) bool {
		return format.IsContentType(fl.Field().String())
	})
	v.RegisterStructValidation(validateImageStruct, domain.Image{})
	return v
}

func validateImageStruct(sl validator.StructLevel) {
	img := sl.Current().Interface().(domain.Image)

	requirePair(sl, img.CropWidth, img.CropHeight, "crop_width", "crop_height")
	requirePair(sl, img.CropStartX, img.CropStartY, "crop_start_x", "crop_start_y")
	requirePair(sl, img.CropGravityX, img.CropGravityY, "crop_gravity_x", "crop_gravity_y")

	size, ok := img.CropSize()
	if !ok || img.RealWidth <= 0 || img.RealHeight <= 0 {
		return
	}
	start, bounds := img.CropStart(), img.RealSize()
	if start.X+size.X > bounds.X || start.Y+size.Y > bounds.Y {
		sl.ReportError(img.CropWidth, "crop_size", "CropSize", "crop_bounds", "")
	}
}

func requirePair(sl validator.StructLevel, a, b *int, nameA, nameB string) {
	switch {
	case a != nil && b == nil:
		sl.ReportError(b, nameB, nameB, "required_with", nameA)
	case a == nil && b != nil:
		sl.ReportError(a, nameA, nameA, "required_with", nameB)
	}
}

func (i *ImageUsecase) validateImage(img *domain.Image) error {
	err := i.validate.Struct(img)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = validationMessage(fe)
	}
	return &ValidationError{Fields: fields}
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "can't be blank"
	case "oneof":
		return "is not included in the list"
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte":
		return "must be greater than or equal to " + fe.Param()
	case "image_content_type":
		return "is not a supported image type"
	case "required_with":
		return "must be set together with " + fe.Param()
	case "crop_bounds":
		return "is out of bounds"
	}
	return "is invalid"
}
