package image

import "errors"

var (
	ErrImageNotFound       = errors.New("image not found")
	ErrVariantNotFound     = errors.New("variant not found")
	ErrFileNotFound        = errors.New("file not found")
	ErrStorageError        = errors.New("storage error")
	ErrDuplicateKey        = errors.New("duplicate key violation")
	ErrForeignKeyViolation = errors.New("foreign key violation")
	ErrStaleSource         = errors.New("image data changed")
)
