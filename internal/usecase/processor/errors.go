package processor

import "errors"

var (
	ErrInvalidHeader         = errors.New("invalid image header")
	ErrInvalidTransformation = errors.New("invalid transformation")
)
