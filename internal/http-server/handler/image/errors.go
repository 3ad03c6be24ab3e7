package image

import "errors"

var (
	ErrParameterMissing = errors.New("parameter missing")
	ErrNotAcceptable    = errors.New("format not acceptable")
	ErrFileTooLarge     = errors.New("file too large")
)
