package sizing

import "errors"

var ErrInvalidSizeOptions = errors.New("invalid size options")
