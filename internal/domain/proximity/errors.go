package proximity

import "errors"

// ErrInvalidArgument is returned for a radius that is not a positive number.
var ErrInvalidArgument = errors.New("invalid argument")
