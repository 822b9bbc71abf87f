package geo

import "errors"

// ErrInvalidCoordinate is returned for NaN, infinite or out-of-range latitude/longitude.
var ErrInvalidCoordinate = errors.New("invalid coordinate")
