package aggregate

import "errors"

// ErrUnknownMode is returned for an aggregation mode that is not defined.
var ErrUnknownMode = errors.New("unknown aggregation mode")
