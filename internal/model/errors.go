package model

import "errors"

// ErrValidation is wrapped by every input validation failure,
// e.g. fmt.Errorf("%w: title is required", ErrValidation).
var ErrValidation = errors.New("validation failed")
