package services

import "errors"

// Sentinel errors for the three terminal outcomes the HTTP layer maps onto
// 404, 403 and 422. Services wrap them with fmt.Errorf("%w: ...") so callers
// can test with errors.Is while keeping a useful message.
var (
	ErrNotFound   = errors.New("not found")
	ErrForbidden  = errors.New("forbidden")
	ErrValidation = errors.New("validation failed")
)
