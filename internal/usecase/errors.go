package usecase

import (
	"errors"
	"fmt"
)

// Categories. The HTTP layer maps each to one status code.
var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrNotFound              = errors.New("resource not found")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrDependencyUnavailable = errors.New("dependency unavailable")
)

// Engine causes; errors.Is also matches their category.
var (
	ErrCourtNotFound   = fmt.Errorf("%w: court", ErrNotFound)
	ErrEmptyQueue      = fmt.Errorf("%w: court queue is empty", ErrInvalidInput)
	ErrInvalidMatchRef = fmt.Errorf("%w: match ref", ErrInvalidInput)
)
