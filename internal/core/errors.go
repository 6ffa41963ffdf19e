package core

import (
	"errors"
	"fmt"
)

// Error categories. Callers classify with errors.Is.
var (
	ErrValidation = errors.New("validation error")
	ErrDuplicate  = errors.New("game already added")
	ErrParse      = errors.New("parse error")
	ErrNotFound   = errors.New("not found")
)

// UpstreamError is a non-success answer from the remote game source,
// or a response missing a field we need.
type UpstreamError struct {
	Status  int
	Message string
}

func (e *UpstreamError) Error() string {
	if e.Status == 0 {
		return "upstream: " + e.Message
	}
	return fmt.Sprintf("upstream %d: %s", e.Status, e.Message)
}

// IsUpstream reports whether err carries an UpstreamError.
func IsUpstream(err error) bool {
	var ue *UpstreamError
	return errors.As(err, &ue)
}
