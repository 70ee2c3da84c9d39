package fetch

import (
	"errors"
	"fmt"
)

// ErrNotArray is returned when the upstream body decodes but is not a JSON array.
var ErrNotArray = errors.New("upstream response is not an array")

// StatusError tags a cycle failure with the upstream HTTP status code.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream returned status %d", e.Code)
}
