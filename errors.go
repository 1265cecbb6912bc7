package chatstream

import "fmt"

// ValidationError reports a request that was rejected before any
// backend call was made: empty prompt, missing provider or model, or a
// malformed history document.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

// validationErrorf builds a ValidationError from a format string.
func validationErrorf(format string, args ...any) *ValidationError {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}
