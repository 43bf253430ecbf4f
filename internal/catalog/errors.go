package catalog

import (
	"errors"
	"fmt"
)

// MissingParameterError reports a mismatch between a command template and
// the parameters available to it. It is a configuration error: the engine
// raises it before any device is contacted.
type MissingParameterError struct {
	// Operation is the catalog key of the offending operation
	Operation string
	// Parameter is the parameter (or template field) involved
	Parameter string
	// Reason describes the mismatch
	Reason string
}

func (e *MissingParameterError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("operation %q: missing parameter %q", e.Operation, e.Parameter)
	}
	return fmt.Sprintf("operation %q: missing parameter %q (%s)", e.Operation, e.Parameter, e.Reason)
}

// IsMissingParameter reports whether err (or any error it wraps) is a
// MissingParameterError
func IsMissingParameter(err error) bool {
	var mpe *MissingParameterError
	return errors.As(err, &mpe)
}
