package catalog

import (
	"errors"
	"fmt"
)

// UnknownPassError reports a pass name that is not registered.
// It is raised while a pipeline is being resolved, before any module is
// touched.
type UnknownPassError struct {
	Name string
}

// Error implements the error interface.
func (e *UnknownPassError) Error() string {
	return fmt.Sprintf("unknown pass %q", e.Name)
}

// MissingParameterError reports that a pass needs a parameter the run did
// not supply. The builder drops that pipeline slot instead of failing.
type MissingParameterError struct {
	Pass      PassID
	Parameter string
}

// Error implements the error interface.
func (e *MissingParameterError) Error() string {
	return fmt.Sprintf("pass %s requires %s", e.Pass, e.Parameter)
}

// IsUnknownPass reports whether err is or wraps an *UnknownPassError.
func IsUnknownPass(err error) bool {
	var upe *UnknownPassError
	return errors.As(err, &upe)
}

// IsMissingParameter reports whether err is or wraps a *MissingParameterError.
func IsMissingParameter(err error) bool {
	var mpe *MissingParameterError
	return errors.As(err, &mpe)
}
