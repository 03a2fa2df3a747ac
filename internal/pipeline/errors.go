package pipeline

import (
	"errors"
	"fmt"
)

// Stage names one step of the execution sequence.
type Stage string

// Execution stages, in order.
const (
	StageInitialVerify Stage = "initial-verify"
	StageDebugStrip    Stage = "debug-strip"
	StageMain          Stage = "main"
	StageSymbolStrip   Stage = "symbol-strip"
	StageFinalVerify   Stage = "final-verify"
)

// ValidationError reports a module that failed verification during a run.
//
// Step and Pass are set when the failure followed a specific step: a main
// sequence pass (Step is its 1-based position) or a strip step.
type ValidationError struct {
	Stage Stage
	Step  int
	Pass  string
	Err   error
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	switch {
	case e.Step > 0:
		return fmt.Sprintf("%s: verification failed after step %d (%s): %v", e.Stage, e.Step, e.Pass, e.Err)
	case e.Pass != "":
		return fmt.Sprintf("%s: verification failed after %s: %v", e.Stage, e.Pass, e.Err)
	default:
		return fmt.Sprintf("%s: verification failed: %v", e.Stage, e.Err)
	}
}

// Unwrap returns the underlying verifier error.
func (e *ValidationError) Unwrap() error { return e.Err }

// IsValidationError reports whether err is or wraps a *ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// FailedStage returns the stage of a wrapped *ValidationError, or "".
func FailedStage(err error) Stage {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Stage
	}
	return ""
}

// ConfigErrorCode categorizes configuration errors.
type ConfigErrorCode string

const (
	// ErrCodeInvalidConfig indicates a setting with an unusable value.
	ErrCodeInvalidConfig ConfigErrorCode = "CONFIG_INVALID"

	// ErrCodeConfigConflict indicates two sources gave different values for
	// the same setting.
	ErrCodeConfigConflict ConfigErrorCode = "CONFIG_CONFLICT"
)

// ConfigError reports an invalid or conflicting configuration.
type ConfigError struct {
	Code    ConfigErrorCode
	Setting string
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Setting != "" {
		return fmt.Sprintf("%s: %s: %s", e.Code, e.Setting, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsConfigConflict reports whether err is a configuration conflict.
func IsConfigConflict(err error) bool {
	var ce *ConfigError
	if errors.As(err, &ce) {
		return ce.Code == ErrCodeConfigConflict
	}
	return false
}

// IsConfigError reports whether err is or wraps a *ConfigError.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}
