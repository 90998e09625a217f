// Package errors provides standard error types for winebox.
//
// These sentinel errors allow callers to check for specific error conditions
// using errors.Is(), enabling programmatic error handling.
package errors

import "errors"

// Instance lookup errors
var (
	// ErrInstanceNotFound indicates the specified instance does not exist.
	ErrInstanceNotFound = errors.New("instance not found")

	// ErrAmbiguousName indicates multiple instances match the given name prefix.
	ErrAmbiguousName = errors.New("multiple instances match prefix")

	// ErrInstanceExists indicates an instance with the same name already exists.
	ErrInstanceExists = errors.New("instance already exists")
)

// Instance state errors
var (
	// ErrInstanceRunning indicates the operation cannot be performed because the instance is running.
	ErrInstanceRunning = errors.New("instance is running")

	// ErrInstanceStopped indicates the operation cannot be performed because the instance is stopped.
	ErrInstanceStopped = errors.New("instance is not running")

	// ErrInstanceLocked indicates another winebox process holds the instance lock.
	ErrInstanceLocked = errors.New("instance is locked by another process")
)

// Launch errors
var (
	// ErrExecutableNotFound indicates no game executable was found under the game root.
	ErrExecutableNotFound = errors.New("game executable not found")

	// ErrReadinessTimeout indicates a background service did not become ready within its budget.
	ErrReadinessTimeout = errors.New("service readiness timeout")

	// ErrPrefixInitFailed indicates the one-time Wine prefix initialization did not complete.
	ErrPrefixInitFailed = errors.New("prefix initialization failed")

	// ErrUsage indicates malformed or missing command-line arguments.
	// The CLI maps it (and ErrUnknownMode) to exit code 2.
	ErrUsage = errors.New("usage error")

	// ErrUnknownMode indicates the run mode is not one of gui, headless, headless-vnc.
	ErrUnknownMode = errors.New("unknown run mode")

	// ErrHostDisplayUnavailable indicates gui mode could not reach the host X display.
	ErrHostDisplayUnavailable = errors.New("host display unavailable")
)

// RemediationError wraps an error with operator-facing remediation hints.
// The CLI prints the hints as a multi-line block after the error message.
type RemediationError struct {
	Err   error
	Hints []string
}

func (e *RemediationError) Error() string { return e.Err.Error() }

func (e *RemediationError) Unwrap() error { return e.Err }

// WithHints attaches remediation hints to an error.
func WithHints(err error, hints ...string) error {
	return &RemediationError{Err: err, Hints: hints}
}
