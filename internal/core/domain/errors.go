package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a domain error with a structured error code.
// Codes follow the format PL-<AREA>-<NNNN>.
type DomainError struct {
	Code    string // Error code (e.g., "PL-PROC-4040")
	Message string // Human-readable message
	Details string // Optional additional details
	Cause   error  // Underlying error (if any)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if e.Details != "" {
		msg += ": " + e.Details
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying error for errors.Unwrap() support.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is() support. Two domain errors match on code.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new DomainError with the given code and message.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *DomainError) WithDetails(details string) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		Cause:   e.Cause,
	}
}

// WithCause returns a copy of the error wrapping the given cause.
func (e *DomainError) WithCause(cause error) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		Cause:   cause,
	}
}

// IsDomainError checks if an error is a DomainError with the given code.
// If code is empty, it only checks if the error is a DomainError.
func IsDomainError(err error, code string) bool {
	var de *DomainError
	if errors.As(err, &de) {
		if code == "" {
			return true
		}
		return de.Code == code
	}
	return false
}

// GetErrorCode extracts the error code from an error if it's a DomainError.
func GetErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// Configuration errors (CONF).
var (
	// ErrInvalidConfig indicates a configuration value is unusable.
	ErrInvalidConfig = NewDomainError("PL-CONF-4000", "invalid configuration")

	// ErrZeroSamplingRatio indicates the sampler rate is zero.
	ErrZeroSamplingRatio = NewDomainError("PL-CONF-4001", "sampling ratio cannot be zero")

	// ErrZeroRefreshRate indicates the save watcher rate is zero.
	ErrZeroRefreshRate = NewDomainError("PL-CONF-4002", "refresh rate cannot be zero")

	// ErrInvalidPointerPath indicates a pointer path could not be parsed.
	ErrInvalidPointerPath = NewDomainError("PL-CONF-4003", "invalid pointer path")
)

// Process attach errors (PROC).
var (
	// ErrProcessNotFound indicates no process matches the target name.
	ErrProcessNotFound = NewDomainError("PL-PROC-4040", "process not found")

	// ErrProcessAmbiguous indicates several processes match the target name.
	ErrProcessAmbiguous = NewDomainError("PL-PROC-4090", "multiple processes are not supported")

	// ErrAntiCheatRunning indicates a configured anti-cheat process is running.
	ErrAntiCheatRunning = NewDomainError("PL-PROC-4230", "anti-cheat processes must be closed first")

	// ErrUnsupportedPlatform indicates the OS has no memory backend.
	ErrUnsupportedPlatform = NewDomainError("PL-PROC-5010", "process memory access is not supported on this platform")
)

// Session errors (SESS).
var (
	// ErrSessionActive indicates a session already exists.
	ErrSessionActive = NewDomainError("PL-SESS-4090", "a session is already active")

	// ErrNoSession indicates no session is active.
	ErrNoSession = NewDomainError("PL-SESS-4040", "no active session")

	// ErrSameFolder indicates the save folder is the archive folder.
	ErrSameFolder = NewDomainError("PL-SESS-4000", "source and target saved games folders cannot be the same")

	// ErrInvalidSessionName indicates the session name cannot be used as a directory.
	ErrInvalidSessionName = NewDomainError("PL-SESS-4001", "invalid session name")

	// ErrAlreadyRunning indicates logging has already been started.
	ErrAlreadyRunning = NewDomainError("PL-SESS-4091", "session is already running")

	// ErrNothingToRun indicates neither the data logger nor the save watcher is initialized.
	ErrNothingToRun = NewDomainError("PL-SESS-4220", "initialize data logger and/or set up save watcher first")

	// ErrNotRunning indicates logging has not been started.
	ErrNotRunning = NewDomainError("PL-SESS-4092", "session is not running")
)

// Export errors (EXPT).
var (
	// ErrLogNotFound indicates there is no captured data to convert.
	ErrLogNotFound = NewDomainError("PL-EXPT-4040", "no captured data is found")
)

// Archive errors (ARCH).
var (
	// ErrBadArchiveSuffix indicates the latest archived ironman save has no numeric suffix.
	ErrBadArchiveSuffix = NewDomainError("PL-ARCH-4000", "cannot resume ironman numbering")

	// ErrSaveFolder indicates the saved games folder is unusable.
	ErrSaveFolder = NewDomainError("PL-ARCH-4001", "invalid saved games folder")
)
