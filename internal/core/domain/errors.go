// Package domain defines the core domain models for NetVerify.
package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a domain error with a structured error code.
// Codes follow the format NV-<AREA>-<NNNN>.
type DomainError struct {
	Code    string // Error code (e.g., "NV-QRY-4000")
	Message string // Human-readable message
	Details string // Optional additional details
	Cause   error  // Underlying error (if any)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap() support.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is() support for error comparison.
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

// Wrap wraps an error with this domain error as the cause.
func (e *DomainError) Wrap(cause error) *DomainError {
	return e.WithCause(cause)
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

// IsSoftDegradable reports whether a query-shaped operation may swallow err
// and return an empty result instead. Only engine transport and analysis
// failures qualify; validation, context and not-found errors never do.
func IsSoftDegradable(err error) bool {
	return errors.Is(err, ErrEngineUnavailable) || errors.Is(err, ErrEngineError)
}

// ============================================================================
// Query Errors (QRY)
// ============================================================================

var (
	// ErrInvalidQueryName indicates the query name failed the alphanumeric allow-list.
	ErrInvalidQueryName = NewDomainError("NV-QRY-4000", "invalid query name")

	// ErrInvalidParameter indicates a query parameter has the wrong shape.
	ErrInvalidParameter = NewDomainError("NV-QRY-4001", "invalid query parameter")

	// ErrUnknownQuery indicates a well-formed query name that cannot be resolved.
	ErrUnknownQuery = NewDomainError("NV-QRY-4040", "unknown query")
)

// ============================================================================
// Session Context Errors (CTX)
// ============================================================================

var (
	// ErrNoActiveNetwork indicates no network has been selected.
	ErrNoActiveNetwork = NewDomainError("NV-CTX-4000", "no active network")

	// ErrNoActiveSnapshot indicates no snapshot has been selected.
	ErrNoActiveSnapshot = NewDomainError("NV-CTX-4001", "no active snapshot")
)

// ============================================================================
// Network Errors (NET)
// ============================================================================

var (
	// ErrNetworkNotFound indicates the network does not exist on the engine.
	ErrNetworkNotFound = NewDomainError("NV-NET-4040", "network not found")

	// ErrNetworkExists indicates the network name is already taken.
	ErrNetworkExists = NewDomainError("NV-NET-4090", "network already exists")
)

// ============================================================================
// Snapshot Errors (SNAP)
// ============================================================================

var (
	// ErrSnapshotNotFound indicates the snapshot does not exist in the network.
	ErrSnapshotNotFound = NewDomainError("NV-SNAP-4040", "snapshot not found")

	// ErrEmptySnapshotList indicates the network holds no snapshots yet.
	// It is translated into an empty collection by the session layer.
	ErrEmptySnapshotList = NewDomainError("NV-SNAP-4041", "no snapshots in network")

	// ErrSnapshotExists indicates a snapshot of that name exists and overwrite is disabled.
	ErrSnapshotExists = NewDomainError("NV-SNAP-4090", "snapshot already exists")
)

// ============================================================================
// Engine Errors (ENG)
// ============================================================================

var (
	// ErrEngineError indicates the engine rejected or failed the analysis.
	ErrEngineError = NewDomainError("NV-ENG-5000", "engine error")

	// ErrEngineUnavailable indicates the engine could not be reached.
	ErrEngineUnavailable = NewDomainError("NV-ENG-5030", "engine unavailable")
)

// ============================================================================
// Argument Errors (ARG)
// ============================================================================

var (
	// ErrInvalidArgument indicates an invalid argument.
	ErrInvalidArgument = NewDomainError("NV-ARG-1001", "invalid argument")

	// ErrMissingArgument indicates a required argument is missing.
	ErrMissingArgument = NewDomainError("NV-ARG-1002", "missing required argument")
)

// ============================================================================
// System Errors (SYS)
// ============================================================================

var (
	// ErrInternal indicates an unexpected client-side failure.
	ErrInternal = NewDomainError("NV-SYS-5000", "internal error")

	// ErrStorageError indicates a local state storage failure.
	ErrStorageError = NewDomainError("NV-SYS-5001", "storage error")
)
