// Package errors provides standardized error handling for the engagement
// lifecycle coordinator.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// Lifecycle errors
	ErrCodeInvalidTransition ErrorCode = "INVALID_TRANSITION"
	ErrCodeValidationFailed  ErrorCode = "VALIDATION_ERROR"

	// Lookup errors
	ErrCodeNotFound ErrorCode = "NOT_FOUND"

	// Identity / authorization errors
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	ErrCodeRoleMismatch ErrorCode = "ROLE_MISMATCH"

	// Transport errors
	ErrCodeNetworkOrServer ErrorCode = "NETWORK_OR_SERVER_ERROR"
	ErrCodeStaleResponse   ErrorCode = "STALE_RESPONSE"

	// Infrastructure errors
	ErrCodeSessionStore ErrorCode = "SESSION_STORE_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// ==========================
// 2. Error Constructors
// ==========================

// NewInvalidTransitionError creates a non-retryable lifecycle error. The
// attempted action is refused and no state is mutated.
func NewInvalidTransitionError(entity, from, to string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidTransition,
		Message:   fmt.Sprintf("%s cannot move from %s to %s", entity, from, to),
		Details:   fmt.Sprintf("entity: %s, currentStatus: %s, requestedStatus: %s", entity, from, to),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewValidationError creates a non-retryable input validation error, surfaced
// before any network call is issued.
func NewValidationError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeValidationFailed,
		Message:   "Input validation failed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewNotFoundError creates a non-retryable lookup error for an absent
// project, proposal, submission or profile.
func NewNotFoundError(resource, id string) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotFound,
		Message:   fmt.Sprintf("%s not found", resource),
		Details:   fmt.Sprintf("%s: %s", resource, id),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewUnauthorizedError creates a non-retryable authorization error.
func NewUnauthorizedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeUnauthorized,
		Message:   "Caller is not authorized",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewRoleMismatchError creates a non-retryable error for an action the
// caller's resolved role does not permit.
func NewRoleMismatchError(action, requiredRole, actualRole string) *StandardError {
	return &StandardError{
		Code:      ErrCodeRoleMismatch,
		Message:   fmt.Sprintf("Action %q requires role %s", action, requiredRole),
		Details:   fmt.Sprintf("action: %s, requiredRole: %s, resolvedRole: %s", action, requiredRole, actualRole),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewServerError creates a retryable catch-all transport error. The upstream
// message is carried verbatim so the host can surface it to the user.
func NewServerError(statusCode int, upstreamMessage string) *StandardError {
	return &StandardError{
		Code:      ErrCodeNetworkOrServer,
		Message:   upstreamMessage,
		Details:   fmt.Sprintf("statusCode: %d", statusCode),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewNetworkError creates a retryable error for a failed round trip.
func NewNetworkError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNetworkOrServer,
		Message:   "Request failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewStaleResponseError marks a fetch whose target moved on before the
// response arrived. Callers discard the result silently.
func NewStaleResponseError(target string) *StandardError {
	return &StandardError{
		Code:      ErrCodeStaleResponse,
		Message:   "Response arrived for a no-longer-viewed target",
		Details:   fmt.Sprintf("target: %s", target),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewSessionStoreError creates a retryable session persistence error.
func NewSessionStoreError(op string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSessionStore,
		Message:   "Session store operation failed",
		Details:   fmt.Sprintf("op: %s, error: %s", op, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 3. Predicates
// ==========================

// CodeOf extracts the ErrorCode from err, or empty if it is not a
// StandardError.
func CodeOf(err error) ErrorCode {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr.Code
	}
	return ""
}

func IsInvalidTransition(err error) bool { return CodeOf(err) == ErrCodeInvalidTransition }
func IsValidation(err error) bool        { return CodeOf(err) == ErrCodeValidationFailed }
func IsNotFound(err error) bool          { return CodeOf(err) == ErrCodeNotFound }
func IsStaleResponse(err error) bool     { return CodeOf(err) == ErrCodeStaleResponse }

// IsRoleFailure reports whether err should route the user back through login
// or role selection instead of a raw error banner.
func IsRoleFailure(err error) bool {
	code := CodeOf(err)
	return code == ErrCodeUnauthorized || code == ErrCodeRoleMismatch
}

// IsRetryable reports whether the failed operation may be retried as-is.
func IsRetryable(err error) bool {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr.Retryable
	}
	return false
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "TRANSITION"):
		return "LIFECYCLE"
	case strings.Contains(codeStr, "VALIDATION"):
		return "VALIDATION"
	case strings.Contains(codeStr, "NOT_FOUND"):
		return "LOOKUP"
	case strings.Contains(codeStr, "ROLE") || strings.Contains(codeStr, "UNAUTHORIZED"):
		return "AUTH"
	case strings.Contains(codeStr, "NETWORK") || strings.Contains(codeStr, "STALE"):
		return "TRANSPORT"
	default:
		return "OTHER"
	}
}
