package domain

import "fmt"

// DomainError represents a domain-specific error
type DomainError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is matches on error code so wrapped sentinels compare equal to their base.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.Message == t.Message
}

// NewDomainError creates a new DomainError
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     nil,
	}
}

// NewDomainErrorWithCause creates a new DomainError with an underlying cause
func NewDomainErrorWithCause(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common domain error codes
const (
	ErrCodeValidation              = "VALIDATION_ERROR"
	ErrCodeNotFound                = "NOT_FOUND"
	ErrCodeCollaboratorUnavailable = "COLLABORATOR_UNAVAILABLE"
	ErrCodeInternalError           = "INTERNAL_ERROR"
)

// Validation errors
var (
	ErrInvalidFilter        = NewDomainError(ErrCodeValidation, "invalid filter")
	ErrMissingRequiredField = NewDomainError(ErrCodeValidation, "missing required field")
)

// Not found errors
var (
	ErrUserNotFound      = NewDomainError(ErrCodeNotFound, "user not found")
	ErrSearchLogNotFound = NewDomainError(ErrCodeNotFound, "search log not found")
)

// Collaborator errors
var (
	ErrStoreUnavailable   = NewDomainError(ErrCodeCollaboratorUnavailable, "document store unavailable")
	ErrHistoryUnavailable = NewDomainError(ErrCodeCollaboratorUnavailable, "search history unavailable")
)

// InvalidFilterf returns an ErrInvalidFilter carrying a description of the offending value.
func InvalidFilterf(format string, args ...any) error {
	return NewDomainErrorWithCause(ErrCodeValidation, ErrInvalidFilter.Message, fmt.Errorf(format, args...))
}

// Unavailable wraps a store error as a collaborator failure.
func Unavailable(err error) error {
	if err == nil {
		return nil
	}
	return NewDomainErrorWithCause(ErrCodeCollaboratorUnavailable, ErrStoreUnavailable.Message, err)
}
