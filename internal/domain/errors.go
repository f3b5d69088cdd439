package domain

import (
	"errors"
	"fmt"
)

// ErrorType classifies domain-specific errors.
type ErrorType string

const (
	ErrorTypeValidation  ErrorType = "validation"
	ErrorTypeNotFound    ErrorType = "not_found"
	ErrorTypeDecode      ErrorType = "decode"
	ErrorTypeRender      ErrorType = "render"
	ErrorTypeStorage     ErrorType = "storage"
	ErrorTypeRecords     ErrorType = "records"
	ErrorTypeTransaction ErrorType = "transaction"
)

// ErrBlobNotFound is returned by ArtifactStore.Delete when the object is
// already absent. Cleanup paths treat it as ignorable; everything else
// must not.
var ErrBlobNotFound = errors.New("artifact object not found")

// DomainError carries an error classification alongside the message and cause.
type DomainError struct {
	Type    ErrorType
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewError creates a new domain error.
func NewError(errType ErrorType, message string, err error) *DomainError {
	return &DomainError{
		Type:    errType,
		Message: message,
		Err:     err,
	}
}

// Common error constructors
func ValidationError(message string, err error) *DomainError {
	return NewError(ErrorTypeValidation, message, err)
}

func NotFoundError(message string, err error) *DomainError {
	return NewError(ErrorTypeNotFound, message, err)
}

func DecodeError(message string, err error) *DomainError {
	return NewError(ErrorTypeDecode, message, err)
}

func RenderError(message string, err error) *DomainError {
	return NewError(ErrorTypeRender, message, err)
}

func StorageError(message string, err error) *DomainError {
	return NewError(ErrorTypeStorage, message, err)
}

func RecordsError(message string, err error) *DomainError {
	return NewError(ErrorTypeRecords, message, err)
}

func TransactionError(message string, err error) *DomainError {
	return NewError(ErrorTypeTransaction, message, err)
}

// IsValidation reports whether err is a validation error.
func IsValidation(err error) bool {
	return isType(err, ErrorTypeValidation)
}

// IsNotFound reports whether err is a not-found error.
func IsNotFound(err error) bool {
	return isType(err, ErrorTypeNotFound)
}

func isType(err error, t ErrorType) bool {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Type == t
	}
	return false
}
