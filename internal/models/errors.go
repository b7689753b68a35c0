package models

import (
	"errors"
	"fmt"
)

var (
	// ErrRecordNotFound is returned by repositories when a lookup matches nothing.
	ErrRecordNotFound = errors.New("record not found")
	// ErrVersionConflict is returned when a QR record changed since it was read.
	ErrVersionConflict = errors.New("qr record version conflict")
)

// ErrorKind classifies failures for the transport layer.
type ErrorKind string

const (
	KindValidation ErrorKind = "validation"
	KindNotFound   ErrorKind = "not_found"
	KindConflict   ErrorKind = "conflict"
	KindIneligible ErrorKind = "ineligible"
	KindGeneration ErrorKind = "generation"
	KindUpstream   ErrorKind = "upstream"
	KindInternal   ErrorKind = "internal"
)

// Error codes attached to failures, used for batch attribution.
const (
	CodePropertyNotFound    = "PROPERTY_NOT_FOUND"
	CodePropertyNotEligible = "PROPERTY_NOT_ELIGIBLE"
	CodeQrGenerationFailed  = "QR_GENERATION_FAILED"
	CodeS3UploadFailed      = "S3_UPLOAD_FAILED"
	CodeDatabaseError       = "DATABASE_ERROR"
	CodeInvalidPropertyID   = "INVALID_PROPERTY_ID"
	CodeQrNotFound          = "QR_NOT_FOUND"
	CodeVersionConflict     = "VERSION_CONFLICT"
	CodeValidationError     = "VALIDATION_ERROR"
	CodeInternalError       = "INTERNAL_ERROR"
)

// Error is a classified service error.
type Error struct {
	Kind       ErrorKind
	Code       string
	Message    string
	PropertyID string
	Operation  string
	Err        error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// WithOperation tags the error with the operation that produced it.
func (e *Error) WithOperation(op string) *Error {
	e.Operation = op
	return e
}

func ErrPropertyNotFound(propertyID string) *Error {
	return &Error{
		Kind:       KindNotFound,
		Code:       CodePropertyNotFound,
		Message:    fmt.Sprintf("Property not found: %s", propertyID),
		PropertyID: propertyID,
	}
}

func ErrPropertyNotEligible(propertyID, reason string) *Error {
	return &Error{
		Kind:       KindIneligible,
		Code:       CodePropertyNotEligible,
		Message:    fmt.Sprintf("Property not eligible for QR generation: %s", reason),
		PropertyID: propertyID,
	}
}

func ErrInvalidPropertyID(propertyID string, err error) *Error {
	return &Error{
		Kind:       KindValidation,
		Code:       CodeInvalidPropertyID,
		Message:    fmt.Sprintf("Invalid property ID format: %s", propertyID),
		PropertyID: propertyID,
		Err:        err,
	}
}

func ErrQrGenerationFailed(propertyID string, err error) *Error {
	return &Error{
		Kind:       KindGeneration,
		Code:       CodeQrGenerationFailed,
		Message:    "QR code generation failed",
		PropertyID: propertyID,
		Err:        err,
	}
}

func ErrUploadFailed(propertyID string, err error) *Error {
	return &Error{
		Kind:       KindUpstream,
		Code:       CodeS3UploadFailed,
		Message:    "Object storage upload failed",
		PropertyID: propertyID,
		Err:        err,
	}
}

func ErrDatabase(propertyID string, err error) *Error {
	return &Error{
		Kind:       KindInternal,
		Code:       CodeDatabaseError,
		Message:    "Database error",
		PropertyID: propertyID,
		Err:        err,
	}
}

func ErrQrNotFound(propertyID string) *Error {
	return &Error{
		Kind:       KindNotFound,
		Code:       CodeQrNotFound,
		Message:    fmt.Sprintf("QR code not found for property: %s", propertyID),
		PropertyID: propertyID,
	}
}

func ErrConflict(propertyID string, err error) *Error {
	return &Error{
		Kind:       KindConflict,
		Code:       CodeVersionConflict,
		Message:    "QR record was modified concurrently",
		PropertyID: propertyID,
		Err:        err,
	}
}

func ErrValidation(message string) *Error {
	return &Error{
		Kind:    KindValidation,
		Code:    CodeValidationError,
		Message: message,
	}
}

// AsError extracts a classified error from err's chain.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// ErrorKindOf classifies err, unclassified errors are internal.
func ErrorKindOf(err error) ErrorKind {
	if e, ok := AsError(err); ok {
		return e.Kind
	}
	return KindInternal
}

// ErrorCode returns the code attached to err. Unclassified errors are
// reported as database errors.
func ErrorCode(err error) string {
	if e, ok := AsError(err); ok {
		return e.Code
	}
	return CodeDatabaseError
}
