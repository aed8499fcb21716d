package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Common application errors
var (
	ErrNotFound        = NewNotFoundError("resource", "resource not found")
	ErrAlreadyExists   = NewAlreadyExistsError("resource", "resource already exists")
	ErrInvalidArgument = NewInvalidArgumentError("", "invalid argument")
	ErrInternal        = NewInternalError("internal server error", nil)
)

// FieldError describes a single rejected input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError represents a validation failure with field-level details.
// It is reported as 422 Unprocessable Entity over HTTP.
type ValidationError struct {
	Fields []FieldError
}

// NewValidationError creates a new validation error for a single field
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Field: field, Message: message}}}
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	messages := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		if f.Field != "" {
			messages = append(messages, fmt.Sprintf("%s %s", f.Field, f.Message))
		} else {
			messages = append(messages, f.Message)
		}
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(messages, ", "))
}

// GRPCStatus returns the gRPC status for this error
func (e *ValidationError) GRPCStatus() *status.Status {
	return status.New(codes.InvalidArgument, e.Error())
}

// InvalidArgumentError represents a malformed request argument, such as an
// identifier with the wrong shape.
type InvalidArgumentError struct {
	Argument string
	Message  string
}

// NewInvalidArgumentError creates a new invalid argument error
func NewInvalidArgumentError(argument, message string) *InvalidArgumentError {
	return &InvalidArgumentError{
		Argument: argument,
		Message:  message,
	}
}

// Error implements the error interface
func (e *InvalidArgumentError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("invalid %s", e.Argument)
}

// GRPCStatus returns the gRPC status for this error
func (e *InvalidArgumentError) GRPCStatus() *status.Status {
	return status.New(codes.InvalidArgument, e.Error())
}

// NotFoundError represents a resource not found error
type NotFoundError struct {
	Resource string
	Message  string
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(resource, message string) *NotFoundError {
	return &NotFoundError{
		Resource: resource,
		Message:  message,
	}
}

// Error implements the error interface
func (e *NotFoundError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

// GRPCStatus returns the gRPC status for this error
func (e *NotFoundError) GRPCStatus() *status.Status {
	return status.New(codes.NotFound, e.Error())
}

// AlreadyExistsError represents a resource already exists error
type AlreadyExistsError struct {
	Resource string
	Message  string
}

// NewAlreadyExistsError creates a new already exists error
func NewAlreadyExistsError(resource, message string) *AlreadyExistsError {
	return &AlreadyExistsError{
		Resource: resource,
		Message:  message,
	}
}

// Error implements the error interface
func (e *AlreadyExistsError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("%s already exists", e.Resource)
}

// GRPCStatus returns the gRPC status for this error
func (e *AlreadyExistsError) GRPCStatus() *status.Status {
	return status.New(codes.AlreadyExists, e.Error())
}

// InternalError represents an internal server error with context.
// The wrapped cause is kept for logs and never sent to clients.
type InternalError struct {
	Message string
	Err     error
}

// NewInternalError creates a new internal error
func NewInternalError(message string, err error) *InternalError {
	return &InternalError{
		Message: message,
		Err:     err,
	}
}

// Error implements the error interface
func (e *InternalError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *InternalError) Unwrap() error {
	return e.Err
}

// GRPCStatus returns the gRPC status for this error
func (e *InternalError) GRPCStatus() *status.Status {
	return status.New(codes.Internal, e.Message)
}

// GRPCStatuser interface for errors that can provide gRPC status
type GRPCStatuser interface {
	GRPCStatus() *status.Status
}

// HTTPStatus maps an error to the HTTP status code reported to clients.
// Validation errors are 422; other typed errors follow their gRPC code;
// anything else is 500.
func HTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}

	var ve *ValidationError
	if stderrors.As(err, &ve) {
		return http.StatusUnprocessableEntity
	}

	var s GRPCStatuser
	if stderrors.As(err, &s) {
		return runtime.HTTPStatusFromCode(s.GRPCStatus().Code())
	}

	return http.StatusInternalServerError
}

// Kind returns a short machine-readable name for the error category.
func Kind(err error) string {
	switch HTTPStatus(err) {
	case http.StatusUnprocessableEntity:
		return "validation_error"
	case http.StatusBadRequest:
		return "invalid_argument"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusConflict:
		return "already_exists"
	default:
		return "internal_error"
	}
}

// PublicMessage returns the message that is safe to show to clients.
// Internal and untyped errors collapse to a generic text.
func PublicMessage(err error) string {
	if HTTPStatus(err) == http.StatusInternalServerError {
		return "An internal error occurred"
	}
	return err.Error()
}
