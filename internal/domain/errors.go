package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Sentinels for classifying failures with errors.Is.
var (
	// ErrValidation marks user-recoverable input problems.
	ErrValidation = errors.New("validation failed")
	// ErrInternalTransform marks shape or numeric failures inside the pipeline.
	ErrInternalTransform = errors.New("internal transform error")
	// ErrBundleUnavailable marks a missing or malformed model bundle.
	ErrBundleUnavailable = errors.New("model bundle unavailable")
	// ErrBundleNotFound is the missing-file case; the loader wraps it in a BundleError.
	ErrBundleNotFound = errors.New("model artifact not found; run training pipeline first")
)

// Error codes returned to API and tool clients
const (
	ErrInvalidInput      = "INVALID_INPUT"
	ErrValidationCode    = "VALIDATION_ERROR"
	ErrUnknownCategory   = "UNKNOWN_CATEGORY"
	ErrInternalTransCode = "INTERNAL_TRANSFORM_ERROR"
	ErrModelUnavailable  = "MODEL_UNAVAILABLE"
	ErrRateLimit         = "RATE_LIMIT_EXCEEDED"
	ErrInternalServer    = "INTERNAL_SERVER_ERROR"
)

// APIError represents a standardized error response
type APIError struct {
	Code      string    `json:"code"`
	Message   string    `json:"message"`
	Details   string    `json:"details,omitempty"`
	Field     string    `json:"field,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewAPIError creates a new APIError with timestamp
func NewAPIError(code, message, details, requestID string) *APIError {
	return &APIError{
		Code:      code,
		Message:   message,
		Details:   details,
		Timestamp: time.Now().UTC(),
		RequestID: requestID,
	}
}

// ValidationError represents input validation errors
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value"`
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

// Is reports ValidationError as an ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string, value interface{}) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
		Value:   value,
	}
}

// UnknownCategoryError is returned when a categorical value was not seen when the
// encoders were fitted.
type UnknownCategoryError struct {
	Field string   `json:"field"`
	Value string   `json:"value"`
	Known []string `json:"known"`
}

// Error implements the error interface
func (e *UnknownCategoryError) Error() string {
	return fmt.Sprintf("unknown %s %q (known: %s)", e.Field, e.Value, strings.Join(e.Known, ", "))
}

// Is reports UnknownCategoryError as an ErrValidation.
func (e *UnknownCategoryError) Is(target error) bool {
	return target == ErrValidation
}

// UserMessage is the short prompt shown to the operator.
func (e *UnknownCategoryError) UserMessage() string {
	return fmt.Sprintf("Error: Please enter a valid %s.", humanFieldName(e.Field))
}

// NewUnknownCategoryError creates an UnknownCategoryError holding a copy of the
// known labels.
func NewUnknownCategoryError(field, value string, known []string) *UnknownCategoryError {
	return &UnknownCategoryError{
		Field: field,
		Value: value,
		Known: append([]string(nil), known...),
	}
}

// InternalTransformError reports a failure that is not caused by user input, such as
// a width mismatch between the aligned record and the scaler.
type InternalTransformError struct {
	Stage string
	Err   error
}

// Error implements the error interface
func (e *InternalTransformError) Error() string {
	return fmt.Sprintf("internal transform error at %s: %v", e.Stage, e.Err)
}

// Unwrap returns the underlying cause.
func (e *InternalTransformError) Unwrap() error {
	return e.Err
}

// Is reports InternalTransformError as an ErrInternalTransform.
func (e *InternalTransformError) Is(target error) bool {
	return target == ErrInternalTransform
}

// NewInternalTransformError wraps err as a failure of the named pipeline stage.
func NewInternalTransformError(stage string, err error) *InternalTransformError {
	return &InternalTransformError{Stage: stage, Err: err}
}

// BundleError is the fatal startup failure raised when the model bundle cannot be
// loaded or is internally inconsistent.
type BundleError struct {
	Path string
	Err  error
}

// Error implements the error interface
func (e *BundleError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("model bundle: %v", e.Err)
	}
	return fmt.Sprintf("model bundle %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying cause.
func (e *BundleError) Unwrap() error {
	return e.Err
}

// Is reports BundleError as an ErrBundleUnavailable.
func (e *BundleError) Is(target error) bool {
	return target == ErrBundleUnavailable
}

// NewBundleError creates a BundleError for the given path.
func NewBundleError(path string, err error) *BundleError {
	return &BundleError{Path: path, Err: err}
}

// IsValidationError reports whether err is a user-recoverable input problem.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrValidation)
}

// ErrorCode maps an error onto the API error code vocabulary.
func ErrorCode(err error) string {
	var unknown *UnknownCategoryError
	switch {
	case errors.As(err, &unknown):
		return ErrUnknownCategory
	case errors.Is(err, ErrValidation):
		return ErrValidationCode
	case errors.Is(err, ErrInternalTransform):
		return ErrInternalTransCode
	case errors.Is(err, ErrBundleUnavailable):
		return ErrModelUnavailable
	default:
		return ErrInternalServer
	}
}

// ErrorField returns the offending input field of a validation error, if any.
func ErrorField(err error) string {
	var unknown *UnknownCategoryError
	if errors.As(err, &unknown) {
		return unknown.Field
	}
	var invalid *ValidationError
	if errors.As(err, &invalid) {
		return invalid.Field
	}
	return ""
}

func humanFieldName(field string) string {
	return strings.ToLower(strings.ReplaceAll(field, "_", " "))
}
