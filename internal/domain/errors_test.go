package domain

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestAPIError(t *testing.T) {
	tests := []struct {
		name      string
		code      string
		message   string
		details   string
		requestID string
	}{
		{
			name:      "Unknown category",
			code:      ErrUnknownCategory,
			message:   "Please enter a valid gender.",
			details:   `unknown Gender "Unknown" (known: Female, Male)`,
			requestID: "req-123",
		},
		{
			name:      "Internal transform",
			code:      ErrInternalTransCode,
			message:   "Assessment failed",
			details:   "scaler expects 10 features, got 9",
			requestID: "req-456",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewAPIError(tt.code, tt.message, tt.details, tt.requestID)

			if err.Code != tt.code {
				t.Errorf("Expected code %s, got %s", tt.code, err.Code)
			}
			if err.Message != tt.message {
				t.Errorf("Expected message %s, got %s", tt.message, err.Message)
			}
			if err.Details != tt.details {
				t.Errorf("Expected details %s, got %s", tt.details, err.Details)
			}
			if err.RequestID != tt.requestID {
				t.Errorf("Expected requestID %s, got %s", tt.requestID, err.RequestID)
			}

			// Check that timestamp is recent (within last minute)
			if time.Since(err.Timestamp) > time.Minute {
				t.Errorf("Timestamp should be recent, got %v", err.Timestamp)
			}

			expectedError := tt.code + ": " + tt.message
			if err.Error() != expectedError {
				t.Errorf("Expected error string %s, got %s", expectedError, err.Error())
			}
		})
	}
}

func TestValidationError(t *testing.T) {
	tests := []struct {
		name    string
		field   string
		message string
		value   interface{}
	}{
		{
			name:    "Age out of range",
			field:   FieldAge,
			message: "must be between 1 and 110",
			value:   0,
		},
		{
			name:    "Missing treatment",
			field:   FieldTreatment,
			message: "is required",
			value:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewValidationError(tt.field, tt.message, tt.value)

			if err.Field != tt.field {
				t.Errorf("Expected field %s, got %s", tt.field, err.Field)
			}
			if err.Value != tt.value {
				t.Errorf("Expected value %v, got %v", tt.value, err.Value)
			}

			expectedError := "validation error for field '" + tt.field + "': " + tt.message
			if err.Error() != expectedError {
				t.Errorf("Expected error string %s, got %s", expectedError, err.Error())
			}
			if !errors.Is(err, ErrValidation) {
				t.Error("ValidationError should match ErrValidation")
			}
		})
	}
}

func TestUnknownCategoryError(t *testing.T) {
	known := []string{"Female", "Male"}
	err := NewUnknownCategoryError(FieldGender, "Unknown", known)
	known[0] = "mutated"

	if err.Known[0] != "Female" {
		t.Errorf("Known labels should be copied, got %v", err.Known)
	}
	if !IsValidationError(err) {
		t.Error("UnknownCategoryError should be a validation error")
	}
	if got := err.UserMessage(); got != "Error: Please enter a valid gender." {
		t.Errorf("Unexpected user message %q", got)
	}

	wrapped := fmt.Errorf("encoding record: %w", err)
	if ErrorCode(wrapped) != ErrUnknownCategory {
		t.Errorf("Expected code %s, got %s", ErrUnknownCategory, ErrorCode(wrapped))
	}
	if ErrorField(wrapped) != FieldGender {
		t.Errorf("Expected field %s, got %s", FieldGender, ErrorField(wrapped))
	}
}

func TestInternalTransformError(t *testing.T) {
	cause := errors.New("scaler expects 10 features, got 9")
	err := fmt.Errorf("assess: %w", NewInternalTransformError("scale", cause))

	if !errors.Is(err, ErrInternalTransform) {
		t.Error("Expected ErrInternalTransform")
	}
	if !errors.Is(err, cause) {
		t.Error("Expected the cause to be reachable through Unwrap")
	}
	if IsValidationError(err) {
		t.Error("Internal transform errors are not validation errors")
	}
	if ErrorCode(err) != ErrInternalTransCode {
		t.Errorf("Expected code %s, got %s", ErrInternalTransCode, ErrorCode(err))
	}
}

func TestBundleError(t *testing.T) {
	err := NewBundleError("readmission_model.json", ErrBundleNotFound)

	if !errors.Is(err, ErrBundleUnavailable) {
		t.Error("Expected ErrBundleUnavailable")
	}
	if !errors.Is(err, ErrBundleNotFound) {
		t.Error("Expected ErrBundleNotFound")
	}
	expected := "model bundle readmission_model.json: model artifact not found; run training pipeline first"
	if err.Error() != expected {
		t.Errorf("Expected %q, got %q", expected, err.Error())
	}
	if ErrorCode(err) != ErrModelUnavailable {
		t.Errorf("Expected code %s, got %s", ErrModelUnavailable, ErrorCode(err))
	}
}

func TestErrorCode_Default(t *testing.T) {
	if code := ErrorCode(errors.New("boom")); code != ErrInternalServer {
		t.Errorf("Expected %s, got %s", ErrInternalServer, code)
	}
	if field := ErrorField(errors.New("boom")); field != "" {
		t.Errorf("Expected no field, got %s", field)
	}
}
