package errors

import (
	"errors"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeInvalidElements, "test message: %s", "value")

	if err.Code != ErrCodeInvalidElements {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeInvalidElements)
	}

	if err.Message != "test message: value" {
		t.Errorf("Message = %v, want %v", err.Message, "test message: value")
	}

	expected := "INVALID_ELEMENTS: test message: value"
	if err.Error() != expected {
		t.Errorf("Error() = %v, want %v", err.Error(), expected)
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("underlying error")
	err := Wrap(ErrCodeStoreFailed, cause, "failed to persist")

	if err.Code != ErrCodeStoreFailed {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeStoreFailed)
	}

	if err.Cause != cause {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}

	// Test Unwrap
	unwrapped := errors.Unwrap(err)
	if unwrapped != cause {
		t.Errorf("Unwrap() = %v, want %v", unwrapped, cause)
	}

	// Test errors.Is with wrapped error
	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false, want true")
	}
}

func TestIs(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		code     Code
		expected bool
	}{
		{
			name:     "matching code",
			err:      New(ErrCodeDecodeFailed, "test"),
			code:     ErrCodeDecodeFailed,
			expected: true,
		},
		{
			name:     "non-matching code",
			err:      New(ErrCodeDecodeFailed, "test"),
			code:     ErrCodeStoreFailed,
			expected: false,
		},
		{
			name:     "wrapped matching code",
			err:      Wrap(ErrCodeDiscoveryFailed, errors.New("cause"), "test"),
			code:     ErrCodeDiscoveryFailed,
			expected: true,
		},
		{
			name:     "plain error",
			err:      errors.New("plain"),
			code:     ErrCodeInternal,
			expected: false,
		},
		{
			name:     "nil error",
			err:      nil,
			code:     ErrCodeInternal,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.code); got != tt.expected {
				t.Errorf("Is() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestGetCode(t *testing.T) {
	if code := GetCode(New(ErrCodeNotFound, "missing")); code != ErrCodeNotFound {
		t.Errorf("GetCode = %v, want %v", code, ErrCodeNotFound)
	}
	if code := GetCode(errors.New("plain")); code != "" {
		t.Errorf("GetCode for plain error = %v, want empty", code)
	}
}

func TestUserMessage(t *testing.T) {
	err := New(ErrCodeNoApplicableExtension, "no extension for pkg.Foo")
	if msg := UserMessage(err); msg != "no extension for pkg.Foo" {
		t.Errorf("UserMessage = %q", msg)
	}
	plain := errors.New("plain failure")
	if msg := UserMessage(plain); msg != "plain failure" {
		t.Errorf("UserMessage for plain error = %q", msg)
	}
}
