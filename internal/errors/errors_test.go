package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestErrorFormat(t *testing.T) {
	err := New(ParseError, "cannot parse file")
	if !strings.Contains(err.Error(), "PARSE_ERROR") {
		t.Errorf("Error() = %q, want code in message", err.Error())
	}
	if !strings.Contains(err.Error(), "cannot parse file") {
		t.Errorf("Error() = %q, want message text", err.Error())
	}
}

func TestWrapAndUnwrap(t *testing.T) {
	cause := fmt.Errorf("underlying")
	err := Wrap(ValidationFailure, "candidate rejected", cause)

	if !stderrors.Is(err, cause) {
		t.Error("wrapped error should match cause via errors.Is")
	}
	if !strings.Contains(err.Error(), "underlying") {
		t.Errorf("Error() = %q, want cause text", err.Error())
	}
}

func TestCodeOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorCode
	}{
		{"advisor error", New(WriteConflict, "locked"), WriteConflict},
		{"wrapped advisor error", fmt.Errorf("outer: %w", New(Timeout, "slow")), Timeout},
		{"plain error", fmt.Errorf("plain"), InternalError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CodeOf(tt.err); got != tt.want {
				t.Errorf("CodeOf() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIsRetryable(t *testing.T) {
	if !IsRetryable(New(WriteConflict, "locked")) {
		t.Error("WriteConflict should be retryable")
	}
	if !IsRetryable(New(Timeout, "slow backend")) {
		t.Error("Timeout should be retryable")
	}
	if IsRetryable(New(ParseError, "bad file")) {
		t.Error("ParseError should not be retryable")
	}
}

func TestWithDetails(t *testing.T) {
	err := New(FusionError, "value out of range").WithDetails(map[string]float64{"maintainability": 250})
	if err.Details == nil {
		t.Error("Details should be set")
	}
}
