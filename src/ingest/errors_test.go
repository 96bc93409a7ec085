package ingest

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"
)

func TestWrapError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		message string
	}{
		{"missing file", fmt.Errorf("open x: %w", os.ErrNotExist), "Crash report not found"},
		{"permission", fmt.Errorf("open x: %w", os.ErrPermission), "Crash report is not readable"},
		{"empty", fmt.Errorf("x: %w", ErrEmptyReport), "Crash report is empty"},
		{"not a crash report", ErrNotCrashReport, "Input does not look like a JVM fatal error log"},
		{"too large", ErrTooLarge, "Crash report is too large"},
		{"unreadable", fmt.Errorf("%w: bad header", ErrUnreadable), "Crash report could not be read"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := WrapError(tt.err)
			var ue *UserError
			if !errors.As(got, &ue) {
				t.Fatalf("WrapError(%v) = %T, expected *UserError", tt.err, got)
			}
			if ue.Message != tt.message {
				t.Errorf("Message = %q, expected %q", ue.Message, tt.message)
			}
			if !errors.Is(got, tt.err) {
				t.Errorf("WrapError(%v) does not unwrap to the original error", tt.err)
			}
		})
	}
}

func TestWrapErrorPassThrough(t *testing.T) {
	if WrapError(nil) != nil {
		t.Error("WrapError(nil) should be nil")
	}
	plain := errors.New("boom")
	if got := WrapError(plain); got != plain {
		t.Errorf("WrapError(%v) = %v, expected the same error", plain, got)
	}
	ue := &UserError{Message: "already wrapped"}
	if got := WrapError(ue); got != error(ue) {
		t.Errorf("WrapError(UserError) = %v, expected it unchanged", got)
	}
}

func TestUserErrorFormat(t *testing.T) {
	err := &UserError{Message: "Crash report is empty", Hint: "Look for a newer file.", Err: ErrEmptyReport}
	got := err.Error()
	for _, want := range []string{"Crash report is empty", "\n\nHint: Look for a newer file.", "\n\nDetails: empty crash report"} {
		if !strings.Contains(got, want) {
			t.Errorf("Error() = %q, missing %q", got, want)
		}
	}
}
