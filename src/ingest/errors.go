package ingest

import (
	"errors"
	"fmt"
	"os"
)

var (
	ErrEmptyReport    = errors.New("empty crash report")
	ErrNotCrashReport = errors.New("not a JVM fatal error log")
	ErrUnreadable     = errors.New("unreadable crash report")
	ErrTooLarge       = errors.New("crash report too large")
)

// UserError wraps errors with user-friendly messages
type UserError struct {
	Message string
	Hint    string
	Err     error
}

func (e *UserError) Error() string {
	msg := e.Message
	if e.Hint != "" {
		msg += "\n\nHint: " + e.Hint
	}
	if e.Err != nil {
		msg += fmt.Sprintf("\n\nDetails: %v", e.Err)
	}
	return msg
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// WrapError converts load errors to user-friendly messages
func WrapError(err error) error {
	if err == nil {
		return nil
	}

	var ue *UserError
	if errors.As(err, &ue) {
		return err
	}

	switch {
	case errors.Is(err, os.ErrNotExist):
		return &UserError{
			Message: "Crash report not found",
			Hint:    "Pass the path of an hs_err_pid<pid>.log file, or - to read standard input.",
			Err:     err,
		}
	case errors.Is(err, os.ErrPermission):
		return &UserError{
			Message: "Crash report is not readable",
			Hint:    "Check the file permissions. Crash logs written by a service account are often mode 0600.",
			Err:     err,
		}
	case errors.Is(err, ErrEmptyReport):
		return &UserError{
			Message: "Crash report is empty",
			Hint:    "The JVM may have been killed while writing the log. Look for a newer hs_err file.",
			Err:     err,
		}
	case errors.Is(err, ErrNotCrashReport):
		return &UserError{
			Message: "Input does not look like a JVM fatal error log",
			Hint:    "Expected a file starting with \"# A fatal error has been detected by the Java Runtime Environment\".",
			Err:     err,
		}
	case errors.Is(err, ErrTooLarge):
		return &UserError{
			Message: "Crash report is too large",
			Hint:    fmt.Sprintf("Reports are limited to %d MiB.", MaxReportBytes>>20),
			Err:     err,
		}
	case errors.Is(err, ErrUnreadable):
		return &UserError{
			Message: "Crash report could not be read",
			Hint:    "Plain text and gzip-compressed logs are supported.",
			Err:     err,
		}
	}

	return err
}
