package domain

import (
	"errors"
	"strings"
)

// ErrNoHeader is returned when an export ends before its column header row.
var ErrNoHeader = errors.New("column header row not found")

// ValidationError reports required columns absent from an export.
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return "required columns absent: " + strings.Join(e.Missing, ", ")
}

// RenderError reports why a wind rose could not be produced. No partial
// image accompanies it.
type RenderError struct {
	Reason string
	Err    error
}

func (e *RenderError) Error() string {
	if e.Err == nil {
		return e.Reason
	}
	return e.Reason + ": " + e.Err.Error()
}

func (e *RenderError) Unwrap() error {
	return e.Err
}
