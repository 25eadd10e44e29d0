package leadform

import (
	"errors"
	"strings"
)

// ErrSpamDetected is returned when the honeypot field carries a value.
var ErrSpamDetected = errors.New("leadform: spam detected")

// FieldError describes one rejected field. Messages describe the submitter's
// own input and are safe to return to them.
type FieldError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

func (e FieldError) Error() string {
	return e.Path + ": " + e.Message
}

// Errors collects every field failure of a submission.
type Errors []FieldError

func (e Errors) Error() string {
	parts := make([]string, 0, len(e))
	for _, fe := range e {
		parts = append(parts, fe.Error())
	}
	return "leadform: invalid submission: " + strings.Join(parts, "; ")
}

// Has reports whether any failure refers to path.
func (e Errors) Has(path string) bool {
	for _, fe := range e {
		if fe.Path == path {
			return true
		}
	}
	return false
}
