package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrCollaborator  = errors.New("collaborator unavailable")
	ErrParse         = errors.New("parse failure")
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
	ErrNotFound      = errors.New("not found")
	ErrTimeout       = errors.New("timeout")
	ErrTransient     = errors.New("transient failure")
)

// Wrap builds an error message that includes component context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Degradable reports whether an error belongs to the class the pipeline
// absorbs by switching to the deterministic fallback path (LLM unavailable,
// timed out, or its reply unusable). Everything else is an infrastructure
// failure that surfaces on the session.
func Degradable(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrCollaborator) ||
		errors.Is(err, ErrParse) ||
		errors.Is(err, ErrTimeout)
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
