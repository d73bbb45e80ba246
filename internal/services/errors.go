package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrValidation    = errors.New("validation error")
	ErrQuota         = errors.New("insufficient balance")
	ErrNotFound      = errors.New("not found")
	ErrProvider      = errors.New("provider error")
	ErrConfiguration = errors.New("configuration error")
	ErrTransient     = errors.New("transient failure")
)

// Wrap builds an error message that includes flow context while tagging it with
// the provided marker for later outcome classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, flow, operation, message string, err error) error {
	detail := buildDetail(flow, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Retryable reports whether an error is worth retrying without user action.
// Validation and quota failures require the user to change something first;
// provider rejections are final for the attempt.
func Retryable(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, ErrValidation), errors.Is(err, ErrQuota),
		errors.Is(err, ErrConfiguration), errors.Is(err, ErrProvider):
		return false
	default:
		return true
	}
}

func buildDetail(flow, operation, message string) string {
	parts := make([]string, 0, 3)
	if flow = strings.TrimSpace(flow); flow != "" {
		parts = append(parts, flow)
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
