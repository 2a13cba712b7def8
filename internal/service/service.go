// Package service provides business logic for the application.
// Services are independent of HTTP: they take the authenticated identity and
// parsed input, and return domain values or sentinel errors.
package service

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/tasklist/tasklist/internal/metrics"
)

// Service errors.
var (
	ErrUsernameTaken      = errors.New("username already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTaskNotFound       = errors.New("task not found")
	ErrMissingField       = errors.New("missing required field")

	// ErrUnauthorized is the parent of every token rejection.
	ErrUnauthorized = errors.New("unauthorized")
	ErrMissingToken = fmt.Errorf("%w: missing bearer token", ErrUnauthorized)
	ErrInvalidToken = fmt.Errorf("%w: invalid bearer token", ErrUnauthorized)
)

func missingField(name string) error {
	return fmt.Errorf("%w: %s", ErrMissingField, name)
}

func defaultRecorder(recorder metrics.Recorder) metrics.Recorder {
	if recorder == nil {
		return metrics.NewNoop()
	}
	return recorder
}

func defaultLogger(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}

// observe records the store latency since start.
func observe(recorder metrics.Recorder, start time.Time) {
	recorder.ObserveStoreDuration(time.Since(start))
}
