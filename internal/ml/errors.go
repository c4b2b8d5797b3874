package ml

import (
	"errors"
	"fmt"
	"strings"

	"carprice/internal/car"
)

// ErrUntrained is returned by Predict and Save before a model has been
// trained or loaded.
var ErrUntrained = errors.New("model not trained")

// ValidationError reports request fields that are absent or unusable.
// Field names are the request keys (e.g. "engineSize").
type ValidationError struct {
	Missing []string
	Invalid []car.Problem
}

func (e *ValidationError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing fields: "+strings.Join(e.Missing, ", "))
	}
	for _, p := range e.Invalid {
		parts = append(parts, fmt.Sprintf("%s %s", p.Field, p.Reason))
	}
	if len(parts) == 0 {
		return "invalid input"
	}
	return strings.Join(parts, "; ")
}

// Fields returns every offending field name, missing ones first.
func (e *ValidationError) Fields() []string {
	out := make([]string, 0, len(e.Missing)+len(e.Invalid))
	out = append(out, e.Missing...)
	for _, p := range e.Invalid {
		out = append(out, p.Field)
	}
	return out
}

// TrainingError wraps the failure of one training stage. No state is
// published when it is returned.
type TrainingError struct {
	Stage string
	Err   error
}

func (e *TrainingError) Error() string {
	return fmt.Sprintf("training failed at %s: %v", e.Stage, e.Err)
}

func (e *TrainingError) Unwrap() error { return e.Err }

// DeserializationError reports a snapshot that is malformed or lacks a
// mandatory section.
type DeserializationError struct {
	Reason string
	Err    error
}

func (e *DeserializationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid model snapshot: %s: %v", e.Reason, e.Err)
	}
	return "invalid model snapshot: " + e.Reason
}

func (e *DeserializationError) Unwrap() error { return e.Err }
