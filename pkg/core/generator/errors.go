package generator

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidConfig is returned before generation starts when the configuration is rejected
	ErrInvalidConfig = errors.New("invalid configuration")
	// ErrInvariant is returned when generated data breaks a consistency rule
	ErrInvariant = errors.New("dataset invariant violated")
	// ErrCustomColumn is returned by AddCustomColumn
	ErrCustomColumn = errors.New("invalid custom column")
)

// ConfigError identifies the offending configuration field
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ConfigError) Unwrap() error {
	return ErrInvalidConfig
}

func configErrorf(field, format string, args ...any) error {
	return &ConfigError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// Violation is a single broken dataset invariant
type Violation struct {
	Rule          string
	AppointmentID int
	Detail        string
}

func (v Violation) String() string {
	if v.AppointmentID > 0 {
		return fmt.Sprintf("%s (appointment %d): %s", v.Rule, v.AppointmentID, v.Detail)
	}
	return fmt.Sprintf("%s: %s", v.Rule, v.Detail)
}

// InvariantError aborts a run whose output is inconsistent
type InvariantError struct {
	Violations []Violation
}

func (e *InvariantError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for i, v := range e.Violations {
		if i == 5 {
			parts = append(parts, fmt.Sprintf("... and %d more", len(e.Violations)-5))
			break
		}
		parts = append(parts, v.String())
	}
	return fmt.Sprintf("%d invariant violations: %s", len(e.Violations), strings.Join(parts, "; "))
}

func (e *InvariantError) Unwrap() error {
	return ErrInvariant
}

func invariantError(rule string, appointmentID int, format string, args ...any) error {
	return &InvariantError{Violations: []Violation{{
		Rule:          rule,
		AppointmentID: appointmentID,
		Detail:        fmt.Sprintf(format, args...),
	}}}
}
