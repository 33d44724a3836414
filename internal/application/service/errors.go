package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/garyjia/exemption-tracker/internal/domain/event"
	"github.com/garyjia/exemption-tracker/internal/domain/taxation"
)

var (
	// ErrNotFound is returned when the addressed record does not exist
	ErrNotFound = errors.New("not found")

	// ErrValidation is matched by every *ValidationError
	ErrValidation = errors.New("validation failed")
)

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// EventPublisher publishes domain events after a change has been committed
type EventPublisher interface {
	DispatchAsync(ctx context.Context, evt *event.Event)
}

// FieldError is a failed check on a top-level input field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ItemErrors holds the failed checks of one line item, by position in the submitted table
type ItemErrors struct {
	Index  int                   `json:"index"`
	Errors []taxation.FieldError `json:"errors"`
}

// ValidationError reports every rejected field of a create or update call.
// Nothing is persisted when it is returned.
type ValidationError struct {
	Fields []FieldError `json:"fields,omitempty"`
	Items  []ItemErrors `json:"items,omitempty"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields)+len(e.Items))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	for _, it := range e.Items {
		for _, fe := range it.Errors {
			parts = append(parts, fmt.Sprintf("items[%d].%s: %s", it.Index, fe.Field, fe.Message))
		}
	}
	return fmt.Sprintf("%s: %s", ErrValidation, strings.Join(parts, "; "))
}

// Unwrap lets errors.Is match ErrValidation
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

func (e *ValidationError) addField(field, msg string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: msg})
}

func (e *ValidationError) empty() bool {
	return len(e.Fields) == 0 && len(e.Items) == 0
}

// orNil returns e as an error, or nil when no check failed
func (e *ValidationError) orNil() error {
	if e.empty() {
		return nil
	}
	return e
}

func notFound(kind string, id int64) error {
	return fmt.Errorf("%s %d: %w", kind, id, ErrNotFound)
}
