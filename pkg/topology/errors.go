package topology

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/braunma/netbox-topology/internal/constants"
)

// ErrNotFound is wrapped by every lookup that misses
var ErrNotFound = errors.New("not found")

// ValidationError carries field-scoped messages. Messages that are not bound to a single
// field are stored under constants.NonFieldErrors.
type ValidationError struct {
	Fields map[string][]string `json:"errors"`
}

// NewValidationError creates an empty validation error
func NewValidationError() *ValidationError {
	return &ValidationError{Fields: make(map[string][]string)}
}

// invalid builds a validation error with a single message
func invalid(field, format string, args ...any) *ValidationError {
	verr := NewValidationError()
	verr.Add(field, format, args...)
	return verr
}

// Add appends a message to the given field; an empty field means a non-field error
func (e *ValidationError) Add(field, format string, args ...any) {
	if field == "" {
		field = constants.NonFieldErrors
	}
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	e.Fields[field] = append(e.Fields[field], fmt.Sprintf(format, args...))
}

// Merge copies all messages of other into e
func (e *ValidationError) Merge(other error) {
	var verr *ValidationError
	if !errors.As(other, &verr) || verr == nil {
		if other != nil {
			e.Add(constants.NonFieldErrors, "%s", other.Error())
		}
		return
	}
	for field, msgs := range verr.Fields {
		for _, msg := range msgs {
			e.Add(field, "%s", msg)
		}
	}
}

// HasErrors reports whether at least one message was recorded
func (e *ValidationError) HasErrors() bool {
	return e != nil && len(e.Fields) > 0
}

// Err returns e as an error, or nil when nothing was recorded
func (e *ValidationError) Err() error {
	if !e.HasErrors() {
		return nil
	}
	return e
}

// FieldNames returns the fields carrying messages, sorted
func (e *ValidationError) FieldNames() []string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Messages returns every message, ordered by field
func (e *ValidationError) Messages() []string {
	var msgs []string
	for _, name := range e.FieldNames() {
		msgs = append(msgs, e.Fields[name]...)
	}
	return msgs
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, name := range e.FieldNames() {
		msgs := strings.Join(e.Fields[name], "; ")
		if name == constants.NonFieldErrors {
			parts = append(parts, msgs)
			continue
		}
		parts = append(parts, name+": "+msgs)
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

// AsValidationError unwraps err into a validation error
func AsValidationError(err error) (*ValidationError, bool) {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr, true
	}
	return nil, false
}

func notFound(typ string, id uint) error {
	return fmt.Errorf("%s %d: %w", typ, id, ErrNotFound)
}
