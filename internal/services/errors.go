package services

import (
	stderrors "errors"
	"sort"
	"strings"
)

// ErrNotFound is returned when a requested record does not exist
var ErrNotFound = stderrors.New("not found")

// ValidationError carries per field messages for rejected input
type ValidationError struct {
	Fields map[string][]string `json:"fields"`
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+strings.Join(e.Fields[k], ", "))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Add records a message for field
func (e *ValidationError) Add(field, message string) {
	if e.Fields == nil {
		e.Fields = map[string][]string{}
	}
	e.Fields[field] = append(e.Fields[field], message)
}

// OrNil returns e when a message was recorded
func (e *ValidationError) OrNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

func fieldError(field, message string) error {
	v := &ValidationError{}
	v.Add(field, message)
	return v
}
