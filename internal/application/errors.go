package application

import (
	"errors"
	"maps"
	"slices"
	"strings"
)

var (
	ErrUnauthorized  = errors.New("application: unauthorized")
	ErrNotFound      = errors.New("application: not found")
	ErrAlreadyExists = errors.New("application: already exists")
)

// ValidationError maps each rejected reservation field (room_id, date,
// start_time, end_time, time, title, organizer) to a message for the caller.
type ValidationError struct {
	FieldErrors map[string]string
}

func (v *ValidationError) Error() string {
	if v == nil {
		return ""
	}
	fields := v.Fields()
	if len(fields) == 0 {
		return "invalid reservation"
	}
	return "invalid reservation: " + strings.Join(fields, ", ")
}

// Fields returns the rejected field names in sorted order.
func (v *ValidationError) Fields() []string {
	if v == nil {
		return nil
	}
	return slices.Sorted(maps.Keys(v.FieldErrors))
}

func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// add keeps the first message reported for a field.
func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	if _, seen := v.FieldErrors[field]; !seen {
		v.FieldErrors[field] = message
	}
}
