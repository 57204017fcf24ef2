package database

import "errors"

var (
	// ErrNotFound is returned when a task does not exist for the given owner.
	ErrNotFound = errors.New("task not found")

	// ErrValidation is returned for invalid input, e.g. an empty task name.
	ErrValidation = errors.New("validation failed")

	// ErrFieldNotAllowed is returned when UpdateField is asked to touch a
	// column outside the closed updatable set. Free-form field names are a
	// hard error, never a pass-through.
	ErrFieldNotAllowed = errors.New("field not updatable")
)
