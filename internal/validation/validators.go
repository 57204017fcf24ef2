package validation

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	"taskbot/internal/models"
)

var (
	// Validate is a shared validator instance
	Validate *validator.Validate
)

func init() {
	Validate = validator.New()

	// Register custom validators for enums and dates.
	// These should never fail in normal operation, but panic loudly if they do.
	if err := Validate.RegisterValidation("task_status", validateTaskStatus); err != nil {
		panic(fmt.Sprintf("failed to register task_status validator: %v", err))
	}
	if err := Validate.RegisterValidation("calendar_date", validateCalendarDate); err != nil {
		panic(fmt.Sprintf("failed to register calendar_date validator: %v", err))
	}
}

// validateTaskStatus validates that a string is a valid TaskStatus enum value
func validateTaskStatus(fl validator.FieldLevel) bool {
	switch models.TaskStatus(fl.Field().String()) {
	case models.TaskStatusPending, models.TaskStatusDone:
		return true
	default:
		return false
	}
}

// validateCalendarDate validates that a string is a real YYYY-MM-DD date
func validateCalendarDate(fl validator.FieldLevel) bool {
	_, err := models.ParseDeadline(fl.Field().String())
	return err == nil
}

// SanitizeText sanitizes chat input by trimming whitespace and removing
// control characters
func SanitizeText(text string) string {
	text = strings.TrimSpace(text)

	var sanitized strings.Builder
	for _, r := range text {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			continue
		}
		sanitized.WriteRune(r)
	}

	return sanitized.String()
}

// ValidateTaskStatus validates a TaskStatus string value
func ValidateTaskStatus(value string) error {
	switch models.TaskStatus(value) {
	case models.TaskStatusPending, models.TaskStatusDone:
		return nil
	default:
		return fmt.Errorf("invalid status: %s (must be 'pending' or 'done')", value)
	}
}

// ValidateDeadline validates a YYYY-MM-DD deadline string
func ValidateDeadline(value string) error {
	if _, err := models.ParseDeadline(value); err != nil {
		return fmt.Errorf("invalid deadline: %s (expected YYYY-MM-DD)", value)
	}
	return nil
}
