package validation

import (
	"testing"
)

func TestSanitizeText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "trims whitespace", input: "  buy milk  ", want: "buy milk"},
		{name: "strips control chars", input: "buy\x00 milk\x07", want: "buy milk"},
		{name: "keeps newlines and tabs", input: "line one\nline\ttwo", want: "line one\nline\ttwo"},
		{name: "empty", input: "   ", want: ""},
		{name: "unicode untouched", input: "café ☕", want: "café ☕"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := SanitizeText(tt.input); got != tt.want {
				t.Errorf("SanitizeText(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestValidateTaskStatus(t *testing.T) {
	t.Parallel()

	for _, valid := range []string{"pending", "done"} {
		if err := ValidateTaskStatus(valid); err != nil {
			t.Errorf("ValidateTaskStatus(%q) = %v, want nil", valid, err)
		}
	}
	for _, invalid := range []string{"", "Pending", "completed", "in_progress"} {
		if err := ValidateTaskStatus(invalid); err == nil {
			t.Errorf("ValidateTaskStatus(%q) = nil, want error", invalid)
		}
	}
}

func TestValidateDeadline(t *testing.T) {
	t.Parallel()

	if err := ValidateDeadline("2024-06-15"); err != nil {
		t.Errorf("ValidateDeadline(valid) = %v", err)
	}
	for _, invalid := range []string{"2024-02-30", "15.06.2024", "soon", ""} {
		if err := ValidateDeadline(invalid); err == nil {
			t.Errorf("ValidateDeadline(%q) = nil, want error", invalid)
		}
	}
}

func TestCustomValidatorsRegistered(t *testing.T) {
	t.Parallel()

	type probe struct {
		Status   string `validate:"task_status"`
		Deadline string `validate:"calendar_date"`
	}

	if err := Validate.Struct(probe{Status: "pending", Deadline: "2024-06-15"}); err != nil {
		t.Errorf("valid probe failed: %v", err)
	}
	if err := Validate.Struct(probe{Status: "bogus", Deadline: "2024-06-15"}); err == nil {
		t.Error("invalid status should fail")
	}
	if err := Validate.Struct(probe{Status: "done", Deadline: "2024-02-30"}); err == nil {
		t.Error("impossible date should fail")
	}
}
