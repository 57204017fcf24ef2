package database

import (
	"testing"
)

func TestUpdatableColumn(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		field   UpdatableField
		want    string
		allowed bool
	}{
		{name: "status", field: FieldStatus, want: "status", allowed: true},
		{name: "last notified", field: FieldLastNotifiedAt, want: "last_notified_at", allowed: true},
		{name: "immutable column", field: UpdatableField("name"), allowed: false},
		{name: "immutable owner", field: UpdatableField("owner_id"), allowed: false},
		{name: "empty", field: UpdatableField(""), allowed: false},
		{name: "injection shaped", field: UpdatableField("status = 'done'; DROP TABLE tasks; --"), allowed: false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			column, ok := updatableColumn(tt.field)
			if ok != tt.allowed {
				t.Fatalf("updatableColumn(%q) ok = %v, want %v", string(tt.field), ok, tt.allowed)
			}
			if ok && column != tt.want {
				t.Errorf("updatableColumn(%q) = %q, want %q", string(tt.field), column, tt.want)
			}
		})
	}
}
