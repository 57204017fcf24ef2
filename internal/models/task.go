package models

import (
	"time"
)

// TaskStatus represents the status of a task
type TaskStatus string

const (
	TaskStatusPending TaskStatus = "pending"
	TaskStatusDone    TaskStatus = "done"
)

// DeadlineLayout is the wire format for deadlines as typed by users.
const DeadlineLayout = "2006-01-02"

// humanDateLayout is how deadlines are rendered back to users.
const humanDateLayout = "02.01.2006"

// Task represents a single task owned by one chat user. Name, description and
// deadline are fixed at creation; only Status and LastNotifiedAt are mutable.
type Task struct {
	ID             int64      `json:"id"`
	OwnerID        int64      `json:"owner_id"`
	Name           string     `json:"name"`
	Description    string     `json:"description,omitempty"`
	Status         TaskStatus `json:"status"`
	Deadline       *time.Time `json:"deadline,omitempty"`
	Category       string     `json:"category,omitempty"`
	Priority       string     `json:"priority,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	LastNotifiedAt *time.Time `json:"last_notified_at,omitempty"`
}

// ParseDeadline parses a strict YYYY-MM-DD calendar date. Impossible dates
// such as "2024-02-30" are rejected, not normalized.
func ParseDeadline(s string) (time.Time, error) {
	return time.Parse(DeadlineLayout, s)
}

// DeadlineString returns the deadline in YYYY-MM-DD form, or "" if unset.
func (t *Task) DeadlineString() string {
	if t.Deadline == nil {
		return ""
	}
	return t.Deadline.Format(DeadlineLayout)
}

// HumanDeadline returns the deadline as DD.MM.YYYY for chat replies,
// or a dash if unset.
func (t *Task) HumanDeadline() string {
	if t.Deadline == nil {
		return "—"
	}
	return t.Deadline.Format(humanDateLayout)
}

// HumanDate re-renders a YYYY-MM-DD string as DD.MM.YYYY. Unparsable input
// is returned as-is.
func HumanDate(s string) string {
	d, err := ParseDeadline(s)
	if err != nil {
		return s
	}
	return d.Format(humanDateLayout)
}

// DaysUntilDeadline returns the number of whole days between now's calendar
// date and the deadline, negative when overdue. The second return is false
// when the task has no deadline. Comparison is date-only: time of day and
// time zones are deliberately ignored.
func (t *Task) DaysUntilDeadline(now time.Time) (int, bool) {
	if t.Deadline == nil {
		return 0, false
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	deadline := time.Date(t.Deadline.Year(), t.Deadline.Month(), t.Deadline.Day(), 0, 0, 0, 0, now.Location())
	return int(deadline.Sub(today) / (24 * time.Hour)), true
}

// DueSoon reports whether the task should be considered for a reminder:
// pending, deadlined, and due within one day (overdue counts).
func (t *Task) DueSoon(now time.Time) bool {
	if t.Status != TaskStatusPending {
		return false
	}
	days, ok := t.DaysUntilDeadline(now)
	if !ok {
		return false
	}
	return days <= 1
}
