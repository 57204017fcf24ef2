package queue

import (
	"time"

	"github.com/google/uuid"

	"taskbot/internal/models"
)

// ReminderJob is one deadline notification waiting for delivery. It carries
// everything the notifier needs so delivery never touches the task store.
type ReminderJob struct {
	ID        uuid.UUID `json:"id"`
	TaskID    int64     `json:"task_id"`
	OwnerID   int64     `json:"owner_id"` // private chat id equals the user id
	TaskName  string    `json:"task_name"`
	Deadline  string    `json:"deadline"` // YYYY-MM-DD
	CreatedAt time.Time `json:"created_at"`
}

// NewReminderJob creates a reminder job for a due-soon task
func NewReminderJob(task *models.Task) *ReminderJob {
	return &ReminderJob{
		ID:        uuid.New(),
		TaskID:    task.ID,
		OwnerID:   task.OwnerID,
		TaskName:  task.Name,
		Deadline:  task.DeadlineString(),
		CreatedAt: time.Now(),
	}
}
