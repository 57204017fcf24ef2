package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"taskbot/internal/models"
)

// UpdatableField enumerates the only task columns that may be changed after
// creation. Everything else is immutable by design.
type UpdatableField string

const (
	// FieldStatus flips a task from pending to done
	FieldStatus UpdatableField = "status"
	// FieldLastNotifiedAt records when a reminder was sent
	FieldLastNotifiedAt UpdatableField = "last_notified_at"
)

// updatableColumn maps a field to its column name. The switch is the whole
// allow-list; unknown fields never reach SQL.
func updatableColumn(field UpdatableField) (string, bool) {
	switch field {
	case FieldStatus:
		return "status", true
	case FieldLastNotifiedAt:
		return "last_notified_at", true
	default:
		return "", false
	}
}

// TaskRepository handles task database operations
type TaskRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewTaskRepository creates a new task repository
func NewTaskRepository(db *DB) *TaskRepository {
	return &TaskRepository{db: db, logger: zap.NewNop()}
}

// SetLogger sets the logger for repository operations
func (r *TaskRepository) SetLogger(logger *zap.Logger) {
	if logger != nil {
		r.logger = logger
	}
}

// Create inserts a new task and fills in its store-assigned id and creation
// time. The name must be non-empty after trimming.
func (r *TaskRepository) Create(ctx context.Context, task *models.Task) error {
	task.Name = strings.TrimSpace(task.Name)
	if task.Name == "" {
		return fmt.Errorf("task name must not be empty: %w", ErrValidation)
	}
	if task.Status == "" {
		task.Status = models.TaskStatusPending
	}

	query := `
		INSERT INTO tasks (owner_id, name, description, status, deadline, category, priority, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`

	var deadline sql.NullTime
	if task.Deadline != nil {
		deadline = sql.NullTime{Time: *task.Deadline, Valid: true}
	}

	err := r.db.QueryRowContext(ctx, query,
		task.OwnerID,
		task.Name,
		task.Description,
		task.Status,
		deadline,
		task.Category,
		task.Priority,
		time.Now(),
	).Scan(&task.ID, &task.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}

	r.logger.Debug("task_created",
		zap.Int64("task_id", task.ID),
		zap.Int64("owner_id", task.OwnerID),
	)

	return nil
}

// ListByOwner retrieves all tasks for an owner in insertion order, optionally
// filtered to one status.
func (r *TaskRepository) ListByOwner(ctx context.Context, ownerID int64, status *models.TaskStatus) ([]*models.Task, error) {
	query := `
		SELECT id, owner_id, name, description, status, deadline, category, priority, created_at, last_notified_at
		FROM tasks
		WHERE owner_id = $1
	`
	args := []any{ownerID}

	if status != nil {
		query += " AND status = $2"
		args = append(args, string(*status))
	}

	query += " ORDER BY id"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer rows.Close()

	return collectTasks(rows)
}

// ListDuePending retrieves every pending task with a deadline, across all
// owners. Used by the reminder scheduler each tick.
func (r *TaskRepository) ListDuePending(ctx context.Context) ([]*models.Task, error) {
	query := `
		SELECT id, owner_id, name, description, status, deadline, category, priority, created_at, last_notified_at
		FROM tasks
		WHERE status = $1 AND deadline IS NOT NULL
		ORDER BY id
	`

	rows, err := r.db.QueryContext(ctx, query, string(models.TaskStatusPending))
	if err != nil {
		return nil, fmt.Errorf("failed to query due tasks: %w", err)
	}
	defer rows.Close()

	return collectTasks(rows)
}

// UpdateField updates one column of the closed updatable set for a task
// owned by ownerID. Returns ErrFieldNotAllowed for any other field and
// ErrNotFound when the owner has no such task.
func (r *TaskRepository) UpdateField(ctx context.Context, ownerID, taskID int64, field UpdatableField, value any) error {
	column, ok := updatableColumn(field)
	if !ok {
		return fmt.Errorf("field %q: %w", string(field), ErrFieldNotAllowed)
	}

	query := fmt.Sprintf("UPDATE tasks SET %s = $1 WHERE owner_id = $2 AND id = $3", column)

	result, err := r.db.ExecContext(ctx, query, value, ownerID, taskID)
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("task %d for owner %d: %w", taskID, ownerID, ErrNotFound)
	}

	return nil
}

// MarkNotified stamps last_notified_at so the scheduler does not notify the
// same due-soon episode twice.
func (r *TaskRepository) MarkNotified(ctx context.Context, ownerID, taskID int64, at time.Time) error {
	return r.UpdateField(ctx, ownerID, taskID, FieldLastNotifiedAt, at)
}

// Delete removes a task owned by ownerID. Deleting a missing task succeeds,
// so retried delete commands are safe.
func (r *TaskRepository) Delete(ctx context.Context, ownerID, taskID int64) error {
	query := `DELETE FROM tasks WHERE owner_id = $1 AND id = $2`

	if _, err := r.db.ExecContext(ctx, query, ownerID, taskID); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	return nil
}

// DeleteAll removes every task for an owner and returns how many were deleted
func (r *TaskRepository) DeleteAll(ctx context.Context, ownerID int64) (int64, error) {
	query := `DELETE FROM tasks WHERE owner_id = $1`

	result, err := r.db.ExecContext(ctx, query, ownerID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete tasks: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected, nil
}

func collectTasks(rows *sql.Rows) ([]*models.Task, error) {
	var tasks []*models.Task
	for rows.Next() {
		task := &models.Task{}
		var deadline, lastNotifiedAt sql.NullTime

		err := rows.Scan(
			&task.ID,
			&task.OwnerID,
			&task.Name,
			&task.Description,
			&task.Status,
			&deadline,
			&task.Category,
			&task.Priority,
			&task.CreatedAt,
			&lastNotifiedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}

		if deadline.Valid {
			task.Deadline = &deadline.Time
		}
		if lastNotifiedAt.Valid {
			task.LastNotifiedAt = &lastNotifiedAt.Time
		}

		tasks = append(tasks, task)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tasks: %w", err)
	}

	return tasks, nil
}
