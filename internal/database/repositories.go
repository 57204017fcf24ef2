package database

import (
	"context"
	"time"

	"taskbot/internal/models"
)

// TaskRepositoryInterface defines the interface for task store operations.
// This interface enables better testability by allowing mock implementations.
// Every operation except Create is scoped by owner id.
type TaskRepositoryInterface interface {
	Create(ctx context.Context, task *models.Task) error
	ListByOwner(ctx context.Context, ownerID int64, status *models.TaskStatus) ([]*models.Task, error)
	ListDuePending(ctx context.Context) ([]*models.Task, error)
	UpdateField(ctx context.Context, ownerID, taskID int64, field UpdatableField, value any) error
	MarkNotified(ctx context.Context, ownerID, taskID int64, at time.Time) error
	Delete(ctx context.Context, ownerID, taskID int64) error
	DeleteAll(ctx context.Context, ownerID int64) (int64, error)
}

// Ensure the concrete type implements the interface
var _ TaskRepositoryInterface = (*TaskRepository)(nil)
