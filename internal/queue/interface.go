package queue

import (
	"context"
)

// MessageInterface defines the interface for queue messages.
// This enables better testability by allowing mock implementations.
type MessageInterface interface {
	Ack() error
	Nack(requeue bool) error
	GetJob() *ReminderJob
}

// ReminderQueue is the interface between the scheduler (producer) and the
// notifier (consumer).
type ReminderQueue interface {
	// Enqueue publishes a reminder job
	Enqueue(ctx context.Context, job *ReminderJob) error

	// Consume returns a channel of messages from the queue.
	// The caller is responsible for acknowledging each message.
	// Prefetch controls how many unacknowledged messages the consumer holds.
	Consume(ctx context.Context, prefetchCount int) (<-chan *Message, <-chan error, error)

	// HealthCheck verifies the queue connection is healthy
	HealthCheck(ctx context.Context) error

	// Close closes the queue connection
	Close() error
}
