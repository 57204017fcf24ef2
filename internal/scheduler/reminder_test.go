package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"taskbot/internal/database"
	"taskbot/internal/models"
	"taskbot/internal/queue"
)

type stubRepo struct {
	tasks   []*models.Task
	listErr error
	markErr error
	marked  []int64
}

func (s *stubRepo) Create(context.Context, *models.Task) error { return nil }

func (s *stubRepo) ListByOwner(context.Context, int64, *models.TaskStatus) ([]*models.Task, error) {
	return nil, nil
}

func (s *stubRepo) ListDuePending(context.Context) ([]*models.Task, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.tasks, nil
}

func (s *stubRepo) UpdateField(context.Context, int64, int64, database.UpdatableField, any) error {
	return nil
}

func (s *stubRepo) MarkNotified(_ context.Context, _ int64, taskID int64, at time.Time) error {
	if s.markErr != nil {
		return s.markErr
	}
	for _, t := range s.tasks {
		if t.ID == taskID {
			stamp := at
			t.LastNotifiedAt = &stamp
		}
	}
	s.marked = append(s.marked, taskID)
	return nil
}

func (s *stubRepo) Delete(context.Context, int64, int64) error      { return nil }
func (s *stubRepo) DeleteAll(context.Context, int64) (int64, error) { return 0, nil }

var _ database.TaskRepositoryInterface = (*stubRepo)(nil)

type stubQueue struct {
	jobs       []*queue.ReminderJob
	enqueueErr error
	failTaskID int64
}

func (s *stubQueue) Enqueue(_ context.Context, job *queue.ReminderJob) error {
	if s.enqueueErr != nil && (s.failTaskID == 0 || s.failTaskID == job.TaskID) {
		return s.enqueueErr
	}
	s.jobs = append(s.jobs, job)
	return nil
}

func (s *stubQueue) Consume(context.Context, int) (<-chan *queue.Message, <-chan error, error) {
	return nil, nil, errors.New("not a consumer")
}

func (s *stubQueue) HealthCheck(context.Context) error { return nil }
func (s *stubQueue) Close() error                      { return nil }

var _ queue.ReminderQueue = (*stubQueue)(nil)

func pendingTask(id, owner int64, name string, deadline time.Time) *models.Task {
	return &models.Task{
		ID:       id,
		OwnerID:  owner,
		Name:     name,
		Status:   models.TaskStatusPending,
		Deadline: &deadline,
	}
}

func fixedNow() time.Time {
	return time.Date(2024, 6, 15, 9, 0, 0, 0, time.UTC)
}

func TestTickNotifiesOncePerEpisode(t *testing.T) {
	t.Parallel()

	repo := &stubRepo{tasks: []*models.Task{
		pendingTask(1, 7, "due tomorrow", time.Date(2024, 6, 16, 0, 0, 0, 0, time.UTC)),
	}}
	q := &stubQueue{}
	s := New(repo, q, time.Minute, zap.NewNop())
	s.now = fixedNow

	// Five ticks, one reminder
	for i := 0; i < 5; i++ {
		if err := s.Tick(context.Background()); err != nil {
			t.Fatalf("tick %d: %v", i, err)
		}
	}

	if len(q.jobs) != 1 {
		t.Fatalf("enqueued = %d jobs, want exactly 1", len(q.jobs))
	}
	job := q.jobs[0]
	if job.TaskID != 1 || job.OwnerID != 7 || job.TaskName != "due tomorrow" || job.Deadline != "2024-06-16" {
		t.Errorf("job = %+v", job)
	}
}

func TestTickNotifiesOverdueTasks(t *testing.T) {
	t.Parallel()

	repo := &stubRepo{tasks: []*models.Task{
		pendingTask(1, 7, "long overdue", time.Date(2024, 6, 5, 0, 0, 0, 0, time.UTC)),
	}}
	q := &stubQueue{}
	s := New(repo, q, time.Minute, zap.NewNop())
	s.now = fixedNow

	if err := s.Tick(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(q.jobs) != 1 {
		t.Errorf("enqueued = %d jobs, want 1 for an overdue task", len(q.jobs))
	}
}

func TestTickSkipsFarAndAlreadyNotified(t *testing.T) {
	t.Parallel()

	stamp := fixedNow().Add(-time.Hour)
	already := pendingTask(2, 7, "already sent", time.Date(2024, 6, 16, 0, 0, 0, 0, time.UTC))
	already.LastNotifiedAt = &stamp

	repo := &stubRepo{tasks: []*models.Task{
		pendingTask(1, 7, "next week", time.Date(2024, 6, 22, 0, 0, 0, 0, time.UTC)),
		already,
	}}
	q := &stubQueue{}
	s := New(repo, q, time.Minute, zap.NewNop())
	s.now = fixedNow

	if err := s.Tick(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(q.jobs) != 0 {
		t.Errorf("enqueued = %d jobs, want 0", len(q.jobs))
	}
}

func TestTickEnqueueFailureRetriesNextTick(t *testing.T) {
	t.Parallel()

	repo := &stubRepo{tasks: []*models.Task{
		pendingTask(1, 7, "flaky", time.Date(2024, 6, 16, 0, 0, 0, 0, time.UTC)),
		pendingTask(2, 8, "fine", time.Date(2024, 6, 16, 0, 0, 0, 0, time.UTC)),
	}}
	q := &stubQueue{enqueueErr: errors.New("broker unavailable"), failTaskID: 1}
	s := New(repo, q, time.Minute, zap.NewNop())
	s.now = fixedNow

	if err := s.Tick(context.Background()); err != nil {
		t.Fatal(err)
	}

	// The healthy task went out and got marked; the failed one did not
	if len(q.jobs) != 1 || q.jobs[0].TaskID != 2 {
		t.Fatalf("jobs after failing tick = %+v", q.jobs)
	}
	if len(repo.marked) != 1 || repo.marked[0] != 2 {
		t.Fatalf("marked after failing tick = %v", repo.marked)
	}

	// Broker recovers; the failed task is retried, the delivered one is not
	q.enqueueErr = nil
	if err := s.Tick(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(q.jobs) != 2 || q.jobs[1].TaskID != 1 {
		t.Fatalf("jobs after recovery tick = %+v", q.jobs)
	}
}

func TestTickMarkFailureLeavesTaskRetryable(t *testing.T) {
	t.Parallel()

	repo := &stubRepo{
		tasks: []*models.Task{
			pendingTask(1, 7, "unmarkable", time.Date(2024, 6, 16, 0, 0, 0, 0, time.UTC)),
		},
		markErr: errors.New("write failed"),
	}
	q := &stubQueue{}
	s := New(repo, q, time.Minute, zap.NewNop())
	s.now = fixedNow

	if err := s.Tick(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := s.Tick(context.Background()); err != nil {
		t.Fatal(err)
	}

	// Without the mark the gate stays open, so a duplicate is possible.
	// That is the chosen trade-off: at-least-once over at-most-once.
	if len(q.jobs) != 2 {
		t.Errorf("enqueued = %d jobs, want 2 when marking keeps failing", len(q.jobs))
	}
}

func TestTickListFailureAborts(t *testing.T) {
	t.Parallel()

	repo := &stubRepo{listErr: errors.New("store down")}
	q := &stubQueue{}
	s := New(repo, q, time.Minute, zap.NewNop())
	s.now = fixedNow

	if err := s.Tick(context.Background()); err == nil {
		t.Error("expected an error when the store read fails")
	}
	if len(q.jobs) != 0 {
		t.Error("nothing should be enqueued on an aborted tick")
	}
}
