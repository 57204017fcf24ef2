package bot

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"taskbot/internal/database"
	"taskbot/internal/models"
)

// fakeTaskRepo is an in-memory task store for conversation and dispatcher
// tests. It mirrors the real repository's contract: owner scoping, idempotent
// delete, closed updatable-field set.
type fakeTaskRepo struct {
	mu        sync.Mutex
	nextID    int64
	tasks     map[int64]*models.Task
	createErr error
	listErr   error
	deleteErr error
}

func newFakeTaskRepo() *fakeTaskRepo {
	return &fakeTaskRepo{nextID: 1, tasks: make(map[int64]*models.Task)}
}

func (f *fakeTaskRepo) Create(_ context.Context, task *models.Task) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.createErr != nil {
		return f.createErr
	}
	task.Name = strings.TrimSpace(task.Name)
	if task.Name == "" {
		return fmt.Errorf("task name must not be empty: %w", database.ErrValidation)
	}
	if task.Status == "" {
		task.Status = models.TaskStatusPending
	}
	task.ID = f.nextID
	f.nextID++
	task.CreatedAt = time.Now()

	stored := *task
	f.tasks[task.ID] = &stored
	return nil
}

func (f *fakeTaskRepo) ListByOwner(_ context.Context, ownerID int64, status *models.TaskStatus) ([]*models.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []*models.Task
	for _, id := range f.sortedIDs() {
		t := f.tasks[id]
		if t.OwnerID != ownerID {
			continue
		}
		if status != nil && t.Status != *status {
			continue
		}
		copied := *t
		out = append(out, &copied)
	}
	return out, nil
}

func (f *fakeTaskRepo) ListDuePending(_ context.Context) ([]*models.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []*models.Task
	for _, id := range f.sortedIDs() {
		t := f.tasks[id]
		if t.Status == models.TaskStatusPending && t.Deadline != nil {
			copied := *t
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (f *fakeTaskRepo) UpdateField(_ context.Context, ownerID, taskID int64, field database.UpdatableField, value any) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	t, ok := f.tasks[taskID]
	if !ok || t.OwnerID != ownerID {
		return fmt.Errorf("task %d for owner %d: %w", taskID, ownerID, database.ErrNotFound)
	}
	switch field {
	case database.FieldStatus:
		t.Status = models.TaskStatus(fmt.Sprint(value))
	case database.FieldLastNotifiedAt:
		at := value.(time.Time)
		t.LastNotifiedAt = &at
	default:
		return fmt.Errorf("field %q: %w", string(field), database.ErrFieldNotAllowed)
	}
	return nil
}

func (f *fakeTaskRepo) MarkNotified(ctx context.Context, ownerID, taskID int64, at time.Time) error {
	return f.UpdateField(ctx, ownerID, taskID, database.FieldLastNotifiedAt, at)
}

func (f *fakeTaskRepo) Delete(_ context.Context, ownerID, taskID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.deleteErr != nil {
		return f.deleteErr
	}
	if t, ok := f.tasks[taskID]; ok && t.OwnerID == ownerID {
		delete(f.tasks, taskID)
	}
	return nil
}

func (f *fakeTaskRepo) DeleteAll(_ context.Context, ownerID int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var n int64
	for id, t := range f.tasks {
		if t.OwnerID == ownerID {
			delete(f.tasks, id)
			n++
		}
	}
	return n, nil
}

func (f *fakeTaskRepo) sortedIDs() []int64 {
	ids := make([]int64, 0, len(f.tasks))
	for id := range f.tasks {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (f *fakeTaskRepo) get(taskID int64) (*models.Task, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	t, ok := f.tasks[taskID]
	if !ok {
		return nil, false
	}
	copied := *t
	return &copied, true
}

func (f *fakeTaskRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.tasks)
}

var _ database.TaskRepositoryInterface = (*fakeTaskRepo)(nil)

// fakeTransport records outbound traffic instead of sending it
type fakeTransport struct {
	mu        sync.Mutex
	messages  []string
	keyboards []string
	documents map[string][]byte
	sendErr   error
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{documents: make(map[string][]byte)}
}

func (f *fakeTransport) SendMessage(_ int64, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.sendErr != nil {
		return f.sendErr
	}
	f.messages = append(f.messages, text)
	return nil
}

func (f *fakeTransport) SendKeyboard(_ int64, text string, _ [][]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.keyboards = append(f.keyboards, text)
	return nil
}

func (f *fakeTransport) SendDocument(_ int64, filename string, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.documents[filename] = data
	return nil
}

func (f *fakeTransport) lastMessage() string {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.messages) == 0 {
		return ""
	}
	return f.messages[len(f.messages)-1]
}

var _ Transport = (*fakeTransport)(nil)
