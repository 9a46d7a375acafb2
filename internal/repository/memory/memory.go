// Package memory keeps users and tasks in process memory. It backs local
// development (STORE_DRIVER=memory) and the service tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/taskhive/taskhive/internal/domain"
	"github.com/taskhive/taskhive/internal/repository"
)

// Repository implements repository.Store on maps guarded by a mutex.
type Repository struct {
	mu         sync.RWMutex
	users      map[string]domain.User
	byUsername map[string]string
	tasks      map[string]domain.Task
	seq        map[string]int64
	next       int64
	now        func() time.Time
}

var _ repository.Store = (*Repository)(nil)

// New constructs an empty Repository.
func New() *Repository {
	return &Repository{
		users:      make(map[string]domain.User),
		byUsername: make(map[string]string),
		tasks:      make(map[string]domain.Task),
		seq:        make(map[string]int64),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// CreateUser inserts a user, rejecting duplicate usernames.
func (r *Repository) CreateUser(ctx context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byUsername[user.Username]; exists {
		return repository.ErrDuplicate
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = r.now()
	}
	r.users[user.ID] = *user
	r.byUsername[user.Username] = user.ID
	return nil
}

// GetUserByUsername fetches a user by exact username.
func (r *Repository) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byUsername[username]
	if !ok {
		return nil, repository.ErrNotFound
	}
	u := r.users[id]
	return &u, nil
}

// GetUserByID fetches a user by identifier.
func (r *Repository) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

// CreateTask inserts a task.
func (r *Repository) CreateTask(ctx context.Context, task *domain.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	if task.CreatedAt.IsZero() {
		task.CreatedAt = r.now()
	}
	r.next++
	r.seq[task.ID] = r.next
	r.tasks[task.ID] = *task
	return nil
}

// GetTaskByID fetches a task by identifier.
func (r *Repository) GetTaskByID(ctx context.Context, taskID string) (*domain.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tasks[taskID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &t, nil
}

// UpdateTaskStatus overwrites the status of a task.
func (r *Repository) UpdateTaskStatus(ctx context.Context, taskID string, status domain.TaskStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[taskID]
	if !ok {
		return repository.ErrNotFound
	}
	t.Status = status
	r.tasks[taskID] = t
	return nil
}

// DeleteTask removes a task.
func (r *Repository) DeleteTask(ctx context.Context, taskID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tasks[taskID]; !ok {
		return repository.ErrNotFound
	}
	delete(r.tasks, taskID)
	delete(r.seq, taskID)
	return nil
}

// ListTasksByUser returns the user's tasks ordered by due date.
func (r *Repository) ListTasksByUser(ctx context.Context, userID string) ([]domain.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tasks := make([]domain.Task, 0)
	for _, t := range r.tasks {
		if t.UserID == userID {
			tasks = append(tasks, t)
		}
	}
	sort.Slice(tasks, func(i, j int) bool {
		if !tasks[i].DueDate.Equal(tasks[j].DueDate) {
			return tasks[i].DueDate.Before(tasks[j].DueDate)
		}
		return r.seq[tasks[i].ID] < r.seq[tasks[j].ID]
	})
	return tasks, nil
}

// Ping always succeeds.
func (r *Repository) Ping(ctx context.Context) error { return nil }

// Close is a no-op.
func (r *Repository) Close(ctx context.Context) error { return nil }
