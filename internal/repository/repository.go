package repository

import (
	"context"

	"github.com/taskhive/taskhive/internal/domain"
)

// UserRepository persists accounts.
type UserRepository interface {
	CreateUser(ctx context.Context, user *domain.User) error
	GetUserByUsername(ctx context.Context, username string) (*domain.User, error)
	GetUserByID(ctx context.Context, id string) (*domain.User, error)
}

// TaskRepository persists tasks. Status updates and deletes are unconditional;
// callers decide which transitions to offer.
type TaskRepository interface {
	CreateTask(ctx context.Context, task *domain.Task) error
	GetTaskByID(ctx context.Context, taskID string) (*domain.Task, error)
	UpdateTaskStatus(ctx context.Context, taskID string, status domain.TaskStatus) error
	DeleteTask(ctx context.Context, taskID string) error
	ListTasksByUser(ctx context.Context, userID string) ([]domain.Task, error)
}

// Store is a full backend opened once at startup and closed on shutdown.
type Store interface {
	UserRepository
	TaskRepository
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}
