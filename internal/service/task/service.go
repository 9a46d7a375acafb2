package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/taskhive/taskhive/internal/domain"
	"github.com/taskhive/taskhive/internal/repository"
)

var (
	// ErrEmptyTask is returned when the task label is blank.
	ErrEmptyTask = errors.New("task text is required")
	// ErrInvalidStatus is returned for statuses outside the three buckets.
	ErrInvalidStatus = errors.New("invalid task status")
	// ErrTaskNotFound is returned for unknown ids and for tasks owned by someone else.
	ErrTaskNotFound = errors.New("task not found")
)

// Service manages a user's tasks.
type Service struct {
	tasks  repository.TaskRepository
	logger *slog.Logger
	now    func() time.Time
}

// New constructs a Service.
func New(tasks repository.TaskRepository, logger *slog.Logger) Service {
	if logger == nil {
		logger = slog.Default()
	}
	return Service{tasks: tasks, logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

// Add creates a task in the "to do" bucket for userID.
func (s Service) Add(ctx context.Context, userID, text string, due time.Time) (*domain.Task, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyTask
	}
	t := &domain.Task{
		UserID:    userID,
		Text:      text,
		DueDate:   due,
		Status:    domain.TaskStatusToDo,
		CreatedAt: s.now(),
	}
	if err := s.tasks.CreateTask(ctx, t); err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}
	s.logger.Info("task added", "user_id", userID, "task_id", t.ID)
	return t, nil
}

// SetStatus overwrites the task's status. Transitions are not checked for
// direction; setting the current status again is a no-op.
func (s Service) SetStatus(ctx context.Context, userID, taskID string, status domain.TaskStatus) error {
	if !status.Valid() {
		return ErrInvalidStatus
	}
	if _, err := s.owned(ctx, userID, taskID); err != nil {
		return err
	}
	if err := s.tasks.UpdateTaskStatus(ctx, taskID, status); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrTaskNotFound
		}
		return fmt.Errorf("update task status: %w", err)
	}
	s.logger.Info("task status updated", "user_id", userID, "task_id", taskID, "status", string(status))
	return nil
}

// Delete removes the task.
func (s Service) Delete(ctx context.Context, userID, taskID string) error {
	if _, err := s.owned(ctx, userID, taskID); err != nil {
		return err
	}
	if err := s.tasks.DeleteTask(ctx, taskID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrTaskNotFound
		}
		return fmt.Errorf("delete task: %w", err)
	}
	s.logger.Info("task deleted", "user_id", userID, "task_id", taskID)
	return nil
}

// Get returns the task when it belongs to userID.
func (s Service) Get(ctx context.Context, userID, taskID string) (*domain.Task, error) {
	return s.owned(ctx, userID, taskID)
}

// List returns every task owned by userID.
func (s Service) List(ctx context.Context, userID string) ([]domain.Task, error) {
	tasks, err := s.tasks.ListTasksByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

// Board lists the user's tasks partitioned into the status buckets.
func (s Service) Board(ctx context.Context, userID string) (Board, error) {
	tasks, err := s.List(ctx, userID)
	if err != nil {
		return Board{}, err
	}
	return Partition(tasks), nil
}

func (s Service) owned(ctx context.Context, userID, taskID string) (*domain.Task, error) {
	if strings.TrimSpace(taskID) == "" {
		return nil, ErrTaskNotFound
	}
	t, err := s.tasks.GetTaskByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("get task: %w", err)
	}
	if t.UserID != userID {
		s.logger.Warn("task owned by another user", "user_id", userID, "task_id", taskID)
		return nil, ErrTaskNotFound
	}
	return t, nil
}
