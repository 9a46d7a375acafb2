package domain

import (
	"strings"
	"time"
)

// TaskStatus is one of the three fixed buckets a task moves through.
type TaskStatus string

const (
	TaskStatusToDo  TaskStatus = "to do"
	TaskStatusDoing TaskStatus = "doing"
	TaskStatusDone  TaskStatus = "done"
)

// TaskStatuses lists the buckets in display order.
func TaskStatuses() []TaskStatus {
	return []TaskStatus{TaskStatusToDo, TaskStatusDoing, TaskStatusDone}
}

// Valid reports whether s is one of the known statuses.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusToDo, TaskStatusDoing, TaskStatusDone:
		return true
	}
	return false
}

// Next returns the status a task advances to. Done has no successor.
func (s TaskStatus) Next() (TaskStatus, bool) {
	switch s {
	case TaskStatusToDo:
		return TaskStatusDoing, true
	case TaskStatusDoing:
		return TaskStatusDone, true
	}
	return "", false
}

// Label is the capitalized form used in headings ("To do", "Doing", "Done").
func (s TaskStatus) Label() string {
	if s == "" {
		return ""
	}
	v := string(s)
	return strings.ToUpper(v[:1]) + v[1:]
}

// ParseTaskStatus accepts the stored value or the slug used in URLs
// ("todo", "doing", "done").
func ParseTaskStatus(v string) (TaskStatus, bool) {
	v = strings.ToLower(strings.TrimSpace(v))
	if v == "todo" || v == "to-do" {
		return TaskStatusToDo, true
	}
	s := TaskStatus(v)
	return s, s.Valid()
}

// Task is a to-do item owned by a single user.
type Task struct {
	ID        string
	UserID    string
	Text      string
	DueDate   time.Time
	Status    TaskStatus
	CreatedAt time.Time
}
