package task

import "github.com/taskhive/taskhive/internal/domain"

// Column is one status bucket of the board.
type Column struct {
	Status domain.TaskStatus
	Tasks  []domain.Task
}

// Title is the bucket heading, e.g. "To do Tasks".
func (c Column) Title() string {
	return c.Status.Label() + " Tasks"
}

// Board is a user's task list split into the fixed buckets, in display order.
type Board struct {
	Columns []Column
}

// Partition groups tasks by status, keeping their relative order. Tasks with an
// unknown status are left out.
func Partition(tasks []domain.Task) Board {
	statuses := domain.TaskStatuses()
	index := make(map[domain.TaskStatus]int, len(statuses))
	board := Board{Columns: make([]Column, len(statuses))}
	for i, status := range statuses {
		index[status] = i
		board.Columns[i] = Column{Status: status, Tasks: []domain.Task{}}
	}
	for _, t := range tasks {
		i, ok := index[t.Status]
		if !ok {
			continue
		}
		board.Columns[i].Tasks = append(board.Columns[i].Tasks, t)
	}
	return board
}

// Column returns the bucket for status.
func (b Board) Column(status domain.TaskStatus) Column {
	for _, c := range b.Columns {
		if c.Status == status {
			return c
		}
	}
	return Column{Status: status}
}

// Len counts the tasks on the board.
func (b Board) Len() int {
	n := 0
	for _, c := range b.Columns {
		n += len(c.Tasks)
	}
	return n
}
