package httpx

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/taskhive/taskhive/internal/domain"
	"github.com/taskhive/taskhive/internal/service/task"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

var errInvalidDue = errors.New("invalid due date")

// taskRow is one line of a bucket table with the single action it offers.
type taskRow struct {
	ID          string
	Text        string
	Due         string
	ActionLabel string
	ActionURL   string
}

type columnView struct {
	Title string
	Rows  []taskRow
}

func (s *Server) handleTasks(w http.ResponseWriter, req *http.Request) {
	switch req.Method {
	case http.MethodGet:
		s.showBoard(w, req)
	case http.MethodPost:
		s.addTask(w, req)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) showBoard(w http.ResponseWriter, req *http.Request) {
	user, _ := userFromContext(req.Context())
	board, err := s.tasks.Board(req.Context(), user.ID)
	if err != nil {
		s.logger.Error("board load failed", "error", err, "user_id", user.ID)
		s.renderError(w, req, http.StatusInternalServerError, "failed to load tasks")
		return
	}
	s.logger.Debug("board loaded", "user_id", user.ID, "tasks", board.Len())
	now := s.opts.Now().In(s.opts.Location)
	s.render(w, req, http.StatusOK, "tasks", map[string]any{
		"Title":   "Task Manager",
		"Account": user.Username,
		"Columns": s.columns(board),
		"Today":   now.Format(dateLayout),
		"Now":     now.Format(timeLayout),
	})
}

func (s *Server) addTask(w http.ResponseWriter, req *http.Request) {
	if err := req.ParseForm(); err != nil {
		s.renderError(w, req, http.StatusBadRequest, "invalid form payload")
		return
	}
	user, _ := userFromContext(req.Context())
	due, err := parseDue(req.PostFormValue("due_date"), req.PostFormValue("due_time"), s.opts.Now(), s.opts.Location)
	if err != nil {
		redirectWithError(w, req, "/tasks", "Invalid due date or time.")
		return
	}
	if _, err := s.tasks.Add(req.Context(), user.ID, req.PostFormValue("task"), due); err != nil {
		if errors.Is(err, task.ErrEmptyTask) {
			redirectWithError(w, req, "/tasks", "Task text is required.")
			return
		}
		s.logger.Error("task add failed", "error", err, "user_id", user.ID)
		s.renderError(w, req, http.StatusInternalServerError, "failed to add task")
		return
	}
	s.metrics.recordAction("task_add")
	redirectWithFlash(w, req, "/tasks", "Task added successfully!")
}

// handleTaskAction serves POST /tasks/{id}/{doing|done|delete}.
func (s *Server) handleTaskAction(w http.ResponseWriter, req *http.Request) {
	trimmed := strings.Trim(strings.TrimPrefix(req.URL.Path, "/tasks/"), "/")
	parts := strings.Split(trimmed, "/")
	if len(parts) != 2 || strings.TrimSpace(parts[0]) == "" {
		http.NotFound(w, req)
		return
	}
	if req.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	taskID, action := parts[0], parts[1]
	user, _ := userFromContext(req.Context())

	var status domain.TaskStatus
	if action != "delete" {
		parsed, ok := domain.ParseTaskStatus(action)
		if !ok || parsed == domain.TaskStatusToDo {
			http.NotFound(w, req)
			return
		}
		status = parsed
		action = string(parsed)
	}

	current, err := s.tasks.Get(req.Context(), user.ID, taskID)
	if err == nil && !actionAllowed(current.Status, action) {
		s.logger.Warn("task action not offered", "action", action, "task_id", taskID, "status", string(current.Status))
		err = task.ErrTaskNotFound
	}
	var message string
	if err == nil {
		if action == "delete" {
			err = s.tasks.Delete(req.Context(), user.ID, taskID)
			message = "Task deleted!"
		} else {
			err = s.tasks.SetStatus(req.Context(), user.ID, taskID, status)
			message = statusMessage(status)
		}
	}
	if err != nil {
		if errors.Is(err, task.ErrTaskNotFound) {
			redirectWithError(w, req, "/tasks", "Task not found.")
			return
		}
		s.logger.Error("task action failed", "error", err, "action", action, "task_id", taskID)
		s.renderError(w, req, http.StatusInternalServerError, "task update failed")
		return
	}
	s.metrics.recordAction("task_" + action)
	redirectWithFlash(w, req, "/tasks", message)
}

func statusMessage(status domain.TaskStatus) string {
	if status == domain.TaskStatusDone {
		return "Task marked as done!"
	}
	return "Task status updated to '" + status.Label() + "'!"
}

// columns turns the board into the render model: one table per bucket, each
// row carrying the action its bucket offers.
func (s *Server) columns(board task.Board) []columnView {
	views := make([]columnView, 0, len(board.Columns))
	for _, col := range board.Columns {
		view := columnView{Title: col.Title(), Rows: make([]taskRow, 0, len(col.Tasks))}
		for _, t := range col.Tasks {
			label, slug := actionFor(t.Status)
			view.Rows = append(view.Rows, taskRow{
				ID:          t.ID,
				Text:        t.Text,
				Due:         s.formatDue(t.DueDate),
				ActionLabel: label,
				ActionURL:   "/tasks/" + url.PathEscape(t.ID) + "/" + slug,
			})
		}
		views = append(views, view)
	}
	return views
}

// actionFor names the button that moves a task out of its bucket. Done tasks
// can only be deleted.
func actionFor(status domain.TaskStatus) (label, slug string) {
	next, ok := status.Next()
	switch {
	case !ok:
		return "Delete Task", "delete"
	case next == domain.TaskStatusDone:
		return "Mark as Done", string(next)
	default:
		return "Start " + next.Label(), string(next)
	}
}

// actionAllowed accepts only the button a task's bucket shows. Re-posting the
// status a task already has is accepted as a no-op.
func actionAllowed(current domain.TaskStatus, action string) bool {
	if _, slug := actionFor(current); slug == action {
		return true
	}
	return action != "delete" && string(current) == action
}

// parseDue combines the date and time pickers into a wall-clock time. Blank
// pickers default to the current date and time in loc. The result carries
// the wall clock in UTC fields, the layout existing due_date records use.
func parseDue(date, clock string, now time.Time, loc *time.Location) (time.Time, error) {
	now = now.In(loc)
	date, clock = strings.TrimSpace(date), strings.TrimSpace(clock)
	if date == "" {
		date = now.Format(dateLayout)
	}
	if clock == "" {
		clock = now.Format(timeLayout)
	}
	if len(clock) > len(timeLayout) {
		clock = clock[:len(timeLayout)]
	}
	due, err := time.ParseInLocation(dateLayout+" "+timeLayout, date+" "+clock, time.UTC)
	if err != nil {
		return time.Time{}, errInvalidDue
	}
	return due, nil
}
