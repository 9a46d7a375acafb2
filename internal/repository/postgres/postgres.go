package postgres

import (
	"context"
	"errors"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taskhive/taskhive/internal/domain"
	"github.com/taskhive/taskhive/internal/repository"
)

// Repository implements persistence interfaces on PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
	sb   sq.StatementBuilderType
}

// New constructs a Repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool, sb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar)}
}

var _ repository.Store = (*Repository)(nil)

var (
	userColumns = []string{"id", "username", "password", "created_at"}
	taskColumns = []string{"id", "user_id", "task", "due_date", "status", "created_at"}
)

// CreateUser inserts a user.
func (r *Repository) CreateUser(ctx context.Context, user *domain.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	query, args, err := r.sb.Insert("users").Columns(userColumns...).
		Values(user.ID, user.Username, user.Password, user.CreatedAt).ToSql()
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, query, args...)
	return translateError(err)
}

// GetUserByUsername fetches a user by username.
func (r *Repository) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.getUser(ctx, sq.Eq{"username": username})
}

// GetUserByID retrieves a user by identifier.
func (r *Repository) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	return r.getUser(ctx, sq.Eq{"id": id})
}

func (r *Repository) getUser(ctx context.Context, where sq.Eq) (*domain.User, error) {
	query, args, err := r.sb.Select(userColumns...).From("users").Where(where).ToSql()
	if err != nil {
		return nil, err
	}
	var u domain.User
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&u.ID, &u.Username, &u.Password, &u.CreatedAt); err != nil {
		return nil, translateError(err)
	}
	return &u, nil
}

// CreateTask inserts a task.
func (r *Repository) CreateTask(ctx context.Context, task *domain.Task) error {
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	query, args, err := r.sb.Insert("tasks").Columns(taskColumns...).
		Values(task.ID, task.UserID, task.Text, task.DueDate, string(task.Status), task.CreatedAt).ToSql()
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, query, args...)
	return err
}

// GetTaskByID fetches a task.
func (r *Repository) GetTaskByID(ctx context.Context, taskID string) (*domain.Task, error) {
	query, args, err := r.sb.Select(taskColumns...).From("tasks").Where(sq.Eq{"id": taskID}).ToSql()
	if err != nil {
		return nil, err
	}
	task, err := scanTask(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, translateError(err)
	}
	return &task, nil
}

// UpdateTaskStatus overwrites the status of a task.
func (r *Repository) UpdateTaskStatus(ctx context.Context, taskID string, status domain.TaskStatus) error {
	query, args, err := r.sb.Update("tasks").Set("status", string(status)).Where(sq.Eq{"id": taskID}).ToSql()
	if err != nil {
		return err
	}
	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// DeleteTask removes a task.
func (r *Repository) DeleteTask(ctx context.Context, taskID string) error {
	query, args, err := r.sb.Delete("tasks").Where(sq.Eq{"id": taskID}).ToSql()
	if err != nil {
		return err
	}
	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// ListTasksByUser returns tasks owned by userID, earliest due first.
func (r *Repository) ListTasksByUser(ctx context.Context, userID string) ([]domain.Task, error) {
	query, args, err := r.sb.Select(taskColumns...).From("tasks").
		Where(sq.Eq{"user_id": userID}).OrderBy("due_date", "created_at").ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := make([]domain.Task, 0)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

// Ping checks the pool can reach the server.
func (r *Repository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// Close releases pooled connections.
func (r *Repository) Close(ctx context.Context) error {
	r.pool.Close()
	return nil
}

const uniqueViolation = "23505"

// translateError maps driver errors onto the repository sentinels.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return repository.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return repository.ErrDuplicate
	}
	return err
}

func scanTask(row pgx.Row) (domain.Task, error) {
	var (
		t      domain.Task
		status string
	)
	if err := row.Scan(&t.ID, &t.UserID, &t.Text, &t.DueDate, &status, &t.CreatedAt); err != nil {
		return domain.Task{}, err
	}
	t.Status = domain.TaskStatus(status)
	return t, nil
}
