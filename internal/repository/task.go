package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/daybook/daybook-go/internal/model"
)

var ErrTaskNotFound = errors.New("task not found")

const taskColumns = `id, user_id, title, description, start_at, end_at, all_day, status, created_at, updated_at`

// TaskRepository handles calendar task persistence. Every query is scoped to
// the owning user.
type TaskRepository struct {
	db *sql.DB
}

// NewTaskRepository creates a new TaskRepository.
func NewTaskRepository(db *sql.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// Create inserts a task. A missing ID is generated.
func (r *TaskRepository) Create(ctx context.Context, task *model.Task) error {
	if task.ID == "" {
		task.ID = uuid.NewString()
	}

	query := `INSERT INTO tasks (id, user_id, title, description, start_at, end_at, all_day, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		task.ID, task.UserID, task.Title, task.Description,
		task.Start, nullTime(task.End), task.AllDay, string(task.Status),
	)
	return err
}

// GetByID retrieves a task owned by userID.
func (r *TaskRepository) GetByID(ctx context.Context, userID, id string) (*model.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = ? AND user_id = ?`

	task, err := scanTask(r.db.QueryRowContext(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTaskNotFound
		}
		return nil, err
	}
	return task, nil
}

// Update overwrites the editable fields of a task owned by task.UserID.
func (r *TaskRepository) Update(ctx context.Context, task *model.Task) error {
	query := `UPDATE tasks SET title = ?, description = ?, start_at = ?, end_at = ?, all_day = ?, status = ?
		WHERE id = ? AND user_id = ?`
	_, err := r.db.ExecContext(ctx, query,
		task.Title, task.Description, task.Start, nullTime(task.End), task.AllDay, string(task.Status),
		task.ID, task.UserID,
	)
	return err
}

// Delete removes a task owned by userID.
func (r *TaskRepository) Delete(ctx context.Context, userID, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrTaskNotFound
	}

	return nil
}

// ListByUser returns the tasks of a user ordered by start time. Non-zero
// bounds restrict the result to tasks starting in [from, to).
func (r *TaskRepository) ListByUser(ctx context.Context, userID string, from, to time.Time) ([]model.Task, error) {
	var (
		sb   strings.Builder
		args = []any{userID}
	)
	sb.WriteString(`SELECT ` + taskColumns + ` FROM tasks WHERE user_id = ?`)
	if !from.IsZero() {
		sb.WriteString(` AND start_at >= ?`)
		args = append(args, from)
	}
	if !to.IsZero() {
		sb.WriteString(` AND start_at < ?`)
		args = append(args, to)
	}
	sb.WriteString(` ORDER BY start_at ASC`)

	rows, err := r.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []model.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *task)
	}

	return tasks, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*model.Task, error) {
	var (
		task   model.Task
		end    sql.NullTime
		status string
	)
	if err := row.Scan(
		&task.ID, &task.UserID, &task.Title, &task.Description,
		&task.Start, &end, &task.AllDay, &status, &task.CreatedAt, &task.UpdatedAt,
	); err != nil {
		return nil, err
	}
	task.Status = model.TaskStatus(status)
	if end.Valid {
		t := end.Time
		task.End = &t
	}
	return &task, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
