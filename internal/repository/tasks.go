package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"
	"todo-project/internal/models"
	"todo-project/pkg/logger"
)

// Tasks is the Postgres-backed task repository.
type Tasks struct {
	db *sql.DB
}

// New returns a task repository on the given pool.
func New(db *sql.DB) *Tasks {
	return &Tasks{db: db}
}

// All returns every task ordered by ascending id.
func (r *Tasks) All(ctx context.Context) ([]models.Task, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, text, done FROM todos ORDER BY id ASC`)
	if err != nil {
		logger.Error(ctx, "Repository list tasks failed", "error", err)
		return nil, err
	}
	defer rows.Close()
	tasks := []models.Task{}
	for rows.Next() {
		var t models.Task
		if err := rows.Scan(&t.ID, &t.Text, &t.Done); err != nil {
			logger.Error(ctx, "Repository scan task failed", "error", err)
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// Create validates text, assigns a time-derived id, and inserts the task.
// Validation failures (models.ErrTextRequired, models.ErrTextTooLong) never
// reach the database.
func (r *Tasks) Create(ctx context.Context, text string) (models.Task, error) {
	text, err := models.ValidateText(text)
	if err != nil {
		return models.Task{}, err
	}
	// Ids are unix milliseconds; two creates in the same millisecond collide
	// on the primary key, so retry with the next reading.
	for attempt := 0; ; attempt++ {
		t := models.Task{ID: time.Now().UnixMilli(), Text: text}
		_, err := r.db.ExecContext(ctx,
			`INSERT INTO todos (id, text) VALUES ($1, $2)`, t.ID, t.Text)
		if err == nil {
			return t, nil
		}
		if isUniqueViolation(err) && attempt < 3 {
			time.Sleep(time.Millisecond)
			continue
		}
		logger.Error(ctx, "Repository create task failed", "error", err)
		return models.Task{}, err
	}
}

// SetDone marks the task done and returns the new state. A missing id is not
// an error: ok is false and the returned task is zero.
func (r *Tasks) SetDone(ctx context.Context, id int64) (models.Task, bool, error) {
	var t models.Task
	err := r.db.QueryRowContext(ctx,
		`UPDATE todos SET done = TRUE WHERE id = $1 RETURNING id, text, done`,
		id).Scan(&t.ID, &t.Text, &t.Done)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Task{}, false, nil
	}
	if err != nil {
		logger.Error(ctx, "Repository set done failed", "error", err, "id", id)
		return models.Task{}, false, err
	}
	return t, true, nil
}

// Ping issues a trivial round-trip query, for readiness probes.
func (r *Tasks) Ping(ctx context.Context) error {
	var one int
	return r.db.QueryRowContext(ctx, `SELECT 1`).Scan(&one)
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
