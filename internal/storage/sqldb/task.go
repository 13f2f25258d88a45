package sqldb

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"crossposter/internal/domain"
)

type taskRow struct {
	ID   string `db:"id"`
	Rev  int64  `db:"rev"`
	Body string `db:"body"`
}

type TaskStore struct {
	db *sqlx.DB
}

func NewTaskStore(db *sqlx.DB) *TaskStore {
	return &TaskStore{db: db}
}

// GetPending returns every task that is not completed, ordered by id.
func (s *TaskStore) GetPending(ctx context.Context) ([]domain.Task, error) {
	var rows []taskRow
	query := s.db.Rebind(`SELECT id, rev, body FROM tasks WHERE completed = ? ORDER BY id`)
	if err := s.db.SelectContext(ctx, &rows, query, false); err != nil {
		return nil, fmt.Errorf("select pending tasks: %w", err)
	}

	tasks := make([]domain.Task, 0, len(rows))
	for _, row := range rows {
		task, err := decodeTask(row)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}

func (s *TaskStore) Get(ctx context.Context, id string) (*domain.Task, error) {
	var row taskRow
	query := s.db.Rebind(`SELECT id, rev, body FROM tasks WHERE id = ?`)
	err := s.db.GetContext(ctx, &row, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("task %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("select task %s: %w", id, err)
	}

	task, err := decodeTask(row)
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// Create stores a new task at revision 1. It fails with ErrConflict when the id is taken.
func (s *TaskStore) Create(ctx context.Context, task *domain.Task) error {
	body, err := encodeTask(task, 1)
	if err != nil {
		return err
	}

	err = withTx(ctx, s.db, func(tx *sqlx.Tx) error {
		if _, found, err := currentRev(ctx, tx, `SELECT rev FROM tasks WHERE id = ?`, task.ID); err != nil {
			return err
		} else if found {
			return fmt.Errorf("task %s: %w", task.ID, domain.ErrConflict)
		}

		_, err := tx.ExecContext(ctx,
			tx.Rebind(`INSERT INTO tasks (id, rev, completed, body) VALUES (?, ?, ?, ?)`),
			task.ID, 1, task.Completed, body,
		)
		if isUniqueViolation(err) {
			return fmt.Errorf("task %s: %w", task.ID, domain.ErrConflict)
		}
		return err
	})
	if err != nil {
		return fmt.Errorf("create task %s: %w", task.ID, err)
	}

	task.Revision = 1
	return nil
}

// Update overwrites the stored task. The current revision is read immediately
// before the write; a concurrent writer in between yields ErrConflict.
func (s *TaskStore) Update(ctx context.Context, task *domain.Task) error {
	var next int64
	err := withTx(ctx, s.db, func(tx *sqlx.Tx) error {
		rev, found, err := currentRev(ctx, tx, `SELECT rev FROM tasks WHERE id = ?`, task.ID)
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("task %s: %w", task.ID, domain.ErrNotFound)
		}

		next = rev + 1
		body, err := encodeTask(task, next)
		if err != nil {
			return err
		}

		res, err := tx.ExecContext(ctx,
			tx.Rebind(`UPDATE tasks SET rev = ?, completed = ?, body = ? WHERE id = ? AND rev = ?`),
			next, task.Completed, body, task.ID, rev,
		)
		if err != nil {
			return err
		}
		return expectOneRow(res, task.ID)
	})
	if err != nil {
		return fmt.Errorf("update task %s: %w", task.ID, err)
	}

	task.Revision = next
	return nil
}

func currentRev(ctx context.Context, tx *sqlx.Tx, query, id string) (int64, bool, error) {
	var rev int64
	err := tx.GetContext(ctx, &rev, tx.Rebind(query), id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return rev, true, nil
}

func expectOneRow(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", id, domain.ErrConflict)
	}
	return nil
}

func encodeTask(task *domain.Task, rev int64) (string, error) {
	doc := domain.ToDocument(*task)
	doc.Rev = rev
	body, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("encode task %s: %w", task.ID, err)
	}
	return string(body), nil
}

func decodeTask(row taskRow) (domain.Task, error) {
	var doc domain.TaskDocument
	if err := json.Unmarshal([]byte(row.Body), &doc); err != nil {
		return domain.Task{}, fmt.Errorf("decode task %s: %w", row.ID, err)
	}
	doc.ID = row.ID
	doc.Rev = row.Rev
	return domain.FromDocument(doc)
}
