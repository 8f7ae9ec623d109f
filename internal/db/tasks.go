package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/wellywell/laundry/internal/types"
)

const taskColumns = `id, user_id, work_session_id, description, created_at, updated_at`

func collectTask(rows pgx.Rows, id int) (*types.Task, error) {
	task, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[types.Task])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w", &NotFoundError{Entity: "task", ID: id})
		}
		return nil, wrapWriteError(err)
	}
	return &task, nil
}

// requireRow fails with NotFoundError when table has no row with id.
func requireRow(ctx context.Context, tx pgx.Tx, table, entity string, id int) error {
	var exists bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM `+table+` WHERE id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("unexpected DB error %w", err)
	}
	if !exists {
		return fmt.Errorf("%w", &NotFoundError{Entity: entity, ID: id})
	}
	return nil
}

func (d *Database) ListTasks(ctx context.Context) ([]types.Task, error) {
	rows, err := d.pool.Query(ctx, `SELECT `+taskColumns+` FROM tasks ORDER BY created_at DESC, id DESC LIMIT 1000`)
	if err != nil {
		return nil, fmt.Errorf("failed collecting rows %w", err)
	}
	tasks, err := pgx.CollectRows(rows, pgx.RowToStructByName[types.Task])
	if err != nil {
		return nil, fmt.Errorf("failed unpacking rows %w", err)
	}
	return tasks, nil
}

func (d *Database) GetTask(ctx context.Context, id int) (*types.Task, error) {
	rows, err := d.pool.Query(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("failed collecting rows %w", err)
	}
	return collectTask(rows, id)
}

func (d *Database) CreateTask(ctx context.Context, t types.Task) (*types.Task, error) {
	var created *types.Task
	err := d.inTx(ctx, func(tx pgx.Tx) error {
		if err := requireRow(ctx, tx, "users", "user", t.UserID); err != nil {
			return err
		}
		if t.WorkSessionID != nil {
			if err := requireRow(ctx, tx, "work_sessions", "work session", *t.WorkSessionID); err != nil {
				return err
			}
		}
		rows, err := tx.Query(ctx, `
			INSERT INTO tasks (user_id, work_session_id, description)
			VALUES ($1, $2, $3)
			RETURNING `+taskColumns, t.UserID, t.WorkSessionID, t.Description)
		if err != nil {
			return wrapWriteError(err)
		}
		created, err = collectTask(rows, 0)
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (d *Database) UpdateTask(ctx context.Context, id int, p types.TaskPatch) (*types.Task, error) {
	var updated *types.Task
	err := d.inTx(ctx, func(tx pgx.Tx) error {
		if p.UserID != nil {
			if err := requireRow(ctx, tx, "users", "user", *p.UserID); err != nil {
				return err
			}
		}
		rows, err := tx.Query(ctx, `
			UPDATE tasks SET
				user_id = COALESCE($2, user_id),
				description = COALESCE($3, description),
				updated_at = now()
			WHERE id = $1
			RETURNING `+taskColumns, id, p.UserID, p.Description)
		if err != nil {
			return wrapWriteError(err)
		}
		updated, err = collectTask(rows, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (d *Database) DeleteTask(ctx context.Context, id int) error {
	tag, err := d.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return wrapWriteError(err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w", &NotFoundError{Entity: "task", ID: id})
	}
	return nil
}

// RecordTaskView marks the task seen by userID. The flag reports whether
// this call created the view; a repeated view returns the first one.
func (d *Database) RecordTaskView(ctx context.Context, taskID, userID int) (*types.TaskView, bool, error) {
	var view types.TaskView
	var created bool
	err := d.inTx(ctx, func(tx pgx.Tx) error {
		if err := requireRow(ctx, tx, "tasks", "task", taskID); err != nil {
			return err
		}
		if err := requireRow(ctx, tx, "users", "user", userID); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, `
			INSERT INTO task_views (task_id, user_id) VALUES ($1, $2)
			ON CONFLICT (task_id, user_id) DO NOTHING`, taskID, userID)
		if err != nil {
			return wrapWriteError(err)
		}
		created = tag.RowsAffected() == 1

		rows, err := tx.Query(ctx, `
			SELECT id, task_id, user_id, viewed_at FROM task_views
			WHERE task_id = $1 AND user_id = $2`, taskID, userID)
		if err != nil {
			return fmt.Errorf("failed collecting rows %w", err)
		}
		view, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[types.TaskView])
		if err != nil {
			return fmt.Errorf("failed unpacking rows %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return &view, created, nil
}
