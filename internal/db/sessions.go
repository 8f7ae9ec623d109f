package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/wellywell/laundry/internal/types"
)

const sessionColumns = `id, user_id, login_time, logout_time, status, comments`

// StartSession opens a work session. A user holds at most one open session.
func (d *Database) StartSession(ctx context.Context, userID int, comments *string) (*types.WorkSession, error) {
	rows, err := d.pool.Query(ctx, `
		INSERT INTO work_sessions (user_id, comments) VALUES ($1, $2)
		RETURNING `+sessionColumns, userID, comments)
	if err != nil {
		return nil, fmt.Errorf("failed collecting rows %w", err)
	}
	s, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[types.WorkSession])
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrSessionAlreadyOpen
		}
		return nil, wrapWriteError(err)
	}
	return &s, nil
}

// EndSession closes the open session of userID.
func (d *Database) EndSession(ctx context.Context, userID int, comments *string) (*types.WorkSession, error) {
	rows, err := d.pool.Query(ctx, `
		UPDATE work_sessions SET
			status = 'COMPLETED',
			logout_time = now(),
			comments = COALESCE($2, comments)
		WHERE user_id = $1 AND status = 'IN_PROGRESS'
		RETURNING `+sessionColumns, userID, comments)
	if err != nil {
		return nil, fmt.Errorf("failed collecting rows %w", err)
	}
	s, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[types.WorkSession])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoOpenSession
		}
		return nil, fmt.Errorf("failed unpacking rows %w", err)
	}
	return &s, nil
}

func (d *Database) ListSessions(ctx context.Context, userID int, status types.SessionStatus) ([]types.WorkSession, error) {
	rows, err := d.pool.Query(ctx, `SELECT `+sessionColumns+`
		FROM work_sessions
		WHERE ($1 = 0 OR user_id = $1) AND ($2 = '' OR status = $2)
		ORDER BY login_time DESC, id DESC
		LIMIT 1000`, userID, string(status))
	if err != nil {
		return nil, fmt.Errorf("failed collecting rows %w", err)
	}
	result, err := pgx.CollectRows(rows, pgx.RowToStructByName[types.WorkSession])
	if err != nil {
		return nil, fmt.Errorf("failed unpacking rows %w", err)
	}
	return result, nil
}
