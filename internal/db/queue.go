package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/wellywell/laundry/internal/queue"
	"github.com/wellywell/laundry/internal/types"
)

// queueLimit caps the rows of one view. Total still counts every match.
const queueLimit = 1000

// queueLockKey serializes every transaction that moves pending ranks.
const queueLockKey = 73010

func queueOrderClause(ordering queue.Ordering) string {
	if ordering == queue.OrderByPendingRank {
		return "s.pending_order ASC NULLS LAST, s.id ASC"
	}
	return `CASE WHEN s.status = 'PENDING' THEN 0 ELSE 1 END ASC,
		CASE WHEN s.status = 'PENDING' THEN s.pending_order END ASC NULLS LAST,
		s.scheduled_pickup_at ASC,
		s.id ASC`
}

func statusStrings(statuses []types.Status) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}

// queueItemSelect reads QueueItem rows. current_step is the newest step
// of the order that is not completed yet.
const queueItemSelect = `
		SELECT s.id, s.status, s.service_label, s.pending_order, s.scheduled_pickup_at,
		       s.client_id, c.name AS client_name,
		       s.client_address_id, a.address_text,
		       s.created_by_user_id, u.username AS created_by_username,
		       (SELECT p.step_type FROM laundry_processing_steps p
		        WHERE p.laundry_service_id = s.id AND p.completed_at IS NULL
		        ORDER BY p.id DESC LIMIT 1) AS current_step
		FROM laundry_services s
		JOIN clients c ON c.id = s.client_id
		JOIN client_addresses a ON a.id = s.client_address_id
		JOIN users u ON u.id = s.created_by_user_id`

const queueWhere = `WHERE (cardinality($1::text[]) = 0 OR s.status = ANY($1::text[]))`

func (d *Database) CountQueueItems(ctx context.Context, q queue.ViewQuery) (int, error) {
	var total int
	err := d.pool.QueryRow(ctx, `SELECT count(*) FROM laundry_services s `+queueWhere, statusStrings(q.Statuses)).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed counting rows %w", err)
	}
	return total, nil
}

func (d *Database) QueueItems(ctx context.Context, q queue.ViewQuery) ([]types.QueueItem, error) {
	query := queueItemSelect + `
		` + queueWhere + `
		ORDER BY ` + queueOrderClause(q.Ordering) + `
		LIMIT $2`

	rows, err := d.pool.Query(ctx, query, statusStrings(q.Statuses), queueLimit)
	if err != nil {
		return nil, fmt.Errorf("failed collecting rows %w", err)
	}

	items, err := pgx.CollectRows(rows, pgx.RowToStructByName[types.QueueItem])
	if err != nil {
		return nil, fmt.Errorf("failed unpacking rows %w", err)
	}
	return items, nil
}

func (d *Database) InReorderTx(ctx context.Context, fn func(tx queue.ReorderTx) error) error {
	return d.inTx(ctx, func(tx pgx.Tx) error {
		if err := lockQueue(ctx, tx); err != nil {
			return err
		}
		return fn(&reorderTx{tx: tx})
	})
}

func lockQueue(ctx context.Context, tx pgx.Tx) error {
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, queueLockKey); err != nil {
		return fmt.Errorf("failed locking queue %w", err)
	}
	return nil
}

type reorderTx struct {
	tx pgx.Tx
}

func (r *reorderTx) LockOrderRanks(ctx context.Context, ids []int) ([]types.OrderRank, error) {
	query := `
		SELECT id, status, pending_order
		FROM laundry_services
		WHERE id = ANY($1::bigint[])
		ORDER BY id
		FOR UPDATE`

	rows, err := r.tx.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("failed locking rows %w", err)
	}
	ranks, err := pgx.CollectRows(rows, pgx.RowToStructByName[types.OrderRank])
	if err != nil {
		return nil, fmt.Errorf("failed unpacking rows %w", err)
	}
	return ranks, nil
}

func (r *reorderTx) ClearPendingRanks(ctx context.Context, ids []int) error {
	_, err := r.tx.Exec(ctx, `UPDATE laundry_services SET pending_order = NULL WHERE id = ANY($1::bigint[])`, ids)
	return err
}

func (r *reorderTx) AssignPendingRanks(ctx context.Context, ids []int) error {
	query := `
		UPDATE laundry_services s
		SET pending_order = t.rank, updated_at = now()
		FROM unnest($1::bigint[]) WITH ORDINALITY AS t(id, rank)
		WHERE s.id = t.id`
	_, err := r.tx.Exec(ctx, query, ids)
	return err
}

func (r *reorderTx) RankRemainingPending(ctx context.Context, listed []int) error {
	query := `
		WITH ranked AS (
			SELECT id, row_number() OVER (ORDER BY pending_order ASC NULLS LAST, id ASC) AS rn
			FROM laundry_services
			WHERE status = 'PENDING' AND NOT (id = ANY($1::bigint[]))
		)
		UPDATE laundry_services s
		SET pending_order = ranked.rn + $2
		FROM ranked
		WHERE s.id = ranked.id AND s.pending_order IS DISTINCT FROM ranked.rn + $2`
	_, err := r.tx.Exec(ctx, query, listed, len(listed))
	return err
}

func (r *reorderTx) InsertActivity(ctx context.Context, entry types.ActivityEntry) error {
	return insertActivity(ctx, r.tx, entry)
}

func insertActivity(ctx context.Context, tx pgx.Tx, entry types.ActivityEntry) error {
	query := `
		INSERT INTO laundry_activity_logs
			(laundry_service_id, user_id, action, previous_status, new_status, description)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := tx.Exec(ctx, query,
		entry.OrderID, entry.UserID, string(entry.Action),
		statusOrNil(entry.PreviousStatus), statusOrNil(entry.NewStatus), entry.Description)
	if err != nil {
		return fmt.Errorf("failed writing activity %w", err)
	}
	return nil
}

func statusOrNil(s *types.Status) *string {
	if s == nil {
		return nil
	}
	v := string(*s)
	return &v
}
