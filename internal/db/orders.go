package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/wellywell/laundry/internal/types"
)

var ErrNotNoteOwner = errors.New("note belongs to another user")

const orderColumns = `id, client_id, client_address_id, scheduled_pickup_at, status, service_label,
	pending_order, transaction_id, detail, created_by_user_id, created_at, updated_at`

const tailRank = `(SELECT COALESCE(MAX(pending_order), 0) + 1 FROM laundry_services WHERE status = 'PENDING')`

func collectOrder(rows pgx.Rows, id int) (*types.Order, error) {
	order, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[types.Order])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w", &NotFoundError{Entity: "laundry service", ID: id})
		}
		return nil, wrapWriteError(err)
	}
	return &order, nil
}

// CreateOrder inserts an order and its CREATED activity entry. A PENDING
// order joins the tail of the pending queue.
func (d *Database) CreateOrder(ctx context.Context, in types.NewOrder, actorID int) (*types.Order, error) {
	status := in.Status
	if status == "" {
		status = types.PendingStatus
	}
	label := in.ServiceLabel
	if label == "" {
		label = types.NormalLabel
	}

	var created *types.Order
	err := d.inTx(ctx, func(tx pgx.Tx) error {
		if status == types.PendingStatus {
			if err := lockQueue(ctx, tx); err != nil {
				return err
			}
		}
		query := `
			INSERT INTO laundry_services
				(client_id, client_address_id, scheduled_pickup_at, status, service_label,
				 pending_order, transaction_id, detail, created_by_user_id)
			VALUES ($1, $2, $3, $4, $5,
				CASE WHEN $4 = 'PENDING' THEN ` + tailRank + ` END,
				$6, $7, $8)
			RETURNING ` + orderColumns

		rows, err := tx.Query(ctx, query,
			in.ClientID, in.ClientAddressID, in.ScheduledPickupAt, string(status), string(label),
			in.TransactionID, in.Detail, actorID)
		if err != nil {
			return wrapWriteError(err)
		}
		created, err = collectOrder(rows, 0)
		if err != nil {
			return err
		}

		actor := actorID
		return insertActivity(ctx, tx, types.ActivityEntry{
			OrderID:     created.ID,
			UserID:      &actor,
			Action:      types.CreatedAction,
			NewStatus:   &status,
			Description: "Laundry service created",
		})
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (d *Database) GetOrder(ctx context.Context, id int) (*types.Order, error) {
	rows, err := d.pool.Query(ctx, `SELECT `+orderColumns+` FROM laundry_services WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("failed collecting rows %w", err)
	}
	return collectOrder(rows, id)
}

func (d *Database) ListOrders(ctx context.Context, f types.OrderFilter) (types.Page[types.Order], error) {
	where := `
		WHERE ($1 = '' OR status = $1)
		AND ($2 = 0 OR client_id = $2)
		AND ($3::timestamptz IS NULL OR scheduled_pickup_at >= $3)
		AND ($4::timestamptz IS NULL OR scheduled_pickup_at <= $4)`
	args := []any{string(f.Status), f.ClientID, f.From, f.To}

	var total int
	if err := d.pool.QueryRow(ctx, `SELECT count(*) FROM laundry_services`+where, args...).Scan(&total); err != nil {
		return types.Page[types.Order]{}, fmt.Errorf("failed counting rows %w", err)
	}

	query := `SELECT ` + orderColumns + ` FROM laundry_services` + where + `
		ORDER BY id DESC
		LIMIT $5 OFFSET $6`
	rows, err := d.pool.Query(ctx, query, append(args, f.PerPage, (f.Page-1)*f.PerPage)...)
	if err != nil {
		return types.Page[types.Order]{}, fmt.Errorf("failed collecting rows %w", err)
	}
	orders, err := pgx.CollectRows(rows, pgx.RowToStructByName[types.Order])
	if err != nil {
		return types.Page[types.Order]{}, fmt.Errorf("failed unpacking rows %w", err)
	}
	return types.NewPage(orders, total, f.Page, f.PerPage), nil
}

func lockOrder(ctx context.Context, tx pgx.Tx, id int) (*types.OrderRank, error) {
	rows, err := tx.Query(ctx, `SELECT id, status, pending_order FROM laundry_services WHERE id = $1 FOR UPDATE`, id)
	if err != nil {
		return nil, fmt.Errorf("failed locking order %w", err)
	}
	current, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[types.OrderRank])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w", &NotFoundError{Entity: "laundry service", ID: id})
		}
		return nil, fmt.Errorf("failed unpacking rows %w", err)
	}
	return &current, nil
}

// moveStatus sets the status of a locked order and keeps pending ranks dense:
// entering PENDING takes the tail rank, leaving it closes the gap.
func moveStatus(ctx context.Context, tx pgx.Tx, current *types.OrderRank, to types.Status) error {
	from := current.Status
	var err error
	switch {
	case from == types.PendingStatus && to != types.PendingStatus:
		_, err = tx.Exec(ctx, `
			UPDATE laundry_services SET status = $2, pending_order = NULL, updated_at = now()
			WHERE id = $1`, current.ID, string(to))
		if err == nil && current.PendingOrder != nil {
			err = compactAbove(ctx, tx, *current.PendingOrder)
		}
	case from != types.PendingStatus && to == types.PendingStatus:
		_, err = tx.Exec(ctx, `
			UPDATE laundry_services SET status = 'PENDING', pending_order = `+tailRank+`, updated_at = now()
			WHERE id = $1`, current.ID)
	default:
		_, err = tx.Exec(ctx, `UPDATE laundry_services SET status = $2, updated_at = now() WHERE id = $1`,
			current.ID, string(to))
	}
	if err != nil {
		return wrapWriteError(err)
	}
	return nil
}

func compactAbove(ctx context.Context, tx pgx.Tx, rank int) error {
	_, err := tx.Exec(ctx, `
		UPDATE laundry_services SET pending_order = pending_order - 1
		WHERE status = 'PENDING' AND pending_order > $1`, rank)
	if err != nil {
		return fmt.Errorf("failed compacting ranks %w", err)
	}
	return nil
}

func (d *Database) readOrder(ctx context.Context, tx pgx.Tx, id int) (*types.Order, error) {
	rows, err := tx.Query(ctx, `SELECT `+orderColumns+` FROM laundry_services WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("failed collecting rows %w", err)
	}
	return collectOrder(rows, id)
}

// UpdateOrder applies a partial update. A status change inside the patch is
// handled like ChangeOrderStatus.
func (d *Database) UpdateOrder(ctx context.Context, id int, p types.OrderPatch, actorID int) (*types.OrderChange, error) {
	var change types.OrderChange
	err := d.inTx(ctx, func(tx pgx.Tx) error {
		if err := lockQueue(ctx, tx); err != nil {
			return err
		}
		current, err := lockOrder(ctx, tx, id)
		if err != nil {
			return err
		}
		change.PreviousStatus = current.Status

		var label *string
		if p.ServiceLabel != nil {
			v := string(*p.ServiceLabel)
			label = &v
		}
		_, err = tx.Exec(ctx, `
			UPDATE laundry_services SET
				client_id = COALESCE($2, client_id),
				client_address_id = COALESCE($3, client_address_id),
				scheduled_pickup_at = COALESCE($4, scheduled_pickup_at),
				service_label = COALESCE($5, service_label),
				transaction_id = COALESCE($6, transaction_id),
				detail = COALESCE($7, detail),
				updated_at = now()
			WHERE id = $1`,
			id, p.ClientID, p.ClientAddressID, p.ScheduledPickupAt, label, p.TransactionID, p.Detail)
		if err != nil {
			return wrapWriteError(err)
		}

		actor := actorID
		if p.Status != nil && *p.Status != current.Status {
			if err := moveStatus(ctx, tx, current, *p.Status); err != nil {
				return err
			}
			prev := current.Status
			if err := insertActivity(ctx, tx, types.ActivityEntry{
				OrderID:        id,
				UserID:         &actor,
				Action:         types.StatusChangedAction,
				PreviousStatus: &prev,
				NewStatus:      p.Status,
				Description:    fmt.Sprintf("Status changed to %s", *p.Status),
			}); err != nil {
				return err
			}
		}
		if err := insertActivity(ctx, tx, types.ActivityEntry{
			OrderID:     id,
			UserID:      &actor,
			Action:      types.UpdatedAction,
			Description: "Laundry service updated",
		}); err != nil {
			return err
		}

		updated, err := d.readOrder(ctx, tx, id)
		if err != nil {
			return err
		}
		change.Order = *updated
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &change, nil
}

// ChangeOrderStatus moves an order to status and records a STATUS_CHANGED entry.
func (d *Database) ChangeOrderStatus(ctx context.Context, id int, status types.Status, actorID int) (*types.OrderChange, error) {
	var change types.OrderChange
	err := d.inTx(ctx, func(tx pgx.Tx) error {
		if err := lockQueue(ctx, tx); err != nil {
			return err
		}
		current, err := lockOrder(ctx, tx, id)
		if err != nil {
			return err
		}
		change.PreviousStatus = current.Status

		if err := moveStatus(ctx, tx, current, status); err != nil {
			return err
		}
		actor := actorID
		prev := current.Status
		next := status
		if err := insertActivity(ctx, tx, types.ActivityEntry{
			OrderID:        id,
			UserID:         &actor,
			Action:         types.StatusChangedAction,
			PreviousStatus: &prev,
			NewStatus:      &next,
			Description:    fmt.Sprintf("Status changed to %s", status),
		}); err != nil {
			return err
		}

		updated, err := d.readOrder(ctx, tx, id)
		if err != nil {
			return err
		}
		change.Order = *updated
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &change, nil
}

// DeleteOrder removes an order with its logs and returns the status it had.
func (d *Database) DeleteOrder(ctx context.Context, id int) (types.Status, error) {
	var status types.Status
	err := d.inTx(ctx, func(tx pgx.Tx) error {
		if err := lockQueue(ctx, tx); err != nil {
			return err
		}
		current, err := lockOrder(ctx, tx, id)
		if err != nil {
			return err
		}
		status = current.Status

		if _, err := tx.Exec(ctx, `DELETE FROM laundry_services WHERE id = $1`, id); err != nil {
			return wrapWriteError(err)
		}
		if current.Status == types.PendingStatus && current.PendingOrder != nil {
			return compactAbove(ctx, tx, *current.PendingOrder)
		}
		return nil
	})
	return status, err
}

func (d *Database) ListActivity(ctx context.Context, orderID int) ([]types.ActivityEntry, error) {
	query := `
		SELECT id, laundry_service_id, user_id, action, previous_status, new_status, description, created_at
		FROM laundry_activity_logs
		WHERE laundry_service_id = $1
		ORDER BY created_at, id
		LIMIT 1000`
	rows, err := d.pool.Query(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed collecting rows %w", err)
	}
	entries, err := pgx.CollectRows(rows, pgx.RowToStructByName[types.ActivityEntry])
	if err != nil {
		return nil, fmt.Errorf("failed unpacking rows %w", err)
	}
	return entries, nil
}

// CreateNote attaches a note stamped with the order's current status.
func (d *Database) CreateNote(ctx context.Context, orderID int, detail string, actorID int) (*types.Note, error) {
	var note types.Note
	err := d.inTx(ctx, func(tx pgx.Tx) error {
		current, err := lockOrder(ctx, tx, orderID)
		if err != nil {
			return err
		}
		rows, err := tx.Query(ctx, `
			INSERT INTO laundry_service_logs (laundry_service_id, status, detail, created_by_user_id)
			VALUES ($1, $2, $3, $4)
			RETURNING id, laundry_service_id, status, detail, created_by_user_id, created_at`,
			orderID, string(current.Status), detail, actorID)
		if err != nil {
			return wrapWriteError(err)
		}
		note, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[types.Note])
		if err != nil {
			return fmt.Errorf("failed unpacking rows %w", err)
		}
		actor := actorID
		return insertActivity(ctx, tx, types.ActivityEntry{
			OrderID:     orderID,
			UserID:      &actor,
			Action:      types.NoteAction,
			Description: detail,
		})
	})
	if err != nil {
		return nil, err
	}
	return &note, nil
}

func (d *Database) ListNotes(ctx context.Context, orderID int) ([]types.Note, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT id, laundry_service_id, status, detail, created_by_user_id, created_at
		FROM laundry_service_logs
		WHERE laundry_service_id = $1
		ORDER BY created_at, id`, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed collecting rows %w", err)
	}
	notes, err := pgx.CollectRows(rows, pgx.RowToStructByName[types.Note])
	if err != nil {
		return nil, fmt.Errorf("failed unpacking rows %w", err)
	}
	return notes, nil
}

// DeleteNote removes a note written by actorID.
func (d *Database) DeleteNote(ctx context.Context, noteID int, actorID int) error {
	var owner *int
	err := d.pool.QueryRow(ctx, `SELECT created_by_user_id FROM laundry_service_logs WHERE id = $1`, noteID).Scan(&owner)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w", &NotFoundError{Entity: "note", ID: noteID})
		}
		return fmt.Errorf("unexpected DB error %w", err)
	}
	if owner == nil || *owner != actorID {
		return ErrNotNoteOwner
	}
	if _, err := d.pool.Exec(ctx, `DELETE FROM laundry_service_logs WHERE id = $1`, noteID); err != nil {
		return fmt.Errorf("unexpected DB error %w", err)
	}
	return nil
}
