package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/wellywell/laundry/internal/types"
)

const deliveryColumns = `id, laundry_service_id, created_by_user_id, assigned_to_user_id, scheduled_delivery_at,
	delivered_at, status, cancel_note, created_at, updated_at`

func collectDelivery(rows pgx.Rows, id int) (*types.Delivery, error) {
	delivery, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[types.Delivery])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w", &NotFoundError{Entity: "delivery", ID: id})
		}
		return nil, wrapWriteError(err)
	}
	return &delivery, nil
}

func (d *Database) ListDeliveries(ctx context.Context, f types.DeliveryFilter) (types.Page[types.Delivery], error) {
	where := `
		WHERE ($1 = 0 OR laundry_service_id = $1)
		AND ($2 = '' OR status = $2)
		AND ($3::timestamptz IS NULL OR scheduled_delivery_at >= $3)
		AND ($4::timestamptz IS NULL OR scheduled_delivery_at <= $4)`
	args := []any{f.OrderID, string(f.Status), f.From, f.To}

	var total int
	if err := d.pool.QueryRow(ctx, `SELECT count(*) FROM laundry_deliveries`+where, args...).Scan(&total); err != nil {
		return types.Page[types.Delivery]{}, fmt.Errorf("failed counting rows %w", err)
	}

	rows, err := d.pool.Query(ctx, `SELECT `+deliveryColumns+` FROM laundry_deliveries`+where+`
		ORDER BY id DESC
		LIMIT $5 OFFSET $6`, append(args, f.PerPage, (f.Page-1)*f.PerPage)...)
	if err != nil {
		return types.Page[types.Delivery]{}, fmt.Errorf("failed collecting rows %w", err)
	}
	deliveries, err := pgx.CollectRows(rows, pgx.RowToStructByName[types.Delivery])
	if err != nil {
		return types.Page[types.Delivery]{}, fmt.Errorf("failed unpacking rows %w", err)
	}
	return types.NewPage(deliveries, total, f.Page, f.PerPage), nil
}

func (d *Database) GetDelivery(ctx context.Context, id int) (*types.Delivery, error) {
	rows, err := d.pool.Query(ctx, `SELECT `+deliveryColumns+` FROM laundry_deliveries WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("failed collecting rows %w", err)
	}
	return collectDelivery(rows, id)
}

// CreateDelivery schedules a delivery for an order. New deliveries start PENDING.
func (d *Database) CreateDelivery(ctx context.Context, in types.Delivery, actorID int) (*types.Delivery, error) {
	var created *types.Delivery
	err := d.inTx(ctx, func(tx pgx.Tx) error {
		if _, err := orderStatus(ctx, tx, in.OrderID); err != nil {
			return err
		}
		rows, err := tx.Query(ctx, `
			INSERT INTO laundry_deliveries
				(laundry_service_id, created_by_user_id, assigned_to_user_id, scheduled_delivery_at,
				 delivered_at, status, cancel_note)
			VALUES ($1, $2, $3, $4, $5, 'PENDING', $6)
			RETURNING `+deliveryColumns,
			in.OrderID, actorID, in.AssignedToUserID, in.ScheduledDeliveryAt, in.DeliveredAt, in.CancelNote)
		if err != nil {
			return wrapWriteError(err)
		}
		created, err = collectDelivery(rows, 0)
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (d *Database) UpdateDelivery(ctx context.Context, id int, p types.DeliveryPatch) (*types.Delivery, error) {
	var updated *types.Delivery
	err := d.inTx(ctx, func(tx pgx.Tx) error {
		if p.OrderID != nil {
			if _, err := orderStatus(ctx, tx, *p.OrderID); err != nil {
				return err
			}
		}
		rows, err := tx.Query(ctx, `
			UPDATE laundry_deliveries SET
				laundry_service_id = COALESCE($2, laundry_service_id),
				assigned_to_user_id = COALESCE($3, assigned_to_user_id),
				scheduled_delivery_at = COALESCE($4, scheduled_delivery_at),
				delivered_at = COALESCE($5, delivered_at),
				cancel_note = COALESCE($6, cancel_note),
				updated_at = now()
			WHERE id = $1
			RETURNING `+deliveryColumns,
			id, p.OrderID, p.AssignedToUserID, p.ScheduledDeliveryAt, p.DeliveredAt, p.CancelNote)
		if err != nil {
			return wrapWriteError(err)
		}
		updated, err = collectDelivery(rows, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// ChangeDeliveryStatus sets the status. Moving to DELIVERED stamps delivered_at.
func (d *Database) ChangeDeliveryStatus(ctx context.Context, id int, status types.DeliveryStatus) (*types.Delivery, error) {
	rows, err := d.pool.Query(ctx, `
		UPDATE laundry_deliveries SET
			status = $2,
			delivered_at = CASE WHEN $2 = 'DELIVERED' THEN now() ELSE delivered_at END,
			updated_at = now()
		WHERE id = $1
		RETURNING `+deliveryColumns, id, string(status))
	if err != nil {
		return nil, fmt.Errorf("failed collecting rows %w", err)
	}
	return collectDelivery(rows, id)
}

func (d *Database) DeleteDelivery(ctx context.Context, id int) error {
	tag, err := d.pool.Exec(ctx, `DELETE FROM laundry_deliveries WHERE id = $1`, id)
	if err != nil {
		return wrapWriteError(err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w", &NotFoundError{Entity: "delivery", ID: id})
	}
	return nil
}
