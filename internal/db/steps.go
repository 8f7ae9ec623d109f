package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/wellywell/laundry/internal/types"
)

const stepColumns = `id, laundry_service_id, step_type, started_by_user_id, completed_by_user_id,
	started_at, completed_at, notes`

func collectStep(rows pgx.Rows, id int) (*types.ProcessingStep, error) {
	step, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[types.ProcessingStep])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w", &NotFoundError{Entity: "processing step", ID: id})
		}
		return nil, wrapWriteError(err)
	}
	return &step, nil
}

func orderStatus(ctx context.Context, tx pgx.Tx, orderID int) (types.Status, error) {
	var status types.Status
	err := tx.QueryRow(ctx, `SELECT status FROM laundry_services WHERE id = $1`, orderID).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", fmt.Errorf("%w", &NotFoundError{Entity: "laundry service", ID: orderID})
		}
		return "", fmt.Errorf("unexpected DB error %w", err)
	}
	return status, nil
}

func (d *Database) ListSteps(ctx context.Context, f types.StepFilter) (types.Page[types.ProcessingStep], error) {
	where := ` WHERE ($1 = 0 OR laundry_service_id = $1) AND ($2 = '' OR step_type = $2)`
	args := []any{f.OrderID, string(f.StepType)}

	var total int
	if err := d.pool.QueryRow(ctx, `SELECT count(*) FROM laundry_processing_steps`+where, args...).Scan(&total); err != nil {
		return types.Page[types.ProcessingStep]{}, fmt.Errorf("failed counting rows %w", err)
	}

	rows, err := d.pool.Query(ctx, `SELECT `+stepColumns+` FROM laundry_processing_steps`+where+`
		ORDER BY id DESC
		LIMIT $3 OFFSET $4`, append(args, f.PerPage, (f.Page-1)*f.PerPage)...)
	if err != nil {
		return types.Page[types.ProcessingStep]{}, fmt.Errorf("failed collecting rows %w", err)
	}
	steps, err := pgx.CollectRows(rows, pgx.RowToStructByName[types.ProcessingStep])
	if err != nil {
		return types.Page[types.ProcessingStep]{}, fmt.Errorf("failed unpacking rows %w", err)
	}
	return types.NewPage(steps, total, f.Page, f.PerPage), nil
}

func (d *Database) GetStep(ctx context.Context, id int) (*types.ProcessingStep, error) {
	rows, err := d.pool.Query(ctx, `SELECT `+stepColumns+` FROM laundry_processing_steps WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("failed collecting rows %w", err)
	}
	return collectStep(rows, id)
}

// CreateStep starts a processing step on an order.
func (d *Database) CreateStep(ctx context.Context, in types.NewProcessingStep, actorID int) (*types.StepChange, error) {
	var change types.StepChange
	err := d.inTx(ctx, func(tx pgx.Tx) error {
		status, err := orderStatus(ctx, tx, in.OrderID)
		if err != nil {
			return err
		}
		change.OrderStatus = status

		rows, err := tx.Query(ctx, `
			INSERT INTO laundry_processing_steps (laundry_service_id, step_type, started_by_user_id, notes)
			VALUES ($1, $2, $3, $4)
			RETURNING `+stepColumns, in.OrderID, string(in.StepType), actorID, in.Notes)
		if err != nil {
			return wrapWriteError(err)
		}
		step, err := collectStep(rows, 0)
		if err != nil {
			return err
		}
		change.Step = *step
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &change, nil
}

// stepOrderStatus reads the status of the order that owns a step.
func stepOrderStatus(ctx context.Context, tx pgx.Tx, stepID int) (types.Status, error) {
	var status types.Status
	err := tx.QueryRow(ctx, `
		SELECT s.status
		FROM laundry_processing_steps p
		JOIN laundry_services s ON s.id = p.laundry_service_id
		WHERE p.id = $1`, stepID).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", fmt.Errorf("%w", &NotFoundError{Entity: "processing step", ID: stepID})
		}
		return "", fmt.Errorf("unexpected DB error %w", err)
	}
	return status, nil
}

func (d *Database) writeStep(ctx context.Context, id int, query string, args ...any) (*types.StepChange, error) {
	var change types.StepChange
	err := d.inTx(ctx, func(tx pgx.Tx) error {
		status, err := stepOrderStatus(ctx, tx, id)
		if err != nil {
			return err
		}
		change.OrderStatus = status

		rows, err := tx.Query(ctx, query, append([]any{id}, args...)...)
		if err != nil {
			return wrapWriteError(err)
		}
		step, err := collectStep(rows, id)
		if err != nil {
			return err
		}
		change.Step = *step
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &change, nil
}

func (d *Database) UpdateStep(ctx context.Context, id int, p types.ProcessingStepPatch) (*types.StepChange, error) {
	var stepType *string
	if p.StepType != nil {
		v := string(*p.StepType)
		stepType = &v
	}
	return d.writeStep(ctx, id, `
		UPDATE laundry_processing_steps SET
			step_type = COALESCE($2, step_type),
			notes = COALESCE($3, notes)
		WHERE id = $1
		RETURNING `+stepColumns, stepType, p.Notes)
}

// CompleteStep stamps the step as completed by actorID now.
func (d *Database) CompleteStep(ctx context.Context, id int, actorID int) (*types.StepChange, error) {
	return d.writeStep(ctx, id, `
		UPDATE laundry_processing_steps SET completed_by_user_id = $2, completed_at = now()
		WHERE id = $1
		RETURNING `+stepColumns, actorID)
}

// DeleteStep removes a step and returns the status of its order.
func (d *Database) DeleteStep(ctx context.Context, id int) (types.Status, error) {
	var status types.Status
	err := d.inTx(ctx, func(tx pgx.Tx) error {
		var err error
		status, err = stepOrderStatus(ctx, tx, id)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM laundry_processing_steps WHERE id = $1`, id); err != nil {
			return wrapWriteError(err)
		}
		return nil
	})
	return status, err
}
