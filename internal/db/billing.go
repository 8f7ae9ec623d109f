package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/wellywell/laundry/internal/types"
)

const transactionColumns = `id, user_id, transaction_type, payment_type_id, detail, amount, created_at, updated_at`

func (d *Database) ListPaymentTypes(ctx context.Context) ([]types.PaymentType, error) {
	rows, err := d.pool.Query(ctx, `SELECT id, name, description, created_at FROM payment_types ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed collecting rows %w", err)
	}
	result, err := pgx.CollectRows(rows, pgx.RowToStructByName[types.PaymentType])
	if err != nil {
		return nil, fmt.Errorf("failed unpacking rows %w", err)
	}
	return result, nil
}

func (d *Database) CreatePaymentType(ctx context.Context, name, description string) (*types.PaymentType, error) {
	rows, err := d.pool.Query(ctx, `
		INSERT INTO payment_types (name, description) VALUES ($1, $2)
		RETURNING id, name, description, created_at`, name, description)
	if err != nil {
		return nil, fmt.Errorf("failed collecting rows %w", err)
	}
	created, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[types.PaymentType])
	if err != nil {
		return nil, wrapWriteError(err)
	}
	return &created, nil
}

func (d *Database) CreateTransaction(ctx context.Context, t types.Transaction) (*types.Transaction, error) {
	rows, err := d.pool.Query(ctx, `
		INSERT INTO transactions (user_id, transaction_type, payment_type_id, detail, amount)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+transactionColumns,
		t.UserID, string(t.TransactionType), t.PaymentTypeID, t.Detail, t.Amount)
	if err != nil {
		return nil, fmt.Errorf("failed collecting rows %w", err)
	}
	created, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[types.Transaction])
	if err != nil {
		return nil, wrapWriteError(err)
	}
	return &created, nil
}

func (d *Database) GetTransaction(ctx context.Context, id int) (*types.Transaction, error) {
	rows, err := d.pool.Query(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("failed collecting rows %w", err)
	}
	t, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[types.Transaction])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w", &NotFoundError{Entity: "transaction", ID: id})
		}
		return nil, fmt.Errorf("failed unpacking rows %w", err)
	}
	return &t, nil
}

func (d *Database) ListTransactions(ctx context.Context, f types.TransactionFilter) (types.Page[types.Transaction], error) {
	where := ` WHERE ($1 = 0 OR user_id = $1) AND ($2 = '' OR transaction_type = $2)`
	args := []any{f.UserID, string(f.TransactionType)}

	var total int
	if err := d.pool.QueryRow(ctx, `SELECT count(*) FROM transactions`+where, args...).Scan(&total); err != nil {
		return types.Page[types.Transaction]{}, fmt.Errorf("failed counting rows %w", err)
	}

	rows, err := d.pool.Query(ctx, `SELECT `+transactionColumns+` FROM transactions`+where+`
		ORDER BY created_at DESC, id DESC
		LIMIT $3 OFFSET $4`, append(args, f.PerPage, (f.Page-1)*f.PerPage)...)
	if err != nil {
		return types.Page[types.Transaction]{}, fmt.Errorf("failed collecting rows %w", err)
	}
	result, err := pgx.CollectRows(rows, pgx.RowToStructByName[types.Transaction])
	if err != nil {
		return types.Page[types.Transaction]{}, fmt.Errorf("failed unpacking rows %w", err)
	}
	return types.NewPage(result, total, f.Page, f.PerPage), nil
}

const categoryColumns = `id, category_name, created_at, updated_at`

func (d *Database) ListCategories(ctx context.Context) ([]types.TransactionCategory, error) {
	rows, err := d.pool.Query(ctx, `SELECT `+categoryColumns+` FROM transaction_categories ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed collecting rows %w", err)
	}
	result, err := pgx.CollectRows(rows, pgx.RowToStructByName[types.TransactionCategory])
	if err != nil {
		return nil, fmt.Errorf("failed unpacking rows %w", err)
	}
	return result, nil
}

func (d *Database) CreateCategory(ctx context.Context, name string) (*types.TransactionCategory, error) {
	rows, err := d.pool.Query(ctx, `
		INSERT INTO transaction_categories (category_name) VALUES ($1)
		RETURNING `+categoryColumns, name)
	if err != nil {
		return nil, fmt.Errorf("failed collecting rows %w", err)
	}
	created, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[types.TransactionCategory])
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w", &CategoryExistsError{Name: name})
		}
		return nil, wrapWriteError(err)
	}
	return &created, nil
}

func (d *Database) UpdateCategory(ctx context.Context, id int, name string) (*types.TransactionCategory, error) {
	rows, err := d.pool.Query(ctx, `
		UPDATE transaction_categories SET category_name = $2, updated_at = now()
		WHERE id = $1
		RETURNING `+categoryColumns, id, name)
	if err != nil {
		return nil, fmt.Errorf("failed collecting rows %w", err)
	}
	updated, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[types.TransactionCategory])
	if err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			return nil, fmt.Errorf("%w", &NotFoundError{Entity: "category", ID: id})
		case isUniqueViolation(err):
			return nil, fmt.Errorf("%w", &CategoryExistsError{Name: name})
		}
		return nil, wrapWriteError(err)
	}
	return &updated, nil
}

func (d *Database) DeleteCategory(ctx context.Context, id int) error {
	tag, err := d.pool.Exec(ctx, `DELETE FROM transaction_categories WHERE id = $1`, id)
	if err != nil {
		return wrapWriteError(err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w", &NotFoundError{Entity: "category", ID: id})
	}
	return nil
}
