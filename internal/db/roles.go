package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/wellywell/laundry/internal/types"
)

const roleColumns = `id, name, description, created_at, updated_at`

type RoleExistsError struct {
	Name string
}

func (e *RoleExistsError) Error() string {
	return fmt.Sprintf("Role %s exists", e.Name)
}

func (d *Database) ListRoles(ctx context.Context) ([]types.Role, error) {
	rows, err := d.pool.Query(ctx, `SELECT `+roleColumns+` FROM roles ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed collecting rows %w", err)
	}
	roles, err := pgx.CollectRows(rows, pgx.RowToStructByName[types.Role])
	if err != nil {
		return nil, fmt.Errorf("failed unpacking rows %w", err)
	}
	return roles, nil
}

func (d *Database) GetRoleByName(ctx context.Context, name string) (*types.Role, error) {
	rows, err := d.pool.Query(ctx, `SELECT `+roleColumns+` FROM roles WHERE name = $1`, name)
	if err != nil {
		return nil, fmt.Errorf("failed collecting rows %w", err)
	}
	role, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[types.Role])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w", &NotFoundError{Entity: "role " + name})
		}
		return nil, fmt.Errorf("failed unpacking rows %w", err)
	}
	return &role, nil
}

func (d *Database) CreateRole(ctx context.Context, name, description string) (*types.Role, error) {
	rows, err := d.pool.Query(ctx, `
		INSERT INTO roles (name, description) VALUES ($1, $2)
		RETURNING `+roleColumns, name, description)
	if err != nil {
		return nil, fmt.Errorf("failed collecting rows %w", err)
	}
	role, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[types.Role])
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w", &RoleExistsError{Name: name})
		}
		return nil, wrapWriteError(err)
	}
	return &role, nil
}

func (d *Database) UpdateRole(ctx context.Context, id int, name, description *string) (*types.Role, error) {
	rows, err := d.pool.Query(ctx, `
		UPDATE roles SET
			name = COALESCE($2, name),
			description = COALESCE($3, description),
			updated_at = now()
		WHERE id = $1
		RETURNING `+roleColumns, id, name, description)
	if err != nil {
		return nil, fmt.Errorf("failed collecting rows %w", err)
	}
	role, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[types.Role])
	if err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			return nil, fmt.Errorf("%w", &NotFoundError{Entity: "role", ID: id})
		case isUniqueViolation(err) && name != nil:
			return nil, fmt.Errorf("%w", &RoleExistsError{Name: *name})
		}
		return nil, wrapWriteError(err)
	}
	return &role, nil
}

// DeleteRole fails with ReferenceError while users still hold the role.
func (d *Database) DeleteRole(ctx context.Context, id int) error {
	tag, err := d.pool.Exec(ctx, `DELETE FROM roles WHERE id = $1`, id)
	if err != nil {
		return wrapWriteError(err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w", &NotFoundError{Entity: "role", ID: id})
	}
	return nil
}
