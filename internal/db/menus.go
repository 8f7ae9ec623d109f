package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/wellywell/laundry/internal/types"
)

const menuColumns = `m.id, m.label, m.path, m.show_in_sidebar, m.sort_order, m.parent_id`

func collectMenu(rows pgx.Rows, id int) (*types.Menu, error) {
	menu, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[types.Menu])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w", &NotFoundError{Entity: "menu", ID: id})
		}
		return nil, wrapWriteError(err)
	}
	return &menu, nil
}

func collectMenus(rows pgx.Rows) ([]types.Menu, error) {
	menus, err := pgx.CollectRows(rows, pgx.RowToStructByName[types.Menu])
	if err != nil {
		return nil, fmt.Errorf("failed unpacking rows %w", err)
	}
	return menus, nil
}

func (d *Database) ListMenus(ctx context.Context) ([]types.Menu, error) {
	rows, err := d.pool.Query(ctx, `SELECT `+menuColumns+` FROM menus m ORDER BY m.sort_order, m.id`)
	if err != nil {
		return nil, fmt.Errorf("failed collecting rows %w", err)
	}
	return collectMenus(rows)
}

// ListUserMenus returns the menus granted to the role of userID.
func (d *Database) ListUserMenus(ctx context.Context, userID int) ([]types.Menu, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT `+menuColumns+`
		FROM menus m
		JOIN menu_roles mr ON mr.menu_id = m.id
		JOIN users u ON u.role_id = mr.role_id
		WHERE u.id = $1
		ORDER BY m.sort_order, m.id`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed collecting rows %w", err)
	}
	return collectMenus(rows)
}

func (d *Database) CreateMenu(ctx context.Context, m types.Menu) (*types.Menu, error) {
	rows, err := d.pool.Query(ctx, `
		INSERT INTO menus AS m (label, path, show_in_sidebar, sort_order, parent_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+menuColumns, m.Label, m.Path, m.ShowInSidebar, m.Order, m.ParentID)
	if err != nil {
		return nil, fmt.Errorf("failed collecting rows %w", err)
	}
	return collectMenu(rows, 0)
}

func (d *Database) UpdateMenu(ctx context.Context, id int, p types.MenuPatch) (*types.Menu, error) {
	rows, err := d.pool.Query(ctx, `
		UPDATE menus AS m SET
			label = COALESCE($2, label),
			path = COALESCE($3, path),
			show_in_sidebar = COALESCE($4, show_in_sidebar),
			sort_order = COALESCE($5, sort_order),
			parent_id = COALESCE($6, parent_id)
		WHERE m.id = $1
		RETURNING `+menuColumns, id, p.Label, p.Path, p.ShowInSidebar, p.Order, p.ParentID)
	if err != nil {
		return nil, fmt.Errorf("failed collecting rows %w", err)
	}
	return collectMenu(rows, id)
}

func (d *Database) DeleteMenu(ctx context.Context, id int) error {
	tag, err := d.pool.Exec(ctx, `DELETE FROM menus WHERE id = $1`, id)
	if err != nil {
		return wrapWriteError(err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w", &NotFoundError{Entity: "menu", ID: id})
	}
	return nil
}

// AssignMenuRole grants a menu to a role. Granting twice is a no-op.
func (d *Database) AssignMenuRole(ctx context.Context, menuID, roleID int) error {
	return d.inTx(ctx, func(tx pgx.Tx) error {
		if err := requireRow(ctx, tx, "menus", "menu", menuID); err != nil {
			return err
		}
		if err := requireRow(ctx, tx, "roles", "role", roleID); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `
			INSERT INTO menu_roles (menu_id, role_id) VALUES ($1, $2)
			ON CONFLICT DO NOTHING`, menuID, roleID)
		if err != nil {
			return wrapWriteError(err)
		}
		return nil
	})
}

// RemoveMenuRole revokes a menu from a role. Revoking a missing grant is a no-op.
func (d *Database) RemoveMenuRole(ctx context.Context, menuID, roleID int) error {
	return d.inTx(ctx, func(tx pgx.Tx) error {
		if err := requireRow(ctx, tx, "menus", "menu", menuID); err != nil {
			return err
		}
		if err := requireRow(ctx, tx, "roles", "role", roleID); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM menu_roles WHERE menu_id = $1 AND role_id = $2`, menuID, roleID); err != nil {
			return fmt.Errorf("unexpected DB error %w", err)
		}
		return nil
	})
}
