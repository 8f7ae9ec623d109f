package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/wellywell/laundry/internal/types"
)

const clientColumns = `id, name, email, document_id, created_at, updated_at`

const addressColumns = `id, client_id, address_text, latitude, longitude, map_link, image_path, is_primary, created_at`

const phoneColumns = `id, client_id, phone_number, description, is_primary, created_at`

// ListClients pages through clients that are not deleted, optionally
// filtered by a case-insensitive name match.
func (d *Database) ListClients(ctx context.Context, q string, page, perPage int) (types.Page[types.Client], error) {
	where := ` WHERE NOT is_deleted AND ($1 = '' OR name ILIKE '%' || $1 || '%')`

	var total int
	if err := d.pool.QueryRow(ctx, `SELECT count(*) FROM clients`+where, q).Scan(&total); err != nil {
		return types.Page[types.Client]{}, fmt.Errorf("failed counting rows %w", err)
	}

	rows, err := d.pool.Query(ctx, `SELECT `+clientColumns+` FROM clients`+where+`
		ORDER BY name, id
		LIMIT $2 OFFSET $3`, q, perPage, (page-1)*perPage)
	if err != nil {
		return types.Page[types.Client]{}, fmt.Errorf("failed collecting rows %w", err)
	}
	clients, err := pgx.CollectRows(rows, pgx.RowToStructByName[types.Client])
	if err != nil {
		return types.Page[types.Client]{}, fmt.Errorf("failed unpacking rows %w", err)
	}
	return types.NewPage(clients, total, page, perPage), nil
}

func (d *Database) GetClient(ctx context.Context, id int) (*types.Client, error) {
	rows, err := d.pool.Query(ctx, `SELECT `+clientColumns+` FROM clients WHERE id = $1 AND NOT is_deleted`, id)
	if err != nil {
		return nil, fmt.Errorf("failed collecting rows %w", err)
	}
	client, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[types.Client])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w", &NotFoundError{Entity: "client", ID: id})
		}
		return nil, fmt.Errorf("failed unpacking rows %w", err)
	}

	client.Addresses, err = d.ListAddresses(ctx, id)
	if err != nil {
		return nil, err
	}
	client.Phones, err = d.ListPhones(ctx, id)
	if err != nil {
		return nil, err
	}
	return &client, nil
}

func (d *Database) CreateClient(ctx context.Context, c types.Client, actorID int) (*types.Client, error) {
	rows, err := d.pool.Query(ctx, `
		INSERT INTO clients (name, email, document_id, created_by, updated_by)
		VALUES ($1, $2, $3, $4, $4)
		RETURNING `+clientColumns, c.Name, c.Email, c.DocumentID, actorID)
	if err != nil {
		return nil, fmt.Errorf("failed collecting rows %w", err)
	}
	created, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[types.Client])
	if err != nil {
		return nil, wrapWriteError(err)
	}
	return &created, nil
}

func (d *Database) UpdateClient(ctx context.Context, id int, p types.ClientPatch, actorID int) (*types.Client, error) {
	rows, err := d.pool.Query(ctx, `
		UPDATE clients SET
			name = COALESCE($2, name),
			email = COALESCE($3, email),
			document_id = COALESCE($4, document_id),
			updated_by = $5,
			updated_at = now()
		WHERE id = $1 AND NOT is_deleted
		RETURNING `+clientColumns, id, p.Name, p.Email, p.DocumentID, actorID)
	if err != nil {
		return nil, fmt.Errorf("failed collecting rows %w", err)
	}
	updated, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[types.Client])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w", &NotFoundError{Entity: "client", ID: id})
		}
		return nil, wrapWriteError(err)
	}
	return &updated, nil
}

// DeleteClient marks a client deleted. Its orders and addresses stay.
func (d *Database) DeleteClient(ctx context.Context, id int, actorID int) error {
	tag, err := d.pool.Exec(ctx, `
		UPDATE clients SET is_deleted = TRUE, updated_by = $2, updated_at = now()
		WHERE id = $1 AND NOT is_deleted`, id, actorID)
	if err != nil {
		return fmt.Errorf("unexpected DB error %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w", &NotFoundError{Entity: "client", ID: id})
	}
	return nil
}

func requireClient(ctx context.Context, tx pgx.Tx, clientID int) error {
	var exists bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM clients WHERE id = $1 AND NOT is_deleted)`,
		clientID).Scan(&exists); err != nil {
		return fmt.Errorf("unexpected DB error %w", err)
	}
	if !exists {
		return fmt.Errorf("%w", &NotFoundError{Entity: "client", ID: clientID})
	}
	return nil
}

func (d *Database) ListAddresses(ctx context.Context, clientID int) ([]types.Address, error) {
	rows, err := d.pool.Query(ctx, `SELECT `+addressColumns+`
		FROM client_addresses
		WHERE client_id = $1
		ORDER BY is_primary DESC, id`, clientID)
	if err != nil {
		return nil, fmt.Errorf("failed collecting rows %w", err)
	}
	addresses, err := pgx.CollectRows(rows, pgx.RowToStructByName[types.Address])
	if err != nil {
		return nil, fmt.Errorf("failed unpacking rows %w", err)
	}
	return addresses, nil
}

// CreateAddress adds an address. A primary address demotes the previous one.
func (d *Database) CreateAddress(ctx context.Context, a types.Address) (*types.Address, error) {
	var created types.Address
	err := d.inTx(ctx, func(tx pgx.Tx) error {
		if err := requireClient(ctx, tx, a.ClientID); err != nil {
			return err
		}

		if a.IsPrimary {
			if _, err := tx.Exec(ctx, `UPDATE client_addresses SET is_primary = FALSE WHERE client_id = $1`, a.ClientID); err != nil {
				return fmt.Errorf("unexpected DB error %w", err)
			}
		}
		rows, err := tx.Query(ctx, `
			INSERT INTO client_addresses (client_id, address_text, latitude, longitude, map_link, image_path, is_primary)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING `+addressColumns,
			a.ClientID, a.AddressText, a.Latitude, a.Longitude, a.MapLink, a.ImagePath, a.IsPrimary)
		if err != nil {
			return fmt.Errorf("failed collecting rows %w", err)
		}
		created, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[types.Address])
		if err != nil {
			return wrapWriteError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (d *Database) DeleteAddress(ctx context.Context, clientID, addressID int) error {
	tag, err := d.pool.Exec(ctx, `DELETE FROM client_addresses WHERE id = $1 AND client_id = $2`, addressID, clientID)
	if err != nil {
		return wrapWriteError(err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w", &NotFoundError{Entity: "address", ID: addressID})
	}
	return nil
}

func (d *Database) GetAddress(ctx context.Context, clientID, addressID int) (*types.Address, error) {
	rows, err := d.pool.Query(ctx, `SELECT `+addressColumns+`
		FROM client_addresses
		WHERE id = $1 AND client_id = $2`, addressID, clientID)
	if err != nil {
		return nil, fmt.Errorf("failed collecting rows %w", err)
	}
	address, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[types.Address])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w", &NotFoundError{Entity: "address", ID: addressID})
		}
		return nil, fmt.Errorf("failed unpacking rows %w", err)
	}
	return &address, nil
}

// UpdateAddress applies a partial update. Becoming primary demotes the others.
func (d *Database) UpdateAddress(ctx context.Context, clientID, addressID int, p types.AddressPatch) (*types.Address, error) {
	var updated types.Address
	err := d.inTx(ctx, func(tx pgx.Tx) error {
		if p.IsPrimary != nil && *p.IsPrimary {
			if _, err := tx.Exec(ctx, `UPDATE client_addresses SET is_primary = FALSE
				WHERE client_id = $1 AND id <> $2`, clientID, addressID); err != nil {
				return fmt.Errorf("unexpected DB error %w", err)
			}
		}
		rows, err := tx.Query(ctx, `
			UPDATE client_addresses SET
				address_text = COALESCE($3, address_text),
				latitude = COALESCE($4, latitude),
				longitude = COALESCE($5, longitude),
				map_link = COALESCE($6, map_link),
				image_path = COALESCE($7, image_path),
				is_primary = COALESCE($8, is_primary)
			WHERE id = $1 AND client_id = $2
			RETURNING `+addressColumns,
			addressID, clientID, p.AddressText, p.Latitude, p.Longitude, p.MapLink, p.ImagePath, p.IsPrimary)
		if err != nil {
			return fmt.Errorf("failed collecting rows %w", err)
		}
		updated, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[types.Address])
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("%w", &NotFoundError{Entity: "address", ID: addressID})
			}
			return wrapWriteError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (d *Database) ListPhones(ctx context.Context, clientID int) ([]types.Phone, error) {
	rows, err := d.pool.Query(ctx, `SELECT `+phoneColumns+`
		FROM client_phones
		WHERE client_id = $1
		ORDER BY is_primary DESC, id`, clientID)
	if err != nil {
		return nil, fmt.Errorf("failed collecting rows %w", err)
	}
	phones, err := pgx.CollectRows(rows, pgx.RowToStructByName[types.Phone])
	if err != nil {
		return nil, fmt.Errorf("failed unpacking rows %w", err)
	}
	return phones, nil
}

func (d *Database) GetPhone(ctx context.Context, clientID, phoneID int) (*types.Phone, error) {
	rows, err := d.pool.Query(ctx, `SELECT `+phoneColumns+` FROM client_phones WHERE id = $1 AND client_id = $2`,
		phoneID, clientID)
	if err != nil {
		return nil, fmt.Errorf("failed collecting rows %w", err)
	}
	phone, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[types.Phone])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w", &NotFoundError{Entity: "phone", ID: phoneID})
		}
		return nil, fmt.Errorf("failed unpacking rows %w", err)
	}
	return &phone, nil
}

func (d *Database) CreatePhone(ctx context.Context, p types.Phone) (*types.Phone, error) {
	var created types.Phone
	err := d.inTx(ctx, func(tx pgx.Tx) error {
		if err := requireClient(ctx, tx, p.ClientID); err != nil {
			return err
		}
		rows, err := tx.Query(ctx, `
			INSERT INTO client_phones (client_id, phone_number, description, is_primary)
			VALUES ($1, $2, $3, $4)
			RETURNING `+phoneColumns, p.ClientID, p.PhoneNumber, p.Description, p.IsPrimary)
		if err != nil {
			return fmt.Errorf("failed collecting rows %w", err)
		}
		created, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[types.Phone])
		if err != nil {
			return wrapWriteError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (d *Database) UpdatePhone(ctx context.Context, clientID, phoneID int, p types.PhonePatch) (*types.Phone, error) {
	rows, err := d.pool.Query(ctx, `
		UPDATE client_phones SET
			phone_number = COALESCE($3, phone_number),
			description = COALESCE($4, description),
			is_primary = COALESCE($5, is_primary)
		WHERE id = $1 AND client_id = $2
		RETURNING `+phoneColumns, phoneID, clientID, p.PhoneNumber, p.Description, p.IsPrimary)
	if err != nil {
		return nil, fmt.Errorf("failed collecting rows %w", err)
	}
	updated, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[types.Phone])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w", &NotFoundError{Entity: "phone", ID: phoneID})
		}
		return nil, wrapWriteError(err)
	}
	return &updated, nil
}

func (d *Database) DeletePhone(ctx context.Context, clientID, phoneID int) error {
	tag, err := d.pool.Exec(ctx, `DELETE FROM client_phones WHERE id = $1 AND client_id = $2`, phoneID, clientID)
	if err != nil {
		return wrapWriteError(err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w", &NotFoundError{Entity: "phone", ID: phoneID})
	}
	return nil
}
