package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/wellywell/laundry/internal/types"
)

const userColumns = `id, username, role_id, created_at, updated_at`

func (d *Database) CreateUser(ctx context.Context, username string, password string, roleID int) (*types.User, error) {

	query := `
		INSERT INTO users (username, password, role_id)
		VALUES ($1, $2, $3)
		RETURNING ` + userColumns
	rows, err := d.pool.Query(ctx, query, username, password, roleID)
	if err != nil {
		return nil, fmt.Errorf("failed collecting rows %w", err)
	}
	user, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[types.User])
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w", &UserExistsError{Username: username})
		}
		return nil, wrapWriteError(err)
	}
	return &user, nil
}

// GetUserCredentials returns the id and password hash of username.
func (d *Database) GetUserCredentials(ctx context.Context, username string) (int, string, error) {
	query := `
		SELECT id, password
		FROM users
		WHERE username = $1`

	row := d.pool.QueryRow(ctx, query, username)

	var id int
	var password string

	err := row.Scan(&id, &password)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, "", fmt.Errorf("%w", &UserNotFoundError{Username: username})
		}
		return 0, "", fmt.Errorf("unexpected DB error %w", err)
	}
	return id, password, nil
}

func (d *Database) GetUser(ctx context.Context, id int) (*types.User, error) {
	rows, err := d.pool.Query(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("failed collecting rows %w", err)
	}
	user, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[types.User])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w", &NotFoundError{Entity: "user", ID: id})
		}
		return nil, fmt.Errorf("failed unpacking rows %w", err)
	}
	return &user, nil
}

func (d *Database) ListUsers(ctx context.Context) ([]types.User, error) {
	rows, err := d.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY id LIMIT 1000`)
	if err != nil {
		return nil, fmt.Errorf("failed collecting rows %w", err)
	}
	users, err := pgx.CollectRows(rows, pgx.RowToStructByName[types.User])
	if err != nil {
		return nil, fmt.Errorf("failed unpacking rows %w", err)
	}
	return users, nil
}

// UpdateUser changes the given fields. A nil password keeps the current hash.
func (d *Database) UpdateUser(ctx context.Context, id int, username *string, password *string, roleID *int) (*types.User, error) {
	query := `
		UPDATE users SET
			username = COALESCE($2, username),
			password = COALESCE($3, password),
			role_id = COALESCE($4, role_id),
			updated_at = now()
		WHERE id = $1
		RETURNING ` + userColumns
	rows, err := d.pool.Query(ctx, query, id, username, password, roleID)
	if err != nil {
		return nil, fmt.Errorf("failed collecting rows %w", err)
	}
	user, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[types.User])
	if err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			return nil, fmt.Errorf("%w", &NotFoundError{Entity: "user", ID: id})
		case isUniqueViolation(err) && username != nil:
			return nil, fmt.Errorf("%w", &UserExistsError{Username: *username})
		}
		return nil, wrapWriteError(err)
	}
	return &user, nil
}

func (d *Database) DeleteUser(ctx context.Context, id int) error {
	tag, err := d.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return wrapWriteError(err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w", &NotFoundError{Entity: "user", ID: id})
	}
	return nil
}

func (d *Database) CountUsers(ctx context.Context) (int, error) {
	var n int
	if err := d.pool.QueryRow(ctx, `SELECT count(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("unexpected DB error %w", err)
	}
	return n, nil
}

func (d *Database) StoreRefreshToken(ctx context.Context, jti string, userID int, expiresAt time.Time) error {
	_, err := d.pool.Exec(ctx, `
		INSERT INTO refresh_tokens (jti, user_id, expires_at)
		VALUES ($1, $2, $3)`, jti, userID, expiresAt)
	if err != nil {
		return wrapWriteError(err)
	}
	return nil
}

// CheckRefreshToken fails with ErrTokenRevoked unless jti is stored, not
// revoked and not expired.
func (d *Database) CheckRefreshToken(ctx context.Context, jti string, userID int) error {
	var ok bool
	err := d.pool.QueryRow(ctx, `
		SELECT NOT revoked AND expires_at > now()
		FROM refresh_tokens
		WHERE jti = $1 AND user_id = $2`, jti, userID).Scan(&ok)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrTokenRevoked
		}
		return fmt.Errorf("unexpected DB error %w", err)
	}
	if !ok {
		return ErrTokenRevoked
	}
	return nil
}

func (d *Database) RevokeRefreshToken(ctx context.Context, jti string) error {
	tag, err := d.pool.Exec(ctx, `UPDATE refresh_tokens SET revoked = TRUE WHERE jti = $1 AND NOT revoked`, jti)
	if err != nil {
		return fmt.Errorf("unexpected DB error %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrTokenRevoked
	}
	return nil
}

// EnsureUser creates username with the named role unless it already exists.
func (d *Database) EnsureUser(ctx context.Context, username, passwordHash, roleName string) (bool, error) {
	role, err := d.GetRoleByName(ctx, roleName)
	if err != nil {
		return false, err
	}
	_, err = d.CreateUser(ctx, username, passwordHash, role.ID)
	if err != nil {
		var exists *UserExistsError
		if errors.As(err, &exists) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (d *Database) GetPasswordHash(ctx context.Context, userID int) (string, error) {
	var hash string
	err := d.pool.QueryRow(ctx, `SELECT password FROM users WHERE id = $1`, userID).Scan(&hash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", fmt.Errorf("%w", &NotFoundError{Entity: "user", ID: userID})
		}
		return "", fmt.Errorf("unexpected DB error %w", err)
	}
	return hash, nil
}

func (d *Database) SetPassword(ctx context.Context, userID int, passwordHash string) error {
	tag, err := d.pool.Exec(ctx, `UPDATE users SET password = $2, updated_at = now() WHERE id = $1`, userID, passwordHash)
	if err != nil {
		return fmt.Errorf("unexpected DB error %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w", &NotFoundError{Entity: "user", ID: userID})
	}
	return nil
}

// UserRoleName returns the name of the role held by userID.
func (d *Database) UserRoleName(ctx context.Context, userID int) (string, error) {
	var name string
	err := d.pool.QueryRow(ctx, `
		SELECT r.name FROM users u JOIN roles r ON r.id = u.role_id
		WHERE u.id = $1`, userID).Scan(&name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", fmt.Errorf("%w", &NotFoundError{Entity: "user", ID: userID})
		}
		return "", fmt.Errorf("unexpected DB error %w", err)
	}
	return name, nil
}
