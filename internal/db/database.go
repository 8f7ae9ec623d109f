package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Database struct {
	pool *pgxpool.Pool
}

func NewDatabase(connString string) (*Database, error) {

	err := Migrate(connString)

	if err != nil {
		return nil, fmt.Errorf("failed to migrate %w", err)
	}

	ctx := context.Background()
	p, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, err
	}

	return &Database{
		pool: p,
	}, nil
}

func (d *Database) Ping(ctx context.Context) error {
	return d.pool.Ping(ctx)
}

func (d *Database) Close() {
	d.pool.Close()
}

// inTx runs fn in a transaction and commits only when fn succeeds.
func (d *Database) inTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed starting transaction %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed committing transaction %w", err)
	}
	return nil
}

func constraintError(err error) (*pgconn.PgError, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgerrcode.IsIntegrityConstraintViolation(pgErr.Code) {
		return pgErr, true
	}
	return nil, false
}

// wrapWriteError turns foreign key and check violations into ReferenceError.
func wrapWriteError(err error) error {
	if pgErr, ok := constraintError(err); ok {
		switch pgErr.Code {
		case pgerrcode.ForeignKeyViolation, pgerrcode.CheckViolation, pgerrcode.NotNullViolation:
			return fmt.Errorf("%w", &ReferenceError{Constraint: pgErr.ConstraintName})
		}
	}
	return fmt.Errorf("unexpected DB error %w", err)
}

func isUniqueViolation(err error) bool {
	pgErr, ok := constraintError(err)
	return ok && pgErr.Code == pgerrcode.UniqueViolation
}
