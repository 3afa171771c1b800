package repository

import (
	"context"
	"database/sql"
	"errors"

	"evcharge/internal/models"
)

// AccountRepository handles user standing and violation counters.
type AccountRepository struct {
	db *sql.DB
}

// NewAccountRepository returns repository.
func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

const accountColumns = `id, status, violation_count, ban_reason, created_at, updated_at`

func scanAccount(row interface{ Scan(...interface{}) error }) (*models.Account, error) {
	var a models.Account
	var status string
	err := row.Scan(&a.ID, &status, &a.ViolationCount, &a.BanReason, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	a.Status, err = models.ParseAccountStatus(status)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// GetByID loads one account.
func (r *AccountRepository) GetByID(ctx context.Context, id int64) (*models.Account, error) {
	const query = `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	return scanAccount(r.db.QueryRowContext(ctx, query, id))
}

// LockTx upserts and locks the account row, so violation counting inside a
// penalty transaction serializes per user.
func (r *AccountRepository) LockTx(ctx context.Context, tx *sql.Tx, id int64) (*models.Account, error) {
	const upsert = `
		INSERT INTO accounts (id) VALUES ($1)
		ON CONFLICT (id) DO NOTHING
	`
	if _, err := tx.ExecContext(ctx, upsert, id); err != nil {
		return nil, err
	}
	const query = `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1 FOR UPDATE`
	return scanAccount(tx.QueryRowContext(ctx, query, id))
}

// IncrementViolationTx bumps the counter and returns the new value.
func (r *AccountRepository) IncrementViolationTx(ctx context.Context, tx *sql.Tx, id int64) (int, error) {
	const query = `
		UPDATE accounts
		SET violation_count = violation_count + 1, updated_at = NOW()
		WHERE id = $1
		RETURNING violation_count
	`
	var count int
	if err := tx.QueryRowContext(ctx, query, id).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// SetStatusTx flips account standing with an optional recorded reason.
func (r *AccountRepository) SetStatusTx(ctx context.Context, tx *sql.Tx, id int64, status models.AccountStatus, reason *string) error {
	const query = `
		UPDATE accounts SET status = $2, ban_reason = $3, updated_at = NOW() WHERE id = $1
	`
	result, err := tx.ExecContext(ctx, query, id, string(status), reason)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
