package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"evcharge/internal/models"
)

// FeeRepository handles persistence of penalty fees.
type FeeRepository struct {
	db *sql.DB
}

// NewFeeRepository returns repository.
func NewFeeRepository(db *sql.DB) *FeeRepository {
	return &FeeRepository{db: db}
}

// CreateTx inserts a fee inside the transaction of its triggering state
// change; the two commit together or not at all.
func (r *FeeRepository) CreateTx(ctx context.Context, tx *sql.Tx, fee *models.Fee) error {
	const query = `
		INSERT INTO fees (id, user_id, fee_type, amount, is_paid, reservation_id, session_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		RETURNING created_at
	`
	return tx.QueryRowContext(ctx, query,
		fee.ID,
		fee.UserID,
		string(fee.Type),
		fee.Amount,
		fee.IsPaid,
		fee.ReservationID,
		fee.SessionID,
	).Scan(&fee.CreatedAt)
}

// ExistsForSessionTx reports whether a fee of the given type is already
// attached to the session; makes overtime detection idempotent.
func (r *FeeRepository) ExistsForSessionTx(ctx context.Context, tx *sql.Tx, sessionID uuid.UUID, feeType models.FeeType) (bool, error) {
	const query = `
		SELECT EXISTS (
			SELECT 1 FROM fees WHERE session_id = $1 AND fee_type = $2
		)
	`
	var exists bool
	if err := tx.QueryRowContext(ctx, query, sessionID, string(feeType)).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// HasUnpaidByUser reports whether any unpaid fee remains for the user; the
// answer gates unbanning.
func (r *FeeRepository) HasUnpaidByUser(ctx context.Context, userID int64) (bool, error) {
	const query = `
		SELECT EXISTS (
			SELECT 1 FROM fees WHERE user_id = $1 AND NOT is_paid
		)
	`
	var unpaid bool
	if err := r.db.QueryRowContext(ctx, query, userID).Scan(&unpaid); err != nil {
		return false, err
	}
	return unpaid, nil
}

// MarkPaid flips the paid flag, the only mutation a fee ever sees.
func (r *FeeRepository) MarkPaid(ctx context.Context, id uuid.UUID) error {
	const query = `UPDATE fees SET is_paid = TRUE WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
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

// GetByID loads one fee.
func (r *FeeRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Fee, error) {
	const query = `
		SELECT id, user_id, fee_type, amount, is_paid, reservation_id, session_id, created_at
		FROM fees WHERE id = $1
	`
	return scanFee(r.db.QueryRowContext(ctx, query, id))
}

// ListByUser returns the user's fees, newest first.
func (r *FeeRepository) ListByUser(ctx context.Context, userID int64, limit int) ([]models.Fee, error) {
	if limit <= 0 {
		limit = 50
	}
	const query = `
		SELECT id, user_id, fee_type, amount, is_paid, reservation_id, session_id, created_at
		FROM fees
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var fees []models.Fee
	for rows.Next() {
		fee, err := scanFee(rows)
		if err != nil {
			return nil, err
		}
		fees = append(fees, *fee)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return fees, nil
}

func scanFee(row interface{ Scan(...interface{}) error }) (*models.Fee, error) {
	var f models.Fee
	var feeType string
	err := row.Scan(&f.ID, &f.UserID, &feeType, &f.Amount, &f.IsPaid, &f.ReservationID, &f.SessionID, &f.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	f.Type, err = models.ParseFeeType(feeType)
	if err != nil {
		return nil, err
	}
	return &f, nil
}
