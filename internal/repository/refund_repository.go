package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/learnloop/payments/internal/model"
)

// RefundRepository provides data access for refund requests using pgx.
type RefundRepository struct {
	pool PoolInterface
}

// NewRefundRepository creates a new RefundRepository with the given pool.
func NewRefundRepository(pool *pgxpool.Pool) *RefundRepository {
	return &RefundRepository{pool: pool}
}

// NewRefundRepositoryWithPool creates a new RefundRepository with a custom
// pool interface. This is primarily used for testing.
func NewRefundRepositoryWithPool(pool PoolInterface) *RefundRepository {
	return &RefundRepository{pool: pool}
}

const refundColumns = `id, transaction_id, requested_by, refund_amount, reason,
	status, decided_by, decision_notes, created_at, decided_at`

func scanRefund(row pgx.Row) (*model.RefundRequest, error) {
	var rr model.RefundRequest
	err := row.Scan(
		&rr.ID,
		&rr.TransactionID,
		&rr.RequestedBy,
		&rr.RefundAmount,
		&rr.Reason,
		&rr.Status,
		&rr.DecidedBy,
		&rr.DecisionNotes,
		&rr.CreatedAt,
		&rr.DecidedAt,
	)
	if err != nil {
		return nil, err
	}
	return &rr, nil
}

// Insert creates a pending refund request.
func (r *RefundRepository) Insert(ctx context.Context, rr *model.RefundRequest) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO refund_requests (id, transaction_id, requested_by, refund_amount, reason, status)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		rr.ID, rr.TransactionID, rr.RequestedBy, rr.RefundAmount, rr.Reason, rr.Status)
	if err != nil {
		return fmt.Errorf("insert refund request: %w", err)
	}
	return nil
}

// GetByID retrieves a refund request by id.
// Returns nil, nil if not found (service layer handles this).
func (r *RefundRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.RefundRequest, error) {
	query := `SELECT ` + refundColumns + ` FROM refund_requests WHERE id = $1`

	rr, err := scanRefund(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get refund request %s: %w", id, err)
	}
	return rr, nil
}

// Decide resolves a pending refund request. The WHERE clause guards on the
// current status so a decided request can never be re-decided; the caller
// interprets decided == false against a fresh read.
func (r *RefundRepository) Decide(ctx context.Context, id uuid.UUID, status model.RefundStatus, decidedBy uuid.UUID, notes string, decidedAt time.Time) (bool, error) {
	query := `UPDATE refund_requests
		SET status = $2, decided_by = $3, decision_notes = $4, decided_at = $5
		WHERE id = $1 AND status = 'pending'`

	tag, err := r.pool.Exec(ctx, query, id, status, decidedBy, notes, decidedAt)
	if err != nil {
		return false, fmt.Errorf("decide refund request %s: %w", id, err)
	}
	return tag.RowsAffected() > 0, nil
}

// ListByTransaction returns refund requests filed against a transaction.
func (r *RefundRepository) ListByTransaction(ctx context.Context, transactionID uuid.UUID) ([]model.RefundRequest, error) {
	query := `SELECT ` + refundColumns + ` FROM refund_requests
		WHERE transaction_id = $1 ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, transactionID)
	if err != nil {
		return nil, fmt.Errorf("list refunds for %s: %w", transactionID, err)
	}
	defer rows.Close()

	refunds := []model.RefundRequest{}
	for rows.Next() {
		rr, err := scanRefund(rows)
		if err != nil {
			return nil, fmt.Errorf("scan refund request: %w", err)
		}
		refunds = append(refunds, *rr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate refund rows: %w", err)
	}
	return refunds, nil
}
