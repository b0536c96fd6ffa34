package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/learnloop/payments/internal/model"
	"github.com/learnloop/payments/internal/service"
	"github.com/learnloop/payments/pkg/database"
)

// PaymentRepository provides data access for payment transactions using pgx.
type PaymentRepository struct {
	pool PoolInterface
}

// NewPaymentRepository creates a new PaymentRepository with the given pool.
func NewPaymentRepository(pool *pgxpool.Pool) *PaymentRepository {
	return &PaymentRepository{pool: pool}
}

// NewPaymentRepositoryWithPool creates a new PaymentRepository with a custom
// pool interface. This is primarily used for testing.
func NewPaymentRepositoryWithPool(pool PoolInterface) *PaymentRepository {
	return &PaymentRepository{pool: pool}
}

const transactionColumns = `id, user_id, target_type, target_id, payment_method,
	original_amount, discount_amount, amount, fee_amount, total_amount,
	promo_code, payment_reference, payment_proof_url,
	status, verification_status, verified_by, verified_at,
	rejection_reason, notes, created_at, updated_at`

func scanTransaction(row pgx.Row) (*model.PaymentTransaction, error) {
	var t model.PaymentTransaction
	err := row.Scan(
		&t.ID,
		&t.UserID,
		&t.TargetType,
		&t.TargetID,
		&t.PaymentMethod,
		&t.OriginalAmount,
		&t.DiscountAmount,
		&t.Amount,
		&t.FeeAmount,
		&t.TotalAmount,
		&t.PromoCode,
		&t.PaymentReference,
		&t.PaymentProofURL,
		&t.Status,
		&t.VerificationStatus,
		&t.VerifiedBy,
		&t.VerifiedAt,
		&t.RejectionReason,
		&t.Notes,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Insert inserts a new pending transaction within a transaction.
// A partial unique index on (user_id, target_type, target_id,
// payment_reference) WHERE status = 'pending' enforces submit idempotency;
// a violation surfaces as service.ErrDuplicateSubmission.
func (r *PaymentRepository) Insert(ctx context.Context, tx database.TxQuerier, t *model.PaymentTransaction) error {
	_, err := tx.Exec(ctx,
		`INSERT INTO payment_transactions
			(id, user_id, target_type, target_id, payment_method,
			 original_amount, discount_amount, amount, fee_amount, total_amount,
			 promo_code, payment_reference, payment_proof_url, status, verification_status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		t.ID, t.UserID, t.TargetType, t.TargetID, t.PaymentMethod,
		t.OriginalAmount, t.DiscountAmount, t.Amount, t.FeeAmount, t.TotalAmount,
		t.PromoCode, t.PaymentReference, t.PaymentProofURL, t.Status, t.VerificationStatus)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return service.ErrDuplicateSubmission
		}
		return fmt.Errorf("insert payment transaction: %w", err)
	}
	return nil
}

// GetByID retrieves a transaction by id.
// Returns nil, nil if the transaction is not found.
func (r *PaymentRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.PaymentTransaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM payment_transactions WHERE id = $1`

	t, err := scanTransaction(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get transaction %s: %w", id, err)
	}
	return t, nil
}

// GetByIDForUpdate retrieves a transaction with a row lock (SELECT FOR UPDATE).
// Decision flows lock the row so the verification guard and the write are
// one unit; the loser of a concurrent decision observes the terminal state.
// Returns service.ErrTransactionNotFound if the transaction doesn't exist.
func (r *PaymentRepository) GetByIDForUpdate(ctx context.Context, tx database.TxQuerier, id uuid.UUID) (*model.PaymentTransaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM payment_transactions WHERE id = $1 FOR UPDATE`

	t, err := scanTransaction(tx.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, service.ErrTransactionNotFound
		}
		return nil, fmt.Errorf("get transaction for update %s: %w", id, err)
	}
	return t, nil
}

// ApplyDecision writes a verification decision. The WHERE clause re-checks
// that the record is still pending, so a stale caller can never overwrite a
// terminal state. Returns service.ErrInvalidStateTransition when no pending
// row matched.
func (r *PaymentRepository) ApplyDecision(
	ctx context.Context,
	tx database.TxQuerier,
	id uuid.UUID,
	status model.TransactionStatus,
	verification model.VerificationStatus,
	verifiedBy uuid.UUID,
	verifiedAt time.Time,
	rejectionReason string,
	notes string,
) error {
	query := `UPDATE payment_transactions
		SET status = $2,
		    verification_status = $3,
		    verified_by = $4,
		    verified_at = $5,
		    rejection_reason = $6,
		    notes = $7,
		    updated_at = now()
		WHERE id = $1 AND verification_status = 'pending' AND status = 'pending'`

	tag, err := tx.Exec(ctx, query, id, status, verification, verifiedBy, verifiedAt, rejectionReason, notes)
	if err != nil {
		return fmt.Errorf("apply decision on %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return service.ErrInvalidStateTransition
	}
	return nil
}

// MarkCancelled withdraws a learner's own submission. Only a fully pending
// record owned by the caller matches; anything else is a state violation.
func (r *PaymentRepository) MarkCancelled(ctx context.Context, tx database.TxQuerier, id, userID uuid.UUID) error {
	query := `UPDATE payment_transactions
		SET status = 'cancelled', updated_at = now()
		WHERE id = $1 AND user_id = $2
		  AND status = 'pending' AND verification_status = 'pending'`

	tag, err := tx.Exec(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("cancel transaction %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return service.ErrInvalidStateTransition
	}
	return nil
}

// ListByUser returns a learner's transactions, newest first.
func (r *PaymentRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.PaymentTransaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM payment_transactions
		WHERE user_id = $1 ORDER BY created_at DESC`

	return r.list(ctx, query, userID)
}

// ListByVerificationStatus returns transactions in a given verification
// state, oldest first so admins work the queue in submission order.
func (r *PaymentRepository) ListByVerificationStatus(ctx context.Context, vs model.VerificationStatus) ([]model.PaymentTransaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM payment_transactions
		WHERE verification_status = $1 AND status <> 'cancelled' ORDER BY created_at ASC`

	return r.list(ctx, query, vs)
}

func (r *PaymentRepository) list(ctx context.Context, query string, args ...any) ([]model.PaymentTransaction, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	txs := []model.PaymentTransaction{}
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		txs = append(txs, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return txs, nil
}
