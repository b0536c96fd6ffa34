package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/learnloop/payments/internal/model"
	"github.com/learnloop/payments/pkg/database"
)

// HistoryRepository provides append-only access to the payment audit trail.
// There is deliberately no update or delete path.
type HistoryRepository struct {
	pool PoolInterface
}

// NewHistoryRepository creates a new HistoryRepository with the given pool.
func NewHistoryRepository(pool *pgxpool.Pool) *HistoryRepository {
	return &HistoryRepository{pool: pool}
}

// NewHistoryRepositoryWithPool creates a new HistoryRepository with a custom
// pool interface. This is primarily used for testing.
func NewHistoryRepositoryWithPool(pool PoolInterface) *HistoryRepository {
	return &HistoryRepository{pool: pool}
}

// Append writes one audit entry within the caller's transaction so the
// entry commits or rolls back together with the state change it records.
func (r *HistoryRepository) Append(ctx context.Context, tx database.TxQuerier, e *model.PaymentHistoryEntry) error {
	_, err := tx.Exec(ctx,
		`INSERT INTO payment_history (id, transaction_id, action, performed_by, notes)
		 VALUES ($1, $2, $3, $4, $5)`,
		e.ID, e.TransactionID, e.Action, e.PerformedBy, e.Notes)
	if err != nil {
		return fmt.Errorf("append history entry: %w", err)
	}
	return nil
}

// ListByTransaction returns a transaction's audit trail, oldest first.
// An unknown transaction yields an empty trail; existence checks belong to
// the service layer.
func (r *HistoryRepository) ListByTransaction(ctx context.Context, transactionID uuid.UUID) ([]model.PaymentHistoryEntry, error) {
	query := `SELECT id, transaction_id, action, performed_by, notes, created_at
		FROM payment_history WHERE transaction_id = $1 ORDER BY created_at ASC`

	rows, err := r.pool.Query(ctx, query, transactionID)
	if err != nil {
		return nil, fmt.Errorf("list history for %s: %w", transactionID, err)
	}
	defer rows.Close()

	entries := []model.PaymentHistoryEntry{}
	for rows.Next() {
		var e model.PaymentHistoryEntry
		if err := rows.Scan(&e.ID, &e.TransactionID, &e.Action, &e.PerformedBy, &e.Notes, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan history entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history rows: %w", err)
	}
	return entries, nil
}
