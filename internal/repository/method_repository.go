package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/learnloop/payments/internal/model"
)

// MethodRepository provides data access for payment method configuration.
// Rows are admin-authored and read-only to the ledger.
type MethodRepository struct {
	pool PoolInterface
}

// NewMethodRepository creates a new MethodRepository with the given pool.
func NewMethodRepository(pool *pgxpool.Pool) *MethodRepository {
	return &MethodRepository{pool: pool}
}

// NewMethodRepositoryWithPool creates a new MethodRepository with a custom
// pool interface. This is primarily used for testing.
func NewMethodRepositoryWithPool(pool PoolInterface) *MethodRepository {
	return &MethodRepository{pool: pool}
}

// Upsert creates or replaces a payment method configuration.
func (r *MethodRepository) Upsert(ctx context.Context, m *model.PaymentMethodConfig) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO payment_methods (provider, display_name, is_enabled, min_amount, max_amount, fee_percent)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (provider) DO UPDATE SET
			display_name = EXCLUDED.display_name,
			is_enabled = EXCLUDED.is_enabled,
			min_amount = EXCLUDED.min_amount,
			max_amount = EXCLUDED.max_amount,
			fee_percent = EXCLUDED.fee_percent,
			updated_at = now()`,
		m.Provider, m.DisplayName, m.IsEnabled, m.MinAmount, m.MaxAmount, m.FeePercent)
	if err != nil {
		return fmt.Errorf("upsert payment method %s: %w", m.Provider, err)
	}
	return nil
}

// GetByProvider retrieves a payment method configuration.
// Returns nil, nil if the provider is not configured.
func (r *MethodRepository) GetByProvider(ctx context.Context, provider string) (*model.PaymentMethodConfig, error) {
	query := `SELECT provider, display_name, is_enabled, min_amount, max_amount, fee_percent, updated_at
		FROM payment_methods WHERE provider = $1`

	var m model.PaymentMethodConfig
	err := r.pool.QueryRow(ctx, query, provider).Scan(
		&m.Provider, &m.DisplayName, &m.IsEnabled, &m.MinAmount, &m.MaxAmount, &m.FeePercent, &m.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get payment method %s: %w", provider, err)
	}
	return &m, nil
}

// List returns all configured payment methods.
func (r *MethodRepository) List(ctx context.Context) ([]model.PaymentMethodConfig, error) {
	query := `SELECT provider, display_name, is_enabled, min_amount, max_amount, fee_percent, updated_at
		FROM payment_methods ORDER BY provider ASC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list payment methods: %w", err)
	}
	defer rows.Close()

	methods := []model.PaymentMethodConfig{}
	for rows.Next() {
		var m model.PaymentMethodConfig
		if err := rows.Scan(&m.Provider, &m.DisplayName, &m.IsEnabled, &m.MinAmount, &m.MaxAmount, &m.FeePercent, &m.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan payment method: %w", err)
		}
		methods = append(methods, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate payment method rows: %w", err)
	}
	return methods, nil
}
