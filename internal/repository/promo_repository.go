package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/learnloop/payments/internal/model"
	"github.com/learnloop/payments/internal/service"
	"github.com/learnloop/payments/pkg/database"
)

// PoolInterface defines the database operations needed by repositories.
// This allows for easier testing with mocks.
type PoolInterface interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PromoRepository provides data access for promo codes using pgx.
type PromoRepository struct {
	pool PoolInterface
}

// NewPromoRepository creates a new PromoRepository with the given pool.
func NewPromoRepository(pool *pgxpool.Pool) *PromoRepository {
	return &PromoRepository{pool: pool}
}

// NewPromoRepositoryWithPool creates a new PromoRepository with a custom pool interface.
// This is primarily used for testing.
func NewPromoRepositoryWithPool(pool PoolInterface) *PromoRepository {
	return &PromoRepository{pool: pool}
}

const promoColumns = `id, code, description, discount_type, discount_value,
	applicable_type, applicable_ids, max_uses, used_count, valid_until, is_active, created_at`

// Insert inserts a new promo code.
// Returns service.ErrPromoExists if the code is already taken.
func (r *PromoRepository) Insert(ctx context.Context, p *model.PromoCode) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO promo_codes
			(id, code, description, discount_type, discount_value,
			 applicable_type, applicable_ids, max_uses, valid_until, is_active)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		p.ID, p.Code, p.Description, p.DiscountType, p.DiscountValue,
		p.ApplicableType, p.ApplicableIDs, p.MaxUses, p.ValidUntil, p.IsActive)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return service.ErrPromoExists
		}
		return fmt.Errorf("insert promo code: %w", err)
	}
	return nil
}

func scanPromo(row pgx.Row) (*model.PromoCode, error) {
	var p model.PromoCode
	err := row.Scan(
		&p.ID,
		&p.Code,
		&p.Description,
		&p.DiscountType,
		&p.DiscountValue,
		&p.ApplicableType,
		&p.ApplicableIDs,
		&p.MaxUses,
		&p.UsedCount,
		&p.ValidUntil,
		&p.IsActive,
		&p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetByCode retrieves a promo code by its code.
// Returns nil, nil if the code is not found (service layer handles this).
func (r *PromoRepository) GetByCode(ctx context.Context, code string) (*model.PromoCode, error) {
	query := `SELECT ` + promoColumns + ` FROM promo_codes WHERE code = $1`

	p, err := scanPromo(r.pool.QueryRow(ctx, query, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // Not found - let service handle
		}
		return nil, fmt.Errorf("get promo code %s: %w", code, err)
	}
	return p, nil
}

// List returns all promo codes, newest first.
func (r *PromoRepository) List(ctx context.Context) ([]model.PromoCode, error) {
	query := `SELECT ` + promoColumns + ` FROM promo_codes ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list promo codes: %w", err)
	}
	defer rows.Close()

	codes := []model.PromoCode{}
	for rows.Next() {
		p, err := scanPromo(rows)
		if err != nil {
			return nil, fmt.Errorf("scan promo code: %w", err)
		}
		codes = append(codes, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate promo codes: %w", err)
	}
	return codes, nil
}

// Deactivate soft-disables a promo code. Codes are never hard-deleted.
// Returns service.ErrPromoNotFound if the code doesn't exist.
func (r *PromoRepository) Deactivate(ctx context.Context, code string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE promo_codes SET is_active = false WHERE code = $1`, code)
	if err != nil {
		return fmt.Errorf("deactivate promo code %s: %w", code, err)
	}
	if tag.RowsAffected() == 0 {
		return service.ErrPromoNotFound
	}
	return nil
}

// IncrementUsage atomically advances used_count if the ceiling allows it.
// The condition lives in the UPDATE itself so concurrent redemptions can
// never push used_count past max_uses. Must be called within the approval
// transaction. Returns service.ErrPromoMaxUses when the ceiling is hit or
// the code has been deactivated since validation.
func (r *PromoRepository) IncrementUsage(ctx context.Context, tx database.TxQuerier, code string) error {
	query := `UPDATE promo_codes
		SET used_count = used_count + 1
		WHERE code = $1
		  AND is_active = true
		  AND (max_uses IS NULL OR used_count < max_uses)`

	tag, err := tx.Exec(ctx, query, code)
	if err != nil {
		return fmt.Errorf("increment promo usage %s: %w", code, err)
	}
	if tag.RowsAffected() == 0 {
		return service.ErrPromoMaxUses
	}
	return nil
}
