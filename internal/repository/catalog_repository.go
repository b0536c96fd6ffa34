package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/learnloop/payments/internal/model"
	"github.com/learnloop/payments/pkg/database"
)

// CatalogRepository reads the course/bundle catalog this service prices
// against, and owns bundle composition rows. Course authoring is external.
type CatalogRepository struct {
	pool PoolInterface
}

// NewCatalogRepository creates a new CatalogRepository with the given pool.
func NewCatalogRepository(pool *pgxpool.Pool) *CatalogRepository {
	return &CatalogRepository{pool: pool}
}

// NewCatalogRepositoryWithPool creates a new CatalogRepository with a custom
// pool interface. This is primarily used for testing.
func NewCatalogRepositoryWithPool(pool PoolInterface) *CatalogRepository {
	return &CatalogRepository{pool: pool}
}

const courseColumns = `id, title, price_amount, duration_minutes, is_published, created_at`

func scanCourse(row pgx.Row) (*model.Course, error) {
	var c model.Course
	err := row.Scan(&c.ID, &c.Title, &c.PriceAmount, &c.DurationMinutes, &c.IsPublished, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// GetCourse retrieves a course by id.
// Returns nil, nil if the course is not found.
func (r *CatalogRepository) GetCourse(ctx context.Context, id uuid.UUID) (*model.Course, error) {
	query := `SELECT ` + courseColumns + ` FROM courses WHERE id = $1`

	c, err := scanCourse(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get course %s: %w", id, err)
	}
	return c, nil
}

// GetPublishedCourses returns the published subset of the given course ids.
// Unpublished or unknown ids are silently absent; callers compare lengths
// to detect ineligible requests.
func (r *CatalogRepository) GetPublishedCourses(ctx context.Context, ids []uuid.UUID) ([]model.Course, error) {
	query := `SELECT ` + courseColumns + ` FROM courses
		WHERE id = ANY($1) AND is_published = true ORDER BY created_at ASC`

	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("get published courses: %w", err)
	}
	defer rows.Close()

	return collectCourses(rows)
}

// GetBundle retrieves a bundle by id.
// Returns nil, nil if the bundle is not found.
func (r *CatalogRepository) GetBundle(ctx context.Context, id uuid.UUID) (*model.Bundle, error) {
	query := `SELECT id, title, price_amount, discount_percentage, created_at FROM bundles WHERE id = $1`

	var b model.Bundle
	err := r.pool.QueryRow(ctx, query, id).Scan(&b.ID, &b.Title, &b.PriceAmount, &b.DiscountPercentage, &b.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get bundle %s: %w", id, err)
	}
	return &b, nil
}

// GetBundleCourses returns the courses composed into a bundle, in the order
// they were attached. Existing bundles keep their courses even if one is
// later unpublished.
func (r *CatalogRepository) GetBundleCourses(ctx context.Context, bundleID uuid.UUID) ([]model.Course, error) {
	query := `SELECT c.id, c.title, c.price_amount, c.duration_minutes, c.is_published, c.created_at
		FROM courses c
		JOIN bundle_courses bc ON bc.course_id = c.id
		WHERE bc.bundle_id = $1
		ORDER BY bc.position ASC`

	rows, err := r.pool.Query(ctx, query, bundleID)
	if err != nil {
		return nil, fmt.Errorf("get bundle courses %s: %w", bundleID, err)
	}
	defer rows.Close()

	return collectCourses(rows)
}

// InsertBundle creates a bundle and its composition rows within a transaction.
func (r *CatalogRepository) InsertBundle(ctx context.Context, tx database.TxQuerier, b *model.Bundle, courseIDs []uuid.UUID) error {
	_, err := tx.Exec(ctx,
		`INSERT INTO bundles (id, title, price_amount, discount_percentage)
		 VALUES ($1, $2, $3, $4)`,
		b.ID, b.Title, b.PriceAmount, b.DiscountPercentage)
	if err != nil {
		return fmt.Errorf("insert bundle: %w", err)
	}

	for i, courseID := range courseIDs {
		_, err := tx.Exec(ctx,
			`INSERT INTO bundle_courses (bundle_id, course_id, position) VALUES ($1, $2, $3)`,
			b.ID, courseID, i)
		if err != nil {
			return fmt.Errorf("insert bundle course: %w", err)
		}
	}
	return nil
}

func collectCourses(rows pgx.Rows) ([]model.Course, error) {
	courses := []model.Course{}
	for rows.Next() {
		c, err := scanCourse(rows)
		if err != nil {
			return nil, fmt.Errorf("scan course: %w", err)
		}
		courses = append(courses, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate course rows: %w", err)
	}
	return courses, nil
}
