package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mostviewed/trending-tracker-go/internal/db"
	"github.com/mostviewed/trending-tracker-go/internal/db/models"
)

// CategoryRepository reads the seeded category taxonomy.
type CategoryRepository interface {
	ListCategories(ctx context.Context) ([]*models.Category, error)
	GetCategoryBySlug(ctx context.Context, slug string) (*models.Category, error)
}

type categoryRepository struct {
	pool *pgxpool.Pool
}

// NewCategoryRepository creates a new CategoryRepository.
func NewCategoryRepository(pool *pgxpool.Pool) CategoryRepository {
	return &categoryRepository{pool: pool}
}

func (r *categoryRepository) ListCategories(ctx context.Context) ([]*models.Category, error) {
	query := `SELECT id, name, slug FROM categories ORDER BY name`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, db.WrapError(err, "list categories")
	}
	defer rows.Close()

	var categories []*models.Category
	for rows.Next() {
		c := &models.Category{}
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug); err != nil {
			return nil, db.WrapError(err, "scan category")
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, db.WrapError(err, "iterate categories")
	}

	return categories, nil
}

func (r *categoryRepository) GetCategoryBySlug(ctx context.Context, slug string) (*models.Category, error) {
	query := `SELECT id, name, slug FROM categories WHERE slug = $1`

	c := &models.Category{}
	if err := r.pool.QueryRow(ctx, query, slug).Scan(&c.ID, &c.Name, &c.Slug); err != nil {
		return nil, db.WrapError(err, "get category by slug")
	}

	return c, nil
}
