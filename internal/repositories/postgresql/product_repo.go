package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/AI-Template-SDK/senso-benchmarks/internal/models"
	"github.com/AI-Template-SDK/senso-benchmarks/internal/repositories/interfaces"
)

type productRepo struct {
	db *sqlx.DB
}

func NewProductRepo(db *sqlx.DB) interfaces.ProductRepository {
	return &productRepo{db: db}
}

const productColumns = `id, brand_name, inn, company_name, atc_code, indication, approval_status, approval_region, created_at`

func (r *productRepo) GetByID(ctx context.Context, id int64) (*models.Product, error) {
	var p models.Product
	err := r.db.GetContext(ctx, &p, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	if err != nil {
		return nil, notFound(err, "product", id)
	}
	return &p, nil
}

func (r *productRepo) List(ctx context.Context) ([]*models.Product, error) {
	var out []*models.Product
	if err := r.db.SelectContext(ctx, &out, `SELECT `+productColumns+` FROM products ORDER BY id`); err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return out, nil
}

func (r *productRepo) Upsert(ctx context.Context, product *models.Product) error {
	query := `
		INSERT INTO products (brand_name, inn, company_name, atc_code, indication, approval_status, approval_region)
		VALUES (:brand_name, :inn, :company_name, :atc_code, :indication, :approval_status, :approval_region)
		ON CONFLICT (brand_name, company_name) DO UPDATE SET
			inn = EXCLUDED.inn,
			atc_code = EXCLUDED.atc_code,
			indication = EXCLUDED.indication,
			approval_status = EXCLUDED.approval_status,
			approval_region = EXCLUDED.approval_region
		RETURNING id, created_at`

	rows, err := r.db.NamedQueryContext(ctx, query, product)
	if err != nil {
		return fmt.Errorf("failed to upsert product %s: %w", product.BrandName, err)
	}
	defer rows.Close()

	if rows.Next() {
		if err := rows.Scan(&product.ID, &product.CreatedAt); err != nil {
			return fmt.Errorf("failed to scan upserted product: %w", err)
		}
	}
	return rows.Err()
}

func (r *productRepo) ListCompetitors(ctx context.Context, productID int64) ([]*models.Competitor, error) {
	query := `
		SELECT c.product_id, c.competitor_id, p.brand_name AS competitor_brand_name, c.similarity
		FROM competitors c
		JOIN products p ON p.id = c.competitor_id
		WHERE c.product_id = $1
		ORDER BY c.similarity DESC, c.competitor_id`

	var out []*models.Competitor
	if err := r.db.SelectContext(ctx, &out, query, productID); err != nil {
		return nil, fmt.Errorf("failed to list competitors for product %d: %w", productID, err)
	}
	return out, nil
}

func (r *productRepo) AddCompetitor(ctx context.Context, competitor *models.Competitor) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO competitors (product_id, competitor_id, similarity)
		VALUES ($1, $2, $3)
		ON CONFLICT (product_id, competitor_id) DO UPDATE SET similarity = EXCLUDED.similarity`,
		competitor.ProductID, competitor.CompetitorID, competitor.Similarity)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" {
			return fmt.Errorf("competitor references unknown product: %w", interfaces.ErrNotFound)
		}
		return fmt.Errorf("failed to add competitor: %w", err)
	}
	return nil
}

func (r *productRepo) ListStale(ctx context.Context, cutoff time.Time) ([]int64, error) {
	query := `
		SELECT p.id
		FROM products p
		LEFT JOIN LATERAL (
			SELECT max(started_at) AS last_started FROM llm_runs WHERE product_id = p.id
		) r ON true
		WHERE r.last_started IS NULL OR r.last_started <= $1
		ORDER BY p.id`

	var ids []int64
	if err := r.db.SelectContext(ctx, &ids, query, cutoff); err != nil {
		return nil, fmt.Errorf("failed to list stale products: %w", err)
	}
	return ids, nil
}
