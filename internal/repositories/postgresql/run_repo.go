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

type runRepo struct {
	db *sqlx.DB
}

func NewRunRepo(db *sqlx.DB) interfaces.RunRepository {
	return &runRepo{db: db}
}

const runColumns = `id, product_id, models, question_set_id, question_set_version, started_at, finished_at, status`

func (r *runRepo) Create(ctx context.Context, run *models.BenchmarkRun) error {
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}
	err := r.db.QueryRowxContext(ctx, `
		INSERT INTO llm_runs (product_id, models, question_set_id, question_set_version, started_at, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		run.ProductID, run.Models, run.QuestionSetID, run.QuestionSetVersion, run.StartedAt, run.Status,
	).Scan(&run.ID)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" {
			return fmt.Errorf("product %d: %w", run.ProductID, interfaces.ErrNotFound)
		}
		return fmt.Errorf("failed to create run: %w", err)
	}
	return nil
}

func (r *runRepo) GetByID(ctx context.Context, id int64) (*models.BenchmarkRun, error) {
	var run models.BenchmarkRun
	if err := r.db.GetContext(ctx, &run, `SELECT `+runColumns+` FROM llm_runs WHERE id = $1`, id); err != nil {
		return nil, notFound(err, "run", id)
	}
	return &run, nil
}

func (r *runRepo) GetLatestByProduct(ctx context.Context, productID int64) (*models.BenchmarkRun, error) {
	var run models.BenchmarkRun
	err := r.db.GetContext(ctx, &run, `
		SELECT `+runColumns+` FROM llm_runs
		WHERE product_id = $1
		ORDER BY started_at DESC, id DESC
		LIMIT 1`, productID)
	if err != nil {
		return nil, notFound(err, "latest run for product", productID)
	}
	return &run, nil
}

func (r *runRepo) UpdateStatus(ctx context.Context, id int64, status models.RunStatus, finishedAt *time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE llm_runs SET status = $2, finished_at = COALESCE($3, finished_at)
		WHERE id = $1`, id, status, finishedAt)
	if err != nil {
		return fmt.Errorf("failed to update run %d status: %w", id, err)
	}
	return expectOne(res, "run", id)
}

func (r *runRepo) UpdateModels(ctx context.Context, id int64, modelList string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE llm_runs SET models = $2 WHERE id = $1`, id, modelList)
	if err != nil {
		return fmt.Errorf("failed to update run %d models: %w", id, err)
	}
	return expectOne(res, "run", id)
}
