package postgresql

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/AI-Template-SDK/senso-benchmarks/internal/models"
	"github.com/AI-Template-SDK/senso-benchmarks/internal/repositories/interfaces"
)

type resultRepo struct {
	db *sqlx.DB
}

func NewResultRepo(db *sqlx.DB) interfaces.ResultRepository {
	return &resultRepo{db: db}
}

func (r *resultRepo) GetScore(ctx context.Context, runID int64) (*models.Score, error) {
	var s models.Score
	err := r.db.GetContext(ctx, &s, `
		SELECT id, llm_run_id, visibility, accuracy, sentiment, reference_quality, total_score, created_at
		FROM scores WHERE llm_run_id = $1`, runID)
	if err != nil {
		return nil, notFound(err, "score for run", runID)
	}
	return &s, nil
}

func (r *resultRepo) ListRecommendations(ctx context.Context, runID int64) ([]*models.Recommendation, error) {
	var out []*models.Recommendation
	err := r.db.SelectContext(ctx, &out, `
		SELECT id, llm_run_id, tip, category, priority, citations, knowledge_version, created_at
		FROM recommendations WHERE llm_run_id = $1 ORDER BY priority, id`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to list recommendations for run %d: %w", runID, err)
	}
	return out, nil
}

// RecomputeResults holds the run row FOR UPDATE while it reads, computes and writes.
// Under read committed each later statement sees answers committed before it, so a
// recompute queued behind this one always reads a newer snapshot.
func (r *resultRepo) RecomputeResults(ctx context.Context, runID int64, compute interfaces.ResultsFunc) (*models.Score, []*models.Recommendation, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var locked int64
	if err := tx.GetContext(ctx, &locked, `SELECT id FROM llm_runs WHERE id = $1 FOR UPDATE`, runID); err != nil {
		return nil, nil, notFound(err, "run", runID)
	}

	var answers []*models.Answer
	if err := tx.SelectContext(ctx, &answers, selectAnswersByRun, runID); err != nil {
		return nil, nil, fmt.Errorf("failed to list answers for run %d: %w", runID, err)
	}
	var sources []*models.Source
	if err := tx.SelectContext(ctx, &sources, selectSourcesByRun, runID); err != nil {
		return nil, nil, fmt.Errorf("failed to list sources for run %d: %w", runID, err)
	}

	score, recs, err := compute(answers, sources)
	if err != nil {
		return nil, nil, err
	}
	score.RunID = runID

	err = tx.QueryRowxContext(ctx, `
		INSERT INTO scores (llm_run_id, visibility, accuracy, sentiment, reference_quality, total_score)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (llm_run_id) DO UPDATE SET
			visibility = EXCLUDED.visibility,
			accuracy = EXCLUDED.accuracy,
			sentiment = EXCLUDED.sentiment,
			reference_quality = EXCLUDED.reference_quality,
			total_score = EXCLUDED.total_score,
			created_at = now()
		RETURNING id, created_at`,
		runID, score.Visibility, score.Accuracy, score.Sentiment, score.ReferenceQuality, score.TotalScore,
	).Scan(&score.ID, &score.CreatedAt)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to upsert score for run %d: %w", runID, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM recommendations WHERE llm_run_id = $1`, runID); err != nil {
		return nil, nil, fmt.Errorf("failed to clear recommendations for run %d: %w", runID, err)
	}

	for _, rec := range recs {
		rec.RunID = runID
		err := tx.QueryRowxContext(ctx, `
			INSERT INTO recommendations (llm_run_id, tip, category, priority, citations, knowledge_version)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id, created_at`,
			rec.RunID, rec.Tip, rec.Category, rec.Priority, rec.Citations, rec.KnowledgeVersion,
		).Scan(&rec.ID, &rec.CreatedAt)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to insert recommendation for run %d: %w", runID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return score, recs, nil
}
