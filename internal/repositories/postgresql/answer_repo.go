package postgresql

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/AI-Template-SDK/senso-benchmarks/internal/models"
	"github.com/AI-Template-SDK/senso-benchmarks/internal/repositories/interfaces"
)

type answerRepo struct {
	db *sqlx.DB
}

func NewAnswerRepo(db *sqlx.DB) interfaces.AnswerRepository {
	return &answerRepo{db: db}
}

func (r *answerRepo) Create(ctx context.Context, answer *models.Answer) error {
	query := `
		INSERT INTO answers (llm_run_id, question, answer_text, raw, position, latency_ms, prompt_tokens, completion_tokens)
		VALUES (:llm_run_id, :question, :answer_text, :raw, :position, :latency_ms, :prompt_tokens, :completion_tokens)
		RETURNING id, created_at`

	rows, err := r.db.NamedQueryContext(ctx, query, answer)
	if err != nil {
		return fmt.Errorf("failed to insert answer for run %d: %w", answer.RunID, err)
	}
	defer rows.Close()

	if rows.Next() {
		if err := rows.Scan(&answer.ID, &answer.CreatedAt); err != nil {
			return fmt.Errorf("failed to scan inserted answer: %w", err)
		}
	}
	return rows.Err()
}

const selectAnswersByRun = `
	SELECT id, llm_run_id, question, answer_text, raw, position, latency_ms, prompt_tokens, completion_tokens, created_at
	FROM answers WHERE llm_run_id = $1 ORDER BY id`

const selectSourcesByRun = `
	SELECT s.id, s.answer_id, s.url, s.domain, s.title, s.authority_score, s.sentiment, s.created_at
	FROM sources s
	JOIN answers a ON a.id = s.answer_id
	WHERE a.llm_run_id = $1
	ORDER BY s.id`

func (r *answerRepo) ListByRun(ctx context.Context, runID int64) ([]*models.Answer, error) {
	var out []*models.Answer
	if err := r.db.SelectContext(ctx, &out, selectAnswersByRun, runID); err != nil {
		return nil, fmt.Errorf("failed to list answers for run %d: %w", runID, err)
	}
	return out, nil
}

func (r *answerRepo) CountByRun(ctx context.Context, runID int64) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, `SELECT count(*) FROM answers WHERE llm_run_id = $1`, runID); err != nil {
		return 0, fmt.Errorf("failed to count answers for run %d: %w", runID, err)
	}
	return n, nil
}

type sourceRepo struct {
	db *sqlx.DB
}

func NewSourceRepo(db *sqlx.DB) interfaces.SourceRepository {
	return &sourceRepo{db: db}
}

func (r *sourceRepo) Create(ctx context.Context, source *models.Source) error {
	err := r.db.QueryRowxContext(ctx, `
		INSERT INTO sources (answer_id, url, domain, title, authority_score, sentiment)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`,
		source.AnswerID, source.URL, source.Domain, source.Title, source.AuthorityScore, source.Sentiment,
	).Scan(&source.ID, &source.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert source %s: %w", source.URL, err)
	}
	return nil
}

func (r *sourceRepo) ListByRun(ctx context.Context, runID int64) ([]*models.Source, error) {
	var out []*models.Source
	if err := r.db.SelectContext(ctx, &out, selectSourcesByRun, runID); err != nil {
		return nil, fmt.Errorf("failed to list sources for run %d: %w", runID, err)
	}
	return out, nil
}

func expectOne(res sql.Result, what string, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %d: %w", what, id, interfaces.ErrNotFound)
	}
	return nil
}
