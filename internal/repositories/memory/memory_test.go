package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AI-Template-SDK/senso-benchmarks/internal/models"
	"github.com/AI-Template-SDK/senso-benchmarks/internal/repositories/interfaces"
)

func TestProductUpsertByNaturalKey(t *testing.T) {
	ctx := context.Background()
	s := New()

	p := &models.Product{BrandName: "Stelara", CompanyName: "Janssen", Indication: "psoriasis"}
	require.NoError(t, s.Products().Upsert(ctx, p))
	firstID := p.ID

	again := &models.Product{BrandName: "STELARA", CompanyName: "janssen", Indication: "Crohn's disease"}
	require.NoError(t, s.Products().Upsert(ctx, again))
	assert.Equal(t, firstID, again.ID)

	all, err := s.Products().List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "Crohn's disease", all[0].Indication)
}

func TestGetMissingReturnsNotFound(t *testing.T) {
	ctx := context.Background()
	s := New()

	_, err := s.Products().GetByID(ctx, 99)
	assert.ErrorIs(t, err, interfaces.ErrNotFound)
	_, err = s.Runs().GetByID(ctx, 99)
	assert.ErrorIs(t, err, interfaces.ErrNotFound)
	_, err = s.Runs().GetLatestByProduct(ctx, 99)
	assert.ErrorIs(t, err, interfaces.ErrNotFound)
	_, err = s.Results().GetScore(ctx, 99)
	assert.ErrorIs(t, err, interfaces.ErrNotFound)
}

func TestLatestRunAndStale(t *testing.T) {
	ctx := context.Background()
	s := New()
	a := &models.Product{BrandName: "A"}
	b := &models.Product{BrandName: "B"}
	require.NoError(t, s.Products().Upsert(ctx, a))
	require.NoError(t, s.Products().Upsert(ctx, b))

	now := time.Now().UTC()
	old := &models.BenchmarkRun{ProductID: a.ID, StartedAt: now.Add(-48 * time.Hour)}
	recent := &models.BenchmarkRun{ProductID: a.ID, StartedAt: now}
	require.NoError(t, s.Runs().Create(ctx, old))
	require.NoError(t, s.Runs().Create(ctx, recent))

	latest, err := s.Runs().GetLatestByProduct(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, recent.ID, latest.ID)

	stale, err := s.Products().ListStale(ctx, now.Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, []int64{b.ID}, stale)
}

func TestSourcesListedByRun(t *testing.T) {
	ctx := context.Background()
	s := New()
	p := &models.Product{BrandName: "A"}
	require.NoError(t, s.Products().Upsert(ctx, p))
	run1 := &models.BenchmarkRun{ProductID: p.ID}
	run2 := &models.BenchmarkRun{ProductID: p.ID}
	require.NoError(t, s.Runs().Create(ctx, run1))
	require.NoError(t, s.Runs().Create(ctx, run2))

	a1 := &models.Answer{RunID: run1.ID}
	a2 := &models.Answer{RunID: run2.ID}
	require.NoError(t, s.Answers().Create(ctx, a1))
	require.NoError(t, s.Answers().Create(ctx, a2))
	require.NoError(t, s.Sources().Create(ctx, &models.Source{AnswerID: a1.ID, URL: "https://x"}))
	require.NoError(t, s.Sources().Create(ctx, &models.Source{AnswerID: a1.ID, URL: "https://x"}))
	require.NoError(t, s.Sources().Create(ctx, &models.Source{AnswerID: a2.ID, URL: "https://y"}))

	got, err := s.Sources().ListByRun(ctx, run1.ID)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	n, err := s.Answers().CountByRun(ctx, run1.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func fixedResults(total float64, recs []*models.Recommendation) interfaces.ResultsFunc {
	return func([]*models.Answer, []*models.Source) (*models.Score, []*models.Recommendation, error) {
		return &models.Score{TotalScore: total}, recs, nil
	}
}

func TestRecomputeResultsOverwrites(t *testing.T) {
	ctx := context.Background()
	s := New()
	p := &models.Product{BrandName: "A"}
	require.NoError(t, s.Products().Upsert(ctx, p))
	run := &models.BenchmarkRun{ProductID: p.ID}
	require.NoError(t, s.Runs().Create(ctx, run))

	recs := []*models.Recommendation{{Tip: "one"}, {Tip: "two"}}
	_, _, err := s.Results().RecomputeResults(ctx, run.ID, fixedResults(0.5, recs))
	require.NoError(t, err)
	first, err := s.Results().GetScore(ctx, run.ID)
	require.NoError(t, err)

	_, _, err = s.Results().RecomputeResults(ctx, run.ID, fixedResults(0.6, recs[:1]))
	require.NoError(t, err)
	second, err := s.Results().GetScore(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, run.ID, second.RunID)
	assert.Equal(t, 0.6, second.TotalScore)

	got, err := s.Results().ListRecommendations(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, run.ID, got[0].RunID)
}

func TestRecomputeResultsSnapshot(t *testing.T) {
	ctx := context.Background()
	s := New()
	p := &models.Product{BrandName: "A"}
	require.NoError(t, s.Products().Upsert(ctx, p))
	run := &models.BenchmarkRun{ProductID: p.ID}
	require.NoError(t, s.Runs().Create(ctx, run))
	a := &models.Answer{RunID: run.ID}
	require.NoError(t, s.Answers().Create(ctx, a))
	require.NoError(t, s.Sources().Create(ctx, &models.Source{AnswerID: a.ID, URL: "https://x"}))

	_, _, err := s.Results().RecomputeResults(ctx, run.ID, func(answers []*models.Answer, sources []*models.Source) (*models.Score, []*models.Recommendation, error) {
		assert.Len(t, answers, 1)
		assert.Len(t, sources, 1)
		return &models.Score{}, nil, nil
	})
	require.NoError(t, err)

	boom := errors.New("compute failed")
	_, _, err = s.Results().RecomputeResults(ctx, run.ID, func([]*models.Answer, []*models.Source) (*models.Score, []*models.Recommendation, error) {
		return nil, nil, boom
	})
	assert.ErrorIs(t, err, boom)

	_, _, err = s.Results().RecomputeResults(ctx, 999, fixedResults(0, nil))
	assert.ErrorIs(t, err, interfaces.ErrNotFound)
}
