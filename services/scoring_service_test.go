package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/AI-Template-SDK/senso-benchmarks/internal/models"
)

func seedLowAccuracyRun(t *testing.T, env *testEnv) *models.BenchmarkRun {
	t.Helper()
	ctx := context.Background()

	run := &models.BenchmarkRun{ProductID: env.product.ID, Models: "gpt-4.1"}
	require.NoError(t, env.repos.RunRepo.Create(ctx, run))

	for _, q := range []string{"What is Stelara?", "Is Stelara safe?"} {
		a := answerAt(models.RankTop, ptr(0.4), ptr(0.5))
		a.RunID = run.ID
		a.Question = q
		require.NoError(t, env.repos.AnswerRepo.Create(ctx, a))
	}
	return run
}

func TestRecomputeReplacesRecommendations(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, 1, nil)
	run := seedLowAccuracyRun(t, env)

	first, err := env.scoring.Recompute(ctx, run.ID, nil)
	require.NoError(t, err)
	second, err := env.scoring.Recompute(ctx, run.ID, nil)
	require.NoError(t, err)

	// accuracy 0.4, no sources, two low-confidence questions
	assert.Equal(t, []models.RecommendationCategory{
		models.CategoryContent,
		models.CategoryAuthority,
		models.CategoryContent,
	}, categories(first.Recommendations))
	assert.Equal(t, categories(first.Recommendations), categories(second.Recommendations))

	stored, err := env.repos.ResultRepo.ListRecommendations(ctx, run.ID)
	require.NoError(t, err)
	assert.Len(t, stored, 3, "recompute must not duplicate recommendations")

	score, err := env.repos.ResultRepo.GetScore(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, second.Score.TotalScore, score.TotalScore)
	assert.InDelta(t, 0.4, score.Accuracy, 1e-9)
}

func TestRecomputeMergesUpstreamAnalysis(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, 1, nil)
	run := seedLowAccuracyRun(t, env)

	results, err := env.scoring.Recompute(ctx, run.ID, &Analysis{
		StructuredDataMissing: true,
		ContentGaps:           []string{"Is Stelara safe?", "How is Stelara dosed?"},
	})
	require.NoError(t, err)

	require.Len(t, results.Recommendations, 4)
	assert.Equal(t, models.CategoryTechnical, results.Recommendations[2].Category)
	gaps := results.Recommendations[3]
	assert.Contains(t, gaps.Tip, "3 question(s)")
	assert.Contains(t, gaps.Tip, "How is Stelara dosed?")
}

func TestRecomputeUnknownRun(t *testing.T) {
	env := newTestEnv(t, 1, nil)
	_, err := env.scoring.Recompute(context.Background(), 777, nil)
	assert.True(t, errors.Is(err, ErrRunNotFound))
}

func TestMergeGaps(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, mergeGaps([]string{"a", "b"}, []string{"b", "", "c"}))
	assert.Nil(t, mergeGaps(nil, nil))
}

// gatedRecommendations blocks the first Analyze call until release is closed.
type gatedRecommendations struct {
	RecommendationService
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func (g *gatedRecommendations) Analyze(answers []*models.Answer) Analysis {
	g.once.Do(func() {
		close(g.entered)
		<-g.release
	})
	return g.RecommendationService.Analyze(answers)
}

func TestRecomputeKeepsNewestSnapshot(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, 1, nil)

	run := &models.BenchmarkRun{ProductID: env.product.ID, Models: "gpt-4.1"}
	require.NoError(t, env.repos.RunRepo.Create(ctx, run))
	hidden := answerAt(models.PositionNotMentioned, ptr(0.9), ptr(0.5))
	hidden.RunID = run.ID
	require.NoError(t, env.repos.AnswerRepo.Create(ctx, hidden))

	gate := &gatedRecommendations{
		RecommendationService: NewRecommendationService(),
		entered:               make(chan struct{}),
		release:               make(chan struct{}),
	}
	slow := NewScoringService(env.repos, NewAggregationService(NewVisibilityService()), gate, zap.NewNop())

	slowDone := make(chan error, 1)
	go func() {
		_, err := slow.Recompute(ctx, run.ID, nil)
		slowDone <- err
	}()
	<-gate.entered

	// While the slow recompute holds its snapshot, a visible answer lands and a
	// second recompute runs.
	freshDone := make(chan error, 1)
	go func() {
		visible := answerAt(models.RankTop, ptr(0.9), ptr(0.5))
		visible.RunID = run.ID
		if err := env.repos.AnswerRepo.Create(ctx, visible); err != nil {
			freshDone <- err
			return
		}
		_, err := env.scoring.Recompute(ctx, run.ID, nil)
		freshDone <- err
	}()

	var freshErr error
	freshFinished := false
	select {
	case freshErr = <-freshDone:
		freshFinished = true
	case <-time.After(50 * time.Millisecond):
	}

	close(gate.release)
	require.NoError(t, <-slowDone)
	if !freshFinished {
		freshErr = <-freshDone
	}
	require.NoError(t, freshErr)

	score, err := env.repos.ResultRepo.GetScore(ctx, run.ID)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, score.Visibility, 1e-9, "stored score must include the later answer")
}
