package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/AI-Template-SDK/senso-benchmarks/internal/models"
	"github.com/AI-Template-SDK/senso-benchmarks/internal/repositories/memory"
)

func ptr(v float64) *float64 { return &v }

func answerAt(position int, confidence, sentiment *float64) *models.Answer {
	text := "answer"
	return &models.Answer{
		AnswerText: &text,
		Position:   position,
		Raw:        models.AnswerRaw{Confidence: confidence, Sentiment: sentiment},
	}
}

func TestCompute(t *testing.T) {
	s := NewAggregationService(NewVisibilityService())

	tests := []struct {
		name    string
		answers []*models.Answer
		sources []*models.Source
		want    models.Score
	}{
		{
			name: "no answers is all zero",
			want: models.Score{},
		},
		{
			name:    "no answers ignores stray sources",
			sources: []*models.Source{{AuthorityScore: 0.9}},
			want:    models.Score{},
		},
		{
			name: "defaults for missing confidence and sentiment",
			answers: []*models.Answer{
				answerAt(models.RankTop, nil, nil),
			},
			want: models.Score{Visibility: 1, Accuracy: 0.75, Sentiment: 0.5, TotalScore: 0.5625},
		},
		{
			name: "not mentioned contributes zero but counts",
			answers: []*models.Answer{
				answerAt(models.RankTop, ptr(0.9), ptr(0.8)),
				answerAt(models.RankTop, ptr(0.9), ptr(0.8)),
				answerAt(models.PositionNotMentioned, ptr(0.9), ptr(0.8)),
			},
			sources: []*models.Source{{AuthorityScore: 0.95}, {AuthorityScore: 0.93}},
			want: models.Score{
				Visibility:       0.6667,
				Accuracy:         0.9,
				Sentiment:        0.8,
				ReferenceQuality: 0.94,
				TotalScore:       0.8267,
			},
		},
		{
			name: "mixed ranks",
			answers: []*models.Answer{
				answerAt(models.RankHigh, ptr(0.6), ptr(0.5)),
				answerAt(models.RankBuried, ptr(0.6), ptr(0.5)),
			},
			sources: []*models.Source{{AuthorityScore: 0.8}, {AuthorityScore: 0.8}, {AuthorityScore: 0.8}},
			want: models.Score{
				Visibility:       0.5,
				Accuracy:         0.6,
				Sentiment:        0.5,
				ReferenceQuality: 0.8,
				TotalScore:       0.6,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.Compute(tt.answers, tt.sources)
			assert.InDelta(t, tt.want.Visibility, got.Visibility, 1e-9)
			assert.InDelta(t, tt.want.Accuracy, got.Accuracy, 1e-9)
			assert.InDelta(t, tt.want.Sentiment, got.Sentiment, 1e-9)
			assert.InDelta(t, tt.want.ReferenceQuality, got.ReferenceQuality, 1e-9)
			assert.InDelta(t, tt.want.TotalScore, got.TotalScore, 1e-9)
		})
	}
}

func TestComputeVisibilityIndependentOfRunSize(t *testing.T) {
	s := NewAggregationService(NewVisibilityService())

	small := []*models.Answer{answerAt(models.RankTop, nil, nil), answerAt(models.PositionNotMentioned, nil, nil)}
	var large []*models.Answer
	for i := 0; i < 20; i++ {
		large = append(large, small...)
	}

	assert.Equal(t, s.Compute(small, nil).Visibility, s.Compute(large, nil).Visibility)
}

func TestRecomputeAggregatesStoredRows(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	repos := NewMemoryRepositoryManager(store)
	s := NewScoringService(repos, NewAggregationService(NewVisibilityService()), NewRecommendationService(), zap.NewNop())

	product := &models.Product{BrandName: "Stelara", CompanyName: "Janssen"}
	require.NoError(t, repos.ProductRepo.Upsert(ctx, product))
	run := &models.BenchmarkRun{ProductID: product.ID, Models: "gpt-4.1"}
	require.NoError(t, repos.RunRepo.Create(ctx, run))

	t.Run("zero answers", func(t *testing.T) {
		results, err := s.Recompute(ctx, run.ID, nil)
		require.NoError(t, err)
		score := results.Score
		assert.Equal(t, run.ID, score.RunID)
		assert.Zero(t, score.Visibility)
		assert.Zero(t, score.Accuracy)
		assert.Zero(t, score.Sentiment)
		assert.Zero(t, score.ReferenceQuality)
		assert.Zero(t, score.TotalScore)
	})

	for i := 0; i < 2; i++ {
		a := answerAt(models.RankTop, ptr(0.8), ptr(0.7))
		a.RunID = run.ID
		require.NoError(t, repos.AnswerRepo.Create(ctx, a))
		// Same URL on both answers: reference quality counts both.
		require.NoError(t, repos.SourceRepo.Create(ctx, &models.Source{AnswerID: a.ID, URL: "https://fda.gov/x", Domain: "fda.gov", AuthorityScore: 0.95}))
	}

	t.Run("idempotent", func(t *testing.T) {
		first, err := s.Recompute(ctx, run.ID, nil)
		require.NoError(t, err)
		second, err := s.Recompute(ctx, run.ID, nil)
		require.NoError(t, err)
		assert.Equal(t, first.Score.TotalScore, second.Score.TotalScore)
		assert.Equal(t, first.Score.ID, second.Score.ID)
		assert.InDelta(t, 0.95, first.Score.ReferenceQuality, 1e-9)
		assert.InDelta(t, 1.0, first.Score.Visibility, 1e-9)
	})

	t.Run("unknown run", func(t *testing.T) {
		_, err := s.Recompute(ctx, 9999, nil)
		assert.True(t, errors.Is(err, ErrRunNotFound))
	})
}

func TestAccuracyRuleUsesStoredPrecision(t *testing.T) {
	aggregation := NewAggregationService(NewVisibilityService())
	recommendations := NewRecommendationService()

	tests := []struct {
		name         string
		confidences  []float64
		wantAccuracy float64
		wantFires    bool
	}{
		{name: "mean just below rounds up to threshold", confidences: []float64{0.7, 0.7, 0.69988}, wantAccuracy: 0.7, wantFires: false},
		{name: "mean below after rounding", confidences: []float64{0.7, 0.7, 0.6997}, wantAccuracy: 0.6999, wantFires: true},
		{name: "exactly threshold", confidences: []float64{0.7}, wantAccuracy: 0.7, wantFires: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var answers []*models.Answer
			for _, c := range tt.confidences {
				answers = append(answers, answerAt(models.RankTop, ptr(c), ptr(0.5)))
			}
			sources := []*models.Source{{AuthorityScore: 0.95}}

			score := aggregation.Compute(answers, sources)
			assert.InDelta(t, tt.wantAccuracy, score.Accuracy, 1e-9)

			recs := recommendations.Recommend(score, recommendations.Analyze(answers))
			fired := false
			for _, r := range recs {
				if r.Category == models.CategoryContent && r.Priority == 1 {
					fired = true
				}
			}
			assert.Equal(t, tt.wantFires, fired, "accuracy rule must agree with the stored accuracy")
		})
	}
}
