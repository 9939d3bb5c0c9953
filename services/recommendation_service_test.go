package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AI-Template-SDK/senso-benchmarks/internal/knowledge"
	"github.com/AI-Template-SDK/senso-benchmarks/internal/models"
)

func categories(recs []*models.Recommendation) []models.RecommendationCategory {
	out := make([]models.RecommendationCategory, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.Category)
	}
	return out
}

func TestRecommendThresholds(t *testing.T) {
	s := NewRecommendationService()

	tests := []struct {
		name     string
		score    models.Score
		analysis Analysis
		want     []models.RecommendationCategory
	}{
		{
			name:  "healthy run needs no action",
			score: models.Score{Accuracy: 0.9, ReferenceQuality: 0.9},
			want:  []models.RecommendationCategory{},
		},
		{
			name:  "accuracy exactly at threshold does not fire",
			score: models.Score{Accuracy: 0.7, ReferenceQuality: 0.9},
			want:  []models.RecommendationCategory{},
		},
		{
			name:  "accuracy just below threshold fires",
			score: models.Score{Accuracy: 0.69, ReferenceQuality: 0.9},
			want:  []models.RecommendationCategory{models.CategoryContent},
		},
		{
			name:  "reference quality at threshold does not fire",
			score: models.Score{Accuracy: 0.9, ReferenceQuality: 0.6},
			want:  []models.RecommendationCategory{},
		},
		{
			name:  "low reference quality fires authority",
			score: models.Score{Accuracy: 0.9, ReferenceQuality: 0.59},
			want:  []models.RecommendationCategory{models.CategoryAuthority},
		},
		{
			name:     "structured data gap fires technical",
			score:    models.Score{Accuracy: 0.9, ReferenceQuality: 0.9},
			analysis: Analysis{StructuredDataMissing: true},
			want:     []models.RecommendationCategory{models.CategoryTechnical},
		},
		{
			name:     "all rules fire independently",
			score:    models.Score{Accuracy: 0.5, ReferenceQuality: 0.0},
			analysis: Analysis{StructuredDataMissing: true, ContentGaps: []string{"What is Stelara?"}},
			want: []models.RecommendationCategory{
				models.CategoryContent,
				models.CategoryAuthority,
				models.CategoryTechnical,
				models.CategoryContent,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score := tt.score
			got := s.Recommend(&score, tt.analysis)
			assert.Equal(t, tt.want, categories(got))
		})
	}
}

func TestRecommendCitationsAndVersion(t *testing.T) {
	s := NewRecommendationService()
	score := &models.Score{RunID: 7, Accuracy: 0.5, ReferenceQuality: 0.5}

	recs := s.Recommend(score, Analysis{ContentGaps: []string{"Q1", "Q2"}})
	require.Len(t, recs, 3)

	accuracy := recs[0]
	assert.Equal(t, int64(7), accuracy.RunID)
	assert.Equal(t, 1, accuracy.Priority)
	assert.Equal(t, []string{knowledge.KeyAccuracyCredibility, knowledge.KeySchemaMarkup}, []string(accuracy.Citations))
	assert.Equal(t, knowledge.Version, accuracy.KnowledgeVersion)

	authority := recs[1]
	assert.Equal(t, models.CategoryAuthority, authority.Category)
	assert.Equal(t, 1, authority.Priority)
	assert.Equal(t, []string{knowledge.KeyAuthoritativeSource, knowledge.KeyExpertCitations}, []string(authority.Citations))

	gaps := recs[2]
	assert.Equal(t, 2, gaps.Priority)
	assert.Contains(t, gaps.Tip, "2 question(s)")
	assert.Contains(t, gaps.Tip, "Q1; Q2")

	for _, r := range recs {
		for _, key := range r.Citations {
			_, ok := knowledge.Lookup(key)
			assert.True(t, ok, key)
		}
	}
}

func TestContentGapPrefixTruncates(t *testing.T) {
	gaps := []string{"a", "b", "c", "d", "e", "f", "g"}
	msg := contentGapPrefix(Analysis{ContentGaps: gaps})
	assert.Contains(t, msg, "7 question(s)")
	assert.Contains(t, msg, "a; b; c; d; e")
	assert.Contains(t, msg, "(and 2 more)")
	assert.NotContains(t, msg, "f;")
}

func TestAnalyze(t *testing.T) {
	s := NewRecommendationService()
	text := "Stelara"

	answers := []*models.Answer{
		{Question: "ok", AnswerText: &text, Raw: models.AnswerRaw{Confidence: ptr(0.9)}},
		{Question: "low", AnswerText: &text, Raw: models.AnswerRaw{Confidence: ptr(0.4)}},
		{Question: "boundary", AnswerText: &text, Raw: models.AnswerRaw{Confidence: ptr(0.5)}},
		{Question: "failed", Raw: models.AnswerRaw{Error: "timeout"}},
		{Question: "failed", Raw: models.AnswerRaw{Error: "timeout again"}},
		{Question: "no confidence", AnswerText: &text},
	}

	got := s.Analyze(answers)
	assert.Equal(t, []string{"low", "failed"}, got.ContentGaps)
	assert.False(t, got.StructuredDataMissing)
	assert.Empty(t, s.Analyze(nil).ContentGaps)
}
