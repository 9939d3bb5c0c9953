// services/recommendation_service.go
package services

import (
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/AI-Template-SDK/senso-benchmarks/internal/knowledge"
	"github.com/AI-Template-SDK/senso-benchmarks/internal/models"
)

const (
	AccuracyThreshold         = 0.7
	ReferenceQualityThreshold = 0.6
	// Answers below this confidence count as content gaps.
	GapConfidence = 0.5

	maxListedGaps = 5
)

// rule fires independently of the others; tip text comes from the first cited key.
type rule struct {
	category  models.RecommendationCategory
	priority  int
	citations []string
	fires     func(score *models.Score, analysis Analysis) bool
	prefix    func(analysis Analysis) string
}

var rules = []rule{
	{
		category:  models.CategoryContent,
		priority:  1,
		citations: []string{knowledge.KeyAccuracyCredibility, knowledge.KeySchemaMarkup},
		// Compared at stored precision so the rule agrees with the persisted score.
		fires: func(score *models.Score, _ Analysis) bool {
			return score.Accuracy < AccuracyThreshold
		},
	},
	{
		category:  models.CategoryAuthority,
		priority:  1,
		citations: []string{knowledge.KeyAuthoritativeSource, knowledge.KeyExpertCitations},
		fires: func(score *models.Score, _ Analysis) bool {
			return score.ReferenceQuality < ReferenceQualityThreshold
		},
	},
	{
		category:  models.CategoryTechnical,
		priority:  2,
		citations: []string{knowledge.KeyStructuredData, knowledge.KeySchemaMarkup},
		fires: func(_ *models.Score, analysis Analysis) bool {
			return analysis.StructuredDataMissing
		},
	},
	{
		category:  models.CategoryContent,
		priority:  2,
		citations: []string{knowledge.KeyFAQCoverage, knowledge.KeyTopicDepth},
		fires: func(_ *models.Score, analysis Analysis) bool {
			return len(analysis.ContentGaps) > 0
		},
		prefix: contentGapPrefix,
	},
}

type recommendationService struct{}

func NewRecommendationService() RecommendationService {
	return &recommendationService{}
}

// Analyze collects the questions models failed on or answered with low confidence.
func (s *recommendationService) Analyze(answers []*models.Answer) Analysis {
	var analysis Analysis
	seen := make(map[string]bool)
	for _, a := range answers {
		gap := a.Failed() || (a.Raw.Confidence != nil && *a.Raw.Confidence < GapConfidence)
		if !gap || seen[a.Question] {
			continue
		}
		seen[a.Question] = true
		analysis.ContentGaps = append(analysis.ContentGaps, a.Question)
	}
	return analysis
}

// Recommend evaluates every rule. An empty result means no action is needed.
func (s *recommendationService) Recommend(score *models.Score, analysis Analysis) []*models.Recommendation {
	recs := make([]*models.Recommendation, 0, len(rules))
	for _, r := range rules {
		if !r.fires(score, analysis) {
			continue
		}

		tip, ok := knowledge.Lookup(r.citations[0])
		if !ok {
			continue
		}
		text := tip.Text
		if r.prefix != nil {
			text = r.prefix(analysis) + " " + text
		}

		recs = append(recs, &models.Recommendation{
			RunID:            score.RunID,
			Tip:              text,
			Category:         r.category,
			Priority:         r.priority,
			Citations:        pq.StringArray(append([]string(nil), r.citations...)),
			KnowledgeVersion: knowledge.Version,
		})
	}
	return recs
}

func contentGapPrefix(analysis Analysis) string {
	gaps := analysis.ContentGaps
	listed := gaps
	if len(listed) > maxListedGaps {
		listed = listed[:maxListedGaps]
	}
	msg := fmt.Sprintf("Models could not answer %d question(s) confidently: %s", len(gaps), strings.Join(listed, "; "))
	if len(gaps) > len(listed) {
		msg += fmt.Sprintf(" (and %d more)", len(gaps)-len(listed))
	}
	return msg + "."
}
