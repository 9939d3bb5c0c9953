package knowledge

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/AI-Template-SDK/senso-benchmarks/internal/models"
)

func TestRuleKeysExist(t *testing.T) {
	keys := []string{
		KeyAccuracyCredibility, KeyClinicalClarity, KeyFAQCoverage, KeyTopicDepth,
		KeyAuthoritativeSource, KeyExpertCitations, KeyRegulatoryAlignment,
		KeySchemaMarkup, KeyStructuredData, KeyCrawlability,
	}
	for _, k := range keys {
		tip, ok := Lookup(k)
		assert.True(t, ok, k)
		assert.NotEmpty(t, tip.Text, k)
	}
}

func TestCategoryOf(t *testing.T) {
	tests := []struct {
		key  string
		want models.RecommendationCategory
	}{
		{KeyAccuracyCredibility, models.CategoryContent},
		{KeyExpertCitations, models.CategoryAuthority},
		{KeySchemaMarkup, models.CategoryTechnical},
	}
	for _, tt := range tests {
		got, ok := CategoryOf(tt.key)
		assert.True(t, ok)
		assert.Equal(t, tt.want, got)
	}

	_, ok := CategoryOf("missing.key")
	assert.False(t, ok)
}

func TestSectionTipsSortedAndScoped(t *testing.T) {
	got := SectionTips(SectionTechnical)
	assert.Len(t, got, 3)
	for i := 1; i < len(got); i++ {
		assert.Less(t, got[i-1].Key, got[i].Key)
	}
	for _, tip := range got {
		assert.Equal(t, SectionTechnical, tip.Section)
	}
}

func TestUniqueKeys(t *testing.T) {
	assert.Len(t, byKey, len(tips))
}
