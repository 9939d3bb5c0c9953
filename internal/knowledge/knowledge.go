// Package knowledge holds the static, versioned tip catalogue that recommendations cite.
package knowledge

import (
	"sort"

	"github.com/AI-Template-SDK/senso-benchmarks/internal/models"
)

// Version is stamped on every recommendation.
const Version = "2024-11-01"

type Section string

const (
	SectionContentStructure Section = "content_structure"
	SectionAuthoritySignals Section = "authority_signals"
	SectionTechnical        Section = "technical_infrastructure"
	SectionBestPractices    Section = "best_practices"
	SectionOffPage          Section = "off_page_tactics"
	SectionMetrics          Section = "metrics"
)

type Tip struct {
	Key      string
	Section  Section
	Category models.RecommendationCategory
	Text     string
}

// Keys cited by the recommendation rules.
const (
	KeyAccuracyCredibility = "content.accuracy_credibility"
	KeyClinicalClarity     = "content.clinical_clarity"
	KeyFAQCoverage         = "content.faq_coverage"
	KeyTopicDepth          = "content.topic_depth"
	KeyAuthoritativeSource = "authority.authoritative_sources"
	KeyExpertCitations     = "authority.expert_citations"
	KeyRegulatoryAlignment = "authority.regulatory_alignment"
	KeySchemaMarkup        = "technical.schema_markup"
	KeyStructuredData      = "technical.structured_data"
	KeyCrawlability        = "technical.crawlability"
)

var tips = []Tip{
	{KeyAccuracyCredibility, SectionContentStructure, models.CategoryContent,
		"Publish accurate, up-to-date prescribing information and keep claims consistent with the approved label."},
	{KeyClinicalClarity, SectionContentStructure, models.CategoryContent,
		"Summarize indication, dosing and safety in plain language near the top of product pages."},
	{KeyFAQCoverage, SectionContentStructure, models.CategoryContent,
		"Answer the common patient and HCP questions explicitly with dedicated FAQ content."},
	{KeyTopicDepth, SectionContentStructure, models.CategoryContent,
		"Cover comparative efficacy, guideline position and access topics in depth."},
	{KeyAuthoritativeSource, SectionAuthoritySignals, models.CategoryAuthority,
		"Reference regulator pages, peer-reviewed journals and clinical guidelines from product content."},
	{KeyExpertCitations, SectionAuthoritySignals, models.CategoryAuthority,
		"Attribute content to named clinical experts and cite pivotal trial publications."},
	{KeyRegulatoryAlignment, SectionAuthoritySignals, models.CategoryAuthority,
		"Keep regional label updates mirrored across owned channels within days of approval."},
	{KeySchemaMarkup, SectionTechnical, models.CategoryTechnical,
		"Add Drug and MedicalWebPage schema.org markup to product and HCP pages."},
	{KeyStructuredData, SectionTechnical, models.CategoryTechnical,
		"Expose dosing, indication and safety data as structured data rather than images or PDFs only."},
	{KeyCrawlability, SectionTechnical, models.CategoryTechnical,
		"Make sure HCP and patient content is crawlable without interstitials or geo-walls."},
	{"best_practices.consistent_naming", SectionBestPractices, models.CategoryContent,
		"Use brand and INN together consistently so models associate both names."},
	{"best_practices.fresh_content", SectionBestPractices, models.CategoryContent,
		"Refresh key pages at least quarterly and show the review date."},
	{"off_page.medical_societies", SectionOffPage, models.CategoryAuthority,
		"Support medical society and patient organization resources that discuss the therapy."},
	{"off_page.reference_sites", SectionOffPage, models.CategoryAuthority,
		"Keep entries on clinical reference sites complete and current."},
	{"metrics.visibility", SectionMetrics, models.CategoryContent,
		"Track how early the brand appears in model answers across question types."},
	{"metrics.reference_quality", SectionMetrics, models.CategoryAuthority,
		"Track the share of citations pointing at regulators, journals and clinical references."},
}

var byKey = func() map[string]Tip {
	m := make(map[string]Tip, len(tips))
	for _, t := range tips {
		m[t.Key] = t
	}
	return m
}()

// Lookup returns the tip for key.
func Lookup(key string) (Tip, bool) {
	t, ok := byKey[key]
	return t, ok
}

// CategoryOf returns the recommendation category a key belongs to.
func CategoryOf(key string) (models.RecommendationCategory, bool) {
	t, ok := byKey[key]
	return t.Category, ok
}

// SectionTips returns the tips of one section sorted by key.
func SectionTips(section Section) []Tip {
	var out []Tip
	for _, t := range tips {
		if t.Section == section {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}
