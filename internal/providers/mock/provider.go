package mock

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"

	"github.com/brianvoe/gofakeit/v6"

	"github.com/AI-Template-SDK/senso-benchmarks/internal/providers/common"
)

var citedSources = []common.CitedSource{
	{URL: "https://www.fda.gov/drugs/drug-approvals-and-databases", Title: "FDA approved drug information"},
	{URL: "https://www.ema.europa.eu/en/medicines", Title: "EMA medicines overview"},
	{URL: "https://www.nejm.org/doi/full/10.1056/trial-results", Title: "Phase 3 trial results"},
	{URL: "https://www.drugs.com/pro/monograph.html", Title: "Professional monograph"},
	{URL: "https://www.medscape.com/drug-reference", Title: "Drug reference and dosing"},
	{URL: "https://www.mayoclinic.org/drugs-supplements", Title: "Drugs and supplements"},
	{URL: "https://www.healthline.com/health/treatment-options", Title: "Treatment options explained"},
}

var openers = []string{
	"Based on current prescribing information,",
	"According to published clinical evidence,",
	"In summary,",
	"Clinical guidelines indicate that",
}

// Provider produces deterministic synthetic answers for model names without a live API.
// The same model and question always yield the same completion.
type Provider struct {
	model string
}

func NewProvider(model string) *Provider {
	return &Provider{model: model}
}

func (p *Provider) GetProviderName() string {
	return "mock"
}

func (p *Provider) ModelName() string {
	return p.model
}

func (p *Provider) Complete(ctx context.Context, question string) (*common.Completion, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	faker := gofakeit.New(Seed(p.model, question))

	text := fmt.Sprintf("%s regarding \"%s\": %s %s",
		faker.RandomString(openers),
		strings.TrimSuffix(question, "?"),
		faker.Sentence(12),
		faker.Sentence(10),
	)

	confidence := round2(faker.Float64Range(0.7, 0.95))
	sentiment := round2(faker.Float64Range(0.6, 0.9))

	n := faker.Number(1, 3)
	start := faker.Number(0, len(citedSources)-1)
	sources := make([]common.CitedSource, 0, n)
	for i := 0; i < n; i++ {
		sources = append(sources, citedSources[(start+i)%len(citedSources)])
	}

	promptTokens := len(strings.Fields(common.BuildPrompt(question)))
	return &common.Completion{
		Text:             text,
		Confidence:       &confidence,
		Sentiment:        &sentiment,
		Sources:          sources,
		PromptTokens:     promptTokens,
		CompletionTokens: len(strings.Fields(text)),
		Model:            p.model,
	}, nil
}

// Seed derives a stable faker seed from the given parts.
func Seed(parts ...string) int64 {
	h := fnv.New64a()
	for _, part := range parts {
		_, _ = h.Write([]byte(part))
		_, _ = h.Write([]byte{0})
	}
	return int64(h.Sum64() & 0x7fffffffffffffff)
}

func round2(v float64) float64 {
	return float64(int(v*100+0.5)) / 100
}
