// services/sample_data_service.go
package services

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/brianvoe/gofakeit/v6"

	"github.com/AI-Template-SDK/senso-benchmarks/internal/models"
	"github.com/AI-Template-SDK/senso-benchmarks/internal/providers/common"
	"github.com/AI-Template-SDK/senso-benchmarks/internal/providers/mock"
)

var sampleSources = []common.CitedSource{
	{URL: "https://www.fda.gov/drugs/drug-approvals-and-databases", Title: "Approved prescribing information"},
	{URL: "https://www.ema.europa.eu/en/medicines/human/EPAR", Title: "European public assessment report"},
	{URL: "https://www.nejm.org/doi/full/10.1056/pivotal-trial", Title: "Pivotal phase 3 trial: effective and well tolerated"},
	{URL: "https://www.thelancet.com/journals/lancet/article", Title: "Long-term efficacy and safety follow-up"},
	{URL: "https://www.drugs.com/monograph", Title: "Professional monograph"},
	{URL: "https://www.medscape.com/drug-reference", Title: "Dosing and administration reference"},
	{URL: "https://www.mayoclinic.org/drugs-supplements", Title: "Drug information for patients"},
}

var sampleOpenings = []string{
	"%s (%s) from %s is an %s therapy used for %s.",
	"%s (%s), marketed by %s, is an %s treatment option for %s.",
	"%s (%s) is %s's %s medicine indicated for %s.",
}

type sampleDataService struct{}

func NewSampleDataService() SampleDataService {
	return &sampleDataService{}
}

// Completion returns the same answer for the same product, model and question.
// The brand leads every answer so sample runs score as visible.
func (s *sampleDataService) Completion(product *models.Product, model, question string) *common.Completion {
	faker := gofakeit.New(mock.Seed(strconv.FormatInt(product.ID, 10), model, question))

	status := strings.TrimSpace(product.ApprovalStatus)
	if status == "" {
		status = "approved"
	}
	indication := strings.TrimSpace(product.Indication)
	if indication == "" {
		indication = "its licensed indications"
	}

	opening := fmt.Sprintf(faker.RandomString(sampleOpenings),
		product.BrandName, product.INN, product.CompanyName, status, indication)
	text := strings.Join([]string{
		opening,
		fmt.Sprintf("Clinical trials have shown it to be effective, and it is recommended in current guidelines for %s.", indication),
		fmt.Sprintf("Regarding \"%s\": %s", strings.TrimSuffix(question, "?"), faker.Sentence(10)),
		"Patients should discuss side effects and monitoring with their prescriber.",
	}, " ")

	confidence := math.Round(faker.Float64Range(0.8, 0.92)*100) / 100
	sentiment := math.Round(faker.Float64Range(0.65, 0.85)*100) / 100

	n := faker.Number(2, 3)
	start := faker.Number(0, len(sampleSources)-1)
	sources := make([]common.CitedSource, 0, n)
	for i := 0; i < n; i++ {
		sources = append(sources, sampleSources[(start+i)%len(sampleSources)])
	}

	return &common.Completion{
		Text:             text,
		Confidence:       &confidence,
		Sentiment:        &sentiment,
		Sources:          sources,
		PromptTokens:     len(strings.Fields(common.BuildPrompt(question))),
		CompletionTokens: len(strings.Fields(text)),
		Model:            model,
	}
}
