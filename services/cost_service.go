// services/cost_service.go
package services

import "strings"

// price is USD per million tokens.
type price struct {
	input, output float64
}

// Prices for the benchmarked models.
var modelPrices = map[string]price{
	"gpt-5":                    {input: 1.25, output: 10.00},
	"gpt-5-mini":               {input: 0.25, output: 2.00},
	"gpt-4.1":                  {input: 3.00, output: 12.00},
	"gpt-4.1-mini":             {input: 0.80, output: 3.20},
	"gpt-4o":                   {input: 2.50, output: 10.00},
	"claude-sonnet-4-20250514": {input: 3.00, output: 15.00},
	"claude-3-5-sonnet":        {input: 3.00, output: 15.00},
	"gemini-1.5-pro":           {input: 1.25, output: 5.00},
	"perplexity-sonar":         {input: 1.00, output: 1.00},
}

// Fallback model per provider when the model itself is not priced.
var providerDefaults = map[string]string{
	"openai":    "gpt-4.1",
	"anthropic": "claude-sonnet-4-20250514",
}

const defaultPricedModel = "gpt-4.1"

type costService struct{}

func NewCostService() CostService {
	return &costService{}
}

// CalculateCost estimates the USD cost of one completion. Dated snapshots such as
// "gpt-4o-2024-08-06" are priced as their base model. The mock provider is free.
func (s *costService) CalculateCost(provider, model string, inputTokens, outputTokens int) float64 {
	if strings.EqualFold(provider, "mock") {
		return 0
	}
	p := lookupPrice(strings.ToLower(provider), strings.ToLower(model))
	return float64(inputTokens)/1_000_000*p.input + float64(outputTokens)/1_000_000*p.output
}

func lookupPrice(provider, model string) price {
	if p, ok := modelPrices[model]; ok {
		return p
	}
	// longest priced prefix wins so gpt-4.1-mini-x does not resolve to gpt-4.1
	best := ""
	for name := range modelPrices {
		if strings.HasPrefix(model, name+"-") && len(name) > len(best) {
			best = name
		}
	}
	if best != "" {
		return modelPrices[best]
	}
	if name, ok := providerDefaults[provider]; ok {
		return modelPrices[name]
	}
	return modelPrices[defaultPricedModel]
}
