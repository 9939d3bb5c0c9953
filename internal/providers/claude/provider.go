package claude

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go.uber.org/zap"

	"github.com/AI-Template-SDK/senso-benchmarks/internal/providers/common"
)

// Provider answers benchmark questions through the Anthropic messages API.
type Provider struct {
	client      *anthropic.Client
	model       string
	costService common.CostCalculator
	logger      *zap.Logger
}

func NewProvider(apiKey, model string, costService common.CostCalculator, logger *zap.Logger, opts ...option.RequestOption) *Provider {
	client := anthropic.NewClient(append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)...)
	return &Provider{
		client:      &client,
		model:       model,
		costService: costService,
		logger:      logger,
	}
}

func (p *Provider) GetProviderName() string {
	return "anthropic"
}

func (p *Provider) ModelName() string {
	return p.model
}

func (p *Provider) Complete(ctx context.Context, question string) (*common.Completion, error) {
	p.logger.Debug("[AnthropicProvider] sending question", zap.String("model", p.model))

	prompt := common.BuildPrompt(question) + "\n\nRemember: Return ONLY the JSON object, no other text."

	response, err := p.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		MaxTokens: 2000,
		Messages: []anthropic.MessageParam{{
			Content: []anthropic.ContentBlockParamUnion{{
				OfText: &anthropic.TextBlockParam{Text: prompt},
			}},
			Role: anthropic.MessageParamRoleUser,
		}},
		Temperature: anthropic.Float(0.7),
	})
	if err != nil {
		if common.IsQuotaError(err) {
			return nil, fmt.Errorf("anthropic %s: %w: %v", p.model, common.ErrQuotaExceeded, err)
		}
		return nil, fmt.Errorf("anthropic completion failed: %w", err)
	}

	text := extractResponseText(response)
	if strings.TrimSpace(text) == "" {
		return nil, common.ErrEmptyCompletion
	}

	completion := &common.Completion{
		PromptTokens:     int(response.Usage.InputTokens),
		CompletionTokens: int(response.Usage.OutputTokens),
		Model:            p.model,
	}
	common.ParseCompletionText(text, completion)
	completion.Cost = p.costService.CalculateCost(p.GetProviderName(), p.model, completion.PromptTokens, completion.CompletionTokens)

	return completion, nil
}

func extractResponseText(response *anthropic.Message) string {
	var textParts []string
	for _, block := range response.Content {
		switch variant := block.AsAny().(type) {
		case anthropic.TextBlock:
			textParts = append(textParts, variant.Text)
		}
	}
	return strings.Join(textParts, "")
}
