package gpt

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"go.uber.org/zap"

	"github.com/AI-Template-SDK/senso-benchmarks/internal/providers/common"
)

// Provider answers benchmark questions through the OpenAI chat completions API.
type Provider struct {
	client      *openai.Client
	model       string
	costService common.CostCalculator
	logger      *zap.Logger
}

// NewProvider creates an OpenAI-backed provider. Extra request options (base URL, HTTP client)
// are passed through to the SDK.
func NewProvider(apiKey, model string, costService common.CostCalculator, logger *zap.Logger, opts ...option.RequestOption) *Provider {
	client := openai.NewClient(append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)...)
	return &Provider{
		client:      &client,
		model:       model,
		costService: costService,
		logger:      logger,
	}
}

func (p *Provider) GetProviderName() string {
	return "openai"
}

func (p *Provider) ModelName() string {
	return p.model
}

// Complete sends one question and asks for the structured answer schema.
func (p *Provider) Complete(ctx context.Context, question string) (*common.Completion, error) {
	p.logger.Debug("[OpenAIProvider] sending question", zap.String("model", p.model))

	response, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(common.SystemPrompt),
			openai.UserMessage(common.UserPrompt(question)),
		},
		Model: openai.ChatModel(p.model),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
				JSONSchema: openai.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:        "benchmark_answer",
					Description: openai.String("Answer with confidence, sentiment and cited sources"),
					Schema:      common.AnswerSchema,
					Strict:      openai.Bool(true),
				},
			},
		},
		Temperature: openai.Float(0.7),
		MaxTokens:   openai.Int(2000),
	})
	if err != nil {
		if common.IsQuotaError(err) {
			return nil, fmt.Errorf("openai %s: %w: %v", p.model, common.ErrQuotaExceeded, err)
		}
		return nil, fmt.Errorf("openai completion failed: %w", err)
	}

	if len(response.Choices) == 0 || response.Choices[0].Message.Content == "" {
		return nil, common.ErrEmptyCompletion
	}

	completion := &common.Completion{
		PromptTokens:     int(response.Usage.PromptTokens),
		CompletionTokens: int(response.Usage.CompletionTokens),
		Model:            p.model,
	}
	common.ParseCompletionText(response.Choices[0].Message.Content, completion)
	completion.Cost = p.costService.CalculateCost(p.GetProviderName(), p.model, completion.PromptTokens, completion.CompletionTokens)

	return completion, nil
}
