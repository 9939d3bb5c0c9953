package providers

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/AI-Template-SDK/senso-benchmarks/internal/config"
	"github.com/AI-Template-SDK/senso-benchmarks/internal/providers/claude"
	"github.com/AI-Template-SDK/senso-benchmarks/internal/providers/common"
	"github.com/AI-Template-SDK/senso-benchmarks/internal/providers/gpt"
	"github.com/AI-Template-SDK/senso-benchmarks/internal/providers/mock"
)

// NewCompleter creates the appropriate provider based on the model name.
// Names listed in MOCK_MODELS, or prefixed with "mock-", always get the synthetic provider.
func NewCompleter(modelName string, cfg *config.Config, costService common.CostCalculator, logger *zap.Logger) (Completer, error) {
	if modelName == "" {
		return nil, fmt.Errorf("model name is empty")
	}
	modelLower := strings.ToLower(modelName)

	if IsMockModel(modelName, cfg) {
		logger.Info("[ProviderFactory] selected mock provider", zap.String("model", modelName))
		return mock.NewProvider(modelName), nil
	}

	opts := DefaultResilienceOptions(cfg.Benchmark.MaxRetries)

	// OpenAI provider (gpt-4.1, etc.)
	if strings.Contains(modelLower, "gpt") || strings.HasPrefix(modelLower, "o1") ||
		strings.HasPrefix(modelLower, "o3") || strings.Contains(modelLower, "4.1") {
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("OpenAI API key is empty in config")
		}
		logger.Info("[ProviderFactory] selected OpenAI provider", zap.String("model", modelName))
		return NewResilientCompleter(gpt.NewProvider(cfg.OpenAIAPIKey, modelName, costService, logger), opts, logger), nil
	}

	// Anthropic provider
	if strings.Contains(modelLower, "claude") || strings.Contains(modelLower, "sonnet") ||
		strings.Contains(modelLower, "opus") || strings.Contains(modelLower, "haiku") {
		if cfg.AnthropicAPIKey == "" {
			return nil, fmt.Errorf("Anthropic API key is empty in config")
		}
		logger.Info("[ProviderFactory] selected Anthropic provider", zap.String("model", modelName))
		return NewResilientCompleter(claude.NewProvider(cfg.AnthropicAPIKey, modelName, costService, logger), opts, logger), nil
	}

	return nil, fmt.Errorf("unsupported model: %s", modelName)
}

// IsMockModel reports whether the model name is served by the synthetic provider.
func IsMockModel(modelName string, cfg *config.Config) bool {
	if strings.HasPrefix(strings.ToLower(modelName), "mock-") {
		return true
	}
	for _, m := range cfg.Benchmark.MockModelNames() {
		if strings.EqualFold(m, modelName) {
			return true
		}
	}
	return false
}
