package providers

import (
	"context"

	"github.com/AI-Template-SDK/senso-benchmarks/internal/providers/common"
)

// Completer is the LLM completion collaborator used by the benchmark pipeline.
// A quota or rate-limit failure must satisfy common.IsQuotaError.
type Completer interface {
	Complete(ctx context.Context, question string) (*common.Completion, error)
	GetProviderName() string
	ModelName() string
}
