package testutil

import (
	"context"
	"errors"
	"sync"

	"github.com/AI-Template-SDK/senso-benchmarks/internal/providers/common"
)

// MockCostService is a mock implementation of CostService for testing
type MockCostService struct {
	CalculateCostFunc func(provider, model string, inputTokens, outputTokens int) float64
}

func (m *MockCostService) CalculateCost(provider, model string, inputTokens, outputTokens int) float64 {
	if m.CalculateCostFunc != nil {
		return m.CalculateCostFunc(provider, model, inputTokens, outputTokens)
	}
	return 0.0015 // Default mock cost
}

// NewMockCostService creates a new mock cost service
func NewMockCostService() *MockCostService {
	return &MockCostService{}
}

// Reply is one scripted provider outcome.
type Reply struct {
	Completion *common.Completion
	Err        error
}

// TextReply builds a successful reply.
func TextReply(text string, confidence float64, sources ...common.CitedSource) Reply {
	sentiment := 0.7
	return Reply{Completion: &common.Completion{
		Text:             text,
		Confidence:       &confidence,
		Sentiment:        &sentiment,
		Sources:          sources,
		PromptTokens:     100,
		CompletionTokens: 50,
		Cost:             0.0015,
	}}
}

// ErrReply builds a failing reply.
func ErrReply(err error) Reply {
	return Reply{Err: err}
}

var ErrScriptExhausted = errors.New("scripted completer has no more replies")

// ScriptedCompleter returns Replies in call order, then Fallback (if set).
// When Block is non-nil every call waits on it or on the context.
type ScriptedCompleter struct {
	Model    string
	Replies  []Reply
	Fallback func(question string) Reply
	Block    chan struct{}

	mu        sync.Mutex
	questions []string
}

func (s *ScriptedCompleter) GetProviderName() string {
	return "scripted"
}

func (s *ScriptedCompleter) ModelName() string {
	if s.Model == "" {
		return "scripted-model"
	}
	return s.Model
}

func (s *ScriptedCompleter) Complete(ctx context.Context, question string) (*common.Completion, error) {
	s.mu.Lock()
	idx := len(s.questions)
	s.questions = append(s.questions, question)
	s.mu.Unlock()

	if s.Block != nil {
		select {
		case <-s.Block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var reply Reply
	switch {
	case idx < len(s.Replies):
		reply = s.Replies[idx]
	case s.Fallback != nil:
		reply = s.Fallback(question)
	default:
		return nil, ErrScriptExhausted
	}

	if reply.Err != nil {
		return nil, reply.Err
	}
	out := *reply.Completion
	out.Model = s.ModelName()
	return &out, nil
}

// Questions returns every question received so far.
func (s *ScriptedCompleter) Questions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.questions...)
}

// CallCount returns how many times Complete was called.
func (s *ScriptedCompleter) CallCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.questions)
}
