// Package llmtest provides a canned-response llm.Provider for tests.
package llmtest

import (
	"context"
	"sync"

	"github.com/ziadkadry99/krishi-mitra/internal/llm"
)

// Provider records calls and returns canned responses. When Responses is
// non-empty, each call pops the next one; otherwise Response is returned.
type Provider struct {
	mu        sync.Mutex
	Calls     []llm.CompletionRequest
	Response  *llm.CompletionResponse
	Responses []*llm.CompletionResponse
	Err       error
	ProvName  string
}

// New returns a Provider whose every call yields content.
func New(content string) *Provider {
	return &Provider{
		ProvName: "mock",
		Response: &llm.CompletionResponse{
			Content:      content,
			InputTokens:  10,
			OutputTokens: 20,
			Model:        "mock-model",
			FinishReason: "STOP",
		},
	}
}

// Failing returns a Provider whose every call fails with err.
func Failing(err error) *Provider {
	return &Provider{ProvName: "mock", Err: err}
}

func (p *Provider) Name() string {
	return p.ProvName
}

func (p *Provider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Calls = append(p.Calls, req)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if p.Err != nil {
		return nil, p.Err
	}
	if len(p.Responses) > 0 {
		resp := p.Responses[0]
		p.Responses = p.Responses[1:]
		return resp, nil
	}
	return p.Response, nil
}

// CallCount returns the number of Complete calls so far.
func (p *Provider) CallCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.Calls)
}

// LastCall returns the most recent request.
func (p *Provider) LastCall() llm.CompletionRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.Calls) == 0 {
		return llm.CompletionRequest{}
	}
	return p.Calls[len(p.Calls)-1]
}
