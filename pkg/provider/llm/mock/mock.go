// Package mock provides a test double for the llm.Provider interface.
//
// Use Provider in unit tests to feed controlled responses to the oracle
// without a live LLM backend. Responses are chosen in this order:
//
//  1. CompleteFunc, when set, decides every response.
//  2. Otherwise the next entry of Responses is consumed; once the queue is
//     exhausted the last entry is repeated.
//  3. Otherwise CompleteResponse / CompleteErr are returned.
//
// Example:
//
//	p := &mock.Provider{
//	    CompleteResponse: &llm.CompletionResponse{Content: `{"syllables":["cat"]}`},
//	}
package mock

import (
	"context"
	"sync"

	"github.com/MrWong99/soundalike/pkg/provider/llm"
)

// CompleteCall records a single invocation of Complete.
type CompleteCall struct {
	Ctx context.Context
	Req llm.CompletionRequest
}

// Reply is one queued Complete outcome.
type Reply struct {
	Response *llm.CompletionResponse
	Err      error
}

// Provider is a mock implementation of llm.Provider. It is safe for
// concurrent use.
type Provider struct {
	mu sync.Mutex

	// CompleteFunc, if set, computes the response for each call.
	CompleteFunc func(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error)

	// Responses is a FIFO of replies consumed one per call.
	Responses []Reply

	// CompleteResponse is returned by Complete when nothing else applies.
	CompleteResponse *llm.CompletionResponse

	// CompleteErr, if non-nil, is returned as the error from Complete.
	CompleteErr error

	// ModelCapabilities is returned by Capabilities.
	ModelCapabilities llm.ModelCapabilities

	// CompleteCalls records every invocation of Complete in order.
	CompleteCalls []CompleteCall

	next int
}

// Complete records the call and returns the configured response.
func (p *Provider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	p.mu.Lock()
	p.CompleteCalls = append(p.CompleteCalls, CompleteCall{Ctx: ctx, Req: req})
	fn := p.CompleteFunc
	var reply *Reply
	if fn == nil && len(p.Responses) > 0 {
		idx := min(p.next, len(p.Responses)-1)
		r := p.Responses[idx]
		reply = &r
		p.next++
	}
	resp, err := p.CompleteResponse, p.CompleteErr
	p.mu.Unlock()

	switch {
	case fn != nil:
		return fn(ctx, req)
	case reply != nil:
		return reply.Response, reply.Err
	default:
		return resp, err
	}
}

// Capabilities returns ModelCapabilities.
func (p *Provider) Capabilities() llm.ModelCapabilities {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ModelCapabilities
}

// Calls returns a snapshot of the recorded calls.
func (p *Provider) Calls() []CompleteCall {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]CompleteCall, len(p.CompleteCalls))
	copy(out, p.CompleteCalls)
	return out
}

// Reset clears all recorded calls and rewinds the response queue.
func (p *Provider) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.CompleteCalls = nil
	p.next = 0
}

var _ llm.Provider = (*Provider)(nil)
