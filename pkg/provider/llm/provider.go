// Package llm defines the Provider interface for Large Language Model backends.
//
// An LLM provider wraps a remote or local model API (OpenAI, Anthropic, a local
// Ollama instance, ...) and exposes the single blocking completion call the
// soundalike oracle needs, plus static capability metadata. Structured output
// is requested through [CompletionRequest.ResponseFormat]; providers that
// cannot enforce a schema natively must still honour the request on a
// best-effort basis (for example by describing the schema in the prompt).
//
// Implementors must be safe for concurrent use. The oracle issues one request
// per syllable and per transcription in parallel.
package llm

import "context"

// Provider is the abstraction over any LLM backend.
//
// Implementations must propagate context cancellation promptly: when ctx is
// cancelled or its deadline passes, Complete must return as soon as possible
// with an error that wraps ctx.Err().
type Provider interface {
	// Complete sends req to the model and waits for the full response.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)

	// Capabilities returns static metadata describing what the underlying
	// model supports. The result is constant for the lifetime of the Provider.
	Capabilities() ModelCapabilities
}
