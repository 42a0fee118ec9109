// Package anyllm adapts github.com/mozilla-ai/any-llm-go to llm.Provider so
// one code path reaches OpenAI, Anthropic, Gemini, Ollama and the other
// backends it bundles.
//
// any-llm-go has no portable structured-output switch. A requested
// [llm.ResponseFormat] is therefore appended to the system prompt as a JSON
// Schema the model must answer with; the oracle validates the reply.
//
//	p, err := anyllm.New("anthropic", "claude-3-5-sonnet-latest", anyllmlib.WithAPIKey(key))
package anyllm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	anyllmlib "github.com/mozilla-ai/any-llm-go"
	"github.com/mozilla-ai/any-llm-go/providers/anthropic"
	"github.com/mozilla-ai/any-llm-go/providers/deepseek"
	"github.com/mozilla-ai/any-llm-go/providers/gemini"
	"github.com/mozilla-ai/any-llm-go/providers/groq"
	"github.com/mozilla-ai/any-llm-go/providers/llamacpp"
	"github.com/mozilla-ai/any-llm-go/providers/llamafile"
	"github.com/mozilla-ai/any-llm-go/providers/mistral"
	"github.com/mozilla-ai/any-llm-go/providers/ollama"
	anyllmoai "github.com/mozilla-ai/any-llm-go/providers/openai"

	"github.com/MrWong99/soundalike/pkg/provider/llm"
)

type backendFunc func(...anyllmlib.Option) (anyllmlib.Provider, error)

func wrap[P anyllmlib.Provider](newFn func(...anyllmlib.Option) (P, error)) backendFunc {
	return func(opts ...anyllmlib.Option) (anyllmlib.Provider, error) {
		return newFn(opts...)
	}
}

var backends = map[string]backendFunc{
	"openai":    wrap(anyllmoai.New),
	"anthropic": wrap(anthropic.New),
	"gemini":    wrap(gemini.New),
	"ollama":    wrap(ollama.New),
	"deepseek":  wrap(deepseek.New),
	"mistral":   wrap(mistral.New),
	"groq":      wrap(groq.New),
	"llamacpp":  wrap(llamacpp.New),
	"llamafile": wrap(llamafile.New),
}

// Names lists the backend names accepted by [New], sorted.
var Names = slices.Sorted(maps.Keys(backends))

// Provider sends completions through one any-llm-go backend.
type Provider struct {
	backend anyllmlib.Provider
	model   string
}

// New opens backend name (case-insensitive, one of [Names]) for model.
// Without anyllmlib.WithAPIKey the backend reads its usual environment
// variable (OPENAI_API_KEY, ANTHROPIC_API_KEY, ...).
func New(name, model string, opts ...anyllmlib.Option) (*Provider, error) {
	switch {
	case name == "":
		return nil, errors.New("anyllm: backend name is required")
	case model == "":
		return nil, errors.New("anyllm: model is required")
	}
	newBackend, ok := backends[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("anyllm: unsupported backend %q (have %s)", name, strings.Join(Names, ", "))
	}
	backend, err := newBackend(opts...)
	if err != nil {
		return nil, fmt.Errorf("anyllm: open %s: %w", name, err)
	}
	return &Provider{backend: backend, model: model}, nil
}

// Complete sends req and returns the first choice.
func (p *Provider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	params, err := p.buildParams(req)
	if err != nil {
		return nil, fmt.Errorf("anyllm: %w", err)
	}
	resp, err := p.backend.Completion(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("anyllm: %s: %w", p.model, err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("anyllm: %s returned no choices", p.model)
	}

	out := &llm.CompletionResponse{Content: resp.Choices[0].Message.ContentString()}
	if u := resp.Usage; u != nil {
		out.Usage = llm.Usage{
			PromptTokens:     u.PromptTokens,
			CompletionTokens: u.CompletionTokens,
			TotalTokens:      u.TotalTokens,
		}
	}
	return out, nil
}

// Capabilities never claims native structured output.
func (p *Provider) Capabilities() llm.ModelCapabilities {
	return modelCapabilities(p.model)
}

func (p *Provider) buildParams(req llm.CompletionRequest) (anyllmlib.CompletionParams, error) {
	if len(req.Messages) == 0 {
		return anyllmlib.CompletionParams{}, errors.New("request has no messages")
	}

	system := req.SystemPrompt
	if rf := req.ResponseFormat; rf != nil {
		instr, err := schemaInstruction(rf)
		if err != nil {
			return anyllmlib.CompletionParams{}, err
		}
		system = strings.TrimPrefix(system+"\n\n"+instr, "\n\n")
	}

	messages := make([]anyllmlib.Message, 0, len(req.Messages)+1)
	if system != "" {
		messages = append(messages, anyllmlib.Message{Role: anyllmlib.RoleSystem, Content: system})
	}
	for _, m := range req.Messages {
		messages = append(messages, anyllmlib.Message{Role: m.Role, Content: m.Content})
	}

	params := anyllmlib.CompletionParams{Model: p.model, Messages: messages}
	if req.Temperature != 0 {
		params.Temperature = &req.Temperature
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = &req.MaxTokens
	}
	return params, nil
}

func schemaInstruction(rf *llm.ResponseFormat) (string, error) {
	schema, err := json.MarshalIndent(rf.Schema, "", "  ")
	if err != nil {
		return "", fmt.Errorf("schema %s: %w", rf.Name, err)
	}
	purpose := ""
	if rf.Description != "" {
		purpose = " (" + rf.Description + ")"
	}
	return fmt.Sprintf("Reply with a single JSON object%s and nothing else: no markdown fences, no prose. It must validate against this JSON Schema:\n%s", purpose, schema), nil
}

// contextWindows maps a model name fragment to its context window and output
// limit. Checked in order.
var contextWindows = []struct {
	match           func(string) bool
	context, output int
}{
	{prefix("gpt-4o"), 128_000, 16_384},
	{prefix("gpt-4"), 8_192, 4_096},
	{prefix("gpt-3.5-turbo"), 16_385, 4_096},
	{prefix("o1", "o3"), 200_000, 100_000},
	{contains("claude-3-opus"), 200_000, 4_096},
	{prefix("claude"), 200_000, 8_192},
	{contains("gemini-1.5-pro"), 2_097_152, 8_192},
	{contains("gemini-2", "gemini-1.5-flash"), 1_048_576, 8_192},
	{prefix("gemini"), 128_000, 8_192},
}

func prefix(ps ...string) func(string) bool {
	return func(s string) bool {
		return slices.ContainsFunc(ps, func(p string) bool { return strings.HasPrefix(s, p) })
	}
}

func contains(subs ...string) func(string) bool {
	return func(s string) bool {
		return slices.ContainsFunc(subs, func(sub string) bool { return strings.Contains(s, sub) })
	}
}

func modelCapabilities(model string) llm.ModelCapabilities {
	name := strings.ToLower(model)
	for _, cw := range contextWindows {
		if cw.match(name) {
			return llm.ModelCapabilities{ContextWindow: cw.context, MaxOutputTokens: cw.output}
		}
	}
	return llm.ModelCapabilities{ContextWindow: 128_000, MaxOutputTokens: 4_096}
}
