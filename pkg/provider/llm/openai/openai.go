// Package openai is an llm.Provider over the OpenAI Chat Completions API. It
// uses native Structured Outputs (response_format json_schema) on models that
// have them and JSON mode on older ones.
package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/shared"

	"github.com/MrWong99/soundalike/pkg/provider/llm"
)

// Provider talks to one OpenAI model.
type Provider struct {
	client oai.Client
	model  string
	caps   llm.ModelCapabilities
}

// Option adds a request option to every call the provider makes.
type Option func() option.RequestOption

// WithBaseURL points the client at any Chat Completions compatible server
// (vLLM, LiteLLM, Azure proxies).
func WithBaseURL(url string) Option {
	return func() option.RequestOption { return option.WithBaseURL(url) }
}

// WithOrganization sends the OpenAI-Organization header.
func WithOrganization(org string) Option {
	return func() option.RequestOption { return option.WithOrganization(org) }
}

// WithTimeout bounds each HTTP round trip.
func WithTimeout(d time.Duration) Option {
	return func() option.RequestOption {
		return option.WithHTTPClient(&http.Client{Timeout: d})
	}
}

// New returns a provider for model authenticated with apiKey. The SDK's own
// retries are disabled; the oracle and the circuit breakers decide.
func New(apiKey, model string, opts ...Option) (*Provider, error) {
	switch {
	case apiKey == "":
		return nil, errors.New("openai: api key is required")
	case model == "":
		return nil, errors.New("openai: model is required")
	}
	reqOpts := []option.RequestOption{option.WithAPIKey(apiKey), option.WithMaxRetries(0)}
	for _, o := range opts {
		reqOpts = append(reqOpts, o())
	}
	return &Provider{
		client: oai.NewClient(reqOpts...),
		model:  model,
		caps:   modelCapabilities(model),
	}, nil
}

// Complete sends req and returns the first choice.
func (p *Provider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	params, err := p.buildParams(req)
	if err != nil {
		return nil, fmt.Errorf("openai: %w", err)
	}
	resp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai: %s: %w", p.model, err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai: %s returned no choices", p.model)
	}
	msg := resp.Choices[0].Message
	if msg.Refusal != "" {
		return nil, fmt.Errorf("openai: %s refused: %s", p.model, msg.Refusal)
	}
	return &llm.CompletionResponse{
		Content: msg.Content,
		Usage: llm.Usage{
			PromptTokens:     int(resp.Usage.PromptTokens),
			CompletionTokens: int(resp.Usage.CompletionTokens),
			TotalTokens:      int(resp.Usage.TotalTokens),
		},
	}, nil
}

// Capabilities reports the limits known for the model family.
func (p *Provider) Capabilities() llm.ModelCapabilities {
	if p.caps == (llm.ModelCapabilities{}) {
		return modelCapabilities(p.model)
	}
	return p.caps
}

// modelFamily matches model names by prefix. The first match wins, so
// narrower prefixes come first.
type modelFamily struct {
	prefix     string
	exact      bool
	context    int
	output     int
	structured bool
}

// Structured Outputs arrived with gpt-4o-2024-08-06.
var modelFamilies = []modelFamily{
	{prefix: "gpt-4o-2024-05-13", exact: true, context: 128_000, output: 4_096},
	{prefix: "gpt-4o-mini", context: 128_000, output: 16_384, structured: true},
	{prefix: "gpt-4o", context: 128_000, output: 16_384, structured: true},
	{prefix: "gpt-4.1", context: 1_047_576, output: 32_768, structured: true},
	{prefix: "gpt-4-turbo", context: 128_000, output: 4_096},
	{prefix: "gpt-4", context: 8_192, output: 4_096},
	{prefix: "gpt-3.5-turbo", context: 16_385, output: 4_096},
	{prefix: "o1-mini", context: 128_000, output: 65_536},
	{prefix: "o1", context: 200_000, output: 100_000, structured: true},
	{prefix: "o3", context: 200_000, output: 100_000, structured: true},
	{prefix: "o4", context: 200_000, output: 100_000, structured: true},
}

// modelCapabilities assumes a modern model when the name is unknown.
func modelCapabilities(model string) llm.ModelCapabilities {
	name := strings.ToLower(model)
	for _, f := range modelFamilies {
		if (f.exact && name == f.prefix) || (!f.exact && strings.HasPrefix(name, f.prefix)) {
			return llm.ModelCapabilities{
				ContextWindow:            f.context,
				MaxOutputTokens:          f.output,
				SupportsStructuredOutput: f.structured,
			}
		}
	}
	return llm.ModelCapabilities{ContextWindow: 128_000, MaxOutputTokens: 4_096, SupportsStructuredOutput: true}
}

func (p *Provider) buildParams(req llm.CompletionRequest) (oai.ChatCompletionNewParams, error) {
	if len(req.Messages) == 0 {
		return oai.ChatCompletionNewParams{}, errors.New("request has no messages")
	}

	messages := make([]oai.ChatCompletionMessageParamUnion, 0, len(req.Messages)+1)
	if req.SystemPrompt != "" {
		messages = append(messages, oai.SystemMessage(req.SystemPrompt))
	}
	for _, m := range req.Messages {
		msg, err := convertMessage(m)
		if err != nil {
			return oai.ChatCompletionNewParams{}, err
		}
		messages = append(messages, msg)
	}

	params := oai.ChatCompletionNewParams{
		Model:    shared.ChatModel(p.model),
		Messages: messages,
	}
	if req.Temperature != 0 {
		params.Temperature = param.NewOpt(req.Temperature)
	}
	if req.MaxTokens > 0 {
		params.MaxCompletionTokens = param.NewOpt(int64(req.MaxTokens))
	}
	if req.ResponseFormat != nil {
		params.ResponseFormat = responseFormat(req.ResponseFormat, p.Capabilities().SupportsStructuredOutput)
	}
	return params, nil
}

// responseFormat degrades to JSON mode when the model cannot follow a schema;
// the oracle validates the reply either way.
func responseFormat(rf *llm.ResponseFormat, structured bool) oai.ChatCompletionNewParamsResponseFormatUnion {
	if !structured {
		return oai.ChatCompletionNewParamsResponseFormatUnion{OfJSONObject: &shared.ResponseFormatJSONObjectParam{}}
	}
	js := shared.ResponseFormatJSONSchemaJSONSchemaParam{Name: rf.Name, Schema: rf.Schema}
	if rf.Description != "" {
		js.Description = param.NewOpt(rf.Description)
	}
	if rf.Strict {
		js.Strict = param.NewOpt(true)
	}
	return oai.ChatCompletionNewParamsResponseFormatUnion{
		OfJSONSchema: &shared.ResponseFormatJSONSchemaParam{JSONSchema: js},
	}
}

var roleMessages = map[string]func(string) oai.ChatCompletionMessageParamUnion{
	"system":    func(s string) oai.ChatCompletionMessageParamUnion { return oai.SystemMessage(s) },
	"user":      func(s string) oai.ChatCompletionMessageParamUnion { return oai.UserMessage(s) },
	"assistant": func(s string) oai.ChatCompletionMessageParamUnion { return oai.AssistantMessage(s) },
}

func convertMessage(m llm.Message) (oai.ChatCompletionMessageParamUnion, error) {
	build, ok := roleMessages[m.Role]
	if !ok {
		return oai.ChatCompletionMessageParamUnion{}, fmt.Errorf("unsupported message role %q", m.Role)
	}
	return build(m.Content), nil
}
