// Package oracle is the boundary between soundalike and the language model
// that answers its linguistic questions.
//
// An [Oracle] takes a prompt [Template], the variable bindings for it, and a
// response [Schema], and returns a decoded [Result] that is guaranteed to
// satisfy the schema. Every failure, whether the model is unreachable, slow,
// or answers with something unusable, is reported as an [*OracleError]; a
// failure is never turned into an empty result.
//
// [Client] implements Oracle on top of an [llm.Provider]. When the provider
// supports native structured output the schema is sent as a json_schema
// response format; otherwise the provider embeds it in its prompt. In both
// cases the reply is validated here before it is returned or cached.
package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/MrWong99/soundalike/internal/observe"
	"github.com/MrWong99/soundalike/pkg/provider/llm"
)

// Oracle answers schema-constrained questions. Implementations must be safe
// for concurrent use; identical requests may return different results.
type Oracle interface {
	Request(ctx context.Context, tmpl *Template, vars Vars, schema *Schema) (Result, error)
}

const (
	defaultTimeout     = 60 * time.Second
	defaultTemperature = 0.7
	defaultMaxAttempts = 1
)

// defaultSystemPrompt frames every request. The template supplies the task.
const defaultSystemPrompt = `You are a linguistics oracle specialising in English phonetics and orthography.
Answer the user's request precisely. Respond with ONLY a JSON object (no markdown, no prose) that matches the requested schema.`

// Option is a functional option for configuring a [Client].
type Option func(*Client)

// WithTimeout bounds each provider call. Expiry surfaces as an OracleError of
// kind timeout. Default: 60s.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithTemperature sets the sampling temperature. Higher values give more
// varied spellings. Default: 0.7.
func WithTemperature(temp float64) Option {
	return func(c *Client) {
		c.temperature = temp
	}
}

// WithMaxAttempts lets the client re-ask the model when a reply is malformed
// or violates the schema. Transport errors and timeouts are never retried.
// Default: 1 (no retry).
func WithMaxAttempts(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxAttempts = n
		}
	}
}

// WithCache enables response caching. Only validated responses are stored.
func WithCache(cache Cache) Option {
	return func(c *Client) {
		c.cache = cache
	}
}

// WithSystemPrompt replaces the default system prompt.
func WithSystemPrompt(prompt string) Option {
	return func(c *Client) {
		c.systemPrompt = prompt
	}
}

// WithMetrics records request metrics to m instead of [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// Client is an [Oracle] backed by an [llm.Provider]. It is safe for
// concurrent use.
type Client struct {
	provider     llm.Provider
	cache        Cache
	metrics      *observe.Metrics
	systemPrompt string
	timeout      time.Duration
	temperature  float64
	maxAttempts  int
}

// NewClient returns a Client that sends requests to provider.
func NewClient(provider llm.Provider, opts ...Option) *Client {
	c := &Client{
		provider:     provider,
		systemPrompt: defaultSystemPrompt,
		timeout:      defaultTimeout,
		temperature:  defaultTemperature,
		maxAttempts:  defaultMaxAttempts,
	}
	for _, o := range opts {
		o(c)
	}
	if c.metrics == nil {
		c.metrics = observe.DefaultMetrics()
	}
	return c
}

// Request renders tmpl with vars, asks the provider for a reply conforming to
// schema, and returns the validated result.
func (c *Client) Request(ctx context.Context, tmpl *Template, vars Vars, schema *Schema) (Result, error) {
	if tmpl == nil || schema == nil {
		return nil, newError(KindInvalidRequest, "", errors.New("template and schema are required"))
	}

	ctx, span := observe.StartSpan(ctx, "oracle.request",
		trace.WithAttributes(
			attribute.String("oracle.template", tmpl.Name),
			attribute.String("oracle.schema", schema.Name),
		),
	)

	start := time.Now()
	res, err := c.request(ctx, tmpl, vars, schema)
	kind := KindOf(err)
	c.metrics.RecordOracleRequest(ctx, tmpl.Name, time.Since(start), string(kind))
	if kind != "" {
		span.SetAttributes(attribute.String("oracle.error_kind", string(kind)))
	}
	observe.EndSpan(span, err)
	return res, err
}

func (c *Client) request(ctx context.Context, tmpl *Template, vars Vars, schema *Schema) (Result, error) {
	prompt, err := tmpl.Render(vars)
	if err != nil {
		return nil, newError(KindInvalidRequest, tmpl.Name, err)
	}

	var key string
	if c.cache != nil {
		key = CacheKey(tmpl, vars, schema)
		if res, ok := c.lookup(ctx, key, schema); ok {
			return res, nil
		}
	}

	req := llm.CompletionRequest{
		SystemPrompt: c.systemPrompt,
		Temperature:  c.temperature,
		Messages:     []llm.Message{{Role: "user", Content: prompt}},
		ResponseFormat: &llm.ResponseFormat{
			Name:        schema.Name,
			Description: schema.Description,
			Schema:      schema.Definition(),
		},
	}

	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		content, err := c.complete(ctx, tmpl.Name, req)
		if err != nil {
			return nil, err
		}

		res, raw, err := decode(content, schema)
		if err == nil {
			if c.cache != nil {
				if cerr := c.cache.Set(ctx, key, raw); cerr != nil {
					observe.Logger(ctx).Warn("oracle: cache store failed", "template", tmpl.Name, "err", cerr)
				}
			}
			return res, nil
		}

		lastErr = err
		var oe *OracleError
		if errors.As(err, &oe) {
			oe.Template = tmpl.Name
		}
		observe.Logger(ctx).Debug("oracle: rejected reply",
			"template", tmpl.Name,
			"attempt", attempt,
			"err", err,
		)
	}
	return nil, lastErr
}

// complete performs one provider call under the per-call timeout.
func (c *Client) complete(ctx context.Context, template string, req llm.CompletionRequest) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.provider.Complete(callCtx, req)
	if err != nil {
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return "", newError(KindTimeout, template, fmt.Errorf("no reply within %s: %w", c.timeout, err))
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			kind := KindUnreachable
			if errors.Is(ctxErr, context.DeadlineExceeded) {
				kind = KindTimeout
			}
			return "", newError(kind, template, fmt.Errorf("%w: %w", ctxErr, err))
		}
		return "", newError(KindUnreachable, template, err)
	}
	if resp == nil {
		return "", newError(KindMalformed, template, errors.New("provider returned no response"))
	}
	return resp.Content, nil
}

// lookup returns a cached result for key, treating every cache or decode
// failure as a miss.
func (c *Client) lookup(ctx context.Context, key string, schema *Schema) (Result, bool) {
	raw, ok, err := c.cache.Get(ctx, key)
	if err != nil {
		observe.Logger(ctx).Warn("oracle: cache lookup failed", "err", err)
		ok = false
	}
	if ok {
		if res, _, derr := decode(string(raw), schema); derr == nil {
			c.metrics.RecordCacheLookup(ctx, true)
			return res, true
		}
	}
	c.metrics.RecordCacheLookup(ctx, false)
	return nil, false
}

// decode parses content as a JSON object and validates it against schema.
// It returns the canonical JSON encoding for caching.
func decode(content string, schema *Schema) (Result, []byte, error) {
	cleaned := stripMarkdown(content)
	if cleaned == "" {
		return nil, nil, newError(KindMalformed, "", errors.New("empty reply"))
	}

	var obj map[string]any
	if err := json.Unmarshal([]byte(cleaned), &obj); err != nil {
		return nil, nil, newError(KindMalformed, "", fmt.Errorf("decode reply: %w", err))
	}
	if obj == nil {
		return nil, nil, newError(KindMalformed, "", errors.New("reply is not a JSON object"))
	}
	if err := schema.Validate(obj); err != nil {
		return nil, nil, newError(KindSchemaViolation, "", fmt.Errorf("schema %q: %w", schema.Name, err))
	}

	raw, err := json.Marshal(obj)
	if err != nil {
		return nil, nil, newError(KindMalformed, "", fmt.Errorf("re-encode reply: %w", err))
	}
	return Result(obj), raw, nil
}

// stripMarkdown removes optional markdown code fences (```json ... ```) that
// some models wrap around JSON output.
func stripMarkdown(s string) string {
	s = strings.TrimSpace(s)
	for _, prefix := range []string{"```json", "```"} {
		if after, ok := strings.CutPrefix(s, prefix); ok {
			s = after
			break
		}
	}
	if before, ok := strings.CutSuffix(s, "```"); ok {
		s = before
	}
	return strings.TrimSpace(s)
}

var _ Oracle = (*Client)(nil)
