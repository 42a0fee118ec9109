// Package mcptool publishes misspelling generation as Model Context Protocol
// tools, so assistants can ask for plausible misspellings of a word or
// resolve a misspelling back to the words it may stand for.
//
// Tools:
//
//   - generate_misspellings {word, strategy?} → {word, strategy, syllables, candidates}
//   - resolve_misspelling {input} → {input, matches}
package mcptool

import (
	"context"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/MrWong99/soundalike/internal/lexicon"
	"github.com/MrWong99/soundalike/internal/misspell"
	"github.com/MrWong99/soundalike/internal/observe"
)

// Generator is the part of [*misspell.Generator] the tools need.
type Generator interface {
	Strategy() misspell.Strategy
	GenerateWith(ctx context.Context, word string, strategy misspell.Strategy) (*misspell.Result, error)
}

// GenerateInput is the argument object of generate_misspellings.
type GenerateInput struct {
	Word     string `json:"word" jsonschema:"the correctly spelled word"`
	Strategy string `json:"strategy,omitempty" jsonschema:"syllable, phonetic or direct; empty uses the server default"`
}

// GenerateOutput is the structured result of generate_misspellings.
type GenerateOutput struct {
	Word       string   `json:"word"`
	Strategy   string   `json:"strategy"`
	Syllables  []string `json:"syllables" jsonschema:"syllables in word order; empty unless the syllable strategy ran"`
	Candidates []string `json:"candidates" jsonschema:"sorted distinct candidate spellings, including the word itself"`
}

// ResolveInput is the argument object of resolve_misspelling.
type ResolveInput struct {
	Input string `json:"input" jsonschema:"a possibly misspelled word"`
}

// ResolveOutput is the structured result of resolve_misspelling.
type ResolveOutput struct {
	Input   string          `json:"input"`
	Matches []lexicon.Match `json:"matches"`
}

type config struct {
	store   lexicon.Store
	save    bool
	version string
}

// Option configures [NewServer].
type Option func(*config)

// WithLexicon backs resolve_misspelling with store. Without it the tool is
// not registered.
func WithLexicon(store lexicon.Store) Option {
	return func(c *config) { c.store = store }
}

// WithSaveResults stores every generated result in the lexicon.
func WithSaveResults(save bool) Option {
	return func(c *config) { c.save = save }
}

// WithVersion sets the implementation version announced to clients.
func WithVersion(v string) Option {
	return func(c *config) { c.version = v }
}

// NewServer returns an MCP server exposing the tools over gen.
func NewServer(gen Generator, opts ...Option) *mcpsdk.Server {
	cfg := config{version: "dev"}
	for _, opt := range opts {
		opt(&cfg)
	}

	srv := mcpsdk.NewServer(&mcpsdk.Implementation{Name: "soundalike", Version: cfg.version}, nil)
	t := &tools{gen: gen, store: cfg.store, save: cfg.save}

	mcpsdk.AddTool(srv, &mcpsdk.Tool{
		Name:        "generate_misspellings",
		Description: "Generate plausible phonetic misspellings of an English word.",
	}, t.generate)

	if cfg.store != nil {
		t.resolver = lexicon.NewResolver(cfg.store, nil)
		mcpsdk.AddTool(srv, &mcpsdk.Tool{
			Name:        "resolve_misspelling",
			Description: "Find the stored words a possibly misspelled input stands for.",
		}, t.resolve)
	}
	return srv
}

// ServeStdio runs srv on stdin/stdout until ctx ends or the client
// disconnects.
func ServeStdio(ctx context.Context, srv *mcpsdk.Server) error {
	if err := srv.Run(ctx, &mcpsdk.StdioTransport{}); err != nil && ctx.Err() == nil {
		return fmt.Errorf("mcptool: serve stdio: %w", err)
	}
	return nil
}

type tools struct {
	gen      Generator
	store    lexicon.Store
	resolver *lexicon.Resolver
	save     bool
}

func (t *tools) generate(ctx context.Context, _ *mcpsdk.CallToolRequest, in GenerateInput) (*mcpsdk.CallToolResult, GenerateOutput, error) {
	strategy := t.gen.Strategy()
	if in.Strategy != "" {
		s, err := misspell.ParseStrategy(in.Strategy)
		if err != nil {
			return nil, GenerateOutput{}, err
		}
		strategy = s
	}

	res, err := t.gen.GenerateWith(ctx, in.Word, strategy)
	if err != nil {
		observe.Logger(ctx).Warn("mcptool: generate failed", "word", in.Word, "err", err)
		return nil, GenerateOutput{}, err
	}

	if t.save && t.store != nil {
		if err := t.store.Save(ctx, lexicon.EntryFromResult(res)); err != nil {
			observe.Logger(ctx).Error("mcptool: save to lexicon", "word", res.Word, "err", err)
		}
	}
	return nil, toOutput(res), nil
}

func (t *tools) resolve(ctx context.Context, _ *mcpsdk.CallToolRequest, in ResolveInput) (*mcpsdk.CallToolResult, ResolveOutput, error) {
	matches, err := t.resolver.Resolve(ctx, in.Input)
	if err != nil {
		return nil, ResolveOutput{}, err
	}
	if matches == nil {
		matches = []lexicon.Match{}
	}
	return nil, ResolveOutput{Input: in.Input, Matches: matches}, nil
}

func toOutput(res *misspell.Result) GenerateOutput {
	out := GenerateOutput{
		Word:       res.Word,
		Strategy:   string(res.Strategy),
		Syllables:  make([]string, len(res.Syllables)),
		Candidates: make([]string, len(res.Candidates)),
	}
	for i, s := range res.Syllables {
		out.Syllables[i] = string(s.Syllable)
	}
	for i, c := range res.Candidates {
		out.Candidates[i] = string(c)
	}
	return out
}
