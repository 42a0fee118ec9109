package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	anyllmlib "github.com/mozilla-ai/any-llm-go"

	"github.com/MrWong99/soundalike/internal/config"
	"github.com/MrWong99/soundalike/internal/health"
	"github.com/MrWong99/soundalike/internal/lexicon"
	"github.com/MrWong99/soundalike/internal/misspell"
	"github.com/MrWong99/soundalike/internal/observe"
	"github.com/MrWong99/soundalike/internal/oracle"
	"github.com/MrWong99/soundalike/internal/oracle/cache"
	"github.com/MrWong99/soundalike/internal/resilience"
	"github.com/MrWong99/soundalike/pkg/provider/llm"
	"github.com/MrWong99/soundalike/pkg/provider/llm/anyllm"
	"github.com/MrWong99/soundalike/pkg/provider/llm/openai"
)

// registerBuiltinProviders wires every built-in LLM factory into reg.
func registerBuiltinProviders(reg *config.Registry) {
	// openai uses the native client for strict structured outputs when a key
	// is configured, and any-llm otherwise (OPENAI_API_KEY from the env).
	reg.RegisterLLM("openai", func(entry config.ProviderEntry) (llm.Provider, error) {
		if entry.APIKey == "" {
			return newAnyLLM("openai", entry)
		}
		var opts []openai.Option
		if entry.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(entry.BaseURL))
		}
		if org := optString(entry.Options, "organization"); org != "" {
			opts = append(opts, openai.WithOrganization(org))
		}
		return openai.New(entry.APIKey, entry.Model, opts...)
	})

	for _, name := range []string{"anthropic", "gemini", "ollama", "deepseek", "mistral", "groq", "llamacpp", "llamafile"} {
		reg.RegisterLLM(name, func(entry config.ProviderEntry) (llm.Provider, error) {
			return newAnyLLM(name, entry)
		})
	}

	for _, name := range reg.LLMNames() {
		slog.Debug("registered provider", "kind", "llm", "name", name)
	}
}

func newAnyLLM(name string, entry config.ProviderEntry) (llm.Provider, error) {
	var opts []anyllmlib.Option
	if entry.APIKey != "" {
		opts = append(opts, anyllmlib.WithAPIKey(entry.APIKey))
	}
	if entry.BaseURL != "" {
		opts = append(opts, anyllmlib.WithBaseURL(entry.BaseURL))
	}
	return anyllm.New(name, entry.Model, opts...)
}

// buildLLM creates the primary provider and its fallbacks behind per-backend
// circuit breakers.
func buildLLM(cfg *config.Config, reg *config.Registry) (*resilience.LLMFallback, error) {
	bc := resilience.BreakerConfig{
		MaxFailures: cfg.Providers.Breaker.MaxFailures,
		Cooldown:    cfg.Providers.Breaker.Cooldown,
		Probes:      cfg.Providers.Breaker.Probes,
	}

	primary, err := reg.CreateLLM(cfg.Providers.LLM)
	if err != nil {
		return nil, fmt.Errorf("create llm provider %q: %w", cfg.Providers.LLM.Name, err)
	}
	slog.Info("provider created", "kind", "llm", "name", cfg.Providers.LLM.Name, "model", cfg.Providers.LLM.Model)
	fb := resilience.NewLLMFallback(backendName(cfg.Providers.LLM), primary, bc)

	for _, entry := range cfg.Providers.Fallbacks {
		p, err := reg.CreateLLM(entry)
		if err != nil {
			return nil, fmt.Errorf("create fallback llm provider %q: %w", entry.Name, err)
		}
		fb.AddFallback(backendName(entry), p)
		slog.Info("provider created", "kind", "llm-fallback", "name", entry.Name, "model", entry.Model)
	}
	return fb, nil
}

func backendName(e config.ProviderEntry) string {
	if e.Model == "" {
		return e.Name
	}
	return e.Name + "/" + e.Model
}

// openCache returns the configured oracle cache, or nil for none. The
// returned closer is never nil.
func openCache(cc config.CacheConfig) (oracle.Cache, io.Closer, error) {
	switch cc.Kind {
	case config.CacheNone:
		return nil, nopCloser{}, nil
	case config.CacheBadger:
		b, err := cache.OpenBadger(cc.Path, cc.TTL)
		if err != nil {
			return nil, nil, err
		}
		return b, b, nil
	default:
		return cache.NewMemory(cc.Size, cc.TTL), nopCloser{}, nil
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// openLexicon returns the Postgres lexicon when a DSN is configured and an
// in-process one otherwise. checks holds readiness probes for the backend.
func openLexicon(ctx context.Context, lc config.LexiconConfig) (store lexicon.Store, checks []health.Checker, closeFn func(), err error) {
	if lc.PostgresDSN == "" {
		return lexicon.NewMemStore(), nil, func() {}, nil
	}

	pool, err := pgxpool.New(ctx, lc.PostgresDSN)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("lexicon: connect: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, nil, nil, fmt.Errorf("lexicon: ping: %w", err)
	}

	pg := lexicon.NewPostgresStore(pool)
	if err := pg.Migrate(ctx); err != nil {
		pool.Close()
		return nil, nil, nil, err
	}
	slog.Info("lexicon connected", "backend", "postgres")
	return pg, []health.Checker{health.PingCheck("lexicon", pool)}, pool.Close, nil
}

// newOracle builds the oracle client over provider.
func newOracle(oc config.OracleConfig, provider llm.Provider, c oracle.Cache, m *observe.Metrics) *oracle.Client {
	opts := []oracle.Option{
		oracle.WithTimeout(oc.Timeout),
		oracle.WithTemperature(oc.Temperature),
		oracle.WithMaxAttempts(oc.MaxAttempts),
		oracle.WithMetrics(m),
	}
	if c != nil {
		opts = append(opts, oracle.WithCache(c))
	}
	if oc.SystemPrompt != "" {
		opts = append(opts, oracle.WithSystemPrompt(oc.SystemPrompt))
	}
	return oracle.NewClient(provider, opts...)
}

// newGenerator builds a generator from gc. gc must have passed
// [config.Validate].
func newGenerator(o oracle.Oracle, gc config.GeneratorConfig, m *observe.Metrics) (*misspell.Generator, error) {
	strategy, err := misspell.ParseStrategy(gc.Strategy)
	if err != nil {
		return nil, err
	}
	return misspell.New(o,
		misspell.WithStrategy(strategy),
		misspell.WithConcurrency(gc.Concurrency),
		misspell.WithMaxCandidates(gc.MaxCandidates),
		misspell.WithSegmentation(misspell.SegmentationPolicy(gc.Segmentation)),
		misspell.WithMetrics(m),
	), nil
}

// logLevel maps a config level onto slog.
func logLevel(level config.LogLevel) slog.Level {
	switch level {
	case config.LogDebug:
		return slog.LevelDebug
	case config.LogWarn:
		return slog.LevelWarn
	case config.LogError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// optString extracts a string value from a provider Options map.
func optString(opts map[string]any, key string) string {
	s, _ := opts[key].(string)
	return s
}
