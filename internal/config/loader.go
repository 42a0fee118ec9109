package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"github.com/ilyakaznacheev/cleanenv"
	"gopkg.in/yaml.v3"

	"github.com/MrWong99/soundalike/internal/misspell"
)

// KnownLLMProviders lists the LLM provider names registered by the binary.
// Used by [Validate] to warn about typos.
var KnownLLMProviders = []string{
	"openai", "anthropic", "gemini", "ollama", "deepseek", "mistral", "groq", "llamacpp", "llamafile",
}

// Load reads the YAML configuration file at path, applies environment
// overrides and defaults, and validates the result.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromEnv builds a configuration from SOUNDALIKE_* environment variables
// and defaults alone, for runs without a config file.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{}
	return finish(cfg)
}

// LoadFromReader decodes a YAML config from r, applies environment
// overrides and defaults, and validates the result. Unknown YAML keys are
// rejected.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	return finish(cfg)
}

func finish(cfg *Config) (*Config, error) {
	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("config: read env: %w", err)
	}
	ApplyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values. It returns a
// joined error listing every problem found.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}

	if cfg.Providers.LLM.Name == "" {
		errs = append(errs, errors.New("providers.llm.name is required"))
	}
	warnUnknownProvider("providers.llm", cfg.Providers.LLM.Name)
	seen := map[string]string{cfg.Providers.LLM.Name: "providers.llm"}
	for i, fb := range cfg.Providers.Fallbacks {
		prefix := fmt.Sprintf("providers.fallbacks[%d]", i)
		if fb.Name == "" {
			errs = append(errs, fmt.Errorf("%s.name is required", prefix))
			continue
		}
		warnUnknownProvider(prefix, fb.Name)
		key := fb.Name + "/" + fb.Model
		if prev, ok := seen[key]; ok {
			slog.Warn("duplicate fallback provider", "entry", prefix, "duplicates", prev)
		}
		seen[key] = prefix
	}
	if b := cfg.Providers.Breaker; b.MaxFailures < 0 || b.Probes < 0 || b.Cooldown < 0 {
		errs = append(errs, errors.New("providers.breaker values must not be negative"))
	}

	if cfg.Oracle.Timeout < 0 {
		errs = append(errs, fmt.Errorf("oracle.timeout %s must not be negative", cfg.Oracle.Timeout))
	}
	if t := cfg.Oracle.Temperature; t < 0 || t > 2 {
		errs = append(errs, fmt.Errorf("oracle.temperature %.2f is out of range [0, 2]", t))
	}
	if cfg.Oracle.MaxAttempts < 0 {
		errs = append(errs, fmt.Errorf("oracle.max_attempts %d must not be negative", cfg.Oracle.MaxAttempts))
	}
	if k := cfg.Oracle.Cache.Kind; k != "" && !k.IsValid() {
		errs = append(errs, fmt.Errorf("oracle.cache.kind %q is invalid; valid values: none, memory, badger", k))
	}
	if cfg.Oracle.Cache.Size < 0 {
		errs = append(errs, fmt.Errorf("oracle.cache.size %d must not be negative", cfg.Oracle.Cache.Size))
	}

	if _, err := misspell.ParseStrategy(cfg.Generator.Strategy); err != nil {
		errs = append(errs, fmt.Errorf("generator.strategy %q is invalid; valid values: syllable, phonetic, direct", cfg.Generator.Strategy))
	}
	switch misspell.SegmentationPolicy(cfg.Generator.Segmentation) {
	case "", misspell.SegmentTolerant, misspell.SegmentStrict:
	default:
		errs = append(errs, fmt.Errorf("generator.segmentation %q is invalid; valid values: tolerant, strict", cfg.Generator.Segmentation))
	}
	if cfg.Generator.Concurrency < 0 {
		errs = append(errs, fmt.Errorf("generator.concurrency %d must not be negative", cfg.Generator.Concurrency))
	}
	if cfg.Generator.MaxCandidates < 0 {
		errs = append(errs, fmt.Errorf("generator.max_candidates %d must not be negative", cfg.Generator.MaxCandidates))
	}

	return errors.Join(errs...)
}

// warnUnknownProvider logs a warning if name is set but not in
// [KnownLLMProviders].
func warnUnknownProvider(field, name string) {
	if name == "" || slices.Contains(KnownLLMProviders, name) {
		return
	}
	slog.Warn("unknown provider name; may be a typo or a third-party provider",
		"field", field,
		"name", name,
		"known", KnownLLMProviders,
	)
}
