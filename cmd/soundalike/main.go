// Command soundalike generates plausible phonetic misspellings of a word by
// consulting an LLM.
//
//	soundalike [flags] <word>     generate once and print
//	soundalike -serve [flags]     run the HTTP API
//	soundalike -mcp [flags]       run an MCP server on stdio
//
// Exit status is 0 on success, 1 when generation or setup fails and 2 on
// usage errors.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/joho/godotenv"

	"github.com/MrWong99/soundalike/internal/config"
	"github.com/MrWong99/soundalike/internal/health"
	"github.com/MrWong99/soundalike/internal/lexicon"
	"github.com/MrWong99/soundalike/internal/mcptool"
	"github.com/MrWong99/soundalike/internal/misspell"
	"github.com/MrWong99/soundalike/internal/observe"
	"github.com/MrWong99/soundalike/internal/server"
)

var version = "dev"

var errUsage = errors.New("usage error")

const (
	exitOK    = 0
	exitFail  = 1
	exitUsage = 2
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// options holds the parsed command line.
type options struct {
	configPath string
	strategy   string
	limit      int
	jsonOut    bool
	save       bool
	serve      bool
	mcp        bool
	word       string
}

// override applies command-line generator settings on top of gc.
func (o *options) override(gc *config.GeneratorConfig) {
	if o.strategy != "" {
		gc.Strategy = o.strategy
	}
	if o.limit > 0 {
		gc.MaxCandidates = o.limit
	}
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	o := &options{}
	flags := flag.NewFlagSet("soundalike", flag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.StringVar(&o.configPath, "config", "", "path to the YAML configuration file (default: environment only)")
	flags.StringVar(&o.strategy, "strategy", "", "generation strategy: syllable, phonetic or direct")
	flags.IntVar(&o.limit, "limit", 0, "refuse words with more candidates than this (0: configured value)")
	flags.BoolVar(&o.jsonOut, "json", false, "print the result as JSON")
	flags.BoolVar(&o.save, "save", false, "store results in the lexicon")
	flags.BoolVar(&o.serve, "serve", false, "run the HTTP API instead of generating once")
	flags.BoolVar(&o.mcp, "mcp", false, "run an MCP server on stdio instead of generating once")
	flags.Usage = func() {
		fmt.Fprintln(stderr, "usage: soundalike [flags] <word>\n       soundalike -serve|-mcp [flags]")
		flags.PrintDefaults()
	}
	if err := flags.Parse(args); err != nil {
		return nil, err
	}

	if o.strategy != "" {
		if _, err := misspell.ParseStrategy(o.strategy); err != nil {
			return nil, fmt.Errorf("%w: -strategy %q must be syllable, phonetic or direct", errUsage, o.strategy)
		}
	}
	if o.limit < 0 {
		return nil, fmt.Errorf("%w: -limit must not be negative", errUsage)
	}
	if o.serve && o.mcp {
		return nil, fmt.Errorf("%w: -serve and -mcp are mutually exclusive", errUsage)
	}

	rest := flags.Args()
	switch {
	case o.serve || o.mcp:
		if len(rest) > 0 {
			return nil, fmt.Errorf("%w: unexpected arguments %q", errUsage, rest)
		}
	case len(rest) != 1 || strings.TrimSpace(rest[0]) == "":
		return nil, fmt.Errorf("%w: exactly one word is required", errUsage)
	default:
		o.word = rest[0]
	}
	return o, nil
}

func run(args []string, stdout, stderr io.Writer) int {
	o, err := parseFlags(args, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return exitOK
	}
	if err != nil {
		fmt.Fprintf(stderr, "soundalike: %v\n", err)
		return exitUsage
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(stderr, "soundalike: load .env: %v\n", err)
		return exitFail
	}

	cfg, err := loadConfig(o.configPath)
	if err != nil {
		fmt.Fprintf(stderr, "soundalike: %v\n", err)
		return exitFail
	}
	o.override(&cfg.Generator)
	if err := config.Validate(cfg); err != nil {
		fmt.Fprintf(stderr, "soundalike: %v\n", err)
		return exitUsage
	}

	var level slog.LevelVar
	level.Set(logLevel(cfg.Server.LogLevel))
	slog.SetDefault(slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: &level})))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tel, err := observe.InitProvider(ctx, observe.ProviderConfig{ServiceVersion: version})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return exitFail
	}
	defer func() {
		if err := tel.Shutdown(context.Background()); err != nil {
			slog.Warn("telemetry shutdown", "err", err)
		}
	}()
	metrics := observe.DefaultMetrics()

	reg := config.NewRegistry()
	registerBuiltinProviders(reg)
	llmProvider, err := buildLLM(cfg, reg)
	if err != nil {
		slog.Error("failed to build providers", "err", err)
		return exitFail
	}

	oracleCache, cacheCloser, err := openCache(cfg.Oracle.Cache)
	if err != nil {
		slog.Error("failed to open oracle cache", "err", err)
		return exitFail
	}
	defer cacheCloser.Close()

	orc := newOracle(cfg.Oracle, llmProvider, oracleCache, metrics)
	gen, err := newGenerator(orc, cfg.Generator, metrics)
	if err != nil {
		slog.Error("failed to build generator", "err", err)
		return exitFail
	}

	var (
		store  lexicon.Store
		checks = []health.Checker{health.ProvidersCheck(llmProvider.States)}
	)
	if o.save || o.serve || o.mcp {
		s, lexChecks, closeLexicon, err := openLexicon(ctx, cfg.Lexicon)
		if err != nil {
			slog.Error("failed to open lexicon", "err", err)
			return exitFail
		}
		defer closeLexicon()
		store = s
		checks = append(checks, lexChecks...)
	}

	slog.Info("soundalike starting",
		"version", version,
		"llm", backendName(cfg.Providers.LLM),
		"fallbacks", len(cfg.Providers.Fallbacks),
		"strategy", gen.Strategy(),
		"cache", cfg.Oracle.Cache.Kind,
	)

	switch {
	case o.serve:
		return serve(ctx, o, cfg, &level, store, checks, tel.MetricsHandler, func(gc config.GeneratorConfig) (server.Generator, error) {
			return newGenerator(orc, gc, metrics)
		}, gen)
	case o.mcp:
		srv := mcptool.NewServer(gen,
			mcptool.WithLexicon(store),
			mcptool.WithSaveResults(o.save),
			mcptool.WithVersion(version),
		)
		if err := mcptool.ServeStdio(ctx, srv); err != nil {
			slog.Error("mcp server error", "err", err)
			return exitFail
		}
		return exitOK
	}

	res, err := gen.Generate(ctx, o.word)
	if err != nil {
		fmt.Fprintf(stderr, "soundalike: %v\n", err)
		return exitFail
	}
	if o.save {
		if err := store.Save(ctx, lexicon.EntryFromResult(res)); err != nil {
			fmt.Fprintf(stderr, "soundalike: %v\n", err)
			return exitFail
		}
	}
	if o.jsonOut {
		err = printJSON(stdout, res)
	} else {
		err = printText(stdout, res)
	}
	if err != nil {
		fmt.Fprintf(stderr, "soundalike: write output: %v\n", err)
		return exitFail
	}
	return exitOK
}

// loadConfig reads path, or the environment alone when path is empty. The
// caller validates again after applying flag overrides.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.LoadFromEnv()
	}
	cfg, err := config.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config file %q not found", path)
	}
	return cfg, err
}

// serve runs the HTTP API until ctx ends. With a config file, log level and
// generator settings are hot-reloaded.
func serve(
	ctx context.Context,
	o *options,
	cfg *config.Config,
	level *slog.LevelVar,
	store lexicon.Store,
	checks []health.Checker,
	metricsHandler http.Handler,
	build func(config.GeneratorConfig) (server.Generator, error),
	gen server.Generator,
) int {
	srv := server.New(gen,
		server.WithLexicon(store),
		server.WithSaveResults(o.save),
		server.WithHealthCheckers(checks...),
		server.WithMetricsHandler(metricsHandler),
	)

	if o.configPath != "" {
		w, err := config.NewWatcher(ctx, o.configPath, func(_, _ *config.Config, d config.ConfigDiff) {
			if d.LogLevelChanged {
				level.Set(logLevel(d.NewLogLevel))
				slog.Info("log level changed", "level", d.NewLogLevel)
			}
			if d.GeneratorChanged {
				gc := d.NewGenerator
				o.override(&gc)
				g, err := build(gc)
				if err != nil {
					slog.Error("generator reload failed", "err", err)
					return
				}
				srv.SetGenerator(g)
				slog.Info("generator reloaded", "strategy", gc.Strategy, "max_candidates", gc.MaxCandidates)
			}
			for _, section := range d.RestartRequired {
				slog.Warn("config change takes effect after restart", "section", section)
			}
		})
		if err != nil {
			slog.Error("failed to watch config", "err", err)
			return exitFail
		}
		defer w.Stop()
	}

	if err := srv.ListenAndServe(ctx, cfg.Server.ListenAddr); err != nil {
		slog.Error("http server error", "err", err)
		return exitFail
	}
	slog.Info("goodbye")
	return exitOK
}

func printJSON(w io.Writer, res *misspell.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

// printText writes the syllabification, the per-syllable spelling sets and
// the candidate set.
func printText(w io.Writer, res *misspell.Result) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "word:\t%s\n", res.Word)
	fmt.Fprintf(tw, "strategy:\t%s\n", res.Strategy)

	if len(res.Syllables) > 0 {
		syllables := make([]string, len(res.Syllables))
		for i, s := range res.Syllables {
			syllables[i] = string(s.Syllable)
		}
		fmt.Fprintf(tw, "syllables:\t%s\n", strings.Join(syllables, " · "))
		for _, s := range res.Syllables {
			fmt.Fprintf(tw, "  %s\t%s\n", s.Syllable, strings.Join(s.Spellings, ", "))
		}
	}
	if len(res.Transcriptions) > 0 {
		ts := make([]string, len(res.Transcriptions))
		for i, t := range res.Transcriptions {
			ts[i] = string(t)
		}
		fmt.Fprintf(tw, "transcriptions:\t%s\n", strings.Join(ts, " "))
	}

	fmt.Fprintf(tw, "candidates (%d):\t\n", len(res.Candidates))
	for _, c := range res.Candidates {
		fmt.Fprintf(tw, "  %s\t\n", c)
	}
	return tw.Flush()
}
