package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/MrWong99/soundalike/internal/config"
	"github.com/MrWong99/soundalike/internal/misspell"
)

func TestParseFlags(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		args      []string
		wantErr   bool
		wantWord  string
		wantServe bool
	}{
		{name: "word", args: []string{"happy"}, wantWord: "happy"},
		{name: "flags before word", args: []string{"-strategy", "direct", "-json", "happy"}, wantWord: "happy"},
		{name: "serve", args: []string{"-serve"}, wantServe: true},
		{name: "no word", args: nil, wantErr: true},
		{name: "blank word", args: []string{"  "}, wantErr: true},
		{name: "two words", args: []string{"happy", "cat"}, wantErr: true},
		{name: "bad strategy", args: []string{"-strategy", "rhyming", "happy"}, wantErr: true},
		{name: "negative limit", args: []string{"-limit", "-1", "happy"}, wantErr: true},
		{name: "serve and mcp", args: []string{"-serve", "-mcp"}, wantErr: true},
		{name: "serve with word", args: []string{"-serve", "happy"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var stderr bytes.Buffer
			o, err := parseFlags(tt.args, &stderr)
			if tt.wantErr {
				if !errors.Is(err, errUsage) {
					t.Fatalf("err = %v, want usage error", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if o.word != tt.wantWord || o.serve != tt.wantServe {
				t.Errorf("got word=%q serve=%v", o.word, o.serve)
			}
		})
	}
}

func TestRun_UsageErrors(t *testing.T) {
	t.Parallel()

	for _, args := range [][]string{nil, {"-serve", "-mcp"}, {"-strategy", "nope", "cat"}, {"-unknown-flag", "cat"}} {
		var stdout, stderr bytes.Buffer
		if code := run(args, &stdout, &stderr); code != exitUsage {
			t.Errorf("run(%q) = %d, want %d (stderr: %s)", args, code, exitUsage, stderr.String())
		}
		if stdout.Len() != 0 {
			t.Errorf("run(%q) wrote to stdout: %q", args, stdout.String())
		}
	}
}

func TestRun_Help(t *testing.T) {
	t.Parallel()

	var stdout, stderr bytes.Buffer
	if code := run([]string{"-h"}, &stdout, &stderr); code != exitOK {
		t.Fatalf("run(-h) = %d, want %d", code, exitOK)
	}
	if !strings.Contains(stderr.String(), "usage: soundalike") {
		t.Errorf("help output = %q", stderr.String())
	}
}

func TestOverride(t *testing.T) {
	t.Parallel()

	gc := config.GeneratorConfig{Strategy: "syllable", MaxCandidates: 100}
	(&options{}).override(&gc)
	if gc.Strategy != "syllable" || gc.MaxCandidates != 100 {
		t.Errorf("empty options changed config: %+v", gc)
	}
	(&options{strategy: "direct", limit: 5}).override(&gc)
	if gc.Strategy != "direct" || gc.MaxCandidates != 5 {
		t.Errorf("override = %+v", gc)
	}
}

func TestPrintText(t *testing.T) {
	t.Parallel()

	res := &misspell.Result{
		Word:     "happy",
		Strategy: misspell.StrategySyllable,
		Syllables: []misspell.SyllableDetail{
			{Syllable: "hap", Spellings: []string{"hap", "happ"}},
			{Syllable: "py", Spellings: []string{"ee", "py"}},
		},
		Candidates: []misspell.Candidate{"hapee", "happee", "happpy", "happy"},
	}
	var buf bytes.Buffer
	if err := printText(&buf, res); err != nil {
		t.Fatalf("printText: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"happy", "syllable", "hap · py", "hap, happ", "ee, py", "candidates (4)", "happpy"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestLogLevel(t *testing.T) {
	t.Parallel()

	for level, want := range map[config.LogLevel]string{
		config.LogDebug: "DEBUG",
		config.LogInfo:  "INFO",
		config.LogWarn:  "WARN",
		config.LogError: "ERROR",
		"":              "INFO",
	} {
		if got := logLevel(level).String(); got != want {
			t.Errorf("logLevel(%q) = %s, want %s", level, got, want)
		}
	}
}
