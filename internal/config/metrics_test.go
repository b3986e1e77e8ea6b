package config

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestClassifyConfigLoadError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{name: "none", err: nil, want: "none"},
		{name: "validation", err: errors.New("validate config: ACCESS_TOKEN_KEY must be at least 32 characters"), want: "validation"},
		{name: "parse", err: errors.New("parse REDIS_DB: invalid syntax"), want: "parse"},
		{name: "env file", err: errors.New("open env file: permission denied"), want: "env_file"},
		{name: "other", err: errors.New("some other load error"), want: "load"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := classifyConfigLoadError(tc.err); got != tc.want {
				t.Fatalf("classifyConfigLoadError()=%q want %q", got, tc.want)
			}
		})
	}
}

func TestNormalizeEnvironment(t *testing.T) {
	if got := normalizeEnvironment("  ProDucTion  "); got != "production" {
		t.Fatalf("expected production, got %q", got)
	}
	if got := normalizeEnvironment("   "); got != "unknown" {
		t.Fatalf("expected unknown, got %q", got)
	}
}

func FuzzNormalizeEnvironmentRobustness(f *testing.F) {
	f.Add("  ProDucTion  ")
	f.Add("development")
	f.Add("")
	f.Add(strings.Repeat("x", 4096))

	f.Fuzz(func(t *testing.T, raw string) {
		if len(raw) > 8192 {
			raw = raw[:8192]
		}

		got := normalizeEnvironment(raw)
		if got == "" {
			t.Fatal("normalized environment must not be empty")
		}
		if strings.TrimSpace(raw) == "" && got != "unknown" {
			t.Fatalf("expected unknown for blank input, got %q", got)
		}
		if utf8.ValidString(raw) && !utf8.ValidString(got) {
			t.Fatalf("normalized environment must stay valid UTF-8: %q", got)
		}

		if again := normalizeEnvironment(raw); got != again {
			t.Fatalf("normalizeEnvironment must be deterministic: first=%q second=%q", got, again)
		}
	})
}
