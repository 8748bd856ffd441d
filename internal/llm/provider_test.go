package llm

import (
	"strings"
	"testing"

	"certo/internal/model"
)

func TestParseVerdict(t *testing.T) {
	cases := []struct {
		name      string
		input     string
		verdict   bool
		rationale string
		wantErr   bool
	}{
		{"plain pass", "PASS\nThe files show it.", true, "The files show it.", false},
		{"plain fail", "FAIL\nNo evidence found.", false, "No evidence found.", false},
		{"lowercase", "pass\nok", true, "ok", false},
		{"verdict prefix", "VERDICT: PASS\nLooks right.", true, "Looks right.", false},
		{"trailing punctuation", "PASS.\nFine.", true, "Fine.", false},
		{"passed variant", "PASSED\nFine.", true, "Fine.", false},
		{"single line", "FAIL", false, "FAIL", false},
		{"surrounding whitespace", "  PASS  \n  why  ", true, "why", false},
		{"empty", "", false, "", true},
		{"noise", "The assertion is probably true.", false, "", true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			verdict, rationale, err := ParseVerdict(tc.input)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error, got verdict=%v", verdict)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if verdict != tc.verdict {
				t.Errorf("verdict = %v, want %v", verdict, tc.verdict)
			}
			if rationale != tc.rationale {
				t.Errorf("rationale = %q, want %q", rationale, tc.rationale)
			}
		})
	}
}

func TestBuildReviewPrompt(t *testing.T) {
	prompt := BuildReviewPrompt(ReviewRequest{
		Assertion: "The config package validates input",
		Files: []File{
			{Path: "config.go", Content: "package config"},
			{Path: "validate.go", Content: "func Validate() {}"},
		},
	})

	for _, want := range []string{
		"The config package validates input",
		"Files (2):",
		"--- config.go ---",
		"package config",
		"--- validate.go ---",
		"PASS or FAIL",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestNewProvider(t *testing.T) {
	if p, err := NewProvider(Config{Provider: ""}); p != nil || err != nil {
		t.Errorf("empty provider: got %v, %v; want nil, nil", p, err)
	}

	if _, err := NewProvider(Config{Provider: "openai"}); err != ErrNoAPIKey {
		t.Errorf("openai without key: got %v, want ErrNoAPIKey", err)
	}
	if _, err := NewProvider(Config{Provider: "anthropic"}); err != ErrNoAPIKey {
		t.Errorf("anthropic without key: got %v, want ErrNoAPIKey", err)
	}

	p, err := NewProvider(Config{Provider: "ollama"})
	if err != nil || p == nil || p.Name() != "ollama" {
		t.Errorf("ollama: got %v, %v", p, err)
	}

	p, err = NewProvider(Config{Provider: "OpenAI", APIKey: "sk-test"})
	if err != nil || p == nil || p.Name() != "openai" {
		t.Errorf("case-insensitive openai: got %v, %v", p, err)
	}

	if _, err := NewProvider(Config{Provider: "cortex"}); err == nil {
		t.Error("unknown provider: expected error")
	}
}

func TestConfigFromModelEnvFallback(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-from-env")

	cfg := ConfigFromModel(model.LLMConfig{Provider: "openai"})
	if cfg.APIKey != "sk-from-env" {
		t.Errorf("APIKey = %q, want env value", cfg.APIKey)
	}

	cfg = ConfigFromModel(model.LLMConfig{Provider: "openai", APIKey: "sk-explicit"})
	if cfg.APIKey != "sk-explicit" {
		t.Errorf("explicit key overridden: %q", cfg.APIKey)
	}
}
