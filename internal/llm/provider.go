// Package llm talks to review providers for llm checks: the engine
// hands over an assertion plus file contents, the provider returns a
// verdict with a rationale.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrNoAPIKey signals that the configured provider needs an API key and
// none was found. The engine turns this into a skipped outcome, not an
// error.
var ErrNoAPIKey = errors.New("no API key configured")

// File is one project file included in a review request.
type File struct {
	Path    string
	Content string
}

// ReviewRequest contains the input for a verdict review.
type ReviewRequest struct {
	// Assertion is the claim text (or the check's prompt) the provider
	// judges the files against.
	Assertion string

	// Files are the globbed project files, already size-capped.
	Files []File

	// Model overrides the configured model when non-empty.
	Model string

	// MaxTokens limits the response length.
	MaxTokens int
}

// ReviewResponse is the provider's judgement.
type ReviewResponse struct {
	// Verdict is true when the assertion holds for the given files.
	Verdict bool

	// Rationale is the provider's explanation.
	Rationale string

	// Model is the model that produced the response.
	Model string

	// TokensUsed tracks token consumption.
	TokensUsed int
}

// Provider defines the interface for review providers.
type Provider interface {
	// Name returns the provider name.
	Name() string

	// Review judges the assertion against the files.
	Review(ctx context.Context, req ReviewRequest) (*ReviewResponse, error)
}

// Config holds provider configuration.
type Config struct {
	// Provider name: "openai", "anthropic", "ollama", ""
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for OpenAI/Anthropic
	APIKey string

	// BaseURL for custom endpoints (e.g. Ollama, mock servers)
	BaseURL string

	// Timeout for API requests, seconds
	Timeout int

	// MaxTokens for response generation
	MaxTokens int

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Provider:  "",
		Model:     "",
		Timeout:   30,
		MaxTokens: 1000,
	}
}

// reviewSystemPrompt pins the response format so verdicts stay
// machine-parseable.
const reviewSystemPrompt = `You are a code reviewer verifying assertions about a codebase.
You are given an assertion and the relevant file contents.
Judge only what the files show; do not speculate about code you cannot see.
Respond with a first line of exactly PASS or FAIL, followed by a short rationale.`

// BuildReviewPrompt renders the assertion and files into the user
// prompt.
func BuildReviewPrompt(req ReviewRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Assertion:\n%s\n\nFiles (%d):\n", req.Assertion, len(req.Files))
	for _, f := range req.Files {
		fmt.Fprintf(&b, "\n--- %s ---\n%s\n", f.Path, f.Content)
	}
	b.WriteString("\nDoes the assertion hold? First line: PASS or FAIL. Then explain in 1-3 sentences.")
	return b.String()
}

// ParseVerdict extracts the PASS/FAIL verdict and rationale from a
// provider response.
func ParseVerdict(text string) (verdict bool, rationale string, err error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return false, "", fmt.Errorf("empty response")
	}

	lines := strings.SplitN(trimmed, "\n", 2)
	head := strings.ToUpper(strings.TrimSpace(lines[0]))
	head = strings.TrimSpace(strings.TrimPrefix(head, "VERDICT:"))
	head = strings.Trim(head, ".:!* ")

	rationale = trimmed
	if len(lines) == 2 {
		rationale = strings.TrimSpace(lines[1])
	}

	switch {
	case strings.HasPrefix(head, "PASS"):
		return true, rationale, nil
	case strings.HasPrefix(head, "FAIL"):
		return false, rationale, nil
	default:
		return false, "", fmt.Errorf("unparseable verdict: %q", lines[0])
	}
}
