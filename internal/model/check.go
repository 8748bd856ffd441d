package model

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// CheckKind identifies the execution strategy for a check
type CheckKind string

const (
	KindShell CheckKind = "shell"
	KindURL   CheckKind = "url"
	KindFact  CheckKind = "fact"
	KindLLM   CheckKind = "llm"
)

// CheckStatus toggles a check without deleting it
type CheckStatus string

const (
	CheckEnabled  CheckStatus = "enabled"
	CheckDisabled CheckStatus = "disabled"
)

// DefaultTimeout is the per-check wall-clock budget in seconds.
const DefaultTimeout = 60

// Check is the closed set of verification units: shell, url, fact, llm.
// Executor dispatch is an exhaustive type switch over the four concrete
// types, so a new kind without an executor fails at compile time in the
// engine's switch.
type Check interface {
	CheckID() string
	Kind() CheckKind
	Enabled() bool

	// Fingerprint is a deterministic hash of the kind and the full
	// parameter set, independent of the check's ID and status. It keys
	// the result cache.
	Fingerprint() string

	sealed()
}

// CheckMeta carries the fields shared by every check kind. The ID is
// stable and content-independent; the fingerprint is the opposite.
type CheckMeta struct {
	ID     string      `json:"id" toml:"id"`
	Status CheckStatus `json:"status" toml:"status"`
}

// CheckID returns the check's stable identifier.
func (m CheckMeta) CheckID() string { return m.ID }

// Enabled reports whether the check may be executed.
func (m CheckMeta) Enabled() bool { return m.Status != CheckDisabled }

func (CheckMeta) sealed() {}

// ShellCheck runs a command in the project root and asserts on its exit
// code and combined output. Matches and NotMatches are regular
// expressions evaluated against stdout+stderr.
type ShellCheck struct {
	CheckMeta
	Cmd        string   `json:"cmd"`
	ExitCode   int      `json:"exit_code"`
	Matches    []string `json:"matches,omitempty"`
	NotMatches []string `json:"not_matches,omitempty"`
	Timeout    int      `json:"timeout"` // seconds
}

// Kind returns KindShell.
func (c *ShellCheck) Kind() CheckKind { return KindShell }

// Fingerprint returns the cache key for this check's parameter set.
func (c *ShellCheck) Fingerprint() string {
	return fingerprint(KindShell, struct {
		Cmd        string   `json:"cmd"`
		ExitCode   int      `json:"exit_code"`
		Matches    []string `json:"matches"`
		NotMatches []string `json:"not_matches"`
		Timeout    int      `json:"timeout"`
	}{c.Cmd, c.ExitCode, norm(c.Matches), norm(c.NotMatches), c.Timeout})
}

// URLCheck fetches a URL and optionally pipes the body into a shell
// command; the shell-style assertions then apply to that command's
// output. Without a Cmd, a 2xx fetch is the pass condition.
type URLCheck struct {
	CheckMeta
	URL        string   `json:"url"`
	Cmd        string   `json:"cmd,omitempty"`
	ExitCode   int      `json:"exit_code"`
	Matches    []string `json:"matches,omitempty"`
	NotMatches []string `json:"not_matches,omitempty"`
	Timeout    int      `json:"timeout"`   // seconds
	CacheTTL   int      `json:"cache_ttl"` // seconds the fetched body may be reused; 0 = never
}

// Kind returns KindURL.
func (c *URLCheck) Kind() CheckKind { return KindURL }

// Fingerprint returns the cache key for this check's parameter set,
// including the cache_ttl window.
func (c *URLCheck) Fingerprint() string {
	return fingerprint(KindURL, struct {
		URL        string   `json:"url"`
		Cmd        string   `json:"cmd"`
		ExitCode   int      `json:"exit_code"`
		Matches    []string `json:"matches"`
		NotMatches []string `json:"not_matches"`
		Timeout    int      `json:"timeout"`
		CacheTTL   int      `json:"cache_ttl"`
	}{c.URL, c.Cmd, c.ExitCode, norm(c.Matches), norm(c.NotMatches), c.Timeout, c.CacheTTL})
}

// FactCheck looks up a dotted key in the knowledge base and applies
// exactly one criterion: Has (key exists and is non-empty), Empty (key
// exists and is empty), Equals+Value (string equality), or
// Matches+Pattern (regex).
type FactCheck struct {
	CheckMeta
	Has     string `json:"has,omitempty"`
	Empty   string `json:"empty,omitempty"`
	Equals  string `json:"equals,omitempty"`
	Value   string `json:"value,omitempty"`
	Matches string `json:"matches,omitempty"`
	Pattern string `json:"pattern,omitempty"`
}

// Kind returns KindFact.
func (c *FactCheck) Kind() CheckKind { return KindFact }

// Fingerprint returns the cache key for this check's parameter set.
func (c *FactCheck) Fingerprint() string {
	return fingerprint(KindFact, struct {
		Has     string `json:"has"`
		Empty   string `json:"empty"`
		Equals  string `json:"equals"`
		Value   string `json:"value"`
		Matches string `json:"matches"`
		Pattern string `json:"pattern"`
	}{c.Has, c.Empty, c.Equals, c.Value, c.Matches, c.Pattern})
}

// LLMCheck sends the owning claim's text (or the Prompt for standalone
// checks) plus the globbed file contents to a review provider and
// interprets its verdict.
type LLMCheck struct {
	CheckMeta
	Files  []string `json:"files"` // glob patterns, doublestar syntax
	Prompt string   `json:"prompt,omitempty"`
}

// Kind returns KindLLM.
func (c *LLMCheck) Kind() CheckKind { return KindLLM }

// Fingerprint returns the cache key for this check's parameter set.
func (c *LLMCheck) Fingerprint() string {
	return fingerprint(KindLLM, struct {
		Files  []string `json:"files"`
		Prompt string   `json:"prompt"`
	}{norm(c.Files), c.Prompt})
}

// fingerprint hashes the kind plus a JSON encoding of the parameter
// struct. Struct encoding fixes the key order, so unrelated reordering
// in the source document never invalidates the cache.
func fingerprint(kind CheckKind, params any) string {
	data, err := json.Marshal(params)
	if err != nil {
		// Parameter structs are plain strings and ints; this cannot
		// happen for well-formed checks.
		data = []byte(err.Error())
	}
	h := sha256.Sum256(append([]byte(string(kind)+":"), data...))
	return hex.EncodeToString(h[:])[:16]
}

// norm maps nil to an empty slice so fingerprints do not depend on how
// the document encoded an absent list.
func norm(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
