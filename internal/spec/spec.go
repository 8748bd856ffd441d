// Package spec loads the versioned TOML document that holds claims,
// issues, contexts, and standalone checks. The engine consumes the
// parsed document read-only; this package never writes it back.
package spec

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"certo/internal/model"
)

// SpecDirName is the per-project directory holding the document, the
// fact store, and caches.
const SpecDirName = ".certo"

// SpecFileName is the document file inside SpecDirName.
const SpecFileName = "spec.toml"

// rawCheck accepts every field of every check kind; Convert narrows it.
// Matches is untyped because shell/url checks use a list while fact
// checks use a single key string.
type rawCheck struct {
	ID         string   `toml:"id"`
	Kind       string   `toml:"kind"`
	Status     string   `toml:"status"`
	Cmd        string   `toml:"cmd"`
	ExitCode   int      `toml:"exit_code"`
	Matches    any      `toml:"matches"`
	NotMatches []string `toml:"not_matches"`
	Timeout    *int     `toml:"timeout"`
	URL        string   `toml:"url"`
	CacheTTL   int      `toml:"cache_ttl"`
	Has        string   `toml:"has"`
	Empty      string   `toml:"empty"`
	Equals     string   `toml:"equals"`
	Value      string   `toml:"value"`
	Pattern    string   `toml:"pattern"`
	Files      []string `toml:"files"`
	Prompt     string   `toml:"prompt"`
}

type rawClaim struct {
	model.Claim
	Checks []rawCheck `toml:"checks"`
}

type rawContext struct {
	model.Context
	Enabled *bool `toml:"enabled"` // absent means enabled
}

type rawDoc struct {
	Spec struct {
		Name    string `toml:"name"`
		Version int    `toml:"version"`
		Author  string `toml:"author"`
	} `toml:"spec"`
	Claims   []rawClaim    `toml:"claims"`
	Issues   []model.Issue `toml:"issues"`
	Contexts []rawContext  `toml:"contexts"`
	Checks   []rawCheck    `toml:"checks"`
}

// Load reads and parses the spec document at path.
func Load(path string) (*model.Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("spec not found: %s", path)
		}
		return nil, fmt.Errorf("read spec: %w", err)
	}
	return Parse(data)
}

// Parse decodes a spec document from TOML bytes and validates ID
// uniqueness.
func Parse(data []byte) (*model.Spec, error) {
	var raw rawDoc
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse spec: %w", err)
	}

	s := &model.Spec{
		Name:    raw.Spec.Name,
		Version: raw.Spec.Version,
		Author:  raw.Spec.Author,
		Issues:  raw.Issues,
	}
	if s.Version == 0 {
		s.Version = 1
	}

	for i := range raw.Claims {
		c := raw.Claims[i].Claim
		if c.Status == "" {
			c.Status = model.ClaimPending
		}
		if c.Level == "" {
			c.Level = model.LevelWarn
		}
		for j := range raw.Claims[i].Checks {
			ck, err := convertCheck(&raw.Claims[i].Checks[j])
			if err != nil {
				return nil, fmt.Errorf("claim %s: %w", c.ID, err)
			}
			c.Checks = append(c.Checks, ck)
		}
		s.Claims = append(s.Claims, c)
	}

	for i := range raw.Contexts {
		c := raw.Contexts[i].Context
		c.Enabled = raw.Contexts[i].Enabled == nil || *raw.Contexts[i].Enabled
		s.Contexts = append(s.Contexts, c)
	}

	for i := range raw.Checks {
		ck, err := convertCheck(&raw.Checks[i])
		if err != nil {
			return nil, err
		}
		s.Checks = append(s.Checks, ck)
	}

	for i := range s.Issues {
		if s.Issues[i].Status == "" {
			s.Issues[i].Status = model.IssueOpen
		}
	}

	if err := s.ValidateIDs(); err != nil {
		return nil, fmt.Errorf("parse spec: %w", err)
	}
	return s, nil
}

// convertCheck narrows a rawCheck to its concrete kind.
func convertCheck(raw *rawCheck) (model.Check, error) {
	meta := model.CheckMeta{ID: raw.ID, Status: model.CheckStatus(raw.Status)}
	if meta.Status == "" {
		meta.Status = model.CheckEnabled
	}

	timeout := model.DefaultTimeout
	if raw.Timeout != nil {
		timeout = *raw.Timeout
	}

	switch model.CheckKind(raw.Kind) {
	case model.KindShell:
		matches, err := stringList(raw.Matches)
		if err != nil {
			return nil, fmt.Errorf("check %s: matches: %w", raw.ID, err)
		}
		c := &model.ShellCheck{
			CheckMeta:  meta,
			Cmd:        raw.Cmd,
			ExitCode:   raw.ExitCode,
			Matches:    matches,
			NotMatches: raw.NotMatches,
			Timeout:    timeout,
		}
		if c.ID == "" {
			c.ID = generateID("k", "shell:"+c.Cmd)
		}
		return c, nil

	case model.KindURL:
		matches, err := stringList(raw.Matches)
		if err != nil {
			return nil, fmt.Errorf("check %s: matches: %w", raw.ID, err)
		}
		c := &model.URLCheck{
			CheckMeta:  meta,
			URL:        raw.URL,
			Cmd:        raw.Cmd,
			ExitCode:   raw.ExitCode,
			Matches:    matches,
			NotMatches: raw.NotMatches,
			Timeout:    timeout,
			CacheTTL:   raw.CacheTTL,
		}
		if c.ID == "" {
			c.ID = generateID("k", "url:"+c.URL)
		}
		return c, nil

	case model.KindFact:
		matchKey, _ := raw.Matches.(string)
		c := &model.FactCheck{
			CheckMeta: meta,
			Has:       raw.Has,
			Empty:     raw.Empty,
			Equals:    raw.Equals,
			Value:     raw.Value,
			Matches:   matchKey,
			Pattern:   raw.Pattern,
		}
		if c.ID == "" {
			c.ID = generateID("k", "fact:"+c.Has+c.Empty+c.Equals+c.Matches)
		}
		return c, nil

	case model.KindLLM:
		c := &model.LLMCheck{
			CheckMeta: meta,
			Files:     raw.Files,
			Prompt:    raw.Prompt,
		}
		if c.ID == "" {
			c.ID = generateID("k", "llm:"+strings.Join(c.Files, ","))
		}
		return c, nil

	default:
		return nil, fmt.Errorf("check %s: unknown kind: %q", raw.ID, raw.Kind)
	}
}

// stringList coerces a TOML value into a string list. Absent values are
// fine; scalar strings are not (that shape belongs to fact checks).
func stringList(v any) ([]string, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case []string:
		return val, nil
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("expected string, got %T", item)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("expected list, got %T", v)
	}
}

// generateID mints a short hash-based identifier, used when the
// document omits one.
func generateID(prefix, content string) string {
	h := sha256.Sum256([]byte(content))
	return prefix + "-" + hex.EncodeToString(h[:])[:7]
}

// Find walks up from start looking for .certo/spec.toml, like git
// finding .git. It returns the spec path and the project root.
func Find(start string) (specPath string, projectRoot string, err error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", "", err
	}
	for {
		candidate := filepath.Join(dir, SpecDirName, SpecFileName)
		if _, statErr := os.Stat(candidate); statErr == nil {
			return candidate, dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", "", fmt.Errorf("no %s/%s found in %s or any parent", SpecDirName, SpecFileName, start)
		}
		dir = parent
	}
}

// Dir returns the .certo directory for a project root.
func Dir(projectRoot string) string {
	return filepath.Join(projectRoot, SpecDirName)
}
