package spec

import (
	"os"
	"path/filepath"
	"testing"

	"certo/internal/model"
)

const sampleDoc = `
[spec]
name = "demo"
version = 2
author = "dev"

[[claims]]
id = "c-tests"
text = "The test suite passes"
status = "confirmed"
level = "block"
tags = ["quality"]

[[claims.checks]]
id = "k-go-test"
kind = "shell"
cmd = "go test ./..."
exit_code = 0
matches = ["ok"]
not_matches = ["FAIL"]
timeout = 120

[[claims]]
id = "c-docs"
text = "The README mentions installation"

[[claims.checks]]
kind = "url"
url = "https://example.com/readme"
cache_ttl = 3600

[[issues]]
id = "i-flaky"
text = "Integration tests are flaky on CI"

[[contexts]]
id = "x-freeze"
name = "release freeze"

[[contexts.modifications]]
action = "promote"
topic = "quality"

[[checks]]
id = "k-module"
kind = "fact"
equals = "go.module"
value = "certo"

[[checks]]
kind = "llm"
files = ["README.md"]
prompt = "The README documents installation"
`

func TestParseSampleDoc(t *testing.T) {
	s, err := Parse([]byte(sampleDoc))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if s.Name != "demo" || s.Version != 2 || s.Author != "dev" {
		t.Errorf("header mismatch: %+v", s)
	}
	if len(s.Claims) != 2 || len(s.Issues) != 1 || len(s.Contexts) != 1 || len(s.Checks) != 2 {
		t.Fatalf("entity counts wrong: %d claims, %d issues, %d contexts, %d checks",
			len(s.Claims), len(s.Issues), len(s.Contexts), len(s.Checks))
	}

	shell, ok := s.Claims[0].Checks[0].(*model.ShellCheck)
	if !ok {
		t.Fatalf("first check is %T, want *ShellCheck", s.Claims[0].Checks[0])
	}
	if shell.CheckID() != "k-go-test" || shell.Cmd != "go test ./..." || shell.Timeout != 120 {
		t.Errorf("shell check fields wrong: %+v", shell)
	}
	if len(shell.Matches) != 1 || shell.Matches[0] != "ok" {
		t.Errorf("matches wrong: %v", shell.Matches)
	}

	url, ok := s.Claims[1].Checks[0].(*model.URLCheck)
	if !ok {
		t.Fatalf("second claim's check is %T, want *URLCheck", s.Claims[1].Checks[0])
	}
	if url.CacheTTL != 3600 || url.Timeout != model.DefaultTimeout {
		t.Errorf("url check fields wrong: %+v", url)
	}
	if url.CheckID() == "" {
		t.Error("omitted check ID should be generated")
	}

	fact, ok := s.Checks[0].(*model.FactCheck)
	if !ok {
		t.Fatalf("standalone check is %T, want *FactCheck", s.Checks[0])
	}
	if fact.Equals != "go.module" || fact.Value != "certo" {
		t.Errorf("fact check fields wrong: %+v", fact)
	}

	if _, ok := s.Checks[1].(*model.LLMCheck); !ok {
		t.Fatalf("standalone check is %T, want *LLMCheck", s.Checks[1])
	}
}

func TestParseDefaults(t *testing.T) {
	s, err := Parse([]byte(sampleDoc))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	// c-docs omits status and level
	docs := s.Claim("c-docs")
	if docs.Status != model.ClaimPending {
		t.Errorf("claim status default: got %s, want pending", docs.Status)
	}
	if docs.Level != model.LevelWarn {
		t.Errorf("claim level default: got %s, want warn", docs.Level)
	}

	if s.Issues[0].Status != model.IssueOpen {
		t.Errorf("issue status default: got %s, want open", s.Issues[0].Status)
	}
	if !s.Contexts[0].Enabled {
		t.Error("context enabled default: want true")
	}
	if !s.Claims[0].Checks[0].Enabled() {
		t.Error("check status default: want enabled")
	}
}

func TestParseVersionDefault(t *testing.T) {
	s, err := Parse([]byte("[spec]\nname = \"x\"\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if s.Version != 1 {
		t.Errorf("version default: got %d, want 1", s.Version)
	}
}

func TestParseUnknownKind(t *testing.T) {
	doc := `
[[checks]]
id = "k-bad"
kind = "telepathy"
`
	if _, err := Parse([]byte(doc)); err == nil {
		t.Error("expected error for unknown check kind")
	}
}

func TestParseDuplicateIDs(t *testing.T) {
	doc := `
[[claims]]
id = "dup"
text = "a"

[[issues]]
id = "dup"
text = "b"
`
	if _, err := Parse([]byte(doc)); err == nil {
		t.Error("expected duplicate-ID error")
	}
}

func TestParseFactMatchesIsString(t *testing.T) {
	doc := `
[[checks]]
id = "k-re"
kind = "fact"
matches = "go.version"
pattern = "^1\\."
`
	s, err := Parse([]byte(doc))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	fact := s.Checks[0].(*model.FactCheck)
	if fact.Matches != "go.version" || fact.Pattern != "^1\\." {
		t.Errorf("fact matches/pattern wrong: %+v", fact)
	}
}

func TestParseShellMatchesRejectsString(t *testing.T) {
	doc := `
[[checks]]
id = "k-bad"
kind = "shell"
cmd = "true"
matches = "ok"
`
	if _, err := Parse([]byte(doc)); err == nil {
		t.Error("expected error for scalar matches on a shell check")
	}
}

func TestGenerateIDStable(t *testing.T) {
	a := generateID("k", "shell:true")
	b := generateID("k", "shell:true")
	c := generateID("k", "shell:false")

	if a != b {
		t.Error("same content must generate the same ID")
	}
	if a == c {
		t.Error("different content must generate different IDs")
	}
}

func TestFindWalksUp(t *testing.T) {
	root := t.TempDir()
	specDir := filepath.Join(root, SpecDirName)
	if err := os.MkdirAll(specDir, 0o755); err != nil {
		t.Fatal(err)
	}
	specPath := filepath.Join(specDir, SpecFileName)
	if err := os.WriteFile(specPath, []byte("[spec]\nname = \"x\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	nested := filepath.Join(root, "internal", "deep")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}

	gotPath, gotRoot, err := Find(nested)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if gotPath != specPath {
		t.Errorf("spec path: got %s, want %s", gotPath, specPath)
	}
	if gotRoot != root {
		t.Errorf("project root: got %s, want %s", gotRoot, root)
	}
}

func TestFindMissing(t *testing.T) {
	if _, _, err := Find(t.TempDir()); err == nil {
		t.Error("expected error when no document exists")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Error("expected error for a missing document")
	}
}
