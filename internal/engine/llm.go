package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"certo/internal/llm"
	"certo/internal/model"
)

// runLLM globs the check's file patterns, reads the matches under size
// caps, and asks the review provider for a verdict on the owning
// claim's text (or the check's own prompt for standalone checks).
func (e *Engine) runLLM(ctx context.Context, ck *model.LLMCheck, u *Unit, modelOverride string) outcome {
	assertion := ck.Prompt
	if assertion == "" {
		assertion = u.claimText()
	}
	if assertion == "" {
		return errored("llm check has no claim text and no prompt")
	}
	if len(ck.Files) == 0 {
		return errored("llm check has no files")
	}

	if e.provider == nil {
		// Reachable when the provider needs a key that is absent; the
		// planner already skips the no-provider-configured case.
		return outcome{status: model.OutcomeSkipped, reason: "no API key configured"}
	}

	paths, err := e.globFiles(ck.Files)
	if err != nil {
		return errored(err.Error())
	}
	if len(paths) == 0 {
		return errored(fmt.Sprintf("no files match: %v", ck.Files))
	}

	files, err := e.readFiles(paths)
	if err != nil {
		return errored(err.Error())
	}

	timeout := e.cfg.LLM.Timeout
	if timeout <= 0 {
		timeout = 30
	}
	rctx, cancel := context.WithTimeout(ctx, time.Duration(timeout)*time.Second)
	defer cancel()

	resp, err := e.provider.Review(rctx, llm.ReviewRequest{
		Assertion: assertion,
		Files:     files,
		Model:     modelOverride,
		MaxTokens: e.cfg.LLM.MaxTokens,
	})
	if err != nil {
		return errored(fmt.Sprintf("llm review: %v", err))
	}

	if resp.Verdict {
		return passed(resp.Rationale, "")
	}
	return failed(resp.Rationale, "")
}

// globFiles resolves the patterns against the project root, dedupes,
// and returns sorted relative paths.
func (e *Engine) globFiles(patterns []string) ([]string, error) {
	seen := map[string]bool{}
	root := os.DirFS(e.projectRoot)

	for _, pattern := range patterns {
		matches, err := doublestar.Glob(root, pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid file pattern %q: %v", pattern, err)
		}
		for _, m := range matches {
			info, err := os.Stat(filepath.Join(e.projectRoot, m))
			if err != nil || info.IsDir() {
				continue
			}
			seen[m] = true
		}
	}

	paths := make([]string, 0, len(seen))
	for p := range seen {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths, nil
}

// readFiles loads the matched files, enforcing the per-file and total
// size caps so a careless glob cannot blow up the request.
func (e *Engine) readFiles(paths []string) ([]llm.File, error) {
	var files []llm.File
	var total int64

	for _, p := range paths {
		full := filepath.Join(e.projectRoot, p)
		info, err := os.Stat(full)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %v", p, err)
		}
		if info.Size() > e.cfg.LLM.MaxFileBytes {
			return nil, fmt.Errorf("file too large: %s (%d bytes)", p, info.Size())
		}
		total += info.Size()
		if total > e.cfg.LLM.MaxTotalBytes {
			return nil, fmt.Errorf("matched files exceed %d bytes total", e.cfg.LLM.MaxTotalBytes)
		}

		data, err := os.ReadFile(full)
		if err != nil {
			return nil, fmt.Errorf("read %s: %v", p, err)
		}
		files = append(files, llm.File{Path: p, Content: string(data)})
	}

	return files, nil
}
