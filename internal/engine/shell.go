package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"time"

	"certo/internal/model"
)

// outcome is an executor's verdict before it is folded into a
// model.UnitResult.
type outcome struct {
	status model.Outcome
	detail string
	output string
	reason string // skip reason, only with OutcomeSkipped
}

func passed(detail, output string) outcome {
	return outcome{status: model.OutcomePassed, detail: detail, output: output}
}

func failed(detail, output string) outcome {
	return outcome{status: model.OutcomeFailed, detail: detail, output: output}
}

func errored(detail string) outcome {
	return outcome{status: model.OutcomeError, detail: detail}
}

// runShell executes the command under `sh -c` in the project root and
// asserts on its exit code and combined output. A non-nil stdin feeds
// the command (URL checks pipe the fetched body through here).
func (e *Engine) runShell(ctx context.Context, ck *model.ShellCheck, stdin []byte) outcome {
	if ck.Cmd == "" {
		return errored("shell check has no cmd")
	}

	timeout := ck.Timeout
	if timeout <= 0 {
		timeout = model.DefaultTimeout
	}

	cctx, cancel := context.WithTimeout(ctx, time.Duration(timeout)*time.Second)
	defer cancel()

	cmd := exec.CommandContext(cctx, "sh", "-c", ck.Cmd)
	cmd.Dir = e.projectRoot
	cmd.WaitDelay = 2 * time.Second
	if stdin != nil {
		cmd.Stdin = bytes.NewReader(stdin)
	}

	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf

	err := cmd.Run()
	output := buf.String()

	if cctx.Err() == context.DeadlineExceeded {
		return errored(fmt.Sprintf("timed out after %ds", timeout))
	}
	if cctx.Err() != nil {
		return errored("cancelled")
	}

	exitCode := 0
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		} else {
			return errored(fmt.Sprintf("command failed: %v", err))
		}
	}

	if exitCode != ck.ExitCode {
		return outcome{
			status: model.OutcomeFailed,
			detail: fmt.Sprintf("Expected exit code %d, got %d", ck.ExitCode, exitCode),
			output: output,
		}
	}

	return assertOutput(output, ck.Matches, ck.NotMatches)
}

// assertOutput applies the regex assertions to the combined output.
func assertOutput(output string, matches, notMatches []string) outcome {
	for _, pattern := range matches {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return errored(fmt.Sprintf("invalid pattern %q: %v", pattern, err))
		}
		if !re.MatchString(output) {
			return failed(fmt.Sprintf("missing match: %s", pattern), output)
		}
	}

	for _, pattern := range notMatches {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return errored(fmt.Sprintf("invalid pattern %q: %v", pattern, err))
		}
		if re.MatchString(output) {
			return failed(fmt.Sprintf("forbidden match: %s", pattern), output)
		}
	}

	return passed("all assertions passed", output)
}
