package engine

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"certo/internal/model"
)

// runURL fetches the check's URL and either treats a 2xx response as
// the pass condition or pipes the body into the check's command and
// applies the shell assertions to that command's output.
func (e *Engine) runURL(ctx context.Context, ck *model.URLCheck, noCache, offline bool) outcome {
	if ck.URL == "" {
		return errored("url check has no url")
	}

	timeout := ck.Timeout
	if timeout <= 0 {
		timeout = model.DefaultTimeout
	}

	body, status, cached, err := e.fetchBody(ctx, ck, time.Duration(timeout)*time.Second, noCache, offline)
	if err != nil {
		return errored(fmt.Sprintf("fetch %s: %v", ck.URL, err))
	}

	if status < 200 || status >= 300 {
		return failed(fmt.Sprintf("unexpected status %d for %s", status, ck.URL), "")
	}

	if ck.Cmd == "" {
		return annotateCached(passed(fmt.Sprintf("fetched %s (status %d)", ck.URL, status), ""), cached)
	}

	// The body-processing command reuses the shell executor wholesale:
	// same timeout budget, same exit-code and regex assertions.
	shell := &model.ShellCheck{
		CheckMeta:  ck.CheckMeta,
		Cmd:        ck.Cmd,
		ExitCode:   ck.ExitCode,
		Matches:    ck.Matches,
		NotMatches: ck.NotMatches,
		Timeout:    timeout,
	}
	return annotateCached(e.runShell(ctx, shell, body), cached)
}

// annotateCached marks details produced from a cached body.
func annotateCached(o outcome, cached bool) outcome {
	if cached && o.detail != "" {
		o.detail += " (cached)"
	}
	return o
}

// fetchBody returns the response body, consulting the body cache within
// the check's cache_ttl window. Offline runs only ever see the cache;
// the planner guarantees a fresh entry exists before scheduling them.
func (e *Engine) fetchBody(ctx context.Context, ck *model.URLCheck, timeout time.Duration, noCache, offline bool) (body []byte, status int, cached bool, err error) {
	now := time.Now()

	if !noCache {
		if entry, ok := e.bodies.lookup(ck.URL, ck.CacheTTL, now); ok {
			return entry.Body, entry.Status, true, nil
		}
	}
	if offline {
		return nil, 0, false, fmt.Errorf("offline and no cached body")
	}

	if e.cfg.HTTP.RespectRobots {
		allowed, crawlDelay, rerr := e.robots.CanFetch(ctx, ck.URL)
		if rerr != nil {
			return nil, 0, false, rerr
		}
		if !allowed {
			return nil, 0, false, fmt.Errorf("blocked by robots.txt")
		}
		if err := e.limiter.WaitWithDelay(ctx, ck.URL, crawlDelay); err != nil {
			return nil, 0, false, err
		}
	} else if err := e.limiter.Wait(ctx, ck.URL); err != nil {
		return nil, 0, false, err
	}

	fctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(fctx, http.MethodGet, ck.URL, nil)
	if err != nil {
		return nil, 0, false, err
	}
	req.Header.Set("User-Agent", e.cfg.HTTP.UserAgent)

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, 0, false, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err = io.ReadAll(io.LimitReader(resp.Body, e.cfg.HTTP.MaxBodyBytes))
	if err != nil {
		return nil, 0, false, fmt.Errorf("read body: %w", err)
	}

	if !noCache {
		e.bodies.record(ck.URL, resp.StatusCode, body, now)
	}

	return body, resp.StatusCode, false, nil
}

// hasFreshBody reports whether an offline run can serve this check from
// the body cache.
func (e *Engine) hasFreshBody(ck *model.URLCheck) bool {
	_, ok := e.bodies.lookup(ck.URL, ck.CacheTTL, time.Now())
	return ok
}
