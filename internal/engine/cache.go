package engine

import (
	"encoding/json"
	"path/filepath"
	"time"

	"certo/internal/cache"
	"certo/internal/model"
)

// diskResultTTL bounds how long a passing outcome survives on disk.
const diskResultTTL = 30 * 24 * time.Hour

// cachedOutcome is the result-cache envelope. StoredAt lives inside the
// value because the cache contract is opaque bytes; the freshness window
// for URL checks is decided here at read time.
type cachedOutcome struct {
	Outcome  model.Outcome `json:"outcome"`
	Detail   string        `json:"detail,omitempty"`
	Output   string        `json:"output,omitempty"`
	StoredAt time.Time     `json:"stored_at"`
}

// resultCache stores passing outcomes keyed by check fingerprint. Only
// passes are reusable: a failure must be re-observed every run.
type resultCache struct {
	store cache.Cache
}

func newResultCache(specDir string, cfg model.CacheConfig) *resultCache {
	dir := filepath.Join(specDir, "cache", "results")
	return &resultCache{
		store: cache.NewLayeredCache(cfg.MemoryTTL, dir, diskResultTTL),
	}
}

// lookup returns a reusable outcome for the check, if any. URL checks
// are additionally bounded by their cache_ttl; a ttl of zero means the
// outcome is never reused.
func (c *resultCache) lookup(ck model.Check, now time.Time) (*cachedOutcome, bool) {
	data, found := c.store.Get(cache.ResultKey(ck.Fingerprint()))
	if !found {
		return nil, false
	}

	var entry cachedOutcome
	if err := json.Unmarshal(data, &entry); err != nil {
		_ = c.store.Delete(cache.ResultKey(ck.Fingerprint()))
		return nil, false
	}
	if entry.Outcome != model.OutcomePassed {
		return nil, false
	}

	if u, ok := ck.(*model.URLCheck); ok {
		if u.CacheTTL <= 0 {
			return nil, false
		}
		if now.Sub(entry.StoredAt) > time.Duration(u.CacheTTL)*time.Second {
			return nil, false
		}
	}

	return &entry, true
}

// record stores the outcome when it is a pass; everything else is
// dropped.
func (c *resultCache) record(ck model.Check, res *model.UnitResult, now time.Time) {
	if res.Outcome != model.OutcomePassed || res.Cached {
		return
	}

	entry := cachedOutcome{
		Outcome:  res.Outcome,
		Detail:   res.Detail,
		Output:   res.Output,
		StoredAt: now,
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return
	}
	_ = c.store.Set(cache.ResultKey(ck.Fingerprint()), data, diskResultTTL)
}

// bodyEnvelope is the URL body-cache entry.
type bodyEnvelope struct {
	FetchedAt time.Time `json:"fetched_at"`
	Status    int       `json:"status"`
	Body      []byte    `json:"body"`
}

// bodyCache stores fetched URL bodies for reuse within a check's
// cache_ttl window, which also covers offline runs.
type bodyCache struct {
	store cache.Cache
}

func newBodyCache(specDir string, cfg model.CacheConfig) *bodyCache {
	dir := filepath.Join(specDir, "cache", "bodies")
	return &bodyCache{
		store: cache.NewLayeredCache(cfg.MemoryTTL, dir, diskResultTTL),
	}
}

// lookup returns a cached body younger than the ttl.
func (c *bodyCache) lookup(url string, ttlSeconds int, now time.Time) (*bodyEnvelope, bool) {
	if ttlSeconds <= 0 {
		return nil, false
	}

	data, found := c.store.Get(cache.BodyKey(url))
	if !found {
		return nil, false
	}

	var entry bodyEnvelope
	if err := json.Unmarshal(data, &entry); err != nil {
		_ = c.store.Delete(cache.BodyKey(url))
		return nil, false
	}
	if now.Sub(entry.FetchedAt) > time.Duration(ttlSeconds)*time.Second {
		return nil, false
	}

	return &entry, true
}

// record stores a fetched body. Bodies are stored regardless of ttl so
// a later offline run can still find something recent.
func (c *bodyCache) record(url string, status int, body []byte, now time.Time) {
	entry := bodyEnvelope{FetchedAt: now, Status: status, Body: body}
	data, err := json.Marshal(entry)
	if err != nil {
		return
	}
	_ = c.store.Set(cache.BodyKey(url), data, diskResultTTL)
}
