// Package engine executes the checks of a spec document: it flattens
// the document into units, filters them by claim status, level,
// selection, and offline mode, consults the result cache, and runs the
// remainder on a bounded worker pool, restoring document order in the
// report.
package engine

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"time"

	"certo/internal/kb"
	"certo/internal/llm"
	"certo/internal/model"
	"certo/internal/spec"
	"certo/internal/util"
	"certo/internal/worker"
)

// Options selects and shapes one run.
type Options struct {
	Only    []string // run only units matching these claim/check IDs
	Skip    []string // skip units matching these claim/check IDs
	Offline bool     // no network: llm checks skip, url checks need a cached body
	NoCache bool     // ignore result and body caches for this run
	Model   string   // override the configured llm model
}

// Engine holds the per-project state shared by every run: the fact
// store, the caches under .certo/cache, the review provider, and the
// outbound-HTTP plumbing.
type Engine struct {
	cfg         *model.Config
	projectRoot string

	facts   *kb.Store
	results *resultCache
	bodies  *bodyCache

	provider llm.Provider
	noAPIKey bool

	httpClient *http.Client
	limiter    *worker.Limiter
	robots     *util.RobotsChecker
}

// New builds an engine for the project rooted at projectRoot. A review
// provider that merely lacks its API key is tolerated here; the
// affected llm units are skipped at run time.
func New(cfg *model.Config, projectRoot string) (*Engine, error) {
	specDir := spec.Dir(projectRoot)

	facts, err := kb.Load(specDir)
	if err != nil {
		return nil, err
	}

	lcfg := llm.ConfigFromModel(cfg.LLM)
	lcfg.HTTPProxy = cfg.HTTP.HTTPProxy
	lcfg.HTTPSProxy = cfg.HTTP.HTTPSProxy
	lcfg.NoProxy = cfg.HTTP.NoProxy

	provider, err := llm.NewProvider(lcfg)
	noAPIKey := false
	if err != nil {
		if !errors.Is(err, llm.ErrNoAPIKey) {
			return nil, fmt.Errorf("llm provider: %w", err)
		}
		provider = nil
		noAPIKey = true
	}

	transport := &http.Transport{
		Proxy: util.NewProxyFunc(cfg.HTTP.HTTPProxy, cfg.HTTP.HTTPSProxy, cfg.HTTP.NoProxy),
	}
	if cfg.HTTP.InsecureTLS {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return &Engine{
		cfg:         cfg,
		projectRoot: projectRoot,
		facts:       facts,
		results:     newResultCache(specDir, cfg.Cache),
		bodies:      newBodyCache(specDir, cfg.Cache),
		provider:    provider,
		noAPIKey:    noAPIKey,
		httpClient:  &http.Client{Transport: transport},
		limiter:     worker.NewLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst),
		robots:      util.NewRobotsChecker(cfg.HTTP.UserAgent, cfg.HTTP.Timeout),
	}, nil
}

// Facts exposes the loaded knowledge base (kb show reads through here).
func (e *Engine) Facts() *kb.Store { return e.facts }

// unitPlan pairs a unit with its pre-resolved result, when filtering
// already decided the outcome.
type unitPlan struct {
	unit   Unit
	result *model.UnitResult // nil means the unit must execute
}

// Run executes the document under the given options and returns the
// report in document order. Selection errors (unknown --only/--skip
// IDs) surface as *StructuralError before anything runs; cancellation
// yields a partial report, not an error.
func (e *Engine) Run(ctx context.Context, doc *model.Spec, opts Options) (*model.Report, error) {
	now := time.Now()

	if !e.cfg.Cache.Enabled {
		opts.NoCache = true
	}

	onlySet, err := idSet(doc, opts.Only, "--only")
	if err != nil {
		return nil, err
	}
	skipSet, err := idSet(doc, opts.Skip, "--skip")
	if err != nil {
		return nil, err
	}

	plans := e.plan(buildUnits(doc, now), onlySet, skipSet, opts)

	pool := worker.NewPool(ctx, e.cfg.Concurrency.CheckWorkers)
	pool.Start()
	defer pool.Shutdown()

	submitted := 0
	for i := range plans {
		if plans[i].result == nil {
			pool.Submit(&unitTask{engine: e, plan: &plans[i], index: i, opts: opts})
			submitted++
		}
	}

	completed := 0
	for _, r := range pool.Wait() {
		tr := r.(*taskResult)
		plans[tr.index].result = &tr.result
		completed++
	}

	report := &model.Report{
		SpecName: doc.Name,
		RanAt:    now,
		Partial:  completed < submitted,
	}
	for i := range plans {
		res := plans[i].result
		if res == nil {
			res = plans[i].baseResult()
			res.Outcome = model.OutcomeSkipped
			res.SkipReason = "cancelled"
		}
		report.Units = append(report.Units, *res)
		report.Totals.Add(res.Outcome)
	}

	return report, nil
}

// plan applies the selection and skip rules, resolving every unit that
// never reaches an executor. Units excluded by --only are dropped from
// the report entirely; every other exemption stays visible as skipped.
func (e *Engine) plan(units []Unit, onlySet, skipSet map[string]bool, opts Options) []unitPlan {
	var plans []unitPlan

	for _, u := range units {
		if onlySet != nil && !u.matches(onlySet) {
			continue
		}

		p := unitPlan{unit: u}
		switch {
		case u.Claim != nil && u.Claim.Status != model.ClaimConfirmed:
			p.skip("claim " + string(u.Claim.Status))
		case u.Claim != nil && u.Level == model.LevelSkip:
			p.skip("level=skip")
		case !u.Check.Enabled():
			p.skip("disabled")
		case skipSet != nil && u.matches(skipSet):
			p.skip("skipped by --skip")
		case u.Check.Kind() == model.KindLLM && opts.Offline:
			p.skip("offline")
		case u.Check.Kind() == model.KindLLM && e.provider == nil && !e.noAPIKey:
			p.skip("no llm provider configured")
		default:
			if u.Check.Kind() == model.KindURL && opts.Offline {
				ck := u.Check.(*model.URLCheck)
				if opts.NoCache || !e.hasFreshBody(ck) {
					p.skip("offline")
				}
			}
		}
		plans = append(plans, p)
	}

	return plans
}

// baseResult fills the identity fields every result carries.
func (p *unitPlan) baseResult() *model.UnitResult {
	return &model.UnitResult{
		CheckID:   p.unit.Check.CheckID(),
		ClaimID:   p.unit.claimID(),
		ClaimText: p.unit.claimText(),
		Kind:      p.unit.Check.Kind(),
		Level:     p.unit.Level,
	}
}

func (p *unitPlan) skip(reason string) {
	res := p.baseResult()
	res.Outcome = model.OutcomeSkipped
	res.SkipReason = reason
	p.result = res
}

// unitTask runs one unit on the pool.
type unitTask struct {
	engine *Engine
	plan   *unitPlan
	index  int
	opts   Options
}

func (t *unitTask) Index() int { return t.index }

// Run consults the result cache, dispatches to the kind's executor, and
// records fresh passes back into the cache.
func (t *unitTask) Run(ctx context.Context) worker.Result {
	e := t.engine
	u := &t.plan.unit
	res := t.plan.baseResult()
	now := time.Now()

	if !t.opts.NoCache {
		if entry, ok := e.results.lookup(u.Check, now); ok {
			res.Outcome = entry.Outcome
			res.Detail = entry.Detail
			res.Output = entry.Output
			res.Cached = true
			return &taskResult{index: t.index, result: *res}
		}
	}

	start := time.Now()
	var o outcome
	switch ck := u.Check.(type) {
	case *model.ShellCheck:
		o = e.runShell(ctx, ck, nil)
	case *model.URLCheck:
		o = e.runURL(ctx, ck, t.opts.NoCache, t.opts.Offline)
	case *model.FactCheck:
		o = e.runFact(ck)
	case *model.LLMCheck:
		o = e.runLLM(ctx, ck, u, t.opts.Model)
	}

	res.Outcome = o.status
	res.Detail = o.detail
	res.Output = o.output
	res.SkipReason = o.reason
	res.Duration = time.Since(start)

	if !t.opts.NoCache {
		e.results.record(u.Check, res, now)
	}

	return &taskResult{index: t.index, result: *res}
}

type taskResult struct {
	index  int
	result model.UnitResult
}

func (r *taskResult) Index() int { return r.index }
