package service

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"content-eval/internal/config"
	"content-eval/internal/dto"
	"content-eval/internal/models"
	"content-eval/internal/repository"
	"content-eval/pkg/provider"
	"content-eval/pkg/redis_limiter"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

// Orchestrator drives generation runs: it expands an experiment into
// combinations, executes them against the provider adapters with bounded
// per-provider concurrency, retries transient failures with exponential
// backoff, and tracks progress. Runs are resumable; combinations already
// in success are never executed again.
type Orchestrator struct {
	expRepo    *repository.ExperimentRepository
	genRepo    *repository.GenerationRepository
	enumerator *Enumerator
	registry   *provider.Registry
	cfg        *config.Config
	logger     *logrus.Logger

	// Cross-process provider slots; inactive when no Redis is configured.
	redisClient     *redis.Client
	redisLimiters   map[string]*redis_limiter.RedisLimiter
	redisLimitersMu sync.Mutex

	// One in-process limiter per provider, shared by all runs.
	limiters map[string]*provider.ConcurrencyLimiter

	runs     map[uint]*RunContext
	runsLock sync.RWMutex
}

// RunContext tracks one in-flight generation run. All counter updates go
// through its mutex; generation rows themselves are written by exactly
// one worker each.
type RunContext struct {
	ExperimentID uint
	cancel       context.CancelFunc

	mu      sync.Mutex
	pending int
	success int
	failed  int
	costUSD float64
	done    bool
}

// recordOutcome moves one combination out of pending.
func (rc *RunContext) recordOutcome(status string, cost float64) {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	switch status {
	case models.GenerationSuccess:
		rc.pending--
		rc.success++
		rc.costUSD += cost
	case models.GenerationFailed:
		rc.pending--
		rc.failed++
	}
	// A combination put back to pending (cancelled mid-backoff) keeps its
	// pending slot.
}

// finish marks the run finished.
func (rc *RunContext) finish() {
	rc.mu.Lock()
	rc.done = true
	rc.mu.Unlock()
}

// isDone reports whether the run has finished.
func (rc *RunContext) isDone() bool {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return rc.done
}

// NewOrchestrator creates an orchestrator. redisClient may be nil.
func NewOrchestrator(
	expRepo *repository.ExperimentRepository,
	genRepo *repository.GenerationRepository,
	enumerator *Enumerator,
	registry *provider.Registry,
	redisClient *redis.Client,
	cfg *config.Config,
	logger *logrus.Logger,
) *Orchestrator {
	limiters := make(map[string]*provider.ConcurrencyLimiter, len(cfg.Providers))
	for name, pc := range cfg.Providers {
		limiters[name] = provider.NewConcurrencyLimiter(pc.MaxConcurrent)
	}

	return &Orchestrator{
		expRepo:       expRepo,
		genRepo:       genRepo,
		enumerator:    enumerator,
		registry:      registry,
		cfg:           cfg,
		logger:        logger,
		redisClient:   redisClient,
		redisLimiters: make(map[string]*redis_limiter.RedisLimiter),
		limiters:      limiters,
		runs:          make(map[uint]*RunContext),
	}
}

// reserve atomically claims the run slot for rc's experiment. Finished
// contexts stay in the map for Progress; only a live one blocks.
func (o *Orchestrator) reserve(rc *RunContext) error {
	o.runsLock.Lock()
	defer o.runsLock.Unlock()
	if cur, exists := o.runs[rc.ExperimentID]; exists && !cur.isDone() {
		return fmt.Errorf("%w: a run is already in progress", ErrInvalidState)
	}
	o.runs[rc.ExperimentID] = rc
	return nil
}

// release frees a reservation whose work is over or never started.
func (o *Orchestrator) release(rc *RunContext) {
	rc.cancel()
	rc.finish()
}

// Start launches (or resumes) the full run for an experiment in the
// background. Only combinations without a success row are executed.
func (o *Orchestrator) Start(experimentID uint) error {
	exp, err := o.expRepo.GetByID(experimentID)
	if err != nil {
		return fmt.Errorf("%w: experiment %d", ErrNotFound, experimentID)
	}

	if exp.Status.Rank() > models.StatusGenerating.Rank() {
		return fmt.Errorf("%w: experiment is %s", ErrInvalidState, exp.Status)
	}

	// The run slot is claimed before any preparation work so two callers
	// can never both pass the in-progress check.
	ctx, cancel := context.WithCancel(context.Background())
	rc := &RunContext{ExperimentID: exp.ID, cancel: cancel}
	if err := o.reserve(rc); err != nil {
		cancel()
		return err
	}

	requests, err := o.enumerator.Enumerate(exp)
	if err != nil {
		o.release(rc)
		return err
	}

	remaining, err := o.filterCompleted(exp.ID, requests)
	if err != nil {
		o.release(rc)
		return err
	}

	if err := o.transition(exp, models.StatusGenerating); err != nil {
		o.release(rc)
		return err
	}

	if len(remaining) == 0 {
		o.release(rc)
		return o.finalize(exp.ID)
	}

	rc.mu.Lock()
	rc.pending = len(remaining)
	rc.mu.Unlock()

	o.logger.WithFields(logrus.Fields{
		"experiment_id": exp.ID,
		"combinations":  len(requests),
		"remaining":     len(remaining),
	}).Info("generation run started")

	go o.run(ctx, rc, exp, remaining)

	return nil
}

// run executes the remaining combinations and finalizes the experiment.
func (o *Orchestrator) run(ctx context.Context, rc *RunContext, exp *models.Experiment, remaining []GenerationRequest) {
	defer rc.finish()

	// Execution order is deliberately not the enumeration order.
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	rng.Shuffle(len(remaining), func(i, j int) {
		remaining[i], remaining[j] = remaining[j], remaining[i]
	})

	var wg sync.WaitGroup
	for i := range remaining {
		// Cancellation is checked between dispatches; in-flight calls run
		// to completion or time out on their own.
		if ctx.Err() != nil {
			break
		}

		req := remaining[i]
		wg.Add(1)
		go func() {
			defer wg.Done()

			limiter := o.limiters[req.Provider]
			if limiter == nil {
				limiter = provider.NewConcurrencyLimiter(1)
			}
			if err := limiter.Acquire(ctx); err != nil {
				return
			}
			defer limiter.Release()

			o.execute(ctx, rc, exp, req)
		}()
	}

	wg.Wait()

	rc.mu.Lock()
	o.logger.WithFields(logrus.Fields{
		"experiment_id": exp.ID,
		"success":       rc.success,
		"failed":        rc.failed,
		"pending":       rc.pending,
		"cost_usd":      rc.costUSD,
	}).Info("generation run finished")
	rc.mu.Unlock()

	if err := o.finalize(exp.ID); err != nil {
		o.logger.WithField("experiment_id", exp.ID).WithError(err).Error("finalize run")
	}
}

// redisLimiter returns the cross-process limiter for a provider, creating
// it on first use. Nil when Redis is not configured or the provider has
// no concurrency bound.
func (o *Orchestrator) redisLimiter(name string) *redis_limiter.RedisLimiter {
	if o.redisClient == nil {
		return nil
	}
	pc, ok := o.cfg.Providers[name]
	if !ok || pc.MaxConcurrent <= 0 {
		return nil
	}

	o.redisLimitersMu.Lock()
	defer o.redisLimitersMu.Unlock()
	if rl, exists := o.redisLimiters[name]; exists {
		return rl
	}
	rl := redis_limiter.NewRedisLimiter(o.redisClient, pc.MaxConcurrent, "provider_concurrent:", 5*time.Minute)
	o.redisLimiters[name] = rl
	return rl
}

// callAdapter wraps a single adapter call in a cross-process slot. A slot
// that cannot be taken is a transient failure, so the retry loop backs
// off instead of bypassing the limit.
func (o *Orchestrator) callAdapter(ctx context.Context, adapter provider.Adapter, name, prompt string, params provider.Params) (*provider.Result, error) {
	rl := o.redisLimiter(name)
	if rl != nil {
		if err := rl.Acquire(ctx, name); err != nil {
			return nil, &provider.ProviderError{Provider: name, Message: err.Error(), Transient: true}
		}
		defer rl.Release(ctx, name)
	}
	return adapter.Generate(ctx, prompt, params)
}

// execute runs one combination: materializes the prompt, calls the
// adapter with retries, and persists the terminal row.
func (o *Orchestrator) execute(ctx context.Context, rc *RunContext, exp *models.Experiment, req GenerationRequest) {
	log := o.logger.WithFields(logrus.Fields{
		"experiment_id": exp.ID,
		"provider":      req.Provider,
		"strategy":      req.Strategy,
		"task_id":       req.Task.ID,
	})

	prompt := BuildPrompt(req.Task, req.Strategy, req.Samples)

	gen, err := o.findOrCreate(exp, req, prompt)
	if err != nil {
		log.WithError(err).Error("prepare generation row")
		return
	}
	if gen.Status == models.GenerationSuccess {
		// Another path completed this combination already.
		return
	}

	adapter, err := o.registry.Lookup(req.Provider)
	if err != nil {
		o.persistFailure(rc, gen, err.Error())
		return
	}

	params := provider.Params{
		Temperature: o.cfg.Generation.Temperature,
		MaxTokens:   o.cfg.Generation.MaxTokens,
	}

	var res *provider.Result
	var callErr error
	for attempt := 0; attempt <= o.cfg.Generation.MaxRetries; attempt++ {
		if attempt > 0 {
			if err := o.sleepBackoff(ctx, attempt); err != nil {
				break
			}
			log.WithField("attempt", attempt+1).Info("retrying combination")
		}

		gen.Attempts++
		res, callErr = o.callAdapter(ctx, adapter, req.Provider, prompt, params)
		if callErr == nil || !provider.IsTransient(callErr) {
			break
		}
		log.WithError(callErr).Warn("transient provider error")
	}

	switch {
	case callErr == nil && res != nil:
		gen.GeneratedContent = res.Content
		gen.PromptTokens = res.PromptTokens
		gen.CompletionTokens = res.CompletionTokens
		gen.LatencyMS = res.LatencyMS
		gen.CostUSD = res.CostUSD
		gen.Status = models.GenerationSuccess
		gen.LastError = ""
		if err := o.genRepo.Update(gen); err != nil {
			log.WithError(err).Error("persist generation")
			return
		}
		if rc != nil {
			rc.recordOutcome(models.GenerationSuccess, res.CostUSD)
		}
		log.WithField("cost_usd", res.CostUSD).Info("combination succeeded")

	case ctx.Err() != nil && provider.IsTransient(callErr):
		// Cancelled mid-retry: leave the row pending so a resume picks
		// it up without counting it failed.
		gen.Status = models.GenerationPending
		gen.LastError = callErr.Error()
		if err := o.genRepo.Update(gen); err != nil {
			log.WithError(err).Error("persist generation")
		}
		log.Info("combination interrupted, left pending")

	default:
		o.persistFailure(rc, gen, callErr.Error())
		log.WithError(callErr).Error("combination failed")
	}
}

// persistFailure marks a row failed and records the outcome.
func (o *Orchestrator) persistFailure(rc *RunContext, gen *models.Generation, message string) {
	gen.Status = models.GenerationFailed
	gen.LastError = message
	if err := o.genRepo.Update(gen); err != nil {
		o.logger.WithError(err).Error("persist generation failure")
		return
	}
	if rc != nil {
		rc.recordOutcome(models.GenerationFailed, 0)
	}
}

// findOrCreate fetches the row for a combination, creating a pending row
// on first contact. Failed rows are reset to pending for the new attempt;
// attempts accumulate across runs.
func (o *Orchestrator) findOrCreate(exp *models.Experiment, req GenerationRequest, prompt string) (*models.Generation, error) {
	gen, err := o.genRepo.FindByCombination(exp.ID, req.Provider, req.Strategy, req.Task.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	if gen == nil {
		gen = &models.Generation{
			ExperimentID: exp.ID,
			TaskID:       req.Task.ID,
			Provider:     req.Provider,
			Strategy:     req.Strategy,
			ModelName:    req.Model,
			PromptUsed:   prompt,
			Temperature:  o.cfg.Generation.Temperature,
			MaxTokens:    o.cfg.Generation.MaxTokens,
			Status:       models.GenerationPending,
		}
		if err := o.genRepo.Create(gen); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
		}
		return gen, nil
	}

	if gen.Status == models.GenerationFailed {
		gen.Status = models.GenerationPending
		gen.PromptUsed = prompt
		gen.ModelName = req.Model
	}
	return gen, nil
}

// sleepBackoff waits before retry n (1-based), honoring cancellation.
func (o *Orchestrator) sleepBackoff(ctx context.Context, attempt int) error {
	delay := o.cfg.Generation.GetBackoffBase() << uint(attempt-1)
	if max := o.cfg.Generation.GetBackoffMax(); delay > max {
		delay = max
	}

	select {
	case <-time.After(delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Single executes exactly one combination out of sequence, typically to
// retry a failure. The combination must be part of the experiment's
// selections. Already-successful combinations are returned as-is.
func (o *Orchestrator) Single(experimentID uint, req *dto.SingleRunRequest) (*models.Generation, error) {
	exp, err := o.expRepo.GetByID(experimentID)
	if err != nil {
		return nil, fmt.Errorf("%w: experiment %d", ErrNotFound, experimentID)
	}

	if exp.Status.Rank() > models.StatusGenerating.Rank() {
		return nil, fmt.Errorf("%w: experiment is %s", ErrInvalidState, exp.Status)
	}

	if !contains(exp.SelectedProviders, req.Provider) {
		return nil, fmt.Errorf("%w: provider %q is not part of this experiment", ErrConfiguration, req.Provider)
	}
	if !contains(exp.SelectedStrategies, req.Strategy) {
		return nil, fmt.Errorf("%w: strategy %q is not part of this experiment", ErrConfiguration, req.Strategy)
	}
	if !contains(exp.SelectedTasks, req.TaskID) {
		return nil, fmt.Errorf("%w: task %q is not part of this experiment", ErrConfiguration, req.TaskID)
	}
	if !o.registry.Has(req.Provider) {
		return nil, fmt.Errorf("%w: unknown provider %q", ErrConfiguration, req.Provider)
	}
	if !models.KnownStrategy(req.Strategy) {
		return nil, fmt.Errorf("%w: unknown strategy %q", ErrConfiguration, req.Strategy)
	}

	task, err := o.enumerator.taskRepo.GetByID(req.TaskID)
	if err != nil {
		return nil, fmt.Errorf("%w: unknown task %q", ErrConfiguration, req.TaskID)
	}

	existing, err := o.genRepo.FindByCombination(exp.ID, req.Provider, req.Strategy, req.TaskID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if existing != nil && existing.Status == models.GenerationSuccess {
		return existing, nil
	}

	// A targeted run holds the same reservation as a full run, so it can
	// never race a background run on the same combination.
	ctx, cancel := context.WithCancel(context.Background())
	rc := &RunContext{ExperimentID: exp.ID, cancel: cancel, pending: 1}
	if err := o.reserve(rc); err != nil {
		cancel()
		return nil, err
	}
	defer o.release(rc)

	if err := o.transition(exp, models.StatusGenerating); err != nil {
		return nil, err
	}

	adapter, _ := o.registry.Lookup(req.Provider)
	genReq := GenerationRequest{
		Provider: req.Provider,
		Model:    adapter.Model(),
		Strategy: req.Strategy,
		Task:     task,
		Samples:  exp.BaselineSamples,
	}

	limiter := o.limiters[req.Provider]
	if limiter != nil {
		if err := limiter.Acquire(ctx); err != nil {
			return nil, err
		}
		defer limiter.Release()
	}

	o.execute(ctx, rc, exp, genReq)

	if err := o.finalize(exp.ID); err != nil {
		return nil, err
	}

	gen, err := o.genRepo.FindByCombination(exp.ID, req.Provider, req.Strategy, req.TaskID)
	if err != nil || gen == nil {
		return nil, fmt.Errorf("%w: combination not persisted", ErrPersistence)
	}
	return gen, nil
}

// Progress returns a pollable snapshot assembled from persisted rows, so
// it stays correct across restarts and concurrent runs.
func (o *Orchestrator) Progress(experimentID uint) (*dto.GenerationProgress, error) {
	exp, err := o.expRepo.GetByID(experimentID)
	if err != nil {
		return nil, fmt.Errorf("%w: experiment %d", ErrNotFound, experimentID)
	}

	counts, err := o.genRepo.CountByStatus(exp.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	cost, err := o.genRepo.SumCost(exp.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	total := exp.CombinationCount()
	success := int(counts[models.GenerationSuccess])
	failed := int(counts[models.GenerationFailed])

	var failures []dto.FailureRecord
	if failed > 0 {
		failedGens, err := o.genRepo.ListByExperimentAndStatus(exp.ID, models.GenerationFailed)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
		}
		for _, g := range failedGens {
			failures = append(failures, dto.FailureRecord{
				Provider: g.Provider,
				Strategy: g.Strategy,
				TaskID:   g.TaskID,
				Error:    g.LastError,
			})
		}
	}

	o.runsLock.RLock()
	rc, exists := o.runs[exp.ID]
	o.runsLock.RUnlock()
	running := exists && !rc.isDone()

	return &dto.GenerationProgress{
		Pending:  total - success - failed,
		Success:  success,
		Failed:   failed,
		Total:    total,
		CostUSD:  cost,
		Running:  running,
		Status:   string(exp.Status),
		Failures: failures,
	}, nil
}

// Cancel requests cooperative cancellation of an in-flight run.
func (o *Orchestrator) Cancel(experimentID uint) bool {
	o.runsLock.RLock()
	rc, exists := o.runs[experimentID]
	o.runsLock.RUnlock()

	if !exists || rc.isDone() {
		return false
	}
	rc.cancel()
	return true
}

// finalize advances the experiment to evaluating only when every
// combination is success. Failed combinations keep the experiment in
// generating and are surfaced through Progress for targeted retries.
func (o *Orchestrator) finalize(experimentID uint) error {
	exp, err := o.expRepo.GetByID(experimentID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	counts, err := o.genRepo.CountByStatus(exp.ID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	total := exp.CombinationCount()
	success := int(counts[models.GenerationSuccess])
	failed := int(counts[models.GenerationFailed])

	log := o.logger.WithFields(logrus.Fields{
		"experiment_id": exp.ID,
		"success":       success,
		"failed":        failed,
		"total":         total,
	})

	if total > 0 && success == total {
		if err := o.transition(exp, models.StatusEvaluating); err != nil {
			return err
		}
		log.Info("generation complete, experiment is ready for evaluation")
		return nil
	}

	log.Info("generation run finished with open combinations")
	return nil
}

// transition advances the experiment status. Transitions are monotonic;
// moving to the current status is a no-op and regressions are rejected.
func (o *Orchestrator) transition(exp *models.Experiment, to models.ExperimentStatus) error {
	if exp.Status == to {
		return nil
	}
	if to.Rank() < exp.Status.Rank() {
		return fmt.Errorf("%w: cannot move from %s back to %s", ErrInvalidState, exp.Status, to)
	}
	if err := o.expRepo.UpdateStatus(exp.ID, to); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	exp.Status = to
	return nil
}

// filterCompleted drops combinations that already have a success row.
func (o *Orchestrator) filterCompleted(experimentID uint, requests []GenerationRequest) ([]GenerationRequest, error) {
	remaining := make([]GenerationRequest, 0, len(requests))
	for _, req := range requests {
		gen, err := o.genRepo.FindByCombination(experimentID, req.Provider, req.Strategy, req.Task.ID)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
		}
		if gen != nil && gen.Status == models.GenerationSuccess {
			continue
		}
		remaining = append(remaining, req)
	}
	return remaining, nil
}

// contains reports whether values holds v.
func contains(values []string, v string) bool {
	for _, item := range values {
		if item == v {
			return true
		}
	}
	return false
}
