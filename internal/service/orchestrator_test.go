package service

import (
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"content-eval/internal/dto"
	"content-eval/internal/models"
	"content-eval/pkg/provider"
)

// waitRunDone polls until no run is in flight for the experiment.
func waitRunDone(t *testing.T, f *fixture, expID uint) *dto.GenerationProgress {
	t.Helper()
	var last *dto.GenerationProgress
	require.Eventually(t, func() bool {
		p, err := f.orchestrator.Progress(expID)
		if err != nil {
			return false
		}
		last = p
		return !p.Running
	}, 10*time.Second, 10*time.Millisecond)
	return last
}

func TestStartExecutesEveryCombination(t *testing.T) {
	f := newFixture(t)
	fake := newFakeAdapter("openai")
	f.registry.Register(fake)

	exp := f.createExperiment(t,
		[]string{"stub", "openai"},
		[]string{models.StrategyStructured, models.StrategyExampleBased},
		[]string{"A", "B", "C"},
	)

	require.NoError(t, f.orchestrator.Start(exp.ID))
	progress := waitRunDone(t, f, exp.ID)

	assert.Equal(t, 12, progress.Total)
	assert.Equal(t, 12, progress.Success)
	assert.Zero(t, progress.Failed)
	assert.Zero(t, progress.Pending)
	assert.Positive(t, progress.CostUSD)

	reloaded, err := f.expRepo.GetByID(exp.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusEvaluating, reloaded.Status)

	gens, err := f.genRepo.ListByExperiment(exp.ID)
	require.NoError(t, err)
	assert.Len(t, gens, 12)
	for _, g := range gens {
		assert.Equal(t, models.GenerationSuccess, g.Status)
		assert.NotEmpty(t, g.GeneratedContent)
		assert.NotEmpty(t, g.PromptUsed)
		assert.Equal(t, 1, g.Attempts)
	}
}

func TestPartialFailureKeepsExperimentGenerating(t *testing.T) {
	f := newFixture(t)
	fake := newFakeAdapter("openai")
	// Task B's structured brief mentions the pricing model topic.
	fake.setFn(func(prompt string) (*provider.Result, error) {
		if strings.Contains(prompt, "pricing model") {
			return nil, &provider.ProviderError{Provider: "openai", StatusCode: 400, Message: "rejected"}
		}
		return &provider.Result{Content: "ok", CostUSD: 0.001}, nil
	})
	f.registry.Register(fake)

	exp := f.createExperiment(t, []string{"openai"}, []string{models.StrategyStructured}, []string{"A", "B"})

	require.NoError(t, f.orchestrator.Start(exp.ID))
	progress := waitRunDone(t, f, exp.ID)

	assert.Equal(t, 1, progress.Success)
	assert.Equal(t, 1, progress.Failed)
	require.Len(t, progress.Failures, 1)
	assert.Equal(t, "B", progress.Failures[0].TaskID)
	assert.Contains(t, progress.Failures[0].Error, "rejected")

	reloaded, err := f.expRepo.GetByID(exp.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusGenerating, reloaded.Status)
}

func TestResumeNeverReExecutesSuccesses(t *testing.T) {
	f := newFixture(t)
	fake := newFakeAdapter("openai")
	fake.setFn(func(prompt string) (*provider.Result, error) {
		if strings.Contains(prompt, "pricing model") {
			return nil, &provider.ProviderError{Provider: "openai", StatusCode: 400, Message: "rejected"}
		}
		return &provider.Result{Content: "ok", CostUSD: 0.001}, nil
	})
	f.registry.Register(fake)

	exp := f.createExperiment(t, []string{"openai"}, []string{models.StrategyStructured}, []string{"A", "B"})

	require.NoError(t, f.orchestrator.Start(exp.ID))
	waitRunDone(t, f, exp.ID)
	callsAfterFirstRun := fake.callCount()
	assert.Equal(t, 2, callsAfterFirstRun)

	// Second run: the backend recovered.
	fake.setFn(func(prompt string) (*provider.Result, error) {
		return &provider.Result{Content: "ok now", CostUSD: 0.001}, nil
	})

	require.NoError(t, f.orchestrator.Start(exp.ID))
	progress := waitRunDone(t, f, exp.ID)

	assert.Equal(t, 2, progress.Success)
	assert.Zero(t, progress.Failed)
	// Only the failed combination was re-executed.
	assert.Equal(t, callsAfterFirstRun+1, fake.callCount())

	reloaded, err := f.expRepo.GetByID(exp.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusEvaluating, reloaded.Status)
}

func TestTransientErrorsAreRetried(t *testing.T) {
	f := newFixture(t)
	fake := newFakeAdapter("openai")
	var attempts int
	fake.setFn(func(prompt string) (*provider.Result, error) {
		attempts++
		if attempts <= 2 {
			return nil, &provider.ProviderError{Provider: "openai", StatusCode: 429, Message: "rate limited", Transient: true}
		}
		return &provider.Result{Content: "third time lucky", CostUSD: 0.001}, nil
	})
	f.registry.Register(fake)

	exp := f.createExperiment(t, []string{"openai"}, []string{models.StrategyStructured}, []string{"A"})

	require.NoError(t, f.orchestrator.Start(exp.ID))
	progress := waitRunDone(t, f, exp.ID)
	assert.Equal(t, 1, progress.Success)

	gen, err := f.genRepo.FindByCombination(exp.ID, "openai", models.StrategyStructured, "A")
	require.NoError(t, err)
	require.NotNil(t, gen)
	assert.Equal(t, models.GenerationSuccess, gen.Status)
	assert.Equal(t, 3, gen.Attempts)
	assert.Empty(t, gen.LastError)
}

func TestTransientExhaustionEndsFailed(t *testing.T) {
	f := newFixture(t)
	fake := newFakeAdapter("openai")
	fake.setFn(func(prompt string) (*provider.Result, error) {
		return nil, &provider.ProviderError{Provider: "openai", StatusCode: 503, Message: "down", Transient: true}
	})
	f.registry.Register(fake)

	exp := f.createExperiment(t, []string{"openai"}, []string{models.StrategyStructured}, []string{"A"})

	require.NoError(t, f.orchestrator.Start(exp.ID))
	progress := waitRunDone(t, f, exp.ID)
	assert.Equal(t, 1, progress.Failed)

	gen, err := f.genRepo.FindByCombination(exp.ID, "openai", models.StrategyStructured, "A")
	require.NoError(t, err)
	require.NotNil(t, gen)
	assert.Equal(t, models.GenerationFailed, gen.Status)
	// Initial attempt plus the configured retries.
	assert.Equal(t, f.cfg.Generation.MaxRetries+1, gen.Attempts)
	assert.Contains(t, gen.LastError, "down")
}

func TestPermanentErrorIsNotRetried(t *testing.T) {
	f := newFixture(t)
	fake := newFakeAdapter("openai")
	fake.setFn(func(prompt string) (*provider.Result, error) {
		return nil, &provider.ProviderError{Provider: "openai", StatusCode: 401, Message: "bad key"}
	})
	f.registry.Register(fake)

	exp := f.createExperiment(t, []string{"openai"}, []string{models.StrategyStructured}, []string{"A"})

	require.NoError(t, f.orchestrator.Start(exp.ID))
	waitRunDone(t, f, exp.ID)

	assert.Equal(t, 1, fake.callCount())
}

func TestStartRejectsConcurrentRun(t *testing.T) {
	f := newFixture(t)
	fake := newFakeAdapter("openai")
	fake.block = make(chan struct{})
	f.registry.Register(fake)

	exp := f.createExperiment(t, []string{"openai"}, []string{models.StrategyStructured}, []string{"A", "B"})

	require.NoError(t, f.orchestrator.Start(exp.ID))

	err := f.orchestrator.Start(exp.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidState))

	close(fake.block)
	waitRunDone(t, f, exp.ID)
}

func TestConcurrentStartsAdmitExactlyOne(t *testing.T) {
	f := newFixture(t)
	fake := newFakeAdapter("openai")
	fake.block = make(chan struct{})
	f.registry.Register(fake)

	exp := f.createExperiment(t, []string{"openai"}, []string{models.StrategyStructured}, []string{"A", "B"})

	const callers = 8
	var wg sync.WaitGroup
	var admitted atomic.Int32
	gate := make(chan struct{})
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-gate
			err := f.orchestrator.Start(exp.ID)
			if err == nil {
				admitted.Add(1)
				return
			}
			assert.True(t, errors.Is(err, ErrInvalidState))
		}()
	}
	close(gate)
	wg.Wait()

	assert.Equal(t, int32(1), admitted.Load())

	close(fake.block)
	progress := waitRunDone(t, f, exp.ID)
	assert.Equal(t, 2, progress.Success)

	// One run means each combination is dispatched exactly once.
	assert.Equal(t, 2, fake.callCount())
}

func TestSingleRejectedWhileRunInProgress(t *testing.T) {
	f := newFixture(t)
	fake := newFakeAdapter("openai")
	fake.block = make(chan struct{})
	f.registry.Register(fake)

	exp := f.createExperiment(t, []string{"openai"}, []string{models.StrategyStructured}, []string{"A", "B"})
	require.NoError(t, f.orchestrator.Start(exp.ID))

	_, err := f.orchestrator.Single(exp.ID, &dto.SingleRunRequest{
		Provider: "openai",
		Strategy: models.StrategyStructured,
		TaskID:   "A",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidState))

	close(fake.block)
	waitRunDone(t, f, exp.ID)
}

func TestStartRejectsFinishedExperiment(t *testing.T) {
	f := newFixture(t)
	exp := f.createExperiment(t, []string{"stub"}, []string{models.StrategyStructured}, []string{"A"})
	require.NoError(t, f.expRepo.UpdateStatus(exp.ID, models.StatusComplete))

	err := f.orchestrator.Start(exp.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidState))
}

func TestCancelLeavesInterruptedWorkPending(t *testing.T) {
	f := newFixture(t)
	fake := newFakeAdapter("openai")
	fake.block = make(chan struct{})
	f.registry.Register(fake)

	exp := f.createExperiment(t, []string{"openai"}, []string{models.StrategyStructured}, []string{"A", "B"})

	require.NoError(t, f.orchestrator.Start(exp.ID))
	require.Eventually(t, func() bool {
		p, err := f.orchestrator.Progress(exp.ID)
		return err == nil && p.Running
	}, 5*time.Second, 5*time.Millisecond)

	assert.True(t, f.orchestrator.Cancel(exp.ID))
	progress := waitRunDone(t, f, exp.ID)

	// Nothing finished, nothing counted failed.
	assert.Zero(t, progress.Success)
	assert.Zero(t, progress.Failed)
	assert.Equal(t, 2, progress.Pending)

	reloaded, err := f.expRepo.GetByID(exp.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusGenerating, reloaded.Status)

	// A resume against a recovered backend completes the run.
	fake.mu.Lock()
	fake.block = nil
	fake.mu.Unlock()

	require.NoError(t, f.orchestrator.Start(exp.ID))
	progress = waitRunDone(t, f, exp.ID)
	assert.Equal(t, 2, progress.Success)
}

func TestCancelWithoutRun(t *testing.T) {
	f := newFixture(t)
	exp := f.createExperiment(t, []string{"stub"}, []string{models.StrategyStructured}, []string{"A"})
	assert.False(t, f.orchestrator.Cancel(exp.ID))
}

func TestSingleExecutesOneCombination(t *testing.T) {
	f := newFixture(t)
	fake := newFakeAdapter("openai")
	f.registry.Register(fake)

	exp := f.createExperiment(t, []string{"openai"}, []string{models.StrategyStructured}, []string{"A", "B"})

	gen, err := f.orchestrator.Single(exp.ID, &dto.SingleRunRequest{
		Provider: "openai",
		Strategy: models.StrategyStructured,
		TaskID:   "A",
	})
	require.NoError(t, err)
	assert.Equal(t, models.GenerationSuccess, gen.Status)
	assert.Equal(t, 1, fake.callCount())

	// The sibling combination is untouched.
	other, err := f.genRepo.FindByCombination(exp.ID, "openai", models.StrategyStructured, "B")
	require.NoError(t, err)
	assert.Nil(t, other)

	reloaded, err := f.expRepo.GetByID(exp.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusGenerating, reloaded.Status)
}

func TestSingleReturnsExistingSuccessWithoutCalling(t *testing.T) {
	f := newFixture(t)
	fake := newFakeAdapter("openai")
	f.registry.Register(fake)

	exp := f.createExperiment(t, []string{"openai"}, []string{models.StrategyStructured}, []string{"A"})
	f.seedSuccessGeneration(t, exp.ID, "openai", models.StrategyStructured, "A", "kept content")

	gen, err := f.orchestrator.Single(exp.ID, &dto.SingleRunRequest{
		Provider: "openai",
		Strategy: models.StrategyStructured,
		TaskID:   "A",
	})
	require.NoError(t, err)
	assert.Equal(t, "kept content", gen.GeneratedContent)
	assert.Zero(t, fake.callCount())
}

func TestSingleRejectsCombinationOutsideSelections(t *testing.T) {
	f := newFixture(t)
	fake := newFakeAdapter("openai")
	f.registry.Register(fake)

	exp := f.createExperiment(t, []string{"openai"}, []string{models.StrategyStructured}, []string{"A"})

	cases := []dto.SingleRunRequest{
		{Provider: "stub", Strategy: models.StrategyStructured, TaskID: "A"},
		{Provider: "openai", Strategy: models.StrategyExampleBased, TaskID: "A"},
		{Provider: "openai", Strategy: models.StrategyStructured, TaskID: "B"},
	}
	for _, req := range cases {
		_, err := f.orchestrator.Single(exp.ID, &req)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrConfiguration))
	}
	assert.Zero(t, fake.callCount())
}

func TestProgressUnknownExperiment(t *testing.T) {
	f := newFixture(t)
	_, err := f.orchestrator.Progress(9999)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
}
