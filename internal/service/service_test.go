package service

import (
	"context"
	"fmt"
	"io"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"content-eval/internal/config"
	"content-eval/internal/dto"
	"content-eval/internal/models"
	"content-eval/internal/repository"
	"content-eval/pkg/provider"
)

// fakeAdapter is a scriptable provider backend for tests.
type fakeAdapter struct {
	name  string
	model string

	mu    sync.Mutex
	calls int
	fn    func(prompt string) (*provider.Result, error)

	// When set, Generate blocks until the channel closes or the context
	// is cancelled.
	block chan struct{}
}

func newFakeAdapter(name string) *fakeAdapter {
	return &fakeAdapter{
		name:  name,
		model: name + "-model",
		fn: func(prompt string) (*provider.Result, error) {
			return &provider.Result{
				Content:          "generated for: " + prompt[:min(len(prompt), 40)],
				PromptTokens:     100,
				CompletionTokens: 50,
				LatencyMS:        1.0,
				CostUSD:          0.001,
			}, nil
		},
	}
}

func (a *fakeAdapter) Name() string  { return a.name }
func (a *fakeAdapter) Model() string { return a.model }

func (a *fakeAdapter) Generate(ctx context.Context, prompt string, params provider.Params) (*provider.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, &provider.ProviderError{Provider: a.name, Message: err.Error(), Transient: true}
	}
	a.mu.Lock()
	a.calls++
	fn := a.fn
	block := a.block
	a.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, &provider.ProviderError{Provider: a.name, Message: ctx.Err().Error(), Transient: true}
		}
	}
	return fn(prompt)
}

func (a *fakeAdapter) callCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls
}

func (a *fakeAdapter) setFn(fn func(prompt string) (*provider.Result, error)) {
	a.mu.Lock()
	a.fn = fn
	a.mu.Unlock()
}

// fixture wires the full service stack over an isolated in-memory
// database.
type fixture struct {
	db       *gorm.DB
	cfg      *config.Config
	registry *provider.Registry

	expRepo   *repository.ExperimentRepository
	taskRepo  *repository.TaskRepository
	genRepo   *repository.GenerationRepository
	blindRepo *repository.BlindMappingRepository
	evalRepo  *repository.EvaluationRepository

	experiments  *ExperimentService
	orchestrator *Orchestrator
	blind        *BlindService
	evaluations  *EvaluationService
	analysis     *AnalysisService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: gormlogger.Discard})
	require.NoError(t, err)
	require.NoError(t, models.AutoMigrate(db))

	cfg := &config.Config{
		Providers: map[string]config.ProviderConfig{
			"stub":   {Model: "stub-1", MaxConcurrent: 4},
			"openai": {Model: "gpt-4o", MaxConcurrent: 2},
		},
		Generation: config.GenerationConfig{
			Temperature:   0.7,
			MaxTokens:     500,
			MaxRetries:    3,
			BackoffBaseMS: 1,
			BackoffMaxMS:  5,
		},
	}

	registry := &provider.Registry{}
	registry.Register(provider.NewStubAdapter(provider.Config{Model: "stub-1"}))

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	f := &fixture{
		db:        db,
		cfg:       cfg,
		registry:  registry,
		expRepo:   repository.NewExperimentRepository(db),
		taskRepo:  repository.NewTaskRepository(db),
		genRepo:   repository.NewGenerationRepository(db),
		blindRepo: repository.NewBlindMappingRepository(db),
		evalRepo:  repository.NewEvaluationRepository(db),
	}

	_, err = SeedTasks(f.taskRepo)
	require.NoError(t, err)

	enumerator := NewEnumerator(f.taskRepo, registry)
	f.experiments = NewExperimentService(f.expRepo, f.taskRepo, registry)
	f.orchestrator = NewOrchestrator(f.expRepo, f.genRepo, enumerator, registry, nil, cfg, logger)
	f.blind = NewBlindService(f.expRepo, f.genRepo, f.taskRepo, f.blindRepo, logger)
	f.evaluations = NewEvaluationService(f.expRepo, f.genRepo, f.blindRepo, f.evalRepo, logger)
	f.analysis = NewAnalysisService(f.expRepo, f.genRepo, f.evalRepo)

	return f
}

// createExperiment persists an experiment with the given selections.
func (f *fixture) createExperiment(t *testing.T, providers, strategies, tasks []string) *models.Experiment {
	t.Helper()
	exp, err := f.experiments.Create(&dto.CreateExperimentRequest{
		Name:               "voice test",
		BaselineSamples:    []string{"We write plainly.", "We skip the jargon."},
		SelectedProviders:  providers,
		SelectedStrategies: strategies,
		SelectedTasks:      tasks,
	})
	require.NoError(t, err)
	return exp
}

// seedSuccessGeneration inserts a completed generation row directly.
func (f *fixture) seedSuccessGeneration(t *testing.T, expID uint, providerName, strategy, taskID, content string) *models.Generation {
	t.Helper()
	gen := &models.Generation{
		ExperimentID:     expID,
		TaskID:           taskID,
		Provider:         providerName,
		Strategy:         strategy,
		ModelName:        providerName + "-model",
		PromptUsed:       "prompt for " + taskID,
		GeneratedContent: content,
		Status:           models.GenerationSuccess,
		Attempts:         1,
		PromptTokens:     100,
		CompletionTokens: 50,
		LatencyMS:        10,
		CostUSD:          0.001,
	}
	require.NoError(t, f.genRepo.Create(gen))
	return gen
}

// evaluatingExperiment creates an experiment already in the evaluating
// state with one success row per combination.
func (f *fixture) evaluatingExperiment(t *testing.T, providers, strategies, tasks []string) *models.Experiment {
	t.Helper()
	exp := f.createExperiment(t, providers, strategies, tasks)
	for _, p := range providers {
		for _, s := range strategies {
			for _, taskID := range tasks {
				f.seedSuccessGeneration(t, exp.ID, p, s, taskID,
					fmt.Sprintf("content %s/%s/%s", p, s, taskID))
			}
		}
	}
	require.NoError(t, f.expRepo.UpdateStatus(exp.ID, models.StatusEvaluating))
	exp.Status = models.StatusEvaluating
	return exp
}

// submitScores evaluates a blind item with uniform scores.
func (f *fixture) submitScores(t *testing.T, expID uint, blindID string, score, editMinutes int) {
	t.Helper()
	_, err := f.evaluations.Submit(expID, &dto.SubmitEvaluationRequest{
		BlindID:         blindID,
		VoiceMatch:      score,
		Coherence:       score,
		Engaging:        score,
		MeetsBrief:      score,
		OverallQuality:  score,
		EditTimeMinutes: editMinutes,
		WouldPublish:    "yes",
	})
	require.NoError(t, err)
}
