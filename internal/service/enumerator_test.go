package service

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"content-eval/internal/models"
)

func TestEnumerateFullCrossProduct(t *testing.T) {
	f := newFixture(t)
	f.registry.Register(newFakeAdapter("openai"))

	exp := f.createExperiment(t,
		[]string{"stub", "openai"},
		[]string{models.StrategyStructured, models.StrategyExampleBased},
		[]string{"A", "B", "C"},
	)

	requests, err := NewEnumerator(f.taskRepo, f.registry).Enumerate(exp)
	require.NoError(t, err)
	assert.Len(t, requests, 12)

	// Every tuple appears exactly once.
	seen := make(map[string]bool)
	for _, req := range requests {
		key := req.Provider + "/" + req.Strategy + "/" + req.Task.ID
		assert.False(t, seen[key], "duplicate tuple %s", key)
		seen[key] = true
		assert.NotEmpty(t, req.Model)
		assert.Len(t, req.Samples, 2)
	}
}

func TestEnumerateDeduplicatesSelections(t *testing.T) {
	f := newFixture(t)

	exp := &models.Experiment{
		SelectedProviders:  models.StringList{"stub", "stub"},
		SelectedStrategies: models.StringList{models.StrategyStructured, models.StrategyStructured},
		SelectedTasks:      models.StringList{"A", "A", "B"},
	}

	requests, err := NewEnumerator(f.taskRepo, f.registry).Enumerate(exp)
	require.NoError(t, err)
	assert.Len(t, requests, 2)
}

func TestEnumerateRejectsBadSelections(t *testing.T) {
	f := newFixture(t)
	enum := NewEnumerator(f.taskRepo, f.registry)

	cases := []struct {
		name string
		exp  *models.Experiment
	}{
		{"no providers", &models.Experiment{
			SelectedStrategies: models.StringList{models.StrategyStructured},
			SelectedTasks:      models.StringList{"A"},
		}},
		{"no strategies", &models.Experiment{
			SelectedProviders: models.StringList{"stub"},
			SelectedTasks:     models.StringList{"A"},
		}},
		{"no tasks", &models.Experiment{
			SelectedProviders:  models.StringList{"stub"},
			SelectedStrategies: models.StringList{models.StrategyStructured},
		}},
		{"unknown provider", &models.Experiment{
			SelectedProviders:  models.StringList{"mystery"},
			SelectedStrategies: models.StringList{models.StrategyStructured},
			SelectedTasks:      models.StringList{"A"},
		}},
		{"unknown strategy", &models.Experiment{
			SelectedProviders:  models.StringList{"stub"},
			SelectedStrategies: models.StringList{"freestyle"},
			SelectedTasks:      models.StringList{"A"},
		}},
		{"unknown task", &models.Experiment{
			SelectedProviders:  models.StringList{"stub"},
			SelectedStrategies: models.StringList{models.StrategyStructured},
			SelectedTasks:      models.StringList{"Z"},
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := enum.Enumerate(tc.exp)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrConfiguration))
		})
	}
}

func TestBuildPromptStructured(t *testing.T) {
	task := &models.Task{
		StructuredPrompt:      "structured brief",
		ExamplePromptTemplate: "voice: {sample1} and {sample2}",
	}

	prompt := BuildPrompt(task, models.StrategyStructured, []string{"one", "two"})
	assert.Equal(t, "structured brief", prompt)
}

func TestBuildPromptExampleBased(t *testing.T) {
	task := &models.Task{
		ExamplePromptTemplate: "voice: {sample1} and {sample2}",
	}

	prompt := BuildPrompt(task, models.StrategyExampleBased, []string{"one", "two"})
	assert.Equal(t, "voice: one and two", prompt)
}

func TestBuildPromptSingleSampleFillsBothSlots(t *testing.T) {
	task := &models.Task{
		ExamplePromptTemplate: "voice: {sample1} and {sample2}",
	}

	prompt := BuildPrompt(task, models.StrategyExampleBased, []string{"only"})
	assert.Equal(t, "voice: only and only", prompt)
}

func TestSeedTasksIsIdempotent(t *testing.T) {
	f := newFixture(t)

	// The fixture seeds once already.
	inserted, err := SeedTasks(f.taskRepo)
	require.NoError(t, err)
	assert.Zero(t, inserted)

	tasks, err := f.taskRepo.List()
	require.NoError(t, err)
	assert.Len(t, tasks, 6)
}
