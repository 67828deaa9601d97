package service

import (
	"fmt"
	"strings"

	"content-eval/internal/models"
	"content-eval/internal/repository"
	"content-eval/pkg/provider"
)

// GenerationRequest is one combination ready to execute: the tuple, the
// resolved task and the experiment's style samples. Transient; never
// persisted.
type GenerationRequest struct {
	Provider string
	Model    string
	Strategy string
	Task     *models.Task
	Samples  []string
}

// Enumerator expands an experiment's selections into the full cross
// product of combinations.
type Enumerator struct {
	taskRepo *repository.TaskRepository
	registry *provider.Registry
}

// NewEnumerator creates an enumerator.
func NewEnumerator(taskRepo *repository.TaskRepository, registry *provider.Registry) *Enumerator {
	return &Enumerator{taskRepo: taskRepo, registry: registry}
}

// Enumerate returns one request per (provider, strategy, task) tuple.
// The sequence content is deterministic for a given experiment; callers
// may execute it in any order. Empty or unknown selections are rejected
// with ErrConfiguration.
func (e *Enumerator) Enumerate(exp *models.Experiment) ([]GenerationRequest, error) {
	providers := dedup(exp.SelectedProviders)
	strategies := dedup(exp.SelectedStrategies)
	taskIDs := dedup(exp.SelectedTasks)

	if len(providers) == 0 {
		return nil, fmt.Errorf("%w: no providers selected", ErrConfiguration)
	}
	if len(strategies) == 0 {
		return nil, fmt.Errorf("%w: no strategies selected", ErrConfiguration)
	}
	if len(taskIDs) == 0 {
		return nil, fmt.Errorf("%w: no tasks selected", ErrConfiguration)
	}

	for _, name := range providers {
		if !e.registry.Has(name) {
			return nil, fmt.Errorf("%w: unknown provider %q", ErrConfiguration, name)
		}
	}
	for _, s := range strategies {
		if !models.KnownStrategy(s) {
			return nil, fmt.Errorf("%w: unknown strategy %q", ErrConfiguration, s)
		}
	}

	tasks := make([]*models.Task, 0, len(taskIDs))
	for _, id := range taskIDs {
		task, err := e.taskRepo.GetByID(id)
		if err != nil {
			return nil, fmt.Errorf("%w: unknown task %q", ErrConfiguration, id)
		}
		tasks = append(tasks, task)
	}

	requests := make([]GenerationRequest, 0, len(providers)*len(strategies)*len(tasks))
	for _, name := range providers {
		adapter, err := e.registry.Lookup(name)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
		}
		for _, strategy := range strategies {
			for _, task := range tasks {
				requests = append(requests, GenerationRequest{
					Provider: name,
					Model:    adapter.Model(),
					Strategy: strategy,
					Task:     task,
					Samples:  exp.BaselineSamples,
				})
			}
		}
	}

	return requests, nil
}

// BuildPrompt materializes the prompt for a request. The example-based
// strategy substitutes the experiment's baseline samples into the task
// template; with a single sample it stands in for both slots.
func BuildPrompt(task *models.Task, strategy string, samples []string) string {
	if strategy == models.StrategyStructured {
		return task.StructuredPrompt
	}

	var sample1, sample2 string
	if len(samples) > 0 {
		sample1 = samples[0]
		sample2 = sample1
	}
	if len(samples) > 1 {
		sample2 = samples[1]
	}

	prompt := strings.ReplaceAll(task.ExamplePromptTemplate, "{sample1}", sample1)
	return strings.ReplaceAll(prompt, "{sample2}", sample2)
}

// dedup removes duplicates preserving first-seen order.
func dedup(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
