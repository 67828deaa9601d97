package dto

// CreateExperimentRequest sets up a new experiment. Selections are
// validated against the provider registry, the known strategies and the
// task catalog before anything is persisted.
type CreateExperimentRequest struct {
	Name               string   `json:"name" binding:"required"`
	Description        string   `json:"description"`
	BaselineSamples    []string `json:"baseline_samples"`
	SelectedProviders  []string `json:"selected_providers"`
	SelectedStrategies []string `json:"selected_strategies"`
	SelectedTasks      []string `json:"selected_tasks"`
}
