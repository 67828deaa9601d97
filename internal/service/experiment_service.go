package service

import (
	"fmt"

	"content-eval/internal/dto"
	"content-eval/internal/models"
	"content-eval/internal/repository"
	"content-eval/pkg/provider"
)

// ExperimentService manages experiment lifecycle on the setup side.
type ExperimentService struct {
	expRepo  *repository.ExperimentRepository
	taskRepo *repository.TaskRepository
	registry *provider.Registry
}

func NewExperimentService(
	expRepo *repository.ExperimentRepository,
	taskRepo *repository.TaskRepository,
	registry *provider.Registry,
) *ExperimentService {
	return &ExperimentService{expRepo: expRepo, taskRepo: taskRepo, registry: registry}
}

// Create validates the selections and persists a new experiment in the
// setup state. Unknown providers, strategies, or tasks are rejected up
// front so a run can never start from a bad configuration.
func (s *ExperimentService) Create(req *dto.CreateExperimentRequest) (*models.Experiment, error) {
	if len(req.SelectedProviders) == 0 {
		return nil, fmt.Errorf("%w: no providers selected", ErrConfiguration)
	}
	if len(req.SelectedStrategies) == 0 {
		return nil, fmt.Errorf("%w: no strategies selected", ErrConfiguration)
	}
	if len(req.SelectedTasks) == 0 {
		return nil, fmt.Errorf("%w: no tasks selected", ErrConfiguration)
	}

	for _, p := range dedup(req.SelectedProviders) {
		if !s.registry.Has(p) {
			return nil, fmt.Errorf("%w: unknown provider %q", ErrConfiguration, p)
		}
	}
	for _, st := range dedup(req.SelectedStrategies) {
		if !models.KnownStrategy(st) {
			return nil, fmt.Errorf("%w: unknown strategy %q", ErrConfiguration, st)
		}
	}
	for _, id := range dedup(req.SelectedTasks) {
		ok, err := s.taskRepo.ExistsByID(id)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
		}
		if !ok {
			return nil, fmt.Errorf("%w: unknown task %q", ErrConfiguration, id)
		}
	}

	exp := &models.Experiment{
		Name:               req.Name,
		Description:        req.Description,
		BaselineSamples:    models.StringList(req.BaselineSamples),
		SelectedProviders:  models.StringList(dedup(req.SelectedProviders)),
		SelectedStrategies: models.StringList(dedup(req.SelectedStrategies)),
		SelectedTasks:      models.StringList(dedup(req.SelectedTasks)),
		Status:             models.StatusSetup,
	}
	if err := s.expRepo.Create(exp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return exp, nil
}

// Get loads one experiment.
func (s *ExperimentService) Get(id uint) (*models.Experiment, error) {
	exp, err := s.expRepo.GetByID(id)
	if err != nil {
		return nil, fmt.Errorf("%w: experiment %d", ErrNotFound, id)
	}
	return exp, nil
}

// List returns all experiments, newest first.
func (s *ExperimentService) List() ([]models.Experiment, error) {
	exps, err := s.expRepo.List()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return exps, nil
}

// Tasks returns the task catalog.
func (s *ExperimentService) Tasks() ([]models.Task, error) {
	tasks, err := s.taskRepo.List()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return tasks, nil
}
