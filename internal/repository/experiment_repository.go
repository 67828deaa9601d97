package repository

import (
	"content-eval/internal/models"

	"gorm.io/gorm"
)

// ExperimentRepository data access for experiments.
type ExperimentRepository struct {
	db *gorm.DB
}

// NewExperimentRepository creates an experiment repository.
func NewExperimentRepository(db *gorm.DB) *ExperimentRepository {
	return &ExperimentRepository{db: db}
}

// Create inserts an experiment.
func (r *ExperimentRepository) Create(exp *models.Experiment) error {
	return r.db.Create(exp).Error
}

// GetByID fetches an experiment by id.
func (r *ExperimentRepository) GetByID(id uint) (*models.Experiment, error) {
	var exp models.Experiment
	err := r.db.First(&exp, id).Error
	if err != nil {
		return nil, err
	}
	return &exp, nil
}

// List returns all experiments, newest first.
func (r *ExperimentRepository) List() ([]models.Experiment, error) {
	var exps []models.Experiment
	err := r.db.Order("created_at DESC").Find(&exps).Error
	return exps, err
}

// UpdateStatus sets the lifecycle status.
func (r *ExperimentRepository) UpdateStatus(id uint, status models.ExperimentStatus) error {
	return r.db.Model(&models.Experiment{}).Where("id = ?", id).Update("status", status).Error
}
