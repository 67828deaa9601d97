package repository

import (
	"content-eval/internal/models"

	"gorm.io/gorm"
)

// EvaluationRepository data access for evaluations.
type EvaluationRepository struct {
	db *gorm.DB
}

// NewEvaluationRepository creates an evaluation repository.
func NewEvaluationRepository(db *gorm.DB) *EvaluationRepository {
	return &EvaluationRepository{db: db}
}

// Create inserts an evaluation.
func (r *EvaluationRepository) Create(ev *models.Evaluation) error {
	return r.db.Create(ev).Error
}

// GetByGenerationID fetches the evaluation of a generation, or nil.
func (r *EvaluationRepository) GetByGenerationID(generationID uint) (*models.Evaluation, error) {
	var ev models.Evaluation
	err := r.db.Where("generation_id = ?", generationID).First(&ev).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ev, nil
}

// ExistsByGenerationID reports whether a generation was already evaluated.
func (r *EvaluationRepository) ExistsByGenerationID(generationID uint) (bool, error) {
	var count int64
	err := r.db.Model(&models.Evaluation{}).
		Where("generation_id = ?", generationID).
		Count(&count).Error
	return count > 0, err
}

// ListByExperiment returns all evaluations of an experiment.
func (r *EvaluationRepository) ListByExperiment(experimentID uint) ([]models.Evaluation, error) {
	var evs []models.Evaluation
	err := r.db.Where("experiment_id = ?", experimentID).Order("id ASC").Find(&evs).Error
	return evs, err
}

// CountByExperiment returns how many evaluations exist for an experiment.
func (r *EvaluationRepository) CountByExperiment(experimentID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Evaluation{}).
		Where("experiment_id = ?", experimentID).
		Count(&count).Error
	return count, err
}
