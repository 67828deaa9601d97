package repository

import (
	"content-eval/internal/models"

	"gorm.io/gorm"
)

// GenerationRepository data access for generations.
type GenerationRepository struct {
	db *gorm.DB
}

// NewGenerationRepository creates a generation repository.
func NewGenerationRepository(db *gorm.DB) *GenerationRepository {
	return &GenerationRepository{db: db}
}

// Create inserts a generation.
func (r *GenerationRepository) Create(gen *models.Generation) error {
	return r.db.Create(gen).Error
}

// Update saves a generation.
func (r *GenerationRepository) Update(gen *models.Generation) error {
	return r.db.Save(gen).Error
}

// GetByID fetches a generation by id.
func (r *GenerationRepository) GetByID(id uint) (*models.Generation, error) {
	var gen models.Generation
	err := r.db.First(&gen, id).Error
	if err != nil {
		return nil, err
	}
	return &gen, nil
}

// ListByExperiment returns all generations of an experiment in insert order.
func (r *GenerationRepository) ListByExperiment(experimentID uint) ([]models.Generation, error) {
	var gens []models.Generation
	err := r.db.Where("experiment_id = ?", experimentID).Order("id ASC").Find(&gens).Error
	return gens, err
}

// ListByExperimentAndStatus returns an experiment's generations in one status.
func (r *GenerationRepository) ListByExperimentAndStatus(experimentID uint, status string) ([]models.Generation, error) {
	var gens []models.Generation
	err := r.db.Where("experiment_id = ? AND status = ?", experimentID, status).Order("id ASC").Find(&gens).Error
	return gens, err
}

// FindByCombination fetches the generation for one (provider, strategy,
// task) tuple, or nil when none exists yet.
func (r *GenerationRepository) FindByCombination(experimentID uint, provider, strategy, taskID string) (*models.Generation, error) {
	var gen models.Generation
	err := r.db.Where(
		"experiment_id = ? AND provider = ? AND strategy = ? AND task_id = ?",
		experimentID, provider, strategy, taskID,
	).First(&gen).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &gen, nil
}

// CountByStatus returns generation counts keyed by status.
func (r *GenerationRepository) CountByStatus(experimentID uint) (map[string]int64, error) {
	type row struct {
		Status string
		N      int64
	}
	var rows []row
	err := r.db.Model(&models.Generation{}).
		Select("status, count(*) as n").
		Where("experiment_id = ?", experimentID).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := map[string]int64{}
	for _, rw := range rows {
		counts[rw.Status] = rw.N
	}
	return counts, nil
}

// SumCost returns the total cost of all generations of an experiment.
func (r *GenerationRepository) SumCost(experimentID uint) (float64, error) {
	var total float64
	err := r.db.Model(&models.Generation{}).
		Where("experiment_id = ?", experimentID).
		Select("COALESCE(SUM(cost_usd), 0)").
		Scan(&total).Error
	return total, err
}
