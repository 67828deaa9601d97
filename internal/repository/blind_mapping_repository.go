package repository

import (
	"content-eval/internal/models"

	"gorm.io/gorm"
)

// BlindMappingRepository data access for blind mappings.
type BlindMappingRepository struct {
	db *gorm.DB
}

// NewBlindMappingRepository creates a blind mapping repository.
func NewBlindMappingRepository(db *gorm.DB) *BlindMappingRepository {
	return &BlindMappingRepository{db: db}
}

// CreateBatch inserts a set of mappings atomically.
func (r *BlindMappingRepository) CreateBatch(mappings []models.BlindMapping) error {
	if len(mappings) == 0 {
		return nil
	}
	return r.db.Create(&mappings).Error
}

// NextUnconsumed returns the unconsumed mapping with the lowest position,
// or nil when the queue is drained.
func (r *BlindMappingRepository) NextUnconsumed(experimentID uint) (*models.BlindMapping, error) {
	var m models.BlindMapping
	err := r.db.Where("experiment_id = ? AND consumed = ?", experimentID, false).
		Order("position ASC").
		First(&m).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// GetByBlindID fetches a mapping by its opaque identifier.
func (r *BlindMappingRepository) GetByBlindID(blindID string) (*models.BlindMapping, error) {
	var m models.BlindMapping
	err := r.db.Where("blind_id = ?", blindID).First(&m).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// MaxPosition returns the highest assigned position, or -1 when no
// mappings exist yet.
func (r *BlindMappingRepository) MaxPosition(experimentID uint) (int, error) {
	var max *int
	err := r.db.Model(&models.BlindMapping{}).
		Where("experiment_id = ?", experimentID).
		Select("MAX(position)").
		Scan(&max).Error
	if err != nil {
		return -1, err
	}
	if max == nil {
		return -1, nil
	}
	return *max, nil
}

// Defer moves a mapping to the back of the queue.
func (r *BlindMappingRepository) Defer(m *models.BlindMapping, newPosition int) error {
	return r.db.Model(m).Updates(map[string]interface{}{
		"position":  newPosition,
		"deferrals": m.Deferrals + 1,
	}).Error
}

// MarkConsumed flags a mapping as consumed.
func (r *BlindMappingRepository) MarkConsumed(m *models.BlindMapping) error {
	return r.db.Model(m).Update("consumed", true).Error
}

// ListMappedGenerationIDs returns ids of generations that already have a
// mapping in this experiment.
func (r *BlindMappingRepository) ListMappedGenerationIDs(experimentID uint) ([]uint, error) {
	var ids []uint
	err := r.db.Model(&models.BlindMapping{}).
		Where("experiment_id = ?", experimentID).
		Pluck("generation_id", &ids).Error
	return ids, err
}

// CountByExperiment returns (total, consumed) mapping counts.
func (r *BlindMappingRepository) CountByExperiment(experimentID uint) (int64, int64, error) {
	var total, consumed int64
	if err := r.db.Model(&models.BlindMapping{}).
		Where("experiment_id = ?", experimentID).
		Count(&total).Error; err != nil {
		return 0, 0, err
	}
	if err := r.db.Model(&models.BlindMapping{}).
		Where("experiment_id = ? AND consumed = ?", experimentID, true).
		Count(&consumed).Error; err != nil {
		return 0, 0, err
	}
	return total, consumed, nil
}
