package repository

import (
	"content-eval/internal/models"

	"gorm.io/gorm"
)

// TaskRepository data access for catalog tasks.
type TaskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a task repository.
func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// Create inserts a task.
func (r *TaskRepository) Create(task *models.Task) error {
	return r.db.Create(task).Error
}

// GetByID fetches a task by catalog id.
func (r *TaskRepository) GetByID(id string) (*models.Task, error) {
	var task models.Task
	err := r.db.First(&task, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// List returns the catalog ordered by id.
func (r *TaskRepository) List() ([]models.Task, error) {
	var tasks []models.Task
	err := r.db.Order("id ASC").Find(&tasks).Error
	return tasks, err
}

// ExistsByID reports whether a catalog id is present.
func (r *TaskRepository) ExistsByID(id string) (bool, error) {
	var count int64
	err := r.db.Model(&models.Task{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}
