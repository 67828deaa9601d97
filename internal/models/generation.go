package models

import (
	"time"
)

// Generation statuses. success and failed are terminal.
const (
	GenerationPending = "pending"
	GenerationSuccess = "success"
	GenerationFailed  = "failed"
)

// Generation is the persisted result of one (provider, strategy, task)
// combination. Once terminal it is never regenerated in place; resuming a
// run retries only pending and failed rows.
type Generation struct {
	ID               uint      `gorm:"primarykey" json:"id"`
	ExperimentID     uint      `gorm:"not null;index;uniqueIndex:idx_combination" json:"experiment_id"`
	TaskID           string    `gorm:"size:8;not null;uniqueIndex:idx_combination" json:"task_id"`
	Provider         string    `gorm:"size:30;not null;uniqueIndex:idx_combination" json:"provider"`
	Strategy         string    `gorm:"size:30;not null;uniqueIndex:idx_combination" json:"strategy"`
	ModelName        string    `gorm:"size:100" json:"model_name"`
	PromptUsed       string    `gorm:"type:text" json:"prompt_used"`
	GeneratedContent string    `gorm:"type:text" json:"generated_content"`
	Temperature      float64   `json:"temperature"`
	MaxTokens        int       `json:"max_tokens"`
	PromptTokens     int       `json:"prompt_tokens"`
	CompletionTokens int       `json:"completion_tokens"`
	LatencyMS        float64   `json:"latency_ms"`
	CostUSD          float64   `json:"cost_usd"`
	Status           string    `gorm:"size:20;default:'pending';index" json:"status"`
	Attempts         int       `gorm:"default:0" json:"attempts"`
	LastError        string    `gorm:"type:text" json:"last_error"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`

	Experiment Experiment `gorm:"foreignKey:ExperimentID" json:"-"`
	Task       Task       `gorm:"foreignKey:TaskID" json:"-"`
}

// TableName sets the table name.
func (Generation) TableName() string {
	return "generations"
}
