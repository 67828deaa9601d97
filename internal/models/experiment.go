package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

// ExperimentStatus lifecycle phase of an experiment. Transitions are
// monotonic: setup -> generating -> evaluating -> complete.
type ExperimentStatus string

const (
	StatusSetup      ExperimentStatus = "setup"
	StatusGenerating ExperimentStatus = "generating"
	StatusEvaluating ExperimentStatus = "evaluating"
	StatusComplete   ExperimentStatus = "complete"
)

// Rank orders statuses so regressions can be rejected.
func (s ExperimentStatus) Rank() int {
	switch s {
	case StatusSetup:
		return 0
	case StatusGenerating:
		return 1
	case StatusEvaluating:
		return 2
	case StatusComplete:
		return 3
	}
	return -1
}

// Experiment is one comparative content experiment.
type Experiment struct {
	ID                 uint             `gorm:"primarykey" json:"id"`
	Name               string           `gorm:"size:255;not null" json:"name"`
	Description        string           `gorm:"type:text" json:"description"`
	BaselineSamples    StringList       `gorm:"type:text" json:"baseline_samples"`
	SelectedProviders  StringList       `gorm:"type:text" json:"selected_providers"`
	SelectedStrategies StringList       `gorm:"type:text" json:"selected_strategies"`
	SelectedTasks      StringList       `gorm:"type:text" json:"selected_tasks"`
	Status             ExperimentStatus `gorm:"size:20;default:'setup'" json:"status"`
	CreatedAt          time.Time        `json:"created_at"`
}

// TableName sets the table name.
func (Experiment) TableName() string {
	return "experiments"
}

// CombinationCount is the size of the full cross product.
func (e *Experiment) CombinationCount() int {
	return len(e.SelectedProviders) * len(e.SelectedStrategies) * len(e.SelectedTasks)
}

// StringList stores a JSON string array in a text column.
type StringList []string

// Scan implements sql.Scanner.
func (l *StringList) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}

	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	}
	return nil
}

// Value implements driver.Valuer.
func (l StringList) Value() (driver.Value, error) {
	if len(l) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}
