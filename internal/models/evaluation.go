package models

import (
	"time"
)

// Publish intent values.
const (
	PublishYes       = "yes"
	PublishNo        = "no"
	PublishWithEdits = "with_edits"
)

// Evaluation is one blind human judgment. Append-only; at most one row
// exists per Generation.
type Evaluation struct {
	ID           uint   `gorm:"primarykey" json:"id"`
	GenerationID uint   `gorm:"not null;uniqueIndex" json:"generation_id"`
	ExperimentID uint   `gorm:"not null;index" json:"experiment_id"`
	BlindID      string `gorm:"size:32;not null" json:"blind_id"`

	// Scores on a 1-5 scale.
	VoiceMatch     int `json:"voice_match"`
	Coherence      int `json:"coherence"`
	Engaging       int `json:"engaging"`
	MeetsBrief     int `json:"meets_brief"`
	OverallQuality int `json:"overall_quality"`

	EditTimeMinutes int       `json:"edit_time_minutes"`
	WouldPublish    string    `gorm:"size:16" json:"would_publish"`
	Notes           string    `gorm:"type:text" json:"notes"`
	EvaluatedAt     time.Time `json:"evaluated_at"`
}

// TableName sets the table name.
func (Evaluation) TableName() string {
	return "evaluations"
}
