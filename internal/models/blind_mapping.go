package models

import (
	"time"
)

// BlindMapping associates a success Generation with an opaque identifier
// and a shuffled presentation position. The evaluator only ever sees the
// blind id, the content and the task brief, never the provenance.
type BlindMapping struct {
	ID           uint      `gorm:"primarykey" json:"id"`
	ExperimentID uint      `gorm:"not null;index" json:"experiment_id"`
	GenerationID uint      `gorm:"not null;uniqueIndex" json:"generation_id"`
	BlindID      string    `gorm:"size:32;not null;uniqueIndex" json:"blind_id"`
	Position     int       `gorm:"not null" json:"position"`
	Consumed     bool      `gorm:"default:false" json:"consumed"`
	Deferrals    int       `gorm:"default:0" json:"deferrals"`
	CreatedAt    time.Time `json:"created_at"`
}

// TableName sets the table name.
func (BlindMapping) TableName() string {
	return "blind_mappings"
}
