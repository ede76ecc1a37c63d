package models

import (
	"time"

	"gorm.io/datatypes"
)

// Rubric owns the weighted criteria document used to score submissions.
// Criteria is a key -> {name, description, weight, levels} mapping; weight-sum
// and score-sum correctness is an editor concern, not enforced here.
type Rubric struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	TeacherID uint           `gorm:"not null" json:"teacher_id"`
	Title     string         `gorm:"size:255;not null" json:"title"`
	MaxScore  float64        `gorm:"not null;default:100" json:"max_score"`
	Criteria  datatypes.JSON `json:"criteria"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}
