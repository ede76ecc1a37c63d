package models

import (
	"time"

	"gorm.io/datatypes"
)

// Evaluation is a grader's judgment of exactly one submission. Evaluations are
// not versioned; a new submission version requires a new evaluation.
type Evaluation struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	SubmissionID     uint           `gorm:"not null;uniqueIndex" json:"submission_id"`
	TeacherID        uint           `gorm:"not null" json:"teacher_id"`
	Scores           datatypes.JSON `json:"scores"`
	CriteriaFeedback datatypes.JSON `json:"criteria_feedback"`
	GeneralFeedback  string         `gorm:"type:text" json:"general_feedback"`
	CreatedAt        time.Time      `json:"created_at"`
	Submission       Submission     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"submission"`
}
