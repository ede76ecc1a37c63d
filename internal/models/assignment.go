package models

import "time"

// Assignment represents an instructional task published by a teacher.
// DueDate is optional; a nil value means the assignment never becomes overdue.
type Assignment struct {
	ID                uint       `gorm:"primaryKey" json:"id"`
	TeacherID         uint       `gorm:"not null" json:"teacher_id"`
	ActivityID        *uint      `json:"activity_id"`
	RubricID          *uint      `json:"rubric_id"`
	Title             string     `gorm:"size:255;not null" json:"title"`
	Description       string     `gorm:"type:text" json:"description"`
	DueDate           *time.Time `json:"due_date"`
	AllowResubmission bool       `gorm:"not null;default:false" json:"allow_resubmission"`
	MaxResubmissions  int        `gorm:"not null;default:0" json:"max_resubmissions"`
	Published         bool       `gorm:"not null;default:false" json:"published"`
	IsChallenge       bool       `gorm:"not null;default:false" json:"is_challenge"`
	ChallengePoints   int        `gorm:"not null;default:0" json:"challenge_points"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
	Teacher           Teacher    `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"teacher"`
	Submissions       []Submission
}

// IsPastDue returns true when a due date is set and has already passed.
func (a Assignment) IsPastDue(reference time.Time) bool {
	if a.DueDate == nil {
		return false
	}
	return reference.After(*a.DueDate)
}
