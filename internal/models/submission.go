package models

import (
	"time"

	"gorm.io/datatypes"
)

// Submission is one versioned attempt by a student at an assignment. Versions
// start at 1; (assignment, student, version) is unique. SubmittedAt stays nil
// while the attempt is a draft, RevisedAt is set only when an existing
// non-draft row is overwritten.
type Submission struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	AssignmentID uint           `gorm:"not null;uniqueIndex:idx_submission_attempt,priority:1" json:"assignment_id"`
	StudentID    uint           `gorm:"not null;uniqueIndex:idx_submission_attempt,priority:2" json:"student_id"`
	Version      int            `gorm:"not null;default:1;uniqueIndex:idx_submission_attempt,priority:3" json:"version"`
	IsDraft      bool           `gorm:"not null;default:false" json:"is_draft"`
	TextResponse string         `gorm:"type:text" json:"text_response"`
	AudioURL     string         `gorm:"size:512" json:"audio_url"`
	VideoURL     string         `gorm:"size:512" json:"video_url"`
	DocumentURLs datatypes.JSON `json:"document_urls"`
	Checklist    datatypes.JSON `json:"checklist"`
	SubmittedAt  *time.Time     `json:"submitted_at"`
	RevisedAt    *time.Time     `json:"revised_at"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	Assignment   Assignment     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"assignment"`
	Student      Student        `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"student"`
}

// IsSubmitted reports whether the attempt left the draft stage.
func (s Submission) IsSubmitted() bool {
	return !s.IsDraft && s.SubmittedAt != nil
}
