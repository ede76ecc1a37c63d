package dto

import (
	"time"

	"github.com/kelaskita/kelaskita-api/internal/criteria"
	"github.com/kelaskita/kelaskita-api/internal/models"
)

// SubmitAssignmentRequest is the write payload for saving or submitting an
// attempt. StudentID is filled from the caller identity, never from the body.
// SubmissionID, when set, selects the existing row to overwrite in place.
type SubmitAssignmentRequest struct {
	AssignmentID uint                     `json:"assignment_id" validate:"required,gt=0"`
	StudentID    uint                     `json:"-" validate:"required,gt=0"`
	TextResponse string                   `json:"text_response"`
	AudioURL     string                   `json:"audio_url" validate:"omitempty,max=512"`
	VideoURL     string                   `json:"video_url" validate:"omitempty,max=512"`
	DocumentURLs []string                 `json:"document_urls"`
	Checklist    []criteria.ChecklistItem `json:"checklist"`
	IsDraft      bool                     `json:"is_draft"`
	Version      int                      `json:"version" validate:"required,gte=1"`
	SubmissionID *uint                    `json:"submission_id" validate:"omitempty,gt=0"`
}

// SubmissionResponse is returned to API clients when viewing submissions.
// The JSON columns are decoded into their typed forms before leaving the API.
type SubmissionResponse struct {
	ID           uint                     `json:"id"`
	AssignmentID uint                     `json:"assignment_id"`
	StudentID    uint                     `json:"student_id"`
	Version      int                      `json:"version"`
	IsDraft      bool                     `json:"is_draft"`
	TextResponse string                   `json:"text_response"`
	AudioURL     string                   `json:"audio_url"`
	VideoURL     string                   `json:"video_url"`
	DocumentURLs []string                 `json:"document_urls"`
	Checklist    []criteria.ChecklistItem `json:"checklist"`
	SubmittedAt  *time.Time               `json:"submitted_at"`
	RevisedAt    *time.Time               `json:"revised_at"`
	CreatedAt    time.Time                `json:"created_at"`
	UpdatedAt    time.Time                `json:"updated_at"`
	Student      *StudentLite             `json:"student,omitempty"`
}

// StudentLite summarizes a student without exposing full profile data.
type StudentLite struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// NewSubmissionResponse converts a Submission model into a DTO.
func NewSubmissionResponse(model models.Submission) SubmissionResponse {
	response := SubmissionResponse{
		ID:           model.ID,
		AssignmentID: model.AssignmentID,
		StudentID:    model.StudentID,
		Version:      model.Version,
		IsDraft:      model.IsDraft,
		TextResponse: model.TextResponse,
		AudioURL:     model.AudioURL,
		VideoURL:     model.VideoURL,
		DocumentURLs: criteria.DecodeStringList(model.DocumentURLs, []string{}),
		Checklist:    criteria.DecodeChecklist(model.Checklist, []criteria.ChecklistItem{}),
		SubmittedAt:  model.SubmittedAt,
		RevisedAt:    model.RevisedAt,
		CreatedAt:    model.CreatedAt,
		UpdatedAt:    model.UpdatedAt,
	}

	if model.Student.ID != 0 {
		response.Student = &StudentLite{
			ID:    model.Student.ID,
			Name:  model.Student.Name,
			Email: model.Student.Email,
		}
	}

	return response
}

// NewSubmissionResponseSlice converts submission models into DTOs.
func NewSubmissionResponseSlice(models []models.Submission) []SubmissionResponse {
	responses := make([]SubmissionResponse, 0, len(models))
	for _, submission := range models {
		responses = append(responses, NewSubmissionResponse(submission))
	}

	return responses
}
