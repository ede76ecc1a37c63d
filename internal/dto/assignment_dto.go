package dto

import (
	"time"

	"github.com/kelaskita/kelaskita-api/internal/models"
)

// AssignmentCreateRequest describes the payload for creating an assignment.
// DueDate is an optional RFC3339 timestamp; an empty value means no deadline.
type AssignmentCreateRequest struct {
	Title             string `json:"title" validate:"required,min=3,max=255"`
	Description       string `json:"description"`
	DueDate           string `json:"due_date" validate:"omitempty"`
	ActivityID        *uint  `json:"activity_id" validate:"omitempty,gt=0"`
	RubricID          *uint  `json:"rubric_id" validate:"omitempty,gt=0"`
	AllowResubmission bool   `json:"allow_resubmission"`
	MaxResubmissions  int    `json:"max_resubmissions" validate:"gte=0"`
	IsChallenge       bool   `json:"is_challenge"`
	ChallengePoints   int    `json:"challenge_points" validate:"gte=0"`
	Published         bool   `json:"published"`
}

// AssignmentUpdateRequest carries partial assignment edits.
type AssignmentUpdateRequest struct {
	Title             *string `json:"title" validate:"omitempty,min=3,max=255"`
	Description       *string `json:"description"`
	DueDate           *string `json:"due_date"`
	ActivityID        *uint   `json:"activity_id" validate:"omitempty,gt=0"`
	RubricID          *uint   `json:"rubric_id" validate:"omitempty,gt=0"`
	AllowResubmission *bool   `json:"allow_resubmission"`
	MaxResubmissions  *int    `json:"max_resubmissions" validate:"omitempty,gte=0"`
	IsChallenge       *bool   `json:"is_challenge"`
	ChallengePoints   *int    `json:"challenge_points" validate:"omitempty,gte=0"`
	Published         *bool   `json:"published"`
}

// AssignmentResponse is returned to API clients when viewing assignments.
type AssignmentResponse struct {
	ID                uint        `json:"id"`
	TeacherID         uint        `json:"teacher_id"`
	ActivityID        *uint       `json:"activity_id"`
	RubricID          *uint       `json:"rubric_id"`
	Title             string      `json:"title"`
	Description       string      `json:"description"`
	DueDate           *time.Time  `json:"due_date"`
	AllowResubmission bool        `json:"allow_resubmission"`
	MaxResubmissions  int         `json:"max_resubmissions"`
	Published         bool        `json:"published"`
	IsChallenge       bool        `json:"is_challenge"`
	ChallengePoints   int         `json:"challenge_points"`
	CreatedAt         time.Time   `json:"created_at"`
	UpdatedAt         time.Time   `json:"updated_at"`
	Teacher           TeacherLite `json:"teacher"`
}

// TeacherLite summarizes a teacher's public profile.
type TeacherLite struct {
	ID        uint   `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatar_url"`
	Bio       string `json:"bio"`
}

// NewAssignmentResponse converts an Assignment model into a DTO.
func NewAssignmentResponse(model models.Assignment) AssignmentResponse {
	response := AssignmentResponse{
		ID:                model.ID,
		TeacherID:         model.TeacherID,
		ActivityID:        model.ActivityID,
		RubricID:          model.RubricID,
		Title:             model.Title,
		Description:       model.Description,
		DueDate:           model.DueDate,
		AllowResubmission: model.AllowResubmission,
		MaxResubmissions:  model.MaxResubmissions,
		Published:         model.Published,
		IsChallenge:       model.IsChallenge,
		ChallengePoints:   model.ChallengePoints,
		CreatedAt:         model.CreatedAt,
		UpdatedAt:         model.UpdatedAt,
	}

	if model.Teacher.ID != 0 {
		response.Teacher = NewTeacherLite(model.Teacher)
	}

	return response
}

// NewTeacherLite converts a Teacher model into its public summary.
func NewTeacherLite(model models.Teacher) TeacherLite {
	return TeacherLite{
		ID:        model.ID,
		Name:      model.Name,
		Email:     model.Email,
		AvatarURL: model.AvatarURL,
		Bio:       model.Bio,
	}
}

// NewAssignmentResponseSlice converts assignment models into DTOs.
func NewAssignmentResponseSlice(models []models.Assignment) []AssignmentResponse {
	responses := make([]AssignmentResponse, 0, len(models))
	for _, assignment := range models {
		responses = append(responses, NewAssignmentResponse(assignment))
	}

	return responses
}
