package dto

import (
	"time"

	"github.com/kelaskita/kelaskita-api/internal/criteria"
	"github.com/kelaskita/kelaskita-api/internal/models"
)

// RubricCreateRequest describes the payload for creating a rubric.
type RubricCreateRequest struct {
	Title    string            `json:"title" validate:"required,min=3,max=255"`
	MaxScore float64           `json:"max_score" validate:"gt=0"`
	Criteria criteria.Document `json:"criteria" validate:"required"`
}

// RubricResponse is returned to API clients when viewing rubrics.
type RubricResponse struct {
	ID        uint              `json:"id"`
	TeacherID uint              `json:"teacher_id"`
	Title     string            `json:"title"`
	MaxScore  float64           `json:"max_score"`
	Criteria  criteria.Document `json:"criteria"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// NewRubricResponse converts a Rubric model into a DTO.
func NewRubricResponse(model models.Rubric) RubricResponse {
	return RubricResponse{
		ID:        model.ID,
		TeacherID: model.TeacherID,
		Title:     model.Title,
		MaxScore:  model.MaxScore,
		Criteria:  criteria.DecodeDocument(model.Criteria, criteria.Document{}),
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}
}
