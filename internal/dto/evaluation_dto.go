package dto

import (
	"time"

	"github.com/kelaskita/kelaskita-api/internal/criteria"
	"github.com/kelaskita/kelaskita-api/internal/models"
)

// EvaluationCreateRequest grades the identified submission. TeacherID is
// filled from the caller identity.
type EvaluationCreateRequest struct {
	SubmissionID     uint                 `json:"submission_id" validate:"required,gt=0"`
	TeacherID        uint                 `json:"-" validate:"required,gt=0"`
	Scores           criteria.ScoreSet    `json:"scores" validate:"required"`
	CriteriaFeedback criteria.FeedbackSet `json:"criteria_feedback"`
	GeneralFeedback  string               `json:"general_feedback"`
}

// EvaluationResponse is returned to API clients when viewing evaluations.
type EvaluationResponse struct {
	ID               uint                 `json:"id"`
	SubmissionID     uint                 `json:"submission_id"`
	TeacherID        uint                 `json:"teacher_id"`
	Scores           criteria.ScoreSet    `json:"scores"`
	Total            float64              `json:"total"`
	CriteriaFeedback criteria.FeedbackSet `json:"criteria_feedback"`
	GeneralFeedback  string               `json:"general_feedback"`
	CreatedAt        time.Time            `json:"created_at"`
}

// NewEvaluationResponse converts an Evaluation model into a DTO. Score and
// feedback documents are decoded tolerantly; an unparseable score document
// yields an empty set with a total of 0.
func NewEvaluationResponse(model models.Evaluation) EvaluationResponse {
	scores := criteria.DecodeScores(model.Scores, criteria.ScoreSet{})

	return EvaluationResponse{
		ID:               model.ID,
		SubmissionID:     model.SubmissionID,
		TeacherID:        model.TeacherID,
		Scores:           scores,
		Total:            scores.Total(),
		CriteriaFeedback: criteria.DecodeFeedback(model.CriteriaFeedback, criteria.FeedbackSet{}),
		GeneralFeedback:  model.GeneralFeedback,
		CreatedAt:        model.CreatedAt,
	}
}
