package dto

import (
	"time"

	"github.com/kelaskita/kelaskita-api/internal/criteria"
	"github.com/kelaskita/kelaskita-api/internal/lifecycle"
	"github.com/kelaskita/kelaskita-api/internal/models"
)

// ActivityResponse summarizes the course activity an assignment links to.
type ActivityResponse struct {
	ID          uint   `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// NewActivityResponse converts an Activity model into a DTO.
func NewActivityResponse(model models.Activity) ActivityResponse {
	return ActivityResponse{
		ID:          model.ID,
		Title:       model.Title,
		Description: model.Description,
	}
}

// AssignmentDetailResponse is the immutable snapshot assembled for one
// (assignment, student) pair: the assignment with its optional collaborators,
// the student's full attempt history, the latest evaluation and every derived
// lifecycle flag. All semi-structured documents arrive decoded.
type AssignmentDetailResponse struct {
	Assignment              AssignmentResponse       `json:"assignment"`
	Activity                *ActivityResponse        `json:"activity,omitempty"`
	Rubric                  *RubricResponse          `json:"rubric,omitempty"`
	Teacher                 *TeacherLite             `json:"teacher,omitempty"`
	LatestSubmission        *SubmissionResponse      `json:"latest_submission,omitempty"`
	Evaluation              *EvaluationResponse      `json:"evaluation,omitempty"`
	RubricCriteria          criteria.Document        `json:"rubric_criteria"`
	EvaluationScores        criteria.ScoreSet        `json:"evaluation_scores"`
	EvaluationTotal         float64                  `json:"evaluation_total"`
	EvaluationFeedback      criteria.FeedbackSet     `json:"evaluation_feedback"`
	SubmissionChecklist     []criteria.ChecklistItem `json:"submission_checklist"`
	Status                  lifecycle.Status         `json:"status"`
	DueDate                 *time.Time               `json:"due_date"`
	IsOverdue               bool                     `json:"is_overdue"`
	HasEvaluation           bool                     `json:"has_evaluation"`
	CanSubmit               bool                     `json:"can_submit"`
	SubmissionCount         int                      `json:"submission_count"`
	MaxResubmissionsReached bool                     `json:"max_resubmissions_reached"`
	StudentSubmissions      []SubmissionResponse     `json:"student_submissions"`
}
