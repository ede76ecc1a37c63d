package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/kelaskita/kelaskita-api/internal/criteria"
	"github.com/kelaskita/kelaskita-api/internal/dto"
	"github.com/kelaskita/kelaskita-api/internal/lifecycle"
	"github.com/kelaskita/kelaskita-api/internal/models"
	"github.com/kelaskita/kelaskita-api/internal/repository"
)

// AssignmentDetailService assembles the read-only composite view of one
// assignment for one student.
type AssignmentDetailService interface {
	// GetDetail returns nil (without error) when the assignment is missing or
	// unpublished; callers treat that as nothing to show.
	GetDetail(ctx context.Context, assignmentID, studentID uint) (*dto.AssignmentDetailResponse, error)
}

type assignmentDetailService struct {
	assignments repository.AssignmentRepository
	activities  repository.ActivityRepository
	rubrics     repository.RubricRepository
	teachers    repository.TeacherRepository
	submissions repository.SubmissionRepository
	evaluations repository.EvaluationRepository
	cache       *redis.Client
	cacheTTL    time.Duration
	logger      zerolog.Logger
	now         func() time.Time
}

// NewAssignmentDetailService builds the detail assembler. The cache client may
// be nil; the assembler is correct with or without it.
func NewAssignmentDetailService(
	assignments repository.AssignmentRepository,
	activities repository.ActivityRepository,
	rubrics repository.RubricRepository,
	teachers repository.TeacherRepository,
	submissions repository.SubmissionRepository,
	evaluations repository.EvaluationRepository,
	cache *redis.Client,
	cacheTTL time.Duration,
	logger zerolog.Logger,
) AssignmentDetailService {
	return &assignmentDetailService{
		assignments: assignments,
		activities:  activities,
		rubrics:     rubrics,
		teachers:    teachers,
		submissions: submissions,
		evaluations: evaluations,
		cache:       cache,
		cacheTTL:    cacheTTL,
		logger:      logger.With().Str("component", "assignment_detail_service").Logger(),
		now:         time.Now,
	}
}

// DetailCacheKey is the redis key for one (assignment, student) snapshot.
func DetailCacheKey(assignmentID, studentID uint) string {
	return fmt.Sprintf("assignment:%d:detail:student:%d", assignmentID, studentID)
}

func (s *assignmentDetailService) GetDetail(ctx context.Context, assignmentID, studentID uint) (*dto.AssignmentDetailResponse, error) {
	cacheKey := DetailCacheKey(assignmentID, studentID)

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey).Result(); err == nil {
			var response dto.AssignmentDetailResponse
			if unmarshalErr := json.Unmarshal([]byte(cached), &response); unmarshalErr == nil {
				s.logger.Debug().Uint("assignment_id", assignmentID).Uint("student_id", studentID).Msg("detail cache hit")
				return &response, nil
			}
		} else if err != redis.Nil {
			s.logger.Warn().Err(err).Msg("failed to read detail cache")
		}
	}

	assignment, err := s.assignments.GetPublishedByID(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	history, err := s.submissions.ListByAssignmentAndStudent(ctx, assignmentID, studentID)
	if err != nil {
		return nil, err
	}

	latest := latestSubmission(history)
	nonDraftCount := 0
	for _, submission := range history {
		if !submission.IsDraft {
			nonDraftCount++
		}
	}

	var evaluation *models.Evaluation
	if latest != nil && !latest.IsDraft {
		found, err := s.evaluations.GetBySubmissionID(ctx, latest.ID)
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, err
			}
		} else {
			evaluation = &found
		}
	}

	response, err := s.assemble(ctx, assignment, history, latest, evaluation, nonDraftCount)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if payload, err := json.Marshal(response); err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store detail cache")
			}
		}
	}

	return response, nil
}

func (s *assignmentDetailService) assemble(
	ctx context.Context,
	assignment models.Assignment,
	history []models.Submission,
	latest *models.Submission,
	evaluation *models.Evaluation,
	nonDraftCount int,
) (*dto.AssignmentDetailResponse, error) {
	now := s.now()

	scores := criteria.ScoreSet{}
	feedback := criteria.FeedbackSet{}
	generalFeedback := ""
	if evaluation != nil {
		scores = criteria.DecodeScores(evaluation.Scores, criteria.ScoreSet{})
		feedback = criteria.DecodeFeedback(evaluation.CriteriaFeedback, criteria.FeedbackSet{})
		generalFeedback = evaluation.GeneralFeedback
	}

	input := lifecycle.StatusInput{
		HasSubmission:   latest != nil,
		LatestIsDraft:   latest != nil && latest.IsDraft,
		HasEvaluation:   evaluation != nil,
		DueDate:         assignment.DueDate,
		Now:             now,
		TotalScore:      scores.Total(),
		GeneralFeedback: generalFeedback,
	}

	status := lifecycle.ResolveStatus(input)
	overdue := input.IsOverdue()

	decision := lifecycle.EvaluateResubmission(lifecycle.ResubmissionPolicy{
		AllowResubmission: assignment.AllowResubmission,
		MaxResubmissions:  assignment.MaxResubmissions,
	}, nonDraftCount, nonDraftCount+1)

	response := &dto.AssignmentDetailResponse{
		Assignment:              dto.NewAssignmentResponse(assignment),
		RubricCriteria:          criteria.Document{},
		EvaluationScores:        scores,
		EvaluationTotal:         scores.Total(),
		EvaluationFeedback:      feedback,
		SubmissionChecklist:     []criteria.ChecklistItem{},
		Status:                  status,
		DueDate:                 assignment.DueDate,
		IsOverdue:               overdue,
		HasEvaluation:           evaluation != nil,
		CanSubmit:               lifecycle.CanSubmit(status, assignment.AllowResubmission, overdue),
		SubmissionCount:         nonDraftCount,
		MaxResubmissionsReached: decision.CeilingReached,
		StudentSubmissions:      dto.NewSubmissionResponseSlice(history),
	}

	if latest != nil {
		submission := dto.NewSubmissionResponse(*latest)
		response.LatestSubmission = &submission
		response.SubmissionChecklist = criteria.DecodeChecklist(latest.Checklist, []criteria.ChecklistItem{})
	}

	if evaluation != nil {
		graded := dto.NewEvaluationResponse(*evaluation)
		response.Evaluation = &graded
	}

	if assignment.Teacher.ID != 0 {
		teacher := dto.NewTeacherLite(assignment.Teacher)
		response.Teacher = &teacher
	} else if teacher, err := s.teachers.GetByID(ctx, assignment.TeacherID); err == nil {
		lite := dto.NewTeacherLite(teacher)
		response.Teacher = &lite
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if assignment.ActivityID != nil {
		activity, err := s.activities.GetByID(ctx, *assignment.ActivityID)
		if err == nil {
			linked := dto.NewActivityResponse(activity)
			response.Activity = &linked
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	if assignment.RubricID != nil {
		rubric, err := s.rubrics.GetByID(ctx, *assignment.RubricID)
		if err == nil {
			scheme := dto.NewRubricResponse(rubric)
			response.Rubric = &scheme
			response.RubricCriteria = scheme.Criteria
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	return response, nil
}

// latestSubmission picks the row with the highest version and a non-nil
// SubmittedAt, falling back to the most recent draft when nothing has been
// submitted yet. The history is ordered by ascending version.
func latestSubmission(history []models.Submission) *models.Submission {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].IsSubmitted() {
			return &history[i]
		}
	}
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].IsDraft {
			return &history[i]
		}
	}
	return nil
}
