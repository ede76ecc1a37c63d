package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/kelaskita/kelaskita-api/internal/dto"
	"github.com/kelaskita/kelaskita-api/internal/models"
	"github.com/kelaskita/kelaskita-api/internal/repository"
)

// ErrRubricNotFound indicates the referenced rubric does not exist.
var ErrRubricNotFound = errors.New("rubric not found")

// ErrActivityNotFound indicates the referenced activity does not exist.
var ErrActivityNotFound = errors.New("activity not found")

// AssignmentService exposes the teacher-side authoring use cases. Assignments
// are immutable from the student's perspective; only their owner edits them.
type AssignmentService interface {
	Get(ctx context.Context, id uint) (dto.AssignmentResponse, error)
	ListByTeacher(ctx context.Context, teacherID uint) ([]dto.AssignmentResponse, error)
	Create(ctx context.Context, teacherID uint, payload dto.AssignmentCreateRequest) (dto.AssignmentResponse, error)
	Update(ctx context.Context, id uint, payload dto.AssignmentUpdateRequest) (dto.AssignmentResponse, error)
}

type assignmentService struct {
	assignments repository.AssignmentRepository
	rubrics     repository.RubricRepository
	activities  repository.ActivityRepository
	validator   *validator.Validate
	logger      zerolog.Logger
}

// NewAssignmentService builds a new assignment service.
func NewAssignmentService(
	assignmentRepo repository.AssignmentRepository,
	rubricRepo repository.RubricRepository,
	activityRepo repository.ActivityRepository,
	validate *validator.Validate,
	logger zerolog.Logger,
) AssignmentService {
	return &assignmentService{
		assignments: assignmentRepo,
		rubrics:     rubricRepo,
		activities:  activityRepo,
		validator:   validate,
		logger:      logger.With().Str("component", "assignment_service").Logger(),
	}
}

func (s *assignmentService) Get(ctx context.Context, id uint) (dto.AssignmentResponse, error) {
	assignment, err := s.assignments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AssignmentResponse{}, ErrAssignmentNotFound
		}
		return dto.AssignmentResponse{}, err
	}

	return dto.NewAssignmentResponse(assignment), nil
}

func (s *assignmentService) ListByTeacher(ctx context.Context, teacherID uint) ([]dto.AssignmentResponse, error) {
	assignments, err := s.assignments.ListByTeacher(ctx, teacherID)
	if err != nil {
		return nil, err
	}

	return dto.NewAssignmentResponseSlice(assignments), nil
}

func (s *assignmentService) Create(ctx context.Context, teacherID uint, payload dto.AssignmentCreateRequest) (dto.AssignmentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AssignmentResponse{}, err
	}

	dueDate, err := parseDueDate(payload.DueDate)
	if err != nil {
		return dto.AssignmentResponse{}, err
	}

	if err := s.checkReferences(ctx, payload.RubricID, payload.ActivityID); err != nil {
		return dto.AssignmentResponse{}, err
	}

	assignment := models.Assignment{
		TeacherID:         teacherID,
		ActivityID:        payload.ActivityID,
		RubricID:          payload.RubricID,
		Title:             payload.Title,
		Description:       payload.Description,
		DueDate:           dueDate,
		AllowResubmission: payload.AllowResubmission,
		MaxResubmissions:  payload.MaxResubmissions,
		Published:         payload.Published,
		IsChallenge:       payload.IsChallenge,
		ChallengePoints:   payload.ChallengePoints,
	}

	if err := s.assignments.Create(ctx, &assignment); err != nil {
		return dto.AssignmentResponse{}, err
	}

	s.logger.Info().Uint("assignment_id", assignment.ID).Msg("assignment created")

	return dto.NewAssignmentResponse(assignment), nil
}

func (s *assignmentService) Update(ctx context.Context, id uint, payload dto.AssignmentUpdateRequest) (dto.AssignmentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AssignmentResponse{}, err
	}

	assignment, err := s.assignments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AssignmentResponse{}, ErrAssignmentNotFound
		}
		return dto.AssignmentResponse{}, err
	}

	if payload.Title != nil {
		assignment.Title = *payload.Title
	}
	if payload.Description != nil {
		assignment.Description = *payload.Description
	}
	if payload.DueDate != nil {
		dueDate, err := parseDueDate(*payload.DueDate)
		if err != nil {
			return dto.AssignmentResponse{}, err
		}
		assignment.DueDate = dueDate
	}
	if payload.RubricID != nil || payload.ActivityID != nil {
		if err := s.checkReferences(ctx, payload.RubricID, payload.ActivityID); err != nil {
			return dto.AssignmentResponse{}, err
		}
	}
	if payload.RubricID != nil {
		assignment.RubricID = payload.RubricID
	}
	if payload.ActivityID != nil {
		assignment.ActivityID = payload.ActivityID
	}
	if payload.AllowResubmission != nil {
		assignment.AllowResubmission = *payload.AllowResubmission
	}
	if payload.MaxResubmissions != nil {
		assignment.MaxResubmissions = *payload.MaxResubmissions
	}
	if payload.IsChallenge != nil {
		assignment.IsChallenge = *payload.IsChallenge
	}
	if payload.ChallengePoints != nil {
		assignment.ChallengePoints = *payload.ChallengePoints
	}
	if payload.Published != nil {
		assignment.Published = *payload.Published
	}

	if err := s.assignments.Update(ctx, &assignment); err != nil {
		return dto.AssignmentResponse{}, err
	}

	s.logger.Info().Uint("assignment_id", assignment.ID).Msg("assignment updated")

	return dto.NewAssignmentResponse(assignment), nil
}

func (s *assignmentService) checkReferences(ctx context.Context, rubricID, activityID *uint) error {
	if rubricID != nil {
		if _, err := s.rubrics.GetByID(ctx, *rubricID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRubricNotFound
			}
			return err
		}
	}
	if activityID != nil {
		if _, err := s.activities.GetByID(ctx, *activityID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrActivityNotFound
			}
			return err
		}
	}
	return nil
}

// parseDueDate accepts an empty string as "no deadline".
func parseDueDate(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	dueDate, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil, fmt.Errorf("invalid due date: %w", err)
	}
	return &dueDate, nil
}
