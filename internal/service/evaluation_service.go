package service

import (
	"bytes"
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/kelaskita/kelaskita-api/internal/criteria"
	"github.com/kelaskita/kelaskita-api/internal/dto"
	"github.com/kelaskita/kelaskita-api/internal/models"
	"github.com/kelaskita/kelaskita-api/internal/repository"
)

// ErrCannotEvaluateDraft rejects grading an attempt that was never submitted.
var ErrCannotEvaluateDraft = errors.New("draft submissions cannot be evaluated")

// ErrAlreadyEvaluated rejects a second, different evaluation of the same
// submission; evaluations are 1:1 with submission versions.
var ErrAlreadyEvaluated = errors.New("submission has already been evaluated")

// EvaluationService encapsulates the grading write path.
type EvaluationService interface {
	Evaluate(ctx context.Context, payload dto.EvaluationCreateRequest) (dto.EvaluationResponse, error)
	GetBySubmission(ctx context.Context, submissionID uint) (dto.EvaluationResponse, error)
}

type evaluationService struct {
	evaluations repository.EvaluationRepository
	submissions repository.SubmissionRepository
	validator   *validator.Validate
	sanitizer   *bluemonday.Policy
	cache       *redis.Client
	logger      zerolog.Logger
	now         func() time.Time
}

// NewEvaluationService constructs the grading service. The cache client may
// be nil.
func NewEvaluationService(
	evalRepo repository.EvaluationRepository,
	subRepo repository.SubmissionRepository,
	validate *validator.Validate,
	cache *redis.Client,
	logger zerolog.Logger,
) EvaluationService {
	return &evaluationService{
		evaluations: evalRepo,
		submissions: subRepo,
		validator:   validate,
		sanitizer:   bluemonday.StrictPolicy(),
		cache:       cache,
		logger:      logger.With().Str("component", "evaluation_service").Logger(),
		now:         time.Now,
	}
}

func (s *evaluationService) Evaluate(ctx context.Context, payload dto.EvaluationCreateRequest) (dto.EvaluationResponse, error) {
	tracer := otel.Tracer("github.com/kelaskita/kelaskita-api/internal/service/evaluation")
	ctx, span := tracer.Start(ctx, "evaluation.create", trace.WithAttributes(
		attribute.Int64("evaluation.submission_id", int64(payload.SubmissionID)),
		attribute.Int64("evaluation.teacher_id", int64(payload.TeacherID)),
	))
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return dto.EvaluationResponse{}, err
	}

	submission, err := s.submissions.GetByID(ctx, payload.SubmissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			span.SetStatus(codes.Error, "submission_not_found")
			return dto.EvaluationResponse{}, ErrSubmissionNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "submission_lookup_failed")
		return dto.EvaluationResponse{}, err
	}

	if !submission.IsSubmitted() {
		span.SetStatus(codes.Error, "submission_is_draft")
		return dto.EvaluationResponse{}, ErrCannotEvaluateDraft
	}

	scores := criteria.EncodeScores(payload.Scores)
	feedback := criteria.EncodeFeedback(payload.CriteriaFeedback)
	generalFeedback := s.sanitizer.Sanitize(payload.GeneralFeedback)

	if existing, err := s.evaluations.GetBySubmissionID(ctx, submission.ID); err == nil {
		if bytes.Equal(existing.Scores, scores) && existing.GeneralFeedback == generalFeedback {
			span.SetAttributes(attribute.Bool("evaluation.idempotent", true))
			return dto.NewEvaluationResponse(existing), nil
		}
		span.SetStatus(codes.Error, "already_evaluated")
		return dto.EvaluationResponse{}, ErrAlreadyEvaluated
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, "evaluation_lookup_failed")
		return dto.EvaluationResponse{}, err
	}

	evaluation := models.Evaluation{
		SubmissionID:     submission.ID,
		TeacherID:        payload.TeacherID,
		Scores:           scores,
		CriteriaFeedback: feedback,
		GeneralFeedback:  generalFeedback,
	}

	if err := s.evaluations.Create(ctx, &evaluation); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "evaluation_create_failed")
		return dto.EvaluationResponse{}, err
	}

	s.invalidateDetail(ctx, submission.AssignmentID, submission.StudentID)

	s.logger.Info().
		Uint("evaluation_id", evaluation.ID).
		Uint("submission_id", submission.ID).
		Float64("total", payload.Scores.Total()).
		Msg("submission evaluated")

	return dto.NewEvaluationResponse(evaluation), nil
}

func (s *evaluationService) GetBySubmission(ctx context.Context, submissionID uint) (dto.EvaluationResponse, error) {
	evaluation, err := s.evaluations.GetBySubmissionID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.EvaluationResponse{}, ErrSubmissionNotFound
		}
		return dto.EvaluationResponse{}, err
	}

	return dto.NewEvaluationResponse(evaluation), nil
}

func (s *evaluationService) invalidateDetail(ctx context.Context, assignmentID, studentID uint) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, DetailCacheKey(assignmentID, studentID)).Err(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to invalidate detail cache")
	}
}
