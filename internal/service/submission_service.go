package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/kelaskita/kelaskita-api/internal/criteria"
	"github.com/kelaskita/kelaskita-api/internal/dto"
	"github.com/kelaskita/kelaskita-api/internal/lifecycle"
	"github.com/kelaskita/kelaskita-api/internal/models"
	"github.com/kelaskita/kelaskita-api/internal/repository"
)

// ErrAssignmentNotFound indicates the requested assignment does not exist or
// is not published.
var ErrAssignmentNotFound = errors.New("assignment not found")

// ErrSubmissionNotFound indicates a submission could not be found.
var ErrSubmissionNotFound = errors.New("submission not found")

// ErrResubmissionNotAllowed rejects a second non-draft submission when the
// assignment forbids resubmission.
var ErrResubmissionNotAllowed = errors.New("this assignment does not allow resubmission")

// ErrResubmissionLimitReached rejects a non-draft revision once the configured
// ceiling has been used up.
var ErrResubmissionLimitReached = errors.New("the maximum number of resubmissions has been reached")

// ErrVersionMismatch rejects an overwrite that tries to change the version of
// an already-submitted row; new versions always append.
var ErrVersionMismatch = errors.New("submission version does not match the existing submission")

// SubmissionEvent is published after a successful non-draft write.
type SubmissionEvent struct {
	AssignmentID uint      `json:"assignment_id"`
	StudentID    uint      `json:"student_id"`
	SubmissionID uint      `json:"submission_id"`
	Version      int       `json:"version"`
	Revised      bool      `json:"revised"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// SubmissionService owns the versioned write path for student attempts.
type SubmissionService interface {
	Submit(ctx context.Context, payload dto.SubmitAssignmentRequest) (dto.SubmissionResponse, error)
	ListByAssignment(ctx context.Context, assignmentID uint, isDraft *bool) ([]dto.SubmissionResponse, error)
}

type submissionService struct {
	submissions  repository.SubmissionRepository
	assignments  repository.AssignmentRepository
	validator    *validator.Validate
	sanitizer    *bluemonday.Policy
	events       *nats.Conn
	eventSubject string
	cache        *redis.Client
	logger       zerolog.Logger
	now          func() time.Time
	newToken     func() string
}

// NewSubmissionService constructs a SubmissionService instance. The NATS
// connection and cache client may be nil.
func NewSubmissionService(
	subRepo repository.SubmissionRepository,
	assignmentRepo repository.AssignmentRepository,
	validate *validator.Validate,
	events *nats.Conn,
	eventSubject string,
	cache *redis.Client,
	logger zerolog.Logger,
) SubmissionService {
	return &submissionService{
		submissions:  subRepo,
		assignments:  assignmentRepo,
		validator:    validate,
		sanitizer:    bluemonday.StrictPolicy(),
		events:       events,
		eventSubject: eventSubject,
		cache:        cache,
		logger:       logger.With().Str("component", "submission_service").Logger(),
		now:          time.Now,
		newToken:     uuid.NewString,
	}
}

// Submit validates the resubmission policy server-side, normalizes the
// payload and performs the idempotent create-or-revise write. Policy
// violations come back as ErrResubmissionNotAllowed or
// ErrResubmissionLimitReached; both are user errors, not faults.
func (s *submissionService) Submit(ctx context.Context, payload dto.SubmitAssignmentRequest) (dto.SubmissionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.SubmissionResponse{}, err
	}

	assignment, err := s.assignments.GetPublishedByID(ctx, payload.AssignmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrAssignmentNotFound
		}
		return dto.SubmissionResponse{}, err
	}

	now := s.now()
	submission := models.Submission{
		AssignmentID: payload.AssignmentID,
		StudentID:    payload.StudentID,
		Version:      payload.Version,
		IsDraft:      payload.IsDraft,
		TextResponse: s.sanitizer.Sanitize(payload.TextResponse),
		AudioURL:     strings.TrimSpace(payload.AudioURL),
		VideoURL:     strings.TrimSpace(payload.VideoURL),
		DocumentURLs: criteria.EncodeStringList(filterBlank(payload.DocumentURLs)),
		Checklist:    criteria.EncodeChecklist(s.normalizeChecklist(payload.Checklist)),
	}

	if !payload.IsDraft {
		submittedAt := now
		submission.SubmittedAt = &submittedAt
	}

	revised := false
	if payload.SubmissionID != nil {
		existing, err := s.submissions.GetByID(ctx, *payload.SubmissionID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return dto.SubmissionResponse{}, ErrSubmissionNotFound
			}
			return dto.SubmissionResponse{}, err
		}
		if existing.AssignmentID != payload.AssignmentID || existing.StudentID != payload.StudentID {
			return dto.SubmissionResponse{}, ErrSubmissionNotFound
		}
		if existing.IsSubmitted() {
			if payload.Version != existing.Version {
				return dto.SubmissionResponse{}, ErrVersionMismatch
			}
			if !payload.IsDraft {
				revisedAt := now
				submission.RevisedAt = &revisedAt
				revised = true
			}
		}
	}

	policy := lifecycle.ResubmissionPolicy{
		AllowResubmission: assignment.AllowResubmission,
		MaxResubmissions:  assignment.MaxResubmissions,
	}

	// The guard runs inside the same transaction as the write; the client's
	// own eligibility decision is never trusted.
	guard := func(nonDraftCount int) error {
		if payload.IsDraft || payload.Version <= 1 {
			return nil
		}
		decision := lifecycle.EvaluateResubmission(policy, nonDraftCount, payload.Version)
		if !policy.AllowResubmission {
			return ErrResubmissionNotAllowed
		}
		if !decision.CanWrite(payload.IsDraft) {
			return ErrResubmissionLimitReached
		}
		return nil
	}

	if err := s.submissions.CreateOrRevise(ctx, &submission, payload.SubmissionID, guard); err != nil {
		if errors.Is(err, ErrResubmissionNotAllowed) || errors.Is(err, ErrResubmissionLimitReached) {
			return dto.SubmissionResponse{}, err
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrSubmissionNotFound
		}
		return dto.SubmissionResponse{}, fmt.Errorf("failed to save submission: %w", err)
	}

	s.invalidateDetail(ctx, payload.AssignmentID, payload.StudentID)

	if !payload.IsDraft {
		s.publishEvent(SubmissionEvent{
			AssignmentID: submission.AssignmentID,
			StudentID:    submission.StudentID,
			SubmissionID: submission.ID,
			Version:      submission.Version,
			Revised:      revised,
			OccurredAt:   now,
		})
	}

	s.logger.Info().
		Uint("submission_id", submission.ID).
		Uint("assignment_id", submission.AssignmentID).
		Int("version", submission.Version).
		Bool("is_draft", submission.IsDraft).
		Msg("submission saved")

	return dto.NewSubmissionResponse(submission), nil
}

func (s *submissionService) ListByAssignment(ctx context.Context, assignmentID uint, isDraft *bool) ([]dto.SubmissionResponse, error) {
	submissions, err := s.submissions.ListByAssignment(ctx, assignmentID, isDraft)
	if err != nil {
		return nil, err
	}

	return dto.NewSubmissionResponseSlice(submissions), nil
}

// normalizeChecklist fills missing ids with generated tokens and drops
// entries whose text is blank.
func (s *submissionService) normalizeChecklist(items []criteria.ChecklistItem) []criteria.ChecklistItem {
	normalized := make([]criteria.ChecklistItem, 0, len(items))
	for _, item := range items {
		text := strings.TrimSpace(item.Text)
		if text == "" {
			continue
		}
		id := strings.TrimSpace(item.ID)
		if id == "" {
			id = s.newToken()
		}
		normalized = append(normalized, criteria.ChecklistItem{
			ID:      id,
			Text:    text,
			Checked: item.Checked,
		})
	}
	return normalized
}

func (s *submissionService) invalidateDetail(ctx context.Context, assignmentID, studentID uint) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, DetailCacheKey(assignmentID, studentID)).Err(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to invalidate detail cache")
	}
}

func (s *submissionService) publishEvent(event SubmissionEvent) {
	if s.events == nil || s.eventSubject == "" {
		return
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return
	}
	if err := s.events.Publish(s.eventSubject, payload); err != nil {
		s.logger.Warn().Err(err).Msg("failed to publish submission event")
	}
}

func filterBlank(values []string) []string {
	filtered := make([]string, 0, len(values))
	for _, value := range values {
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			continue
		}
		filtered = append(filtered, trimmed)
	}
	return filtered
}
