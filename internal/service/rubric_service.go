package service

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/kelaskita/kelaskita-api/internal/criteria"
	"github.com/kelaskita/kelaskita-api/internal/dto"
	"github.com/kelaskita/kelaskita-api/internal/models"
	"github.com/kelaskita/kelaskita-api/internal/repository"
)

// ErrEmptyCriteria rejects rubrics without a single criterion.
var ErrEmptyCriteria = errors.New("rubric requires at least one criterion")

// RubricService exposes rubric authoring use cases. Weight-sum correctness is
// an editor concern; only structural validity is enforced here.
type RubricService interface {
	Get(ctx context.Context, id uint) (dto.RubricResponse, error)
	Create(ctx context.Context, teacherID uint, payload dto.RubricCreateRequest) (dto.RubricResponse, error)
}

type rubricService struct {
	rubrics   repository.RubricRepository
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewRubricService builds a new rubric service.
func NewRubricService(rubricRepo repository.RubricRepository, validate *validator.Validate, logger zerolog.Logger) RubricService {
	return &rubricService{
		rubrics:   rubricRepo,
		validator: validate,
		logger:    logger.With().Str("component", "rubric_service").Logger(),
	}
}

func (s *rubricService) Get(ctx context.Context, id uint) (dto.RubricResponse, error) {
	rubric, err := s.rubrics.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.RubricResponse{}, ErrRubricNotFound
		}
		return dto.RubricResponse{}, err
	}

	return dto.NewRubricResponse(rubric), nil
}

func (s *rubricService) Create(ctx context.Context, teacherID uint, payload dto.RubricCreateRequest) (dto.RubricResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.RubricResponse{}, err
	}

	if len(payload.Criteria) == 0 {
		return dto.RubricResponse{}, ErrEmptyCriteria
	}

	rubric := models.Rubric{
		TeacherID: teacherID,
		Title:     payload.Title,
		MaxScore:  payload.MaxScore,
		Criteria:  criteria.EncodeDocument(payload.Criteria),
	}

	if err := s.rubrics.Create(ctx, &rubric); err != nil {
		return dto.RubricResponse{}, err
	}

	s.logger.Info().Uint("rubric_id", rubric.ID).Msg("rubric created")

	return dto.NewRubricResponse(rubric), nil
}
