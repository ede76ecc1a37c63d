package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/kelaskita/kelaskita-api/internal/models"
)

// EvaluationRepository defines data operations for submission evaluations.
type EvaluationRepository interface {
	GetBySubmissionID(ctx context.Context, submissionID uint) (models.Evaluation, error)
	Create(ctx context.Context, evaluation *models.Evaluation) error
}

type evaluationRepository struct {
	db *gorm.DB
}

// NewEvaluationRepository instantiates the repository.
func NewEvaluationRepository(db *gorm.DB) EvaluationRepository {
	return &evaluationRepository{db: db}
}

func (r *evaluationRepository) GetBySubmissionID(ctx context.Context, submissionID uint) (models.Evaluation, error) {
	var evaluation models.Evaluation
	if err := r.db.WithContext(ctx).
		Where("submission_id = ?", submissionID).
		First(&evaluation).Error; err != nil {
		return models.Evaluation{}, err
	}

	return evaluation, nil
}

func (r *evaluationRepository) Create(ctx context.Context, evaluation *models.Evaluation) error {
	return r.db.WithContext(ctx).Create(evaluation).Error
}
