package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/kelaskita/kelaskita-api/internal/models"
)

// ActivityRepository defines read operations for course activities.
type ActivityRepository interface {
	GetByID(ctx context.Context, id uint) (models.Activity, error)
}

type activityRepository struct {
	db *gorm.DB
}

// NewActivityRepository instantiates the repository.
func NewActivityRepository(db *gorm.DB) ActivityRepository {
	return &activityRepository{db: db}
}

func (r *activityRepository) GetByID(ctx context.Context, id uint) (models.Activity, error) {
	var activity models.Activity
	if err := r.db.WithContext(ctx).First(&activity, id).Error; err != nil {
		return models.Activity{}, err
	}

	return activity, nil
}
