package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/kelaskita/kelaskita-api/internal/models"
)

// TeacherRepository defines read operations for teacher profiles.
type TeacherRepository interface {
	GetByID(ctx context.Context, id uint) (models.Teacher, error)
}

type teacherRepository struct {
	db *gorm.DB
}

// NewTeacherRepository instantiates the repository.
func NewTeacherRepository(db *gorm.DB) TeacherRepository {
	return &teacherRepository{db: db}
}

func (r *teacherRepository) GetByID(ctx context.Context, id uint) (models.Teacher, error) {
	var teacher models.Teacher
	if err := r.db.WithContext(ctx).First(&teacher, id).Error; err != nil {
		return models.Teacher{}, err
	}

	return teacher, nil
}
