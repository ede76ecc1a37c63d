package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/kelaskita/kelaskita-api/internal/models"
)

// SubmissionRepository defines data operations for versioned submissions.
type SubmissionRepository interface {
	ListByAssignmentAndStudent(ctx context.Context, assignmentID, studentID uint) ([]models.Submission, error)
	ListByAssignment(ctx context.Context, assignmentID uint, isDraft *bool) ([]models.Submission, error)
	GetByID(ctx context.Context, id uint) (models.Submission, error)
	CountNonDraft(ctx context.Context, assignmentID, studentID uint) (int, error)
	CreateOrRevise(ctx context.Context, submission *models.Submission, existingID *uint, guard func(nonDraftCount int) error) error
}

type submissionRepository struct {
	db *gorm.DB
}

// NewSubmissionRepository instantiates the repository.
func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

// ListByAssignmentAndStudent returns the full attempt history ordered by
// version; the caller picks the latest entry off the tail.
func (r *submissionRepository) ListByAssignmentAndStudent(ctx context.Context, assignmentID, studentID uint) ([]models.Submission, error) {
	var submissions []models.Submission
	if err := r.db.WithContext(ctx).
		Where("assignment_id = ? AND student_id = ?", assignmentID, studentID).
		Order("version ASC").
		Find(&submissions).Error; err != nil {
		return nil, err
	}

	return submissions, nil
}

func (r *submissionRepository) ListByAssignment(ctx context.Context, assignmentID uint, isDraft *bool) ([]models.Submission, error) {
	query := r.db.WithContext(ctx).
		Preload("Student").
		Where("assignment_id = ?", assignmentID)

	if isDraft != nil {
		query = query.Where("is_draft = ?", *isDraft)
	}

	var submissions []models.Submission
	if err := query.Order("student_id ASC, version ASC").Find(&submissions).Error; err != nil {
		return nil, err
	}

	return submissions, nil
}

func (r *submissionRepository) GetByID(ctx context.Context, id uint) (models.Submission, error) {
	var submission models.Submission
	if err := r.db.WithContext(ctx).First(&submission, id).Error; err != nil {
		return models.Submission{}, err
	}

	return submission, nil
}

func (r *submissionRepository) CountNonDraft(ctx context.Context, assignmentID, studentID uint) (int, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Submission{}).
		Where("assignment_id = ? AND student_id = ? AND is_draft = ?", assignmentID, studentID, false).
		Count(&count).Error; err != nil {
		return 0, err
	}

	return int(count), nil
}

// CreateOrRevise performs the idempotent create-or-overwrite write. The
// non-draft count is taken under a row lock inside the same transaction as
// the write so the policy guard and the insert cannot interleave with a
// concurrent submit; the unique (assignment, student, version) index backstops
// duplicate versions that slip past the lock.
func (r *submissionRepository) CreateOrRevise(ctx context.Context, submission *models.Submission, existingID *uint, guard func(nonDraftCount int) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		query := tx.Where("assignment_id = ? AND student_id = ? AND is_draft = ?", submission.AssignmentID, submission.StudentID, false)
		// sqlite has no row locks; its single-writer transactions give the
		// same isolation.
		if tx.Dialector.Name() != "sqlite" {
			query = query.Clauses(clause.Locking{Strength: "UPDATE"})
		}

		var held []models.Submission
		if err := query.Find(&held).Error; err != nil {
			return err
		}

		// Overwriting an existing non-draft row does not add an attempt, so
		// the row being replaced is excluded from the count the guard sees.
		count := 0
		for _, row := range held {
			if existingID != nil && row.ID == *existingID {
				continue
			}
			count++
		}

		if guard != nil {
			if err := guard(count); err != nil {
				return err
			}
		}

		if existingID == nil {
			return tx.Create(submission).Error
		}

		var existing models.Submission
		if err := tx.First(&existing, *existingID).Error; err != nil {
			return err
		}
		if existing.AssignmentID != submission.AssignmentID || existing.StudentID != submission.StudentID {
			return gorm.ErrRecordNotFound
		}

		// Overwrite in place: same identifier, new content.
		submission.ID = existing.ID
		submission.CreatedAt = existing.CreatedAt
		return tx.Save(submission).Error
	})
}
