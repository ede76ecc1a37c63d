package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/kelaskita/kelaskita-api/internal/models"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Teacher{},
		&models.Student{},
		&models.Assignment{},
		&models.Submission{},
		&models.Evaluation{},
	))

	return db
}

func seedAssignment(t *testing.T, db *gorm.DB) models.Assignment {
	t.Helper()

	teacher := models.Teacher{Name: "Bu Sari", Email: "sari@example.com"}
	require.NoError(t, db.Create(&teacher).Error)

	assignment := models.Assignment{
		TeacherID:         teacher.ID,
		Title:             "Menulis Cerpen",
		Description:       "Tulis cerpen bertema lingkungan",
		AllowResubmission: true,
		MaxResubmissions:  2,
		Published:         true,
	}
	require.NoError(t, db.Create(&assignment).Error)

	student := models.Student{Name: "Andi", Email: "andi@example.com"}
	require.NoError(t, db.Create(&student).Error)

	return assignment
}

func TestCreateOrReviseCreatesNewAttempt(t *testing.T) {
	db := openTestDB(t)
	assignment := seedAssignment(t, db)
	repo := NewSubmissionRepository(db)

	now := time.Now().UTC()
	submission := models.Submission{
		AssignmentID: assignment.ID,
		StudentID:    1,
		Version:      1,
		TextResponse: "Draf pertama",
		SubmittedAt:  &now,
	}

	guardCalls := 0
	err := repo.CreateOrRevise(context.Background(), &submission, nil, func(nonDraftCount int) error {
		guardCalls++
		require.Equal(t, 0, nonDraftCount)
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 1, guardCalls)
	require.NotZero(t, submission.ID)
}

func TestCreateOrReviseGuardRejectionAbortsWrite(t *testing.T) {
	db := openTestDB(t)
	assignment := seedAssignment(t, db)
	repo := NewSubmissionRepository(db)

	rejection := errors.New("over the limit")
	submission := models.Submission{AssignmentID: assignment.ID, StudentID: 1, Version: 1}

	err := repo.CreateOrRevise(context.Background(), &submission, nil, func(int) error {
		return rejection
	})
	require.ErrorIs(t, err, rejection)

	count, err := repo.CountNonDraft(context.Background(), assignment.ID, 1)
	require.NoError(t, err)
	require.Zero(t, count)
}

func TestCreateOrReviseOverwritesInPlace(t *testing.T) {
	db := openTestDB(t)
	assignment := seedAssignment(t, db)
	repo := NewSubmissionRepository(db)
	ctx := context.Background()

	submittedAt := time.Now().UTC().Add(-time.Hour)
	original := models.Submission{
		AssignmentID: assignment.ID,
		StudentID:    1,
		Version:      1,
		TextResponse: "Versi awal",
		SubmittedAt:  &submittedAt,
	}
	require.NoError(t, repo.CreateOrRevise(ctx, &original, nil, nil))

	revisedAt := time.Now().UTC()
	replacement := models.Submission{
		AssignmentID: assignment.ID,
		StudentID:    1,
		Version:      1,
		TextResponse: "Versi diperbaiki",
		SubmittedAt:  &submittedAt,
		RevisedAt:    &revisedAt,
	}

	// The overwritten row must not count as a spent attempt.
	err := repo.CreateOrRevise(ctx, &replacement, &original.ID, func(nonDraftCount int) error {
		require.Equal(t, 0, nonDraftCount)
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, original.ID, replacement.ID)

	stored, err := repo.GetByID(ctx, original.ID)
	require.NoError(t, err)
	require.Equal(t, "Versi diperbaiki", stored.TextResponse)
	require.NotNil(t, stored.RevisedAt)

	count, err := repo.CountNonDraft(ctx, assignment.ID, 1)
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestCreateOrReviseRejectsForeignRow(t *testing.T) {
	db := openTestDB(t)
	assignment := seedAssignment(t, db)
	repo := NewSubmissionRepository(db)
	ctx := context.Background()

	other := models.Submission{AssignmentID: assignment.ID, StudentID: 2, Version: 1}
	require.NoError(t, repo.CreateOrRevise(ctx, &other, nil, nil))

	hijack := models.Submission{AssignmentID: assignment.ID, StudentID: 1, Version: 1}
	err := repo.CreateOrRevise(ctx, &hijack, &other.ID, nil)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestDuplicateVersionIsRejectedByUniqueIndex(t *testing.T) {
	db := openTestDB(t)
	assignment := seedAssignment(t, db)
	repo := NewSubmissionRepository(db)
	ctx := context.Background()

	first := models.Submission{AssignmentID: assignment.ID, StudentID: 1, Version: 1}
	require.NoError(t, repo.CreateOrRevise(ctx, &first, nil, nil))

	duplicate := models.Submission{AssignmentID: assignment.ID, StudentID: 1, Version: 1}
	require.Error(t, repo.CreateOrRevise(ctx, &duplicate, nil, nil))
}

func TestListByAssignmentAndStudentOrdersByVersion(t *testing.T) {
	db := openTestDB(t)
	assignment := seedAssignment(t, db)
	repo := NewSubmissionRepository(db)
	ctx := context.Background()

	for version := 3; version >= 1; version-- {
		submission := models.Submission{AssignmentID: assignment.ID, StudentID: 1, Version: version}
		require.NoError(t, repo.CreateOrRevise(ctx, &submission, nil, nil))
	}

	history, err := repo.ListByAssignmentAndStudent(ctx, assignment.ID, 1)
	require.NoError(t, err)
	require.Len(t, history, 3)
	for i, submission := range history {
		require.Equal(t, i+1, submission.Version)
	}
}

func TestListByAssignmentFiltersDrafts(t *testing.T) {
	db := openTestDB(t)
	assignment := seedAssignment(t, db)
	repo := NewSubmissionRepository(db)
	ctx := context.Background()

	now := time.Now().UTC()
	final := models.Submission{AssignmentID: assignment.ID, StudentID: 1, Version: 1, SubmittedAt: &now}
	require.NoError(t, repo.CreateOrRevise(ctx, &final, nil, nil))

	draft := models.Submission{AssignmentID: assignment.ID, StudentID: 1, Version: 2, IsDraft: true}
	require.NoError(t, repo.CreateOrRevise(ctx, &draft, nil, nil))

	all, err := repo.ListByAssignment(ctx, assignment.ID, nil)
	require.NoError(t, err)
	require.Len(t, all, 2)

	draftsOnly := true
	drafts, err := repo.ListByAssignment(ctx, assignment.ID, &draftsOnly)
	require.NoError(t, err)
	require.Len(t, drafts, 1)
	require.True(t, drafts[0].IsDraft)

	finalsOnly := false
	finals, err := repo.ListByAssignment(ctx, assignment.ID, &finalsOnly)
	require.NoError(t, err)
	require.Len(t, finals, 1)
	require.False(t, finals[0].IsDraft)
}

func TestCountNonDraftIgnoresDrafts(t *testing.T) {
	db := openTestDB(t)
	assignment := seedAssignment(t, db)
	repo := NewSubmissionRepository(db)
	ctx := context.Background()

	now := time.Now().UTC()
	submitted := models.Submission{AssignmentID: assignment.ID, StudentID: 1, Version: 1, SubmittedAt: &now}
	require.NoError(t, repo.CreateOrRevise(ctx, &submitted, nil, nil))

	draft := models.Submission{AssignmentID: assignment.ID, StudentID: 1, Version: 2, IsDraft: true}
	require.NoError(t, repo.CreateOrRevise(ctx, &draft, nil, nil))

	count, err := repo.CountNonDraft(ctx, assignment.ID, 1)
	require.NoError(t, err)
	require.Equal(t, 1, count)
}
