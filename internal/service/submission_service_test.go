package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/kelaskita/kelaskita-api/internal/criteria"
	"github.com/kelaskita/kelaskita-api/internal/dto"
	"github.com/kelaskita/kelaskita-api/internal/models"
	"github.com/kelaskita/kelaskita-api/internal/repository"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Teacher{},
		&models.Student{},
		&models.Activity{},
		&models.Rubric{},
		&models.Assignment{},
		&models.Submission{},
		&models.Evaluation{},
	))

	return db
}

func seedPublishedAssignment(t *testing.T, db *gorm.DB, allowResubmission bool, maxResubmissions int) models.Assignment {
	t.Helper()

	teacher := models.Teacher{Name: "Bu Sari", Email: "sari@example.com"}
	require.NoError(t, db.Create(&teacher).Error)

	student := models.Student{Name: "Andi", Email: "andi@example.com"}
	require.NoError(t, db.Create(&student).Error)

	assignment := models.Assignment{
		TeacherID:         teacher.ID,
		Title:             "Menulis Cerpen",
		Description:       "Tulis cerpen bertema lingkungan",
		AllowResubmission: allowResubmission,
		MaxResubmissions:  maxResubmissions,
		Published:         true,
	}
	require.NoError(t, db.Create(&assignment).Error)

	return assignment
}

func newSubmissionServiceForTest(t *testing.T, db *gorm.DB, cache *redis.Client) SubmissionService {
	t.Helper()

	return NewSubmissionService(
		repository.NewSubmissionRepository(db),
		repository.NewAssignmentRepository(db),
		validator.New(validator.WithRequiredStructEnabled()),
		nil,
		"",
		cache,
		zerolog.Nop(),
	)
}

func TestSubmitFirstAttempt(t *testing.T) {
	db := newTestDB(t)
	assignment := seedPublishedAssignment(t, db, false, 0)
	svc := newSubmissionServiceForTest(t, db, nil)

	response, err := svc.Submit(context.Background(), dto.SubmitAssignmentRequest{
		AssignmentID: assignment.ID,
		StudentID:    1,
		TextResponse: "Jawaban pertama",
		Version:      1,
	})
	require.NoError(t, err)
	require.NotZero(t, response.ID)
	require.Equal(t, 1, response.Version)
	require.False(t, response.IsDraft)
	require.NotNil(t, response.SubmittedAt)
	require.Nil(t, response.RevisedAt)
}

func TestSubmitDraftKeepsSubmittedAtEmpty(t *testing.T) {
	db := newTestDB(t)
	assignment := seedPublishedAssignment(t, db, false, 0)
	svc := newSubmissionServiceForTest(t, db, nil)

	response, err := svc.Submit(context.Background(), dto.SubmitAssignmentRequest{
		AssignmentID: assignment.ID,
		StudentID:    1,
		TextResponse: "Masih dikerjakan",
		IsDraft:      true,
		Version:      1,
	})
	require.NoError(t, err)
	require.True(t, response.IsDraft)
	require.Nil(t, response.SubmittedAt)
}

func TestSubmitRejectsUnknownAssignment(t *testing.T) {
	db := newTestDB(t)
	svc := newSubmissionServiceForTest(t, db, nil)

	_, err := svc.Submit(context.Background(), dto.SubmitAssignmentRequest{
		AssignmentID: 999,
		StudentID:    1,
		Version:      1,
	})
	require.ErrorIs(t, err, ErrAssignmentNotFound)
}

func TestSubmitRejectsUnpublishedAssignment(t *testing.T) {
	db := newTestDB(t)
	assignment := seedPublishedAssignment(t, db, false, 0)
	require.NoError(t, db.Model(&models.Assignment{}).Where("id = ?", assignment.ID).Update("published", false).Error)

	svc := newSubmissionServiceForTest(t, db, nil)
	_, err := svc.Submit(context.Background(), dto.SubmitAssignmentRequest{
		AssignmentID: assignment.ID,
		StudentID:    1,
		Version:      1,
	})
	require.ErrorIs(t, err, ErrAssignmentNotFound)
}

func TestSubmitResubmissionDisabled(t *testing.T) {
	db := newTestDB(t)
	assignment := seedPublishedAssignment(t, db, false, 0)
	svc := newSubmissionServiceForTest(t, db, nil)
	ctx := context.Background()

	_, err := svc.Submit(ctx, dto.SubmitAssignmentRequest{
		AssignmentID: assignment.ID,
		StudentID:    1,
		Version:      1,
	})
	require.NoError(t, err)

	_, err = svc.Submit(ctx, dto.SubmitAssignmentRequest{
		AssignmentID: assignment.ID,
		StudentID:    1,
		Version:      2,
	})
	require.ErrorIs(t, err, ErrResubmissionNotAllowed)
}

func TestSubmitCeilingBlocksRevisionButNotDraft(t *testing.T) {
	db := newTestDB(t)
	assignment := seedPublishedAssignment(t, db, true, 2)
	svc := newSubmissionServiceForTest(t, db, nil)
	ctx := context.Background()

	for version := 1; version <= 2; version++ {
		_, err := svc.Submit(ctx, dto.SubmitAssignmentRequest{
			AssignmentID: assignment.ID,
			StudentID:    1,
			Version:      version,
		})
		require.NoError(t, err)
	}

	_, err := svc.Submit(ctx, dto.SubmitAssignmentRequest{
		AssignmentID: assignment.ID,
		StudentID:    1,
		Version:      3,
	})
	require.ErrorIs(t, err, ErrResubmissionLimitReached)

	// Drafts stay writable past the ceiling.
	draft, err := svc.Submit(ctx, dto.SubmitAssignmentRequest{
		AssignmentID: assignment.ID,
		StudentID:    1,
		IsDraft:      true,
		Version:      3,
	})
	require.NoError(t, err)
	require.True(t, draft.IsDraft)
}

func TestSubmitSanitizesAndNormalizesPayload(t *testing.T) {
	db := newTestDB(t)
	assignment := seedPublishedAssignment(t, db, false, 0)
	svc := newSubmissionServiceForTest(t, db, nil).(*submissionService)
	svc.newToken = func() string { return "generated-id" }

	response, err := svc.Submit(context.Background(), dto.SubmitAssignmentRequest{
		AssignmentID: assignment.ID,
		StudentID:    1,
		TextResponse: `Cerita saya <script>alert("x")</script>selesai`,
		DocumentURLs: []string{" https://cdn.example.com/doc.pdf ", "", "   "},
		Checklist: []criteria.ChecklistItem{
			{Text: "  Baca ulang  ", Checked: true},
			{Text: "   "},
			{ID: "keep-me", Text: "Lampirkan foto"},
		},
		Version: 1,
	})
	require.NoError(t, err)
	require.NotContains(t, response.TextResponse, "<script>")
	require.Contains(t, response.TextResponse, "Cerita saya")
	require.Equal(t, []string{"https://cdn.example.com/doc.pdf"}, response.DocumentURLs)
	require.Equal(t, []criteria.ChecklistItem{
		{ID: "generated-id", Text: "Baca ulang", Checked: true},
		{ID: "keep-me", Text: "Lampirkan foto"},
	}, response.Checklist)
}

func TestSubmitPromotesDraftInPlace(t *testing.T) {
	db := newTestDB(t)
	assignment := seedPublishedAssignment(t, db, false, 0)
	svc := newSubmissionServiceForTest(t, db, nil)
	ctx := context.Background()

	draft, err := svc.Submit(ctx, dto.SubmitAssignmentRequest{
		AssignmentID: assignment.ID,
		StudentID:    1,
		TextResponse: "Draf",
		IsDraft:      true,
		Version:      1,
	})
	require.NoError(t, err)

	final, err := svc.Submit(ctx, dto.SubmitAssignmentRequest{
		AssignmentID: assignment.ID,
		StudentID:    1,
		TextResponse: "Versi final",
		Version:      1,
		SubmissionID: &draft.ID,
	})
	require.NoError(t, err)
	require.Equal(t, draft.ID, final.ID)
	require.False(t, final.IsDraft)
	require.NotNil(t, final.SubmittedAt)
	require.Nil(t, final.RevisedAt)
}

func TestSubmitOverwriteSetsRevisedAt(t *testing.T) {
	db := newTestDB(t)
	assignment := seedPublishedAssignment(t, db, true, 0)
	svc := newSubmissionServiceForTest(t, db, nil)
	ctx := context.Background()

	original, err := svc.Submit(ctx, dto.SubmitAssignmentRequest{
		AssignmentID: assignment.ID,
		StudentID:    1,
		TextResponse: "Versi awal",
		Version:      1,
	})
	require.NoError(t, err)

	revised, err := svc.Submit(ctx, dto.SubmitAssignmentRequest{
		AssignmentID: assignment.ID,
		StudentID:    1,
		TextResponse: "Versi diperbaiki",
		Version:      1,
		SubmissionID: &original.ID,
	})
	require.NoError(t, err)
	require.Equal(t, original.ID, revised.ID)
	require.NotNil(t, revised.RevisedAt)
	require.Equal(t, "Versi diperbaiki", revised.TextResponse)
}

func TestSubmitOverwriteRejectsVersionChange(t *testing.T) {
	db := newTestDB(t)
	assignment := seedPublishedAssignment(t, db, true, 0)
	svc := newSubmissionServiceForTest(t, db, nil)
	ctx := context.Background()

	original, err := svc.Submit(ctx, dto.SubmitAssignmentRequest{
		AssignmentID: assignment.ID,
		StudentID:    1,
		Version:      1,
	})
	require.NoError(t, err)

	_, err = svc.Submit(ctx, dto.SubmitAssignmentRequest{
		AssignmentID: assignment.ID,
		StudentID:    1,
		Version:      2,
		SubmissionID: &original.ID,
	})
	require.ErrorIs(t, err, ErrVersionMismatch)
}

func TestSubmitRejectsForeignSubmission(t *testing.T) {
	db := newTestDB(t)
	assignment := seedPublishedAssignment(t, db, true, 0)
	svc := newSubmissionServiceForTest(t, db, nil)
	ctx := context.Background()

	other, err := svc.Submit(ctx, dto.SubmitAssignmentRequest{
		AssignmentID: assignment.ID,
		StudentID:    2,
		Version:      1,
	})
	require.NoError(t, err)

	_, err = svc.Submit(ctx, dto.SubmitAssignmentRequest{
		AssignmentID: assignment.ID,
		StudentID:    1,
		Version:      1,
		SubmissionID: &other.ID,
	})
	require.ErrorIs(t, err, ErrSubmissionNotFound)
}

func TestSubmitInvalidatesDetailCache(t *testing.T) {
	mini, err := miniredis.Run()
	require.NoError(t, err)
	defer mini.Close()

	cache := redis.NewClient(&redis.Options{Addr: mini.Addr()})

	db := newTestDB(t)
	assignment := seedPublishedAssignment(t, db, false, 0)
	svc := newSubmissionServiceForTest(t, db, cache)
	ctx := context.Background()

	key := DetailCacheKey(assignment.ID, 1)
	require.NoError(t, cache.Set(ctx, key, "stale", time.Minute).Err())

	_, err = svc.Submit(ctx, dto.SubmitAssignmentRequest{
		AssignmentID: assignment.ID,
		StudentID:    1,
		Version:      1,
	})
	require.NoError(t, err)

	exists, err := cache.Exists(ctx, key).Result()
	require.NoError(t, err)
	require.Zero(t, exists)
}
