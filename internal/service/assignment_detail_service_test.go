package service

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/kelaskita/kelaskita-api/internal/criteria"
	"github.com/kelaskita/kelaskita-api/internal/lifecycle"
	"github.com/kelaskita/kelaskita-api/internal/models"
	"github.com/kelaskita/kelaskita-api/internal/repository"
)

func newDetailServiceForTest(t *testing.T, db *gorm.DB, cache *redis.Client) AssignmentDetailService {
	t.Helper()

	return NewAssignmentDetailService(
		repository.NewAssignmentRepository(db),
		repository.NewActivityRepository(db),
		repository.NewRubricRepository(db),
		repository.NewTeacherRepository(db),
		repository.NewSubmissionRepository(db),
		repository.NewEvaluationRepository(db),
		cache,
		time.Minute,
		zerolog.Nop(),
	)
}

func TestGetDetailUnknownAssignmentYieldsNil(t *testing.T) {
	db := newTestDB(t)
	svc := newDetailServiceForTest(t, db, nil)

	detail, err := svc.GetDetail(context.Background(), 42, 1)
	require.NoError(t, err)
	require.Nil(t, detail)
}

func TestGetDetailUnpublishedAssignmentYieldsNil(t *testing.T) {
	db := newTestDB(t)
	assignment := seedPublishedAssignment(t, db, false, 0)
	require.NoError(t, db.Model(&models.Assignment{}).Where("id = ?", assignment.ID).Update("published", false).Error)

	svc := newDetailServiceForTest(t, db, nil)
	detail, err := svc.GetDetail(context.Background(), assignment.ID, 1)
	require.NoError(t, err)
	require.Nil(t, detail)
}

func TestGetDetailNotSubmitted(t *testing.T) {
	db := newTestDB(t)
	assignment := seedPublishedAssignment(t, db, false, 0)
	svc := newDetailServiceForTest(t, db, nil)

	detail, err := svc.GetDetail(context.Background(), assignment.ID, 1)
	require.NoError(t, err)
	require.NotNil(t, detail)
	require.Equal(t, lifecycle.StatusNotSubmitted, detail.Status)
	require.True(t, detail.CanSubmit)
	require.False(t, detail.IsOverdue)
	require.False(t, detail.HasEvaluation)
	require.Zero(t, detail.SubmissionCount)
	require.Nil(t, detail.LatestSubmission)
	require.Empty(t, detail.StudentSubmissions)
	require.NotNil(t, detail.Teacher)
	require.Equal(t, "Bu Sari", detail.Teacher.Name)
}

func TestGetDetailOverdueWithoutSubmission(t *testing.T) {
	db := newTestDB(t)
	assignment := seedPublishedAssignment(t, db, false, 0)
	past := time.Now().UTC().Add(-48 * time.Hour)
	require.NoError(t, db.Model(&models.Assignment{}).Where("id = ?", assignment.ID).Update("due_date", past).Error)

	svc := newDetailServiceForTest(t, db, nil)
	detail, err := svc.GetDetail(context.Background(), assignment.ID, 1)
	require.NoError(t, err)
	require.Equal(t, lifecycle.StatusOverdue, detail.Status)
	require.True(t, detail.IsOverdue)
	require.False(t, detail.CanSubmit)
}

func TestGetDetailDraftInProgress(t *testing.T) {
	db := newTestDB(t)
	assignment := seedPublishedAssignment(t, db, false, 0)
	draft := models.Submission{AssignmentID: assignment.ID, StudentID: 1, Version: 1, IsDraft: true}
	require.NoError(t, db.Create(&draft).Error)

	svc := newDetailServiceForTest(t, db, nil)
	detail, err := svc.GetDetail(context.Background(), assignment.ID, 1)
	require.NoError(t, err)
	require.Equal(t, lifecycle.StatusDraft, detail.Status)
	require.True(t, detail.CanSubmit)
	require.Zero(t, detail.SubmissionCount)
	require.NotNil(t, detail.LatestSubmission)
	require.True(t, detail.LatestSubmission.IsDraft)
}

func TestGetDetailSubmittedAwaitingEvaluation(t *testing.T) {
	db := newTestDB(t)
	assignment := seedPublishedAssignment(t, db, true, 1)
	now := time.Now().UTC()
	submission := models.Submission{AssignmentID: assignment.ID, StudentID: 1, Version: 1, SubmittedAt: &now}
	require.NoError(t, db.Create(&submission).Error)

	svc := newDetailServiceForTest(t, db, nil)
	detail, err := svc.GetDetail(context.Background(), assignment.ID, 1)
	require.NoError(t, err)
	require.Equal(t, lifecycle.StatusSubmitted, detail.Status)
	require.Equal(t, 1, detail.SubmissionCount)
	require.True(t, detail.MaxResubmissionsReached)
	require.False(t, detail.HasEvaluation)
}

func TestGetDetailCompletedWithRubric(t *testing.T) {
	db := newTestDB(t)
	assignment := seedPublishedAssignment(t, db, true, 0)

	rubric := models.Rubric{
		Title:    "Rubrik Cerpen",
		MaxScore: 100,
		Criteria: criteria.EncodeDocument(criteria.Document{
			"isi":      {Name: "Isi", Weight: 60},
			"kerapian": {Name: "Kerapian", Weight: 40},
		}),
	}
	require.NoError(t, db.Create(&rubric).Error)
	require.NoError(t, db.Model(&models.Assignment{}).Where("id = ?", assignment.ID).Update("rubric_id", rubric.ID).Error)

	now := time.Now().UTC()
	submission := models.Submission{AssignmentID: assignment.ID, StudentID: 1, Version: 1, SubmittedAt: &now}
	require.NoError(t, db.Create(&submission).Error)

	evaluation := models.Evaluation{
		SubmissionID:     submission.ID,
		TeacherID:        assignment.TeacherID,
		Scores:           criteria.EncodeScores(criteria.ScoreSet{"isi": {Score: 50}, "kerapian": {Score: 35}}),
		CriteriaFeedback: criteria.EncodeFeedback(criteria.FeedbackSet{"isi": "Lengkap"}),
		GeneralFeedback:  "Bagus sekali",
	}
	require.NoError(t, db.Create(&evaluation).Error)

	svc := newDetailServiceForTest(t, db, nil)
	detail, err := svc.GetDetail(context.Background(), assignment.ID, 1)
	require.NoError(t, err)
	require.Equal(t, lifecycle.StatusCompleted, detail.Status)
	require.False(t, detail.CanSubmit)
	require.True(t, detail.HasEvaluation)
	require.Equal(t, float64(85), detail.EvaluationTotal)
	require.Equal(t, "Lengkap", detail.EvaluationFeedback["isi"])
	require.NotNil(t, detail.Rubric)
	require.Len(t, detail.RubricCriteria, 2)
	require.Equal(t, float64(100), detail.RubricCriteria.TotalWeight())
	require.NotNil(t, detail.Evaluation)
	require.Equal(t, float64(85), detail.Evaluation.Total)
}

func TestGetDetailNeedsRevision(t *testing.T) {
	db := newTestDB(t)
	assignment := seedPublishedAssignment(t, db, true, 0)

	now := time.Now().UTC()
	submission := models.Submission{AssignmentID: assignment.ID, StudentID: 1, Version: 1, SubmittedAt: &now}
	require.NoError(t, db.Create(&submission).Error)

	evaluation := models.Evaluation{
		SubmissionID:    submission.ID,
		TeacherID:       assignment.TeacherID,
		Scores:          criteria.EncodeScores(criteria.ScoreSet{"isi": {Score: 60}}),
		GeneralFeedback: "Kerja bagus",
	}
	require.NoError(t, db.Create(&evaluation).Error)

	svc := newDetailServiceForTest(t, db, nil)
	detail, err := svc.GetDetail(context.Background(), assignment.ID, 1)
	require.NoError(t, err)
	require.Equal(t, lifecycle.StatusNeedsRevision, detail.Status)
	require.True(t, detail.CanSubmit)
}

func TestGetDetailRevisionMarkerOverridesScore(t *testing.T) {
	db := newTestDB(t)
	assignment := seedPublishedAssignment(t, db, true, 0)

	now := time.Now().UTC()
	submission := models.Submission{AssignmentID: assignment.ID, StudentID: 1, Version: 1, SubmittedAt: &now}
	require.NoError(t, db.Create(&submission).Error)

	evaluation := models.Evaluation{
		SubmissionID:    submission.ID,
		TeacherID:       assignment.TeacherID,
		Scores:          criteria.EncodeScores(criteria.ScoreSet{"isi": {Score: 90}}),
		GeneralFeedback: "Perlu revisi bagian penutup",
	}
	require.NoError(t, db.Create(&evaluation).Error)

	svc := newDetailServiceForTest(t, db, nil)
	detail, err := svc.GetDetail(context.Background(), assignment.ID, 1)
	require.NoError(t, err)
	require.Equal(t, lifecycle.StatusNeedsRevision, detail.Status)
}

func TestGetDetailMalformedScoresTreatedAsZero(t *testing.T) {
	db := newTestDB(t)
	assignment := seedPublishedAssignment(t, db, true, 0)

	now := time.Now().UTC()
	submission := models.Submission{AssignmentID: assignment.ID, StudentID: 1, Version: 1, SubmittedAt: &now}
	require.NoError(t, db.Create(&submission).Error)

	evaluation := models.Evaluation{
		SubmissionID:    submission.ID,
		TeacherID:       assignment.TeacherID,
		Scores:          []byte(`{"isi": "tinggi"}`),
		GeneralFeedback: "Bagus",
	}
	require.NoError(t, db.Create(&evaluation).Error)

	svc := newDetailServiceForTest(t, db, nil)
	detail, err := svc.GetDetail(context.Background(), assignment.ID, 1)
	require.NoError(t, err)
	require.Equal(t, lifecycle.StatusNeedsRevision, detail.Status)
	require.Zero(t, detail.EvaluationTotal)
	require.Empty(t, detail.EvaluationScores)
}

func TestGetDetailEvaluationIgnoredWhenLatestIsDraft(t *testing.T) {
	db := newTestDB(t)
	assignment := seedPublishedAssignment(t, db, true, 0)

	now := time.Now().UTC()
	submitted := models.Submission{AssignmentID: assignment.ID, StudentID: 1, Version: 1, SubmittedAt: &now}
	require.NoError(t, db.Create(&submitted).Error)

	evaluation := models.Evaluation{
		SubmissionID: submitted.ID,
		TeacherID:    assignment.TeacherID,
		Scores:       criteria.EncodeScores(criteria.ScoreSet{"isi": {Score: 90}}),
	}
	require.NoError(t, db.Create(&evaluation).Error)

	draft := models.Submission{AssignmentID: assignment.ID, StudentID: 1, Version: 2, IsDraft: true}
	require.NoError(t, db.Create(&draft).Error)

	svc := newDetailServiceForTest(t, db, nil)
	detail, err := svc.GetDetail(context.Background(), assignment.ID, 1)
	require.NoError(t, err)
	// A submitted version outranks a newer draft; the evaluation still applies.
	require.Equal(t, lifecycle.StatusCompleted, detail.Status)
	require.Equal(t, 1, detail.LatestSubmission.Version)
	require.Len(t, detail.StudentSubmissions, 2)
}

func TestGetDetailServesFromCache(t *testing.T) {
	mini, err := miniredis.Run()
	require.NoError(t, err)
	defer mini.Close()

	cache := redis.NewClient(&redis.Options{Addr: mini.Addr()})

	db := newTestDB(t)
	assignment := seedPublishedAssignment(t, db, false, 0)
	svc := newDetailServiceForTest(t, db, cache)
	ctx := context.Background()

	first, err := svc.GetDetail(ctx, assignment.ID, 1)
	require.NoError(t, err)
	require.Equal(t, lifecycle.StatusNotSubmitted, first.Status)
	require.True(t, mini.Exists(DetailCacheKey(assignment.ID, 1)))

	// A write that bypasses the service does not show up until the key expires.
	now := time.Now().UTC()
	submission := models.Submission{AssignmentID: assignment.ID, StudentID: 1, Version: 1, SubmittedAt: &now}
	require.NoError(t, db.Create(&submission).Error)

	second, err := svc.GetDetail(ctx, assignment.ID, 1)
	require.NoError(t, err)
	require.Equal(t, lifecycle.StatusNotSubmitted, second.Status)

	mini.Del(DetailCacheKey(assignment.ID, 1))
	third, err := svc.GetDetail(ctx, assignment.ID, 1)
	require.NoError(t, err)
	require.Equal(t, lifecycle.StatusSubmitted, third.Status)
}
