package lifecycle

import (
	"strings"
	"time"
)

// Status is the derived lifecycle state of a student's work on an assignment.
// It is never stored; every read recomputes it from the submission and
// evaluation rows so there is no second source of truth to drift.
type Status string

const (
	StatusNotSubmitted  Status = "not_submitted"
	StatusDraft         Status = "draft"
	StatusSubmitted     Status = "submitted"
	StatusCompleted     Status = "completed"
	StatusNeedsRevision Status = "needs_revision"
	StatusOverdue       Status = "overdue"
)

// RevisionScoreThreshold is the total score below which a graded submission
// is routed back for revision.
const RevisionScoreThreshold = 70

// revisionMarker in the general feedback forces needs_revision regardless of
// the numeric total ("revisi" covers the Indonesian revision phrasings).
const revisionMarker = "revisi"

// StatusInput carries everything the resolver consults. TotalScore and
// GeneralFeedback are only read when HasEvaluation is true; an unparseable
// score document must be passed as 0 so grading conservatively routes toward
// revision.
type StatusInput struct {
	HasSubmission   bool
	LatestIsDraft   bool
	HasEvaluation   bool
	DueDate         *time.Time
	Now             time.Time
	TotalScore      float64
	GeneralFeedback string
}

// IsOverdue reports whether the due date is set and has passed.
func (in StatusInput) IsOverdue() bool {
	return in.DueDate != nil && in.Now.After(*in.DueDate)
}

// ResolveStatus derives the single authoritative status. The rules are
// evaluated in precedence order; the first match wins, so the function is
// total over every reachable input combination.
func ResolveStatus(in StatusInput) Status {
	if !in.HasSubmission {
		if in.IsOverdue() {
			return StatusOverdue
		}
		return StatusNotSubmitted
	}

	if in.LatestIsDraft {
		return StatusDraft
	}

	if !in.HasEvaluation {
		return StatusSubmitted
	}

	if needsRevision(in.TotalScore, in.GeneralFeedback) {
		return StatusNeedsRevision
	}
	return StatusCompleted
}

func needsRevision(totalScore float64, generalFeedback string) bool {
	if totalScore < RevisionScoreThreshold {
		return true
	}
	return strings.Contains(strings.ToLower(generalFeedback), revisionMarker)
}

// CanSubmit derives the advisory submit-eligibility flag shown to students.
// The authoritative gate is the resubmission policy applied at write time; the
// two must agree in all non-degenerate cases.
func CanSubmit(status Status, allowResubmission, overdue bool) bool {
	switch status {
	case StatusNotSubmitted, StatusDraft:
		return true
	case StatusNeedsRevision:
		return allowResubmission
	case StatusSubmitted:
		return !overdue
	default:
		return false
	}
}
