// Package lifecycle contains the pure decision logic of the submission
// lifecycle: the resubmission policy and the derived status resolver. Nothing
// here touches storage; both sides of the system (read and write) evaluate the
// same rules so they cannot drift apart.
package lifecycle

// ResubmissionPolicy mirrors the assignment's resubmission configuration.
// MaxResubmissions is only meaningful when AllowResubmission is true.
type ResubmissionPolicy struct {
	AllowResubmission bool
	MaxResubmissions  int
}

// ResubmissionDecision is the outcome of evaluating the policy against a
// student's non-draft submission count and the version about to be written.
type ResubmissionDecision struct {
	// CeilingReached is true when the configured ceiling is set and the
	// student has already used up every permitted non-draft submission.
	CeilingReached bool
	// IsFinalAttempt marks the last permitted attempt. It warns the student
	// before they act; it never blocks the write.
	IsFinalAttempt bool

	allow        bool
	nonDraft     int
	firstAttempt bool
}

// EvaluateResubmission applies the policy. nonDraftCount is the number of the
// student's non-draft submissions for the assignment, attemptedVersion the
// version a new non-draft save would carry.
func EvaluateResubmission(policy ResubmissionPolicy, nonDraftCount, attemptedVersion int) ResubmissionDecision {
	return ResubmissionDecision{
		CeilingReached: policy.AllowResubmission && policy.MaxResubmissions > 0 && nonDraftCount >= policy.MaxResubmissions,
		IsFinalAttempt: policy.AllowResubmission && policy.MaxResubmissions > 0 && attemptedVersion == policy.MaxResubmissions,
		allow:          policy.AllowResubmission,
		nonDraft:       nonDraftCount,
		firstAttempt:   nonDraftCount == 0,
	}
}

// CanWrite reports whether a save with the given draft flag is permitted.
// Drafts are always allowed. When resubmission is disabled exactly one
// non-draft submission is ever accepted; otherwise non-draft writes pass until
// the ceiling is reached and the write is a revision rather than the first
// submission.
func (d ResubmissionDecision) CanWrite(isDraft bool) bool {
	if isDraft {
		return true
	}
	if !d.allow {
		return d.firstAttempt
	}
	if d.CeilingReached && !d.firstAttempt {
		return false
	}
	return true
}
