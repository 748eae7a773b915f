package services

import (
	"time"

	"referral-tracking-api/models"
)

var candidateTypes = map[string]bool{
	models.CandidateIntern:   true,
	models.CandidateFullTime: true,
}

var referralReasons = map[string]bool{
	models.ReasonPersonalConnection: true,
	models.ReasonTalentBased:        true,
}

var reviewDecisions = map[string]bool{
	models.DecisionRejected:   true,
	models.DecisionConsidered: true,
}

var evaluationStages = map[string]bool{
	models.StageTest:  true,
	models.StageT1:    true,
	models.StageT2:    true,
	models.StageT3:    true,
	models.StageHR:    true,
	models.StageOther: true,
}

var evaluationStatuses = map[string]bool{
	models.EvaluationInProgress: true,
	models.EvaluationAccepted:   true,
	models.EvaluationRejected:   true,
}

// hrVisibleStatuses are the statuses listed on the HR evaluation screen.
var hrVisibleStatuses = []string{
	models.StatusConsidered,
	models.StatusFinalAccepted,
	models.StatusFinalRejected,
}

// applySBUDecision moves the referral to the state targeted by an SBU decision.
// decision must already be validated.
func applySBUDecision(referral *models.Referral, decision, comment string, at time.Time) {
	switch decision {
	case models.DecisionRejected:
		referral.SetRejected(models.StatusRejected, models.RejectionStageSBU, comment)
	case models.DecisionConsidered:
		referral.ClearRejection(models.StatusConsidered)
	}
	referral.ConsideredAt = &at
}

// applyHRStatus moves the referral to the terminal state of an HR evaluation.
// IN_PROGRESS keeps the current status.
func applyHRStatus(referral *models.Referral, status, comment string, at time.Time) {
	switch status {
	case models.EvaluationAccepted:
		referral.ClearRejection(models.StatusFinalAccepted)
	case models.EvaluationRejected:
		referral.SetRejected(models.StatusFinalRejected, models.RejectionStageHR, comment)
	}
	referral.FinalAt = &at
}

// reviewPurposes picks the referrer and HR notifications for an SBU decision.
// previous is the reviewer's decision before an update, or "" for a fresh
// submission. An empty hr result means HR is not notified.
func reviewPurposes(previous, decision string) (referrer, hr string) {
	switch decision {
	case models.DecisionRejected:
		referrer = models.PurposeCVRejectedSBU
		if previous == models.DecisionConsidered {
			hr = models.PurposeCVRevokedBySBU
		}
	case models.DecisionConsidered:
		referrer = models.PurposeCVApprovedSBU
		if previous != models.DecisionConsidered {
			hr = models.PurposeCVToHR
		}
	}
	return referrer, hr
}

// evaluationPurpose returns the notification for an HR status, "" for none.
func evaluationPurpose(status string) string {
	switch status {
	case models.EvaluationAccepted:
		return models.PurposeCVApprovedHR
	case models.EvaluationRejected:
		return models.PurposeCVRejectedHR
	}
	return ""
}

// latestReview returns the newest review by reviewed_at (id breaks ties).
func latestReview(reviews []models.Review) *models.Review {
	var latest *models.Review
	for i := range reviews {
		r := &reviews[i]
		if latest == nil || r.ReviewedAt.After(latest.ReviewedAt) ||
			(r.ReviewedAt.Equal(latest.ReviewedAt) && r.ID > latest.ID) {
			latest = r
		}
	}
	return latest
}

// lastWrittenReview returns the review touched most recently, counting in-place updates.
func lastWrittenReview(reviews []models.Review) *models.Review {
	var latest *models.Review
	for i := range reviews {
		r := &reviews[i]
		if latest == nil || r.UpdatedAt.After(latest.UpdatedAt) ||
			(r.UpdatedAt.Equal(latest.UpdatedAt) && r.ID > latest.ID) {
			latest = r
		}
	}
	return latest
}

func latestEvaluation(evals []models.HREvaluation) *models.HREvaluation {
	var latest *models.HREvaluation
	for i := range evals {
		e := &evals[i]
		if latest == nil || e.UpdatedAt.After(latest.UpdatedAt) ||
			(e.UpdatedAt.Equal(latest.UpdatedAt) && e.ID > latest.ID) {
			latest = e
		}
	}
	return latest
}

// firstEvaluation is the row UpdateEvaluation mutates.
func firstEvaluation(evals []models.HREvaluation) *models.HREvaluation {
	var first *models.HREvaluation
	for i := range evals {
		if first == nil || evals[i].ID < first.ID {
			first = &evals[i]
		}
	}
	return first
}
