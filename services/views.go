package services

import (
	"context"
	"strings"
	"time"

	"referral-tracking-api/models"
	"referral-tracking-api/repository"
)

type PersonSummary struct {
	EmpID string `json:"emp_id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type SBUSummary struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type ReviewSummary struct {
	Decision   string    `json:"decision"`
	Comment    string    `json:"comment"`
	ReviewedAt time.Time `json:"reviewed_at"`
	ReviewedBy string    `json:"reviewed_by"`
}

type EvaluationSummary struct {
	Stage     string    `json:"stage"`
	Status    string    `json:"status"`
	Comment   string    `json:"comment"`
	UpdatedAt time.Time `json:"updated_at"`
	UpdatedBy string    `json:"updated_by"`
}

// ReferralView is a referral joined with its latest review and HR evaluation.
type ReferralView struct {
	ID                 uint               `json:"id"`
	CandidateName      string             `json:"candidate_name"`
	CandidateType      string             `json:"candidate_type"`
	ReferralReasonType string             `json:"referral_reason_type"`
	SubmittedAt        time.Time          `json:"submitted_at"`
	CurrentStatus      string             `json:"current_status"`
	RejectionStage     *string            `json:"rejection_stage"`
	RejectionReason    *string            `json:"rejection_reason"`
	CVURL              string             `json:"cv_url"`
	SBUs               []SBUSummary       `json:"sbus"`
	AdditionalComment  *string            `json:"additional_comment"`
	Referrer           PersonSummary      `json:"referrer"`
	ConsideredAt       *time.Time         `json:"considered_at"`
	FinalAt            *time.Time         `json:"final_at"`
	Review             *ReviewSummary     `json:"review"`
	HREvaluation       *EvaluationSummary `json:"hr_evaluation"`
}

// ListByReferrer returns the employee's referrals, newest first.
func (w *ReferralWorkflow) ListByReferrer(ctx context.Context, empID string) ([]ReferralView, error) {
	empID = strings.TrimSpace(empID)
	if empID == "" {
		return nil, invalid("Missing emp_id")
	}
	user, err := w.findUser(ctx, w.store, empID, "user")
	if err != nil {
		return nil, err
	}
	referrals, err := w.store.ListReferrals(ctx, repository.ReferralFilter{ReferrerEmpID: user.EmpID})
	if err != nil {
		return nil, storeErr("list referrals", "referral", err)
	}
	return w.buildViews(ctx, referrals, nil)
}

// buildViews projects referrals. With a reviewer, the review shown is that
// reviewer's own latest one; otherwise the latest review of any reviewer.
func (w *ReferralWorkflow) buildViews(ctx context.Context, referrals []models.Referral, reviewer *models.User) ([]ReferralView, error) {
	views := make([]ReferralView, 0, len(referrals))
	if len(referrals) == 0 {
		return views, nil
	}

	ids := make([]uint, len(referrals))
	for i, r := range referrals {
		ids[i] = r.ID
	}

	reviews, err := w.store.ListReviews(ctx, ids...)
	if err != nil {
		return nil, storeErr("list reviews", "review", err)
	}
	evals, err := w.store.ListEvaluations(ctx, ids...)
	if err != nil {
		return nil, storeErr("list evaluations", "evaluation", err)
	}

	reviewsByReferral := make(map[uint][]models.Review, len(referrals))
	for _, r := range reviews {
		if reviewer != nil && r.ReviewerID != reviewer.ID {
			continue
		}
		reviewsByReferral[r.ReferralID] = append(reviewsByReferral[r.ReferralID], r)
	}
	evalsByReferral := make(map[uint][]models.HREvaluation, len(referrals))
	for _, e := range evals {
		evalsByReferral[e.ReferralID] = append(evalsByReferral[e.ReferralID], e)
	}

	for _, r := range referrals {
		view := ReferralView{
			ID:                 r.ID,
			CandidateName:      r.CandidateName,
			CandidateType:      r.CandidateType,
			ReferralReasonType: r.ReferralReasonType,
			SubmittedAt:        r.SubmittedAt,
			CurrentStatus:      r.CurrentStatus,
			RejectionStage:     r.RejectionStage,
			RejectionReason:    r.RejectionReason,
			CVURL:              r.CVURL,
			SBUs:               make([]SBUSummary, 0, len(r.SBUs)),
			AdditionalComment:  r.AdditionalComment,
			Referrer: PersonSummary{
				EmpID: r.Referrer.EmpID,
				Name:  r.Referrer.Name,
				Email: r.Referrer.Email,
			},
		}
		for _, s := range r.SBUs {
			view.SBUs = append(view.SBUs, SBUSummary{Name: s.Name, Email: s.Email})
		}

		if review := latestReview(reviewsByReferral[r.ID]); review != nil {
			summary := &ReviewSummary{
				Decision:   review.Decision,
				Comment:    review.Comment,
				ReviewedAt: review.ReviewedAt,
			}
			if review.Reviewer != nil {
				summary.ReviewedBy = review.Reviewer.Name
			}
			view.Review = summary
			at := review.ReviewedAt
			view.ConsideredAt = &at
		}

		if eval := latestEvaluation(evalsByReferral[r.ID]); eval != nil {
			summary := &EvaluationSummary{
				Stage:     eval.Stage,
				Status:    eval.Status,
				Comment:   eval.Comment,
				UpdatedAt: eval.UpdatedAt,
			}
			if eval.UpdatedBy != nil {
				summary.UpdatedBy = eval.UpdatedBy.Name
			}
			view.HREvaluation = summary
			at := eval.UpdatedAt
			view.FinalAt = &at
		}

		views = append(views, view)
	}
	return views, nil
}
