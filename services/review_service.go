package services

import (
	"context"
	"errors"
	"log"
	"strings"

	"referral-tracking-api/models"
	"referral-tracking-api/repository"
)

type ReviewInput struct {
	ReferralID uint
	EmpID      string
	Decision   string
	Comment    string
}

func (in *ReviewInput) normalize() {
	in.EmpID = strings.TrimSpace(in.EmpID)
	in.Decision = strings.ToUpper(strings.TrimSpace(in.Decision))
	in.Comment = strings.TrimSpace(in.Comment)
}

// SubmitReview appends an SBU decision and moves the referral accordingly.
// REJECTED notifies the referrer; CONSIDERED notifies the referrer and HR.
func (w *ReferralWorkflow) SubmitReview(ctx context.Context, in ReviewInput) error {
	in.normalize()
	if in.Decision == "" || in.Comment == "" || in.EmpID == "" {
		return invalid("decision, comment, and emp_id are required")
	}
	if !reviewDecisions[in.Decision] {
		return invalid("Invalid decision")
	}

	var notices []notice
	err := w.store.Transaction(ctx, func(tx repository.Store) error {
		referral, err := w.findReferral(ctx, tx, in.ReferralID)
		if err != nil {
			return err
		}
		reviewer, err := w.findUser(ctx, tx, in.EmpID, "reviewer")
		if err != nil {
			return err
		}
		if referral.IsTerminal() {
			return errFinalized
		}

		now := w.now()
		review := models.Review{
			ReferralID: referral.ID,
			ReviewerID: reviewer.ID,
			Decision:   in.Decision,
			Comment:    in.Comment,
			ReviewedAt: now,
			UpdatedAt:  now,
		}
		if err := tx.CreateReview(ctx, &review); err != nil {
			return storeErr("create review", "review", err)
		}

		applySBUDecision(referral, in.Decision, in.Comment, now)
		if err := tx.UpdateReferral(ctx, referral); err != nil {
			return storeErr("update referral", "referral", err)
		}
		if _, err := w.reconcile(ctx, tx, referral); err != nil {
			return err
		}

		notices, err = w.reviewNotices(ctx, tx, referral, "", in.Decision, in.Comment)
		return err
	})
	if err != nil {
		return err
	}

	w.dispatch(ctx, notices)
	return nil
}

// UpdateReview overwrites the reviewer's latest review. HR hears about it only
// when the decision flips: CONSIDERED to REJECTED sends CV_REVOKED_BY_SBU,
// REJECTED to CONSIDERED sends CV_TO_HR.
func (w *ReferralWorkflow) UpdateReview(ctx context.Context, in ReviewInput) error {
	in.normalize()
	if in.EmpID == "" || in.Decision == "" {
		return invalid("Missing required fields")
	}
	if !reviewDecisions[in.Decision] {
		return invalid("Invalid decision")
	}

	var notices []notice
	err := w.store.Transaction(ctx, func(tx repository.Store) error {
		reviewer, err := w.findUser(ctx, tx, in.EmpID, "reviewer")
		if err != nil {
			return err
		}
		referral, err := w.findReferral(ctx, tx, in.ReferralID)
		if err != nil {
			var nf *NotFoundError
			if errors.As(err, &nf) {
				return &NotFoundError{Entity: "review"}
			}
			return err
		}

		reviews, err := tx.ListReviews(ctx, referral.ID)
		if err != nil {
			return storeErr("list reviews", "review", err)
		}
		review := latestReview(reviewsBy(reviews, reviewer))
		if review == nil {
			return &NotFoundError{Entity: "review"}
		}
		if referral.IsTerminal() {
			return errFinalized
		}

		previous := review.Decision
		now := w.now()
		review.Decision = in.Decision
		review.Comment = in.Comment
		review.UpdatedAt = now
		if err := tx.SaveReview(ctx, review); err != nil {
			return storeErr("update review", "review", err)
		}

		applySBUDecision(referral, in.Decision, in.Comment, now)
		if err := tx.UpdateReferral(ctx, referral); err != nil {
			return storeErr("update referral", "referral", err)
		}
		if _, err := w.reconcile(ctx, tx, referral); err != nil {
			return err
		}

		notices, err = w.reviewNotices(ctx, tx, referral, previous, in.Decision, in.Comment)
		return err
	})
	if err != nil {
		return err
	}

	w.dispatch(ctx, notices)
	return nil
}

var errFinalized = &ConflictError{Message: "HR has already issued a final decision on this referral"}

func (w *ReferralWorkflow) reviewNotices(ctx context.Context, tx repository.Store, referral *models.Referral, previous, decision, comment string) ([]notice, error) {
	referrerPurpose, hrPurpose := reviewPurposes(previous, decision)

	referrerData := w.candidateData(referral, "/")
	if decision == models.DecisionRejected {
		referrerData["reason"] = comment
	}
	notices := []notice{{
		purpose:    referrerPurpose,
		recipients: []string{referral.Referrer.ContactEmail()},
		data:       referrerData,
	}}

	if hrPurpose != "" {
		to, err := hrRecipients(ctx, tx)
		if err != nil {
			return nil, err
		}
		notices = append(notices, notice{
			purpose:    hrPurpose,
			recipients: to,
			data:       w.candidateData(referral, "/hr-evaluation"),
		})
	}
	return notices, nil
}

// ReconcileStatus repairs a referral whose most recently written review is a
// rejection that the stored status does not reflect. Referrals with a final HR
// decision are left alone. It reports whether a repair was written.
func (w *ReferralWorkflow) ReconcileStatus(ctx context.Context, referralID uint) (bool, error) {
	var repaired bool
	err := w.store.Transaction(ctx, func(tx repository.Store) error {
		referral, err := w.findReferral(ctx, tx, referralID)
		if err != nil {
			return err
		}
		repaired, err = w.reconcile(ctx, tx, referral)
		return err
	})
	return repaired, err
}

func (w *ReferralWorkflow) reconcile(ctx context.Context, tx repository.Store, referral *models.Referral) (bool, error) {
	if referral.CurrentStatus == models.StatusRejected || referral.IsTerminal() {
		return false, nil
	}
	reviews, err := tx.ListReviews(ctx, referral.ID)
	if err != nil {
		return false, storeErr("list reviews", "review", err)
	}
	last := lastWrittenReview(reviews)
	if last == nil || last.Decision != models.DecisionRejected {
		return false, nil
	}

	referral.SetRejected(models.StatusRejected, models.RejectionStageSBU, last.Comment)
	if referral.ConsideredAt == nil {
		at := last.ReviewedAt
		referral.ConsideredAt = &at
	}
	if err := tx.UpdateReferral(ctx, referral); err != nil {
		return false, storeErr("reconcile referral", "referral", err)
	}
	log.Printf("referral %d: status repaired to REJECTED from review %d", referral.ID, last.ID)
	return true, nil
}

// CVsForReview lists the referrals routed to the reviewer's SBU, each with the
// reviewer's own latest review. Stale statuses are reconciled before listing.
// With several reviewers the repair follows whichever review was written last,
// so a rejection that another reviewer has since overtaken stays untouched.
func (w *ReferralWorkflow) CVsForReview(ctx context.Context, empID string) ([]ReferralView, error) {
	empID = strings.TrimSpace(empID)
	if empID == "" {
		return nil, invalid("emp_id is required")
	}
	reviewer, err := w.findUser(ctx, w.store, empID, "user")
	if err != nil {
		return nil, err
	}

	referrals, err := w.store.ListReferrals(ctx, repository.ReferralFilter{SBUEmail: reviewer.Email})
	if err != nil {
		return nil, storeErr("list referrals", "referral", err)
	}

	for i := range referrals {
		repaired, err := w.ReconcileStatus(ctx, referrals[i].ID)
		if err != nil {
			return nil, err
		}
		if repaired {
			fresh, err := w.findReferral(ctx, w.store, referrals[i].ID)
			if err != nil {
				return nil, err
			}
			referrals[i] = *fresh
		}
	}

	return w.buildViews(ctx, referrals, reviewer)
}

func reviewsBy(reviews []models.Review, reviewer *models.User) []models.Review {
	out := make([]models.Review, 0, len(reviews))
	for _, r := range reviews {
		if r.ReviewerID == reviewer.ID {
			out = append(out, r)
		}
	}
	return out
}
