package services

import (
	"context"
	"strings"

	"referral-tracking-api/models"
	"referral-tracking-api/repository"
)

type EvaluationInput struct {
	ReferralID uint
	EmpID      string
	Stage      string
	Status     string
	Comment    string
}

func (in *EvaluationInput) validate() error {
	in.EmpID = strings.TrimSpace(in.EmpID)
	in.Stage = strings.ToUpper(strings.TrimSpace(in.Stage))
	in.Status = strings.ToUpper(strings.TrimSpace(in.Status))
	in.Comment = strings.TrimSpace(in.Comment)

	if in.ReferralID == 0 || in.EmpID == "" {
		return invalid("referral_id and emp_id are required")
	}
	if !evaluationStages[in.Stage] {
		return invalid("invalid stage %q", in.Stage)
	}
	if !evaluationStatuses[in.Status] {
		return invalid("invalid status %q", in.Status)
	}
	return nil
}

// SubmitEvaluation records an HR decision. ACCEPTED and REJECTED are final.
func (w *ReferralWorkflow) SubmitEvaluation(ctx context.Context, in EvaluationInput) error {
	if err := in.validate(); err != nil {
		return err
	}

	var notices []notice
	err := w.store.Transaction(ctx, func(tx repository.Store) error {
		referral, err := w.findReferral(ctx, tx, in.ReferralID)
		if err != nil {
			return err
		}
		user, err := w.findUser(ctx, tx, in.EmpID, "user")
		if err != nil {
			return err
		}

		now := w.now()
		eval := models.HREvaluation{
			ReferralID:  referral.ID,
			Stage:       in.Stage,
			Status:      in.Status,
			Comment:     in.Comment,
			UpdatedByID: user.ID,
			UpdatedAt:   now,
		}
		if err := tx.CreateEvaluation(ctx, &eval); err != nil {
			return storeErr("create evaluation", "evaluation", err)
		}

		applyHRStatus(referral, in.Status, in.Comment, now)
		if err := tx.UpdateReferral(ctx, referral); err != nil {
			return storeErr("update referral", "referral", err)
		}

		notices = w.evaluationNotices(referral, in.Status, in.Comment)
		return nil
	})
	if err != nil {
		return err
	}

	w.dispatch(ctx, notices)
	return nil
}

// UpdateEvaluation rewrites the referral's first evaluation in place and
// reapplies the status transition and notifications.
func (w *ReferralWorkflow) UpdateEvaluation(ctx context.Context, in EvaluationInput) error {
	if err := in.validate(); err != nil {
		return err
	}

	var notices []notice
	err := w.store.Transaction(ctx, func(tx repository.Store) error {
		evals, err := tx.ListEvaluations(ctx, in.ReferralID)
		if err != nil {
			return storeErr("list evaluations", "evaluation", err)
		}
		eval := firstEvaluation(evals)
		if eval == nil {
			return &NotFoundError{Entity: "evaluation"}
		}
		user, err := w.findUser(ctx, tx, in.EmpID, "user")
		if err != nil {
			return err
		}
		referral, err := w.findReferral(ctx, tx, eval.ReferralID)
		if err != nil {
			return err
		}

		now := w.now()
		eval.Stage = in.Stage
		eval.Status = in.Status
		eval.Comment = in.Comment
		eval.UpdatedByID = user.ID
		eval.UpdatedAt = now
		if err := tx.SaveEvaluation(ctx, eval); err != nil {
			return storeErr("update evaluation", "evaluation", err)
		}

		applyHRStatus(referral, in.Status, in.Comment, now)
		if err := tx.UpdateReferral(ctx, referral); err != nil {
			return storeErr("update referral", "referral", err)
		}

		notices = w.evaluationNotices(referral, in.Status, in.Comment)
		return nil
	})
	if err != nil {
		return err
	}

	w.dispatch(ctx, notices)
	return nil
}

// HR decisions go to the referrer's work address.
func (w *ReferralWorkflow) evaluationNotices(referral *models.Referral, status, comment string) []notice {
	purpose := evaluationPurpose(status)
	if purpose == "" {
		return nil
	}
	data := w.candidateData(referral, "/")
	if status == models.EvaluationRejected {
		data["rejection_reason"] = comment
	}
	return []notice{{
		purpose:    purpose,
		recipients: []string{referral.Referrer.Email},
		data:       data,
	}}
}

// ListForHR returns every referral that reached the HR stage.
func (w *ReferralWorkflow) ListForHR(ctx context.Context) ([]ReferralView, error) {
	referrals, err := w.store.ListReferrals(ctx, repository.ReferralFilter{Statuses: hrVisibleStatuses})
	if err != nil {
		return nil, storeErr("list referrals", "referral", err)
	}
	return w.buildViews(ctx, referrals, nil)
}
