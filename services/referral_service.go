package services

import (
	"context"
	"strings"

	"referral-tracking-api/models"
	"referral-tracking-api/repository"
	"referral-tracking-api/utils"
)

type SubmitReferralInput struct {
	EmpID              string
	CandidateName      string
	CandidateType      string
	ReferralReasonType string
	SBUEmails          []string
	CVURL              string
	AdditionalComment  string
}

// UpdateReferralInput carries a partial update. Nil fields are left as they are;
// an empty CVURL keeps the stored CV.
type UpdateReferralInput struct {
	CandidateName      *string
	CandidateType      *string
	ReferralReasonType *string
	AdditionalComment  *string
	CVURL              string
}

// Submit creates a PENDING_REVIEW referral linked to every SBU whose email is
// listed. Unknown emails are ignored.
func (w *ReferralWorkflow) Submit(ctx context.Context, in SubmitReferralInput) (*models.Referral, error) {
	in.EmpID = strings.TrimSpace(in.EmpID)
	in.CandidateName = utils.SanitizeInput(in.CandidateName)
	in.CandidateType = strings.TrimSpace(in.CandidateType)
	in.ReferralReasonType = strings.TrimSpace(in.ReferralReasonType)
	in.CVURL = strings.TrimSpace(in.CVURL)
	emails := utils.NormalizeEmails(in.SBUEmails)

	if in.EmpID == "" || in.CandidateName == "" || in.CandidateType == "" ||
		len(emails) == 0 || in.CVURL == "" || in.ReferralReasonType == "" {
		return nil, invalid("Missing required fields.")
	}
	if !candidateTypes[in.CandidateType] {
		return nil, invalid("invalid candidate_type %q", in.CandidateType)
	}
	if !referralReasons[in.ReferralReasonType] {
		return nil, invalid("invalid referral_reason_type %q", in.ReferralReasonType)
	}

	var (
		referral *models.Referral
		notices  []notice
	)
	err := w.store.Transaction(ctx, func(tx repository.Store) error {
		user, err := w.findUser(ctx, tx, in.EmpID, "user")
		if err != nil {
			return err
		}
		sbus, err := tx.FindSBUsByEmails(ctx, emails)
		if err != nil {
			return storeErr("match sbus", "sbu", err)
		}

		referral = &models.Referral{
			ReferrerEmpID:      user.EmpID,
			CandidateName:      in.CandidateName,
			CandidateType:      in.CandidateType,
			ReferralReasonType: in.ReferralReasonType,
			CVURL:              in.CVURL,
			SubmittedAt:        w.now(),
			CurrentStatus:      models.StatusPendingReview,
			SBUs:               sbus,
		}
		if comment := strings.TrimSpace(in.AdditionalComment); comment != "" {
			referral.AdditionalComment = &comment
		}
		if err := tx.CreateReferral(ctx, referral); err != nil {
			return storeErr("create referral", "referral", err)
		}
		referral.Referrer = *user

		notices = append(notices, notice{
			purpose:    models.PurposeCVToSBU,
			recipients: sbuRecipients(referral),
			data:       w.candidateData(referral, "/review-cv"),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	w.dispatch(ctx, notices)
	return referral, nil
}

// Update applies a partial update requested by the referrer. Status and
// rejection fields are never touched. The SBUs are notified on every call.
func (w *ReferralWorkflow) Update(ctx context.Context, referralID uint, requesterEmpID string, in UpdateReferralInput) (*models.Referral, error) {
	if in.CandidateType != nil && !candidateTypes[strings.TrimSpace(*in.CandidateType)] {
		return nil, invalid("invalid candidate_type %q", *in.CandidateType)
	}
	if in.ReferralReasonType != nil && !referralReasons[strings.TrimSpace(*in.ReferralReasonType)] {
		return nil, invalid("invalid referral_reason_type %q", *in.ReferralReasonType)
	}

	var (
		referral *models.Referral
		notices  []notice
	)
	err := w.store.Transaction(ctx, func(tx repository.Store) error {
		var err error
		referral, err = w.findReferral(ctx, tx, referralID)
		if err != nil {
			return err
		}
		if referral.ReferrerEmpID != strings.TrimSpace(requesterEmpID) {
			return &AuthorizationError{Message: "Unauthorized"}
		}

		if in.CandidateName != nil {
			if name := utils.SanitizeInput(*in.CandidateName); name != "" {
				referral.CandidateName = name
			}
		}
		if in.CandidateType != nil {
			referral.CandidateType = strings.TrimSpace(*in.CandidateType)
		}
		if in.ReferralReasonType != nil {
			referral.ReferralReasonType = strings.TrimSpace(*in.ReferralReasonType)
		}
		if in.AdditionalComment != nil {
			comment := strings.TrimSpace(*in.AdditionalComment)
			referral.AdditionalComment = &comment
		}
		if cv := strings.TrimSpace(in.CVURL); cv != "" {
			referral.CVURL = cv
		}

		if err := tx.UpdateReferral(ctx, referral); err != nil {
			return storeErr("update referral", "referral", err)
		}

		notices = append(notices, notice{
			purpose:    models.PurposeCVUpdatedSBU,
			recipients: sbuRecipients(referral),
			data:       w.candidateData(referral, "/review-cv"),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	w.dispatch(ctx, notices)
	return referral, nil
}

// Delete removes the referral with its decisions, then tells the SBUs.
func (w *ReferralWorkflow) Delete(ctx context.Context, referralID uint, requesterEmpID string) error {
	var notices []notice
	err := w.store.Transaction(ctx, func(tx repository.Store) error {
		referral, err := w.findReferral(ctx, tx, referralID)
		if err != nil {
			return err
		}
		if referral.ReferrerEmpID != strings.TrimSpace(requesterEmpID) {
			return &AuthorizationError{Message: "Unauthorized"}
		}

		notices = append(notices, notice{
			purpose:    models.PurposeCVDeletedSBU,
			recipients: sbuRecipients(referral),
			data:       w.candidateData(referral, "/review-cv"),
		})

		if err := tx.DeleteReferral(ctx, referral.ID); err != nil {
			return storeErr("delete referral", "referral", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	w.dispatch(ctx, notices)
	return nil
}
