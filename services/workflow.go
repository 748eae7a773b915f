package services

import (
	"context"
	"strings"
	"time"

	"referral-tracking-api/config"
	"referral-tracking-api/models"
	"referral-tracking-api/repository"
)

// ReferralWorkflow owns the referral status machine: submission, SBU review,
// HR evaluation and the notifications tied to each transition. Every
// operation writes inside one transaction and notifies only after it commits.
type ReferralWorkflow struct {
	store     repository.Store
	notifier  Notifier
	portalURL string
	now       func() time.Time
}

func NewReferralWorkflow(store repository.Store, notifier Notifier) *ReferralWorkflow {
	return &ReferralWorkflow{
		store:     store,
		notifier:  notifier,
		portalURL: config.FrontendBaseURL(),
		now:       time.Now,
	}
}

// notice is a notification queued during a transaction.
type notice struct {
	purpose    string
	recipients []string
	data       map[string]string
}

func (w *ReferralWorkflow) dispatch(ctx context.Context, notices []notice) {
	for _, n := range notices {
		w.notifier.Notify(ctx, n.purpose, n.recipients, n.data)
	}
}

func (w *ReferralWorkflow) link(path string) string {
	return w.portalURL + path
}

func (w *ReferralWorkflow) candidateData(referral *models.Referral, path string) map[string]string {
	return map[string]string{
		"candidate_name": referral.CandidateName,
		"portal_link":    w.link(path),
	}
}

func sbuRecipients(referral *models.Referral) []string {
	to := make([]string, 0, len(referral.SBUs))
	for _, sbu := range referral.SBUs {
		to = append(to, sbu.ContactEmail())
	}
	return to
}

func hrRecipients(ctx context.Context, store repository.Store) ([]string, error) {
	users, err := store.ListHRUsers(ctx)
	if err != nil {
		return nil, storeErr("list hr users", "user", err)
	}
	to := make([]string, 0, len(users))
	for _, u := range users {
		to = append(to, u.ContactEmail())
	}
	return to, nil
}

func (w *ReferralWorkflow) findUser(ctx context.Context, store repository.Store, empID, entity string) (*models.User, error) {
	user, err := store.FindUserByEmpID(ctx, strings.TrimSpace(empID))
	if err != nil {
		return nil, storeErr("find user", entity, err)
	}
	return user, nil
}

func (w *ReferralWorkflow) findReferral(ctx context.Context, store repository.Store, id uint) (*models.Referral, error) {
	if id == 0 {
		return nil, invalid("referral id is required")
	}
	referral, err := store.FindReferral(ctx, id)
	if err != nil {
		return nil, storeErr("find referral", "referral", err)
	}
	return referral, nil
}
