// Package repository is the persistence layer of the referral API.
package repository

import (
	"context"
	"errors"

	"referral-tracking-api/models"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = errors.New("record not found")
	// ErrStaleRevision is returned when a referral changed since it was loaded.
	ErrStaleRevision = errors.New("referral was modified concurrently")
	// ErrDuplicate is returned when a unique key is already taken.
	ErrDuplicate = errors.New("duplicate record")
)

// ReferralFilter narrows ListReferrals. Zero fields are ignored.
type ReferralFilter struct {
	ReferrerEmpID string
	Statuses      []string
	SBUEmail      string
}

// Store is the unit of work used by the services. Implementations must run
// fn inside a single transaction and hand it a Store bound to that transaction.
type Store interface {
	Transaction(ctx context.Context, fn func(tx Store) error) error

	FindUserByEmpID(ctx context.Context, empID string) (*models.User, error)
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	ListHRUsers(ctx context.Context) ([]models.User, error)
	CreateUser(ctx context.Context, user *models.User) error
	SaveUser(ctx context.Context, user *models.User) error

	FindSBUsByEmails(ctx context.Context, emails []string) ([]models.SBU, error)
	FindSBUByEmail(ctx context.Context, email string) (*models.SBU, error)
	ListSBUs(ctx context.Context) ([]models.SBU, error)
	SaveSBU(ctx context.Context, sbu *models.SBU) error
	DeleteSBU(ctx context.Context, id uint) error

	ListDepartments(ctx context.Context) ([]models.Department, error)
	FindDepartment(ctx context.Context, id uuid.UUID) (*models.Department, error)
	SaveDepartment(ctx context.Context, dept *models.Department) error

	ListEmailTemplates(ctx context.Context) ([]models.EmailTemplate, error)
	FindEmailTemplate(ctx context.Context, purpose string) (*models.EmailTemplate, error)
	SaveEmailTemplate(ctx context.Context, tmpl *models.EmailTemplate) error
	CreateNotificationFailure(ctx context.Context, failure *models.NotificationFailure) error

	// CreateReferral inserts the referral and links referral.SBUs.
	CreateReferral(ctx context.Context, referral *models.Referral) error
	// FindReferral loads the referral with its referrer and SBUs.
	FindReferral(ctx context.Context, id uint) (*models.Referral, error)
	// UpdateReferral writes every mutable column if the stored revision still
	// equals referral.Revision, then bumps it. Returns ErrStaleRevision otherwise.
	UpdateReferral(ctx context.Context, referral *models.Referral) error
	// DeleteReferral removes the referral with its reviews, evaluations and SBU links.
	DeleteReferral(ctx context.Context, id uint) error
	ListReferrals(ctx context.Context, filter ReferralFilter) ([]models.Referral, error)

	CreateReview(ctx context.Context, review *models.Review) error
	SaveReview(ctx context.Context, review *models.Review) error
	// ListReviews returns the reviews of the given referrals, newest first.
	ListReviews(ctx context.Context, referralIDs ...uint) ([]models.Review, error)

	CreateEvaluation(ctx context.Context, eval *models.HREvaluation) error
	SaveEvaluation(ctx context.Context, eval *models.HREvaluation) error
	// ListEvaluations returns the evaluations of the given referrals in insertion order.
	ListEvaluations(ctx context.Context, referralIDs ...uint) ([]models.HREvaluation, error)
}
