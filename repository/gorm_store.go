package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"referral-tracking-api/config"
	"referral-tracking-api/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type gormStore struct {
	db *gorm.DB
}

// NewStore wraps db, falling back to config.DB.
func NewStore(db *gorm.DB) Store {
	if db == nil {
		db = config.DB
	}
	return &gormStore{db: db}
}

// AutoMigrate creates or updates every table the API uses.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.SBU{},
		&models.Department{},
		&models.Referral{},
		&models.Review{},
		&models.HREvaluation{},
		&models.EmailTemplate{},
		&models.NotificationFailure{},
	)
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	}
	return err
}

func (s *gormStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormStore{db: tx})
	})
}

/* ==========================
   Users
   ========================== */

func (s *gormStore) FindUserByEmpID(ctx context.Context, empID string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("emp_id = ?", empID).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s *gormStore) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("LOWER(email) = ?", strings.ToLower(email)).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s *gormStore) ListHRUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := s.db.WithContext(ctx).Where("is_hr = ?", true).Order("emp_id").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (s *gormStore) CreateUser(ctx context.Context, user *models.User) error {
	return translate(s.db.WithContext(ctx).Create(user).Error)
}

func (s *gormStore) SaveUser(ctx context.Context, user *models.User) error {
	return translate(s.db.WithContext(ctx).Save(user).Error)
}

/* ==========================
   SBUs and departments
   ========================== */

func (s *gormStore) FindSBUsByEmails(ctx context.Context, emails []string) ([]models.SBU, error) {
	var sbus []models.SBU
	if len(emails) == 0 {
		return sbus, nil
	}
	lowered := make([]string, len(emails))
	for i, e := range emails {
		lowered[i] = strings.ToLower(e)
	}
	if err := s.db.WithContext(ctx).Where("LOWER(email) IN ?", lowered).Order("id").Find(&sbus).Error; err != nil {
		return nil, err
	}
	return sbus, nil
}

func (s *gormStore) FindSBUByEmail(ctx context.Context, email string) (*models.SBU, error) {
	var sbu models.SBU
	if err := s.db.WithContext(ctx).Where("LOWER(email) = ?", strings.ToLower(email)).First(&sbu).Error; err != nil {
		return nil, translate(err)
	}
	return &sbu, nil
}

func (s *gormStore) ListSBUs(ctx context.Context) ([]models.SBU, error) {
	var sbus []models.SBU
	if err := s.db.WithContext(ctx).Order("name").Find(&sbus).Error; err != nil {
		return nil, err
	}
	return sbus, nil
}

func (s *gormStore) SaveSBU(ctx context.Context, sbu *models.SBU) error {
	return translate(s.db.WithContext(ctx).Save(sbu).Error)
}

func (s *gormStore) DeleteSBU(ctx context.Context, id uint) error {
	db := s.db.WithContext(ctx)
	if err := db.Exec("DELETE FROM referral_sbus WHERE sbu_id = ?", id).Error; err != nil {
		return err
	}
	return db.Delete(&models.SBU{}, id).Error
}

func (s *gormStore) ListDepartments(ctx context.Context) ([]models.Department, error) {
	var depts []models.Department
	if err := s.db.WithContext(ctx).Order("name").Find(&depts).Error; err != nil {
		return nil, err
	}
	return depts, nil
}

func (s *gormStore) FindDepartment(ctx context.Context, id uuid.UUID) (*models.Department, error) {
	var dept models.Department
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&dept).Error; err != nil {
		return nil, translate(err)
	}
	return &dept, nil
}

func (s *gormStore) SaveDepartment(ctx context.Context, dept *models.Department) error {
	db := s.db.WithContext(ctx)
	if dept.ID == uuid.Nil {
		return translate(db.Create(dept).Error)
	}
	return translate(db.Save(dept).Error)
}

/* ==========================
   Email templates
   ========================== */

func (s *gormStore) ListEmailTemplates(ctx context.Context) ([]models.EmailTemplate, error) {
	var rows []models.EmailTemplate
	if err := s.db.WithContext(ctx).Order("purpose").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *gormStore) FindEmailTemplate(ctx context.Context, purpose string) (*models.EmailTemplate, error) {
	var tmpl models.EmailTemplate
	if err := s.db.WithContext(ctx).Where("purpose = ?", purpose).First(&tmpl).Error; err != nil {
		return nil, translate(err)
	}
	return &tmpl, nil
}

func (s *gormStore) SaveEmailTemplate(ctx context.Context, tmpl *models.EmailTemplate) error {
	return translate(s.db.WithContext(ctx).Save(tmpl).Error)
}

func (s *gormStore) CreateNotificationFailure(ctx context.Context, failure *models.NotificationFailure) error {
	return s.db.WithContext(ctx).Create(failure).Error
}

/* ==========================
   Referrals
   ========================== */

func (s *gormStore) CreateReferral(ctx context.Context, referral *models.Referral) error {
	// SBU rows already exist; only the join rows are written.
	return translate(s.db.WithContext(ctx).Omit("Referrer", "SBUs.*").Create(referral).Error)
}

func (s *gormStore) FindReferral(ctx context.Context, id uint) (*models.Referral, error) {
	var referral models.Referral
	if err := s.db.WithContext(ctx).
		Preload("Referrer").
		Preload("SBUs").
		Where("id = ?", id).
		First(&referral).Error; err != nil {
		return nil, translate(err)
	}
	return &referral, nil
}

func (s *gormStore) UpdateReferral(ctx context.Context, referral *models.Referral) error {
	res := s.db.WithContext(ctx).Model(&models.Referral{}).
		Where("id = ? AND revision = ?", referral.ID, referral.Revision).
		Updates(map[string]interface{}{
			"candidate_name":       referral.CandidateName,
			"candidate_type":       referral.CandidateType,
			"referral_reason_type": referral.ReferralReasonType,
			"cv_url":               referral.CVURL,
			"additional_comment":   referral.AdditionalComment,
			"current_status":       referral.CurrentStatus,
			"rejection_stage":      referral.RejectionStage,
			"rejection_reason":     referral.RejectionReason,
			"considered_at":        referral.ConsideredAt,
			"final_at":             referral.FinalAt,
			"revision":             gorm.Expr("revision + 1"),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStaleRevision
	}
	referral.Revision++
	return nil
}

func (s *gormStore) DeleteReferral(ctx context.Context, id uint) error {
	db := s.db.WithContext(ctx)
	if err := db.Where("referral_id = ?", id).Delete(&models.Review{}).Error; err != nil {
		return err
	}
	if err := db.Where("referral_id = ?", id).Delete(&models.HREvaluation{}).Error; err != nil {
		return err
	}
	if err := db.Exec("DELETE FROM referral_sbus WHERE referral_id = ?", id).Error; err != nil {
		return err
	}
	res := db.Delete(&models.Referral{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *gormStore) ListReferrals(ctx context.Context, filter ReferralFilter) ([]models.Referral, error) {
	db := s.db.WithContext(ctx)
	q := db.Model(&models.Referral{}).Preload("Referrer").Preload("SBUs")

	if filter.ReferrerEmpID != "" {
		q = q.Where("referrer_emp_id = ?", filter.ReferrerEmpID)
	}
	if len(filter.Statuses) > 0 {
		q = q.Where("current_status IN ?", filter.Statuses)
	}
	if filter.SBUEmail != "" {
		linked := db.Table("referral_sbus").
			Select("referral_sbus.referral_id").
			Joins("JOIN sbus ON sbus.id = referral_sbus.sbu_id").
			Where("LOWER(sbus.email) = ?", strings.ToLower(filter.SBUEmail))
		q = q.Where("id IN (?)", linked)
	}

	var referrals []models.Referral
	if err := q.Order("submitted_at DESC, id DESC").Find(&referrals).Error; err != nil {
		return nil, err
	}
	return referrals, nil
}

/* ==========================
   Decisions
   ========================== */

func (s *gormStore) CreateReview(ctx context.Context, review *models.Review) error {
	return s.db.WithContext(ctx).Omit("Reviewer").Create(review).Error
}

func (s *gormStore) SaveReview(ctx context.Context, review *models.Review) error {
	return s.db.WithContext(ctx).Omit("Reviewer").Save(review).Error
}

func (s *gormStore) ListReviews(ctx context.Context, referralIDs ...uint) ([]models.Review, error) {
	var reviews []models.Review
	if len(referralIDs) == 0 {
		return reviews, nil
	}
	if err := s.db.WithContext(ctx).
		Preload("Reviewer").
		Where("referral_id IN ?", referralIDs).
		Order("reviewed_at DESC, id DESC").
		Find(&reviews).Error; err != nil {
		return nil, err
	}
	return reviews, nil
}

func (s *gormStore) CreateEvaluation(ctx context.Context, eval *models.HREvaluation) error {
	return s.db.WithContext(ctx).Omit("UpdatedBy").Create(eval).Error
}

func (s *gormStore) SaveEvaluation(ctx context.Context, eval *models.HREvaluation) error {
	return s.db.WithContext(ctx).Omit("UpdatedBy").Save(eval).Error
}

func (s *gormStore) ListEvaluations(ctx context.Context, referralIDs ...uint) ([]models.HREvaluation, error) {
	var evals []models.HREvaluation
	if len(referralIDs) == 0 {
		return evals, nil
	}
	if err := s.db.WithContext(ctx).
		Preload("UpdatedBy").
		Where("referral_id IN ?", referralIDs).
		Order("id ASC").
		Find(&evals).Error; err != nil {
		return nil, err
	}
	return evals, nil
}
