package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	StatusPendingReview = "PENDING_REVIEW"
	StatusRejected      = "REJECTED"
	StatusConsidered    = "CONSIDERED"
	StatusFinalAccepted = "FINAL_ACCEPTED"
	StatusFinalRejected = "FINAL_REJECTED"
)

const (
	RejectionStageSBU = "SBU"
	RejectionStageHR  = "HR"
)

const (
	CandidateIntern   = "INTERN"
	CandidateFullTime = "FULL_TIME"
)

const (
	ReasonPersonalConnection = "PERSONAL_CONNECTION"
	ReasonTalentBased        = "TALENT_BASED"
)

// Referral is a candidate submission. Reviews and HR evaluations cascade on delete.
type Referral struct {
	ID                 uint       `gorm:"primaryKey;column:id" json:"id"`
	ReferrerEmpID      string     `gorm:"column:referrer_emp_id;size:20;index" json:"referrer_emp_id"`
	CandidateName      string     `gorm:"column:candidate_name;size:100" json:"candidate_name"`
	CandidateType      string     `gorm:"column:candidate_type;size:20" json:"candidate_type"`
	ReferralReasonType string     `gorm:"column:referral_reason_type;size:30;default:PERSONAL_CONNECTION" json:"referral_reason_type"`
	CVURL              string     `gorm:"column:cv_url;type:text" json:"cv_url"`
	SubmittedAt        time.Time  `gorm:"column:submitted_at" json:"submitted_at"`
	CurrentStatus      string     `gorm:"column:current_status;size:30;index;default:PENDING_REVIEW" json:"current_status"`
	AdditionalComment  *string    `gorm:"column:additional_comment;type:text" json:"additional_comment"`
	RejectionStage     *string    `gorm:"column:rejection_stage;size:10" json:"rejection_stage"`
	RejectionReason    *string    `gorm:"column:rejection_reason;type:text" json:"rejection_reason"`
	ConsideredAt       *time.Time `gorm:"column:considered_at" json:"considered_at"`
	FinalAt            *time.Time `gorm:"column:final_at" json:"final_at"`
	Revision           int        `gorm:"column:revision;not null;default:0" json:"-"`

	// Relations
	Referrer      User           `gorm:"foreignKey:ReferrerEmpID;references:EmpID;constraint:OnDelete:CASCADE" json:"-"`
	SBUs          []SBU          `gorm:"many2many:referral_sbus;joinForeignKey:ReferralID;joinReferences:SbuID;constraint:OnDelete:CASCADE" json:"-"`
	Reviews       []Review       `gorm:"foreignKey:ReferralID;constraint:OnDelete:CASCADE" json:"-"`
	HREvaluations []HREvaluation `gorm:"foreignKey:ReferralID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Referral) TableName() string {
	return "referrals"
}

// IsTerminal is true once HR has issued a final decision.
func (r Referral) IsTerminal() bool {
	return r.CurrentStatus == StatusFinalAccepted || r.CurrentStatus == StatusFinalRejected
}

// SetRejected moves the referral to a rejected status recorded against stage.
func (r *Referral) SetRejected(status, stage, reason string) {
	r.CurrentStatus = status
	r.RejectionStage = &stage
	r.RejectionReason = &reason
}

// ClearRejection sets status and drops the rejection fields.
func (r *Referral) ClearRejection(status string) {
	r.CurrentStatus = status
	r.RejectionStage = nil
	r.RejectionReason = nil
}

const (
	DecisionRejected   = "REJECTED"
	DecisionConsidered = "CONSIDERED"
)

// Review is an SBU-stage decision. The latest row per (referral, reviewer) is the effective one.
type Review struct {
	ID         uint      `gorm:"primaryKey;column:id" json:"id"`
	ReferralID uint      `gorm:"column:referral_id;index:idx_reviews_referral_reviewer" json:"referral_id"`
	ReviewerID uuid.UUID `gorm:"type:char(36);column:reviewer_id;index:idx_reviews_referral_reviewer" json:"reviewer_id"`
	Decision   string    `gorm:"column:decision;size:20" json:"decision"`
	Comment    string    `gorm:"column:comment;type:text" json:"comment"`
	ReviewedAt time.Time `gorm:"column:reviewed_at" json:"reviewed_at"`
	UpdatedAt  time.Time `gorm:"column:updated_at" json:"updated_at"`

	Reviewer *User `gorm:"foreignKey:ReviewerID;constraint:OnDelete:CASCADE" json:"reviewer,omitempty"`
}

func (Review) TableName() string {
	return "reviews"
}

const (
	StageTest  = "TEST"
	StageT1    = "T1"
	StageT2    = "T2"
	StageT3    = "T3"
	StageHR    = "HR"
	StageOther = "OTHER"
)

const (
	EvaluationInProgress = "IN_PROGRESS"
	EvaluationAccepted   = "ACCEPTED"
	EvaluationRejected   = "REJECTED"
)

// HREvaluation is the terminal HR-stage record, mutated in place on update.
type HREvaluation struct {
	ID          uint      `gorm:"primaryKey;column:id" json:"id"`
	ReferralID  uint      `gorm:"column:referral_id;index" json:"referral_id"`
	Stage       string    `gorm:"column:stage;size:20" json:"stage"`
	Status      string    `gorm:"column:status;size:20" json:"status"`
	Comment     string    `gorm:"column:comment;type:text" json:"comment"`
	UpdatedByID uuid.UUID `gorm:"type:char(36);column:updated_by" json:"updated_by_id"`
	UpdatedAt   time.Time `gorm:"column:updated_at" json:"updated_at"`

	UpdatedBy *User `gorm:"foreignKey:UpdatedByID;constraint:OnDelete:CASCADE" json:"updated_by,omitempty"`
}

func (HREvaluation) TableName() string {
	return "hr_evaluations"
}
