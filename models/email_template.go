package models

import (
	"encoding/json"
	"time"
)

// Email purposes. The last two are reserved for the admin module.
const (
	PurposeCVToSBU               = "CV_TO_SBU"
	PurposeCVUpdatedSBU          = "CV_UPDATED_SBU"
	PurposeCVDeletedSBU          = "CV_DELETED_SBU"
	PurposeCVRejectedSBU         = "CV_REJECTED_SBU"
	PurposeCVApprovedSBU         = "CV_APPROVED_SBU"
	PurposeCVToHR                = "CV_TO_HR"
	PurposeCVRevokedBySBU        = "CV_REVOKED_BY_SBU"
	PurposeCVRejectedHR          = "CV_REJECTED_HR"
	PurposeCVApprovedHR          = "CV_APPROVED_HR"
	PurposeCVApprovedSBUReferrer = "CV_APPROVED_SBU_REFERRER"
	PurposeCVApprovedSBUToHR     = "CV_APPROVED_SBU_TO_HR"
)

// PurposeLabels lists every purpose with its display name.
var PurposeLabels = map[string]string{
	PurposeCVToSBU:               "CV Referral (to SBU)",
	PurposeCVApprovedSBU:         "CV Referral Approved [By SBU]",
	PurposeCVRejectedSBU:         "CV Referral Disapproved [By SBU]",
	PurposeCVToHR:                "CV Referral to HR",
	PurposeCVApprovedHR:          "CV Referral Approved [By HR]",
	PurposeCVRejectedHR:          "CV Referral Disapproved [By HR]",
	PurposeCVUpdatedSBU:          "CV Referral Updated [To SBU]",
	PurposeCVDeletedSBU:          "CV Referral Deleted [To SBU]",
	PurposeCVApprovedSBUReferrer: "CV Approved by SBU - Notify Referrer",
	PurposeCVApprovedSBUToHR:     "CV Approved by SBU - Notify HR",
	PurposeCVRevokedBySBU:        "CV Approval Revoked by SBU - Notify HR",
}

type EmailTemplate struct {
	ID       uint   `gorm:"primaryKey;column:id" json:"id"`
	Purpose  string `gorm:"column:purpose;size:50;uniqueIndex" json:"purpose"`
	Subject  string `gorm:"column:subject;size:255" json:"subject"`
	HTMLBody string `gorm:"column:html_body;type:text" json:"html_body"`
}

func (EmailTemplate) TableName() string { return "email_templates" }

// NotificationFailure records a dispatch that could not be delivered.
type NotificationFailure struct {
	ID         uint            `gorm:"primaryKey;column:id" json:"id"`
	Purpose    string          `gorm:"column:purpose;size:50;index" json:"purpose"`
	Recipients []string        `gorm:"column:recipients;serializer:json" json:"recipients"`
	Context    json.RawMessage `gorm:"column:context;type:text" json:"context"`
	Error      string          `gorm:"column:error;type:text" json:"error"`
	CreatedAt  time.Time       `gorm:"column:created_at" json:"created_at"`
}

func (NotificationFailure) TableName() string { return "notification_failures" }
