package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SBU is a reviewing identity. Email matches the reviewer's User.Email.
type SBU struct {
	ID            uint     `gorm:"primaryKey;column:id" json:"id"`
	Name          string   `gorm:"column:name;size:100" json:"name"`
	Email         string   `gorm:"column:email;size:191;uniqueIndex" json:"email"`
	PersonalEmail *string  `gorm:"column:personal_email;size:191" json:"personal_email,omitempty"`
	Departments   []string `gorm:"column:departments;serializer:json" json:"departments"`
}

func (SBU) TableName() string {
	return "sbus"
}

func (s SBU) ContactEmail() string {
	if s.PersonalEmail != nil && *s.PersonalEmail != "" {
		return *s.PersonalEmail
	}
	return s.Email
}

// HasDepartment reports whether name is already on the SBU's list.
func (s SBU) HasDepartment(name string) bool {
	for _, d := range s.Departments {
		if d == name {
			return true
		}
	}
	return false
}

// Reviewer is one entry of a department roster.
type Reviewer struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type Department struct {
	ID        uuid.UUID  `gorm:"type:char(36);primaryKey;column:id" json:"id"`
	Name      string     `gorm:"column:name;size:100;uniqueIndex" json:"name"`
	Reviewers []Reviewer `gorm:"column:reviewers;serializer:json" json:"reviewers"`
}

func (Department) TableName() string {
	return "departments"
}

func (d *Department) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}
