package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RoleEmployee = "EMPLOYEE"
	RoleReviewer = "REVIEWER"
	RoleHR       = "HR"
	RoleAdmin    = "ADMIN"
)

type User struct {
	ID            uuid.UUID `gorm:"type:char(36);primaryKey;column:id" json:"id"`
	EmpID         string    `gorm:"column:emp_id;size:20;uniqueIndex" json:"emp_id"`
	Name          string    `gorm:"column:name;size:100" json:"name"`
	Email         string    `gorm:"column:email;size:191;uniqueIndex" json:"email"`
	PersonalEmail *string   `gorm:"column:personal_email;size:191" json:"personal_email,omitempty"`
	PasswordHash  string    `gorm:"column:password_hash" json:"-"`
	Role          string    `gorm:"column:role;size:20" json:"role"`
	IsActive      bool      `gorm:"column:is_active;default:true" json:"is_active"`
	Departments   []string  `gorm:"column:department;serializer:json" json:"department"`
	IsHR          bool      `gorm:"column:is_hr;default:false" json:"is_hr"`
}

func (User) TableName() string {
	return "users"
}

// BeforeCreate assigns the UUID primary key.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// ContactEmail prefers the personal mailbox and falls back to the work address.
func (u User) ContactEmail() string {
	if u.PersonalEmail != nil && *u.PersonalEmail != "" {
		return *u.PersonalEmail
	}
	return u.Email
}
