package models

import (
	"fmt"
	"strings"
	"time"
)

type Role string

const (
	RoleSeeker     Role = "seeker"
	RoleProvider   Role = "provider"
	RoleEmployee   Role = "employee"
	RoleManager    Role = "manager"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "super_admin"
)

type VerificationStatus string

const (
	VerificationPending  VerificationStatus = "pending"
	VerificationVerified VerificationStatus = "verified"
	VerificationRejected VerificationStatus = "rejected"
)

// ParseRole normalizes free-form role input into a typed Role. All writes
// of role values must go through here.
func ParseRole(s string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleSeeker:
		return RoleSeeker, nil
	case RoleProvider:
		return RoleProvider, nil
	case RoleEmployee:
		return RoleEmployee, nil
	case RoleManager:
		return RoleManager, nil
	case RoleAdmin:
		return RoleAdmin, nil
	case RoleSuperAdmin:
		return RoleSuperAdmin, nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

func (r Role) IsStaff() bool {
	switch r {
	case RoleEmployee, RoleManager, RoleAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

type User struct {
	ID                 uint               `gorm:"primary_key" json:"id"`
	Email              string             `gorm:"size:255;not null;unique" json:"email"`
	Password           string             `gorm:"not null" json:"-"`
	Phone              *string            `gorm:"size:20;unique" json:"phone"`
	Role               Role               `gorm:"size:20;not null" json:"role"`
	VerificationStatus VerificationStatus `gorm:"size:20;not null;default:'pending'" json:"verification_status"`
	IsActive           bool               `gorm:"default:true" json:"is_active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
