package models

import (
	"fmt"
	"strings"
	"time"
)

type OTPPurpose string

const (
	// PurposeServiceStart is issued to the provider and delivered
	// out-of-band; short expiry.
	PurposeServiceStart OTPPurpose = "service_start"
	// PurposeSeekerServiceStart is fetched in-app by the seeker to share
	// verbally with the provider; longer expiry.
	PurposeSeekerServiceStart OTPPurpose = "seeker_service_start"
)

func ParseOTPPurpose(s string) (OTPPurpose, error) {
	switch OTPPurpose(strings.ToLower(strings.TrimSpace(s))) {
	case PurposeServiceStart:
		return PurposeServiceStart, nil
	case PurposeSeekerServiceStart:
		return PurposeSeekerServiceStart, nil
	}
	return "", fmt.Errorf("unknown otp purpose %q", s)
}

func (p OTPPurpose) ExpiryMinutes() int {
	if p == PurposeSeekerServiceStart {
		return 30
	}
	return 10
}

type OTPChallenge struct {
	ID          uint       `gorm:"primary_key" json:"id"`
	UserID      uint       `gorm:"not null;index" json:"user_id"`
	BookingID   uint       `gorm:"not null;index" json:"booking_id"`
	Code        string     `gorm:"size:6;not null" json:"-"`
	Purpose     OTPPurpose `gorm:"size:50;not null" json:"purpose"`
	Phone       string     `gorm:"size:20" json:"-"`
	ExpiresAt   time.Time  `gorm:"not null" json:"expires_at"`
	VerifiedAt  *time.Time `json:"verified_at,omitempty"`
	IsUsed      bool       `gorm:"default:false" json:"is_used"`
	Attempts    int        `gorm:"default:0" json:"attempts"`
	MaxAttempts int        `gorm:"default:3" json:"max_attempts"`

	CreatedAt time.Time `json:"created_at"`
}

func (c *OTPChallenge) IsExpired() bool {
	return time.Now().After(c.ExpiresAt)
}

// IsValid reports whether the challenge can still be reused or verified.
func (c *OTPChallenge) IsValid() bool {
	return !c.IsUsed && !c.IsExpired() && c.Attempts < c.MaxAttempts
}
