package models

import (
	"fmt"
	"strings"
	"time"
)

// FeeConfig is an append-only versioned row. At most one active row exists
// per scope (a provider id, or nil for the platform-wide default). A fee
// change never edits a row in place: the active row is deactivated and a
// fresh one inserted.
type FeeConfig struct {
	ID            uint    `gorm:"primary_key" json:"id"`
	ProviderID    *uint   `gorm:"index" json:"provider_id,omitempty"`
	FeePercentage float64 `gorm:"not null" json:"fee_percentage"`
	IsActive      bool    `gorm:"default:true" json:"is_active"`
	CreatedBy     uint    `gorm:"not null" json:"created_by"`

	CreatedAt time.Time `json:"created_at"`
}

type FeeRequestStatus string

const (
	FeeRequestPending  FeeRequestStatus = "pending"
	FeeRequestApproved FeeRequestStatus = "approved"
	FeeRequestRejected FeeRequestStatus = "rejected"
)

func ParseFeeRequestStatus(s string) (FeeRequestStatus, error) {
	switch FeeRequestStatus(strings.ToLower(strings.TrimSpace(s))) {
	case FeeRequestPending:
		return FeeRequestPending, nil
	case FeeRequestApproved:
		return FeeRequestApproved, nil
	case FeeRequestRejected:
		return FeeRequestRejected, nil
	}
	return "", fmt.Errorf("unknown fee request status %q", s)
}

// FeeChangeRequest is the request half of the request/review/apply fee
// workflow. Approval applies the change through the same supersede-and-log
// path super-admins use directly.
type FeeChangeRequest struct {
	ID             uint             `gorm:"primary_key" json:"id"`
	ProviderID     *uint            `gorm:"index" json:"provider_id,omitempty"`
	CurrentFee     float64          `gorm:"not null" json:"current_fee_percentage"`
	RequestedFee   float64          `gorm:"not null" json:"requested_fee_percentage"`
	Justification  string           `gorm:"type:text;not null" json:"justification"`
	Status         FeeRequestStatus `gorm:"size:20;not null;default:'pending'" json:"status"`
	RequestedBy    uint             `gorm:"not null" json:"requested_by"`
	ReviewedBy     *uint            `json:"reviewed_by,omitempty"`
	ReviewNotes    *string          `gorm:"type:text" json:"review_notes,omitempty"`
	ReviewedAt     *time.Time       `json:"reviewed_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FeeChangeLog is the append-only audit trail of applied fee changes.
type FeeChangeLog struct {
	ID         uint    `gorm:"primary_key" json:"id"`
	ProviderID *uint   `gorm:"index" json:"provider_id,omitempty"`
	OldFee     float64 `gorm:"not null" json:"old_fee_percentage"`
	NewFee     float64 `gorm:"not null" json:"new_fee_percentage"`
	Reason     string  `gorm:"size:255;not null" json:"change_reason"`
	ChangedBy  uint    `gorm:"not null" json:"changed_by"`
	RequestID  *uint   `json:"request_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}
