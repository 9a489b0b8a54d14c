package models

import (
	"fmt"
	"strings"
	"time"
)

type DisputeType string

const (
	DisputeNoShow            DisputeType = "no_show"
	DisputeServiceQuality    DisputeType = "service_quality"
	DisputePayment           DisputeType = "payment"
	DisputeBehavior          DisputeType = "behavior"
	DisputePlatformViolation DisputeType = "platform_violation"
)

type DisputeStatus string

const (
	DisputeOpen          DisputeStatus = "open"
	DisputeInvestigating DisputeStatus = "investigating"
	DisputeResolved      DisputeStatus = "resolved"
	DisputeClosed        DisputeStatus = "closed"
)

func ParseDisputeType(s string) (DisputeType, error) {
	switch DisputeType(strings.ToLower(strings.TrimSpace(s))) {
	case DisputeNoShow:
		return DisputeNoShow, nil
	case DisputeServiceQuality:
		return DisputeServiceQuality, nil
	case DisputePayment:
		return DisputePayment, nil
	case DisputeBehavior:
		return DisputeBehavior, nil
	case DisputePlatformViolation:
		return DisputePlatformViolation, nil
	}
	return "", fmt.Errorf("unknown dispute type %q", s)
}

func ParseDisputeStatus(s string) (DisputeStatus, error) {
	switch DisputeStatus(strings.ToLower(strings.TrimSpace(s))) {
	case DisputeOpen:
		return DisputeOpen, nil
	case DisputeInvestigating:
		return DisputeInvestigating, nil
	case DisputeResolved:
		return DisputeResolved, nil
	case DisputeClosed:
		return DisputeClosed, nil
	}
	return "", fmt.Errorf("unknown dispute status %q", s)
}

// Dispute is an overlay on a booking. Its lifecycle is independent of the
// booking state machine and never drives Booking.Status.
type Dispute struct {
	ID               uint          `gorm:"primary_key" json:"id"`
	BookingID        uint          `gorm:"not null;index" json:"booking_id"`
	ReportedBy       uint          `gorm:"not null" json:"reported_by"`
	DisputeType      DisputeType   `gorm:"size:30;not null" json:"dispute_type"`
	Description      string        `gorm:"type:text;not null" json:"description"`
	Status           DisputeStatus `gorm:"size:20;not null;default:'open'" json:"status"`
	AssignedManager  *uint         `json:"assigned_manager,omitempty"`
	Resolution       *string       `gorm:"type:text" json:"resolution,omitempty"`
	ResolutionAmount *int64        `json:"resolution_amount,omitempty"`

	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
}
