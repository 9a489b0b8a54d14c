package models

import (
	"fmt"
	"strings"
	"time"
)

type AssignmentType string

const (
	AssignmentBooking      AssignmentType = "booking"
	AssignmentVerification AssignmentType = "verification"
)

type AssignmentStatus string

const (
	AssignmentAssigned   AssignmentStatus = "assigned"
	AssignmentInProgress AssignmentStatus = "in_progress"
	AssignmentCompleted  AssignmentStatus = "completed"
)

func ParseAssignmentType(s string) (AssignmentType, error) {
	switch AssignmentType(strings.ToLower(strings.TrimSpace(s))) {
	case AssignmentBooking:
		return AssignmentBooking, nil
	case AssignmentVerification:
		return AssignmentVerification, nil
	}
	return "", fmt.Errorf("unknown assignment type %q", s)
}

// Assignment routes one piece of human-monitoring work (a booking or a
// verification) to an employee.
type Assignment struct {
	ID         uint             `gorm:"primary_key" json:"id"`
	ItemID     uint             `gorm:"not null;index" json:"item_id"`
	ItemType   AssignmentType   `gorm:"size:20;not null" json:"item_type"`
	EmployeeID uint             `gorm:"not null;index" json:"employee_id"`
	Status     AssignmentStatus `gorm:"size:20;not null;default:'assigned'" json:"status"`

	ReassignReason *string `gorm:"size:255" json:"reassign_reason,omitempty"`

	AssignedAt  time.Time  `json:"assigned_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}
