package models

import (
	"fmt"
	"strings"
	"time"
)

type BookingStatus string

const (
	BookingPending    BookingStatus = "pending"
	BookingConfirmed  BookingStatus = "confirmed"
	BookingInProgress BookingStatus = "in_progress"
	BookingCompleted  BookingStatus = "completed"
	BookingCancelled  BookingStatus = "cancelled"
)

type BookingType string

const (
	BookingIncall  BookingType = "incall"
	BookingOutcall BookingType = "outcall"
)

func ParseBookingStatus(s string) (BookingStatus, error) {
	switch BookingStatus(strings.ToLower(strings.TrimSpace(s))) {
	case BookingPending:
		return BookingPending, nil
	case BookingConfirmed:
		return BookingConfirmed, nil
	case BookingInProgress:
		return BookingInProgress, nil
	case BookingCompleted:
		return BookingCompleted, nil
	case BookingCancelled:
		return BookingCancelled, nil
	}
	return "", fmt.Errorf("unknown booking status %q", s)
}

func ParseBookingType(s string) (BookingType, error) {
	switch BookingType(strings.ToLower(strings.TrimSpace(s))) {
	case BookingIncall:
		return BookingIncall, nil
	case BookingOutcall:
		return BookingOutcall, nil
	}
	return "", fmt.Errorf("unknown booking type %q", s)
}

// bookingTransitions is the lifecycle edge list. Disputes are an overlay
// on top of bookings and never appear here.
var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingPending:    {BookingConfirmed, BookingCancelled},
	BookingConfirmed:  {BookingInProgress, BookingCancelled},
	BookingInProgress: {BookingCompleted},
}

func CanTransition(from, to BookingStatus) bool {
	for _, next := range bookingTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

type Booking struct {
	ID            uint          `gorm:"primary_key" json:"id"`
	SeekerID      uint          `gorm:"not null;index" json:"seeker_id"`
	ProviderID    uint          `gorm:"not null;index" json:"provider_id"`
	StartTime     time.Time     `gorm:"not null" json:"start_time"`
	DurationHours int           `gorm:"not null" json:"duration_hours"`
	TotalTokens   int64         `gorm:"not null" json:"total_tokens"`
	BookingType   BookingType   `gorm:"size:20;not null" json:"booking_type"`
	Status        BookingStatus `gorm:"size:20;not null;default:'pending'" json:"status"`

	AssignedEmployee *uint   `json:"assigned_employee,omitempty"`
	Location         *string `gorm:"size:500" json:"location,omitempty"`
	SpecialRequests  *string `gorm:"type:text" json:"special_requests,omitempty"`

	ReminderSentAt *time.Time `json:"-"`

	Seeker   User `gorm:"foreignkey:SeekerID" json:"-"`
	Provider User `gorm:"foreignkey:ProviderID" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
