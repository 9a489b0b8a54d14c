package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	allowed := [][2]BookingStatus{
		{BookingPending, BookingConfirmed},
		{BookingPending, BookingCancelled},
		{BookingConfirmed, BookingInProgress},
		{BookingConfirmed, BookingCancelled},
		{BookingInProgress, BookingCompleted},
	}
	for _, pair := range allowed {
		assert.True(t, CanTransition(pair[0], pair[1]), "%s -> %s", pair[0], pair[1])
	}

	denied := [][2]BookingStatus{
		{BookingPending, BookingInProgress},
		{BookingPending, BookingCompleted},
		{BookingConfirmed, BookingCompleted},
		{BookingInProgress, BookingCancelled},
		{BookingCompleted, BookingPending},
		{BookingCancelled, BookingConfirmed},
	}
	for _, pair := range denied {
		assert.False(t, CanTransition(pair[0], pair[1]), "%s -> %s", pair[0], pair[1])
	}
}

func TestParseBookingStatus(t *testing.T) {
	status, err := ParseBookingStatus("  Confirmed ")
	assert.NoError(t, err)
	assert.Equal(t, BookingConfirmed, status)

	_, err = ParseBookingStatus("unknown")
	assert.Error(t, err)
}

func TestOTPChallengeValidity(t *testing.T) {
	challenge := OTPChallenge{
		ExpiresAt:   time.Now().Add(10 * time.Minute),
		MaxAttempts: 3,
	}
	assert.True(t, challenge.IsValid())

	expired := challenge
	expired.ExpiresAt = time.Now().Add(-time.Minute)
	assert.False(t, expired.IsValid())
	assert.True(t, expired.IsExpired())

	exhausted := challenge
	exhausted.Attempts = 3
	assert.False(t, exhausted.IsValid())

	used := challenge
	used.IsUsed = true
	assert.False(t, used.IsValid())
}

func TestOTPPurposeExpiry(t *testing.T) {
	assert.Equal(t, 10, PurposeServiceStart.ExpiryMinutes())
	assert.Equal(t, 30, PurposeSeekerServiceStart.ExpiryMinutes())
}
