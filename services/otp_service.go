package services

import (
	"errors"
	"log"
	"sync"
	"time"

	"github.com/velora/tokenmarket/models"
	"github.com/velora/tokenmarket/notifications"
	"github.com/velora/tokenmarket/utils"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

// ErrRateLimited rejects an OTP generation burst before it reaches the
// SMS gateway.
var ErrRateLimited = errors.New("too many OTP requests, please wait before retrying")

// limiterIdleTTL is long enough for an idle bucket to refill completely,
// so eviction never grants extra burst.
const limiterIdleTTL = 5 * time.Minute

type userLimiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// userRateLimiter keeps one token bucket per user for OTP generation.
// Idle entries are swept so the map stays bounded to recently active users.
type userRateLimiter struct {
	mu        sync.Mutex
	users     map[uint]*userLimiterEntry
	lastSweep time.Time
}

func newUserRateLimiter() *userRateLimiter {
	return &userRateLimiter{users: make(map[uint]*userLimiterEntry), lastSweep: time.Now()}
}

func (l *userRateLimiter) allow(userID uint) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := time.Now()
	l.sweep(now)
	entry, ok := l.users[userID]
	if !ok {
		// 3 burst, then one request every 20 seconds
		entry = &userLimiterEntry{limiter: rate.NewLimiter(rate.Every(20*time.Second), 3)}
		l.users[userID] = entry
	}
	entry.lastSeen = now
	return entry.limiter.Allow()
}

func (l *userRateLimiter) sweep(now time.Time) {
	if now.Sub(l.lastSweep) < limiterIdleTTL {
		return
	}
	l.lastSweep = now
	for id, entry := range l.users {
		if now.Sub(entry.lastSeen) >= limiterIdleTTL {
			delete(l.users, id)
		}
	}
}

// OTPService issues and verifies the one-time codes gating the
// CONFIRMED -> IN_PROGRESS transition. Exactly one valid challenge exists
// per (booking, purpose); regeneration reuses it while it is valid.
type OTPService struct {
	db       *gorm.DB
	notifier notifications.Dispatcher
	limiter  *userRateLimiter
}

func NewOTPService(db *gorm.DB, notifier notifications.Dispatcher) *OTPService {
	return &OTPService{db: db, notifier: notifier, limiter: newUserRateLimiter()}
}

type OTPResult struct {
	Code             string `json:"code"`
	ExpiresInMinutes int    `json:"expires_in_minutes"`
	Reused           bool   `json:"-"`
}

func (s *OTPService) loadBooking(bookingID uint) (*models.Booking, error) {
	var booking models.Booking
	if err := s.db.First(&booking, "id = ?", bookingID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NotFoundError{Resource: "booking"}
		}
		return nil, err
	}
	return &booking, nil
}

// Generate issues (or re-fetches) the challenge for a booking and purpose.
// Provider-issued codes go out via SMS after the row is persisted; the
// delivery outcome is a warning, never a rollback.
func (s *OTPService) Generate(bookingID, ownerID uint, purpose models.OTPPurpose) (*OTPResult, []Warning, error) {
	booking, err := s.loadBooking(bookingID)
	if err != nil {
		return nil, nil, err
	}

	switch purpose {
	case models.PurposeServiceStart:
		if booking.ProviderID != ownerID {
			return nil, nil, UnauthorizedError{Msg: "only the booking provider can request this OTP"}
		}
	case models.PurposeSeekerServiceStart:
		if booking.SeekerID != ownerID {
			return nil, nil, UnauthorizedError{Msg: "only the booking seeker can request this OTP"}
		}
	default:
		return nil, nil, ValidationError{Msg: "unknown OTP purpose"}
	}

	if booking.Status != models.BookingConfirmed {
		return nil, nil, ValidationError{Msg: "OTP can only be generated for confirmed bookings"}
	}

	if !s.limiter.allow(ownerID) {
		return nil, nil, ErrRateLimited
	}

	var owner models.User
	if err := s.db.First(&owner, "id = ?", ownerID).Error; err != nil {
		return nil, nil, err
	}

	var challenge models.OTPChallenge
	err = s.db.Where("booking_id = ? AND user_id = ? AND purpose = ? AND is_used = ?",
		bookingID, ownerID, purpose, false).
		Order("created_at desc").First(&challenge).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, err
	}

	if err == nil && challenge.IsValid() {
		result := &OTPResult{
			Code:             challenge.Code,
			ExpiresInMinutes: int(time.Until(challenge.ExpiresAt).Minutes()),
			Reused:           true,
		}
		warnings := s.deliver(booking, &challenge, result.ExpiresInMinutes)
		return result, warnings, nil
	}

	challenge = models.OTPChallenge{
		UserID:      ownerID,
		BookingID:   bookingID,
		Code:        utils.GenerateOTPCode(),
		Purpose:     purpose,
		ExpiresAt:   time.Now().Add(time.Duration(purpose.ExpiryMinutes()) * time.Minute),
		MaxAttempts: 3,
	}
	if owner.Phone != nil {
		challenge.Phone = *owner.Phone
	}
	if err := s.db.Create(&challenge).Error; err != nil {
		return nil, nil, err
	}

	result := &OTPResult{Code: challenge.Code, ExpiresInMinutes: purpose.ExpiryMinutes()}
	warnings := s.deliver(booking, &challenge, result.ExpiresInMinutes)
	return result, warnings, nil
}

// deliver sends provider-issued codes out-of-band. Seeker-issued codes are
// retrieved in-app and shared verbally, so nothing is sent for them.
func (s *OTPService) deliver(booking *models.Booking, challenge *models.OTPChallenge, expiresIn int) []Warning {
	if challenge.Purpose != models.PurposeServiceStart || challenge.Phone == "" {
		return nil
	}
	err := s.notifier.Send(challenge.Phone, "service_start_otp", map[string]interface{}{
		"booking_id": booking.ID,
		"value":      challenge.Code,
		"extra":      expiresIn,
	})
	if err != nil {
		log.Printf("[OTP] failed to deliver code for booking %d: %v", booking.ID, err)
		return []Warning{{Code: WarnDeliveryFailure, Message: "OTP SMS could not be delivered"}}
	}
	return nil
}

// Verify checks a code against the booking's active challenge: the
// provider-issued one first, falling back to the seeker-issued one. The
// attempt counter is incremented unconditionally and committed even when
// verification fails; expiry is checked before the attempt cap, the cap
// before the code comparison.
func (s *OTPService) Verify(bookingID, verifierID uint, code string) error {
	booking, err := s.loadBooking(bookingID)
	if err != nil {
		return err
	}
	if verifierID != booking.ProviderID && verifierID != booking.SeekerID {
		return UnauthorizedError{Msg: "only booking participants can verify this OTP"}
	}

	var verdict error
	err = s.db.Transaction(func(tx *gorm.DB) error {
		var challenge models.OTPChallenge
		err := forUpdate(tx).
			Where("booking_id = ? AND user_id = ? AND purpose = ? AND is_used = ?",
				bookingID, booking.ProviderID, models.PurposeServiceStart, false).
			Order("created_at desc").First(&challenge).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			err = forUpdate(tx).
				Where("booking_id = ? AND user_id = ? AND purpose = ? AND is_used = ?",
					bookingID, booking.SeekerID, models.PurposeSeekerServiceStart, false).
				Order("created_at desc").First(&challenge).Error
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return OTPError{Reason: OTPNoActiveChallenge}
		}
		if err != nil {
			return err
		}

		challenge.Attempts++
		updates := map[string]interface{}{"attempts": challenge.Attempts}

		switch {
		case challenge.IsExpired():
			verdict = OTPError{Reason: OTPExpired}
		case challenge.Attempts > challenge.MaxAttempts:
			verdict = OTPError{Reason: OTPTooManyAttempts}
		case challenge.Code != code:
			verdict = OTPError{Reason: OTPCodeMismatch}
		default:
			now := time.Now()
			updates["is_used"] = true
			updates["verified_at"] = &now
		}

		return tx.Model(&models.OTPChallenge{}).Where("id = ?", challenge.ID).
			Updates(updates).Error
	})
	if err != nil {
		return err
	}
	return verdict
}

// HasVerifiedChallenge reports whether any challenge for the booking has
// been successfully verified.
func (s *OTPService) HasVerifiedChallenge(bookingID uint) (bool, error) {
	var count int64
	err := s.db.Model(&models.OTPChallenge{}).
		Where("booking_id = ? AND is_used = ? AND verified_at IS NOT NULL", bookingID, true).
		Count(&count).Error
	return count > 0, err
}
