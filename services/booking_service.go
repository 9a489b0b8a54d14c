package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/velora/tokenmarket/models"
	"github.com/velora/tokenmarket/notifications"
	"gorm.io/gorm"
)

const (
	maxBookingHours = 12
	// cancellations inside this window forfeit a 10% penalty
	freeCancellationWindow = 24 * time.Hour
)

// BookingService drives the booking lifecycle. Every transition that moves
// money runs the status change and the ledger mutation in one database
// transaction; assignment requests and notifications run strictly after
// commit and surface as warnings when they fail.
type BookingService struct {
	db       *gorm.DB
	ledger   *LedgerService
	pricing  *PricingService
	otp      *OTPService
	assigner *AssignmentService
	notifier notifications.Dispatcher
}

func NewBookingService(db *gorm.DB, ledger *LedgerService, pricing *PricingService, otp *OTPService, assigner *AssignmentService, notifier notifications.Dispatcher) *BookingService {
	return &BookingService{db: db, ledger: ledger, pricing: pricing, otp: otp, assigner: assigner, notifier: notifier}
}

type CreateBookingInput struct {
	ProviderID      uint
	StartTime       time.Time
	DurationHours   int
	BookingType     models.BookingType
	Location        *string
	SpecialRequests *string
}

// Create places a new PENDING booking: the total cost is resolved through
// the pricing service, snapshotted into total_tokens and held in escrow.
// A failed assignment request or notification never fails the booking.
func (s *BookingService) Create(seekerID uint, input CreateBookingInput) (*models.Booking, []Warning, error) {
	var provider models.User
	err := s.db.Where("id = ? AND role = ? AND is_active = ?",
		input.ProviderID, models.RoleProvider, true).First(&provider).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, NotFoundError{Resource: "provider"}
	}
	if err != nil {
		return nil, nil, err
	}

	var profile models.Profile
	err = s.db.Where("user_id = ?", input.ProviderID).First(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && profile.HourlyRate <= 0) {
		return nil, nil, ValidationError{Msg: "provider profile incomplete"}
	}
	if err != nil {
		return nil, nil, err
	}

	if !input.StartTime.After(time.Now()) {
		return nil, nil, ValidationError{Msg: "booking time must be in the future"}
	}
	if input.DurationHours <= 0 || input.DurationHours > maxBookingHours {
		return nil, nil, ValidationError{Msg: fmt.Sprintf("duration must be between 1 and %d hours", maxBookingHours)}
	}

	cost := s.pricing.BookingCost(profile.HourlyRate, input.ProviderID, input.DurationHours)

	booking := models.Booking{
		SeekerID:        seekerID,
		ProviderID:      input.ProviderID,
		StartTime:       input.StartTime,
		DurationHours:   input.DurationHours,
		TotalTokens:     cost.TotalCost,
		BookingType:     input.BookingType,
		Status:          models.BookingPending,
		Location:        input.Location,
		SpecialRequests: input.SpecialRequests,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&booking).Error; err != nil {
			return err
		}
		return s.ledger.HoldTx(tx, seekerID, booking.TotalTokens, booking.ID)
	})
	if err != nil {
		return nil, nil, err
	}

	employeeID, warnings, err := s.assigner.AssignBooking(booking.ID)
	if err != nil {
		log.Printf("[BOOKING] monitoring assignment for booking %d failed: %v", booking.ID, err)
		warnings = append(warnings, Warning{Code: WarnAssignmentUnavailable, Message: "monitoring assignment failed"})
	} else if employeeID != 0 {
		booking.AssignedEmployee = &employeeID
	}

	warnings = append(warnings, s.notifyBooking(&booking, "booking_created", booking.StartTime.Format(time.RFC3339))...)
	return &booking, warnings, nil
}

// notifyBooking texts both participants after commit, fire-and-forget.
func (s *BookingService) notifyBooking(booking *models.Booking, templateID string, value interface{}) []Warning {
	var warnings []Warning
	var users []models.User
	if err := s.db.Where("id IN ?", []uint{booking.SeekerID, booking.ProviderID}).Find(&users).Error; err != nil {
		return warnings
	}
	for _, user := range users {
		if user.Phone == nil {
			continue
		}
		err := s.notifier.Send(*user.Phone, templateID, map[string]interface{}{
			"booking_id": booking.ID,
			"value":      value,
		})
		if err != nil {
			log.Printf("[BOOKING] notification for booking %d to user %d failed: %v", booking.ID, user.ID, err)
			warnings = append(warnings, Warning{Code: WarnDeliveryFailure, Message: "booking notification could not be delivered"})
		}
	}
	return warnings
}

func (s *BookingService) loadBooking(db *gorm.DB, bookingID uint, locked bool) (*models.Booking, error) {
	var booking models.Booking
	query := db
	if locked {
		query = forUpdate(db)
	}
	if err := query.First(&booking, "id = ?", bookingID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NotFoundError{Resource: "booking"}
		}
		return nil, err
	}
	return &booking, nil
}

func (s *BookingService) authorizeTransition(booking *models.Booking, actorID uint, newStatus models.BookingStatus) error {
	switch newStatus {
	case models.BookingConfirmed:
		if actorID != booking.ProviderID {
			return UnauthorizedError{Msg: "only the provider can confirm a booking"}
		}
	case models.BookingInProgress:
		if actorID != booking.ProviderID {
			return UnauthorizedError{Msg: "only the provider can start the session"}
		}
	case models.BookingCompleted:
		if actorID != booking.ProviderID {
			return UnauthorizedError{Msg: "only the provider can complete the session"}
		}
	case models.BookingCancelled:
		if actorID != booking.SeekerID && actorID != booking.ProviderID {
			return UnauthorizedError{Msg: "only booking participants can cancel"}
		}
	default:
		return StateTransitionError{From: string(booking.Status), To: string(newStatus)}
	}
	return nil
}

// CancellationResult reports what a cancellation returned to the seeker
// and what the penalty retained.
type CancellationResult struct {
	RefundAmount    int64 `json:"refund_amount"`
	CancellationFee int64 `json:"cancellation_fee"`
}

func cancellationAmounts(booking *models.Booking) CancellationResult {
	if time.Until(booking.StartTime) < freeCancellationWindow {
		fee := int64(float64(booking.TotalTokens) * 0.10)
		return CancellationResult{RefundAmount: booking.TotalTokens - fee, CancellationFee: fee}
	}
	return CancellationResult{RefundAmount: booking.TotalTokens}
}

// settlementEarnings computes what the provider receives at completion.
// Earnings are recomputed from the provider's current rate and fee rather
// than the creation-time snapshot, matching the established settlement
// behavior; they are capped at the held total so a raised rate can never
// overdraw the escrow.
func (s *BookingService) settlementEarnings(booking *models.Booking) int64 {
	var profile models.Profile
	err := s.db.Where("user_id = ?", booking.ProviderID).First(&profile).Error
	if err != nil || profile.HourlyRate <= 0 {
		fee := int64(float64(booking.TotalTokens) * DefaultFeePercentage)
		return booking.TotalTokens - fee
	}
	earnings := s.pricing.BookingCost(profile.HourlyRate, booking.ProviderID, booking.DurationHours).ProviderEarnings
	if earnings > booking.TotalTokens {
		earnings = booking.TotalTokens
	}
	return earnings
}

// Transition applies one lifecycle step. Re-applying the booking's current
// status is an idempotent no-op, so side effects run at most once.
func (s *BookingService) Transition(bookingID, actorID uint, newStatus models.BookingStatus, otpCode string) (*models.Booking, []Warning, error) {
	booking, _, warnings, err := s.applyTransition(bookingID, actorID, newStatus, otpCode)
	return booking, warnings, err
}

// applyTransition carries the transition plus, for cancellations, the exact
// refund split the ledger applied inside the transaction.
func (s *BookingService) applyTransition(bookingID, actorID uint, newStatus models.BookingStatus, otpCode string) (*models.Booking, *CancellationResult, []Warning, error) {
	booking, err := s.loadBooking(s.db, bookingID, false)
	if err != nil {
		return nil, nil, nil, err
	}
	if booking.Status == newStatus {
		return booking, nil, nil, nil
	}
	if !models.CanTransition(booking.Status, newStatus) {
		return nil, nil, nil, StateTransitionError{From: string(booking.Status), To: string(newStatus)}
	}
	if err := s.authorizeTransition(booking, actorID, newStatus); err != nil {
		return nil, nil, nil, err
	}

	// The OTP gate sits in front of service start. A challenge already
	// verified through the standalone endpoint passes; otherwise the code
	// is verified here, committing its attempt bookkeeping before the
	// transition transaction opens.
	if newStatus == models.BookingInProgress {
		if otpCode == "" {
			verified, err := s.otp.HasVerifiedChallenge(bookingID)
			if err != nil {
				return nil, nil, nil, err
			}
			if !verified {
				return nil, nil, nil, ErrOTPRequired
			}
		} else if err := s.otp.Verify(bookingID, actorID, otpCode); err != nil {
			return nil, nil, nil, err
		}
	}

	var cancellation *CancellationResult
	err = s.db.Transaction(func(tx *gorm.DB) error {
		current, err := s.loadBooking(tx, bookingID, true)
		if err != nil {
			return err
		}
		// concurrent caller may have won the race
		if current.Status == newStatus {
			booking = current
			return nil
		}
		if !models.CanTransition(current.Status, newStatus) {
			return StateTransitionError{From: string(current.Status), To: string(newStatus)}
		}

		switch newStatus {
		case models.BookingCompleted:
			earnings := s.settlementEarnings(current)
			if err := s.ledger.ReleaseTx(tx, current.SeekerID, current.ProviderID, current.TotalTokens, earnings, current.ID); err != nil {
				return err
			}
		case models.BookingCancelled:
			result := cancellationAmounts(current)
			cancellation = &result
			err := s.ledger.RefundTx(tx, current.SeekerID, current.TotalTokens, result.RefundAmount,
				current.ID, fmt.Sprintf("Refund for cancelled booking #%d", current.ID))
			if err != nil {
				return err
			}
		}

		if err := tx.Model(&models.Booking{}).Where("id = ?", current.ID).
			Update("status", newStatus).Error; err != nil {
			return err
		}
		current.Status = newStatus
		booking = current
		return nil
	})
	if err != nil {
		return nil, nil, nil, err
	}

	var warnings []Warning
	if cancellation != nil {
		warnings = s.notifyBooking(booking, "booking_cancelled", cancellation.RefundAmount)
	}
	return booking, cancellation, warnings, nil
}

// Cancel is the dedicated cancellation entry point; it reports the refund
// split the transition applied.
func (s *BookingService) Cancel(bookingID, actorID uint) (*CancellationResult, []Warning, error) {
	_, cancellation, warnings, err := s.applyTransition(bookingID, actorID, models.BookingCancelled, "")
	if err != nil {
		return nil, nil, err
	}
	// an already-cancelled booking (or a lost cancellation race) moved no money
	if cancellation == nil {
		cancellation = &CancellationResult{}
	}
	return cancellation, warnings, nil
}

// Get returns a booking to its participants or to staff.
func (s *BookingService) Get(bookingID, actorID uint, role models.Role) (*models.Booking, error) {
	booking, err := s.loadBooking(s.db, bookingID, false)
	if err != nil {
		return nil, err
	}
	if actorID != booking.SeekerID && actorID != booking.ProviderID && !role.IsStaff() {
		return nil, UnauthorizedError{Msg: "access denied"}
	}
	return booking, nil
}

// MyBookings lists bookings the user participates in, newest first.
func (s *BookingService) MyBookings(userID uint, status *models.BookingStatus, limit int) ([]models.Booking, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	query := s.db.Where("seeker_id = ? OR provider_id = ?", userID, userID)
	if status != nil {
		query = query.Where("status = ?", *status)
	}
	var bookings []models.Booking
	err := query.Order("created_at desc").Limit(limit).Find(&bookings).Error
	return bookings, err
}
