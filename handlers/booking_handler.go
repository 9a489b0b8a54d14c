package handlers

import (
	"strconv"
	"time"

	"github.com/velora/tokenmarket/middleware"
	"github.com/velora/tokenmarket/models"
	"github.com/velora/tokenmarket/services"
	"github.com/gofiber/fiber/v2"
)

type CreateBookingRequest struct {
	ProviderID      uint    `json:"provider_id" validate:"required"`
	StartTime       string  `json:"start_time" validate:"required"`
	DurationHours   int     `json:"duration_hours" validate:"required,min=1,max=12"`
	BookingType     string  `json:"booking_type" validate:"required"`
	Location        *string `json:"location,omitempty"`
	SpecialRequests *string `json:"special_requests,omitempty"`
}

func CreateBooking(c *fiber.Ctx) error {
	seekerID := middleware.CurrentUserID(c)

	var req CreateBookingRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	startTime, err := time.Parse(time.RFC3339, req.StartTime)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "start_time must be RFC3339"})
	}
	bookingType, err := models.ParseBookingType(req.BookingType)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	booking, warnings, err := bookingService.Create(seekerID, services.CreateBookingInput{
		ProviderID:      req.ProviderID,
		StartTime:       startTime,
		DurationHours:   req.DurationHours,
		BookingType:     bookingType,
		Location:        req.Location,
		SpecialRequests: req.SpecialRequests,
	})
	if err != nil {
		return serviceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"status":   "success",
		"data":     booking,
		"warnings": warnings,
	})
}

func GetMyBookings(c *fiber.Ctx) error {
	userID := middleware.CurrentUserID(c)

	var status *models.BookingStatus
	if raw := c.Query("status"); raw != "" {
		parsed, err := models.ParseBookingStatus(raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		status = &parsed
	}
	limit, _ := strconv.Atoi(c.Query("limit", "50"))

	bookings, err := bookingService.MyBookings(userID, status, limit)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{"status": "success", "data": bookings})
}

func GetBooking(c *fiber.Ctx) error {
	bookingID, err := strconv.ParseUint(c.Params("bookingId"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid booking id"})
	}

	booking, err := bookingService.Get(uint(bookingID), middleware.CurrentUserID(c), middleware.CurrentRole(c))
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{"status": "success", "data": booking})
}

type UpdateBookingStatusRequest struct {
	Status  string `json:"status" validate:"required"`
	OTPCode string `json:"otp_code,omitempty"`
}

func UpdateBookingStatus(c *fiber.Ctx) error {
	bookingID, err := strconv.ParseUint(c.Params("bookingId"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid booking id"})
	}

	var req UpdateBookingStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	newStatus, err := models.ParseBookingStatus(req.Status)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	booking, warnings, err := bookingService.Transition(uint(bookingID), middleware.CurrentUserID(c), newStatus, req.OTPCode)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{"status": "success", "data": booking, "warnings": warnings})
}

func CancelBooking(c *fiber.Ctx) error {
	bookingID, err := strconv.ParseUint(c.Params("bookingId"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid booking id"})
	}

	result, warnings, err := bookingService.Cancel(uint(bookingID), middleware.CurrentUserID(c))
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{"status": "success", "data": result, "warnings": warnings})
}

type GenerateOTPRequest struct {
	Purpose string `json:"purpose" validate:"required"`
}

func GenerateBookingOTP(c *fiber.Ctx) error {
	bookingID, err := strconv.ParseUint(c.Params("bookingId"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid booking id"})
	}

	var req GenerateOTPRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	purpose, err := models.ParseOTPPurpose(req.Purpose)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	result, warnings, err := otpService.Generate(uint(bookingID), middleware.CurrentUserID(c), purpose)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{"status": "success", "data": result, "warnings": warnings})
}

type VerifyOTPRequest struct {
	Code string `json:"code" validate:"required,len=6"`
}

// VerifyBookingOTP checks a code without driving a transition, so either
// party can confirm it before the provider starts the session.
func VerifyBookingOTP(c *fiber.Ctx) error {
	bookingID, err := strconv.ParseUint(c.Params("bookingId"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid booking id"})
	}

	var req VerifyOTPRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	if err := otpService.Verify(uint(bookingID), middleware.CurrentUserID(c), req.Code); err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{"status": "success", "message": "OTP verified"})
}
