package handlers

import (
	"errors"
	"log"

	"github.com/velora/tokenmarket/services"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = validator.New()

var (
	bookingService    *services.BookingService
	ledgerService     *services.LedgerService
	pricingService    *services.PricingService
	otpService        *services.OTPService
	assignmentService *services.AssignmentService
	disputeService    *services.DisputeService
)

// Init wires the handler package to the service layer; called once from
// main before route registration.
func Init(booking *services.BookingService, ledger *services.LedgerService, pricing *services.PricingService, otp *services.OTPService, assignment *services.AssignmentService, dispute *services.DisputeService) {
	bookingService = booking
	ledgerService = ledger
	pricingService = pricing
	otpService = otp
	assignmentService = assignment
	disputeService = dispute
}

// serviceError maps the service error taxonomy onto HTTP responses.
func serviceError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrOTPRequired):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"status": "error", "code": "otp_required", "message": err.Error(),
		})
	case errors.Is(err, services.ErrRateLimited):
		return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
			"status": "error", "message": err.Error(),
		})
	case services.IsNotFound(err):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"status": "error", "message": err.Error()})
	case services.IsUnauthorized(err):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"status": "error", "message": err.Error()})
	case services.IsInsufficientBalance(err):
		return c.Status(fiber.StatusPaymentRequired).JSON(fiber.Map{"status": "error", "message": err.Error()})
	case services.IsStateTransition(err):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"status": "error", "message": err.Error()})
	case services.IsOTP(err), services.IsValidation(err):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"status": "error", "message": err.Error()})
	}
	log.Printf("🔥 Unexpected error: %v", err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"status": "error", "message": "Something went wrong",
	})
}
