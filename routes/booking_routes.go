package routes

import (
	"github.com/velora/tokenmarket/handlers"
	"github.com/velora/tokenmarket/middleware"
	"github.com/gofiber/fiber/v2"
)

func BookingRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	booking := api.Group("/bookings", middleware.Protected())
	booking.Get("/me", handlers.GetMyBookings)
	booking.Post("", handlers.CreateBooking)
	booking.Get("/:bookingId", handlers.GetBooking)
	booking.Patch("/:bookingId/status", handlers.UpdateBookingStatus)
	booking.Post("/:bookingId/cancel", handlers.CancelBooking)
	booking.Post("/:bookingId/otp", handlers.GenerateBookingOTP)
	booking.Post("/:bookingId/otp/verify", handlers.VerifyBookingOTP)

	disputes := api.Group("/disputes", middleware.Protected())
	disputes.Post("", handlers.OpenDispute)
	disputes.Get("/me", handlers.GetMyDisputes)
}
