package jobs

import (
	"log"
	"time"

	"github.com/velora/tokenmarket/database"
	"github.com/velora/tokenmarket/models"
	"github.com/velora/tokenmarket/notifications"
)

var reminderNotifier notifications.Dispatcher

// InitReminderJob gives the reminder job its dispatcher; called once from
// main before the cron scheduler starts.
func InitReminderJob(notifier notifications.Dispatcher) {
	reminderNotifier = notifier
}

// SendBookingReminders texts participants of confirmed bookings starting
// within the next hour. It never changes booking status; reminder_sent_at
// keeps each booking from being reminded twice.
func SendBookingReminders() {
	log.Println("Running job: SendBookingReminders...")

	now := time.Now()
	upperBound := now.Add(60 * time.Minute)

	var upcomingBookings []models.Booking
	err := database.DB.
		Where("status = ? AND start_time BETWEEN ? AND ? AND reminder_sent_at IS NULL",
			models.BookingConfirmed, now, upperBound).
		Find(&upcomingBookings).Error
	if err != nil {
		log.Printf("Error checking for upcoming bookings: %v", err)
		return
	}

	if len(upcomingBookings) == 0 {
		return
	}

	for _, booking := range upcomingBookings {
		log.Printf("Sending reminder for booking ID: %d", booking.ID)

		var users []models.User
		if err := database.DB.Where("id IN ?", []uint{booking.SeekerID, booking.ProviderID}).Find(&users).Error; err != nil {
			log.Printf("Error loading participants for booking %d: %v", booking.ID, err)
			continue
		}
		for _, user := range users {
			if user.Phone == nil {
				continue
			}
			phone := *user.Phone
			bookingID := booking.ID
			startAt := booking.StartTime.Format(time.Kitchen)
			go func() {
				err := reminderNotifier.Send(phone, "booking_reminder", map[string]interface{}{
					"booking_id": bookingID,
					"value":      startAt,
				})
				if err != nil {
					log.Printf("Reminder delivery for booking %d failed: %v", bookingID, err)
				}
			}()
		}

		if err := database.DB.Model(&models.Booking{}).Where("id = ?", booking.ID).
			Update("reminder_sent_at", now).Error; err != nil {
			log.Printf("Error stamping reminder for booking %d: %v", booking.ID, err)
		}
	}
}
