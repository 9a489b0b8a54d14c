package main

import (
	"log"
	"time"

	config "github.com/velora/tokenmarket/configs"
	"github.com/velora/tokenmarket/database"
	"github.com/velora/tokenmarket/handlers"
	"github.com/velora/tokenmarket/jobs"
	"github.com/velora/tokenmarket/notifications"
	"github.com/velora/tokenmarket/routes"
	"github.com/velora/tokenmarket/services"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/robfig/cron/v3"
)

func main() {
	database.ConnectDB()
	database.Migrate()
	database.SeedAdmin()

	notifier := notifications.NewSMSService()

	var pointers services.PointerStore
	if redisClient := database.ConnectRedis(); redisClient != nil {
		pointers = services.NewRedisPointerStore(redisClient)
	} else {
		pointers = services.NewMemoryPointerStore()
	}

	ledgerService := services.NewLedgerService(database.DB)
	pricingService := services.NewPricingService(database.DB)
	otpService := services.NewOTPService(database.DB, notifier)
	assignmentService := services.NewAssignmentService(database.DB, pointers)
	bookingService := services.NewBookingService(database.DB, ledgerService, pricingService, otpService, assignmentService, notifier)
	disputeService := services.NewDisputeService(database.DB, ledgerService)

	handlers.Init(bookingService, ledgerService, pricingService, otpService, assignmentService, disputeService)
	jobs.InitReminderJob(notifier)

	c := cron.New()
	c.AddFunc("*/5 * * * *", jobs.SendBookingReminders)
	go c.Start()
	log.Println("✅ Cron job for booking reminders scheduled successfully.")

	app := fiber.New(fiber.Config{
		Prefork:           false,
		AppName:           "Token Market",
		CaseSensitive:     true,
		StrictRouting:     true,
		EnablePrintRoutes: true,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}

			log.Printf("[ERROR] %v | Path: %s | Method: %s", err, c.Path(), c.Method())
			return c.Status(code).JSON(fiber.Map{
				"status":  "error",
				"code":    code,
				"message": err.Error(),
			})
		},
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins:  "*",
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization",
		AllowMethods:  "GET, POST, PUT, PATCH, DELETE, OPTIONS",
		ExposeHeaders: "Content-Length, Authorization",
		MaxAge:        86400,
	}))

	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		TimeFormat: "2006-01-02 15:04:05",
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "success",
			"message": "Welcome to Token Market API",
		})
	})

	routes.BookingRoutes(app)
	routes.WalletRoutes(app)
	routes.FeeRoutes(app)
	routes.AdminRoutes(app)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ok",
		})
	})

	port := config.Config("PORT")
	if port == "" {
		port = "8080"
	}
	log.Printf("✅ Server is running on port %s", port)
	err := app.Listen(":" + port)
	if err != nil {
		log.Fatalf("🔥 Server failed to start: %v", err)
	}
}
