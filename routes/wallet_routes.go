package routes

import (
	"github.com/velora/tokenmarket/handlers"
	"github.com/velora/tokenmarket/middleware"
	"github.com/gofiber/fiber/v2"
)

func WalletRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	wallet := api.Group("/wallet", middleware.Protected())
	wallet.Get("/me", handlers.GetMyWallet)
	wallet.Get("/me/history", handlers.GetMyLedgerHistory)
}
