package routes

import (
	"github.com/velora/tokenmarket/handlers"
	"github.com/velora/tokenmarket/middleware"
	"github.com/gofiber/fiber/v2"
)

func FeeRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	api.Get("/providers/:providerId/preview", middleware.Protected(), handlers.GetProviderPreview)

	fees := api.Group("/admin/fees", middleware.Protected())
	fees.Post("", middleware.RequireAction("fees:set"), handlers.SetFee)
	fees.Get("", middleware.RequireAction("fees:view"), handlers.ListFeeConfigs)
	fees.Get("/effective", middleware.RequireAction("fees:view"), handlers.GetEffectiveFee)
	fees.Get("/logs", middleware.RequireAction("fees:view"), handlers.ListFeeChangeLogs)
	fees.Post("/requests", middleware.RequireAction("fees:request"), handlers.RequestFeeChange)
	fees.Get("/requests", middleware.RequireAction("fees:view"), handlers.ListFeeChangeRequests)
	fees.Post("/requests/:requestId/review", middleware.RequireAction("fees:review"), handlers.ReviewFeeChange)
}
