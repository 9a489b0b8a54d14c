package routes

import (
	"github.com/velora/tokenmarket/handlers"
	"github.com/velora/tokenmarket/middleware"
	"github.com/gofiber/fiber/v2"
)

func AdminRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	disputes := api.Group("/admin/disputes", middleware.Protected())
	disputes.Get("", middleware.RequireAction("disputes:list"), handlers.ListDisputes)
	disputes.Post("/:disputeId/assign", middleware.RequireAction("disputes:assign"), handlers.AssignDispute)
	disputes.Post("/:disputeId/resolve", middleware.RequireAction("disputes:resolve"), handlers.ResolveDispute)

	assignments := api.Group("/assignments", middleware.Protected())
	assignments.Get("/me", handlers.GetMyAssignments)
	assignments.Post("/request", middleware.RequireAction("assignments:manage"), handlers.RequestAssignment)
	assignments.Post("/:assignmentId/complete", handlers.CompleteAssignment)
	assignments.Post("/:assignmentId/reassign", middleware.RequireAction("assignments:manage"), handlers.ReassignAssignment)
	assignments.Get("/statistics", middleware.RequireAction("assignments:manage"), handlers.GetAssignmentStatistics)
}
