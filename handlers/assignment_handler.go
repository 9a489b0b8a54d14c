package handlers

import (
	"strconv"

	"github.com/velora/tokenmarket/middleware"
	"github.com/velora/tokenmarket/models"
	"github.com/velora/tokenmarket/services"
	"github.com/gofiber/fiber/v2"
)

type RequestAssignmentBody struct {
	ItemID   uint   `json:"item_id" validate:"required"`
	ItemType string `json:"item_type" validate:"required"`
}

// RequestAssignment routes an item to the next employee on demand. An
// empty employee_id with a warning means nobody was available.
func RequestAssignment(c *fiber.Ctx) error {
	var req RequestAssignmentBody
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	itemType, err := models.ParseAssignmentType(req.ItemType)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	var employeeID uint
	var warnings []services.Warning
	if itemType == models.AssignmentBooking {
		employeeID, warnings, err = assignmentService.AssignBooking(req.ItemID)
	} else {
		employeeID, warnings, err = assignmentService.AssignVerification(req.ItemID)
	}
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(fiber.Map{
		"status":   "success",
		"data":     fiber.Map{"employee_id": employeeID},
		"warnings": warnings,
	})
}

func GetMyAssignments(c *fiber.Ctx) error {
	assignments, err := assignmentService.EmployeeAssignments(middleware.CurrentUserID(c))
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{"status": "success", "data": assignments})
}

func CompleteAssignment(c *fiber.Ctx) error {
	assignmentID, err := strconv.ParseUint(c.Params("assignmentId"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid assignment id"})
	}

	if err := assignmentService.Complete(uint(assignmentID), middleware.CurrentUserID(c)); err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{"status": "success", "message": "Assignment completed"})
}

type ReassignRequest struct {
	EmployeeID uint   `json:"employee_id" validate:"required"`
	Reason     string `json:"reason" validate:"required"`
}

func ReassignAssignment(c *fiber.Ctx) error {
	assignmentID, err := strconv.ParseUint(c.Params("assignmentId"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid assignment id"})
	}

	var req ReassignRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	if err := assignmentService.Reassign(uint(assignmentID), req.EmployeeID, req.Reason); err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{"status": "success", "message": "Assignment reassigned"})
}

func GetAssignmentStatistics(c *fiber.Ctx) error {
	stats, err := assignmentService.Statistics()
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{"status": "success", "data": stats})
}
