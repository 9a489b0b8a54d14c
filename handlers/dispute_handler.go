package handlers

import (
	"strconv"

	"github.com/velora/tokenmarket/middleware"
	"github.com/velora/tokenmarket/models"
	"github.com/gofiber/fiber/v2"
)

type OpenDisputeRequest struct {
	BookingID   uint   `json:"booking_id" validate:"required"`
	DisputeType string `json:"dispute_type" validate:"required"`
	Description string `json:"description" validate:"required"`
}

func OpenDispute(c *fiber.Ctx) error {
	var req OpenDisputeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	disputeType, err := models.ParseDisputeType(req.DisputeType)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	dispute, err := disputeService.Open(req.BookingID, middleware.CurrentUserID(c), disputeType, req.Description)
	if err != nil {
		return serviceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"status": "success", "data": dispute})
}

func GetMyDisputes(c *fiber.Ctx) error {
	disputes, err := disputeService.MyDisputes(middleware.CurrentUserID(c))
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{"status": "success", "data": disputes})
}

func ListDisputes(c *fiber.Ctx) error {
	var status *models.DisputeStatus
	if raw := c.Query("status"); raw != "" {
		parsed, err := models.ParseDisputeStatus(raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		status = &parsed
	}
	limit, _ := strconv.Atoi(c.Query("limit", "50"))
	offset, _ := strconv.Atoi(c.Query("offset", "0"))

	disputes, err := disputeService.List(status, limit, offset)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{"status": "success", "data": disputes})
}

type AssignDisputeRequest struct {
	ManagerID uint `json:"manager_id" validate:"required"`
}

func AssignDispute(c *fiber.Ctx) error {
	disputeID, err := strconv.ParseUint(c.Params("disputeId"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid dispute id"})
	}

	var req AssignDisputeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	dispute, err := disputeService.Assign(uint(disputeID), req.ManagerID)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{"status": "success", "data": dispute})
}

type ResolveDisputeRequest struct {
	Resolution string `json:"resolution" validate:"required"`
	Amount     int64  `json:"amount" validate:"gte=0"`
}

func ResolveDispute(c *fiber.Ctx) error {
	disputeID, err := strconv.ParseUint(c.Params("disputeId"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid dispute id"})
	}

	var req ResolveDisputeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	dispute, err := disputeService.Resolve(uint(disputeID), middleware.CurrentUserID(c), middleware.CurrentRole(c), req.Resolution, req.Amount)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{"status": "success", "data": dispute})
}
