package handlers

import (
	"strconv"

	"github.com/velora/tokenmarket/middleware"
	"github.com/velora/tokenmarket/models"
	"github.com/gofiber/fiber/v2"
)

// GetProviderPreview quotes the provider's current rate split so seekers
// see the full cost before booking.
func GetProviderPreview(c *fiber.Ctx) error {
	providerID, err := strconv.ParseUint(c.Params("providerId"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid provider id"})
	}

	preview, err := pricingService.ProviderPreview(uint(providerID))
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{"status": "success", "data": preview})
}

type SetFeeRequest struct {
	FeePercentage float64 `json:"fee_percentage" validate:"required,gt=0,lt=1"`
	ProviderID    *uint   `json:"provider_id,omitempty"`
	Reason        string  `json:"reason" validate:"required"`
}

func SetFee(c *fiber.Ctx) error {
	var req SetFeeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	cfg, err := pricingService.SetFee(middleware.CurrentUserID(c), req.FeePercentage, req.ProviderID, req.Reason)
	if err != nil {
		return serviceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"status": "success", "data": cfg})
}

type FeeChangeRequestBody struct {
	FeePercentage float64 `json:"fee_percentage" validate:"required,gt=0,lt=1"`
	ProviderID    *uint   `json:"provider_id,omitempty"`
	Justification string  `json:"justification" validate:"required"`
}

func RequestFeeChange(c *fiber.Ctx) error {
	var req FeeChangeRequestBody
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	request, err := pricingService.RequestFeeChange(middleware.CurrentUserID(c), req.FeePercentage, req.ProviderID, req.Justification)
	if err != nil {
		return serviceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"status": "success", "data": request})
}

type ReviewFeeChangeRequest struct {
	Approve bool   `json:"approve"`
	Notes   string `json:"notes,omitempty"`
}

func ReviewFeeChange(c *fiber.Ctx) error {
	requestID, err := strconv.ParseUint(c.Params("requestId"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request id"})
	}

	var req ReviewFeeChangeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}

	request, err := pricingService.ReviewFeeChange(uint(requestID), middleware.CurrentUserID(c), req.Approve, req.Notes)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{"status": "success", "data": request})
}

// GetEffectiveFee resolves the fee a provider would be charged right now,
// honoring any provider-specific override over the global rate.
func GetEffectiveFee(c *fiber.Ctx) error {
	var providerID uint
	if raw := c.Query("provider_id"); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid provider id"})
		}
		providerID = uint(parsed)
	}

	return c.JSON(fiber.Map{
		"status": "success",
		"data":   fiber.Map{"fee_percentage": pricingService.EffectiveFee(providerID)},
	})
}

func ListFeeConfigs(c *fiber.Ctx) error {
	activeOnly := c.Query("active") == "true"
	configs, err := pricingService.ListConfigs(activeOnly)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{"status": "success", "data": configs})
}

func ListFeeChangeLogs(c *fiber.Ctx) error {
	limit, _ := strconv.Atoi(c.Query("limit", "50"))
	logs, err := pricingService.ListChangeLogs(limit)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{"status": "success", "data": logs})
}

func ListFeeChangeRequests(c *fiber.Ctx) error {
	var status *models.FeeRequestStatus
	if raw := c.Query("status"); raw != "" {
		parsed, err := models.ParseFeeRequestStatus(raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		status = &parsed
	}

	requests, err := pricingService.ListChangeRequests(status)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{"status": "success", "data": requests})
}
