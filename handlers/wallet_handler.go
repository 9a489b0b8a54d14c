package handlers

import (
	"strconv"

	"github.com/velora/tokenmarket/middleware"
	"github.com/gofiber/fiber/v2"
)

func GetMyWallet(c *fiber.Ctx) error {
	account, err := ledgerService.Account(middleware.CurrentUserID(c))
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{"status": "success", "data": account})
}

func GetMyLedgerHistory(c *fiber.Ctx) error {
	limit, _ := strconv.Atoi(c.Query("limit", "50"))
	offset, _ := strconv.Atoi(c.Query("offset", "0"))

	entries, err := ledgerService.History(middleware.CurrentUserID(c), limit, offset)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{"status": "success", "data": entries})
}
