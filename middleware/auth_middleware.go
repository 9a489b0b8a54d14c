package middleware

import (
	config "github.com/velora/tokenmarket/configs"
	"github.com/velora/tokenmarket/models"
	"github.com/gofiber/fiber/v2"
	jwtware "github.com/gofiber/jwt/v3"
	"github.com/golang-jwt/jwt/v4"
)

func Protected() fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey:   []byte(config.Config("JWT_SECRET")),
		ErrorHandler: jwtError,
	})
}

func jwtError(c *fiber.Ctx, err error) error {
	if err.Error() == "Missing or malformed JWT" {
		return c.Status(fiber.StatusBadRequest).
			JSON(fiber.Map{"status": "error", "message": "Missing or malformed JWT", "data": nil})
	}
	return c.Status(fiber.StatusUnauthorized).
		JSON(fiber.Map{"status": "error", "message": "Invalid or expired JWT", "data": nil})
}

// actionPolicy is the single source of truth for which roles may perform
// which privileged action. Route guards look actions up here instead of
// hardcoding role checks per endpoint.
var actionPolicy = map[string][]models.Role{
	"fees:set":           {models.RoleAdmin, models.RoleSuperAdmin},
	"fees:request":       {models.RoleEmployee, models.RoleManager, models.RoleAdmin, models.RoleSuperAdmin},
	"fees:review":        {models.RoleSuperAdmin},
	"fees:view":          {models.RoleManager, models.RoleAdmin, models.RoleSuperAdmin},
	"disputes:assign":    {models.RoleAdmin, models.RoleSuperAdmin},
	"disputes:resolve":   {models.RoleManager, models.RoleAdmin, models.RoleSuperAdmin},
	"disputes:list":      {models.RoleManager, models.RoleAdmin, models.RoleSuperAdmin},
	"assignments:manage": {models.RoleManager, models.RoleAdmin, models.RoleSuperAdmin},
	"users:credit":       {models.RoleManager, models.RoleAdmin, models.RoleSuperAdmin},
}

// RequireAction guards a route with the action policy table. Unknown
// actions deny everyone.
func RequireAction(action string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role := CurrentRole(c)
		for _, allowed := range actionPolicy[action] {
			if role == allowed {
				return c.Next()
			}
		}
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"status":  "error",
			"message": "Forbidden: insufficient privileges",
		})
	}
}

// CurrentUserID extracts the authenticated user's id from the JWT claims
// set by Protected().
func CurrentUserID(c *fiber.Ctx) uint {
	token, ok := c.Locals("user").(*jwt.Token)
	if !ok {
		return 0
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0
	}
	id, ok := claims["user_id"].(float64)
	if !ok {
		return 0
	}
	return uint(id)
}

// CurrentRole extracts the authenticated user's role from the JWT claims.
func CurrentRole(c *fiber.Ctx) models.Role {
	token, ok := c.Locals("user").(*jwt.Token)
	if !ok {
		return ""
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return ""
	}
	role, _ := claims["role"].(string)
	parsed, err := models.ParseRole(role)
	if err != nil {
		return ""
	}
	return parsed
}
