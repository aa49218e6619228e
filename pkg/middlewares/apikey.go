package middlewares

import (
	"crypto/subtle"

	"chat_relay_service/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const (
	// HeaderAPIKey client api key header name
	HeaderAPIKey = "api-key"
	// HeaderAdminKey admin api key header name
	HeaderAdminKey = "admin-key"
)

// APIKeyMiddleware gate client routes on the api-key header
func APIKeyMiddleware(secret string) fiber.Handler {
	return headerKey(HeaderAPIKey, secret, "Unauthorized: Permission denied")
}

// AdminKeyMiddleware gate admin routes on the admin-key header
func AdminKeyMiddleware(secret string) fiber.Handler {
	return headerKey(HeaderAdminKey, secret, "Unauthorized: Access denied")
}

// headerKey exact match of header against secret, an unset secret never matches
func headerKey(header, secret, denied string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		supplied := c.Get(header)
		if supplied == "" || secret == "" ||
			subtle.ConstantTimeCompare([]byte(supplied), []byte(secret)) != 1 {
			logger.Log.Warn("unauthorized request",
				zap.String("header", header), zap.String("path", c.Path()), zap.String("ip", c.IP()))
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": denied})
		}
		return c.Next()
	}
}
