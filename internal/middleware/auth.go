// Package middleware provides HTTP middleware for the fiber app:
// operator authentication and permission checks.
package middleware

import (
	"log"
	"strings"

	"payguard/internal/models"
	"payguard/internal/services/auth"
	"payguard/internal/utils"

	"github.com/gofiber/fiber/v2"
)

// AuthMiddleware validates operator JWTs and adds the claims to the
// request context.
type AuthMiddleware struct {
	authService auth.Service
}

func NewAuthMiddleware(authService auth.Service) *AuthMiddleware {
	return &AuthMiddleware{authService: authService}
}

// Handler checks the Authorization header, the token signature and
// expiration, and that the token version still matches the operator's
// current version (so logout invalidates outstanding tokens).
func (m *AuthMiddleware) Handler(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "missing authorization header"})
	}
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid authorization format"})
	}
	tokenString := strings.TrimPrefix(authHeader, "Bearer ")

	_, claims, err := utils.ParseToken(tokenString)
	if err != nil {
		log.Printf("Token validation error: %v", err)
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid token"})
	}

	currentVersion, err := m.authService.GetOperatorTokenVersion(c.Context(), claims.OperatorID)
	if err != nil {
		log.Printf("Error getting token version for operator %d: %v", claims.OperatorID, err)
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid token"})
	}
	if claims.TokenVersion != currentVersion {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "session expired"})
	}

	c.Locals("claims", claims)
	c.Locals("operatorID", claims.OperatorID)
	return c.Next()
}

// HasPermission returns a middleware that checks for a specific permission.
// Admins pass every check.
func HasPermission(permission string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, ok := c.Locals("claims").(*models.OperatorClaims)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
		}

		if claims.Role == "admin" {
			return c.Next()
		}
		if claims.HasPermission(permission) {
			return c.Next()
		}
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Insufficient permissions"})
	}
}

// OperatorEmail extracts the authenticated operator's email for audit
// attribution. Callers behind AuthMiddleware always have claims.
func OperatorEmail(c *fiber.Ctx) string {
	claims, ok := c.Locals("claims").(*models.OperatorClaims)
	if !ok {
		return "unknown"
	}
	return claims.Email
}
