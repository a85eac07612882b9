package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/gradebook-api/internal/models"
	"github.com/noah-isme/gradebook-api/internal/utils"
)

// Auth role constants used by WithAuth. AuthRoleStaff admits admins and teachers.
const (
	AuthRoleAny     = "any"
	AuthRoleAdmin   = models.RoleAdmin
	AuthRoleTeacher = models.RoleTeacher
	AuthRoleStudent = models.RoleStudent
	AuthRoleStaff   = "staff"
)

// AuthOptions configures the WithAuth helper.
type AuthOptions struct {
	Role        string
	RequireUser bool
}

// WithAuth wraps a single handler with authentication and coarse role guards. Fine grained
// ownership checks stay in the service policy.
func WithAuth(handler fiber.Handler, opts AuthOptions) fiber.Handler {
	role := strings.ToLower(strings.TrimSpace(opts.Role))
	if role == "" {
		role = AuthRoleAny
	}

	requireUser := opts.RequireUser || role != AuthRoleAny

	return func(c *fiber.Ctx) error {
		userID := c.Locals(LocalUserID)
		if requireUser && userID == nil {
			return utils.Fail(c, fiber.StatusUnauthorized, "authentication required", nil)
		}

		if role == AuthRoleAny {
			return handler(c)
		}

		currentRole := normalizeRoleValue(c.Locals(LocalUserRole))
		allowed := false
		switch role {
		case AuthRoleStaff:
			allowed = currentRole == models.RoleAdmin || currentRole == models.RoleTeacher
		default:
			allowed = currentRole == role
		}
		if !allowed {
			return utils.Fail(c, fiber.StatusForbidden, "insufficient permissions", fiber.Map{"required_role": role})
		}

		return handler(c)
	}
}
