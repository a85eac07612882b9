package middleware

import (
	"fmt"
	"slices"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/gradebook-api/internal/utils"
)

// RequireRole admits requests whose authenticated role is one of roles. It only gates whole
// route groups; ownership of subjects and grades is decided by the service policy.
func RequireRole(roles ...string) fiber.Handler {
	allowed := make([]string, 0, len(roles))
	for _, role := range roles {
		if normalized := strings.ToLower(strings.TrimSpace(role)); normalized != "" && !slices.Contains(allowed, normalized) {
			allowed = append(allowed, normalized)
		}
	}
	slices.Sort(allowed)

	return func(c *fiber.Ctx) error {
		if slices.Contains(allowed, normalizeRoleValue(c.Locals(LocalUserRole))) {
			return c.Next()
		}
		return utils.Fail(c, fiber.StatusForbidden, "insufficient permissions", fiber.Map{"allowed_roles": allowed})
	}
}

func normalizeRoleValue(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return strings.ToLower(strings.TrimSpace(v))
	default:
		return strings.ToLower(strings.TrimSpace(fmt.Sprint(v)))
	}
}
