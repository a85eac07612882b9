package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

func TestRequireRole(t *testing.T) {
	cases := map[string]struct {
		role   interface{}
		status int
	}{
		"mixed case admin": {role: "Admin", status: fiber.StatusOK},
		"padded teacher":   {role: " teacher ", status: fiber.StatusOK},
		"student refused":  {role: "student", status: fiber.StatusForbidden},
		"missing role":     {role: nil, status: fiber.StatusForbidden},
		"non string role":  {role: 42, status: fiber.StatusForbidden},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			app := fiber.New()
			app.Use(func(c *fiber.Ctx) error {
				if tc.role != nil {
					c.Locals(LocalUserRole, tc.role)
				}
				return c.Next()
			})
			app.Use(RequireRole("teacher", "ADMIN", "admin"))
			app.Get("/change-requests", func(c *fiber.Ctx) error {
				return c.SendStatus(fiber.StatusOK)
			})

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/change-requests", nil))
			require.NoError(t, err)
			defer resp.Body.Close()
			require.Equal(t, tc.status, resp.StatusCode)

			if tc.status != fiber.StatusForbidden {
				return
			}
			var body struct {
				Success bool `json:"success"`
				Details struct {
					AllowedRoles []string `json:"allowed_roles"`
				} `json:"details"`
			}
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			require.False(t, body.Success)
			require.Equal(t, []string{"admin", "teacher"}, body.Details.AllowedRoles)
		})
	}
}
