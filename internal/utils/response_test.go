package utils_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gradebook-api/internal/utils"
)

func TestEnvelopes(t *testing.T) {
	cases := []struct {
		name    string
		handler fiber.Handler
		status  int
		want    map[string]interface{}
	}{
		{
			name:    "success defaults message",
			handler: func(c *fiber.Ctx) error { return utils.SendSuccess(c, "", fiber.Map{"total": 35}) },
			status:  fiber.StatusOK,
			want:    map[string]interface{}{"success": true, "message": "success", "data": map[string]interface{}{"total": float64(35)}},
		},
		{
			name:    "created status kept",
			handler: func(c *fiber.Ctx) error { return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "grade recorded", nil) },
			status:  fiber.StatusCreated,
			want:    map[string]interface{}{"success": true, "message": "grade recorded"},
		},
		{
			name:    "error omits data",
			handler: func(c *fiber.Ctx) error { return utils.SendError(c, fiber.StatusConflict, "already processed") },
			status:  fiber.StatusConflict,
			want:    map[string]interface{}{"success": false, "message": "already processed"},
		},
		{
			name: "failure carries details",
			handler: func(c *fiber.Ctx) error {
				return utils.Fail(c, fiber.StatusBadRequest, "", fiber.Map{"limit": 60})
			},
			status: fiber.StatusBadRequest,
			want:   map[string]interface{}{"success": false, "message": "error", "details": map[string]interface{}{"limit": float64(60)}},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/", tc.handler)

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil), -1)
			require.NoError(t, err)
			defer resp.Body.Close()
			require.Equal(t, tc.status, resp.StatusCode)

			var body map[string]interface{}
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			require.Equal(t, tc.want, body)
		})
	}
}
