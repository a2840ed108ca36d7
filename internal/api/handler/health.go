package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/stylekit/internal/database"
)

type HealthHandler struct {
	db      database.Pinger
	version string
}

// NewHealthHandler builds the health endpoints. db may be nil when the service
// runs without Postgres.
func NewHealthHandler(db database.Pinger, version string) *HealthHandler {
	return &HealthHandler{db: db, version: version}
}

type HealthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version,omitempty"`
	Database string `json:"database,omitempty"`
}

func (h *HealthHandler) Health(c *fiber.Ctx) error {
	return c.JSON(HealthResponse{
		Status:  "ok",
		Version: h.version,
	})
}

func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	if h.db == nil {
		return c.JSON(HealthResponse{Status: "ready", Database: "disabled"})
	}

	if err := database.HealthCheck(c.Context(), h.db); err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(HealthResponse{
			Status:   "unavailable",
			Database: "down",
		})
	}

	return c.JSON(HealthResponse{Status: "ready", Database: "up"})
}
