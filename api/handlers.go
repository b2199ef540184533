package api

import (
	"github.com/gofiber/fiber/v2"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// HealthResponse reports whether the server and its store are usable.
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Storage  string `json:"storage,omitempty"`
	Provider string `json:"provider,omitempty"`
}

func errorJSON(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(ErrorResponse{Error: msg})
}

// handleHealth reports server status and database reachability.
func (s *Server) handleHealth(c *fiber.Ctx) error {
	database := "connected"
	if err := s.storer.Ping(c.Context()); err != nil {
		s.logger.Warn("database ping failed", "error", err)
		database = "unavailable"
	}

	return c.JSON(HealthResponse{
		Status:   "Food Assistant backend running",
		Database: database,
		Storage:  s.config.StorageDriver,
		Provider: s.config.Provider,
	})
}

// handlePing returns a simple health check response.
func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON("pong")
}
