package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/launchdeck-lab/launchdeck-server/internal/api/middleware"
	"github.com/launchdeck-lab/launchdeck-server/internal/services/deployer"
	"go.uber.org/zap"
)

// handleDeploy validates a deploy request and dispatches it to the external
// deployment SDK. The response carries the transaction hash only; chain
// confirmation is not awaited.
func (s *APIServer) handleDeploy(c *fiber.Ctx) error {
	var req deployer.DeployRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	result, err := s.deployer.Deploy(c.Context(), req, middleware.UserID(c))
	if err != nil {
		var validationErr *deployer.ValidationError
		switch {
		case errors.Is(err, deployer.ErrSignerNotConfigured):
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error": "deployments are disabled: server signing key is not configured",
			})
		case errors.As(err, &validationErr):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": validationErr.Error(),
			})
		default:
			s.logger.Error("deployment dispatch failed", zap.Error(err))
			return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
	}

	return c.Status(fiber.StatusCreated).JSON(result)
}
