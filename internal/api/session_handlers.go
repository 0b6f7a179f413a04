package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/launchdeck-lab/launchdeck-server/internal/api/middleware"
	"github.com/launchdeck-lab/launchdeck-server/internal/utils"
	"go.uber.org/zap"
)

type createSessionRequest struct {
	Address string `json:"address"`
}

// handleCreateSession issues a session token for a wallet address, creating
// the user row on first sight.
func (s *APIServer) handleCreateSession(c *fiber.Ctx) error {
	var req createSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}
	if !utils.IsValidWalletAddress(req.Address) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "address must be a 0x-prefixed 40-hex-character address",
		})
	}
	if s.cfg.App.SessionSecret == "" {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "sessions are not enabled on this server",
		})
	}

	user, err := s.db.GetOrCreateUser(req.Address)
	if err != nil {
		s.logger.Error("failed to resolve user", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to create session",
		})
	}

	token, err := middleware.MintSessionToken(s.cfg.App.SessionSecret, user.WalletAddress, user.ID)
	if err != nil {
		s.logger.Error("failed to mint session token", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to create session",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"token":   token,
		"address": user.WalletAddress,
	})
}
