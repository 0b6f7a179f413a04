package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/launchdeck-lab/launchdeck-server/internal/services/registry"
	"github.com/launchdeck-lab/launchdeck-server/internal/utils"
	"go.uber.org/zap"
)

// handleListTokens proxies the registry's token list for a deployer wallet
// and returns the records in the canonical display shape.
func (s *APIServer) handleListTokens(c *fiber.Ctx) error {
	deployerAddr := c.Query("deployer")
	if deployerAddr == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "deployer query parameter is required",
		})
	}
	if !utils.IsValidWalletAddress(deployerAddr) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "deployer must be a 0x-prefixed 40-hex-character address",
		})
	}

	result, err := s.registry.ListTokensByDeployer(c.Context(), deployerAddr, c.QueryInt("page", 0))
	if err != nil {
		s.logger.Error("registry proxy failed", zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "token registry is unreachable",
		})
	}
	if result.Status >= 400 {
		// Pass the upstream status through untouched.
		return c.Status(result.Status).JSON(result.Body)
	}

	return c.JSON(fiber.Map{
		"tokens": registry.NormalizedTokens(result.Body),
	})
}

// handleSearchTokens relays a creator-wallet search, passing the upstream
// response through after best-effort parsing.
func (s *APIServer) handleSearchTokens(c *fiber.Ctx) error {
	creator := c.Query("creator")
	if creator == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "creator query parameter is required",
		})
	}

	result, err := s.registry.SearchByCreator(c.Context(), creator)
	if err != nil {
		s.logger.Error("registry search failed", zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "token registry is unreachable",
		})
	}
	return c.Status(result.Status).JSON(result.Body)
}
