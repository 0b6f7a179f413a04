package api

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// handleListLaunches returns the local launch cache, optionally filtered by
// deployer wallet. These rows record submission, not confirmed on-chain
// state.
func (s *APIServer) handleListLaunches(c *fiber.Ctx) error {
	wallet := c.Query("wallet")

	var (
		launches any
		err      error
	)
	if wallet != "" {
		launches, err = s.db.ListTokenLaunchesByWallet(wallet)
	} else {
		launches, err = s.db.ListTokenLaunches()
	}
	if err != nil {
		s.logger.Error("failed to list token launches", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to list launches",
		})
	}
	return c.JSON(fiber.Map{"launches": launches})
}

func (s *APIServer) handleDeleteLaunch(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "launch id must be numeric",
		})
	}

	deleted, err := s.db.DeleteTokenLaunch(uint(id))
	if err != nil {
		s.logger.Error("failed to delete token launch", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to delete launch",
		})
	}
	if deleted == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "launch not found",
		})
	}
	return c.JSON(fiber.Map{"deleted": deleted})
}
