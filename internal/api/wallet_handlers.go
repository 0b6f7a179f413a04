package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/launchdeck-lab/launchdeck-server/internal/api/middleware"
	"github.com/launchdeck-lab/launchdeck-server/internal/database"
	"github.com/launchdeck-lab/launchdeck-server/internal/models"
	"github.com/launchdeck-lab/launchdeck-server/internal/utils"
	"go.uber.org/zap"
)

type createWalletRequest struct {
	Address string `json:"address"`
	Label   string `json:"label"`
}

func (s *APIServer) handleListWallets(c *fiber.Ctx) error {
	wallets, err := s.db.ListTrackedWallets()
	if err != nil {
		s.logger.Error("failed to list tracked wallets", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to list tracked wallets",
		})
	}
	return c.JSON(fiber.Map{"wallets": wallets})
}

func (s *APIServer) handleCreateWallet(c *fiber.Ctx) error {
	var req createWalletRequest
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

	wallet := &models.TrackedWallet{
		Address: req.Address,
		Label:   req.Label,
		UserID:  middleware.UserID(c),
	}
	if err := s.db.CreateTrackedWallet(wallet); err != nil {
		if database.IsUniqueViolation(err) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "wallet is already tracked",
			})
		}
		s.logger.Error("failed to create tracked wallet", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to track wallet",
		})
	}
	return c.Status(fiber.StatusCreated).JSON(wallet)
}

func (s *APIServer) handleDeleteWallet(c *fiber.Ctx) error {
	address := c.Params("address")
	deleted, err := s.db.DeleteTrackedWallet(address)
	if err != nil {
		s.logger.Error("failed to delete tracked wallet", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to delete tracked wallet",
		})
	}
	if deleted == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "wallet is not tracked",
		})
	}
	return c.JSON(fiber.Map{"deleted": deleted})
}
