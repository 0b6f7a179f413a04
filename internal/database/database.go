package database

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/launchdeck-lab/launchdeck-server/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Database struct {
	DB *gorm.DB
}

// New opens the store behind the given DSN. A postgres:// (or postgresql://)
// DSN selects the postgres driver; anything else is treated as a sqlite file
// path (":memory:" included).
func New(dsn string) (*Database, error) {
	gormLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Error,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	cfg := &gorm.Config{
		Logger:         gormLogger,
		TranslateError: true,
	}

	var (
		db  *gorm.DB
		err error
	)
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		db, err = gorm.Open(postgres.Open(dsn), cfg)
	} else {
		db, err = gorm.Open(sqlite.Open(dsn), cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	database := &Database{DB: db}
	if err := database.migrate(); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return database, nil
}

func (d *Database) migrate() error {
	return d.DB.AutoMigrate(
		&models.ChatMessage{},
		&models.TrackedWallet{},
		&models.TokenLaunch{},
		&models.User{},
	)
}

// IsUniqueViolation reports whether err is a unique-constraint failure from
// either driver.
func IsUniqueViolation(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

// IsNotFound reports whether err means the record does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// Chat message operations

func (d *Database) CreateChatMessage(msg *models.ChatMessage) error {
	return d.DB.Create(msg).Error
}

func (d *Database) ListChatMessages(sessionID string) ([]models.ChatMessage, error) {
	var messages []models.ChatMessage
	err := d.DB.
		Where("session_id = ?", sessionID).
		Order("created_at asc, id asc").
		Find(&messages).Error
	return messages, err
}

func (d *Database) ClearChatHistory(sessionID string) (int64, error) {
	result := d.DB.Where("session_id = ?", sessionID).Delete(&models.ChatMessage{})
	return result.RowsAffected, result.Error
}

// Tracked wallet operations

func (d *Database) CreateTrackedWallet(wallet *models.TrackedWallet) error {
	return d.DB.Create(wallet).Error
}

func (d *Database) ListTrackedWallets() ([]models.TrackedWallet, error) {
	var wallets []models.TrackedWallet
	err := d.DB.Order("created_at desc").Find(&wallets).Error
	return wallets, err
}

func (d *Database) DeleteTrackedWallet(address string) (int64, error) {
	result := d.DB.
		Where("lower(address) = lower(?)", address).
		Delete(&models.TrackedWallet{})
	return result.RowsAffected, result.Error
}

// Token launch operations

func (d *Database) CreateTokenLaunch(launch *models.TokenLaunch) error {
	return d.DB.Create(launch).Error
}

func (d *Database) ListTokenLaunches() ([]models.TokenLaunch, error) {
	var launches []models.TokenLaunch
	err := d.DB.Order("created_at desc").Find(&launches).Error
	return launches, err
}

func (d *Database) ListTokenLaunchesByWallet(address string) ([]models.TokenLaunch, error) {
	var launches []models.TokenLaunch
	err := d.DB.
		Where("lower(deployer_wallet) = lower(?)", address).
		Order("created_at desc").
		Find(&launches).Error
	return launches, err
}

func (d *Database) DeleteTokenLaunch(id uint) (int64, error) {
	result := d.DB.Delete(&models.TokenLaunch{}, id)
	return result.RowsAffected, result.Error
}

// User operations

func (d *Database) GetOrCreateUser(walletAddress string) (*models.User, error) {
	var user models.User
	err := d.DB.Where("lower(wallet_address) = lower(?)", walletAddress).First(&user).Error
	if err == nil {
		return &user, nil
	}
	if !IsNotFound(err) {
		return nil, err
	}

	user = models.User{WalletAddress: walletAddress}
	if err := d.DB.Create(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
