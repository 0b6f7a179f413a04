package config

import (
	"crypto/ecdsa"
	"fmt"
	"log"
	"os"
	"strings"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Signer   SignerConfig
	Upstream UpstreamConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	SessionSecret      string
}

type DatabaseConfig struct {
	// DSN is either a postgres connection string (postgres://...) or a
	// sqlite file path. ":memory:" is accepted for tests.
	DSN string
}

type SignerConfig struct {
	// PrivateKeyHex is the server-side signing key used for payment
	// credentials. Optional; requests that need it fail individually.
	PrivateKeyHex string
	// PlatformWallet receives the platform share of trading fees.
	PlatformWallet string

	key     *ecdsa.PrivateKey
	address string
}

type UpstreamConfig struct {
	RegistryAPIURL  string
	DeployerAPIURL  string
	InferenceAPIURL string
	InferenceModel  string
}

// Load reads configuration from the environment (and .env if present) and
// derives the signer address once. Components receive the resulting *Config
// explicitly; there is no package-level singleton.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, using system environment")
	}

	cfg := &Config{
		App: AppConfig{
			Port:               getEnv("PORT", "8080"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "launchdeck.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
			SessionSecret:      getEnv("SESSION_SECRET", ""),
		},
		Database: DatabaseConfig{
			DSN: getEnv("DATABASE_URL", "launchdeck.db"),
		},
		Signer: SignerConfig{
			PrivateKeyHex:  getEnv("SIGNER_PRIVATE_KEY", ""),
			PlatformWallet: getEnv("PLATFORM_WALLET", "0x36eb45C9C1357B6E5DEDA1a7a0A0A0f1417a8a0d"),
		},
		Upstream: UpstreamConfig{
			RegistryAPIURL:  getEnv("REGISTRY_API_URL", "https://www.clanker.world/api"),
			DeployerAPIURL:  getEnv("DEPLOYER_API_URL", ""),
			InferenceAPIURL: getEnv("INFERENCE_API_URL", "https://api.x402.org/v1/chat/completions"),
			InferenceModel:  getEnv("INFERENCE_MODEL", "gpt-4o-mini"),
		},
	}

	if err := cfg.Signer.derive(); err != nil {
		return nil, fmt.Errorf("invalid SIGNER_PRIVATE_KEY: %w", err)
	}

	return cfg, nil
}

func (s *SignerConfig) derive() error {
	if s.PrivateKeyHex == "" {
		return nil
	}
	key, err := ethcrypto.HexToECDSA(strings.TrimPrefix(s.PrivateKeyHex, "0x"))
	if err != nil {
		return err
	}
	s.key = key
	s.address = ethcrypto.PubkeyToAddress(key.PublicKey).Hex()
	return nil
}

// Configured reports whether a signing key is available.
func (s *SignerConfig) Configured() bool {
	return s.key != nil
}

// PrivateKey returns the parsed signing key, or nil when unconfigured.
func (s *SignerConfig) PrivateKey() *ecdsa.PrivateKey {
	return s.key
}

// Address returns the derived signer address, or "" when unconfigured.
func (s *SignerConfig) Address() string {
	return s.address
}

// SetPrivateKey replaces the signing key at construction time. Used by tests.
func (s *SignerConfig) SetPrivateKey(hexKey string) error {
	s.PrivateKeyHex = hexKey
	s.key = nil
	s.address = ""
	return s.derive()
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return fallback
}
