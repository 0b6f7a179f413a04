package deployer

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/go-playground/validator/v10"
	"github.com/launchdeck-lab/launchdeck-server/internal/config"
	"github.com/launchdeck-lab/launchdeck-server/internal/database"
	"github.com/launchdeck-lab/launchdeck-server/internal/models"
	"github.com/launchdeck-lab/launchdeck-server/internal/utils"
	"go.uber.org/zap"
)

const (
	// Fixed fee split applied to every deployment.
	CreatorFeeBps  = 9000
	PlatformFeeBps = 1000

	platformName = "launchdeck"
)

var (
	ErrSignerNotConfigured = errors.New("server signing key is not configured")
	ErrInvalidWallet       = errors.New("wallet must be a 0x-prefixed 40-hex-character address")
)

// ValidationError wraps a failed field validation so handlers can map it to
// a 4xx response.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string { return e.Err.Error() }
func (e *ValidationError) Unwrap() error { return e.Err }

type DeployRequest struct {
	Name        string `json:"name" validate:"required"`
	Symbol      string `json:"symbol" validate:"required"`
	Wallet      string `json:"wallet" validate:"required"`
	WebsiteURL  string `json:"website_url,omitempty"`
	TwitterURL  string `json:"twitter_url,omitempty"`
	Description string `json:"description,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
}

type DeployResult struct {
	TxHash       string  `json:"tx_hash"`
	TokenAddress *string `json:"token_address,omitempty"`
	Name         string  `json:"name"`
	Symbol       string  `json:"symbol"`
	Wallet       string  `json:"wallet"`
}

// feeRecipient mirrors the deployment SDK's reward recipient entry.
type feeRecipient struct {
	Admin     string `json:"admin"`
	Recipient string `json:"recipient"`
	Bps       int    `json:"bps"`
}

type deployPayload struct {
	Name       string         `json:"name"`
	Symbol     string         `json:"symbol"`
	TokenAdmin string         `json:"tokenAdmin"`
	Image      string         `json:"image,omitempty"`
	Metadata   map[string]any `json:"metadata"`
	Context    map[string]any `json:"context"`
	Rewards    struct {
		Recipients []feeRecipient `json:"recipients"`
	} `json:"rewards"`
}

type deployResponse struct {
	TxHash       string  `json:"txHash"`
	TokenAddress *string `json:"tokenAddress,omitempty"`
	Error        string  `json:"error,omitempty"`
}

// Service dispatches token deployments to the external deployment SDK. The
// SDK submits and signs the on-chain transaction; this service validates,
// applies the fixed fee split and platform metadata, records the local launch
// cache row, and returns the transaction hash without waiting for chain
// confirmation.
type Service struct {
	cfg        *config.Config
	db         *database.Database
	httpClient *http.Client
	validator  *validator.Validate
	logger     *zap.Logger
}

func NewService(cfg *config.Config, db *database.Database, logger *zap.Logger) *Service {
	return &Service{
		cfg:        cfg,
		db:         db,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		validator:  validator.New(),
		logger:     logger,
	}
}

// Deploy validates req, submits it to the deployment SDK and returns the
// transaction hash. Confirmation is started in the background and its
// outcome is logged, never surfaced.
func (s *Service) Deploy(ctx context.Context, req DeployRequest, userID *string) (*DeployResult, error) {
	if !s.cfg.Signer.Configured() {
		return nil, ErrSignerNotConfigured
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, &ValidationError{Err: err}
	}
	if !utils.IsValidWalletAddress(req.Wallet) {
		return nil, &ValidationError{Err: ErrInvalidWallet}
	}

	payload := s.buildPayload(req)
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal deploy payload: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.Upstream.DeployerAPIURL+"/deploy", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create deploy request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if err := s.signRequest(httpReq, body); err != nil {
		return nil, fmt.Errorf("failed to sign deploy request: %w", err)
	}

	resp, err := s.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("deploy request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read deploy response: %w", err)
	}

	var deployResp deployResponse
	if err := json.Unmarshal(respBody, &deployResp); err != nil {
		return nil, fmt.Errorf("failed to parse deploy response (status %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		msg := deployResp.Error
		if msg == "" {
			msg = string(respBody)
		}
		return nil, fmt.Errorf("deployer returned status %d: %s", resp.StatusCode, msg)
	}
	if deployResp.TxHash == "" {
		return nil, fmt.Errorf("deployer response missing transaction hash")
	}

	launch := &models.TokenLaunch{
		TokenAddress:   deployResp.TokenAddress,
		Name:           req.Name,
		Symbol:         req.Symbol,
		DeployerWallet: req.Wallet,
		TxHash:         deployResp.TxHash,
		UserID:         userID,
	}
	if err := s.db.CreateTokenLaunch(launch); err != nil {
		// The transaction is already submitted; a failed cache insert only
		// costs the "my launches" view.
		s.logger.Warn("failed to record token launch",
			zap.String("tx_hash", deployResp.TxHash), zap.Error(err))
	}

	go s.awaitConfirmation(deployResp.TxHash)

	s.logger.Info("token deployment submitted",
		zap.String("name", req.Name),
		zap.String("symbol", req.Symbol),
		zap.String("wallet", req.Wallet),
		zap.String("tx_hash", deployResp.TxHash))

	return &DeployResult{
		TxHash:       deployResp.TxHash,
		TokenAddress: deployResp.TokenAddress,
		Name:         req.Name,
		Symbol:       req.Symbol,
		Wallet:       req.Wallet,
	}, nil
}

func (s *Service) buildPayload(req DeployRequest) deployPayload {
	socials := []map[string]string{}
	if req.WebsiteURL != "" {
		socials = append(socials, map[string]string{"platform": "website", "url": req.WebsiteURL})
	}
	if req.TwitterURL != "" {
		socials = append(socials, map[string]string{"platform": "x", "url": req.TwitterURL})
	}

	payload := deployPayload{
		Name:       req.Name,
		Symbol:     req.Symbol,
		TokenAdmin: req.Wallet,
		Image:      req.ImageURL,
		Metadata: map[string]any{
			"description":     req.Description,
			"socialMediaUrls": socials,
		},
		Context: map[string]any{
			"interface": platformName,
			"platform":  platformName,
		},
	}
	payload.Rewards.Recipients = []feeRecipient{
		{Admin: req.Wallet, Recipient: req.Wallet, Bps: CreatorFeeBps},
		{Admin: s.cfg.Signer.PlatformWallet, Recipient: s.cfg.Signer.PlatformWallet, Bps: PlatformFeeBps},
	}
	return payload
}

// signRequest attaches an ECDSA signature over the request body so the
// deployer can verify the call came from this server's configured key.
func (s *Service) signRequest(req *http.Request, body []byte) error {
	digest := ethcrypto.Keccak256(body)
	sig, err := ethcrypto.Sign(digest, s.cfg.Signer.PrivateKey())
	if err != nil {
		return err
	}
	req.Header.Set("X-Signature", "0x"+hex.EncodeToString(sig))
	req.Header.Set("X-Signer-Address", s.cfg.Signer.Address())
	return nil
}

// awaitConfirmation polls the deployer's status endpoint for a short while.
// The outcome is logged and discarded; the launch record is never updated.
func (s *Service) awaitConfirmation(txHash string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	url := fmt.Sprintf("%s/deploy/%s/status", s.cfg.Upstream.DeployerAPIURL, txHash)
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("gave up waiting for deployment confirmation",
				zap.String("tx_hash", txHash))
			return
		case <-time.After(5 * time.Second):
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return
		}
		resp, err := s.httpClient.Do(req)
		if err != nil {
			continue
		}
		var status struct {
			Status string `json:"status"`
		}
		err = json.NewDecoder(resp.Body).Decode(&status)
		resp.Body.Close()
		if err != nil {
			continue
		}
		switch status.Status {
		case "confirmed":
			s.logger.Info("deployment confirmed", zap.String("tx_hash", txHash))
			return
		case "failed":
			s.logger.Warn("deployment failed on chain", zap.String("tx_hash", txHash))
			return
		}
	}
}
