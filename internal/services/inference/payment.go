package inference

import (
	"crypto/ecdsa"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

// paymentRequired is the structured 402 body: a list of payment options the
// server accepts. Only the first option is used.
type paymentRequired struct {
	X402Version int             `json:"x402Version"`
	Error       string          `json:"error,omitempty"`
	Accepts     []paymentOption `json:"accepts"`
}

type paymentOption struct {
	Scheme            string `json:"scheme"`
	Network           string `json:"network"`
	MaxAmountRequired string `json:"maxAmountRequired"`
	Resource          string `json:"resource"`
	PayTo             string `json:"payTo"`
	Asset             string `json:"asset"`
	MaxTimeoutSeconds int    `json:"maxTimeoutSeconds"`
	Extra             struct {
		Name    string `json:"name"`
		Version string `json:"version"`
	} `json:"extra"`
}

type paymentAuthorization struct {
	From        string `json:"from"`
	To          string `json:"to"`
	Value       string `json:"value"`
	ValidAfter  string `json:"validAfter"`
	ValidBefore string `json:"validBefore"`
	Nonce       string `json:"nonce"`
}

type paymentPayload struct {
	X402Version int    `json:"x402Version"`
	Scheme      string `json:"scheme"`
	Network     string `json:"network"`
	Payload     struct {
		Signature     string               `json:"signature"`
		Authorization paymentAuthorization `json:"authorization"`
	} `json:"payload"`
}

// networkChainIDs translates the payment option's network name into the
// numeric chain id the EIP-712 domain expects.
var networkChainIDs = map[string]int64{
	"ethereum":     1,
	"mainnet":      1,
	"sepolia":      11155111,
	"base":         8453,
	"base-sepolia": 84532,
	"polygon":      137,
	"arbitrum":     42161,
	"optimism":     10,
}

func chainIDForNetwork(network string) (int64, error) {
	if id, ok := networkChainIDs[network]; ok {
		return id, nil
	}
	// Some facilitators send the numeric id directly.
	if id, err := strconv.ParseInt(network, 10, 64); err == nil && id > 0 {
		return id, nil
	}
	return 0, fmt.Errorf("unknown payment network %q", network)
}

// buildPaymentHeader signs an EIP-3009 TransferWithAuthorization for the
// given option and encodes the credential as the base64 X-Payment header
// value.
func buildPaymentHeader(opt paymentOption, key *ecdsa.PrivateKey) (string, error) {
	chainID, err := chainIDForNetwork(opt.Network)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, 32)
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("failed to generate payment nonce: %w", err)
	}

	timeout := opt.MaxTimeoutSeconds
	if timeout <= 0 {
		timeout = 300
	}

	domainName := opt.Extra.Name
	if domainName == "" {
		domainName = "USD Coin"
	}
	domainVersion := opt.Extra.Version
	if domainVersion == "" {
		domainVersion = "2"
	}

	auth := paymentAuthorization{
		From:        ethcrypto.PubkeyToAddress(key.PublicKey).Hex(),
		To:          opt.PayTo,
		Value:       opt.MaxAmountRequired,
		ValidAfter:  "0",
		ValidBefore: strconv.FormatInt(time.Now().Add(time.Duration(timeout)*time.Second).Unix(), 10),
		Nonce:       hexutil.Encode(nonce),
	}

	typedData := apitypes.TypedData{
		Types: apitypes.Types{
			"EIP712Domain": {
				{Name: "name", Type: "string"},
				{Name: "version", Type: "string"},
				{Name: "chainId", Type: "uint256"},
				{Name: "verifyingContract", Type: "address"},
			},
			"TransferWithAuthorization": {
				{Name: "from", Type: "address"},
				{Name: "to", Type: "address"},
				{Name: "value", Type: "uint256"},
				{Name: "validAfter", Type: "uint256"},
				{Name: "validBefore", Type: "uint256"},
				{Name: "nonce", Type: "bytes32"},
			},
		},
		PrimaryType: "TransferWithAuthorization",
		Domain: apitypes.TypedDataDomain{
			Name:              domainName,
			Version:           domainVersion,
			ChainId:           math.NewHexOrDecimal256(chainID),
			VerifyingContract: opt.Asset,
		},
		Message: apitypes.TypedDataMessage{
			"from":        auth.From,
			"to":          auth.To,
			"value":       auth.Value,
			"validAfter":  auth.ValidAfter,
			"validBefore": auth.ValidBefore,
			"nonce":       auth.Nonce,
		},
	}

	hash, _, err := apitypes.TypedDataAndHash(typedData)
	if err != nil {
		return "", fmt.Errorf("failed to hash payment authorization: %w", err)
	}
	sig, err := ethcrypto.Sign(hash, key)
	if err != nil {
		return "", fmt.Errorf("failed to sign payment authorization: %w", err)
	}
	// EIP-712 expects v in {27, 28}.
	sig[64] += 27

	payload := paymentPayload{
		X402Version: 1,
		Scheme:      opt.Scheme,
		Network:     opt.Network,
	}
	payload.Payload.Signature = hexutil.Encode(sig)
	payload.Payload.Authorization = auth

	encoded, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to encode payment payload: %w", err)
	}
	return base64.StdEncoding.EncodeToString(encoded), nil
}
