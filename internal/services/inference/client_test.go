package inference

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/launchdeck-lab/launchdeck-server/internal/config"
	"github.com/launchdeck-lab/launchdeck-server/internal/logging"
	"github.com/stretchr/testify/suite"
)

// Well-known local development key, never used on a real network.
const testPrivateKey = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

type InferenceClientTestSuite struct {
	suite.Suite
}

func (suite *InferenceClientTestSuite) newConfig(endpoint string, withKey bool) *config.Config {
	cfg := &config.Config{}
	cfg.Upstream.InferenceAPIURL = endpoint
	cfg.Upstream.InferenceModel = "test-model"
	if withKey {
		suite.Require().NoError(cfg.Signer.SetPrivateKey(testPrivateKey))
	}
	return cfg
}

func (suite *InferenceClientTestSuite) collect(cfg *config.Config) (string, *RelayError) {
	client := NewClient(cfg, logging.NewNop())
	var out strings.Builder
	relayErr := client.StreamChat(context.Background(), []Message{
		{Role: "user", Content: "hello"},
	}, func(delta string) {
		out.WriteString(delta)
	})
	return out.String(), relayErr
}

func writeSSE(w http.ResponseWriter, chunks ...string) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.WriteHeader(http.StatusOK)
	for _, chunk := range chunks {
		fmt.Fprintf(w, "data: {\"choices\":[{\"delta\":{\"content\":%q}}]}\n\n", chunk)
	}
	fmt.Fprint(w, "data: [DONE]\n\n")
}

func writePaymentChallenge(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusPaymentRequired)
	fmt.Fprint(w, `{
		"x402Version": 1,
		"accepts": [{
			"scheme": "exact",
			"network": "base-sepolia",
			"maxAmountRequired": "10000",
			"resource": "/v1/chat/completions",
			"payTo": "0x209693Bc6afc0C5328bA36FaF03C514EF312287C",
			"asset": "0x036CbD53842c5426634e7929541eC2318f3dCF7e",
			"maxTimeoutSeconds": 60,
			"extra": {"name": "USDC", "version": "2"}
		}]
	}`)
}

func (suite *InferenceClientTestSuite) TestImmediateSuccessStreams() {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		suite.Empty(r.Header.Get("X-Payment"))
		writeSSE(w, "Hello", " world")
	}))
	defer server.Close()

	out, relayErr := suite.collect(suite.newConfig(server.URL, true))
	suite.Nil(relayErr)
	suite.Equal("Hello world", out)
}

func (suite *InferenceClientTestSuite) TestPaymentHandshakeResendsOnce() {
	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		if r.Header.Get("X-Payment") == "" {
			writePaymentChallenge(w)
			return
		}

		// The credential must decode to a signed authorization.
		raw, err := base64.StdEncoding.DecodeString(r.Header.Get("X-Payment"))
		suite.Require().NoError(err)
		var payload map[string]any
		suite.Require().NoError(json.Unmarshal(raw, &payload))
		suite.Equal(float64(1), payload["x402Version"])
		suite.Equal("exact", payload["scheme"])
		suite.Equal("base-sepolia", payload["network"])
		inner := payload["payload"].(map[string]any)
		suite.NotEmpty(inner["signature"])
		auth := inner["authorization"].(map[string]any)
		suite.Equal("10000", auth["value"])
		suite.Equal("0x209693Bc6afc0C5328bA36FaF03C514EF312287C", auth["to"])

		writeSSE(w, "paid answer")
	}))
	defer server.Close()

	out, relayErr := suite.collect(suite.newConfig(server.URL, true))
	suite.Nil(relayErr)
	suite.Equal("paid answer", out)
	suite.Equal(2, requests)
}

func (suite *InferenceClientTestSuite) TestPaymentWithoutKeyIsConfigMissing() {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writePaymentChallenge(w)
	}))
	defer server.Close()

	out, relayErr := suite.collect(suite.newConfig(server.URL, false))
	suite.Require().NotNil(relayErr)
	suite.Equal(TagConfigMissing, relayErr.Tag)
	suite.Empty(out)
}

func (suite *InferenceClientTestSuite) TestSecondChallengeIsTerminal() {
	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		writePaymentChallenge(w)
	}))
	defer server.Close()

	_, relayErr := suite.collect(suite.newConfig(server.URL, true))
	suite.Require().NotNil(relayErr)
	suite.Equal(TagPayment, relayErr.Tag)
	// Exactly one resend, never a second retry.
	suite.Equal(2, requests)
}

func (suite *InferenceClientTestSuite) TestMalformedChallengeIsParseError() {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		fmt.Fprint(w, "not json at all")
	}))
	defer server.Close()

	_, relayErr := suite.collect(suite.newConfig(server.URL, true))
	suite.Require().NotNil(relayErr)
	suite.Equal(TagParse, relayErr.Tag)
}

func (suite *InferenceClientTestSuite) TestUpstreamErrorStatus() {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	_, relayErr := suite.collect(suite.newConfig(server.URL, true))
	suite.Require().NotNil(relayErr)
	suite.Equal(TagUpstreamHTTP, relayErr.Tag)
}

func TestChainIDForNetwork(t *testing.T) {
	id, err := chainIDForNetwork("base")
	if err != nil || id != 8453 {
		t.Fatalf("expected base -> 8453, got %d, %v", id, err)
	}
	id, err = chainIDForNetwork("84532")
	if err != nil || id != 84532 {
		t.Fatalf("expected numeric passthrough, got %d, %v", id, err)
	}
	if _, err := chainIDForNetwork("unknown-net"); err == nil {
		t.Fatal("expected error for unknown network")
	}
}

func TestInferenceClientTestSuite(t *testing.T) {
	suite.Run(t, new(InferenceClientTestSuite))
}
