package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/launchdeck-lab/launchdeck-server/internal/config"
	"github.com/launchdeck-lab/launchdeck-server/internal/database"
	"github.com/launchdeck-lab/launchdeck-server/internal/logging"
	"github.com/launchdeck-lab/launchdeck-server/internal/services/deployer"
	"github.com/launchdeck-lab/launchdeck-server/internal/services/inference"
	"github.com/launchdeck-lab/launchdeck-server/internal/services/registry"
	"github.com/stretchr/testify/suite"
)

const testWallet = "0x1111111111111111111111111111111111111111"

type APIServerTestSuite struct {
	suite.Suite
	db        *database.Database
	server    *APIServer
	registry  *httptest.Server
	inference *httptest.Server
}

func (suite *APIServerTestSuite) SetupTest() {
	db, err := database.New(":memory:")
	suite.Require().NoError(err)
	suite.db = db

	// Registry fake: one token for any deployer.
	suite.registry = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"tokens":[{"name":"Foo","symbol":"FOO","contract_address":"0xfeed","market_cap":"1000"}]}`)
	}))

	// Inference fake: always demands payment. With no signing key configured
	// every chat turn falls back to the canned knowledge base.
	suite.inference = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		fmt.Fprint(w, `{"x402Version":1,"accepts":[{"scheme":"exact","network":"base","maxAmountRequired":"100","payTo":"0xfeed","asset":"0xfeed"}]}`)
	}))

	cfg := &config.Config{}
	cfg.App.SessionSecret = "test-secret"
	cfg.App.CorsAllowedOrigins = "*"
	cfg.Signer.PlatformWallet = "0x9999999999999999999999999999999999999999"
	cfg.Upstream.RegistryAPIURL = suite.registry.URL
	cfg.Upstream.InferenceAPIURL = suite.inference.URL
	cfg.Upstream.InferenceModel = "test-model"
	cfg.Upstream.DeployerAPIURL = "http://unused.invalid"

	logger := logging.NewNop()
	suite.server = NewAPIServer(
		cfg,
		db,
		registry.NewClient(cfg.Upstream.RegistryAPIURL, logger),
		deployer.NewService(cfg, db, logger),
		inference.NewClient(cfg, logger),
		logger,
	)
}

func (suite *APIServerTestSuite) TearDownTest() {
	suite.registry.Close()
	suite.inference.Close()
	suite.db.Close()
}

func (suite *APIServerTestSuite) request(method, target, body string) *http.Response {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := suite.server.App().Test(req, -1)
	suite.Require().NoError(err)
	return resp
}

func (suite *APIServerTestSuite) bodyString(resp *http.Response) string {
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	suite.Require().NoError(err)
	return string(body)
}

func (suite *APIServerTestSuite) TestChatFallsBackWithoutSigningKey() {
	resp := suite.request(http.MethodPost, "/api/chat", `{"session_id":"s1","message":"What is DeFi?"}`)
	suite.Equal(http.StatusOK, resp.StatusCode)
	suite.Equal("text/event-stream", resp.Header.Get("Content-Type"))

	body := suite.bodyString(resp)
	suite.Contains(body, "decentralized finance")
	suite.Contains(body, `"done":true`)

	// Both turns were persisted.
	messages, err := suite.db.ListChatMessages("s1")
	suite.Require().NoError(err)
	suite.Require().Len(messages, 2)
	suite.Equal("What is DeFi?", messages[0].Content)
	suite.Contains(messages[1].Content, "decentralized finance")
}

func (suite *APIServerTestSuite) TestChatDeployTurnStreamsPreviewAndOutcome() {
	resp := suite.request(http.MethodPost, "/api/chat",
		`{"session_id":"s2","message":"Deploy token Name: Foo Symbol: FOO Wallet: `+testWallet+`"}`)
	suite.Equal(http.StatusOK, resp.StatusCode)

	body := suite.bodyString(resp)
	suite.Contains(body, "Foo")
	suite.Contains(body, "FOO")
	suite.Contains(body, "90%")
	suite.Contains(body, "10%")
	// No signing key in this suite, so the outcome is the failure block.
	suite.Contains(body, "Deployment failed")
}

func (suite *APIServerTestSuite) TestChatHistoryClearThenEmpty() {
	resp := suite.request(http.MethodPost, "/api/chat", `{"session_id":"s3","message":"What is DeFi?"}`)
	suite.Equal(http.StatusOK, resp.StatusCode)
	suite.bodyString(resp)

	resp = suite.request(http.MethodDelete, "/api/chat/history?sessionId=s3", "")
	suite.Equal(http.StatusOK, resp.StatusCode)
	suite.bodyString(resp)

	resp = suite.request(http.MethodGet, "/api/chat/history?sessionId=s3", "")
	suite.Equal(http.StatusOK, resp.StatusCode)

	var payload struct {
		Messages []any `json:"messages"`
	}
	suite.Require().NoError(json.Unmarshal([]byte(suite.bodyString(resp)), &payload))
	suite.Empty(payload.Messages)
}

func (suite *APIServerTestSuite) TestTrackedWalletDuplicateConflict() {
	resp := suite.request(http.MethodPost, "/api/wallets", `{"address":"`+testWallet+`","label":"main"}`)
	suite.Equal(http.StatusCreated, resp.StatusCode)
	suite.bodyString(resp)

	resp = suite.request(http.MethodPost, "/api/wallets", `{"address":"`+testWallet+`","label":"again"}`)
	suite.Equal(http.StatusConflict, resp.StatusCode)
	suite.bodyString(resp)

	resp = suite.request(http.MethodGet, "/api/wallets", "")
	var payload struct {
		Wallets []struct {
			Address string `json:"address"`
			Label   string `json:"label"`
		} `json:"wallets"`
	}
	suite.Require().NoError(json.Unmarshal([]byte(suite.bodyString(resp)), &payload))
	suite.Require().Len(payload.Wallets, 1)
	suite.Equal("main", payload.Wallets[0].Label)
}

func (suite *APIServerTestSuite) TestWalletValidationRejected() {
	resp := suite.request(http.MethodPost, "/api/wallets", `{"address":"not-a-wallet"}`)
	suite.Equal(http.StatusBadRequest, resp.StatusCode)
	suite.bodyString(resp)
}

func (suite *APIServerTestSuite) TestListTokensNormalized() {
	resp := suite.request(http.MethodGet, "/api/tokens?deployer="+testWallet, "")
	suite.Equal(http.StatusOK, resp.StatusCode)

	var payload struct {
		Tokens []struct {
			Name      string  `json:"name"`
			Symbol    string  `json:"symbol"`
			Address   string  `json:"address"`
			MarketCap float64 `json:"market_cap"`
		} `json:"tokens"`
	}
	suite.Require().NoError(json.Unmarshal([]byte(suite.bodyString(resp)), &payload))
	suite.Require().Len(payload.Tokens, 1)
	suite.Equal("Foo", payload.Tokens[0].Name)
	suite.Equal("0xfeed", payload.Tokens[0].Address)
	suite.Equal(float64(1000), payload.Tokens[0].MarketCap)
}

func (suite *APIServerTestSuite) TestListTokensRequiresValidDeployer() {
	resp := suite.request(http.MethodGet, "/api/tokens?deployer=nope", "")
	suite.Equal(http.StatusBadRequest, resp.StatusCode)
	suite.bodyString(resp)
}

func (suite *APIServerTestSuite) TestDeployEndpointWithoutKey() {
	resp := suite.request(http.MethodPost, "/api/deploy",
		`{"name":"Foo","symbol":"FOO","wallet":"`+testWallet+`"}`)
	suite.Equal(http.StatusServiceUnavailable, resp.StatusCode)
	suite.Contains(suite.bodyString(resp), "signing key")
}

func (suite *APIServerTestSuite) TestSessionIssueAndUse() {
	resp := suite.request(http.MethodPost, "/api/session", `{"address":"`+testWallet+`"}`)
	suite.Equal(http.StatusCreated, resp.StatusCode)

	var payload struct {
		Token   string `json:"token"`
		Address string `json:"address"`
	}
	suite.Require().NoError(json.Unmarshal([]byte(suite.bodyString(resp)), &payload))
	suite.NotEmpty(payload.Token)
	suite.Equal(testWallet, payload.Address)

	// A bad token is rejected; a good one passes through.
	req := httptest.NewRequest(http.MethodGet, "/api/wallets", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	badResp, err := suite.server.App().Test(req, -1)
	suite.Require().NoError(err)
	suite.Equal(http.StatusUnauthorized, badResp.StatusCode)

	req = httptest.NewRequest(http.MethodGet, "/api/wallets", nil)
	req.Header.Set("Authorization", "Bearer "+payload.Token)
	goodResp, err := suite.server.App().Test(req, -1)
	suite.Require().NoError(err)
	suite.Equal(http.StatusOK, goodResp.StatusCode)
}

func TestAPIServerTestSuite(t *testing.T) {
	suite.Run(t, new(APIServerTestSuite))
}
