package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/launchdeck-lab/launchdeck-server/internal/utils"
	"go.uber.org/zap"
)

// ProxyResult carries an upstream response back to the handler. Status is the
// upstream status code and is relayed as-is; a non-2xx upstream status is not
// an error at this layer.
type ProxyResult struct {
	Status int `json:"status"`
	Body   any `json:"body"`
}

// Client is a thin proxy over the external token registry API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

func NewClient(baseURL string, logger *zap.Logger) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger,
	}
}

// ListTokensByDeployer fetches tokens deployed by the given address.
func (c *Client) ListTokensByDeployer(ctx context.Context, deployer string, page int) (*ProxyResult, error) {
	query := url.Values{"deployer": {deployer}}
	if page > 0 {
		query.Set("page", fmt.Sprintf("%d", page))
	}
	return c.get(ctx, "/tokens", query)
}

// SearchByCreator searches registry tokens by creator wallet.
func (c *Client) SearchByCreator(ctx context.Context, creator string) (*ProxyResult, error) {
	return c.get(ctx, "/tokens/search", url.Values{"creator": {creator}})
}

func (c *Client) get(ctx context.Context, path string, query url.Values) (*ProxyResult, error) {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create registry request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("registry request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read registry response: %w", err)
	}

	if resp.StatusCode >= 400 {
		c.logger.Warn("registry returned error status",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode))
	}

	return &ProxyResult{Status: resp.StatusCode, Body: parseBody(body)}, nil
}

// parseBody decodes the upstream body best-effort: valid JSON passes through,
// anything else is wrapped as {"raw": <text>}.
func parseBody(body []byte) any {
	var parsed any
	if err := json.Unmarshal(body, &parsed); err != nil {
		return map[string]any{"raw": string(body)}
	}
	return parsed
}

// NormalizedTokens extracts the token list from a registry response body and
// maps each record into the canonical display shape. Recognized list shapes
// are a bare array, {"tokens": [...]}, and {"data": [...]}; anything else
// yields an empty list.
func NormalizedTokens(body any) []utils.NormalizedToken {
	records := tokenRecords(body)
	tokens := make([]utils.NormalizedToken, 0, len(records))
	for _, rec := range records {
		tokens = append(tokens, utils.NormalizeToken(rec))
	}
	return tokens
}

func tokenRecords(body any) []map[string]any {
	var list []any
	switch v := body.(type) {
	case []any:
		list = v
	case map[string]any:
		for _, key := range []string{"tokens", "data"} {
			if inner, ok := v[key].([]any); ok {
				list = inner
				break
			}
		}
	}

	records := make([]map[string]any, 0, len(list))
	for _, item := range list {
		if rec, ok := item.(map[string]any); ok {
			records = append(records, rec)
		}
	}
	return records
}
