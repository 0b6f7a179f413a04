package inference

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/launchdeck-lab/launchdeck-server/internal/config"
	"go.uber.org/zap"
)

// ErrorTag classifies a failed relay turn for the fallback generator.
type ErrorTag string

const (
	TagConfigMissing ErrorTag = "config-missing"
	TagPayment       ErrorTag = "payment"
	TagUpstreamHTTP  ErrorTag = "upstream-http"
	TagParse         ErrorTag = "parse"
	TagNetwork       ErrorTag = "network"
)

// RelayError is a tagged failure of one chat turn. No state is kept between
// turns; the next turn repeats the full payment cycle.
type RelayError struct {
	Tag ErrorTag
	Err error
}

func (e *RelayError) Error() string {
	return fmt.Sprintf("inference relay failed (%s): %v", e.Tag, e.Err)
}

func (e *RelayError) Unwrap() error { return e.Err }

// Message is one OpenAI-compatible conversation turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
	Stream   bool      `json:"stream"`
}

type streamChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
		FinishReason *string `json:"finish_reason"`
	} `json:"choices"`
}

// Client relays chat completions to the pay-per-request inference endpoint.
// The protocol is exactly three steps: send without payment; on 402, sign the
// first accepted payment option and resend once; stream whichever response
// succeeded. Any further non-success status is terminal for the turn.
type Client struct {
	cfg        *config.Config
	httpClient *http.Client
	logger     *zap.Logger
}

func NewClient(cfg *config.Config, logger *zap.Logger) *Client {
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 5 * time.Minute},
		logger:     logger,
	}
}

// StreamChat runs one relay turn. Each streamed content delta is passed to
// onDelta as it arrives. A nil return means the stream completed; otherwise
// the RelayError tag selects the fallback answer.
func (c *Client) StreamChat(ctx context.Context, messages []Message, onDelta func(string)) *RelayError {
	body, err := json.Marshal(chatRequest{
		Model:    c.cfg.Upstream.InferenceModel,
		Messages: messages,
		Stream:   true,
	})
	if err != nil {
		return &RelayError{Tag: TagParse, Err: err}
	}

	resp, err := c.send(ctx, body, "")
	if err != nil {
		return &RelayError{Tag: TagNetwork, Err: err}
	}

	if resp.StatusCode == http.StatusOK {
		return c.stream(resp, onDelta)
	}
	if resp.StatusCode != http.StatusPaymentRequired {
		defer resp.Body.Close()
		return &RelayError{Tag: TagUpstreamHTTP, Err: fmt.Errorf("inference endpoint returned status %d", resp.StatusCode)}
	}

	// Payment challenge: sign the first accepted option and resend once.
	challenge, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return &RelayError{Tag: TagNetwork, Err: err}
	}

	var required paymentRequired
	if err := json.Unmarshal(challenge, &required); err != nil {
		return &RelayError{Tag: TagParse, Err: fmt.Errorf("malformed payment-required body: %w", err)}
	}
	if len(required.Accepts) == 0 {
		return &RelayError{Tag: TagParse, Err: fmt.Errorf("payment-required body lists no accepted options")}
	}

	if !c.cfg.Signer.Configured() {
		return &RelayError{Tag: TagConfigMissing, Err: fmt.Errorf("payment requested but no signing key is configured")}
	}

	option := required.Accepts[0]
	header, err := buildPaymentHeader(option, c.cfg.Signer.PrivateKey())
	if err != nil {
		return &RelayError{Tag: TagPayment, Err: err}
	}

	c.logger.Debug("resending inference request with payment",
		zap.String("scheme", option.Scheme),
		zap.String("network", option.Network),
		zap.String("amount", option.MaxAmountRequired))

	retry, err := c.send(ctx, body, header)
	if err != nil {
		return &RelayError{Tag: TagNetwork, Err: err}
	}
	if retry.StatusCode != http.StatusOK {
		defer retry.Body.Close()
		if retry.StatusCode == http.StatusPaymentRequired {
			return &RelayError{Tag: TagPayment, Err: fmt.Errorf("payment rejected by inference endpoint")}
		}
		return &RelayError{Tag: TagUpstreamHTTP, Err: fmt.Errorf("inference endpoint returned status %d after payment", retry.StatusCode)}
	}

	return c.stream(retry, onDelta)
}

func (c *Client) send(ctx context.Context, body []byte, paymentHeader string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Upstream.InferenceAPIURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	if paymentHeader != "" {
		req.Header.Set("X-Payment", paymentHeader)
	}
	return c.httpClient.Do(req)
}

// stream reads the SSE body and forwards each content delta. Events that
// fail to parse are skipped; the upstream format is passed through otherwise
// verbatim by the caller.
func (c *Client) stream(resp *http.Response, onDelta func(string)) *RelayError {
	defer resp.Body.Close()

	delivered := false
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "" {
			continue
		}
		if data == "[DONE]" {
			return nil
		}

		var chunk streamChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			continue
		}
		if len(chunk.Choices) == 0 {
			continue
		}
		if content := chunk.Choices[0].Delta.Content; content != "" {
			delivered = true
			onDelta(content)
		}
	}

	if err := scanner.Err(); err != nil && !delivered {
		return &RelayError{Tag: TagNetwork, Err: fmt.Errorf("stream read failed: %w", err)}
	}
	return nil
}
