package api

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/launchdeck-lab/launchdeck-server/internal/api/middleware"
	"github.com/launchdeck-lab/launchdeck-server/internal/chat"
	"github.com/launchdeck-lab/launchdeck-server/internal/models"
	"github.com/launchdeck-lab/launchdeck-server/internal/services/deployer"
	"github.com/launchdeck-lab/launchdeck-server/internal/services/inference"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

type chatTurnRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

// chatEvent is the SSE payload sent to the UI for every streamed chunk.
type chatEvent struct {
	Content string `json:"content"`
	Done    bool   `json:"done"`
}

// handleChat runs one chat turn and streams the response as Server-Sent
// Events. A deploy intent is handled inline; everything else goes to the
// inference relay, with the canned fallback substituted on any failure so
// the caller always receives an answer.
func (s *APIServer) handleChat(c *fiber.Ctx) error {
	var req chatTurnRequest
	if err := c.BodyParser(&req); err != nil || req.Message == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "message is required",
		})
	}
	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.New().String()
	}
	userID := middleware.UserID(c)

	if err := s.db.CreateChatMessage(&models.ChatMessage{
		SessionID: sessionID,
		UserID:    userID,
		Role:      models.ChatRoleUser,
		Content:   req.Message,
	}); err != nil {
		s.logger.Error("failed to persist chat message", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to persist chat message",
		})
	}

	history, err := s.db.ListChatMessages(sessionID)
	if err != nil {
		s.logger.Error("failed to load chat history", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to load chat history",
		})
	}

	message := req.Message

	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
	c.Set("X-Chat-Session-Id", sessionID)

	// The writer runs after the handler returns; everything it needs is
	// captured here. The client may abandon the stream at any point; writes
	// continue until the turn's own sequence completes (flush errors just
	// stop reaching the peer).
	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		var assistant string
		if params := chat.ParseDeployIntent(message); params != nil {
			assistant = s.streamDeployTurn(w, params, userID)
		} else {
			assistant = s.streamInferenceTurn(w, message, history)
		}

		if err := s.db.CreateChatMessage(&models.ChatMessage{
			SessionID: sessionID,
			UserID:    userID,
			Role:      models.ChatRoleAssistant,
			Content:   assistant,
		}); err != nil {
			s.logger.Error("failed to persist assistant message", zap.Error(err))
		}

		writeChatEvent(w, "", true)
	}))

	return nil
}

// streamDeployTurn writes the preview block, runs the deployment, and writes
// the success or failure block. Returns the full assistant text for history.
func (s *APIServer) streamDeployTurn(w *bufio.Writer, params *chat.DeployParams, userID *string) string {
	preview := fmt.Sprintf(
		"Token launch preview\n\nName: %s\nSymbol: %s\nFee split: %d%% to the creator wallet, %d%% to the platform\n\nSubmitting deployment...\n\n",
		valueOr(params.Name, "(not set)"),
		valueOr(params.Symbol, "(not set)"),
		deployer.CreatorFeeBps/100,
		deployer.PlatformFeeBps/100,
	)
	writeChatEvent(w, preview, false)

	// The turn finishes on its own schedule regardless of the client
	// connection, so the dispatch does not inherit the request context.
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	result, err := s.deployer.Deploy(ctx, deployer.DeployRequest{
		Name:        params.Name,
		Symbol:      params.Symbol,
		Wallet:      params.Wallet,
		WebsiteURL:  params.WebsiteURL,
		TwitterURL:  params.TwitterURL,
		Description: params.Description,
		ImageURL:    params.ImageURL,
	}, userID)

	var outcome string
	if err != nil {
		outcome = fmt.Sprintf("Deployment failed: %s\n", err.Error())
	} else {
		outcome = fmt.Sprintf(
			"Deployment submitted!\n\nTransaction hash: %s\nThe token will appear under your launches once the indexer picks it up.\n",
			result.TxHash,
		)
	}
	writeChatEvent(w, outcome, false)
	return preview + outcome
}

// streamInferenceTurn relays the conversation to the inference endpoint and
// streams deltas back; any relay failure substitutes the canned fallback.
func (s *APIServer) streamInferenceTurn(w *bufio.Writer, message string, history []models.ChatMessage) string {
	messages := make([]inference.Message, 0, len(history))
	for _, m := range history {
		messages = append(messages, inference.Message{
			Role:    string(m.Role),
			Content: m.Content,
		})
	}

	var assistant string
	relayErr := s.inference.StreamChat(context.Background(), messages, func(delta string) {
		assistant += delta
		writeChatEvent(w, delta, false)
	})

	if relayErr != nil {
		s.logger.Warn("inference relay failed, using fallback",
			zap.String("tag", string(relayErr.Tag)), zap.Error(relayErr.Err))
		assistant = chat.FallbackAnswer(message, string(relayErr.Tag))
		writeChatEvent(w, assistant, false)
	} else if assistant == "" {
		assistant = chat.FallbackAnswer(message, "")
		writeChatEvent(w, assistant, false)
	}
	return assistant
}

func (s *APIServer) handleChatHistory(c *fiber.Ctx) error {
	sessionID := sessionIDQuery(c)
	if sessionID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "sessionId query parameter is required",
		})
	}

	messages, err := s.db.ListChatMessages(sessionID)
	if err != nil {
		s.logger.Error("failed to list chat history", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to load chat history",
		})
	}
	return c.JSON(fiber.Map{"messages": messages})
}

func (s *APIServer) handleClearChatHistory(c *fiber.Ctx) error {
	sessionID := sessionIDQuery(c)
	if sessionID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "sessionId query parameter is required",
		})
	}

	deleted, err := s.db.ClearChatHistory(sessionID)
	if err != nil {
		s.logger.Error("failed to clear chat history", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to clear chat history",
		})
	}
	return c.JSON(fiber.Map{"deleted": deleted})
}

func sessionIDQuery(c *fiber.Ctx) string {
	if v := c.Query("sessionId"); v != "" {
		return v
	}
	return c.Query("session_id")
}

func writeChatEvent(w *bufio.Writer, content string, done bool) {
	payload, err := json.Marshal(chatEvent{Content: content, Done: done})
	if err != nil {
		return
	}
	fmt.Fprintf(w, "data: %s\n\n", payload)
	// A failed flush means the client went away; the sequence still runs to
	// completion so history stays consistent.
	_ = w.Flush()
}

func valueOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
