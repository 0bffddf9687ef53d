package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/halcyondev/shellm/internal/config"
	"github.com/halcyondev/shellm/internal/session"
)

// Client produces one assistant reply for a conversation.
type Client interface {
	Chat(ctx context.Context, model string, messages []session.Message) (string, error)
}

const defaultTemperature = 0.2

// OpenAIClient talks to any OpenAI-compatible chat-completions endpoint.
type OpenAIClient struct {
	client      *openai.Client
	logger      *zap.Logger
	temperature float32
	timeout     time.Duration
}

// ResolveAPIKey returns the key for the configured endpoint: the variable
// named by api_key_env when set and non-empty, falling back to the literal
// api_key field. Local endpoints often need no key at all, so empty is not
// an error here.
func ResolveAPIKey(cfg *config.Config) string {
	if cfg.APIKeyEnv != "" {
		if v := os.Getenv(cfg.APIKeyEnv); v != "" {
			return v
		}
	}
	return cfg.APIKey
}

// NewOpenAIClient builds a client from the endpoint settings in cfg.
func NewOpenAIClient(cfg *config.Config, logger *zap.Logger) *OpenAIClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := time.Duration(cfg.LLMTimeoutSeconds) * time.Second

	clientCfg := openai.DefaultConfig(ResolveAPIKey(cfg))
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	clientCfg.HTTPClient = &http.Client{Timeout: timeout}

	return &OpenAIClient{
		client:      openai.NewClientWithConfig(clientCfg),
		logger:      logger,
		temperature: defaultTemperature,
		timeout:     timeout,
	}
}

// Chat sends the full conversation and returns the assistant's text. The
// request inherits the client timeout on top of ctx.
func (c *OpenAIClient) Chat(ctx context.Context, model string, messages []session.Message) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       model,
		Messages:    toOpenAIMessages(messages),
		Temperature: c.temperature,
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return "", fmt.Errorf("chat completion failed (status %d): %w", apiErr.HTTPStatusCode, err)
		}
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	c.logger.Debug("chat completion",
		zap.String("model", model),
		zap.Int("messages", len(messages)),
		zap.Duration("duration", time.Since(start)),
	)

	if len(resp.Choices) == 0 {
		return "", errors.New("chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

func toOpenAIMessages(messages []session.Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		role := openai.ChatMessageRoleUser
		switch m.Role {
		case session.RoleSystem:
			role = openai.ChatMessageRoleSystem
		case session.RoleAssistant:
			role = openai.ChatMessageRoleAssistant
		case session.RoleTool:
			// OpenAI tool messages require tool_call_id plumbing this
			// protocol does not use; tool output travels as user text.
			role = openai.ChatMessageRoleUser
		}
		out = append(out, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}
	return out
}
