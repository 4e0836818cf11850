package ai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"gopherai-rag/internal/ragerr"
)

const (
	RoleSystem    = openai.ChatMessageRoleSystem
	RoleUser      = openai.ChatMessageRoleUser
	RoleAssistant = openai.ChatMessageRoleAssistant
)

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatConfig struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float32
}

// ChatClient calls an OpenAI-compatible chat completions endpoint.
type ChatClient struct {
	cfg    ChatConfig
	client *openai.Client
}

func NewChatClient(cfg ChatConfig) *ChatClient {
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	return &ChatClient{
		cfg:    cfg,
		client: openai.NewClientWithConfig(clientCfg),
	}
}

// HasCredential reports whether an API key is configured. No request is made.
func (c *ChatClient) HasCredential() bool {
	return c.cfg.APIKey != ""
}

func (c *ChatClient) Model() string {
	return c.cfg.Model
}

func (c *ChatClient) Complete(ctx context.Context, messages []ChatMessage) (string, error) {
	if !c.HasCredential() {
		return "", fmt.Errorf("%w: no api key configured", ragerr.ErrAuthentication)
	}

	resp, err := c.client.CreateChatCompletion(ctx, c.request(messages))
	if err != nil {
		return "", classifyError("llm request", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: empty llm choices", ragerr.ErrGeneration)
	}
	return resp.Choices[0].Message.Content, nil
}

func (c *ChatClient) StreamComplete(
	ctx context.Context,
	messages []ChatMessage,
	onChunk func(chunk string) error,
) (string, error) {
	if !c.HasCredential() {
		return "", fmt.Errorf("%w: no api key configured", ragerr.ErrAuthentication)
	}

	req := c.request(messages)
	req.Stream = true
	stream, err := c.client.CreateChatCompletionStream(ctx, req)
	if err != nil {
		return "", classifyError("llm stream request", err)
	}
	defer stream.Close()

	var full strings.Builder
	for {
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", classifyError("llm stream", err)
		}
		if len(resp.Choices) == 0 {
			continue
		}
		text := resp.Choices[0].Delta.Content
		if text == "" {
			continue
		}
		full.WriteString(text)
		if err := onChunk(text); err != nil {
			return "", err
		}
	}
	return full.String(), nil
}

func (c *ChatClient) request(messages []ChatMessage) openai.ChatCompletionRequest {
	req := openai.ChatCompletionRequest{
		Model:       c.cfg.Model,
		Temperature: c.cfg.Temperature,
		Messages:    make([]openai.ChatCompletionMessage, len(messages)),
	}
	for i, m := range messages {
		req.Messages[i] = openai.ChatCompletionMessage{Role: m.Role, Content: m.Content}
	}
	return req
}

// classifyError maps credential rejections to ErrAuthentication and everything
// else, timeouts included, to ErrGeneration.
func classifyError(op string, err error) error {
	if isAuthStatus(err) {
		return fmt.Errorf("%w: %s failed: %v", ragerr.ErrAuthentication, op, err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s timed out: %v", ragerr.ErrGeneration, op, err)
	}
	return fmt.Errorf("%w: %s failed: %v", ragerr.ErrGeneration, op, err)
}

func isAuthStatus(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == http.StatusUnauthorized || apiErr.HTTPStatusCode == http.StatusForbidden
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode == http.StatusUnauthorized || reqErr.HTTPStatusCode == http.StatusForbidden
	}
	return false
}
