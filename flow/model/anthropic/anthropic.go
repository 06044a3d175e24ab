// Package anthropic provides a ChatModel adapter for Anthropic's
// Claude API.
package anthropic

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/dshills/draftloop-go/flow/model"
)

// DefaultModel is the Claude model used when none is specified.
const DefaultModel = "claude-3-sonnet-20240229"

// defaultMaxTokens caps responses when the caller does not set one;
// the Messages API requires an explicit limit.
const defaultMaxTokens = 4096

// ChatModel implements model.ChatModel for Anthropic's Claude API.
//
// Example:
//
//	m := anthropic.NewChatModel(os.Getenv("ANTHROPIC_API_KEY"), "")
//	out, err := m.Chat(ctx, []model.Message{
//	    {Role: model.RoleUser, Content: "Critique this draft."},
//	}, nil)
type ChatModel struct {
	apiKey    string
	modelName string
	client    anthropicClient
}

// anthropicClient abstracts the Messages API call so tests can
// substitute a fake.
type anthropicClient interface {
	createMessage(ctx context.Context, system string, messages []model.Message, cfg *model.GenConfig) (model.ChatOut, error)
}

// NewChatModel creates a Claude-backed ChatModel. An empty modelName
// selects DefaultModel.
func NewChatModel(apiKey, modelName string) *ChatModel {
	if modelName == "" {
		modelName = DefaultModel
	}

	return &ChatModel{
		apiKey:    apiKey,
		modelName: modelName,
		client:    &defaultClient{apiKey: apiKey, modelName: modelName},
	}
}

// ModelName returns the Claude model this adapter calls.
func (m *ChatModel) ModelName() string {
	return m.modelName
}

// Chat implements model.ChatModel. Claude takes the system prompt as
// a separate request field, so leading system messages are split off
// before conversion.
func (m *ChatModel) Chat(ctx context.Context, messages []model.Message, cfg *model.GenConfig) (model.ChatOut, error) {
	if ctx.Err() != nil {
		return model.ChatOut{}, ctx.Err()
	}

	system, rest := splitSystem(messages)
	return m.client.createMessage(ctx, system, rest, cfg)
}

// splitSystem extracts system message content for the request's
// System field and returns the remaining conversation.
func splitSystem(messages []model.Message) (string, []model.Message) {
	var system []string
	rest := make([]model.Message, 0, len(messages))
	for _, msg := range messages {
		if msg.Role == model.RoleSystem {
			system = append(system, msg.Content)
			continue
		}
		rest = append(rest, msg)
	}
	return strings.Join(system, "\n"), rest
}

// defaultClient wraps the official anthropic-sdk-go client.
type defaultClient struct {
	apiKey    string
	modelName string
}

func (c *defaultClient) createMessage(ctx context.Context, system string, messages []model.Message, cfg *model.GenConfig) (model.ChatOut, error) {
	if c.apiKey == "" {
		return model.ChatOut{}, &model.ProviderError{
			Provider: "anthropic",
			Code:     model.ErrCodeInvalidAPIKey,
			Message:  "Anthropic API key is required",
		}
	}

	client := anthropic.NewClient(option.WithAPIKey(c.apiKey))

	maxTokens := int64(defaultMaxTokens)
	if cfg != nil && cfg.MaxTokens > 0 {
		maxTokens = cfg.MaxTokens
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.modelName),
		MaxTokens: maxTokens,
		Messages:  convertMessages(messages),
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}
	if cfg != nil && cfg.Temperature != nil {
		params.Temperature = anthropic.Float(*cfg.Temperature)
	}

	message, err := client.Messages.New(ctx, params)
	if err != nil {
		return model.ChatOut{}, mapError(err)
	}

	var text string
	for _, block := range message.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}

	return model.ChatOut{
		Text: text,
		Usage: model.Usage{
			InputTokens:  message.Usage.InputTokens,
			OutputTokens: message.Usage.OutputTokens,
		},
	}, nil
}

// convertMessages maps the conversation onto the SDK's message
// params. Claude alternates user and assistant turns.
func convertMessages(messages []model.Message) []anthropic.MessageParam {
	params := make([]anthropic.MessageParam, 0, len(messages))
	for _, msg := range messages {
		block := anthropic.NewTextBlock(msg.Content)
		if msg.Role == model.RoleAssistant {
			params = append(params, anthropic.NewAssistantMessage(block))
		} else {
			params = append(params, anthropic.NewUserMessage(block))
		}
	}
	return params
}

// mapError classifies Claude API errors into ProviderError codes.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &model.ProviderError{
			Provider:  "anthropic",
			Code:      model.ErrCodeTimeout,
			Message:   "Claude API request timed out",
			Retryable: true,
		}
	}

	lowerErr := strings.ToLower(err.Error())

	if strings.Contains(lowerErr, "rate limit") ||
		strings.Contains(lowerErr, "429") ||
		strings.Contains(lowerErr, "overloaded") {
		return &model.ProviderError{
			Provider:  "anthropic",
			Code:      model.ErrCodeRateLimited,
			Message:   "Claude API rate limit exceeded",
			Retryable: true,
		}
	}

	if strings.Contains(lowerErr, "api key") ||
		strings.Contains(lowerErr, "401") ||
		strings.Contains(lowerErr, "unauthorized") ||
		strings.Contains(lowerErr, "authentication") {
		return &model.ProviderError{
			Provider: "anthropic",
			Code:     model.ErrCodeInvalidAPIKey,
			Message:  "Anthropic API key is invalid or expired",
		}
	}

	if strings.Contains(lowerErr, "quota") ||
		strings.Contains(lowerErr, "credit") ||
		strings.Contains(lowerErr, "billing") {
		return &model.ProviderError{
			Provider: "anthropic",
			Code:     model.ErrCodeQuotaExceeded,
			Message:  "Anthropic API quota exceeded",
		}
	}

	if strings.Contains(lowerErr, "500") ||
		strings.Contains(lowerErr, "502") ||
		strings.Contains(lowerErr, "503") ||
		strings.Contains(lowerErr, "internal server error") {
		return &model.ProviderError{
			Provider:  "anthropic",
			Code:      model.ErrCodeServerError,
			Message:   fmt.Sprintf("Claude API server error: %v", err),
			Retryable: true,
		}
	}

	if strings.Contains(lowerErr, "connection") ||
		strings.Contains(lowerErr, "timeout") ||
		strings.Contains(lowerErr, "network") {
		return &model.ProviderError{
			Provider:  "anthropic",
			Code:      model.ErrCodeNetwork,
			Message:   fmt.Sprintf("network error calling Claude API: %v", err),
			Retryable: true,
		}
	}

	return &model.ProviderError{
		Provider: "anthropic",
		Code:     model.ErrCodeRequestFailed,
		Message:  fmt.Sprintf("Claude API error: %v", err),
	}
}
