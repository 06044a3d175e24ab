// Package openai provides a ChatModel adapter for OpenAI's API.
package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dshills/draftloop-go/flow/model"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
)

// DefaultModel is the OpenAI model used when none is specified.
const DefaultModel = "gpt-3.5-turbo"

// ChatModel implements model.ChatModel for OpenAI's API.
//
// Transient failures (rate limits, 5xx, network errors) are retried
// up to three times with a growing delay; permanent failures return
// immediately as *model.ProviderError.
//
// Example:
//
//	m := openai.NewChatModel(os.Getenv("OPENAI_API_KEY"), "gpt-4o")
//	out, err := m.Chat(ctx, []model.Message{
//	    {Role: model.RoleUser, Content: "Draft a short summary."},
//	}, nil)
type ChatModel struct {
	apiKey     string
	modelName  string
	client     openaiClient
	maxRetries int
	retryDelay time.Duration
}

// openaiClient abstracts the completion call so tests can substitute
// a fake.
type openaiClient interface {
	createChatCompletion(ctx context.Context, messages []model.Message, cfg *model.GenConfig) (model.ChatOut, error)
}

// NewChatModel creates an OpenAI-backed ChatModel. An empty modelName
// selects DefaultModel.
func NewChatModel(apiKey, modelName string) *ChatModel {
	if modelName == "" {
		modelName = DefaultModel
	}

	return &ChatModel{
		apiKey:     apiKey,
		modelName:  modelName,
		client:     &defaultClient{apiKey: apiKey, modelName: modelName},
		maxRetries: 3,
		retryDelay: time.Second,
	}
}

// ModelName returns the OpenAI model this adapter calls.
func (m *ChatModel) ModelName() string {
	return m.modelName
}

// Chat implements model.ChatModel with automatic retries for
// transient errors.
func (m *ChatModel) Chat(ctx context.Context, messages []model.Message, cfg *model.GenConfig) (model.ChatOut, error) {
	if ctx.Err() != nil {
		return model.ChatOut{}, ctx.Err()
	}

	var lastErr error
	for attempt := 0; attempt <= m.maxRetries; attempt++ {
		out, err := m.client.createChatCompletion(ctx, messages, cfg)
		if err == nil {
			return out, nil
		}

		lastErr = err

		if !isTransientError(err) {
			return model.ChatOut{}, err
		}
		if attempt >= m.maxRetries {
			break
		}

		// Rate limits back off harder than plain network blips.
		delay := m.retryDelay
		if isRateLimitError(err) {
			delay = m.retryDelay * time.Duration(attempt+1)
		}

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return model.ChatOut{}, ctx.Err()
		}
	}

	return model.ChatOut{}, fmt.Errorf("OpenAI API failed after %d retries: %w", m.maxRetries, lastErr)
}

func isTransientError(err error) bool {
	if err == nil {
		return false
	}

	var provErr *model.ProviderError
	if errors.As(err, &provErr) {
		return provErr.IsRetryable()
	}

	msgLower := strings.ToLower(err.Error())
	for _, pattern := range []string{"timeout", "network", "connection", "temporary", "503", "502", "500"} {
		if strings.Contains(msgLower, pattern) {
			return true
		}
	}
	return false
}

func isRateLimitError(err error) bool {
	var provErr *model.ProviderError
	return errors.As(err, &provErr) && provErr.Code == model.ErrCodeRateLimited
}

// defaultClient wraps the official openai-go SDK.
type defaultClient struct {
	apiKey    string
	modelName string
}

func (c *defaultClient) createChatCompletion(ctx context.Context, messages []model.Message, cfg *model.GenConfig) (model.ChatOut, error) {
	if c.apiKey == "" {
		return model.ChatOut{}, &model.ProviderError{
			Provider: "openai",
			Code:     model.ErrCodeInvalidAPIKey,
			Message:  "OpenAI API key is required",
		}
	}

	client := openai.NewClient(option.WithAPIKey(c.apiKey))

	params := openai.ChatCompletionNewParams{
		Model:    shared.ChatModel(c.modelName),
		Messages: convertMessages(messages),
	}
	if cfg != nil {
		if cfg.Temperature != nil {
			params.Temperature = openai.Float(*cfg.Temperature)
		}
		if cfg.MaxTokens > 0 {
			params.MaxTokens = openai.Int(cfg.MaxTokens)
		}
	}

	completion, err := client.Chat.Completions.New(ctx, params)
	if err != nil {
		return model.ChatOut{}, mapError(err)
	}

	if len(completion.Choices) == 0 {
		return model.ChatOut{}, &model.ProviderError{
			Provider: "openai",
			Code:     model.ErrCodeEmptyResponse,
			Message:  "no response choices from OpenAI API",
		}
	}

	return model.ChatOut{
		Text: completion.Choices[0].Message.Content,
		Usage: model.Usage{
			InputTokens:  completion.Usage.PromptTokens,
			OutputTokens: completion.Usage.CompletionTokens,
		},
	}, nil
}

// convertMessages maps conversation roles onto the SDK's message
// param unions.
func convertMessages(messages []model.Message) []openai.ChatCompletionMessageParamUnion {
	params := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case model.RoleSystem:
			params = append(params, openai.ChatCompletionMessageParamUnion{
				OfSystem: &openai.ChatCompletionSystemMessageParam{
					Content: openai.ChatCompletionSystemMessageParamContentUnion{
						OfString: openai.String(msg.Content),
					},
				},
			})
		case model.RoleAssistant:
			params = append(params, openai.ChatCompletionMessageParamUnion{
				OfAssistant: &openai.ChatCompletionAssistantMessageParam{
					Content: openai.ChatCompletionAssistantMessageParamContentUnion{
						OfString: openai.String(msg.Content),
					},
				},
			})
		default:
			params = append(params, openai.ChatCompletionMessageParamUnion{
				OfUser: &openai.ChatCompletionUserMessageParam{
					Content: openai.ChatCompletionUserMessageParamContentUnion{
						OfString: openai.String(msg.Content),
					},
				},
			})
		}
	}
	return params
}

// mapError classifies OpenAI API errors into ProviderError codes.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &model.ProviderError{
			Provider:  "openai",
			Code:      model.ErrCodeTimeout,
			Message:   "OpenAI API request timed out",
			Retryable: true,
		}
	}

	lowerErr := strings.ToLower(err.Error())

	if strings.Contains(lowerErr, "rate limit") ||
		strings.Contains(lowerErr, "429") ||
		strings.Contains(lowerErr, "too many requests") {
		return &model.ProviderError{
			Provider:  "openai",
			Code:      model.ErrCodeRateLimited,
			Message:   "OpenAI API rate limit exceeded",
			Retryable: true,
		}
	}

	if strings.Contains(lowerErr, "invalid api key") ||
		strings.Contains(lowerErr, "incorrect api key") ||
		strings.Contains(lowerErr, "401") ||
		strings.Contains(lowerErr, "unauthorized") ||
		strings.Contains(lowerErr, "authentication") {
		return &model.ProviderError{
			Provider: "openai",
			Code:     model.ErrCodeInvalidAPIKey,
			Message:  "OpenAI API key is invalid or expired",
		}
	}

	if strings.Contains(lowerErr, "quota") ||
		strings.Contains(lowerErr, "insufficient_quota") ||
		strings.Contains(lowerErr, "billing") {
		return &model.ProviderError{
			Provider: "openai",
			Code:     model.ErrCodeQuotaExceeded,
			Message:  "OpenAI API quota exceeded",
		}
	}

	if strings.Contains(lowerErr, "500") ||
		strings.Contains(lowerErr, "502") ||
		strings.Contains(lowerErr, "503") ||
		strings.Contains(lowerErr, "504") ||
		strings.Contains(lowerErr, "internal server error") ||
		strings.Contains(lowerErr, "bad gateway") ||
		strings.Contains(lowerErr, "service unavailable") ||
		strings.Contains(lowerErr, "gateway timeout") {
		return &model.ProviderError{
			Provider:  "openai",
			Code:      model.ErrCodeServerError,
			Message:   fmt.Sprintf("OpenAI API server error: %v", err),
			Retryable: true,
		}
	}

	if strings.Contains(lowerErr, "connection") ||
		strings.Contains(lowerErr, "timeout") ||
		strings.Contains(lowerErr, "network") {
		return &model.ProviderError{
			Provider:  "openai",
			Code:      model.ErrCodeNetwork,
			Message:   fmt.Sprintf("network error calling OpenAI API: %v", err),
			Retryable: true,
		}
	}

	return &model.ProviderError{
		Provider: "openai",
		Code:     model.ErrCodeRequestFailed,
		Message:  fmt.Sprintf("OpenAI API error: %v", err),
	}
}
