// Package google provides a ChatModel adapter for Google's Gemini API.
package google

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dshills/draftloop-go/flow/model"
	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// DefaultModel is the Gemini model used when none is specified.
const DefaultModel = "gemini-1.5-flash"

// ChatModel implements model.ChatModel for Google's Gemini API.
//
// Example:
//
//	m := google.NewChatModel(os.Getenv("GOOGLE_API_KEY"), "")
//	out, err := m.Chat(ctx, []model.Message{
//	    {Role: model.RoleUser, Content: "Summarize this paragraph."},
//	}, &model.GenConfig{Temperature: model.Temp(0.7)})
//	if err != nil {
//	    var safetyErr *SafetyFilterError
//	    if errors.As(err, &safetyErr) {
//	        log.Printf("content blocked: %s", safetyErr.Category())
//	    }
//	    return err
//	}
//	fmt.Println(out.Text)
type ChatModel struct {
	apiKey    string
	modelName string
	client    googleClient
}

// googleClient abstracts the Gemini API call so tests can substitute
// a fake.
type googleClient interface {
	generateContent(ctx context.Context, messages []model.Message, cfg *model.GenConfig) (model.ChatOut, error)
}

// NewChatModel creates a Gemini-backed ChatModel. An empty modelName
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

// ModelName returns the Gemini model this adapter calls.
func (m *ChatModel) ModelName() string {
	return m.modelName
}

// Chat implements model.ChatModel. Safety filter blocks surface as
// *SafetyFilterError; other API failures as *model.ProviderError.
func (m *ChatModel) Chat(ctx context.Context, messages []model.Message, cfg *model.GenConfig) (model.ChatOut, error) {
	if ctx.Err() != nil {
		return model.ChatOut{}, ctx.Err()
	}

	out, err := m.client.generateContent(ctx, messages, cfg)
	if err != nil {
		var safetyErr *SafetyFilterError
		if errors.As(err, &safetyErr) {
			return model.ChatOut{}, safetyErr
		}
		return model.ChatOut{}, mapError(err)
	}

	return out, nil
}

// defaultClient wraps the official Gemini SDK.
type defaultClient struct {
	apiKey    string
	modelName string
}

func (c *defaultClient) generateContent(ctx context.Context, messages []model.Message, cfg *model.GenConfig) (model.ChatOut, error) {
	if c.apiKey == "" {
		return model.ChatOut{}, &model.ProviderError{
			Provider: "google",
			Code:     model.ErrCodeInvalidAPIKey,
			Message:  "google API key is required",
		}
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(c.apiKey))
	if err != nil {
		return model.ChatOut{}, fmt.Errorf("failed to create Google client: %w", err)
	}
	defer client.Close()

	genModel := client.GenerativeModel(c.modelName)
	applyConfig(genModel, cfg)

	resp, err := genModel.GenerateContent(ctx, convertMessages(messages)...)
	if err != nil {
		return model.ChatOut{}, fmt.Errorf("google API error: %w", err)
	}

	if blocked := safetyBlock(resp); blocked != nil {
		return model.ChatOut{}, blocked
	}

	return convertResponse(resp), nil
}

// applyConfig maps GenConfig onto the SDK's generation settings.
func applyConfig(genModel *genai.GenerativeModel, cfg *model.GenConfig) {
	if cfg == nil {
		return
	}
	if cfg.Temperature != nil {
		genModel.SetTemperature(float32(*cfg.Temperature))
	}
	if cfg.MaxTokens > 0 {
		genModel.SetMaxOutputTokens(int32(cfg.MaxTokens))
	}
}

// convertMessages flattens the conversation into Gemini text parts.
// Gemini takes a single part list per request; role structure is
// preserved well enough for single-prompt agents.
func convertMessages(messages []model.Message) []genai.Part {
	var parts []genai.Part
	for _, msg := range messages {
		if msg.Content != "" {
			parts = append(parts, genai.Text(msg.Content))
		}
	}
	return parts
}

// safetyBlock inspects the response for safety filter action and
// returns a SafetyFilterError when content was blocked.
func safetyBlock(resp *genai.GenerateContentResponse) error {
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != genai.BlockReasonUnspecified {
		return &SafetyFilterError{
			reason:   fmt.Sprintf("%v", resp.PromptFeedback.BlockReason),
			category: blockedCategories(resp.PromptFeedback.SafetyRatings),
		}
	}

	for _, candidate := range resp.Candidates {
		if candidate.FinishReason == genai.FinishReasonSafety {
			return &SafetyFilterError{
				reason:   "SAFETY",
				category: blockedCategories(candidate.SafetyRatings),
			}
		}
	}
	return nil
}

func blockedCategories(ratings []*genai.SafetyRating) string {
	var cats []string
	for _, r := range ratings {
		if r != nil && r.Blocked {
			cats = append(cats, fmt.Sprintf("%v", r.Category))
		}
	}
	if len(cats) == 0 {
		return "unspecified"
	}
	return strings.Join(cats, ",")
}

// convertResponse extracts text and token usage from a Gemini
// response.
func convertResponse(resp *genai.GenerateContentResponse) model.ChatOut {
	out := model.ChatOut{}

	if resp.UsageMetadata != nil {
		out.Usage = model.Usage{
			InputTokens:  int64(resp.UsageMetadata.PromptTokenCount),
			OutputTokens: int64(resp.UsageMetadata.CandidatesTokenCount),
		}
	}

	if len(resp.Candidates) == 0 {
		return out
	}
	candidate := resp.Candidates[0]
	if candidate.Content == nil {
		return out
	}

	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			if out.Text != "" {
				out.Text += "\n"
			}
			out.Text += string(text)
		}
	}

	return out
}

// mapError classifies Gemini API errors into ProviderError codes,
// distinguishing retryable transient failures from permanent ones.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &model.ProviderError{
			Provider:  "google",
			Code:      model.ErrCodeTimeout,
			Message:   "Gemini API request timed out",
			Retryable: true,
		}
	}

	lowerErr := strings.ToLower(err.Error())

	if strings.Contains(lowerErr, "rate limit") ||
		strings.Contains(lowerErr, "429") ||
		strings.Contains(lowerErr, "resource exhausted") ||
		strings.Contains(lowerErr, "resource_exhausted") {
		return &model.ProviderError{
			Provider:  "google",
			Code:      model.ErrCodeRateLimited,
			Message:   "Gemini API rate limit exceeded",
			Retryable: true,
		}
	}

	if strings.Contains(lowerErr, "api key") ||
		strings.Contains(lowerErr, "401") ||
		strings.Contains(lowerErr, "403") ||
		strings.Contains(lowerErr, "unauthorized") ||
		strings.Contains(lowerErr, "permission") {
		return &model.ProviderError{
			Provider: "google",
			Code:     model.ErrCodeInvalidAPIKey,
			Message:  "Google API key is invalid or lacks access",
		}
	}

	if strings.Contains(lowerErr, "quota") ||
		strings.Contains(lowerErr, "billing") {
		return &model.ProviderError{
			Provider: "google",
			Code:     model.ErrCodeQuotaExceeded,
			Message:  "Gemini API quota exceeded",
		}
	}

	if strings.Contains(lowerErr, "500") ||
		strings.Contains(lowerErr, "502") ||
		strings.Contains(lowerErr, "503") ||
		strings.Contains(lowerErr, "internal") ||
		strings.Contains(lowerErr, "unavailable") {
		return &model.ProviderError{
			Provider:  "google",
			Code:      model.ErrCodeServerError,
			Message:   fmt.Sprintf("Gemini API server error: %v", err),
			Retryable: true,
		}
	}

	if strings.Contains(lowerErr, "connection") ||
		strings.Contains(lowerErr, "timeout") ||
		strings.Contains(lowerErr, "network") {
		return &model.ProviderError{
			Provider:  "google",
			Code:      model.ErrCodeNetwork,
			Message:   fmt.Sprintf("network error calling Gemini API: %v", err),
			Retryable: true,
		}
	}

	return &model.ProviderError{
		Provider: "google",
		Code:     model.ErrCodeRequestFailed,
		Message:  fmt.Sprintf("Gemini API error: %v", err),
	}
}

// SafetyFilterError reports a Gemini safety filter block. Check for
// it with errors.As to degrade gracefully when a prompt trips a
// harm category.
type SafetyFilterError struct {
	reason   string
	category string
}

// Error implements the error interface.
func (e *SafetyFilterError) Error() string {
	return "content blocked by safety filter: " + e.category
}

// Category returns the safety category that triggered the block.
func (e *SafetyFilterError) Category() string {
	return e.category
}

// Reason returns why the content was blocked.
func (e *SafetyFilterError) Reason() string {
	return e.reason
}
