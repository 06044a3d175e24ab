// Package model provides LLM integration adapters.
package model

import "context"

// ChatModel is the interface every LLM provider adapter implements.
//
// It abstracts the differences between providers (Google, OpenAI,
// Anthropic, mocks) behind a single chat call. Implementations handle
// provider authentication, convert Message values to the provider's
// wire format, parse responses back into ChatOut, and respect context
// cancellation.
//
// Example:
//
//	model := google.NewChatModel(apiKey, "")
//	out, err := model.Chat(ctx, []model.Message{
//	    {Role: model.RoleUser, Content: "Write a haiku about tides."},
//	}, nil)
//	if err != nil {
//	    return err
//	}
//	fmt.Println(out.Text)
type ChatModel interface {
	// Chat sends the conversation to the LLM and returns its reply.
	//
	// cfg tunes generation for this call; nil means provider defaults.
	// Errors are returned as *ProviderError where the provider gave
	// enough detail to classify them.
	Chat(ctx context.Context, messages []Message, cfg *GenConfig) (ChatOut, error)
}

// Message is a single turn in an LLM conversation.
type Message struct {
	// Role identifies the sender. Use the Role* constants.
	Role string

	// Content is the message text.
	Content string
}

// Standard role constants, matching the conventions of the major
// providers.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// GenConfig tunes a single generation request.
//
// Fields are pointers or zero-value-skippable so an unset field falls
// through to the provider default.
type GenConfig struct {
	// Temperature controls sampling randomness. Nil uses the
	// adapter's default.
	Temperature *float64

	// MaxTokens caps the response length. Zero uses the adapter's
	// default.
	MaxTokens int64
}

// Temp is a convenience constructor for GenConfig.Temperature.
func Temp(t float64) *float64 { return &t }

// Usage reports token consumption for one chat call, as counted by
// the provider.
type Usage struct {
	InputTokens  int64
	OutputTokens int64
}

// Total returns input plus output tokens.
func (u Usage) Total() int64 { return u.InputTokens + u.OutputTokens }

// ChatOut is the result of a chat completion.
type ChatOut struct {
	// Text is the generated response.
	Text string

	// Usage is the provider-reported token accounting. Zero when the
	// provider did not report usage.
	Usage Usage
}
