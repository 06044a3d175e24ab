package anthropic

import (
	"context"
	"errors"
	"testing"

	"github.com/dshills/draftloop-go/flow/model"
)

type fakeClient struct {
	out          model.ChatOut
	err          error
	lastSystem   string
	lastMessages []model.Message
	lastConfig   *model.GenConfig
	callCount    int
}

func (f *fakeClient) createMessage(ctx context.Context, system string, messages []model.Message, cfg *model.GenConfig) (model.ChatOut, error) {
	f.callCount++
	f.lastSystem = system
	f.lastMessages = messages
	f.lastConfig = cfg

	if f.err != nil {
		return model.ChatOut{}, f.err
	}
	return f.out, nil
}

func TestNewChatModel_Defaults(t *testing.T) {
	m := NewChatModel("test-key", "")
	if m.ModelName() != DefaultModel {
		t.Errorf("ModelName = %q, want %q", m.ModelName(), DefaultModel)
	}
}

func TestChatModel_Chat(t *testing.T) {
	t.Run("returns response text and usage", func(t *testing.T) {
		client := &fakeClient{out: model.ChatOut{
			Text:  "APPROVED",
			Usage: model.Usage{InputTokens: 900, OutputTokens: 4},
		}}
		m := &ChatModel{client: client, modelName: DefaultModel}

		out, err := m.Chat(context.Background(), []model.Message{
			{Role: model.RoleUser, Content: "Review the draft."},
		}, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out.Text != "APPROVED" {
			t.Errorf("Text = %q", out.Text)
		}
		if out.Usage.InputTokens != 900 {
			t.Errorf("InputTokens = %d", out.Usage.InputTokens)
		}
	})

	t.Run("splits system messages into system field", func(t *testing.T) {
		client := &fakeClient{out: model.ChatOut{Text: "ok"}}
		m := &ChatModel{client: client, modelName: DefaultModel}

		m.Chat(context.Background(), []model.Message{
			{Role: model.RoleSystem, Content: "You are an expert editor."},
			{Role: model.RoleUser, Content: "Revise this."},
			{Role: model.RoleAssistant, Content: "Done."},
		}, nil)

		if client.lastSystem != "You are an expert editor." {
			t.Errorf("system = %q", client.lastSystem)
		}
		if len(client.lastMessages) != 2 {
			t.Fatalf("expected 2 non-system messages, got %d", len(client.lastMessages))
		}
		if client.lastMessages[0].Role != model.RoleUser || client.lastMessages[1].Role != model.RoleAssistant {
			t.Error("expected user then assistant after system extraction")
		}
	})

	t.Run("respects context cancellation", func(t *testing.T) {
		client := &fakeClient{out: model.ChatOut{Text: "unused"}}
		m := &ChatModel{client: client, modelName: DefaultModel}

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := m.Chat(ctx, nil, nil)
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
		if client.callCount != 0 {
			t.Error("expected no API call after cancellation")
		}
	})
}

func TestConvertMessages_Roles(t *testing.T) {
	params := convertMessages([]model.Message{
		{Role: model.RoleUser, Content: "question"},
		{Role: model.RoleAssistant, Content: "answer"},
	})
	if len(params) != 2 {
		t.Fatalf("expected 2 params, got %d", len(params))
	}
	if params[0].Role != "user" {
		t.Errorf("params[0].Role = %q, want user", params[0].Role)
	}
	if params[1].Role != "assistant" {
		t.Errorf("params[1].Role = %q, want assistant", params[1].Role)
	}
}

func TestMapError(t *testing.T) {
	cases := []struct {
		name      string
		err       error
		wantCode  string
		retryable bool
	}{
		{"rate limit", errors.New("429: rate limit hit"), model.ErrCodeRateLimited, true},
		{"overloaded", errors.New("overloaded_error: try later"), model.ErrCodeRateLimited, true},
		{"auth", errors.New("401 authentication_error: invalid x-api-key"), model.ErrCodeInvalidAPIKey, false},
		{"quota", errors.New("your credit balance is too low"), model.ErrCodeQuotaExceeded, false},
		{"server", errors.New("500 internal server error"), model.ErrCodeServerError, true},
		{"unknown", errors.New("unexpected payload"), model.ErrCodeRequestFailed, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mapped := mapError(tc.err)
			var provErr *model.ProviderError
			if !errors.As(mapped, &provErr) {
				t.Fatalf("expected ProviderError, got %T", mapped)
			}
			if provErr.Code != tc.wantCode {
				t.Errorf("Code = %q, want %q", provErr.Code, tc.wantCode)
			}
			if provErr.IsRetryable() != tc.retryable {
				t.Errorf("Retryable = %v, want %v", provErr.IsRetryable(), tc.retryable)
			}
		})
	}
}

func TestChatModel_InterfaceContract(_ *testing.T) {
	var _ model.ChatModel = NewChatModel("key", "")
}
