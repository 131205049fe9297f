package genai

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// mockChatService implements chatService for testing.
type mockChatService struct {
	resp     *openai.ChatCompletion
	err      error
	lastBody openai.ChatCompletionNewParams
}

func (m *mockChatService) New(ctx context.Context, body openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error) {
	m.lastBody = body
	return m.resp, m.err
}

func completion(content string) *openai.ChatCompletion {
	return &openai.ChatCompletion{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: content}},
		},
	}
}

func TestGeneratePrompt_Success(t *testing.T) {
	mock := &mockChatService{resp: completion("Hello World")}
	client := &Client{chat: mock, model: DefaultModel}
	out, err := client.GeneratePrompt(context.Background(), "system prompt", "user prompt")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if out != "Hello World" {
		t.Errorf("expected 'Hello World', got '%s'", out)
	}
	if len(mock.lastBody.Messages) != 2 {
		t.Errorf("expected 2 messages, got %d", len(mock.lastBody.Messages))
	}
}

func TestGeneratePrompt_ServiceError(t *testing.T) {
	client := &Client{chat: &mockChatService{err: errors.New("service failure")}}
	_, err := client.GeneratePrompt(context.Background(), "sys", "usr")
	if err == nil || !strings.Contains(err.Error(), "service failure") {
		t.Errorf("expected service failure error, got %v", err)
	}
}

func TestGeneratePrompt_NoChoices(t *testing.T) {
	client := &Client{chat: &mockChatService{resp: &openai.ChatCompletion{}}}
	_, err := client.GeneratePrompt(context.Background(), "sys", "usr")
	if !errors.Is(err, ErrNoChoicesReturned) {
		t.Errorf("expected no choices returned error, got %v", err)
	}
}

func TestNewClient_NoKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	_, err := NewClient()
	if err == nil {
		t.Error("expected error when API key not provided, got nil")
	}
}

func TestNewClient_WithKey(t *testing.T) {
	c, err := NewClient(WithAPIKey("sk-test"), WithModel("gpt-4o"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.model != "gpt-4o" {
		t.Errorf("expected model gpt-4o, got %q", c.model)
	}
}

func TestInterpretSymptoms(t *testing.T) {
	phrases := []string{"headache", "cough", "high fever"}
	tests := []struct {
		name    string
		answer  string
		want    []string
		wantErr bool
	}{
		{"plain array", `["headache", "cough"]`, []string{"headache", "cough"}, false},
		{"fenced", "```json\n[\"High Fever\"]\n```", []string{"high fever"}, false},
		{"unknown dropped", `["headache", "broken leg", "headache"]`, []string{"headache"}, false},
		{"empty", `[]`, nil, false},
		{"prose", `The patient has a headache.`, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &Client{chat: &mockChatService{resp: completion(tt.answer)}}
			got, err := client.InterpretSymptoms(context.Background(), "my head hurts", phrases)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("expected %v, got %v", tt.want, got)
				}
			}
		})
	}
}

func TestInterpretSymptoms_EmptyInput(t *testing.T) {
	client := &Client{chat: &mockChatService{err: errors.New("should not be called")}}
	got, err := client.InterpretSymptoms(context.Background(), "   ", []string{"cough"})
	if err != nil || got != nil {
		t.Errorf("expected nil, nil for empty text, got %v, %v", got, err)
	}
}
