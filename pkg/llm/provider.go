package llm

import (
	"context"
)

type Provider interface {
	SendMessage(ctx context.Context, req MessageRequest) (*MessageResponse, error)
	GetName() string
	GetSupportedModels() []string
	ValidateConfig(config ProviderConfig) error
}

type MessageRequest struct {
	Messages     []Message
	SystemPrompt string
	MaxTokens    int
	Model        string
	Temperature  *float32 // nil leaves the provider default
}

type MessageResponse struct {
	Content      string
	Usage        Usage
	FinishReason string
}

type ProviderConfig struct {
	Type    string // "anthropic", "openai"
	APIKey  string
	BaseURL string // for self-hosted
	Model   string
}

type Message struct {
	Role    string // "user", "assistant", "system"
	Content string
}

type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

// Temp is a convenience for building MessageRequest literals.
func Temp(t float32) *float32 { return &t }
