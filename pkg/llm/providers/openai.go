package providers

import (
	"context"
	"fmt"
	"math"

	"github.com/caredesk/caredesk/pkg/llm"
	"github.com/sashabaranov/go-openai"
)

type OpenAIProvider struct {
	client *openai.Client
	config llm.ProviderConfig
}

func NewOpenAIProvider(config llm.ProviderConfig) *OpenAIProvider {
	client := openai.NewClient(config.APIKey)
	if config.BaseURL != "" {
		cfg := openai.DefaultConfig(config.APIKey)
		cfg.BaseURL = config.BaseURL
		client = openai.NewClientWithConfig(cfg)
	}

	return &OpenAIProvider{
		client: client,
		config: config,
	}
}

func (p *OpenAIProvider) SendMessage(ctx context.Context, req llm.MessageRequest) (*llm.MessageResponse, error) {
	openaiMessages := convertToOpenAIMessages(req.Messages)

	if req.SystemPrompt != "" {
		systemMsg := openai.ChatCompletionMessage{
			Role:    "system",
			Content: req.SystemPrompt,
		}
		openaiMessages = append([]openai.ChatCompletionMessage{systemMsg}, openaiMessages...)
	}

	model := "gpt-4o"
	if req.Model != "" {
		model = req.Model
	} else if p.config.Model != "" {
		model = p.config.Model
	}

	openaiReq := openai.ChatCompletionRequest{
		Model:    model,
		Messages: openaiMessages,
	}

	if req.MaxTokens > 0 {
		openaiReq.MaxTokens = req.MaxTokens
	}

	if req.Temperature != nil {
		t := *req.Temperature
		if t == 0 {
			// go-openai omits a zero temperature from the request body, which
			// would fall back to the provider default instead of deterministic
			// sampling. Smallest non-zero float survives serialization.
			t = math.SmallestNonzeroFloat32
		}
		openaiReq.Temperature = t
	}

	resp, err := p.client.CreateChatCompletion(ctx, openaiReq)
	if err != nil {
		return nil, fmt.Errorf("making openai API call: %w", err)
	}

	return convertFromOpenAIResponse(resp), nil
}

func (p *OpenAIProvider) GetName() string {
	return "openai"
}

func (p *OpenAIProvider) GetSupportedModels() []string {
	return []string{
		"gpt-4o",
		"gpt-4o-mini",
		"gpt-4",
		"gpt-4-turbo",
		"gpt-3.5-turbo",
	}
}

func (p *OpenAIProvider) ValidateConfig(config llm.ProviderConfig) error {
	if config.APIKey == "" {
		return fmt.Errorf("API key is required for OpenAI provider")
	}
	return nil
}

func convertToOpenAIMessages(messages []llm.Message) []openai.ChatCompletionMessage {
	var openaiMessages []openai.ChatCompletionMessage

	for _, msg := range messages {
		switch msg.Role {
		case "user", "assistant", "system":
			openaiMessages = append(openaiMessages, openai.ChatCompletionMessage{
				Role:    msg.Role,
				Content: msg.Content,
			})
		}
	}

	return openaiMessages
}

func convertFromOpenAIResponse(resp openai.ChatCompletionResponse) *llm.MessageResponse {
	var content string
	var finishReason string

	if len(resp.Choices) > 0 {
		content = resp.Choices[0].Message.Content
		finishReason = string(resp.Choices[0].FinishReason)
	}

	usage := llm.Usage{
		InputTokens:  resp.Usage.PromptTokens,
		OutputTokens: resp.Usage.CompletionTokens,
		TotalTokens:  resp.Usage.TotalTokens,
	}

	return &llm.MessageResponse{
		Content:      content,
		Usage:        usage,
		FinishReason: finishReason,
	}
}
