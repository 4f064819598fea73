package llm

import (
	"context"
	"errors"

	"github.com/sashabaranov/go-openai"

	"github.com/smarthome-ai/diagnostic-core/internal/common/logger"
)

// openAIClient adapts the go-openai client to the Client contract.
type openAIClient struct {
	client *openai.Client
	model  string
	log    logger.Logger
}

// NewOpenAIClient builds a Client backed by the OpenAI chat completions API.
func NewOpenAIClient(apiKey, model string) (Client, error) {
	if apiKey == "" {
		return nil, errors.New("openai api key cannot be empty")
	}
	if model == "" {
		model = openai.GPT4oMini
	}

	return &openAIClient{
		client: openai.NewClient(apiKey),
		model:  model,
		log:    logger.NewLogger("llm-openai"),
	}, nil
}

func (c *openAIClient) Chat(ctx context.Context, messages []Message, options ChatOptions) (ChatResult, error) {
	model := c.model
	if options.Model != "" {
		model = options.Model
	}

	req := openai.ChatCompletionRequest{
		Model:       model,
		Messages:    toOpenAIMessages(messages),
		Temperature: options.Temperature,
		MaxTokens:   options.MaxTokens,
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		c.log.Warnf("openai chat completion failed: %v", err)
		return ChatResult{}, err
	}
	if len(resp.Choices) == 0 {
		return ChatResult{}, errors.New("openai returned no choices")
	}

	return ChatResult{Content: resp.Choices[0].Message.Content}, nil
}

func toOpenAIMessages(messages []Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, len(messages))
	for i, m := range messages {
		out[i] = openai.ChatCompletionMessage{Role: m.Role, Content: m.Content}
	}
	return out
}
