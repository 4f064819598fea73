package llm

import (
	"context"
	"errors"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/smarthome-ai/diagnostic-core/internal/common/logger"
)

// geminiClient adapts Google's generative-ai-go client to the Client
// contract, structurally parallel to openAIClient.
type geminiClient struct {
	model *genai.GenerativeModel
	log   logger.Logger
}

// NewGeminiClient builds a Client backed by Google Gemini.
func NewGeminiClient(ctx context.Context, apiKey, model string) (Client, error) {
	if apiKey == "" {
		return nil, errors.New("gemini api key cannot be empty")
	}
	if model == "" {
		model = "gemini-pro"
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}

	return &geminiClient{
		model: client.GenerativeModel(model),
		log:   logger.NewLogger("llm-gemini"),
	}, nil
}

func (c *geminiClient) Chat(ctx context.Context, messages []Message, options ChatOptions) (ChatResult, error) {
	if len(messages) == 0 {
		return ChatResult{}, errors.New("chat requires at least one message")
	}

	session := c.model.StartChat()
	session.History = toGenaiHistory(messages[:len(messages)-1])

	last := messages[len(messages)-1].Content
	resp, err := session.SendMessage(ctx, genai.Text(last))
	if err != nil {
		c.log.Warnf("gemini chat failed: %v", err)
		return ChatResult{}, err
	}

	content, err := extractText(resp)
	if err != nil {
		return ChatResult{}, err
	}
	return ChatResult{Content: content}, nil
}

func toGenaiHistory(messages []Message) []*genai.Content {
	history := make([]*genai.Content, 0, len(messages))
	for _, m := range messages {
		role := "user"
		if m.Role == "assistant" {
			role = "model"
		}
		history = append(history, &genai.Content{
			Parts: []genai.Part{genai.Text(m.Content)},
			Role:  role,
		})
	}
	return history
}

func extractText(resp *genai.GenerateContentResponse) (string, error) {
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", errors.New("gemini response contained no candidates")
	}
	var text string
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			text += string(t)
		}
	}
	return text, nil
}
