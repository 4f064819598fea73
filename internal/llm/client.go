// Package llm defines the chat-completion contract the intent classifier
// and, eventually, the chat orchestrator speak against, plus pluggable
// implementations (OpenAI, Gemini) and a fake for tests.
package llm

import "context"

// Message is one turn in a chat exchange.
type Message struct {
	Role    string // "system", "user", or "assistant"
	Content string
}

// ChatOptions tunes a single Chat call. Zero value selects provider
// defaults.
type ChatOptions struct {
	Model       string
	Temperature float32
	MaxTokens   int
}

// ChatResult is the narrow `{content}` contract the classifier depends on.
type ChatResult struct {
	Content string
}

// Client is the chat-completion contract: `chat(messages, tools, options) →
// {content}`. The "tools" parameter named in the specification has no
// caller in this core (no function-calling flows are implemented here) and
// is intentionally omitted from the Go signature.
type Client interface {
	Chat(ctx context.Context, messages []Message, options ChatOptions) (ChatResult, error)
}
