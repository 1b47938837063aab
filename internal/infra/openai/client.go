package openai

import (
	"context"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

const (
	defaultModel   = "gpt-4o-mini"
	requestTimeout = 30 * time.Second
)

// DefaultRelevanceStrategy is the system prompt used when no strategy is configured
const DefaultRelevanceStrategy = `You are a filter for a social media bot that reposts posts about topics it watches.

A post has already matched one of the watched keywords. Decide whether the post is really about the topic, rather than using the word in passing, as a joke, or in an unrelated meaning.

Decision rules:
1. The post is about the watched topic -> YES
2. The keyword appears in an unrelated sense -> NO
3. The post is spam or advertising -> NO
4. If uncertain -> NO

Reply only "YES" or "NO", no explanations.`

// Client is a chat-completions client for any OpenAI-compatible endpoint
type Client struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

// NewClient creates a new client. An empty baseURL uses the OpenAI API.
func NewClient(apiKey, baseURL, model string, logger *zap.Logger) *Client {
	if model == "" {
		model = defaultModel
	}

	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}

	return &Client{
		client: openai.NewClientWithConfig(config),
		model:  model,
		logger: logger.Named("openai"),
	}
}

// Chat sends a message and returns the response
func (c *Client) Chat(ctx context.Context, systemPrompt, userMessage string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userMessage},
		},
		Temperature: 0.1, // Low temperature for deterministic responses
		MaxTokens:   10,  // YES/NO only
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response choices")
	}

	return resp.Choices[0].Message.Content, nil
}

// IsRelevant asks the model whether text is on-topic for the watched terms.
// An empty strategy uses DefaultRelevanceStrategy.
func (c *Client) IsRelevant(ctx context.Context, text string, terms []string, strategy string) (bool, error) {
	systemPrompt := strategy
	if systemPrompt == "" {
		systemPrompt = DefaultRelevanceStrategy
	}

	userMsg := text
	if len(terms) > 0 {
		userMsg = fmt.Sprintf("## Watched keywords\n%s\n\n## Post to evaluate\n%s", strings.Join(terms, ", "), text)
	}

	resp, err := c.Chat(ctx, systemPrompt, userMsg)
	if err != nil {
		return false, err
	}

	resp = strings.TrimSpace(resp)
	relevant := strings.HasPrefix(strings.ToUpper(resp), "YES")
	c.logger.Debug("relevance verdict", zap.String("response", resp), zap.Bool("relevant", relevant))
	return relevant, nil
}
