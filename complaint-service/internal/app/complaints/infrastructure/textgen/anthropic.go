package textgen

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"reviewguard/complaint-service/internal/app/complaints/infrastructure"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

type AnthropicClient struct {
	client    *anthropic.Client
	model     anthropic.Model
	modelName string
}

func NewAnthropicClient(apiKey string) *AnthropicClient {
	client := anthropic.NewClient(option.WithAPIKey(apiKey), option.WithMaxRetries(0))
	return &AnthropicClient{
		client:    &client,
		model:     anthropic.ModelClaudeHaiku4_5,
		modelName: "claude-4.5-haiku",
	}
}

func (c *AnthropicClient) Provider() string {
	return "anthropic"
}

func (c *AnthropicClient) GenerateComplaintText(ctx context.Context, prompt infrastructure.ComplaintPrompt) (*infrastructure.GeneratedText, error) {
	resp, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: 512,
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(buildUserPrompt(prompt))),
		},
	})
	if err != nil {
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			return nil, classifyStatus(fmt.Errorf("anthropic API error: %w", err), apiErr.StatusCode)
		}
		return nil, fmt.Errorf("%w: anthropic request failed: %v", infrastructure.ErrTransient, err)
	}

	var parts []string
	for _, block := range resp.Content {
		if block.Type == "text" {
			parts = append(parts, block.Text)
		}
	}

	text := cleanResponse(strings.Join(parts, "\n"))
	if text == "" {
		return nil, fmt.Errorf("%w: no response from anthropic", infrastructure.ErrTransient)
	}

	return &infrastructure.GeneratedText{Text: text, ModelUsed: c.modelName}, nil
}
