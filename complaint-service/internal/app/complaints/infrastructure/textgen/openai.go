package textgen

import (
	"context"
	"errors"
	"fmt"

	"reviewguard/complaint-service/internal/app/complaints/infrastructure"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

type OpenAIClient struct {
	client    *openai.Client
	model     openai.ChatModel
	modelName string
}

func NewOpenAIClient(apiKey string) *OpenAIClient {
	client := openai.NewClient(option.WithAPIKey(apiKey), option.WithMaxRetries(0))
	return &OpenAIClient{
		client:    &client,
		model:     openai.ChatModelGPT4oMini,
		modelName: "gpt-4o-mini",
	}
}

func (c *OpenAIClient) Provider() string {
	return "openai"
}

func (c *OpenAIClient) GenerateComplaintText(ctx context.Context, prompt infrastructure.ComplaintPrompt) (*infrastructure.GeneratedText, error) {
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(buildUserPrompt(prompt)),
		},
	})
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return nil, classifyStatus(fmt.Errorf("openai API error: %w", err), apiErr.StatusCode)
		}
		// сеть, таймаут контекста
		return nil, fmt.Errorf("%w: openai request failed: %v", infrastructure.ErrTransient, err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: no response from openai", infrastructure.ErrTransient)
	}

	text := cleanResponse(resp.Choices[0].Message.Content)
	if text == "" {
		return nil, fmt.Errorf("%w: empty completion from openai", infrastructure.ErrTransient)
	}

	return &infrastructure.GeneratedText{Text: text, ModelUsed: c.modelName}, nil
}
