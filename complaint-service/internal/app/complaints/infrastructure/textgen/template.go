package textgen

import (
	"context"
	"fmt"

	"reviewguard/complaint-service/internal/app/complaints/infrastructure"
)

// TemplateGenerator - детерминированный генератор без внешних вызовов.
// Используется в dev окружении и когда ключ LLM не задан.
type TemplateGenerator struct{}

func NewTemplateGenerator() *TemplateGenerator {
	return &TemplateGenerator{}
}

func (g *TemplateGenerator) Provider() string {
	return "template"
}

func (g *TemplateGenerator) GenerateComplaintText(_ context.Context, prompt infrastructure.ComplaintPrompt) (*infrastructure.GeneratedText, error) {
	text := fmt.Sprintf(
		"We ask moderators to review the %d-star review of %s dated %s. "+
			"The review does not describe the product under articul %s and breaks the review publication rules.",
		prompt.Rating, productLabel(prompt), prompt.FeedbackDate.Format("2006-01-02"), prompt.Articul,
	)
	return &infrastructure.GeneratedText{Text: text, ModelUsed: "template-v1"}, nil
}

func productLabel(p infrastructure.ComplaintPrompt) string {
	if p.ProductName != "" {
		return p.ProductName
	}
	return "the product"
}

// New выбирает провайдера по конфигурации
func New(provider, apiKey string) (infrastructure.TextGenerator, error) {
	switch provider {
	case "openai":
		if apiKey == "" {
			return nil, fmt.Errorf("TEXTGEN_API_KEY is required for provider %q", provider)
		}
		return NewOpenAIClient(apiKey), nil
	case "anthropic":
		if apiKey == "" {
			return nil, fmt.Errorf("TEXTGEN_API_KEY is required for provider %q", provider)
		}
		return NewAnthropicClient(apiKey), nil
	case "template":
		return NewTemplateGenerator(), nil
	default:
		return nil, fmt.Errorf("unknown text generation provider %q", provider)
	}
}
