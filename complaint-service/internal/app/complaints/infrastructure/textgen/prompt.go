package textgen

import (
	"fmt"
	"strings"

	"reviewguard/complaint-service/internal/app/complaints/infrastructure"
)

const systemPrompt = `You write complaints that a marketplace seller files against a customer review.
The complaint is read by marketplace moderators.

Rules:
1. Be polite and factual, never insult the customer
2. Point out concrete violations: the review is not about the product, contains insults,
   contains contact data or advertising, describes a delivery or pickup point issue,
   or contradicts the product description
3. Do not invent facts that are not in the review
4. 2-4 sentences, no greetings or signatures
5. Answer in the language of the review

Output the complaint text only, no quotes, no markdown.`

// maxComplaintLength - ограничение маркетплейса на длину жалобы
const maxComplaintLength = 1000

func buildUserPrompt(p infrastructure.ComplaintPrompt) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Product: %s (articul %s)\n", p.ProductName, p.Articul)
	fmt.Fprintf(&b, "Rating: %d/5\n", p.Rating)
	fmt.Fprintf(&b, "Review date: %s\n", p.FeedbackDate.Format("2006-01-02"))
	text := strings.TrimSpace(p.ReviewText)
	if text == "" {
		text = "(no text, rating only)"
	}
	fmt.Fprintf(&b, "Review: %s", text)
	return b.String()
}

// cleanResponse убирает markdown-обертки и обрезает текст до лимита маркетплейса
func cleanResponse(content string) string {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```text")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.Trim(strings.TrimSpace(content), `"`)

	runes := []rune(content)
	if len(runes) > maxComplaintLength {
		content = string(runes[:maxComplaintLength])
	}
	return content
}

// classifyStatus относит HTTP статус ответа провайдера к временным или постоянным ошибкам
func classifyStatus(err error, statusCode int) error {
	if statusCode == 429 || statusCode >= 500 || statusCode == 0 {
		return fmt.Errorf("%w: %v", infrastructure.ErrTransient, err)
	}
	return err
}
