package marketplace

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"reviewguard/complaint-service/internal/app/complaints/entity"
	"reviewguard/complaint-service/internal/app/complaints/infrastructure"
)

// Client клиент HTTP API маркетплейса: выгрузка отзывов и отправка жалоб.
// Авторизация выполняется токеном магазина.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient создает клиент с таймаутом на каждый запрос
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type feedbackDTO struct {
	ID        string    `json:"id"`
	Articul   string    `json:"nmId"`
	CreatedAt time.Time `json:"createdDate"`
	Rating    int       `json:"productValuation"`
	Text      string    `json:"text"`
}

type feedbacksResponse struct {
	Data struct {
		Feedbacks []feedbackDTO `json:"feedbacks"`
	} `json:"data"`
	Error     bool   `json:"error"`
	ErrorText string `json:"errorText"`
}

type complaintRequest struct {
	FeedbackID string `json:"feedbackId"`
	Text       string `json:"text"`
}

type complaintResponse struct {
	Status string `json:"status"`
	Reason string `json:"reason"`
}

// FetchReviews выгружает отзывы магазина, созданные после since
func (c *Client) FetchReviews(ctx context.Context, store *entity.Store, since time.Time) ([]entity.ReviewInput, error) {
	query := url.Values{}
	query.Set("dateFrom", fmt.Sprintf("%d", since.Unix()))
	query.Set("order", "dateAsc")
	endpoint := fmt.Sprintf("%s/api/v1/feedbacks?%s", c.baseURL, query.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", store.MarketplaceToken)

	body, err := c.do(req)
	if err != nil {
		return nil, err
	}

	var parsed feedbacksResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to unmarshal feedbacks response: %w", err)
	}
	if parsed.Error {
		return nil, fmt.Errorf("marketplace returned error: %s", parsed.ErrorText)
	}

	reviews := make([]entity.ReviewInput, 0, len(parsed.Data.Feedbacks))
	for _, f := range parsed.Data.Feedbacks {
		reviews = append(reviews, entity.ReviewInput{
			ExternalFeedbackID: f.ID,
			Articul:            f.Articul,
			FeedbackDate:       f.CreatedAt,
			Rating:             f.Rating,
			Text:               f.Text,
		})
	}

	return reviews, nil
}

// SubmitComplaint отправляет жалобу на отзыв.
// 409 означает, что жалоба на этот отзыв уже подана, это считается успехом.
func (c *Client) SubmitComplaint(ctx context.Context, store *entity.Store, complaint *entity.Complaint, externalFeedbackID string) (*infrastructure.SubmitResult, error) {
	payload, err := json.Marshal(complaintRequest{FeedbackID: externalFeedbackID, Text: complaint.Text})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal complaint: %w", err)
	}

	endpoint := fmt.Sprintf("%s/api/v1/feedbacks/complaints", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", store.MarketplaceToken)
	req.Header.Set("Content-Type", "application/json")

	body, err := c.do(req)
	var statusErr *statusError
	switch {
	case errors.As(err, &statusErr) && statusErr.code == http.StatusConflict:
		return &infrastructure.SubmitResult{Status: infrastructure.SubmitAccepted}, nil
	case errors.As(err, &statusErr) && statusErr.code == http.StatusUnprocessableEntity:
		return &infrastructure.SubmitResult{Status: infrastructure.SubmitRejected, Reason: statusErr.body}, nil
	case err != nil:
		return nil, err
	}

	var parsed complaintResponse
	if len(body) > 0 {
		if err := json.Unmarshal(body, &parsed); err != nil {
			return nil, fmt.Errorf("failed to unmarshal complaint response: %w", err)
		}
	}

	if parsed.Status == string(infrastructure.SubmitRejected) {
		return &infrastructure.SubmitResult{Status: infrastructure.SubmitRejected, Reason: parsed.Reason}, nil
	}
	return &infrastructure.SubmitResult{Status: infrastructure.SubmitAccepted}, nil
}

type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("marketplace returned status %d: %s", e.code, e.body)
}

// do выполняет запрос и классифицирует ошибку: сеть, 429 и 5xx считаются временными
func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to send request: %v", infrastructure.ErrTransient, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response body: %v", infrastructure.ErrTransient, err)
	}

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
		return nil, fmt.Errorf("%w: %v", infrastructure.ErrTransient, &statusError{code: resp.StatusCode, body: string(body)})
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &statusError{code: resp.StatusCode, body: string(body)}
	}

	return body, nil
}
