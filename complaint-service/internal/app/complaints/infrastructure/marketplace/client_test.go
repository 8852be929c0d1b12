package marketplace

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"reviewguard/complaint-service/internal/app/complaints/entity"
	"reviewguard/complaint-service/internal/app/complaints/infrastructure"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore() *entity.Store {
	return &entity.Store{Name: "test", MarketplaceToken: "token-123"}
}

func TestFetchReviews_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/feedbacks", r.URL.Path)
		assert.Equal(t, "token-123", r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.URL.Query().Get("dateFrom"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"feedbacks":[
			{"id":"fb-1","nmId":"A-1","createdDate":"2025-11-01T10:00:00Z","productValuation":2,"text":"bad"},
			{"id":"fb-2","nmId":"A-2","createdDate":"2025-11-02T10:00:00Z","productValuation":5,"text":"good"}
		]},"error":false}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)

	reviews, err := client.FetchReviews(context.Background(), newStore(), time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC))

	require.NoError(t, err)
	require.Len(t, reviews, 2)
	assert.Equal(t, "fb-1", reviews[0].ExternalFeedbackID)
	assert.Equal(t, "A-1", reviews[0].Articul)
	assert.Equal(t, 2, reviews[0].Rating)
}

func TestFetchReviews_TooManyRequestsIsTransient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)

	_, err := client.FetchReviews(context.Background(), newStore(), time.Now())

	assert.ErrorIs(t, err, infrastructure.ErrTransient)
}

func TestFetchReviews_UnauthorizedIsPermanent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)

	_, err := client.FetchReviews(context.Background(), newStore(), time.Now())

	require.Error(t, err)
	assert.NotErrorIs(t, err, infrastructure.ErrTransient)
}

func TestSubmitComplaint(t *testing.T) {
	tests := []struct {
		name           string
		status         int
		body           string
		expectedStatus infrastructure.SubmitStatus
		expectedReason string
		transient      bool
	}{
		{name: "accepted", status: http.StatusOK, body: `{"status":"accepted"}`, expectedStatus: infrastructure.SubmitAccepted},
		{name: "already filed", status: http.StatusConflict, body: `duplicate`, expectedStatus: infrastructure.SubmitAccepted},
		{name: "rejected in body", status: http.StatusOK, body: `{"status":"rejected","reason":"too short"}`, expectedStatus: infrastructure.SubmitRejected, expectedReason: "too short"},
		{name: "unprocessable", status: http.StatusUnprocessableEntity, body: `feedback is too old`, expectedStatus: infrastructure.SubmitRejected, expectedReason: "feedback is too old"},
		{name: "server error", status: http.StatusBadGateway, transient: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				var req complaintRequest
				require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
				assert.Equal(t, "fb-1", req.FeedbackID)
				assert.Equal(t, "complaint text", req.Text)

				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := NewClient(server.URL, 5*time.Second)

			result, err := client.SubmitComplaint(context.Background(), newStore(), &entity.Complaint{Text: "complaint text"}, "fb-1")

			if tt.transient {
				assert.ErrorIs(t, err, infrastructure.ErrTransient)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expectedStatus, result.Status)
			assert.Equal(t, tt.expectedReason, result.Reason)
		})
	}
}
