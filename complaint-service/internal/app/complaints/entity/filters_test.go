package entity

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func TestBackfillJob_ReviewFilter(t *testing.T) {
	storeID := uuid.New()
	productID := uuid.New()
	from := time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC)

	job := BackfillJob{
		StoreID:   storeID,
		ProductID: &productID,
		Statuses:  []string{"pending", "ineligible"},
		Filter: datatypes.JSONMap{
			FilterKeyFrom:       from.Format(time.RFC3339),
			FilterKeyTo:         "garbage",
			FilterKeyMaxReviews: 10,
			FilterKeyArticul:    "A-1",
		},
	}

	f := job.ReviewFilter()

	assert.Equal(t, storeID, f.StoreID)
	assert.Equal(t, &productID, f.ProductID)
	assert.Equal(t, "A-1", f.Articul)
	assert.Equal(t, []ReviewStatus{ReviewStatusPending, ReviewStatusIneligible}, f.Statuses)
	require.NotNil(t, f.From)
	assert.True(t, from.Equal(*f.From))
	assert.Nil(t, f.To)
}

func TestBackfillJob_Cursor(t *testing.T) {
	job := BackfillJob{}
	assert.Nil(t, job.Cursor())

	date := time.Now().UTC()
	id := uuid.New()
	job.CursorFeedbackDate = &date
	job.CursorReviewID = &id

	cursor := job.Cursor()
	require.NotNil(t, cursor)
	assert.Equal(t, id, cursor.ReviewID)
	assert.Equal(t, date, cursor.FeedbackDate)
}

func TestJobStatus_IsTerminal(t *testing.T) {
	assert.True(t, JobStatusCompleted.IsTerminal())
	assert.True(t, JobStatusFailed.IsTerminal())
	assert.True(t, JobStatusCancelled.IsTerminal())
	assert.False(t, JobStatusQueued.IsTerminal())
	assert.False(t, JobStatusRunning.IsTerminal())
	assert.False(t, JobStatusPausedQuota.IsTerminal())
}

func TestNewQuotaKey_UTCBuckets(t *testing.T) {
	loc := time.FixedZone("MSK", 3*60*60)
	// 01:30 по Москве - это 22:30 UTC предыдущего дня
	now := time.Date(2025, 11, 2, 1, 30, 0, 0, loc)

	key := NewQuotaKey(uuid.Nil, now)

	assert.Equal(t, time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC), key.Day)
	assert.Equal(t, time.Date(2025, 11, 1, 22, 0, 0, 0, time.UTC), key.Hour)
}
