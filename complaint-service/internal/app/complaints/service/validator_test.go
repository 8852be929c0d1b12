package service

import (
	"testing"
	"time"

	"reviewguard/complaint-service/internal/app/complaints/entity"

	"github.com/stretchr/testify/assert"
)

func TestRuleValidator_IsEligible(t *testing.T) {
	validator := NewRuleValidator(testCutoff, 3)

	activeStore := &entity.Store{IsActive: true}
	enabledProduct := &entity.Product{IsActive: true, SubmitComplaints: true}
	afterCutoff := testCutoff.Add(24 * time.Hour)

	tests := []struct {
		name     string
		review   entity.Review
		product  *entity.Product
		store    *entity.Store
		eligible bool
		reason   ReasonCode
	}{
		{
			name:     "negative review passes",
			review:   entity.Review{FeedbackDate: afterCutoff, Rating: 1, Status: entity.ReviewStatusPending},
			product:  enabledProduct,
			store:    activeStore,
			eligible: true,
		},
		{
			name:     "rating at threshold passes",
			review:   entity.Review{FeedbackDate: afterCutoff, Rating: 3, Status: entity.ReviewStatusIneligible},
			product:  enabledProduct,
			store:    activeStore,
			eligible: true,
		},
		{
			name:    "cutoff wins over every other flag",
			review:  entity.Review{FeedbackDate: testCutoff.Add(-time.Second), Rating: 5, Status: entity.ReviewStatusComplaintSubmitted},
			product: nil,
			store:   nil,
			reason:  ReasonBelowCutoffDate,
		},
		{
			name:    "review on cutoff date passes the date check",
			review:  entity.Review{FeedbackDate: testCutoff, Rating: 5},
			product: enabledProduct,
			store:   activeStore,
			reason:  ReasonRatingNotNegative,
		},
		{
			name:    "already generated",
			review:  entity.Review{FeedbackDate: afterCutoff, Rating: 1, Status: entity.ReviewStatusComplaintGenerated},
			product: enabledProduct,
			store:   activeStore,
			reason:  ReasonAlreadyProcessed,
		},
		{
			name:    "store missing",
			review:  entity.Review{FeedbackDate: afterCutoff, Rating: 1},
			product: enabledProduct,
			reason:  ReasonStoreNotFound,
		},
		{
			name:    "store inactive",
			review:  entity.Review{FeedbackDate: afterCutoff, Rating: 1},
			product: enabledProduct,
			store:   &entity.Store{IsActive: false},
			reason:  ReasonStoreInactive,
		},
		{
			name:   "product missing",
			review: entity.Review{FeedbackDate: afterCutoff, Rating: 1},
			store:  activeStore,
			reason: ReasonProductNotFound,
		},
		{
			name:    "product inactive",
			review:  entity.Review{FeedbackDate: afterCutoff, Rating: 1},
			product: &entity.Product{IsActive: false, SubmitComplaints: true},
			store:   activeStore,
			reason:  ReasonProductRulesDisabled,
		},
		{
			name:    "product opted out",
			review:  entity.Review{FeedbackDate: afterCutoff, Rating: 1},
			product: &entity.Product{IsActive: true, SubmitComplaints: false},
			store:   activeStore,
			reason:  ReasonProductRulesDisabled,
		},
		{
			name:    "positive review",
			review:  entity.Review{FeedbackDate: afterCutoff, Rating: 4},
			product: enabledProduct,
			store:   activeStore,
			reason:  ReasonRatingNotNegative,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verdict := validator.IsEligible(&tt.review, tt.product, tt.store)

			assert.Equal(t, tt.eligible, verdict.Eligible)
			assert.Equal(t, tt.reason, verdict.Reason)
		})
	}
}

func TestRuleValidator_CutoffIgnoresFlags(t *testing.T) {
	validator := NewRuleValidator(testCutoff, 3)
	old := testCutoff.Add(-48 * time.Hour)

	for _, storeActive := range []bool{true, false} {
		for _, productActive := range []bool{true, false} {
			for rating := 1; rating <= 5; rating++ {
				verdict := validator.IsEligible(
					&entity.Review{FeedbackDate: old, Rating: rating},
					&entity.Product{IsActive: productActive, SubmitComplaints: true},
					&entity.Store{IsActive: storeActive},
				)
				assert.False(t, verdict.Eligible)
				assert.Equal(t, ReasonBelowCutoffDate, verdict.Reason)
			}
		}
	}
}
