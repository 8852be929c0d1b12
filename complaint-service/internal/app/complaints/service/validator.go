package service

import (
	"time"

	"reviewguard/complaint-service/internal/app/complaints/entity"
)

// ReasonCode - причина, по которой отзыв не допущен к генерации жалобы
type ReasonCode string

const (
	ReasonBelowCutoffDate      ReasonCode = "below_cutoff_date"
	ReasonAlreadyProcessed     ReasonCode = "already_processed"
	ReasonStoreNotFound        ReasonCode = "store_not_found"
	ReasonStoreInactive        ReasonCode = "store_inactive"
	ReasonProductNotFound      ReasonCode = "product_not_found"
	ReasonProductRulesDisabled ReasonCode = "product_rules_disabled"
	ReasonRatingNotNegative    ReasonCode = "rating_not_negative"
)

type Verdict struct {
	Eligible bool
	Reason   ReasonCode
}

// RuleValidator решает, можно ли генерировать жалобу на отзыв.
// Проверки идут в фиксированном порядке, срабатывает первая.
type RuleValidator struct {
	cutoff            time.Time
	maxNegativeRating int
}

func NewRuleValidator(cutoff time.Time, maxNegativeRating int) *RuleValidator {
	return &RuleValidator{
		cutoff:            cutoff,
		maxNegativeRating: maxNegativeRating,
	}
}

// IsEligible не обращается к хранилищу: store и product передаются уже загруженными,
// nil означает, что запись не найдена
func (v *RuleValidator) IsEligible(review *entity.Review, product *entity.Product, store *entity.Store) Verdict {
	// Дата отсечения - жесткое бизнес-правило, остальные флаги не важны
	if review.FeedbackDate.Before(v.cutoff) {
		return reject(ReasonBelowCutoffDate)
	}

	if review.Status == entity.ReviewStatusComplaintGenerated || review.Status == entity.ReviewStatusComplaintSubmitted {
		return reject(ReasonAlreadyProcessed)
	}

	if store == nil {
		return reject(ReasonStoreNotFound)
	}
	if !store.IsActive {
		return reject(ReasonStoreInactive)
	}

	if product == nil {
		return reject(ReasonProductNotFound)
	}
	if !product.IsActive || !product.SubmitComplaints {
		return reject(ReasonProductRulesDisabled)
	}

	if review.Rating > v.maxNegativeRating {
		return reject(ReasonRatingNotNegative)
	}

	return Verdict{Eligible: true}
}

func reject(reason ReasonCode) Verdict {
	return Verdict{Eligible: false, Reason: reason}
}
