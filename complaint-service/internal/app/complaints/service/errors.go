package service

import (
	"errors"

	"reviewguard/complaint-service/internal/app/complaints/infrastructure"
	"reviewguard/complaint-service/internal/app/complaints/repository"
)

var (
	// Ожидаемые ситуации: приводят к паузе или пропуску, а не к падению задачи
	ErrQuotaExceeded       = errors.New("complaint quota exceeded")
	ErrTransientDownstream = infrastructure.ErrTransient

	// ErrStructural - продолжать обработку бессмысленно (например, магазин удален)
	ErrStructural = errors.New("structural error")

	ErrStoreNotFound     = repository.ErrStoreNotFound
	ErrProductNotFound   = repository.ErrProductNotFound
	ErrReviewNotFound    = repository.ErrReviewNotFound
	ErrComplaintNotFound = repository.ErrComplaintNotFound
	ErrJobNotFound       = repository.ErrJobNotFound

	// Ошибки бизнес-логики для обработки в handlers
	ErrJobTerminal         = errors.New("backfill job is already finished")
	ErrInvalidFilter       = errors.New("invalid backfill filter")
	ErrInvalidResolution   = errors.New("invalid complaint resolution")
	ErrInvalidExtensionKey = errors.New("invalid extension key")
)
