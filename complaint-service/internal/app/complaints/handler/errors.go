package handler

import (
	"errors"
	"net/http"

	"reviewguard/complaint-service/internal/app/complaints/service"
	"reviewguard/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// respondError переводит ошибки сервисного слоя в HTTP ответ
func respondError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrStoreNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Store not found"})
	case errors.Is(err, service.ErrProductNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
	case errors.Is(err, service.ErrReviewNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Review not found"})
	case errors.Is(err, service.ErrComplaintNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Complaint not found"})
	case errors.Is(err, service.ErrJobNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Backfill job not found"})
	case errors.Is(err, service.ErrJobTerminal):
		c.JSON(http.StatusConflict, gin.H{"error": "Backfill job is already finished"})
	case errors.Is(err, service.ErrInvalidResolution):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidFilter):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidExtensionKey):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid extension key"})
	default:
		logger.Error().
			Err(err).
			Str(logger.FieldRequestID, c.GetString(logger.FieldRequestID)).
			Str("path", c.FullPath()).
			Msg(fallback)
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}

// uuidParam читает UUID из пути; при ошибке ответ уже отправлен
func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return uuid.Nil, false
	}
	return id, true
}

func formatValidationError(err error) string {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		for _, fieldError := range validationErrors {
			return fieldError.Field() + " is " + fieldError.Tag()
		}
	}
	return "Validation failed"
}
