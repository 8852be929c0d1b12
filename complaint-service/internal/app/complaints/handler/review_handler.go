package handler

import (
	"net/http"

	"reviewguard/complaint-service/internal/app/complaints/entity"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type ReviewHandler struct {
	ingestion IngestionServiceInterface
	queries   ReviewQueryServiceInterface
	validator *validator.Validate
}

func NewReviewHandler(ingestion IngestionServiceInterface, queries ReviewQueryServiceInterface) *ReviewHandler {
	return &ReviewHandler{
		ingestion: ingestion,
		queries:   queries,
		validator: validator.New(),
	}
}

// SyncReviews принимает пачку отзывов; уже известные отзывы пропускаются
func (h *ReviewHandler) SyncReviews(c *gin.Context) {
	var req entity.SyncReviewsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if err := h.validator.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": formatValidationError(err)})
		return
	}

	storeID, err := uuid.Parse(req.StoreID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid store_id"})
		return
	}

	result, err := h.ingestion.SyncReviews(c.Request.Context(), storeID, req.Reviews, "http")
	if err != nil {
		respondError(c, err, "Failed to sync reviews")
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *ReviewHandler) GetReview(c *gin.Context) {
	reviewID, ok := uuidParam(c, "review_id")
	if !ok {
		return
	}

	review, err := h.queries.GetReview(c.Request.Context(), reviewID)
	if err != nil {
		respondError(c, err, "Failed to get review")
		return
	}

	c.JSON(http.StatusOK, review)
}

func (h *ReviewHandler) GetHistory(c *gin.Context) {
	reviewID, ok := uuidParam(c, "review_id")
	if !ok {
		return
	}

	history, err := h.queries.GetHistory(c.Request.Context(), reviewID)
	if err != nil {
		respondError(c, err, "Failed to get review history")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"review_id": reviewID,
		"history":   history,
		"total":     len(history),
	})
}
