package handler

import (
	"net/http"

	"reviewguard/complaint-service/internal/app/complaints/entity"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type BackfillHandler struct {
	backfillService BackfillServiceInterface
	validator       *validator.Validate
}

func NewBackfillHandler(backfillService BackfillServiceInterface) *BackfillHandler {
	return &BackfillHandler{
		backfillService: backfillService,
		validator:       validator.New(),
	}
}

// EnqueueJob ставит задачу в очередь и сразу отвечает 202; выполнение идет в воркере
func (h *BackfillHandler) EnqueueJob(c *gin.Context) {
	storeID, ok := uuidParam(c, "store_id")
	if !ok {
		return
	}

	var req entity.EnqueueBackfillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if err := h.validator.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": formatValidationError(err)})
		return
	}

	criteria := entity.BackfillCriteria{
		From:       req.From,
		To:         req.To,
		MaxReviews: req.MaxReviews,
	}
	if req.ProductID != "" {
		productID, err := uuid.Parse(req.ProductID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product_id"})
			return
		}
		criteria.ProductID = &productID
	}
	for _, st := range req.Statuses {
		criteria.Statuses = append(criteria.Statuses, entity.ReviewStatus(st))
	}

	job, err := h.backfillService.EnqueueJob(c.Request.Context(), storeID, criteria)
	if err != nil {
		respondError(c, err, "Failed to enqueue backfill job")
		return
	}

	c.JSON(http.StatusAccepted, job)
}

func (h *BackfillHandler) GetJob(c *gin.Context) {
	jobID, ok := uuidParam(c, "job_id")
	if !ok {
		return
	}

	job, err := h.backfillService.GetJobStatus(c.Request.Context(), jobID)
	if err != nil {
		respondError(c, err, "Failed to get backfill job")
		return
	}

	c.JSON(http.StatusOK, job)
}

// CancelJob - текущий батч дорабатывает, следующий не начнется
func (h *BackfillHandler) CancelJob(c *gin.Context) {
	jobID, ok := uuidParam(c, "job_id")
	if !ok {
		return
	}

	job, err := h.backfillService.CancelJob(c.Request.Context(), jobID)
	if err != nil {
		respondError(c, err, "Failed to cancel backfill job")
		return
	}

	c.JSON(http.StatusOK, job)
}
