package handler

import (
	"net/http"

	"reviewguard/complaint-service/internal/app/complaints/entity"
	"reviewguard/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// ExtensionHandler - API браузерного расширения
type ExtensionHandler struct {
	extensionService ExtensionServiceInterface
	validator        *validator.Validate
}

func NewExtensionHandler(extensionService ExtensionServiceInterface) *ExtensionHandler {
	return &ExtensionHandler{
		extensionService: extensionService,
		validator:        validator.New(),
	}
}

// SaveComplaintDetail - 201 для новой записи, 200 для дубля
func (h *ExtensionHandler) SaveComplaintDetail(c *gin.Context) {
	storeID, ok := c.Get(logger.FieldStoreID)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req entity.ComplaintDetailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if err := h.validator.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": formatValidationError(err)})
		return
	}

	inserted, err := h.extensionService.SaveComplaintDetail(c.Request.Context(), storeID.(uuid.UUID), &req)
	if err != nil {
		respondError(c, err, "Failed to save complaint detail")
		return
	}

	if inserted {
		c.JSON(http.StatusCreated, gin.H{"result": "inserted"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": "skipped"})
}
