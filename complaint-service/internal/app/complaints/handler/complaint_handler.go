package handler

import (
	"net/http"

	"reviewguard/complaint-service/internal/app/complaints/entity"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type ComplaintHandler struct {
	complaintService ComplaintServiceInterface
	validator        *validator.Validate
}

func NewComplaintHandler(complaintService ComplaintServiceInterface) *ComplaintHandler {
	return &ComplaintHandler{
		complaintService: complaintService,
		validator:        validator.New(),
	}
}

func (h *ComplaintHandler) Resolve(c *gin.Context) {
	complaintID, ok := uuidParam(c, "complaint_id")
	if !ok {
		return
	}

	var req entity.ResolutionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if err := h.validator.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": formatValidationError(err)})
		return
	}

	complaint, err := h.complaintService.Resolve(c.Request.Context(), complaintID, req.Resolution)
	if err != nil {
		respondError(c, err, "Failed to resolve complaint")
		return
	}

	c.JSON(http.StatusOK, complaint)
}
