package handler

import (
	"net/http"

	"reviewguard/complaint-service/internal/app/complaints/entity"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// StoreHandler - настройки магазинов и товаров
type StoreHandler struct {
	storeService     StoreServiceInterface
	productService   ProductServiceInterface
	extensionService ExtensionServiceInterface
	validator        *validator.Validate
}

func NewStoreHandler(storeService StoreServiceInterface, productService ProductServiceInterface, extensionService ExtensionServiceInterface) *StoreHandler {
	return &StoreHandler{
		storeService:     storeService,
		productService:   productService,
		extensionService: extensionService,
		validator:        validator.New(),
	}
}

// UpdateStore - включение магазина запускает backfill его бэклога
func (h *StoreHandler) UpdateStore(c *gin.Context) {
	storeID, ok := uuidParam(c, "store_id")
	if !ok {
		return
	}

	var req entity.UpdateStoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if err := h.validator.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": formatValidationError(err)})
		return
	}

	store, err := h.storeService.UpdateStore(c.Request.Context(), storeID, &req)
	if err != nil {
		respondError(c, err, "Failed to update store")
		return
	}

	c.JSON(http.StatusOK, store)
}

func (h *StoreHandler) GetQuota(c *gin.Context) {
	storeID, ok := uuidParam(c, "store_id")
	if !ok {
		return
	}

	usage, err := h.storeService.GetQuotaUsage(c.Request.Context(), storeID)
	if err != nil {
		respondError(c, err, "Failed to get quota usage")
		return
	}

	c.JSON(http.StatusOK, usage)
}

func (h *StoreHandler) IssueExtensionKey(c *gin.Context) {
	storeID, ok := uuidParam(c, "store_id")
	if !ok {
		return
	}

	key, err := h.extensionService.IssueKey(c.Request.Context(), storeID)
	if err != nil {
		respondError(c, err, "Failed to issue extension key")
		return
	}

	c.JSON(http.StatusCreated, key)
}

func (h *StoreHandler) UpdateProduct(c *gin.Context) {
	productID, ok := uuidParam(c, "product_id")
	if !ok {
		return
	}

	var req entity.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	product, err := h.productService.UpdateProduct(c.Request.Context(), productID, &req)
	if err != nil {
		respondError(c, err, "Failed to update product")
		return
	}

	c.JSON(http.StatusOK, product)
}
