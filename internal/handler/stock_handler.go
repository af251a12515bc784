package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/service"
	"backend/pkg/pagination"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type StockHandler struct {
	stockService service.StockService
	batchService service.BatchService
}

func NewStockHandler(stockService service.StockService, batchService service.BatchService) *StockHandler {
	return &StockHandler{stockService: stockService, batchService: batchService}
}

func (h *StockHandler) RegisterRoutes(router *gin.RouterGroup) {
	stock := router.Group("/api")
	{
		stock.POST("/stock/movements", middleware.RequireScope("stock.write"), h.RecordMovement)
		stock.GET("/stock/levels", middleware.RequireScope("stock.read"), h.GetLevels)
		stock.GET("/stock/levels/:productId/:warehouseId", middleware.RequireScope("stock.read"), h.GetLevel)
		stock.GET("/stock/movements/:productId/:warehouseId", middleware.RequireScope("stock.read"), h.GetMovements)
		stock.POST("/stock/batches", middleware.RequireScope("stock.write"), h.CreateBatch)
		stock.GET("/stock/batches", middleware.RequireScope("stock.read"), h.GetBatches)
		stock.GET("/stock/batches/fifo/:productId/:warehouseId", middleware.RequireScope("stock.read"), h.GetFifoBatches)
		stock.POST("/stock/batches/allocate", middleware.RequireScope("stock.write"), h.AllocateBatches)
	}
}

// RecordMovement appends one immutable entry to the stock ledger
// @Summary      Record stock movement
// @Description  Records an entry or exit movement, updating the stock level and moving average cost atomically
// @Tags         stock
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.MovementInput  true  "Movement Payload"
// @Success      201      {object}  response.Response{data=model.StockMovement}
// @Failure      400      {object}  response.Response
// @Failure      500      {object}  response.Response
// @Router       /api/stock/movements [post]
func (h *StockHandler) RecordMovement(c *gin.Context) {
	var input service.MovementInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	tenant, ok := tenantID(c)
	if !ok {
		return
	}

	movement, err := h.stockService.RecordMovement(c.Request.Context(), tenant, userID(c), input)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, movement))
}

// GetLevels lists per-product per-warehouse stock levels
// @Summary      Get stock levels
// @Description  Retrieves paginated stock levels, optionally filtered by warehouse or product
// @Tags         stock
// @Security     BearerAuth
// @Produce      json
// @Param        page          query     int     false  "Page number (default 1)"
// @Param        limit         query     int     false  "Number of items per page (default 20)"
// @Param        warehouse_id  query     string  false  "Filter by warehouse ID"
// @Param        product_id    query     string  false  "Filter by product ID"
// @Success      200  {object}  response.Response{data=object}
// @Failure      500  {object}  response.Response
// @Router       /api/stock/levels [get]
func (h *StockHandler) GetLevels(c *gin.Context) {
	tenant, ok := tenantID(c)
	if !ok {
		return
	}

	p := pagination.Parse(c)

	var warehouseID, productID *uuid.UUID
	if raw := c.Query("warehouse_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid warehouse_id parameter"))
			return
		}
		warehouseID = &id
	}
	if raw := c.Query("product_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid product_id parameter"))
			return
		}
		productID = &id
	}

	levels, total, err := h.stockService.GetLevels(c.Request.Context(), tenant, warehouseID, productID, p.Page, p.Limit)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"levels": levels,
		"total":  total,
		"page":   p.Page,
		"limit":  p.Limit,
	}))
}

// GetLevel returns the current balance for one product/warehouse pair
// @Summary      Get stock level
// @Description  Retrieves the stock level of a product in a warehouse
// @Tags         stock
// @Security     BearerAuth
// @Produce      json
// @Param        productId    path      string  true  "Product ID"
// @Param        warehouseId  path      string  true  "Warehouse ID"
// @Success      200  {object}  response.Response{data=model.StockLevel}
// @Failure      400  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Failure      500  {object}  response.Response
// @Router       /api/stock/levels/{productId}/{warehouseId} [get]
func (h *StockHandler) GetLevel(c *gin.Context) {
	tenant, ok := tenantID(c)
	if !ok {
		return
	}
	productID, ok := pathUUID(c, "productId")
	if !ok {
		return
	}
	warehouseID, ok := pathUUID(c, "warehouseId")
	if !ok {
		return
	}

	level, err := h.stockService.GetLevel(c.Request.Context(), tenant, productID, warehouseID)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, level))
}

// GetMovements returns the movement history (kardex) for a product/warehouse pair
// @Summary      Get stock movements
// @Description  Retrieves the paginated movement ledger for a product in a warehouse, newest first
// @Tags         stock
// @Security     BearerAuth
// @Produce      json
// @Param        productId    path      string  true   "Product ID"
// @Param        warehouseId  path      string  true   "Warehouse ID"
// @Param        page         query     int     false  "Page number (default 1)"
// @Param        limit        query     int     false  "Number of items per page (default 20)"
// @Success      200  {object}  response.Response{data=object}
// @Failure      400  {object}  response.Response
// @Failure      500  {object}  response.Response
// @Router       /api/stock/movements/{productId}/{warehouseId} [get]
func (h *StockHandler) GetMovements(c *gin.Context) {
	tenant, ok := tenantID(c)
	if !ok {
		return
	}
	productID, ok := pathUUID(c, "productId")
	if !ok {
		return
	}
	warehouseID, ok := pathUUID(c, "warehouseId")
	if !ok {
		return
	}

	p := pagination.Parse(c)

	movements, total, err := h.stockService.GetMovements(c.Request.Context(), tenant, productID, warehouseID, p.Page, p.Limit)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"movements": movements,
		"total":     total,
		"page":      p.Page,
		"limit":     p.Limit,
	}))
}

// CreateBatch registers a new stock lot
// @Summary      Create stock batch
// @Description  Registers a lot-coded sub-quantity with optional expiration date
// @Tags         stock
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateBatchInput  true  "Create Batch Payload"
// @Success      201      {object}  response.Response{data=model.StockBatch}
// @Failure      400      {object}  response.Response
// @Failure      500      {object}  response.Response
// @Router       /api/stock/batches [post]
func (h *StockHandler) CreateBatch(c *gin.Context) {
	var input service.CreateBatchInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	tenant, ok := tenantID(c)
	if !ok {
		return
	}

	batch, err := h.batchService.Create(c.Request.Context(), tenant, userID(c), input)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, batch))
}

// GetBatches lists stock batches
// @Summary      Get stock batches
// @Description  Retrieves paginated batches, optionally filtered by product or warehouse
// @Tags         stock
// @Security     BearerAuth
// @Produce      json
// @Param        page          query     int     false  "Page number (default 1)"
// @Param        limit         query     int     false  "Number of items per page (default 20)"
// @Param        product_id    query     string  false  "Filter by product ID"
// @Param        warehouse_id  query     string  false  "Filter by warehouse ID"
// @Success      200  {object}  response.Response{data=object}
// @Failure      500  {object}  response.Response
// @Router       /api/stock/batches [get]
func (h *StockHandler) GetBatches(c *gin.Context) {
	tenant, ok := tenantID(c)
	if !ok {
		return
	}

	p := pagination.Parse(c)

	var warehouseID, productID *uuid.UUID
	if raw := c.Query("warehouse_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid warehouse_id parameter"))
			return
		}
		warehouseID = &id
	}
	if raw := c.Query("product_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid product_id parameter"))
			return
		}
		productID = &id
	}

	batches, total, err := h.batchService.List(c.Request.Context(), tenant, productID, warehouseID, p.Page, p.Limit)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"batches": batches,
		"total":   total,
		"page":    p.Page,
		"limit":   p.Limit,
	}))
}

// GetFifoBatches returns open lots in consumption order
// @Summary      Get FIFO batch order
// @Description  Retrieves open lots for a product in a warehouse ordered by expiration date, earliest first, undated last
// @Tags         stock
// @Security     BearerAuth
// @Produce      json
// @Param        productId    path      string  true  "Product ID"
// @Param        warehouseId  path      string  true  "Warehouse ID"
// @Success      200  {object}  response.Response{data=object}
// @Failure      400  {object}  response.Response
// @Failure      500  {object}  response.Response
// @Router       /api/stock/batches/fifo/{productId}/{warehouseId} [get]
func (h *StockHandler) GetFifoBatches(c *gin.Context) {
	tenant, ok := tenantID(c)
	if !ok {
		return
	}
	productID, ok := pathUUID(c, "productId")
	if !ok {
		return
	}
	warehouseID, ok := pathUUID(c, "warehouseId")
	if !ok {
		return
	}

	batches, err := h.batchService.GetFifo(c.Request.Context(), tenant, productID, warehouseID)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, batches))
}

type allocateBatchesRequest struct {
	ProductID   uuid.UUID       `json:"product_id" binding:"required"`
	WarehouseID uuid.UUID       `json:"warehouse_id" binding:"required"`
	Quantity    decimal.Decimal `json:"quantity" binding:"required"`
}

// AllocateBatches drains lots FIFO to cover a requested quantity
// @Summary      Allocate batches FIFO
// @Description  Consumes lots in expiry order until the quantity is covered; fails atomically when lots cannot cover it
// @Tags         stock
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      handler.allocateBatchesRequest  true  "Allocation Payload"
// @Success      200      {object}  response.Response{data=object}
// @Failure      400      {object}  response.Response
// @Failure      500      {object}  response.Response
// @Router       /api/stock/batches/allocate [post]
func (h *StockHandler) AllocateBatches(c *gin.Context) {
	var req allocateBatchesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	tenant, ok := tenantID(c)
	if !ok {
		return
	}

	allocations, err := h.batchService.AllocateFifo(c.Request.Context(), tenant, req.ProductID, req.WarehouseID, req.Quantity)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"allocations": allocations,
	}))
}
