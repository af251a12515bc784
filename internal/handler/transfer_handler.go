package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/service"
	"backend/pkg/pagination"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type TransferHandler struct {
	transferService service.TransferService
}

func NewTransferHandler(transferService service.TransferService) *TransferHandler {
	return &TransferHandler{transferService: transferService}
}

func (h *TransferHandler) RegisterRoutes(router *gin.RouterGroup) {
	transfers := router.Group("/api")
	{
		transfers.POST("/transfers", middleware.RequireScope("transfers.write"), h.CreateTransfer)
		transfers.GET("/transfers", middleware.RequireScope("transfers.read"), h.GetTransfers)
		transfers.GET("/transfers/:id", middleware.RequireScope("transfers.read"), h.GetTransfer)
		transfers.POST("/transfers/:id/ship", middleware.RequireScope("transfers.write"), h.ShipTransfer)
		transfers.POST("/transfers/:id/receive", middleware.RequireScope("transfers.write"), h.ReceiveTransfer)
		transfers.POST("/transfers/:id/cancel", middleware.RequireScope("transfers.write"), h.CancelTransfer)
	}
}

// CreateTransfer drafts a warehouse-to-warehouse transfer
// @Summary      Create transfer
// @Description  Creates a draft transfer with its items; no stock moves until shipping
// @Tags         transfers
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateTransferInput  true  "Create Transfer Payload"
// @Success      201      {object}  response.Response{data=model.StockTransfer}
// @Failure      400      {object}  response.Response
// @Failure      500      {object}  response.Response
// @Router       /api/transfers [post]
func (h *TransferHandler) CreateTransfer(c *gin.Context) {
	var input service.CreateTransferInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	tenant, ok := tenantID(c)
	if !ok {
		return
	}

	transfer, err := h.transferService.Create(c.Request.Context(), tenant, userID(c), input)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, transfer))
}

// GetTransfers lists transfers
// @Summary      Get transfers
// @Description  Retrieves paginated transfers, optionally filtered by status
// @Tags         transfers
// @Security     BearerAuth
// @Produce      json
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Number of items per page (default 20)"
// @Param        status  query     string  false  "Filter by status"
// @Success      200  {object}  response.Response{data=object}
// @Failure      500  {object}  response.Response
// @Router       /api/transfers [get]
func (h *TransferHandler) GetTransfers(c *gin.Context) {
	tenant, ok := tenantID(c)
	if !ok {
		return
	}

	p := pagination.Parse(c)
	status := c.Query("status")

	transfers, total, err := h.transferService.List(c.Request.Context(), tenant, status, p.Page, p.Limit)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"transfers": transfers,
		"total":     total,
		"page":      p.Page,
		"limit":     p.Limit,
	}))
}

// GetTransfer returns one transfer with its items
// @Summary      Get transfer
// @Description  Retrieves a transfer by ID including its items
// @Tags         transfers
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Transfer ID"
// @Success      200  {object}  response.Response{data=model.StockTransfer}
// @Failure      404  {object}  response.Response
// @Failure      500  {object}  response.Response
// @Router       /api/transfers/{id} [get]
func (h *TransferHandler) GetTransfer(c *gin.Context) {
	tenant, ok := tenantID(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	transfer, err := h.transferService.Get(c.Request.Context(), tenant, id)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, transfer))
}

// ShipTransfer moves a draft transfer in transit
// @Summary      Ship transfer
// @Description  Ships a draft transfer, emitting an exit movement per item at the source warehouse
// @Tags         transfers
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Transfer ID"
// @Success      200  {object}  response.Response{data=model.StockTransfer}
// @Failure      400  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Failure      500  {object}  response.Response
// @Router       /api/transfers/{id}/ship [post]
func (h *TransferHandler) ShipTransfer(c *gin.Context) {
	tenant, ok := tenantID(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	transfer, err := h.transferService.Ship(c.Request.Context(), tenant, userID(c), id)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, transfer))
}

// ReceiveTransfer completes an in-transit transfer
// @Summary      Receive transfer
// @Description  Receives an in-transit transfer, emitting an entry movement per item at the destination warehouse
// @Tags         transfers
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Transfer ID"
// @Success      200  {object}  response.Response{data=model.StockTransfer}
// @Failure      400  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Failure      500  {object}  response.Response
// @Router       /api/transfers/{id}/receive [post]
func (h *TransferHandler) ReceiveTransfer(c *gin.Context) {
	tenant, ok := tenantID(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	transfer, err := h.transferService.Receive(c.Request.Context(), tenant, userID(c), id)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, transfer))
}

// CancelTransfer cancels a draft or in-transit transfer
// @Summary      Cancel transfer
// @Description  Cancels a transfer; an in-transit cancellation returns the shipped stock to the source warehouse
// @Tags         transfers
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Transfer ID"
// @Success      200  {object}  response.Response{data=model.StockTransfer}
// @Failure      400  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Failure      500  {object}  response.Response
// @Router       /api/transfers/{id}/cancel [post]
func (h *TransferHandler) CancelTransfer(c *gin.Context) {
	tenant, ok := tenantID(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	transfer, err := h.transferService.Cancel(c.Request.Context(), tenant, userID(c), id)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, transfer))
}
