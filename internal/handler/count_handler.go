package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/service"
	"backend/pkg/pagination"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type CountHandler struct {
	countService service.CountService
}

func NewCountHandler(countService service.CountService) *CountHandler {
	return &CountHandler{countService: countService}
}

func (h *CountHandler) RegisterRoutes(router *gin.RouterGroup) {
	counts := router.Group("/api")
	{
		counts.POST("/inventory-counts", middleware.RequireScope("counts.write"), h.CreateCount)
		counts.GET("/inventory-counts", middleware.RequireScope("counts.read"), h.GetCounts)
		counts.GET("/inventory-counts/:id", middleware.RequireScope("counts.read"), h.GetCount)
		counts.PUT("/inventory-counts/:id/items", middleware.RequireScope("counts.write"), h.RegisterItem)
		counts.POST("/inventory-counts/:id/approve", middleware.RequireScope("counts.approve"), h.ApproveCount)
	}
}

// CreateCount opens an inventory count with a frozen snapshot
// @Summary      Create inventory count
// @Description  Opens a full or partial count, freezing system quantities at creation time
// @Tags         counts
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateCountInput  true  "Create Count Payload"
// @Success      201      {object}  response.Response{data=service.CountView}
// @Failure      400      {object}  response.Response
// @Failure      500      {object}  response.Response
// @Router       /api/inventory-counts [post]
func (h *CountHandler) CreateCount(c *gin.Context) {
	var input service.CreateCountInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	tenant, ok := tenantID(c)
	if !ok {
		return
	}

	count, err := h.countService.Create(c.Request.Context(), tenant, userID(c), input)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, count))
}

// GetCounts lists inventory counts
// @Summary      Get inventory counts
// @Description  Retrieves paginated inventory counts, optionally filtered by status
// @Tags         counts
// @Security     BearerAuth
// @Produce      json
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Number of items per page (default 20)"
// @Param        status  query     string  false  "Filter by status"
// @Success      200  {object}  response.Response{data=object}
// @Failure      500  {object}  response.Response
// @Router       /api/inventory-counts [get]
func (h *CountHandler) GetCounts(c *gin.Context) {
	tenant, ok := tenantID(c)
	if !ok {
		return
	}

	p := pagination.Parse(c)
	status := c.Query("status")

	counts, total, err := h.countService.List(c.Request.Context(), tenant, status, p.Page, p.Limit)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"counts": counts,
		"total":  total,
		"page":   p.Page,
		"limit":  p.Limit,
	}))
}

// GetCount returns one count; blind counts mask uncounted system quantities
// @Summary      Get inventory count
// @Description  Retrieves a count with its items; on a blind count, system quantities of pending items are withheld
// @Tags         counts
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Count ID"
// @Success      200  {object}  response.Response{data=service.CountView}
// @Failure      404  {object}  response.Response
// @Failure      500  {object}  response.Response
// @Router       /api/inventory-counts/{id} [get]
func (h *CountHandler) GetCount(c *gin.Context) {
	tenant, ok := tenantID(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	count, err := h.countService.Get(c.Request.Context(), tenant, id)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, count))
}

// RegisterItem records a counted quantity for one product in the count
// @Summary      Register counted quantity
// @Description  Records the physically counted quantity for a product in an open count
// @Tags         counts
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                           true  "Count ID"
// @Param        payload  body      service.RegisterCountItemInput   true  "Counted Item Payload"
// @Success      200      {object}  response.Response{data=service.CountItemView}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Failure      500      {object}  response.Response
// @Router       /api/inventory-counts/{id}/items [put]
func (h *CountHandler) RegisterItem(c *gin.Context) {
	tenant, ok := tenantID(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var input service.RegisterCountItemInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	item, err := h.countService.RegisterItem(c.Request.Context(), tenant, userID(c), id, input)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, item))
}

// ApproveCount reconciles every discrepancy into corrective movements
// @Summary      Approve inventory count
// @Description  Approves a completed count, emitting one corrective adjustment movement per non-zero difference
// @Tags         counts
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Count ID"
// @Success      200  {object}  response.Response{data=service.CountView}
// @Failure      400  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Failure      500  {object}  response.Response
// @Router       /api/inventory-counts/{id}/approve [post]
func (h *CountHandler) ApproveCount(c *gin.Context) {
	tenant, ok := tenantID(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	count, err := h.countService.Approve(c.Request.Context(), tenant, userID(c), id)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, count))
}
