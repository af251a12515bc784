package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/service"
	"backend/pkg/pagination"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type ProductionHandler struct {
	productionService service.ProductionService
	kitService        service.KitService
}

func NewProductionHandler(productionService service.ProductionService, kitService service.KitService) *ProductionHandler {
	return &ProductionHandler{productionService: productionService, kitService: kitService}
}

func (h *ProductionHandler) RegisterRoutes(router *gin.RouterGroup) {
	production := router.Group("/api")
	{
		production.POST("/production-orders", middleware.RequireScope("production.write"), h.CreateOrder)
		production.GET("/production-orders", middleware.RequireScope("production.read"), h.GetOrders)
		production.GET("/production-orders/:id", middleware.RequireScope("production.read"), h.GetOrder)
		production.POST("/production-orders/:id/start", middleware.RequireScope("production.write"), h.StartOrder)
		production.POST("/production-orders/:id/finish", middleware.RequireScope("production.write"), h.FinishOrder)
		production.POST("/production-orders/:id/cancel", middleware.RequireScope("production.write"), h.CancelOrder)
		production.PUT("/kits/:productId/components", middleware.RequireScope("production.write"), h.SetKitComponents)
		production.GET("/kits/:productId/components", middleware.RequireScope("production.read"), h.GetKitComponents)
	}
}

// CreateOrder creates a production order from a kit definition
// @Summary      Create production order
// @Description  Creates a pending production order, expanding the kit definition into scaled component requirements
// @Tags         production
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateProductionOrderInput  true  "Create Production Order Payload"
// @Success      201      {object}  response.Response{data=model.ProductionOrder}
// @Failure      400      {object}  response.Response
// @Failure      500      {object}  response.Response
// @Router       /api/production-orders [post]
func (h *ProductionHandler) CreateOrder(c *gin.Context) {
	var input service.CreateProductionOrderInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	tenant, ok := tenantID(c)
	if !ok {
		return
	}

	order, err := h.productionService.Create(c.Request.Context(), tenant, userID(c), input)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, order))
}

// GetOrders lists production orders
// @Summary      Get production orders
// @Description  Retrieves paginated production orders, optionally filtered by status
// @Tags         production
// @Security     BearerAuth
// @Produce      json
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Number of items per page (default 20)"
// @Param        status  query     string  false  "Filter by status"
// @Success      200  {object}  response.Response{data=object}
// @Failure      500  {object}  response.Response
// @Router       /api/production-orders [get]
func (h *ProductionHandler) GetOrders(c *gin.Context) {
	tenant, ok := tenantID(c)
	if !ok {
		return
	}

	p := pagination.Parse(c)
	status := c.Query("status")

	orders, total, err := h.productionService.List(c.Request.Context(), tenant, status, p.Page, p.Limit)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"orders": orders,
		"total":  total,
		"page":   p.Page,
		"limit":  p.Limit,
	}))
}

// GetOrder returns one production order with its component items
// @Summary      Get production order
// @Description  Retrieves a production order by ID including its component items
// @Tags         production
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Production Order ID"
// @Success      200  {object}  response.Response{data=model.ProductionOrder}
// @Failure      404  {object}  response.Response
// @Failure      500  {object}  response.Response
// @Router       /api/production-orders/{id} [get]
func (h *ProductionHandler) GetOrder(c *gin.Context) {
	tenant, ok := tenantID(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	order, err := h.productionService.Get(c.Request.Context(), tenant, id)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

// StartOrder consumes components and starts production
// @Summary      Start production order
// @Description  Consumes every component requirement in one transaction and moves the order to in_progress
// @Tags         production
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Production Order ID"
// @Success      200  {object}  response.Response{data=model.ProductionOrder}
// @Failure      400  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Failure      500  {object}  response.Response
// @Router       /api/production-orders/{id}/start [post]
func (h *ProductionHandler) StartOrder(c *gin.Context) {
	tenant, ok := tenantID(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	order, err := h.productionService.Start(c.Request.Context(), tenant, userID(c), id)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

// FinishOrder books the produced quantity into stock
// @Summary      Finish production order
// @Description  Finishes an in-progress order, booking the produced quantity priced at consumed component cost
// @Tags         production
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Production Order ID"
// @Success      200  {object}  response.Response{data=model.ProductionOrder}
// @Failure      400  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Failure      500  {object}  response.Response
// @Router       /api/production-orders/{id}/finish [post]
func (h *ProductionHandler) FinishOrder(c *gin.Context) {
	tenant, ok := tenantID(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	order, err := h.productionService.Finish(c.Request.Context(), tenant, userID(c), id)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

// CancelOrder cancels a production order before any consumption
// @Summary      Cancel production order
// @Description  Cancels a pending order; rejected once any component has been consumed
// @Tags         production
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Production Order ID"
// @Success      200  {object}  response.Response{data=model.ProductionOrder}
// @Failure      400  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Failure      500  {object}  response.Response
// @Router       /api/production-orders/{id}/cancel [post]
func (h *ProductionHandler) CancelOrder(c *gin.Context) {
	tenant, ok := tenantID(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	order, err := h.productionService.Cancel(c.Request.Context(), tenant, userID(c), id)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

type setKitComponentsRequest struct {
	Components []service.KitComponentInput `json:"components" binding:"required,min=1,dive"`
}

// SetKitComponents replaces a kit's component list
// @Summary      Set kit components
// @Description  Replaces the component list of a kit product; quantities are per produced unit
// @Tags         production
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        productId  path      string                            true  "Kit Product ID"
// @Param        payload    body      handler.setKitComponentsRequest   true  "Components Payload"
// @Success      200        {object}  response.Response{data=object}
// @Failure      400        {object}  response.Response
// @Failure      404        {object}  response.Response
// @Failure      500        {object}  response.Response
// @Router       /api/kits/{productId}/components [put]
func (h *ProductionHandler) SetKitComponents(c *gin.Context) {
	tenant, ok := tenantID(c)
	if !ok {
		return
	}
	productID, ok := pathUUID(c, "productId")
	if !ok {
		return
	}

	var req setKitComponentsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	components, err := h.kitService.SetComponents(c.Request.Context(), tenant, userID(c), productID, req.Components)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"components": components,
	}))
}

// GetKitComponents returns a kit's component list
// @Summary      Get kit components
// @Description  Retrieves the component list of a kit product
// @Tags         production
// @Security     BearerAuth
// @Produce      json
// @Param        productId  path      string  true  "Kit Product ID"
// @Success      200        {object}  response.Response{data=object}
// @Failure      400        {object}  response.Response
// @Failure      500        {object}  response.Response
// @Router       /api/kits/{productId}/components [get]
func (h *ProductionHandler) GetKitComponents(c *gin.Context) {
	tenant, ok := tenantID(c)
	if !ok {
		return
	}
	productID, ok := pathUUID(c, "productId")
	if !ok {
		return
	}

	components, err := h.kitService.GetComponents(c.Request.Context(), tenant, productID)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"components": components,
	}))
}
