package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/service"
	"backend/pkg/pagination"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type CatalogHandler struct {
	productService service.ProductService
}

func NewCatalogHandler(productService service.ProductService) *CatalogHandler {
	return &CatalogHandler{productService: productService}
}

func (h *CatalogHandler) RegisterRoutes(router *gin.RouterGroup) {
	catalog := router.Group("/api")
	{
		catalog.GET("/products", middleware.RequireScope("catalog.read"), h.GetProducts)
		catalog.POST("/products", middleware.RequireScope("catalog.write"), h.CreateProduct)
		catalog.GET("/products/:id", middleware.RequireScope("catalog.read"), h.GetProduct)
		catalog.PUT("/products/:id", middleware.RequireScope("catalog.write"), h.UpdateProduct)
		catalog.DELETE("/products/:id", middleware.RequireScope("catalog.write"), h.DeleteProduct)
		catalog.GET("/warehouses", middleware.RequireScope("catalog.read"), h.GetWarehouses)
		catalog.POST("/warehouses", middleware.RequireScope("catalog.write"), h.CreateWarehouse)
	}
}

// GetProducts lists catalog products
// @Summary      Get products
// @Description  Retrieves a paginated list of products
// @Tags         catalog
// @Security     BearerAuth
// @Produce      json
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Number of items per page (default 20)"
// @Param        search  query     string  false  "Search by product name"
// @Success      200  {object}  response.Response{data=object}
// @Failure      500  {object}  response.Response
// @Router       /api/products [get]
func (h *CatalogHandler) GetProducts(c *gin.Context) {
	tenant, ok := tenantID(c)
	if !ok {
		return
	}

	p := pagination.Parse(c)
	search := c.Query("search")

	products, total, err := h.productService.ListProducts(c.Request.Context(), tenant, p.Page, p.Limit, search)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"products": products,
		"total":    total,
		"page":     p.Page,
		"limit":    p.Limit,
	}))
}

// CreateProduct creates a product
// @Summary      Create product
// @Description  Creates a new product in the catalog
// @Tags         catalog
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateProductRequest  true  "Create Product Payload"
// @Success      201      {object}  response.Response{data=model.Product}
// @Failure      400      {object}  response.Response
// @Failure      500      {object}  response.Response
// @Router       /api/products [post]
func (h *CatalogHandler) CreateProduct(c *gin.Context) {
	var req service.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	tenant, ok := tenantID(c)
	if !ok {
		return
	}

	product, err := h.productService.CreateProduct(c.Request.Context(), tenant, userID(c), req)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, product))
}

// GetProduct returns one product by ID
// @Summary      Get product
// @Description  Retrieves a product by ID
// @Tags         catalog
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Product ID"
// @Success      200  {object}  response.Response{data=model.Product}
// @Failure      404  {object}  response.Response
// @Failure      500  {object}  response.Response
// @Router       /api/products/{id} [get]
func (h *CatalogHandler) GetProduct(c *gin.Context) {
	tenant, ok := tenantID(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	product, err := h.productService.GetProduct(c.Request.Context(), tenant, id)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, product))
}

// UpdateProduct updates a product
// @Summary      Update product
// @Description  Updates an existing product's details by ID
// @Tags         catalog
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                        true  "Product ID"
// @Param        payload  body      service.UpdateProductRequest  true  "Update Product Payload"
// @Success      200      {object}  response.Response{data=model.Product}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Failure      500      {object}  response.Response
// @Router       /api/products/{id} [put]
func (h *CatalogHandler) UpdateProduct(c *gin.Context) {
	tenant, ok := tenantID(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req service.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	product, err := h.productService.UpdateProduct(c.Request.Context(), tenant, userID(c), id, req)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, product))
}

// DeleteProduct soft deletes a product
// @Summary      Delete product
// @Description  Soft deletes a product by ID
// @Tags         catalog
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Product ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Failure      500  {object}  response.Response
// @Router       /api/products/{id} [delete]
func (h *CatalogHandler) DeleteProduct(c *gin.Context) {
	tenant, ok := tenantID(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	if err := h.productService.DeleteProduct(c.Request.Context(), tenant, userID(c), id); err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Product deleted successfully"))
}

// GetWarehouses lists warehouses
// @Summary      Get warehouses
// @Description  Retrieves a paginated list of warehouses
// @Tags         catalog
// @Security     BearerAuth
// @Produce      json
// @Param        page   query     int  false  "Page number (default 1)"
// @Param        limit  query     int  false  "Number of items per page (default 20)"
// @Success      200  {object}  response.Response{data=object}
// @Failure      500  {object}  response.Response
// @Router       /api/warehouses [get]
func (h *CatalogHandler) GetWarehouses(c *gin.Context) {
	tenant, ok := tenantID(c)
	if !ok {
		return
	}

	p := pagination.Parse(c)

	warehouses, total, err := h.productService.ListWarehouses(c.Request.Context(), tenant, p.Page, p.Limit)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"warehouses": warehouses,
		"total":      total,
		"page":       p.Page,
		"limit":      p.Limit,
	}))
}

// CreateWarehouse creates a warehouse
// @Summary      Create warehouse
// @Description  Creates a new warehouse
// @Tags         catalog
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateWarehouseRequest  true  "Create Warehouse Payload"
// @Success      201      {object}  response.Response{data=model.Warehouse}
// @Failure      400      {object}  response.Response
// @Failure      500      {object}  response.Response
// @Router       /api/warehouses [post]
func (h *CatalogHandler) CreateWarehouse(c *gin.Context) {
	var req service.CreateWarehouseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	tenant, ok := tenantID(c)
	if !ok {
		return
	}

	warehouse, err := h.productService.CreateWarehouse(c.Request.Context(), tenant, userID(c), req)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, warehouse))
}
