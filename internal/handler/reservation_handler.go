package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/service"
	"backend/pkg/pagination"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type ReservationHandler struct {
	reservationService service.ReservationService
}

func NewReservationHandler(reservationService service.ReservationService) *ReservationHandler {
	return &ReservationHandler{reservationService: reservationService}
}

func (h *ReservationHandler) RegisterRoutes(router *gin.RouterGroup) {
	reservations := router.Group("/api")
	{
		reservations.POST("/reservations", middleware.RequireScope("stock.write"), h.Reserve)
		reservations.GET("/reservations", middleware.RequireScope("stock.read"), h.GetReservations)
		reservations.GET("/reservations/:id", middleware.RequireScope("stock.read"), h.GetReservation)
		reservations.PUT("/reservations/:id/status", middleware.RequireScope("stock.write"), h.UpdateStatus)
		reservations.POST("/reservations/expire-due", middleware.RequireScope("stock.write"), h.ExpireDue)
	}
}

// Reserve earmarks stock for an order
// @Summary      Create reservation
// @Description  Earmarks quantity for an order, raising the reserved balance without moving physical stock
// @Tags         reservations
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.ReserveInput  true  "Reserve Payload"
// @Success      201      {object}  response.Response{data=model.StockReservation}
// @Failure      400      {object}  response.Response
// @Failure      500      {object}  response.Response
// @Router       /api/reservations [post]
func (h *ReservationHandler) Reserve(c *gin.Context) {
	var input service.ReserveInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	tenant, ok := tenantID(c)
	if !ok {
		return
	}

	reservation, err := h.reservationService.Reserve(c.Request.Context(), tenant, userID(c), input)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, reservation))
}

// GetReservations lists reservations
// @Summary      Get reservations
// @Description  Retrieves paginated reservations, optionally filtered by status
// @Tags         reservations
// @Security     BearerAuth
// @Produce      json
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Number of items per page (default 20)"
// @Param        status  query     string  false  "Filter by status"
// @Success      200  {object}  response.Response{data=object}
// @Failure      500  {object}  response.Response
// @Router       /api/reservations [get]
func (h *ReservationHandler) GetReservations(c *gin.Context) {
	tenant, ok := tenantID(c)
	if !ok {
		return
	}

	p := pagination.Parse(c)
	status := c.Query("status")

	reservations, total, err := h.reservationService.List(c.Request.Context(), tenant, status, p.Page, p.Limit)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"reservations": reservations,
		"total":        total,
		"page":         p.Page,
		"limit":        p.Limit,
	}))
}

// GetReservation returns one reservation by ID
// @Summary      Get reservation
// @Description  Retrieves a reservation by ID
// @Tags         reservations
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Reservation ID"
// @Success      200  {object}  response.Response{data=model.StockReservation}
// @Failure      404  {object}  response.Response
// @Failure      500  {object}  response.Response
// @Router       /api/reservations/{id} [get]
func (h *ReservationHandler) GetReservation(c *gin.Context) {
	tenant, ok := tenantID(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	reservation, err := h.reservationService.Get(c.Request.Context(), tenant, id)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, reservation))
}

type updateReservationStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=consumed released expired"`
}

// UpdateStatus transitions a reservation to a terminal state
// @Summary      Update reservation status
// @Description  Transitions an active reservation to consumed, released or expired, freeing the hold
// @Tags         reservations
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                          true  "Reservation ID"
// @Param        payload  body      handler.updateReservationStatusRequest  true  "Status Payload"
// @Success      200      {object}  response.Response{data=model.StockReservation}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Failure      500      {object}  response.Response
// @Router       /api/reservations/{id}/status [put]
func (h *ReservationHandler) UpdateStatus(c *gin.Context) {
	tenant, ok := tenantID(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req updateReservationStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	reservation, err := h.reservationService.UpdateStatus(c.Request.Context(), tenant, userID(c), id, req.Status)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, reservation))
}

// ExpireDue sweeps reservations past their expiry timestamp
// @Summary      Expire due reservations
// @Description  Transitions every active reservation past its expires_at to expired and frees the holds
// @Tags         reservations
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=object}
// @Failure      500  {object}  response.Response
// @Router       /api/reservations/expire-due [post]
func (h *ReservationHandler) ExpireDue(c *gin.Context) {
	tenant, ok := tenantID(c)
	if !ok {
		return
	}

	expired, err := h.reservationService.ExpireDue(c.Request.Context(), tenant)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"expired": expired,
	}))
}
