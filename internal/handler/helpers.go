package handler

import (
	"errors"
	"net/http"

	"backend/internal/service"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// tenantID reads the tenant set by the auth middleware. Routes are registered
// behind RequireScope, so a missing or malformed tenant is a server-side bug.
func tenantID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.GetString("tenantID"))
	if err != nil {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Tenant context is missing"))
		return uuid.Nil, false
	}
	return id, true
}

// userID returns the acting user from the token, nil when absent
func userID(c *gin.Context) *uuid.UUID {
	id, err := uuid.Parse(c.GetString("userID"))
	if err != nil {
		return nil
	}
	return &id
}

func pathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid "+name+" parameter"))
		return uuid.Nil, false
	}
	return id, true
}

// writeServiceError maps service sentinel errors to HTTP statuses
func writeServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
	case errors.Is(err, service.ErrInvalidState),
		errors.Is(err, service.ErrNegativeStockRejected),
		errors.Is(err, service.ErrInsufficientBatchStock),
		errors.Is(err, service.ErrIncompleteCount):
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
	default:
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
	}
}
